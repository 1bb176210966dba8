// Package filex holds filesystem helpers for the application storage root.
package filex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dcitarelli/workflow/internal/common"
)

// EnsureDir creates dir (and parents) if needed and returns it.
func EnsureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return dir, nil
}

// WriteText writes content to path, creating parent directories as needed.
// The write is a plain overwrite of the destination file.
func WriteText(path string, content string) error {
	if parent := filepath.Dir(path); parent != "" {
		if err := os.MkdirAll(parent, 0o770); err != nil {
			return fmt.Errorf("mkdir %s: %w", parent, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// SanitizeRelativePath validates a caller-supplied relative path, rejecting
// anything that could escape the storage root (absolute paths, "..", empty).
func SanitizeRelativePath(value string) (string, error) {
	var parts []string
	for _, part := range strings.Split(filepath.ToSlash(value), "/") {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", common.ErrInvalidPath
		}
		if strings.ContainsRune(part, os.PathSeparator) {
			return "", common.ErrInvalidPath
		}
		parts = append(parts, part)
	}
	if filepath.IsAbs(value) || len(parts) == 0 {
		return "", common.ErrInvalidPath
	}
	return filepath.Join(parts...), nil
}

// SanitizeFilename maps a user-supplied name onto a safe basename, replacing
// anything outside [A-Za-z0-9._-] with underscores.
func SanitizeFilename(value string, fallback string) string {
	var b strings.Builder
	for _, ch := range value {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			ch == '-', ch == '_', ch == '.':
			b.WriteRune(ch)
		default:
			b.WriteRune('_')
		}
	}
	trimmed := strings.Trim(b.String(), "_")
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
