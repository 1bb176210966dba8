package vault

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dcitarelli/workflow/internal/cryptox"
	"github.com/dcitarelli/workflow/internal/filex"
	"github.com/dcitarelli/workflow/internal/jsonx"
)

// The storage methods expose a small key-value area under the storage
// root for auxiliary files. Keys are sanitized relative paths, so a key
// can never escape the root.

func (s *Store) storagePath(key string) (string, error) {
	rel, err := filex.SanitizeRelativePath(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, rel), nil
}

// ReadText returns the stored text for key. The second result is false
// when the file does not exist.
func (s *Store) ReadText(key string) (string, bool, error) {
	path, err := s.storagePath(key)
	if err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// WriteText stores text under key, creating parent directories.
func (s *Store) WriteText(key, content string) error {
	path, err := s.storagePath(key)
	if err != nil {
		return err
	}
	return filex.WriteText(path, content)
}

// ReadJSON returns the decoded JSON value for key. Absent or malformed
// files yield (nil, false, nil).
func (s *Store) ReadJSON(key string) (any, bool, error) {
	text, ok, err := s.ReadText(key)
	if err != nil || !ok {
		return nil, false, err
	}
	var value any
	if err := json.Unmarshal([]byte(text), &value); err != nil {
		return nil, false, nil
	}
	return value, true, nil
}

// WriteJSON stores value under key as pretty-printed JSON.
func (s *Store) WriteJSON(key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	return s.WriteText(key, string(data))
}

// ReadEncrypted decrypts the envelope stored under key with password.
// Absent files, malformed envelopes, and failed decryption all yield
// ("", false, nil).
func (s *Store) ReadEncrypted(key, password string) (string, bool, error) {
	text, ok, err := s.ReadText(key)
	if err != nil || !ok {
		return "", false, err
	}
	var env cryptox.Envelope
	if err := json.Unmarshal([]byte(text), &env); err != nil {
		return "", false, nil
	}
	plaintext, ok := cryptox.DecryptEnvelope(&env, password)
	if !ok {
		return "", false, nil
	}
	return plaintext, true, nil
}

// WriteEncrypted seals content with password and stores the envelope
// under key as pretty-printed JSON.
func (s *Store) WriteEncrypted(key, content, password string) error {
	env, err := cryptox.EncryptText(content, password)
	if err != nil {
		return err
	}
	return s.WriteJSON(key, env)
}

// EmailTemplates returns the saved template set. Anything but a JSON
// object on disk yields an empty map.
func (s *Store) EmailTemplates() (map[string]string, error) {
	text, ok, err := s.ReadText(EmailTemplatesFile)
	if err != nil {
		return nil, err
	}
	templates := map[string]string{}
	if !ok {
		return templates, nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return templates, nil
	}
	for name, value := range raw {
		templates[name] = jsonx.CoerceString(value)
	}
	return templates, nil
}

// SetEmailTemplates replaces the saved template set. A nil map stores
// an empty object.
func (s *Store) SetEmailTemplates(templates map[string]string) error {
	if templates == nil {
		templates = map[string]string{}
	}
	return s.WriteJSON(EmailTemplatesFile, templates)
}
