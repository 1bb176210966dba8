package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sources lists the selectable database sources.
func (a *App) Sources(ctx context.Context) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	result, err := a.service.SourcesGet(password)
	if err != nil {
		return err
	}
	for _, source := range result.Sources {
		marker := "  "
		if source.ID == result.ActiveID {
			marker = "* "
		}
		suffix := ""
		if source.Readonly {
			suffix = " (read-only)"
		}
		printlnFn(fmt.Sprintf("%s%-24s %s%s", marker, source.ID, source.Name, suffix))
	}
	return nil
}

// SetSource selects the active source: source <source-id>.
func (a *App) SetSource(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		printlnFn("Usage: source <source-id>")
		return nil
	}
	active, err := a.service.SetSource(password, args[0])
	if err != nil {
		return err
	}
	printlnFn(successText("Active source: " + active))
	return nil
}

// Import applies an exported database file: import <append|replace|view> <path>.
func (a *App) Import(ctx context.Context, args []string) error {
	if _, err := a.requirePassword(); err != nil {
		return err
	}
	if len(args) < 2 {
		printlnFn("Usage: import <append|replace|view> <path>")
		return nil
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	password, err := getPassword("Enter password: ", os.Stdout)
	if err != nil {
		return err
	}

	result, err := a.service.ImportApply(args[0], password, string(data), filepath.Base(args[1]))
	if err != nil {
		return err
	}
	if !result.OK {
		printlnFn(errorText(result.Error))
		return nil
	}
	message := "Import applied (" + result.Action + ")."
	if result.ViewID != "" {
		message += " View source: " + result.ViewID
	}
	printlnFn(successText(message))
	return nil
}
