package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dcitarelli/workflow/internal/filex"
	"github.com/dcitarelli/workflow/internal/vault"
)

// Tables lists every table with its row count.
func (a *App) Tables(ctx context.Context) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	tables, err := a.service.ListTables(password)
	if err != nil {
		return err
	}
	for _, table := range tables {
		printlnFn(fmt.Sprintf("%-20s %s (%d rows)", table.ID, table.Name, table.Count))
	}
	return nil
}

// Table prints the rows of one table, optionally from a read-only source:
// table <table-id> [source-id].
func (a *App) Table(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		printlnFn("Usage: table <table-id> [source-id]")
		return nil
	}

	var result *vault.TableResult
	if len(args) > 1 {
		result, err = a.service.GetTableSource(password, args[1], args[0])
	} else {
		result, err = a.service.GetTable(password, args[0])
	}
	if err != nil {
		return err
	}

	printlnFn(fmt.Sprintf("%s (%d rows)", result.Name, len(result.Rows)))
	if len(result.Columns) > 0 {
		printlnFn(strings.Join(result.Columns, " | "))
	}
	for _, row := range result.Rows {
		cells := make([]string, 0, len(result.Columns))
		for _, column := range result.Columns {
			cells = append(cells, fmt.Sprint(row[column]))
		}
		printlnFn(strings.Join(cells, " | "))
	}
	return nil
}

// Export writes one table as CSV: export <table-id> [filename].
func (a *App) Export(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		printlnFn("Usage: export <table-id> [filename]")
		return nil
	}
	filename := ""
	if len(args) > 1 {
		filename = args[1]
	}
	result, err := a.service.ExportTableCSV(password, args[0], filename)
	if err != nil {
		return err
	}
	if err := filex.WriteText(result.Filename, result.Content); err != nil {
		return err
	}
	printlnFn(successText("Exported to " + result.Filename))
	return nil
}

// DeleteRows deletes table rows by id: delete <table-id> <row-id>...
func (a *App) DeleteRows(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if len(args) < 2 {
		printlnFn("Usage: delete <table-id> <row-id>...")
		return nil
	}
	undoID, err := a.service.DeleteRows(password, args[0], args[1:])
	if err != nil {
		return err
	}
	if undoID == "" {
		printlnFn("Nothing matched.")
		return nil
	}
	printlnFn(successText("Deleted. Undo token: " + undoID))
	return nil
}

// Undo restores a deletion by its token: undo <token>.
func (a *App) Undo(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	redoID, err := a.service.Undo(password, id)
	if err != nil {
		return err
	}
	printlnFn(successText("Restored. Redo token: " + redoID))
	return nil
}

// Redo reapplies an undone deletion by its token: redo <token>.
func (a *App) Redo(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	undoID, err := a.service.Redo(password, id)
	if err != nil {
		return err
	}
	printlnFn(successText("Reapplied. Undo token: " + undoID))
	return nil
}

// Validate runs the integrity checks on the current document.
func (a *App) Validate(ctx context.Context) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if err := a.service.ValidateCurrent(password); err != nil {
		return err
	}
	printlnFn(successText("Database is valid."))
	return nil
}
