package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isUnlocked() bool
	Setup(ctx context.Context) error
	Unlock(ctx context.Context) error
	Lock(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Board(ctx context.Context) error
	AddColumn(ctx context.Context, args []string) error
	RemoveColumn(ctx context.Context, args []string) error
	AddCard(ctx context.Context) error
	Process(ctx context.Context, args []string) error
	Tables(ctx context.Context) error
	Table(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	DeleteRows(ctx context.Context, args []string) error
	Undo(ctx context.Context, args []string) error
	Redo(ctx context.Context, args []string) error
	Weekly(ctx context.Context, args []string) error
	Summary(ctx context.Context, args []string) error
	Todos(ctx context.Context) error
	AddTodo(ctx context.Context, args []string) error
	AddUniform(ctx context.Context) error
	Sources(ctx context.Context) error
	SetSource(ctx context.Context, args []string) error
	Import(ctx context.Context, args []string) error
	Validate(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the workflow CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Any errors returned by command handlers are printed here, so handlers can
// simply return them. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("workflow %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isUnlocked() {
				printlnFn("Available commands: board, addcolumn, rmcolumn, addcard, process, tables, table, export, delete, undo, redo, weekly, summary, todos, addtodo, adduniform, sources, source, import, validate, passwd, lock, exit")
			} else {
				printlnFn("Available commands: setup, unlock, exit")
			}

		case "setup":
			err = a.Setup(ctx)

		case "unlock", "login":
			err = a.Unlock(ctx)

		case "lock", "logout":
			err = a.Lock(ctx)

		case "passwd":
			err = a.ChangePassword(ctx)

		case "board", "b":
			err = a.Board(ctx)

		case "addcolumn":
			err = a.AddColumn(ctx, args)

		case "rmcolumn":
			err = a.RemoveColumn(ctx, args)

		case "addcard":
			err = a.AddCard(ctx)

		case "process":
			err = a.Process(ctx, args)

		case "tables", "t":
			err = a.Tables(ctx)

		case "table":
			err = a.Table(ctx, args)

		case "export":
			err = a.Export(ctx, args)

		case "delete":
			err = a.DeleteRows(ctx, args)

		case "undo":
			err = a.Undo(ctx, args)

		case "redo":
			err = a.Redo(ctx, args)

		case "weekly":
			err = a.Weekly(ctx, args)

		case "summary":
			err = a.Summary(ctx, args)

		case "todos":
			err = a.Todos(ctx)

		case "addtodo":
			err = a.AddTodo(ctx, args)

		case "adduniform":
			err = a.AddUniform(ctx)

		case "sources":
			err = a.Sources(ctx)

		case "source":
			err = a.SetSource(ctx, args)

		case "import":
			err = a.Import(ctx, args)

		case "validate":
			err = a.Validate(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn(errorText(err.Error()))
		}
	}
}
