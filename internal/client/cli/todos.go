package cli

import (
	"context"
	"strings"

	"github.com/dcitarelli/workflow/internal/vault"
)

// Todos prints the todo list.
func (a *App) Todos(ctx context.Context) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	todos, err := a.service.TodosGet(password)
	if err != nil {
		return err
	}
	if len(todos) == 0 {
		printlnFn("No todos.")
		return nil
	}
	for _, todo := range todos {
		mark := "[ ]"
		if todo.Done {
			mark = "[x]"
		}
		printlnFn(mark + " " + todo.Text + " (" + todo.ID + ")")
	}
	return nil
}

// AddTodo appends a todo: addtodo <text>.
func (a *App) AddTodo(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		printlnFn("Usage: addtodo <text>")
		return nil
	}
	todos, err := a.service.TodosGet(password)
	if err != nil {
		return err
	}
	todos = append(todos, vault.Todo{
		ID:        vault.NewID(),
		Text:      strings.Join(args, " "),
		CreatedAt: vault.NowString(),
	})
	if err := a.service.TodosSet(password, todos); err != nil {
		return err
	}
	printlnFn(successText("Todo added."))
	return nil
}
