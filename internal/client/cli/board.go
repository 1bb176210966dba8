package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/dcitarelli/workflow/internal/vault"
)

// Board prints the columns in order with their cards.
func (a *App) Board(ctx context.Context) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	view, err := a.service.KanbanGet(password)
	if err != nil {
		return err
	}

	columns := append([]vault.Column(nil), view.Columns...)
	sort.SliceStable(columns, func(i, j int) bool { return columns[i].Order < columns[j].Order })

	for _, column := range columns {
		printlnFn(fmt.Sprintf("%s (%s)", column.Name, column.ID))
		cards := make([]vault.Card, 0)
		for _, card := range view.Cards {
			if card.ColumnID == column.ID {
				cards = append(cards, card)
			}
		}
		sort.SliceStable(cards, func(i, j int) bool { return cards[i].Order < cards[j].Order })
		for _, card := range cards {
			line := "  - " + card.CandidateName
			if card.Branch != "" {
				line += " [" + card.Branch + "]"
			}
			printlnFn(line + " (" + card.UUID + ")")
		}
		if len(cards) == 0 {
			printlnFn("  (empty)")
		}
	}
	if len(columns) == 0 {
		printlnFn("No columns yet. Use addcolumn <name>.")
	}
	return nil
}

// AddColumn appends a column named by the arguments.
func (a *App) AddColumn(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		printlnFn("Usage: addcolumn <name>")
		return nil
	}
	if _, err := a.service.KanbanAddColumn(password, strings.Join(args, " ")); err != nil {
		return err
	}
	printlnFn(successText("Column added."))
	return nil
}

// RemoveColumn deletes a column by id; its cards move to the lowest-order
// remaining column.
func (a *App) RemoveColumn(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		printlnFn("Usage: rmcolumn <column-id>")
		return nil
	}
	if _, err := a.service.KanbanRemoveColumn(password, args[0]); err != nil {
		return err
	}
	printlnFn(successText("Column removed."))
	return nil
}

// AddCard interactively creates a card on a column.
func (a *App) AddCard(ctx context.Context) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	payload := vault.CardPayload{}
	prompts := []struct {
		key   string
		label string
	}{
		{"column_id", "Column id"},
		{"candidate_name", "Candidate name"},
		{"req_id", "REQ ID"},
		{"job_id", "Job id"},
		{"job_name", "Job name"},
		{"job_location", "Job location"},
		{"manager", "Manager"},
		{"branch", "Branch"},
	}
	for _, p := range prompts {
		value, err := getSimpleText(a.reader, p.label, os.Stdout)
		if err != nil {
			return err
		}
		if value != "" {
			payload[p.key] = value
		}
	}
	card, err := a.service.KanbanAddCard(password, payload)
	if err != nil {
		return err
	}
	printlnFn(successText("Card added: " + card.UUID))
	return nil
}

// Process offboards a candidate: records the branch and times, deducts
// issued uniforms, blanks sensitive fields, and removes the card.
func (a *App) Process(ctx context.Context, args []string) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		printlnFn("Usage: process <candidate-id>")
		return nil
	}
	branch, err := getSimpleText(a.reader, "Branch (empty keeps the card's)", os.Stdout)
	if err != nil {
		return err
	}
	arrival, err := getSimpleText(a.reader, "Arrival (4-digit 24H time)", os.Stdout)
	if err != nil {
		return err
	}
	departure, err := getSimpleText(a.reader, "Departure (4-digit 24H time)", os.Stdout)
	if err != nil {
		return err
	}
	result, err := a.service.KanbanProcessCandidate(password, args[0], branch, arrival, departure)
	if err != nil {
		return err
	}
	printlnFn(successText("Candidate processed. Undo token: " + result.UndoID))
	return nil
}

// AddUniform interactively adds uniform stock.
func (a *App) AddUniform(ctx context.Context) error {
	password, err := a.requirePassword()
	if err != nil {
		return err
	}
	payload := vault.UniformPayload{}
	var readErr error
	read := func(label string) string {
		if readErr != nil {
			return ""
		}
		value, err := getSimpleText(a.reader, label, os.Stdout)
		if err != nil {
			readErr = err
		}
		return value
	}
	payload.Type = read("Type (shirts/pants)")
	payload.Alteration = read("Alteration")
	payload.Size = read("Size")
	payload.Waist = read("Waist (pants)")
	payload.Inseam = read("Inseam (pants)")
	payload.Branch = read("Branch")
	quantity := read("Quantity")
	if readErr != nil {
		return readErr
	}
	payload.Quantity = vault.ParseInt64(quantity)

	row, err := a.service.UniformsAddItem(password, payload)
	if err != nil {
		return err
	}
	printlnFn(successText(fmt.Sprintf("Stocked %s %s x%d for %s.", row.Type, row.Size, row.Quantity, row.Branch)))
	return nil
}
