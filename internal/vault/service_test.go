package vault

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcitarelli/workflow/internal/auth"
	"github.com/dcitarelli/workflow/internal/common"
	"github.com/dcitarelli/workflow/internal/cryptox"
)

const testPassword = "hunter2"

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	log := newTestLogger()
	authMgr := auth.NewManager(dir)
	require.NoError(t, authMgr.Setup(testPassword, 1_000))
	return NewService(NewStore(dir, log), authMgr, log)
}

func TestBoardLifecycleWithUndoRedo(t *testing.T) {
	service := newTestService(t)

	// Start from an empty document.
	view, err := service.KanbanGet(testPassword)
	require.NoError(t, err)
	assert.Empty(t, view.Columns)
	assert.Empty(t, view.Cards)

	columns, err := service.KanbanAddColumn(testPassword, "Intake")
	require.NoError(t, err)
	require.Len(t, columns, 1)
	assert.Equal(t, "Intake", columns[0].Name)
	assert.Equal(t, int64(1), columns[0].Order)

	card, err := service.KanbanAddCard(testPassword, CardPayload{
		"column_id":      columns[0].ID,
		"candidate_name": "Dana",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), card.Order)

	// The card's mirrored candidate row exists.
	table, err := service.GetTable(testPassword, "candidate_data")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Dana", table.Rows[0]["Candidate Name"])

	result, err := service.KanbanRemoveCandidate(testPassword, card.UUID)
	require.NoError(t, err)
	require.NotEmpty(t, result.UndoID)
	assert.Empty(t, result.Cards)

	table, err = service.GetTable(testPassword, "candidate_data")
	require.NoError(t, err)
	assert.Empty(t, table.Rows)

	redoID, err := service.Undo(testPassword, result.UndoID)
	require.NoError(t, err)
	require.NotEmpty(t, redoID)

	// Card and row both came back, exactly once.
	view, err = service.KanbanGet(testPassword)
	require.NoError(t, err)
	require.Len(t, view.Cards, 1)
	assert.Equal(t, card.UUID, view.Cards[0].UUID)
	table, err = service.GetTable(testPassword, "candidate_data")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	// The undo token is spent.
	_, err = service.Undo(testPassword, result.UndoID)
	require.Error(t, err)
	assert.EqualError(t, err, "Nothing to undo.")
	assert.ErrorIs(t, err, common.ErrNothingToUndo)

	// Redo removes them again and mints a fresh undo token.
	undoID, err := service.Redo(testPassword, redoID)
	require.NoError(t, err)
	require.NotEmpty(t, undoID)
	view, err = service.KanbanGet(testPassword)
	require.NoError(t, err)
	assert.Empty(t, view.Cards)

	_, err = service.Redo(testPassword, redoID)
	assert.EqualError(t, err, "Nothing to redo.")

	_, err = service.Undo(testPassword, undoID)
	require.NoError(t, err)
	view, err = service.KanbanGet(testPassword)
	require.NoError(t, err)
	assert.Len(t, view.Cards, 1)
}

func TestKanbanAddColumnRejectsEmptyName(t *testing.T) {
	service := newTestService(t)
	_, err := service.KanbanAddColumn(testPassword, "Intake")
	require.NoError(t, err)

	columns, err := service.KanbanAddColumn(testPassword, "   ")
	require.Error(t, err)
	assert.EqualError(t, err, "Column name is required.")
	assert.ErrorIs(t, err, common.ErrColumnName)
	assert.Len(t, columns, 1, "existing columns still come back")
}

func TestKanbanRemoveColumnEmptyIDIsNoOp(t *testing.T) {
	service := newTestService(t)
	_, err := service.KanbanAddColumn(testPassword, "Intake")
	require.NoError(t, err)

	view, err := service.KanbanRemoveColumn(testPassword, "   ")
	require.NoError(t, err)
	assert.Len(t, view.Columns, 1)
}

func TestKanbanRemoveLastColumnMessage(t *testing.T) {
	service := newTestService(t)
	columns, err := service.KanbanAddColumn(testPassword, "Intake")
	require.NoError(t, err)
	_, err = service.KanbanAddCard(testPassword, CardPayload{"column_id": columns[0].ID, "candidate_name": "Dana"})
	require.NoError(t, err)

	_, err = service.KanbanRemoveColumn(testPassword, columns[0].ID)
	assert.EqualError(t, err, "Please remove candidate cards from the last remaining column before deleting it.")
}

func TestKanbanUpdateCardMissingIsNotAnError(t *testing.T) {
	service := newTestService(t)
	cards, err := service.KanbanUpdateCard(testPassword, "missing", CardPayload{"candidate_name": "X"})
	require.NoError(t, err)
	assert.Empty(t, cards)
}

func TestTodos(t *testing.T) {
	service := newTestService(t)

	todos, err := service.TodosGet(testPassword)
	require.NoError(t, err)
	assert.Empty(t, todos)

	require.NoError(t, service.TodosSet(testPassword, []Todo{{ID: "t1", Text: "order shirts"}}))
	todos, err = service.TodosGet(testPassword)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "order shirts", todos[0].Text)

	require.NoError(t, service.TodosSet(testPassword, nil))
	todos, err = service.TodosGet(testPassword)
	require.NoError(t, err)
	assert.Empty(t, todos)
}

func TestPIIGetAndSave(t *testing.T) {
	service := newTestService(t)
	columns, err := service.KanbanAddColumn(testPassword, "Intake")
	require.NoError(t, err)
	card, err := service.KanbanAddCard(testPassword, CardPayload{
		"column_id":      columns[0].ID,
		"candidate_name": "Dana",
		"req_id":         "REQ-7",
	})
	require.NoError(t, err)

	pii, err := service.PIIGet(testPassword, card.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Dana", pii.CandidateName)
	assert.Equal(t, "REQ-7", pii.Row["REQ ID"])

	saved, err := service.PIISave(testPassword, card.UUID, map[string]string{
		"Candidate Name": "Overwritten",
		"Social":         "000-00-0000",
		"not a field":    "ignored",
	})
	require.NoError(t, err)
	assert.True(t, saved)

	pii, err = service.PIIGet(testPassword, card.UUID)
	require.NoError(t, err)
	assert.Equal(t, "Dana", pii.Row["Candidate Name"], "the name field belongs to the card")
	assert.Equal(t, "000-00-0000", pii.Row["Social"])
	_, ok := pii.Row["not a field"]
	assert.False(t, ok)
}

func TestUniformsAddItemValidation(t *testing.T) {
	service := newTestService(t)

	_, err := service.UniformsAddItem(testPassword, UniformPayload{Type: "Shirt", Size: "L", Quantity: 1})
	assert.EqualError(t, err, "Alteration, type, and branch are required.")

	_, err = service.UniformsAddItem(testPassword, UniformPayload{Type: "Shirt", Alteration: "None", Branch: "North", Quantity: 1})
	assert.EqualError(t, err, "Shirt size is required for shirt inventory.")

	_, err = service.UniformsAddItem(testPassword, UniformPayload{Type: "Pants", Alteration: "None", Branch: "North", Quantity: 1})
	assert.EqualError(t, err, "Waist and inseam are required for pants inventory.")

	_, err = service.UniformsAddItem(testPassword, UniformPayload{Type: "Shirt", Size: "L", Alteration: "None", Branch: "North"})
	assert.EqualError(t, err, "Quantity must be greater than 0.")

	row, err := service.UniformsAddItem(testPassword, UniformPayload{
		Type: "pants", Waist: "32", Inseam: "34", Alteration: "Hemmed", Branch: "North", Quantity: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, "Pants", row.Type)
	assert.Equal(t, "32x34", row.Size)
	assert.Equal(t, int64(2), row.Quantity)
}

func TestDeleteRows(t *testing.T) {
	service := newTestService(t)
	columns, err := service.KanbanAddColumn(testPassword, "Intake")
	require.NoError(t, err)
	card, err := service.KanbanAddCard(testPassword, CardPayload{"column_id": columns[0].ID, "candidate_name": "Dana"})
	require.NoError(t, err)
	require.NoError(t, service.TodosSet(testPassword, []Todo{{ID: "t1", Text: "x"}}))
	require.NoError(t, service.WeeklySet(testPassword, "2026-01-02", "2026-01-08", map[string]*DayEntry{
		"Friday": {Start: "9", End: "5p", Content: "notes"},
	}))
	item, err := service.UniformsAddItem(testPassword, UniformPayload{
		Type: "Shirt", Size: "L", Alteration: "None", Branch: "North", Quantity: 1,
	})
	require.NoError(t, err)

	_, err = service.DeleteRows(testPassword, "bogus_table", []string{"x"})
	assert.EqualError(t, err, "Invalid table.")
	assert.ErrorIs(t, err, common.ErrInvalidTable)

	undoID, err := service.DeleteRows(testPassword, "todos", []string{"t1"})
	require.NoError(t, err)
	assert.NotEmpty(t, undoID)
	todos, err := service.TodosGet(testPassword)
	require.NoError(t, err)
	assert.Empty(t, todos)

	undoID, err = service.DeleteRows(testPassword, "todos", []string{"t1"})
	require.NoError(t, err)
	assert.Empty(t, undoID, "nothing matched, no undo token")

	undoID, err = service.DeleteRows(testPassword, "weekly_entries", []string{"2026-01-02-Friday"})
	require.NoError(t, err)
	assert.NotEmpty(t, undoID)
	week, err := service.WeeklyGet(testPassword, "2026-01-02", "")
	require.NoError(t, err)
	assert.Empty(t, week.Entries)

	_, err = service.Undo(testPassword, undoID)
	require.NoError(t, err)
	week, err = service.WeeklyGet(testPassword, "2026-01-02", "")
	require.NoError(t, err)
	require.NotNil(t, week.Entries["Friday"])
	assert.Equal(t, "notes", week.Entries["Friday"].Content)

	undoID, err = service.DeleteRows(testPassword, "uniform_inventory", []string{item.ID})
	require.NoError(t, err)
	assert.NotEmpty(t, undoID)

	undoID, err = service.DeleteRows(testPassword, "kanban_cards", []string{card.UUID})
	require.NoError(t, err)
	assert.NotEmpty(t, undoID)
	view, err := service.KanbanGet(testPassword)
	require.NoError(t, err)
	assert.Empty(t, view.Cards)

	undoID, err = service.DeleteRows(testPassword, "kanban_columns", []string{columns[0].ID})
	require.NoError(t, err)
	assert.NotEmpty(t, undoID)
	view, err = service.KanbanGet(testPassword)
	require.NoError(t, err)
	assert.Empty(t, view.Columns)
}

func TestProcessCandidateThroughService(t *testing.T) {
	service := newTestService(t)
	columns, err := service.KanbanAddColumn(testPassword, "Intake")
	require.NoError(t, err)
	card, err := service.KanbanAddCard(testPassword, CardPayload{
		"column_id":      columns[0].ID,
		"candidate_name": "Dana",
		"branch":         "North",
	})
	require.NoError(t, err)

	result, err := service.KanbanProcessCandidate(testPassword, card.UUID, "", "0900", "1700")
	require.NoError(t, err)
	assert.NotEmpty(t, result.UndoID)
	assert.Empty(t, result.Cards)

	_, err = service.KanbanProcessCandidate(testPassword, card.UUID, "North", "0900", "1700")
	assert.EqualError(t, err, "Candidate not found.")

	_, err = service.KanbanProcessCandidate(testPassword, "x", "North", "9am", "1700")
	assert.EqualError(t, err, "Candidate not found.")
}

func TestWeeklySummaryService(t *testing.T) {
	service := newTestService(t)

	_, err := service.WeeklySummary(testPassword, "   ", "")
	assert.EqualError(t, err, "Missing week_start.")
	assert.ErrorIs(t, err, common.ErrMissingWeek)

	// A week never saved still renders.
	result, err := service.WeeklySummary(testPassword, "2026-01-02", "2026-01-08")
	require.NoError(t, err)
	assert.Equal(t, "Weekly_2026-01-02_Summary.md", result.Filename)
	assert.Contains(t, result.Content, "# Weekly Summary")
}

func TestSourcesRequirePassword(t *testing.T) {
	service := newTestService(t)

	_, err := service.SourcesGet("   ")
	assert.EqualError(t, err, "Password is required.")
	assert.ErrorIs(t, err, common.ErrPasswordRequired)

	_, err = service.SetSource("", "current")
	assert.EqualError(t, err, "Password is required.")

	result, err := service.SourcesGet(testPassword)
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)
	assert.Equal(t, "current", result.ActiveID)
}

func TestExportTableCSVService(t *testing.T) {
	service := newTestService(t)
	require.NoError(t, service.TodosSet(testPassword, []Todo{{ID: "t1", Text: "a,b", Done: true, CreatedAt: "123"}}))

	result, err := service.ExportTableCSV(testPassword, "todos", "my export")
	require.NoError(t, err)
	assert.Equal(t, "my_export.csv", result.Filename)
	assert.Contains(t, result.Content, "id,text,done,createdAt")
	assert.Contains(t, result.Content, `t1,"a,b",true,123`)
}

func exportDocument(t *testing.T, doc *Document, password string) string {
	t.Helper()
	doc.Normalize()
	plaintext, err := json.Marshal(doc)
	require.NoError(t, err)
	env, err := cryptox.EncryptText(string(plaintext), password)
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return string(data)
}

func TestImportApplyValidation(t *testing.T) {
	service := newTestService(t)

	result, err := service.ImportApply("merge", testPassword, "{}", "f.enc")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, CodeBroken, result.Code)
	assert.Equal(t, "Invalid import action.", result.Error)

	result, err = service.ImportApply("append", "wrong", "{}", "f.enc")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, CodePassword, result.Code)
	assert.Equal(t, "Invalid password.", result.Error)

	result, err = service.ImportApply("append", testPassword, "not json", "f.enc")
	require.NoError(t, err)
	assert.Equal(t, CodeBroken, result.Code)
	assert.Equal(t, "Import file is not valid JSON.", result.Error)

	result, err = service.ImportApply("append", testPassword, `{"v":1,"salt":"x"}`, "f.enc")
	require.NoError(t, err)
	assert.Equal(t, CodeBroken, result.Code)
	assert.Equal(t, "Unable to decrypt the import file.", result.Error)

	tooNew := DefaultDocument()
	tooNew.Version = DocumentVersion + 1
	result, err = service.ImportApply("append", testPassword, exportDocument(t, tooNew, testPassword), "f.enc")
	require.NoError(t, err)
	assert.Equal(t, CodeBroken, result.Code)
	assert.Equal(t, "Database version is newer than this app supports.", result.Error)
}

func TestImportApplyAppend(t *testing.T) {
	service := newTestService(t)
	_, err := service.KanbanAddColumn(testPassword, "Existing")
	require.NoError(t, err)

	incoming := DefaultDocument()
	_, err = AddColumn(incoming, "Imported")
	require.NoError(t, err)
	incoming.Todos = append(incoming.Todos, Todo{ID: "t1", Text: "imported todo"})

	result, err := service.ImportApply("append", testPassword, exportDocument(t, incoming, testPassword), "export.enc")
	require.NoError(t, err)
	require.True(t, result.OK)
	assert.Equal(t, "append", result.Action)
	assert.NotEmpty(t, result.ViewID, "append also keeps a read-only copy")

	view, err := service.KanbanGet(testPassword)
	require.NoError(t, err)
	assert.Len(t, view.Columns, 2)
	todos, err := service.TodosGet(testPassword)
	require.NoError(t, err)
	assert.Len(t, todos, 1)

	// The read-only copy is browsable as a source.
	tables, err := service.ListTablesSource(testPassword, result.ViewID)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, table := range tables {
		counts[table.ID] = table.Count
	}
	assert.Equal(t, 1, counts["kanban_columns"])
}

func TestImportApplyReplace(t *testing.T) {
	service := newTestService(t)
	_, err := service.KanbanAddColumn(testPassword, "Old")
	require.NoError(t, err)

	incoming := DefaultDocument()
	_, err = AddColumn(incoming, "New")
	require.NoError(t, err)

	result, err := service.ImportApply("replace", testPassword, exportDocument(t, incoming, testPassword), "export.enc")
	require.NoError(t, err)
	require.True(t, result.OK)
	assert.Empty(t, result.ViewID)

	view, err := service.KanbanGet(testPassword)
	require.NoError(t, err)
	require.Len(t, view.Columns, 1)
	assert.Equal(t, "New", view.Columns[0].Name)
}

func TestImportApplyView(t *testing.T) {
	service := newTestService(t)

	incoming := DefaultDocument()
	_, err := AddColumn(incoming, "Viewed")
	require.NoError(t, err)

	result, err := service.ImportApply("view", testPassword, exportDocument(t, incoming, testPassword), "export.enc")
	require.NoError(t, err)
	require.True(t, result.OK)
	require.NotEmpty(t, result.ViewID)
	assert.Equal(t, "export.enc", result.ViewName)

	// The current database is untouched.
	view, err := service.KanbanGet(testPassword)
	require.NoError(t, err)
	assert.Empty(t, view.Columns)

	table, err := service.GetTableSource(testPassword, result.ViewID, "kanban_columns")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Viewed", table.Rows[0]["name"])

	missing, err := service.GetTableSource(testPassword, "no-such-source", "kanban_columns")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", missing.Name)
	assert.Empty(t, missing.Rows)
}

func TestValidateCurrent(t *testing.T) {
	service := newTestService(t)
	assert.NoError(t, service.ValidateCurrent(testPassword))
}

func TestUndoRedoEmptyTokens(t *testing.T) {
	service := newTestService(t)

	_, err := service.Undo(testPassword, "   ")
	assert.EqualError(t, err, "Nothing to undo.")

	_, err = service.Redo(testPassword, "")
	assert.EqualError(t, err, "Nothing to redo.")
}
