package vault

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/dcitarelli/workflow/internal/auth"
	"github.com/dcitarelli/workflow/internal/common"
	"github.com/dcitarelli/workflow/internal/cryptox"
	"github.com/dcitarelli/workflow/internal/logging"
)

// Service ties the store, the password record, and the document mutations
// together: every operation loads the document for the given password,
// applies a mutation, and saves when something changed. Failures meant for
// the user come back with their display message; errors.Is still matches
// the underlying sentinel.
type Service struct {
	store *Store
	auth  *auth.Manager
	log   logging.Logger
}

// NewService builds a service over a store and password manager.
func NewService(store *Store, authMgr *auth.Manager, log logging.Logger) *Service {
	return &Service{store: store, auth: authMgr, log: log}
}

// Store exposes the underlying document store.
func (s *Service) Store() *Store { return s.store }

// Auth exposes the password record manager.
func (s *Service) Auth() *auth.Manager { return s.auth }

type userFacingError struct {
	msg string
	err error
}

func (e *userFacingError) Error() string { return e.msg }
func (e *userFacingError) Unwrap() error { return e.err }

var userMessages = map[error]string{
	common.ErrColumnName:        "Column name is required.",
	common.ErrLastColumn:        "Please remove candidate cards from the last remaining column before deleting it.",
	common.ErrInvalidColumn:     "Invalid column.",
	common.ErrMissingCandidate:  "Missing candidate.",
	common.ErrCandidateNotFound: "Candidate not found.",
	common.ErrBranchRequired:    "Branch is required.",
	common.ErrInvalidTime:       "Invalid time format. Use 4-digit 24H time.",
	common.ErrInvalidTable:      "Invalid table.",
	common.ErrNothingToUndo:     "Nothing to undo.",
	common.ErrNothingToRedo:     "Nothing to redo.",
	common.ErrUnableRestore:     "Unable to restore.",
	common.ErrUnableReapply:     "Unable to redo.",
	common.ErrMissingWeek:       "Missing week_start.",
	common.ErrPasswordRequired:  "Password is required.",
	common.ErrInvalidPassword:   "Invalid password.",
}

// userError swaps a sentinel for its display message. Unknown errors pass
// through untouched.
func userError(err error) error {
	if err == nil {
		return nil
	}
	for sentinel, msg := range userMessages {
		if errors.Is(err, sentinel) {
			return &userFacingError{msg: msg, err: err}
		}
	}
	return err
}

func (s *Service) load(password string) (*Document, error) {
	doc, _, err := s.store.Load(password)
	return doc, err
}

// KanbanView is the board as handed to callers.
type KanbanView struct {
	Columns []Column `json:"columns"`
	Cards   []Card   `json:"cards"`
}

// Dashboard bundles the board and the todo list for the landing view.
type Dashboard struct {
	Kanban KanbanView `json:"kanban"`
	Todos  []Todo     `json:"todos"`
}

func kanbanView(doc *Document) KanbanView {
	view := KanbanView{Columns: doc.Kanban.Columns, Cards: doc.Kanban.Cards}
	if view.Columns == nil {
		view.Columns = []Column{}
	}
	if view.Cards == nil {
		view.Cards = []Card{}
	}
	return view
}

// DashboardGet returns the board and todos.
func (s *Service) DashboardGet(password string) (*Dashboard, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	todos := doc.Todos
	if todos == nil {
		todos = []Todo{}
	}
	return &Dashboard{Kanban: kanbanView(doc), Todos: todos}, nil
}

// KanbanGet returns the board.
func (s *Service) KanbanGet(password string) (*KanbanView, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	view := kanbanView(doc)
	return &view, nil
}

// TodosGet returns the todo list.
func (s *Service) TodosGet(password string) ([]Todo, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	if doc.Todos == nil {
		return []Todo{}, nil
	}
	return doc.Todos, nil
}

// TodosSet replaces the todo list.
func (s *Service) TodosSet(password string, todos []Todo) error {
	doc, err := s.load(password)
	if err != nil {
		return err
	}
	if todos == nil {
		todos = []Todo{}
	}
	doc.Todos = todos
	return s.store.Save(password, doc)
}

// KanbanAddColumn appends a column and returns the updated column list.
func (s *Service) KanbanAddColumn(password, name string) ([]Column, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	if _, err := AddColumn(doc, name); err != nil {
		return doc.Kanban.Columns, userError(err)
	}
	if err := s.store.Save(password, doc); err != nil {
		return nil, err
	}
	return doc.Kanban.Columns, nil
}

// KanbanRemoveColumn deletes one column, moving its cards to the
// lowest-order remaining column. An empty id is a no-op.
func (s *Service) KanbanRemoveColumn(password, columnID string) (*KanbanView, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	columnID = ClampString(columnID, 128, true)
	if columnID == "" {
		view := kanbanView(doc)
		return &view, nil
	}
	if _, err := RemoveKanbanColumns(doc, map[string]struct{}{columnID: {}}, true); err != nil {
		return nil, userError(err)
	}
	if err := s.store.Save(password, doc); err != nil {
		return nil, err
	}
	view := kanbanView(doc)
	return &view, nil
}

// KanbanAddCard appends a card and its mirrored candidate row.
func (s *Service) KanbanAddCard(password string, payload CardPayload) (*Card, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	card, err := AddCard(doc, payload)
	if err != nil {
		return nil, userError(err)
	}
	if err := s.store.Save(password, doc); err != nil {
		return nil, err
	}
	return card, nil
}

// KanbanUpdateCard applies the present payload keys to a card and mirrors
// them onto its candidate row. A missing card is not an error; the current
// card list comes back either way.
func (s *Service) KanbanUpdateCard(password, cardID string, payload CardPayload) ([]Card, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	cardID = ClampString(cardID, 128, true)
	if cardID == "" {
		return doc.Kanban.Cards, nil
	}
	if _, ok := UpdateCard(doc, cardID, payload); !ok {
		return doc.Kanban.Cards, nil
	}
	if err := s.store.Save(password, doc); err != nil {
		return nil, err
	}
	return doc.Kanban.Cards, nil
}

// KanbanReorderColumn reorders the cards of one column and returns the
// full card list.
func (s *Service) KanbanReorderColumn(password, columnID string, cardIDs []string) ([]Card, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	ReorderColumn(doc, ClampString(columnID, 128, true), cardIDs)
	if err := s.store.Save(password, doc); err != nil {
		return nil, err
	}
	return doc.Kanban.Cards, nil
}

// KanbanProcessCandidate runs offboarding for a candidate: records times,
// deducts issued uniforms, blanks sensitive fields, and removes the card,
// leaving an undo entry behind.
func (s *Service) KanbanProcessCandidate(password, candidateID, branch, arrival, departure string) (*ProcessResult, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	result, err := ProcessCandidate(doc, ClampString(candidateID, 128, true), branch, arrival, departure)
	if err != nil {
		return nil, userError(err)
	}
	if err := s.store.Save(password, doc); err != nil {
		return nil, err
	}
	return result, nil
}

// KanbanRemoveCandidate deletes a candidate's card and row with an undo
// entry.
func (s *Service) KanbanRemoveCandidate(password, candidateID string) (*RemoveCandidateResult, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	result, err := RemoveCandidate(doc, ClampString(candidateID, 128, true))
	if err != nil {
		return nil, userError(err)
	}
	if err := s.store.Save(password, doc); err != nil {
		return nil, err
	}
	return result, nil
}

// PIIResult is a candidate row plus the display name resolved for it.
type PIIResult struct {
	Row           CandidateRow `json:"row"`
	CandidateName string       `json:"candidateName"`
}

// PIIGet returns the candidate row for an id, backfilling the name and
// REQ ID from the card when they are set there. The ensured row is saved.
func (s *Service) PIIGet(password, candidateID string) (*PIIResult, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	candidateID = ClampString(candidateID, 128, true)
	if candidateID == "" {
		return &PIIResult{Row: CandidateRow{}}, nil
	}
	var card *Card
	for i := range doc.Kanban.Cards {
		if doc.Kanban.Cards[i].UUID == candidateID {
			card = &doc.Kanban.Cards[i]
			break
		}
	}
	row := EnsureCandidateRow(doc, candidateID)
	if card != nil {
		if card.CandidateName != "" {
			row["Candidate Name"] = card.CandidateName
		}
		if card.ReqID != "" {
			row["REQ ID"] = card.ReqID
		}
	}
	out := row.clone()
	if err := s.store.Save(password, doc); err != nil {
		return nil, err
	}
	name := out["Candidate Name"]
	if name == "" && card != nil {
		name = card.CandidateName
	}
	return &PIIResult{Row: out, CandidateName: name}, nil
}

// PIISave writes the present data keys onto the candidate row. The name
// and uuid fields are owned by the card flow and are never overwritten.
func (s *Service) PIISave(password, candidateID string, data map[string]string) (bool, error) {
	doc, err := s.load(password)
	if err != nil {
		return false, err
	}
	candidateID = ClampString(candidateID, 128, true)
	if candidateID == "" {
		return false, nil
	}
	row := EnsureCandidateRow(doc, candidateID)
	for _, field := range CandidateFields {
		if field == "Candidate Name" || field == CandidateUUIDField {
			continue
		}
		value, ok := data[field]
		if !ok {
			continue
		}
		maxLen := 200
		if field == "Additional Details" || field == "Additional Notes" {
			maxLen = 2000
		}
		row[field] = ClampString(value, maxLen, false)
	}
	if err := s.store.Save(password, doc); err != nil {
		return false, err
	}
	return true, nil
}

// UniformsAddItem validates and adds stock, coalescing with an existing
// row of the same branch, type, size, and alteration.
func (s *Service) UniformsAddItem(password string, payload UniformPayload) (*UniformItem, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	normalized := NormalizeUniformPayload(payload)
	switch {
	case normalized.Alteration == "" || normalized.Type == "" || normalized.Branch == "":
		return nil, errors.New("Alteration, type, and branch are required.")
	case normalized.Type == "Shirt" && normalized.Size == "":
		return nil, errors.New("Shirt size is required for shirt inventory.")
	case normalized.Type == "Pants" && (normalized.Waist == "" || normalized.Inseam == ""):
		return nil, errors.New("Waist and inseam are required for pants inventory.")
	case normalized.Quantity <= 0:
		return nil, errors.New("Quantity must be greater than 0.")
	}
	row := UpsertUniformStock(doc, normalized)
	if err := s.store.Save(password, doc); err != nil {
		return nil, err
	}
	return &row, nil
}

// DeleteRows removes rows from a table by their row ids and records one
// undo entry covering everything removed. Returns the undo token, empty
// when nothing matched.
func (s *Service) DeleteRows(password, tableID string, rowIDs []string) (string, error) {
	doc, err := s.load(password)
	if err != nil {
		return "", err
	}
	ids := map[string]struct{}{}
	for _, id := range rowIDs {
		if safe := ClampString(id, 128, true); safe != "" {
			ids[safe] = struct{}{}
		}
	}

	undoID := ""
	switch ClampString(tableID, 128, true) {
	case "kanban_columns":
		result, err := RemoveKanbanColumns(doc, ids, true)
		if err != nil {
			return "", userError(err)
		}
		undoID = result.UndoID
	case "kanban_cards":
		var cards []Card
		var rows []CandidateRow
		doc.Kanban.Cards = filterCards(doc.Kanban.Cards, ids, &cards)
		doc.Kanban.Candidates = filterCandidates(doc.Kanban.Candidates, ids, &rows)
		if len(cards) > 0 || len(rows) > 0 {
			undoID = PushRecycleItem(doc, RecycleItem{Type: RecycleKanbanCards, Cards: cards, Candidates: rows})
		}
	case "candidate_data":
		var rows []CandidateRow
		doc.Kanban.Candidates = filterCandidates(doc.Kanban.Candidates, ids, &rows)
		if len(rows) > 0 {
			undoID = PushRecycleItem(doc, RecycleItem{Type: RecycleCandidateRows, Candidates: rows})
		}
	case "weekly_entries":
		var removed []WeeklyDeletion
		for _, week := range doc.Weekly {
			if week == nil || week.Entries == nil {
				continue
			}
			for day, entry := range week.Entries {
				if _, ok := ids[week.WeekStart+"-"+day]; !ok {
					continue
				}
				payload := DayEntry{}
				if entry != nil {
					payload = *entry
				}
				delete(week.Entries, day)
				removed = append(removed, WeeklyDeletion{
					WeekStart: week.WeekStart,
					WeekEnd:   week.WeekEnd,
					Day:       day,
					Payload:   payload,
				})
			}
		}
		if len(removed) > 0 {
			undoID = PushRecycleItem(doc, RecycleItem{Type: RecycleWeeklyEntries, Entries: removed})
		}
	case "uniform_inventory":
		var removed []UniformItem
		kept := doc.Uniforms[:0]
		for _, entry := range doc.Uniforms {
			if _, ok := ids[entry.ID]; ok {
				removed = append(removed, entry)
			} else {
				kept = append(kept, entry)
			}
		}
		doc.Uniforms = kept
		if len(removed) > 0 {
			undoID = PushRecycleItem(doc, RecycleItem{Type: RecycleUniformRows, Uniforms: removed})
		}
	case "todos":
		var removed []Todo
		kept := doc.Todos[:0]
		for _, todo := range doc.Todos {
			if _, ok := ids[todo.ID]; ok {
				removed = append(removed, todo)
			} else {
				kept = append(kept, todo)
			}
		}
		doc.Todos = kept
		if len(removed) > 0 {
			undoID = PushRecycleItem(doc, RecycleItem{Type: RecycleTodos, Todos: removed})
		}
	default:
		return "", userError(common.ErrInvalidTable)
	}

	if err := s.store.Save(password, doc); err != nil {
		return "", err
	}
	return undoID, nil
}

func filterCards(cards []Card, ids map[string]struct{}, removed *[]Card) []Card {
	kept := cards[:0]
	for _, card := range cards {
		if _, ok := ids[card.UUID]; ok {
			*removed = append(*removed, card)
		} else {
			kept = append(kept, card)
		}
	}
	return kept
}

func filterCandidates(rows []CandidateRow, ids map[string]struct{}, removed *[]CandidateRow) []CandidateRow {
	kept := rows[:0]
	for _, row := range rows {
		if _, ok := ids[row[CandidateUUIDField]]; ok {
			*removed = append(*removed, row)
		} else {
			kept = append(kept, row)
		}
	}
	return kept
}

// Undo consumes an undo token, restores its snapshot, and returns the
// redo token minted for the reverse operation.
func (s *Service) Undo(password, id string) (string, error) {
	doc, err := s.load(password)
	if err != nil {
		return "", err
	}
	id = ClampString(id, 128, true)
	if id == "" {
		return "", userError(common.ErrNothingToUndo)
	}
	item, ok := PopRecycleItem(doc, id)
	if !ok {
		return "", userError(common.ErrNothingToUndo)
	}
	if !RestoreRecycleItem(doc, item) {
		return "", userError(common.ErrUnableRestore)
	}
	redoID := PushRedoItem(doc, item)
	if err := s.store.Save(password, doc); err != nil {
		return "", err
	}
	return redoID, nil
}

// Redo consumes a redo token, reapplies the deletion, and returns the
// fresh undo token.
func (s *Service) Redo(password, id string) (string, error) {
	doc, err := s.load(password)
	if err != nil {
		return "", err
	}
	id = ClampString(id, 128, true)
	if id == "" {
		return "", userError(common.ErrNothingToRedo)
	}
	item, ok := PopRedoItem(doc, id)
	if !ok {
		return "", userError(common.ErrNothingToRedo)
	}
	if !ReapplyRecycleItem(doc, item) {
		return "", userError(common.ErrUnableReapply)
	}
	undoID := PushRecycleItem(doc, item)
	if err := s.store.Save(password, doc); err != nil {
		return "", err
	}
	return undoID, nil
}

// ValidateCurrent runs the integrity checks on the active document.
func (s *Service) ValidateCurrent(password string) error {
	doc, err := s.load(password)
	if err != nil {
		return err
	}
	if status := ValidateDocument(doc); status != nil {
		return status
	}
	return nil
}

// WeeklyGet returns the week entry for weekStart, creating it when absent
// and persisting any repair it had to make.
func (s *Service) WeeklyGet(password, weekStart, weekEnd string) (*Week, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	week, changed, err := EnsureWeek(doc, weekStart, weekEnd)
	if err != nil {
		return nil, userError(err)
	}
	out := *week
	if changed {
		if err := s.store.Save(password, doc); err != nil {
			return nil, err
		}
	}
	return &out, nil
}

// WeeklySet replaces the whole week entry.
func (s *Service) WeeklySet(password, weekStart, weekEnd string, entries map[string]*DayEntry) error {
	doc, err := s.load(password)
	if err != nil {
		return err
	}
	if err := SetWeek(doc, weekStart, weekEnd, entries); err != nil {
		return userError(err)
	}
	return s.store.Save(password, doc)
}

// WeeklySummaryResult is a rendered weekly report with its suggested
// filename.
type WeeklySummaryResult struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// WeeklySummary renders the markdown report for a week. A week with no
// saved entry still renders, empty.
func (s *Service) WeeklySummary(password, weekStart, weekEnd string) (*WeeklySummaryResult, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	weekStart = ClampString(weekStart, 40, true)
	weekEnd = ClampString(weekEnd, 40, true)
	if weekStart == "" {
		return nil, userError(common.ErrMissingWeek)
	}
	week := doc.Weekly[weekStart]
	if week == nil {
		week = &Week{WeekStart: weekStart, WeekEnd: weekEnd, Entries: map[string]*DayEntry{}}
	}
	return &WeeklySummaryResult{
		Filename: WeeklySummaryFilename(weekStart),
		Content:  BuildWeeklySummary(week),
	}, nil
}

// SourcesResult lists the selectable sources and which one is active.
type SourcesResult struct {
	Sources  []Source `json:"sources"`
	ActiveID string   `json:"activeId"`
}

// SourcesGet lists database sources. The password is required but the
// meta file itself is unencrypted.
func (s *Service) SourcesGet(password string) (*SourcesResult, error) {
	if ClampString(password, 256, true) == "" {
		return nil, userError(common.ErrPasswordRequired)
	}
	meta, err := s.store.LoadMeta()
	if err != nil {
		return nil, err
	}
	sources := s.store.Sources(meta)
	return &SourcesResult{Sources: sources, ActiveID: s.store.ResolveActiveSource(meta, sources)}, nil
}

// SetSource selects the active source, falling back to the current
// database when the requested id does not exist.
func (s *Service) SetSource(password, sourceID string) (string, error) {
	if ClampString(password, 256, true) == "" {
		return "", userError(common.ErrPasswordRequired)
	}
	return s.store.SetActiveSource(sourceID)
}

// ListTables describes every table of the active document.
func (s *Service) ListTables(password string) ([]TableInfo, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	return ListTables(doc), nil
}

// GetTable projects one table of the active document.
func (s *Service) GetTable(password, tableID string) (*TableResult, error) {
	doc, err := s.load(password)
	if err != nil {
		return nil, err
	}
	return BuildTable(doc, strings.TrimSpace(tableID)), nil
}

// ListTablesSource describes the tables of a specific source. A source
// that cannot be resolved yields an empty list.
func (s *Service) ListTablesSource(password, sourceID string) ([]TableInfo, error) {
	doc, err := s.store.LoadBySource(ClampString(sourceID, 128, true), password)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []TableInfo{}, nil
	}
	return ListTables(doc), nil
}

// GetTableSource projects one table of a specific source. A source that
// cannot be resolved yields an empty "Unknown" table.
func (s *Service) GetTableSource(password, sourceID, tableID string) (*TableResult, error) {
	tableID = strings.TrimSpace(tableID)
	doc, err := s.store.LoadBySource(ClampString(sourceID, 128, true), password)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return &TableResult{ID: tableID, Name: "Unknown", Columns: []string{}, Rows: []TableRow{}}, nil
	}
	return BuildTable(doc, tableID), nil
}

// ExportResult is a rendered CSV export with its sanitized filename.
type ExportResult struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// ExportTableCSV renders one table of the active document as CSV.
func (s *Service) ExportTableCSV(password, tableID, filename string) (*ExportResult, error) {
	table, err := s.GetTable(password, tableID)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		Filename: SanitizeExportFilename(filename),
		Content:  RowsToCSV(table.Columns, table.Rows),
	}, nil
}

// ImportResult reports the outcome of an import. Validation failures come
// back with OK false and a code of "password" or "broken" instead of an
// error.
type ImportResult struct {
	OK       bool   `json:"ok"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
	Action   string `json:"action,omitempty"`
	ViewID   string `json:"viewId,omitempty"`
	ViewName string `json:"viewName,omitempty"`
}

func importFailure(code, message string) *ImportResult {
	return &ImportResult{OK: false, Code: code, Error: message}
}

// decodeImportedDocument parses an exported envelope, decrypts it, and
// normalizes the plaintext into a document.
func decodeImportedDocument(fileData, password string) (*Document, bool) {
	env := &cryptox.Envelope{}
	if err := json.Unmarshal([]byte(fileData), env); err != nil {
		return nil, false
	}
	plaintext, ok := cryptox.DecryptEnvelope(env, password)
	if !ok {
		return nil, false
	}
	doc, ok := ParseDocument(plaintext)
	if !ok {
		return nil, false
	}
	doc.Normalize()
	return doc, true
}

// ImportApply verifies the password, decrypts an exported database file,
// validates it, and applies it: append merges into the current database
// and keeps a read-only copy, replace overwrites the current database,
// and view only keeps the read-only copy.
func (s *Service) ImportApply(action, password, fileData, fileName string) (*ImportResult, error) {
	action = strings.ToLower(ClampString(action, 20, true))
	if action != "append" && action != "view" && action != "replace" {
		return importFailure(CodeBroken, "Invalid import action."), nil
	}

	password = ClampString(password, 256, false)
	if !s.auth.Verify(password) {
		return importFailure(CodePassword, "Invalid password."), nil
	}

	if !json.Valid([]byte(fileData)) {
		return importFailure(CodeBroken, "Import file is not valid JSON."), nil
	}
	migrated, ok := decodeImportedDocument(fileData, password)
	if !ok {
		return importFailure(CodeBroken, "Unable to decrypt the import file."), nil
	}
	if status := ValidateDocument(migrated); status != nil {
		return importFailure(status.Code, status.Message), nil
	}

	var viewEntry *MetaEntry
	switch action {
	case "append":
		doc, err := s.load(password)
		if err != nil {
			return nil, err
		}
		MergeDocuments(doc, migrated)
		if err := s.store.Save(password, doc); err != nil {
			return nil, err
		}
		viewEntry, err = s.store.StoreImported(migrated, fileName, password)
		if err != nil {
			return nil, err
		}
	case "replace":
		if err := s.store.Save(password, migrated); err != nil {
			return nil, err
		}
	case "view":
		entry, err := s.store.StoreImported(migrated, fileName, password)
		if err != nil {
			return nil, err
		}
		viewEntry = entry
	}

	result := &ImportResult{OK: true, Action: action}
	if viewEntry != nil {
		result.ViewID = viewEntry.ID
		result.ViewName = viewEntry.Name
	}
	return result, nil
}
