// Package vault implements the password-encrypted document store: the
// document schema, the envelope-backed persistence layer, the single-slot
// key cache, and the domain operations (board, inventory, weekly log,
// todos, undo ledger, import/merge).
package vault

import (
	"encoding/json"

	"github.com/dcitarelli/workflow/internal/jsonx"
)

const (
	// DocumentVersion is the newest document schema this build understands.
	DocumentVersion = 3

	AuthFile           = "auth.json"
	DataFile           = "workflow.enc"
	MetaFile           = "meta.json"
	EmailTemplatesFile = "email_templates.json"

	// ImportedDir is the subdirectory holding imported read-only databases.
	ImportedDir = "dbs"
)

// Document is the decrypted application database. Its UnmarshalJSON is
// tolerant: malformed sections decode to their zero values and Normalize
// fills the defaults, so a damaged payload degrades instead of erroring.
type Document struct {
	Version  int64            `json:"version"`
	Kanban   Kanban           `json:"kanban"`
	Uniforms []UniformItem    `json:"uniforms"`
	Weekly   map[string]*Week `json:"weekly"`
	Todos    []Todo           `json:"todos"`
	Recycle  Recycle          `json:"recycle"`
}

// Kanban groups the board state: columns, cards, and the candidate detail
// rows mirroring the cards.
type Kanban struct {
	Columns    []Column       `json:"columns"`
	Cards      []Card         `json:"cards"`
	Candidates []CandidateRow `json:"candidates"`
}

// Column is a board column.
type Column struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Order     int64  `json:"order"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Card is a candidate card on the board.
type Card struct {
	UUID          string `json:"uuid"`
	CandidateName string `json:"candidate_name"`
	ICIMSID       string `json:"icims_id"`
	EmployeeID    string `json:"employee_id"`
	JobID         string `json:"job_id"`
	ReqID         string `json:"req_id"`
	JobName       string `json:"job_name"`
	JobLocation   string `json:"job_location"`
	Manager       string `json:"manager"`
	Branch        string `json:"branch"`
	ColumnID      string `json:"column_id"`
	Order         int64  `json:"order"`
	CreatedAt     string `json:"created_at,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// CandidateRow is a free-form candidate detail record keyed by the display
// field names. Values always decode to strings.
type CandidateRow map[string]string

// UniformItem is one uniform inventory row.
type UniformItem struct {
	ID         string `json:"id"`
	Alteration string `json:"alteration"`
	Type       string `json:"type"`
	Size       string `json:"size"`
	Waist      string `json:"waist"`
	Inseam     string `json:"inseam"`
	Quantity   int64  `json:"quantity"`
	Branch     string `json:"branch"`
}

// StockAdjustment records a deduction made from inventory so an undo can
// put the stock back. Adjustment rows have no waist/inseam of their own.
type StockAdjustment struct {
	Alteration string `json:"alteration"`
	Type       string `json:"type"`
	Size       string `json:"size"`
	Quantity   int64  `json:"quantity"`
	Branch     string `json:"branch"`
}

// Week is one tracked week keyed by its start date.
type Week struct {
	WeekStart string               `json:"week_start"`
	WeekEnd   string               `json:"week_end"`
	Entries   map[string]*DayEntry `json:"entries"`
}

// DayEntry is the log for a single day of a week.
type DayEntry struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Content string `json:"content"`
}

// Todo is one todo list item.
type Todo struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Done      bool   `json:"done"`
	CreatedAt string `json:"createdAt"`
}

// Recycle is the undo/redo ledger. Items holds undoable deletions, Redo
// holds their redoable counterparts. Both are addressed by item id.
type Recycle struct {
	Items []RecycleItem `json:"items"`
	Redo  []RecycleItem `json:"redo"`
}

// RecycleItem is one ledger entry: a typed snapshot of removed state.
type RecycleItem struct {
	ID          string            `json:"id"`
	DeletedAt   string            `json:"deleted_at"`
	Type        string            `json:"type"`
	Columns     []Column          `json:"columns,omitempty"`
	Cards       []Card            `json:"cards,omitempty"`
	Candidates  []CandidateRow    `json:"candidates,omitempty"`
	Entries     []WeeklyDeletion  `json:"entries,omitempty"`
	Todos       []Todo            `json:"todos,omitempty"`
	Uniforms    []UniformItem     `json:"uniforms,omitempty"`
	Adjustments []StockAdjustment `json:"uniformAdjustments,omitempty"`
}

// WeeklyDeletion snapshots a removed day entry together with its week.
type WeeklyDeletion struct {
	WeekStart string   `json:"week_start"`
	WeekEnd   string   `json:"week_end"`
	Day       string   `json:"day"`
	Payload   DayEntry `json:"payload"`
}

// Recycle item types.
const (
	RecycleKanbanCards   = "kanban_cards"
	RecycleKanbanColumns = "kanban_columns"
	RecycleCandidateRows = "candidate_rows"
	RecycleWeeklyEntries = "weekly_entries"
	RecycleTodos         = "todos"
	RecycleUniformRows   = "uniform_rows"
)

// DefaultDocument returns an empty document at the current version.
func DefaultDocument() *Document {
	doc := &Document{Version: DocumentVersion}
	doc.Normalize()
	return doc
}

// Normalize fills in any missing containers so every section is present
// and serializes as an empty collection rather than null. It is idempotent
// and never touches existing rows.
func (d *Document) Normalize() {
	if d.Version == 0 {
		d.Version = DocumentVersion
	}
	if d.Kanban.Columns == nil {
		d.Kanban.Columns = []Column{}
	}
	if d.Kanban.Cards == nil {
		d.Kanban.Cards = []Card{}
	}
	if d.Kanban.Candidates == nil {
		d.Kanban.Candidates = []CandidateRow{}
	}
	if d.Uniforms == nil {
		d.Uniforms = []UniformItem{}
	}
	if d.Weekly == nil {
		d.Weekly = map[string]*Week{}
	}
	for start, week := range d.Weekly {
		if week == nil {
			week = &Week{WeekStart: start}
			d.Weekly[start] = week
		}
		if week.Entries == nil {
			week.Entries = map[string]*DayEntry{}
		}
	}
	if d.Todos == nil {
		d.Todos = []Todo{}
	}
	if d.Recycle.Items == nil {
		d.Recycle.Items = []RecycleItem{}
	}
	if d.Recycle.Redo == nil {
		d.Recycle.Redo = []RecycleItem{}
	}
}

// Clone returns a deep copy via a JSON round trip.
func (d *Document) Clone() *Document {
	data, err := json.Marshal(d)
	if err != nil {
		return DefaultDocument()
	}
	out := &Document{}
	if err := json.Unmarshal(data, out); err != nil {
		return DefaultDocument()
	}
	out.Normalize()
	return out
}

// ParseDocument decodes text into a normalized document. Returns false
// when the payload is not a JSON object; field-level damage is repaired
// rather than rejected.
func ParseDocument(text string) (*Document, bool) {
	doc := &Document{}
	if err := json.Unmarshal([]byte(text), doc); err != nil {
		return nil, false
	}
	doc.Normalize()
	return doc, true
}

func (d *Document) UnmarshalJSON(data []byte) error {
	*d = Document{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !isJSONNumber(raw["version"]) {
		d.Version = DocumentVersion
	} else {
		d.Version = jsonx.CoerceInt64(raw["version"])
	}
	d.Kanban = decodeValue[Kanban](raw["kanban"])
	d.Uniforms = decodeList[UniformItem](raw["uniforms"])
	d.Weekly = decodeWeekly(raw["weekly"])
	d.Todos = decodeList[Todo](raw["todos"])
	d.Recycle = decodeValue[Recycle](raw["recycle"])
	return nil
}

func (k *Kanban) UnmarshalJSON(data []byte) error {
	*k = Kanban{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	k.Columns = decodeList[Column](raw["columns"])
	k.Cards = decodeList[Card](raw["cards"])
	k.Candidates = decodeList[CandidateRow](raw["candidates"])
	return nil
}

func (r *Recycle) UnmarshalJSON(data []byte) error {
	*r = Recycle{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	r.Items = decodeList[RecycleItem](raw["items"])
	r.Redo = decodeList[RecycleItem](raw["redo"])
	return nil
}

func (c *Column) UnmarshalJSON(data []byte) error {
	*c = Column{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	c.ID = jsonx.CoerceString(raw["id"])
	c.Name = jsonx.CoerceString(raw["name"])
	c.Order = jsonx.CoerceInt64(raw["order"])
	c.CreatedAt = jsonx.CoerceString(raw["created_at"])
	c.UpdatedAt = jsonx.CoerceString(raw["updated_at"])
	return nil
}

func (c *Card) UnmarshalJSON(data []byte) error {
	*c = Card{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	c.UUID = jsonx.CoerceString(raw["uuid"])
	c.CandidateName = jsonx.CoerceString(raw["candidate_name"])
	c.ICIMSID = jsonx.CoerceString(raw["icims_id"])
	c.EmployeeID = jsonx.CoerceString(raw["employee_id"])
	c.JobID = jsonx.CoerceString(raw["job_id"])
	c.ReqID = jsonx.CoerceString(raw["req_id"])
	c.JobName = jsonx.CoerceString(raw["job_name"])
	c.JobLocation = jsonx.CoerceString(raw["job_location"])
	c.Manager = jsonx.CoerceString(raw["manager"])
	c.Branch = jsonx.CoerceString(raw["branch"])
	c.ColumnID = jsonx.CoerceString(raw["column_id"])
	c.Order = jsonx.CoerceInt64(raw["order"])
	c.CreatedAt = jsonx.CoerceString(raw["created_at"])
	c.UpdatedAt = jsonx.CoerceString(raw["updated_at"])
	return nil
}

func (r *CandidateRow) UnmarshalJSON(data []byte) error {
	*r = CandidateRow{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for key, value := range raw {
		(*r)[key] = jsonx.CoerceString(value)
	}
	return nil
}

func (u *UniformItem) UnmarshalJSON(data []byte) error {
	*u = UniformItem{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	u.ID = jsonx.CoerceString(raw["id"])
	u.Alteration = jsonx.CoerceString(raw["alteration"])
	u.Type = jsonx.CoerceString(raw["type"])
	u.Size = jsonx.CoerceString(raw["size"])
	u.Waist = jsonx.CoerceString(raw["waist"])
	u.Inseam = jsonx.CoerceString(raw["inseam"])
	u.Quantity = jsonx.CoerceInt64(raw["quantity"])
	u.Branch = jsonx.CoerceString(raw["branch"])
	return nil
}

func (a *StockAdjustment) UnmarshalJSON(data []byte) error {
	*a = StockAdjustment{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	a.Alteration = jsonx.CoerceString(raw["alteration"])
	a.Type = jsonx.CoerceString(raw["type"])
	a.Size = jsonx.CoerceString(raw["size"])
	a.Quantity = jsonx.CoerceInt64(raw["quantity"])
	a.Branch = jsonx.CoerceString(raw["branch"])
	return nil
}

func (t *Todo) UnmarshalJSON(data []byte) error {
	*t = Todo{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	t.ID = jsonx.CoerceString(raw["id"])
	t.Text = jsonx.CoerceString(raw["text"])
	t.Done = coerceBool(raw["done"])
	t.CreatedAt = jsonx.CoerceString(raw["createdAt"])
	return nil
}

func (w *Week) UnmarshalJSON(data []byte) error {
	*w = Week{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	w.WeekStart = jsonx.CoerceString(raw["week_start"])
	w.WeekEnd = jsonx.CoerceString(raw["week_end"])
	w.Entries = map[string]*DayEntry{}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw["entries"], &entries); err == nil {
		for day, payload := range entries {
			w.Entries[day] = decodePtr[DayEntry](payload)
		}
	}
	return nil
}

func (e *DayEntry) UnmarshalJSON(data []byte) error {
	*e = DayEntry{}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	e.Start = jsonx.CoerceString(raw["start"])
	e.End = jsonx.CoerceString(raw["end"])
	e.Content = jsonx.CoerceString(raw["content"])
	return nil
}

func decodeValue[T any](raw json.RawMessage) T {
	var out T
	_ = json.Unmarshal(raw, &out)
	return out
}

func decodePtr[T any](raw json.RawMessage) *T {
	out := new(T)
	_ = json.Unmarshal(raw, out)
	return out
}

func decodeList[T any](raw json.RawMessage) []T {
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func decodeWeekly(raw json.RawMessage) map[string]*Week {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}
	out := make(map[string]*Week, len(entries))
	for start, payload := range entries {
		out[start] = decodePtr[Week](payload)
	}
	return out
}

func isJSONNumber(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	_, ok := v.(float64)
	return ok
}

func coerceBool(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true"
	case float64:
		return t != 0
	default:
		return false
	}
}
