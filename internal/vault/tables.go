package vault

import (
	"sort"
	"strconv"
)

// TableRowID is the synthetic key column carried by every table row.
const TableRowID = "__rowId"

// TableInfo summarizes one table for listings.
type TableInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TableRow is one projected row keyed by column name.
type TableRow map[string]any

// TableResult is a fully projected table.
type TableResult struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    []TableRow `json:"rows"`
}

// TableDisplayName maps a table id to its display name.
func TableDisplayName(tableID string) string {
	switch tableID {
	case "kanban_columns":
		return "Kanban Columns"
	case "kanban_cards":
		return "Kanban Cards"
	case "candidate_data":
		return "Onboarding Candidate Data"
	case "uniform_inventory":
		return "Uniform Inventory"
	case "weekly_entries":
		return "Weekly Tracker Entries"
	case "todos":
		return "Todos"
	default:
		return "Unknown"
	}
}

// TableCount returns the row count for a table id.
func TableCount(doc *Document, tableID string) int {
	switch tableID {
	case "kanban_columns":
		return len(doc.Kanban.Columns)
	case "kanban_cards":
		return len(doc.Kanban.Cards)
	case "candidate_data":
		return len(doc.Kanban.Candidates)
	case "uniform_inventory":
		return len(doc.Uniforms)
	case "weekly_entries":
		total := 0
		for _, week := range doc.Weekly {
			if week != nil {
				total += len(week.Entries)
			}
		}
		return total
	case "todos":
		return len(doc.Todos)
	default:
		return 0
	}
}

// ListTables describes every table in presentation order.
func ListTables(doc *Document) []TableInfo {
	out := make([]TableInfo, 0, len(TableOrder))
	for _, tableID := range TableOrder {
		out = append(out, TableInfo{
			ID:    tableID,
			Name:  TableDisplayName(tableID),
			Count: TableCount(doc, tableID),
		})
	}
	return out
}

// BuildTable projects a table id into columns and rows. Unknown ids yield
// an empty "Unknown" table rather than an error.
func BuildTable(doc *Document, tableID string) *TableResult {
	switch tableID {
	case "kanban_columns":
		return &TableResult{
			ID:      tableID,
			Name:    TableDisplayName(tableID),
			Columns: KanbanColumnColumns,
			Rows:    buildColumnRows(doc),
		}
	case "kanban_cards":
		return &TableResult{
			ID:      tableID,
			Name:    TableDisplayName(tableID),
			Columns: KanbanCardColumns,
			Rows:    buildCardRows(doc),
		}
	case "candidate_data":
		return &TableResult{
			ID:      tableID,
			Name:    TableDisplayName(tableID),
			Columns: CandidateFields,
			Rows:    buildCandidateRows(doc),
		}
	case "uniform_inventory":
		return &TableResult{
			ID:      tableID,
			Name:    TableDisplayName(tableID),
			Columns: UniformColumns,
			Rows:    buildUniformRows(doc),
		}
	case "weekly_entries":
		return &TableResult{
			ID:      tableID,
			Name:    TableDisplayName(tableID),
			Columns: WeeklyColumns,
			Rows:    buildWeeklyRows(doc),
		}
	case "todos":
		return &TableResult{
			ID:      tableID,
			Name:    TableDisplayName(tableID),
			Columns: TodoColumns,
			Rows:    buildTodoRows(doc),
		}
	default:
		return &TableResult{ID: tableID, Name: "Unknown", Columns: []string{}, Rows: []TableRow{}}
	}
}

func buildColumnRows(doc *Document) []TableRow {
	rows := make([]TableRow, 0, len(doc.Kanban.Columns))
	for idx, col := range doc.Kanban.Columns {
		rowID := col.ID
		if rowID == "" {
			rowID = "column-" + strconv.Itoa(idx+1)
		}
		rows = append(rows, TableRow{
			TableRowID:   rowID,
			"id":         col.ID,
			"name":       col.Name,
			"order":      col.Order,
			"created_at": col.CreatedAt,
			"updated_at": col.UpdatedAt,
		})
	}
	return rows
}

func buildCardRows(doc *Document) []TableRow {
	rows := make([]TableRow, 0, len(doc.Kanban.Cards))
	for idx, card := range doc.Kanban.Cards {
		rowID := card.UUID
		if rowID == "" {
			rowID = "card-" + strconv.Itoa(idx+1)
		}
		rows = append(rows, TableRow{
			TableRowID:       rowID,
			"uuid":           card.UUID,
			"candidate_name": card.CandidateName,
			"icims_id":       card.ICIMSID,
			"employee_id":    card.EmployeeID,
			"job_id":         card.JobID,
			"req_id":         card.ReqID,
			"job_name":       card.JobName,
			"job_location":   card.JobLocation,
			"manager":        card.Manager,
			"branch":         card.Branch,
			"column_id":      card.ColumnID,
			"order":          card.Order,
			"created_at":     card.CreatedAt,
			"updated_at":     card.UpdatedAt,
		})
	}
	return rows
}

func buildCandidateRows(doc *Document) []TableRow {
	rows := make([]TableRow, 0, len(doc.Kanban.Candidates))
	for idx, row := range doc.Kanban.Candidates {
		rowID := row[CandidateUUIDField]
		if rowID == "" {
			rowID = row["Candidate Name"]
		}
		if rowID == "" {
			rowID = "candidate-" + strconv.Itoa(idx+1)
		}
		out := make(TableRow, len(CandidateFields)+1)
		out[TableRowID] = rowID
		for _, field := range CandidateFields {
			out[field] = row[field]
		}
		rows = append(rows, out)
	}
	return rows
}

func buildUniformRows(doc *Document) []TableRow {
	rows := make([]TableRow, 0, len(doc.Uniforms))
	for idx, entry := range doc.Uniforms {
		rowID := entry.ID
		if rowID == "" {
			rowID = "uniform-" + strconv.Itoa(idx+1)
		}
		quantity := entry.Quantity
		if quantity < 0 {
			quantity = 0
		}
		rows = append(rows, TableRow{
			TableRowID:   rowID,
			"Alteration": entry.Alteration,
			"Type":       entry.Type,
			"Size":       entry.Size,
			"Waist":      entry.Waist,
			"Inseam":     entry.Inseam,
			"Quantity":   strconv.FormatInt(quantity, 10),
			"Branch":     entry.Branch,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		for _, key := range []string{"Branch", "Type", "Alteration", "Size"} {
			av, _ := a[key].(string)
			bv, _ := b[key].(string)
			if av != bv {
				return av < bv
			}
		}
		return false
	})
	return rows
}

func buildWeeklyRows(doc *Document) []TableRow {
	var rows []TableRow
	for weekKey, week := range doc.Weekly {
		if week == nil {
			continue
		}
		weekStart := week.WeekStart
		if weekStart == "" {
			weekStart = weekKey
		}
		for day, entry := range week.Entries {
			if entry == nil {
				entry = &DayEntry{}
			}
			rows = append(rows, TableRow{
				TableRowID:   weekStart + "-" + day,
				"week_start": weekStart,
				"week_end":   week.WeekEnd,
				"day":        day,
				"start":      entry.Start,
				"end":        entry.End,
				"content":    entry.Content,
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, _ := rows[i]["week_start"].(string)
		b, _ := rows[j]["week_start"].(string)
		if a != b {
			return a < b
		}
		ad, _ := rows[i]["day"].(string)
		bd, _ := rows[j]["day"].(string)
		return ad < bd
	})
	return rows
}

func buildTodoRows(doc *Document) []TableRow {
	rows := make([]TableRow, 0, len(doc.Todos))
	for idx, todo := range doc.Todos {
		rowID := todo.ID
		if rowID == "" {
			rowID = "todo-" + strconv.Itoa(idx+1)
		}
		rows = append(rows, TableRow{
			TableRowID:  rowID,
			"id":        todo.ID,
			"text":      todo.Text,
			"done":      todo.Done,
			"createdAt": todo.CreatedAt,
		})
	}
	return rows
}
