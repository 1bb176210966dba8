package vault

// PushRecycleItem stamps the item with a fresh id and deletion time and
// appends it to the undo side of the ledger. Returns the id.
func PushRecycleItem(doc *Document, item RecycleItem) string {
	item.ID = NewID()
	item.DeletedAt = NowString()
	doc.Recycle.Items = append(doc.Recycle.Items, item)
	return item.ID
}

// PushRedoItem is PushRecycleItem for the redo side.
func PushRedoItem(doc *Document, item RecycleItem) string {
	item.ID = NewID()
	item.DeletedAt = NowString()
	doc.Recycle.Redo = append(doc.Recycle.Redo, item)
	return item.ID
}

// PopRecycleItem removes and returns the undo item with the given id.
func PopRecycleItem(doc *Document, id string) (RecycleItem, bool) {
	return popItem(&doc.Recycle.Items, id)
}

// PopRedoItem removes and returns the redo item with the given id.
func PopRedoItem(doc *Document, id string) (RecycleItem, bool) {
	return popItem(&doc.Recycle.Redo, id)
}

func popItem(items *[]RecycleItem, id string) (RecycleItem, bool) {
	for i := range *items {
		if (*items)[i].ID == id {
			item := (*items)[i]
			*items = append((*items)[:i], (*items)[i+1:]...)
			return item, true
		}
	}
	return RecycleItem{}, false
}

// RestoreRecycleItem puts the snapshotted state back into the document.
// Rows whose ids are already present are skipped, except restored columns,
// whose cards replace any same-id cards outright. Returns false for an
// unknown item type.
func RestoreRecycleItem(doc *Document, item RecycleItem) bool {
	switch item.Type {
	case RecycleKanbanCards:
		existing := cardUUIDSet(doc.Kanban.Cards)
		for _, card := range item.Cards {
			if card.UUID == "" {
				continue
			}
			if _, ok := existing[card.UUID]; ok {
				continue
			}
			doc.Kanban.Cards = append(doc.Kanban.Cards, card)
		}
		restoreCandidateRows(doc, item.Candidates)
		for _, adj := range item.Adjustments {
			normalized := NormalizeUniformPayload(UniformPayload{
				Alteration: adj.Alteration,
				Type:       adj.Type,
				Size:       adj.Size,
				Quantity:   adj.Quantity,
				Branch:     adj.Branch,
			})
			if normalized.Quantity > 0 {
				UpsertUniformStock(doc, normalized)
			}
		}
		return true

	case RecycleKanbanColumns:
		existing := map[string]struct{}{}
		for _, col := range doc.Kanban.Columns {
			existing[col.ID] = struct{}{}
		}
		for _, col := range item.Columns {
			if col.ID == "" {
				continue
			}
			if _, ok := existing[col.ID]; ok {
				continue
			}
			doc.Kanban.Columns = append(doc.Kanban.Columns, col)
		}
		// Restored cards win over any same-id cards added since.
		ids := cardUUIDSet(item.Cards)
		kept := doc.Kanban.Cards[:0]
		for _, card := range doc.Kanban.Cards {
			if _, ok := ids[card.UUID]; !ok {
				kept = append(kept, card)
			}
		}
		doc.Kanban.Cards = kept
		for _, card := range item.Cards {
			if card.UUID != "" {
				doc.Kanban.Cards = append(doc.Kanban.Cards, card)
			}
		}
		return true

	case RecycleCandidateRows:
		restoreCandidateRows(doc, item.Candidates)
		return true

	case RecycleWeeklyEntries:
		for _, entry := range item.Entries {
			if entry.WeekStart == "" || entry.Day == "" {
				continue
			}
			week, ok := doc.Weekly[entry.WeekStart]
			if !ok || week == nil {
				week = &Week{WeekStart: entry.WeekStart, WeekEnd: entry.WeekEnd, Entries: map[string]*DayEntry{}}
				doc.Weekly[entry.WeekStart] = week
			}
			week.WeekStart = entry.WeekStart
			if entry.WeekEnd != "" {
				week.WeekEnd = entry.WeekEnd
			}
			if week.Entries == nil {
				week.Entries = map[string]*DayEntry{}
			}
			payload := entry.Payload
			week.Entries[entry.Day] = &payload
		}
		return true

	case RecycleTodos:
		existing := map[string]struct{}{}
		for _, todo := range doc.Todos {
			existing[todo.ID] = struct{}{}
		}
		for _, todo := range item.Todos {
			if todo.ID == "" {
				continue
			}
			if _, ok := existing[todo.ID]; ok {
				continue
			}
			doc.Todos = append(doc.Todos, todo)
		}
		return true

	case RecycleUniformRows:
		existing := map[string]struct{}{}
		for _, row := range doc.Uniforms {
			existing[row.ID] = struct{}{}
		}
		for _, row := range item.Uniforms {
			if row.ID == "" {
				continue
			}
			if _, ok := existing[row.ID]; ok {
				continue
			}
			doc.Uniforms = append(doc.Uniforms, row)
		}
		return true
	}
	return false
}

// ReapplyRecycleItem performs the snapshotted deletion again, for redo.
// Returns false for an unknown type or a column item with no column ids.
func ReapplyRecycleItem(doc *Document, item RecycleItem) bool {
	switch item.Type {
	case RecycleKanbanCards:
		cardIDs := cardUUIDSet(item.Cards)
		rowIDs := map[string]struct{}{}
		for _, row := range item.Candidates {
			if id := row[CandidateUUIDField]; id != "" {
				rowIDs[id] = struct{}{}
			}
		}
		keptCards := doc.Kanban.Cards[:0]
		for _, card := range doc.Kanban.Cards {
			if _, ok := cardIDs[card.UUID]; !ok {
				keptCards = append(keptCards, card)
			}
		}
		doc.Kanban.Cards = keptCards
		keptRows := doc.Kanban.Candidates[:0]
		for _, row := range doc.Kanban.Candidates {
			if _, ok := rowIDs[row[CandidateUUIDField]]; !ok {
				keptRows = append(keptRows, row)
			}
		}
		doc.Kanban.Candidates = keptRows
		for _, adj := range item.Adjustments {
			normalized := NormalizeUniformPayload(UniformPayload{
				Alteration: adj.Alteration,
				Type:       adj.Type,
				Size:       adj.Size,
				Quantity:   adj.Quantity,
				Branch:     adj.Branch,
			})
			if normalized.Quantity > 0 {
				DecrementUniformStock(doc, normalized)
			}
		}
		return true

	case RecycleKanbanColumns:
		ids := map[string]struct{}{}
		for _, col := range item.Columns {
			if col.ID != "" {
				ids[col.ID] = struct{}{}
			}
		}
		if len(ids) == 0 {
			return false
		}
		result, err := RemoveKanbanColumns(doc, ids, false)
		return err == nil && result != nil

	case RecycleCandidateRows:
		ids := map[string]struct{}{}
		for _, row := range item.Candidates {
			if id := row[CandidateUUIDField]; id != "" {
				ids[id] = struct{}{}
			}
		}
		kept := doc.Kanban.Candidates[:0]
		for _, row := range doc.Kanban.Candidates {
			if _, ok := ids[row[CandidateUUIDField]]; !ok {
				kept = append(kept, row)
			}
		}
		doc.Kanban.Candidates = kept
		return true

	case RecycleWeeklyEntries:
		for _, entry := range item.Entries {
			if week, ok := doc.Weekly[entry.WeekStart]; ok && week != nil && week.Entries != nil {
				delete(week.Entries, entry.Day)
			}
		}
		return true

	case RecycleTodos:
		ids := map[string]struct{}{}
		for _, todo := range item.Todos {
			if todo.ID != "" {
				ids[todo.ID] = struct{}{}
			}
		}
		kept := doc.Todos[:0]
		for _, todo := range doc.Todos {
			if _, ok := ids[todo.ID]; !ok {
				kept = append(kept, todo)
			}
		}
		doc.Todos = kept
		return true

	case RecycleUniformRows:
		ids := map[string]struct{}{}
		for _, row := range item.Uniforms {
			if row.ID != "" {
				ids[row.ID] = struct{}{}
			}
		}
		kept := doc.Uniforms[:0]
		for _, row := range doc.Uniforms {
			if _, ok := ids[row.ID]; !ok {
				kept = append(kept, row)
			}
		}
		doc.Uniforms = kept
		return true
	}
	return false
}

func cardUUIDSet(cards []Card) map[string]struct{} {
	out := make(map[string]struct{}, len(cards))
	for _, card := range cards {
		if card.UUID != "" {
			out[card.UUID] = struct{}{}
		}
	}
	return out
}

func restoreCandidateRows(doc *Document, rows []CandidateRow) {
	existing := map[string]struct{}{}
	for _, row := range doc.Kanban.Candidates {
		existing[row[CandidateUUIDField]] = struct{}{}
	}
	for _, row := range rows {
		id := row[CandidateUUIDField]
		if id == "" {
			continue
		}
		if _, ok := existing[id]; ok {
			continue
		}
		doc.Kanban.Candidates = append(doc.Kanban.Candidates, row)
	}
}
