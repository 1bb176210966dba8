package vault

import "sort"

// MergeDocuments folds incoming into target additively. Colliding column,
// card, and todo ids get fresh ids; candidate rows follow their card's new
// id; weekly entries only fill days the target has not logged; inventory
// rows upsert by their stock key. Nothing already in target is overwritten.
func MergeDocuments(target, incoming *Document) {
	target.Normalize()
	incoming = incoming.Clone()
	now := NowString()

	columnMap := map[string]string{}
	existingColumns := map[string]struct{}{}
	var maxColumnOrder int64
	for _, column := range target.Kanban.Columns {
		if column.ID != "" {
			existingColumns[column.ID] = struct{}{}
		}
		if column.Order > maxColumnOrder {
			maxColumnOrder = column.Order
		}
	}

	incomingColumns := append([]Column(nil), incoming.Kanban.Columns...)
	sort.SliceStable(incomingColumns, func(i, j int) bool {
		return incomingColumns[i].Order < incomingColumns[j].Order
	})
	for _, column := range incomingColumns {
		oldID := column.ID
		if oldID == "" {
			continue
		}
		nextID := oldID
		if _, taken := existingColumns[oldID]; taken {
			nextID = NewID()
		}
		existingColumns[nextID] = struct{}{}
		columnMap[oldID] = nextID
		maxColumnOrder++
		column.ID = nextID
		column.Order = maxColumnOrder
		column.UpdatedAt = now
		target.Kanban.Columns = append(target.Kanban.Columns, column)
	}

	var firstColumnID string
	if len(target.Kanban.Columns) > 0 {
		firstColumnID = target.Kanban.Columns[0].ID
	}

	cardIDMap := map[string]string{}
	existingCardIDs := map[string]struct{}{}
	for _, card := range target.Kanban.Cards {
		if card.UUID != "" {
			existingCardIDs[card.UUID] = struct{}{}
		}
	}
	existingRowIDs := map[string]struct{}{}
	for _, row := range target.Kanban.Candidates {
		if id := row[CandidateUUIDField]; id != "" {
			existingRowIDs[id] = struct{}{}
		}
	}
	orderByColumn := map[string]int64{}
	for _, card := range target.Kanban.Cards {
		if card.ColumnID == "" {
			continue
		}
		if card.Order > orderByColumn[card.ColumnID] {
			orderByColumn[card.ColumnID] = card.Order
		}
	}

	incomingCards := append([]Card(nil), incoming.Kanban.Cards...)
	sort.SliceStable(incomingCards, func(i, j int) bool {
		return incomingCards[i].Order < incomingCards[j].Order
	})
	for _, card := range incomingCards {
		oldID := card.UUID
		if oldID == "" {
			continue
		}
		nextID := oldID
		if _, taken := existingCardIDs[oldID]; taken {
			nextID = NewID()
		}

		mappedColumn := card.ColumnID
		if remapped, ok := columnMap[mappedColumn]; ok {
			mappedColumn = remapped
		}
		safeColumn := mappedColumn
		if _, exists := existingColumns[mappedColumn]; mappedColumn == "" || !exists {
			if firstColumnID != "" {
				safeColumn = firstColumnID
			}
		}
		nextOrder := orderByColumn[safeColumn] + 1
		orderByColumn[safeColumn] = nextOrder

		card.UUID = nextID
		card.ColumnID = safeColumn
		card.Order = nextOrder
		card.UpdatedAt = now
		target.Kanban.Cards = append(target.Kanban.Cards, card)
		existingCardIDs[nextID] = struct{}{}
		cardIDMap[oldID] = nextID
	}

	for _, row := range incoming.Kanban.Candidates {
		if row == nil {
			continue
		}
		originalID := row[CandidateUUIDField]
		nextID := originalID
		if remapped, ok := cardIDMap[originalID]; ok {
			nextID = remapped
		}
		if _, taken := existingRowIDs[nextID]; nextID == "" || taken {
			nextID = NewID()
		}
		row[CandidateUUIDField] = nextID
		EnsureCandidateFields(row)
		target.Kanban.Candidates = append(target.Kanban.Candidates, row)
		existingRowIDs[nextID] = struct{}{}
	}

	for _, week := range incoming.Weekly {
		if week == nil || week.WeekStart == "" {
			continue
		}
		targetWeek, ok := target.Weekly[week.WeekStart]
		if !ok || targetWeek == nil {
			targetWeek = &Week{
				WeekStart: week.WeekStart,
				WeekEnd:   week.WeekEnd,
				Entries:   map[string]*DayEntry{},
			}
			target.Weekly[week.WeekStart] = targetWeek
		}
		if targetWeek.Entries == nil {
			targetWeek.Entries = map[string]*DayEntry{}
		}
		for day, payload := range week.Entries {
			if _, logged := targetWeek.Entries[day]; !logged {
				targetWeek.Entries[day] = payload
			}
		}
	}

	todoIDs := map[string]struct{}{}
	for _, todo := range target.Todos {
		if todo.ID != "" {
			todoIDs[todo.ID] = struct{}{}
		}
	}
	for _, todo := range incoming.Todos {
		nextID := todo.ID
		if _, taken := todoIDs[nextID]; nextID == "" || taken {
			nextID = NewID()
		}
		todo.ID = nextID
		target.Todos = append(target.Todos, todo)
		todoIDs[nextID] = struct{}{}
	}

	for _, entry := range incoming.Uniforms {
		normalized := NormalizeUniformPayload(UniformPayload{
			Alteration: entry.Alteration,
			Type:       entry.Type,
			Size:       entry.Size,
			Waist:      entry.Waist,
			Inseam:     entry.Inseam,
			Quantity:   entry.Quantity,
			Branch:     entry.Branch,
		})
		if normalized.Type == "" || normalized.Size == "" || normalized.Branch == "" || normalized.Quantity <= 0 {
			continue
		}
		UpsertUniformStock(target, normalized)
	}
}
