package vault

import (
	"sort"
	"strings"

	"github.com/dcitarelli/workflow/internal/common"
)

// CardPayload carries caller-supplied card fields. Key presence matters:
// updates only touch fields the payload actually names.
type CardPayload map[string]string

func (p CardPayload) get(key string) string {
	return p[key]
}

func (p CardPayload) has(key string) bool {
	_, ok := p[key]
	return ok
}

// AddColumn appends a column named name at the end of the board.
func AddColumn(doc *Document, name string) (*Column, error) {
	name = ClampString(name, 60, true)
	if name == "" {
		return nil, common.ErrColumnName
	}
	var maxOrder int64
	for _, col := range doc.Kanban.Columns {
		if col.Order > maxOrder {
			maxOrder = col.Order
		}
	}
	column := Column{
		ID:        NewID(),
		Name:      name,
		Order:     maxOrder + 1,
		CreatedAt: NowString(),
	}
	doc.Kanban.Columns = append(doc.Kanban.Columns, column)
	return &column, nil
}

// RemoveColumnsResult reports the board state after a column removal.
type RemoveColumnsResult struct {
	Columns []Column
	Cards   []Card
	UndoID  string
}

// RemoveKanbanColumns removes the columns in ids, moving their cards to
// the lowest-ordered surviving column. Deleting the last column while it
// still holds cards is refused. When recordUndo is set and columns were
// actually removed, the removal lands in the undo ledger.
func RemoveKanbanColumns(doc *Document, ids map[string]struct{}, recordUndo bool) (*RemoveColumnsResult, error) {
	var removedColumns, remainingColumns []Column
	for _, col := range doc.Kanban.Columns {
		if _, ok := ids[col.ID]; ok {
			removedColumns = append(removedColumns, col)
		} else {
			remainingColumns = append(remainingColumns, col)
		}
	}

	var removedCards []Card
	for _, card := range doc.Kanban.Cards {
		if _, ok := ids[card.ColumnID]; ok {
			removedCards = append(removedCards, card)
		}
	}

	if len(remainingColumns) == 0 && len(removedCards) > 0 {
		return nil, common.ErrLastColumn
	}

	if len(remainingColumns) > 0 && len(removedCards) > 0 {
		sorted := append([]Column(nil), remainingColumns...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
		targetColumnID := sorted[0].ID
		if targetColumnID != "" {
			var nextOrder int64
			for _, card := range doc.Kanban.Cards {
				if card.ColumnID == targetColumnID && card.Order > nextOrder {
					nextOrder = card.Order
				}
			}
			nextOrder++
			now := NowString()
			sort.SliceStable(doc.Kanban.Cards, func(i, j int) bool {
				return doc.Kanban.Cards[i].Order < doc.Kanban.Cards[j].Order
			})
			for i := range doc.Kanban.Cards {
				if _, ok := ids[doc.Kanban.Cards[i].ColumnID]; ok {
					doc.Kanban.Cards[i].ColumnID = targetColumnID
					doc.Kanban.Cards[i].Order = nextOrder
					doc.Kanban.Cards[i].UpdatedAt = now
					nextOrder++
				}
			}
		}
	}

	kept := doc.Kanban.Columns[:0]
	for _, col := range doc.Kanban.Columns {
		if _, ok := ids[col.ID]; !ok {
			kept = append(kept, col)
		}
	}
	doc.Kanban.Columns = kept

	var undoID string
	if recordUndo && len(removedColumns) > 0 {
		undoID = PushRecycleItem(doc, RecycleItem{
			Type:    RecycleKanbanColumns,
			Columns: removedColumns,
			Cards:   removedCards,
		})
	}

	return &RemoveColumnsResult{
		Columns: doc.Kanban.Columns,
		Cards:   doc.Kanban.Cards,
		UndoID:  undoID,
	}, nil
}

// AddCard creates a card in an existing column along with its mirrored
// candidate row. The card lands at the end of the column.
func AddCard(doc *Document, payload CardPayload) (*Card, error) {
	columnID := ClampString(payload.get("column_id"), 128, true)
	valid := false
	for _, col := range doc.Kanban.Columns {
		if col.ID == columnID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, common.ErrInvalidColumn
	}

	var maxOrder int64
	for _, card := range doc.Kanban.Cards {
		if card.ColumnID == columnID && card.Order > maxOrder {
			maxOrder = card.Order
		}
	}

	now := NowString()
	card := Card{
		UUID:          NewID(),
		ColumnID:      columnID,
		Order:         maxOrder + 1,
		CandidateName: ClampString(payload.get("candidate_name"), 120, false),
		ICIMSID:       ClampString(payload.get("icims_id"), 64, false),
		EmployeeID:    ClampString(payload.get("employee_id"), 64, false),
		JobID:         ClampString(payload.get("job_id"), 64, false),
		ReqID:         ClampString(payload.get("req_id"), 64, false),
		JobName:       ClampString(payload.get("job_name"), 120, false),
		JobLocation:   ClampString(payload.get("job_location"), 120, false),
		Manager:       ClampString(payload.get("manager"), 80, false),
		Branch:        ClampString(payload.get("branch"), 80, false),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	doc.Kanban.Cards = append(doc.Kanban.Cards, card)

	row := DefaultCandidateRow()
	row["Candidate Name"] = card.CandidateName
	row["ICIMS ID"] = card.ICIMSID
	row["Employee ID"] = card.EmployeeID
	row["REQ ID"] = card.ReqID
	row["Contact Phone"] = ClampString(payload.get("contact_phone"), 32, false)
	row["Contact Email"] = ClampString(payload.get("contact_email"), 120, false)
	row["Job ID Name"] = JobIDName(card.JobID, card.JobName)
	row["Job Location"] = card.JobLocation
	row["Manager"] = card.Manager
	row["Branch"] = card.Branch
	row[CandidateUUIDField] = card.UUID
	doc.Kanban.Candidates = append(doc.Kanban.Candidates, row)

	return &card, nil
}

func applyCardUpdates(card *Card, payload CardPayload, validColumns map[string]struct{}) {
	setText := func(key string, maxLen int, dst *string) {
		if payload.has(key) {
			*dst = ClampString(payload.get(key), maxLen, false)
		}
	}
	setText("candidate_name", 120, &card.CandidateName)
	setText("icims_id", 64, &card.ICIMSID)
	setText("employee_id", 64, &card.EmployeeID)
	setText("job_id", 64, &card.JobID)
	setText("req_id", 64, &card.ReqID)
	setText("job_name", 120, &card.JobName)
	setText("job_location", 120, &card.JobLocation)
	setText("manager", 80, &card.Manager)
	setText("branch", 80, &card.Branch)

	if payload.has("column_id") {
		columnID := ClampString(payload.get("column_id"), 128, true)
		if _, ok := validColumns[columnID]; columnID != "" && ok {
			card.ColumnID = columnID
		}
	}
	if payload.has("order") {
		card.Order = ParseInt64(payload.get("order"))
	}
}

// UpdateCard applies payload to an existing card and mirrors the shared
// fields onto its candidate row. Returns false when the card is unknown.
func UpdateCard(doc *Document, cardID string, payload CardPayload) (*Card, bool) {
	cardID = ClampString(cardID, 128, true)
	if cardID == "" {
		return nil, false
	}
	validColumns := make(map[string]struct{}, len(doc.Kanban.Columns))
	for _, col := range doc.Kanban.Columns {
		validColumns[col.ID] = struct{}{}
	}

	var updated *Card
	for i := range doc.Kanban.Cards {
		if doc.Kanban.Cards[i].UUID == cardID {
			applyCardUpdates(&doc.Kanban.Cards[i], payload, validColumns)
			doc.Kanban.Cards[i].UpdatedAt = NowString()
			updated = &doc.Kanban.Cards[i]
			break
		}
	}
	if updated == nil {
		return nil, false
	}

	row := EnsureCandidateRow(doc, cardID)
	row["Candidate Name"] = updated.CandidateName
	row["ICIMS ID"] = updated.ICIMSID
	row["Employee ID"] = updated.EmployeeID
	row["REQ ID"] = updated.ReqID
	if payload.has("contact_phone") {
		row["Contact Phone"] = ClampString(payload.get("contact_phone"), 32, false)
	}
	if payload.has("contact_email") {
		row["Contact Email"] = ClampString(payload.get("contact_email"), 120, false)
	}
	row["Job ID Name"] = JobIDName(updated.JobID, updated.JobName)
	row["Job Location"] = updated.JobLocation
	row["Manager"] = updated.Manager
	row["Branch"] = updated.Branch

	return updated, true
}

// EnsureCandidateRow finds or creates the candidate row for candidateID,
// guaranteeing the full field schema either way. New rows seed their name
// and REQ ID from the matching card when one exists.
func EnsureCandidateRow(doc *Document, candidateID string) CandidateRow {
	var card *Card
	for i := range doc.Kanban.Cards {
		if doc.Kanban.Cards[i].UUID == candidateID {
			card = &doc.Kanban.Cards[i]
			break
		}
	}

	for _, row := range doc.Kanban.Candidates {
		if row[CandidateUUIDField] == candidateID {
			EnsureCandidateFields(row)
			row[CandidateUUIDField] = candidateID
			return row
		}
	}

	row := DefaultCandidateRow()
	row[CandidateUUIDField] = candidateID
	if card != nil {
		row["Candidate Name"] = card.CandidateName
		row["REQ ID"] = card.ReqID
	}
	doc.Kanban.Candidates = append(doc.Kanban.Candidates, row)
	return row
}

// ReorderColumn rewrites the card order inside one column: the ids in
// cardIDs come first in the given sequence, then any cards the caller did
// not mention, in their previous order. Orders restart at 1.
func ReorderColumn(doc *Document, columnID string, cardIDs []string) []Card {
	columnID = ClampString(columnID, 128, true)
	orderedIDs := make([]string, 0, len(cardIDs))
	for _, id := range cardIDs {
		if clean := ClampString(id, 128, true); clean != "" {
			orderedIDs = append(orderedIDs, clean)
		}
	}

	var columnCards []Card
	byID := map[string]Card{}
	for _, card := range doc.Kanban.Cards {
		if card.ColumnID == columnID {
			columnCards = append(columnCards, card)
			byID[card.UUID] = card
		}
	}

	var ordered []Card
	seen := map[string]struct{}{}
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		if card, ok := byID[id]; ok {
			ordered = append(ordered, card)
			seen[id] = struct{}{}
		}
	}
	sort.SliceStable(columnCards, func(i, j int) bool { return columnCards[i].Order < columnCards[j].Order })
	for _, card := range columnCards {
		if _, ok := seen[card.UUID]; !ok {
			ordered = append(ordered, card)
		}
	}

	now := NowString()
	orderByID := make(map[string]int64, len(ordered))
	for idx, card := range ordered {
		orderByID[card.UUID] = int64(idx + 1)
	}
	for i := range doc.Kanban.Cards {
		if doc.Kanban.Cards[i].ColumnID != columnID {
			continue
		}
		if nextOrder, ok := orderByID[doc.Kanban.Cards[i].UUID]; ok {
			doc.Kanban.Cards[i].Order = nextOrder
			doc.Kanban.Cards[i].UpdatedAt = now
		}
	}
	return doc.Kanban.Cards
}

// ProcessResult reports a completed candidate processing.
type ProcessResult struct {
	Cards  []Card
	UndoID string
}

// ProcessCandidate checks a candidate out of onboarding: it stamps the
// arrival/departure times onto the detail row, deducts any issued
// uniforms from inventory, blanks the sensitive fields, and removes the
// board card. The pre-mutation card and row go into the undo ledger with
// the inventory adjustments so the whole thing can be reversed.
func ProcessCandidate(doc *Document, candidateID, branch, arrival, departure string) (*ProcessResult, error) {
	candidateID = ClampString(candidateID, 128, true)
	if candidateID == "" {
		return nil, common.ErrMissingCandidate
	}

	cardIndex := -1
	for i := range doc.Kanban.Cards {
		if doc.Kanban.Cards[i].UUID == candidateID {
			cardIndex = i
			break
		}
	}
	if cardIndex < 0 {
		return nil, common.ErrCandidateNotFound
	}

	selectedBranch := ClampString(branch, 40, true)
	if selectedBranch == "" {
		selectedBranch = doc.Kanban.Cards[cardIndex].Branch
	}
	if selectedBranch == "" {
		return nil, common.ErrBranchRequired
	}

	arrivalRaw, ok := ParseMilitaryTime(arrival)
	if !ok {
		return nil, common.ErrInvalidTime
	}
	departureRaw, ok := ParseMilitaryTime(departure)
	if !ok {
		return nil, common.ErrInvalidTime
	}
	arrivalMinutes := RoundToQuarterHour(arrivalRaw)
	departureMinutes := RoundToQuarterHour(departureRaw)

	preCard := doc.Kanban.Cards[cardIndex]
	preRow := EnsureCandidateRow(doc, candidateID).clone()

	totalMinutes := departureMinutes - arrivalMinutes
	if totalMinutes < 0 {
		totalMinutes += 24 * 60
	}

	doc.Kanban.Cards[cardIndex].Branch = selectedBranch
	doc.Kanban.Cards[cardIndex].UpdatedAt = NowString()

	row := EnsureCandidateRow(doc, candidateID)
	row["Candidate Name"] = preCard.CandidateName
	row["ICIMS ID"] = preCard.ICIMSID
	row["Employee ID"] = preCard.EmployeeID
	row["REQ ID"] = preCard.ReqID
	row["Job ID Name"] = JobIDName(preCard.JobID, preCard.JobName)
	row["Job Location"] = preCard.JobLocation
	row["Manager"] = preCard.Manager
	row["Branch"] = selectedBranch
	row["Neo Arrival Time"] = FormatMilitaryTime(arrivalMinutes)
	row["Neo Departure Time"] = FormatMilitaryTime(departureMinutes)
	row["Total Neo Hours"] = FormatTotalHours(totalMinutes)

	type shirtPlan struct {
		size        string
		given       int64
		alterations []string
	}
	type pantsPlan struct {
		size       string
		given      int64
		alteration string
	}
	var shirts *shirtPlan
	var pants *pantsPlan

	if strings.EqualFold(row["Uniforms Issued"], "yes") {
		shirtSize := ClampString(row["Issued Shirt Size"], 40, true)
		if shirtSize == "" {
			shirtSize = ClampString(row["Shirt Size"], 40, true)
		}
		shirtsGivenValue := row["Issued Shirts Given"]
		if shirtsGivenValue == "" {
			shirtsGivenValue = row["Shirts Given"]
		}
		shirtsGiven := ParseIssuedUniformQuantity(shirtsGivenValue)
		shirtType := row["Issued Shirt Type"]
		if shirtType == "" {
			shirtType = row["Shirt Type"]
		}
		if shirtSize != "" && shirtsGiven > 0 {
			shirts = &shirtPlan{size: shirtSize, given: shirtsGiven, alterations: ParseAlterationList(shirtType)}
		}

		waist := ClampString(row["Issued Waist"], 2, true)
		if waist == "" {
			waist = ClampString(row["Waist"], 2, true)
		}
		inseam := ClampString(row["Issued Inseam"], 2, true)
		if inseam == "" {
			inseam = ClampString(row["Inseam"], 2, true)
		}
		pantsSize := ClampString(row["Issued Pants Size"], 40, true)
		if pantsSize == "" {
			pantsSize = ClampString(row["Pants Size"], 40, true)
		}
		if pantsSize == "" && waist != "" && inseam != "" {
			pantsSize = waist + "x" + inseam
		}
		pantsGivenValue := row["Issued Pants Given"]
		if pantsGivenValue == "" {
			pantsGivenValue = row["Pants Given"]
		}
		pantsGiven := ParseIssuedUniformQuantity(pantsGivenValue)
		pantsType := row["Issued Pants Type"]
		if pantsType == "" {
			pantsType = row["Pants Type"]
		}
		if pantsSize != "" && pantsGiven > 0 {
			pants = &pantsPlan{size: pantsSize, given: pantsGiven, alteration: ClampString(pantsType, 80, true)}
		}
	}

	for _, field := range SensitivePIIFields {
		row[field] = ""
	}

	var adjustments []StockAdjustment
	if shirts != nil {
		adjustments = append(adjustments, DeductUniformsAcrossAlterations(
			doc, "Shirt", shirts.size, shirts.given, selectedBranch, shirts.alterations)...)
	}
	if pants != nil {
		adjustments = append(adjustments, DeductUniformsAcrossAlterations(
			doc, "Pants", pants.size, pants.given, selectedBranch, []string{pants.alteration})...)
	}

	doc.Kanban.Cards[cardIndex].ICIMSID = ""
	doc.Kanban.Cards[cardIndex].EmployeeID = ""

	kept := doc.Kanban.Cards[:0]
	for _, card := range doc.Kanban.Cards {
		if card.UUID != candidateID {
			kept = append(kept, card)
		}
	}
	doc.Kanban.Cards = kept

	undoID := PushRecycleItem(doc, RecycleItem{
		Type:        RecycleKanbanCards,
		Cards:       []Card{preCard},
		Candidates:  []CandidateRow{preRow},
		Adjustments: adjustments,
	})

	return &ProcessResult{Cards: doc.Kanban.Cards, UndoID: undoID}, nil
}

// RemoveCandidateResult reports a candidate removal.
type RemoveCandidateResult struct {
	Columns []Column
	Cards   []Card
	UndoID  string
}

// RemoveCandidate deletes a candidate's card and detail row together,
// recording an undo entry when anything was actually removed.
func RemoveCandidate(doc *Document, candidateID string) (*RemoveCandidateResult, error) {
	candidateID = ClampString(candidateID, 128, true)
	if candidateID == "" {
		return nil, common.ErrMissingCandidate
	}

	var removedCards []Card
	for _, card := range doc.Kanban.Cards {
		if card.UUID == candidateID {
			removedCards = append(removedCards, card)
		}
	}
	var removedRows []CandidateRow
	for _, row := range doc.Kanban.Candidates {
		if row[CandidateUUIDField] == candidateID {
			removedRows = append(removedRows, row)
		}
	}

	keptCards := doc.Kanban.Cards[:0]
	for _, card := range doc.Kanban.Cards {
		if card.UUID != candidateID {
			keptCards = append(keptCards, card)
		}
	}
	doc.Kanban.Cards = keptCards
	keptRows := doc.Kanban.Candidates[:0]
	for _, row := range doc.Kanban.Candidates {
		if row[CandidateUUIDField] != candidateID {
			keptRows = append(keptRows, row)
		}
	}
	doc.Kanban.Candidates = keptRows

	var undoID string
	if len(removedCards) > 0 || len(removedRows) > 0 {
		undoID = PushRecycleItem(doc, RecycleItem{
			Type:       RecycleKanbanCards,
			Cards:      removedCards,
			Candidates: removedRows,
		})
	}

	return &RemoveCandidateResult{
		Columns: doc.Kanban.Columns,
		Cards:   doc.Kanban.Cards,
		UndoID:  undoID,
	}, nil
}

func (r CandidateRow) clone() CandidateRow {
	out := make(CandidateRow, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
