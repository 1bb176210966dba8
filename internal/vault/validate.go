package vault

// ValidateDocument runs the basic integrity checks applied to imports and
// on-demand validation: version compatibility and the id fields every
// board row must carry. Returns nil when the document passes.
func ValidateDocument(doc *Document) *StatusError {
	if doc == nil {
		return NewStatusError(CodeBroken, "Database payload is not an object.")
	}
	if doc.Version > DocumentVersion {
		return NewStatusError(CodeBroken, "Database version is newer than this app supports.")
	}
	if doc.Kanban.Columns == nil {
		return NewStatusError(CodeBroken, "Kanban columns are missing.")
	}
	if doc.Kanban.Cards == nil {
		return NewStatusError(CodeBroken, "Kanban cards are missing.")
	}
	if doc.Kanban.Candidates == nil {
		return NewStatusError(CodeBroken, "Candidate rows are missing.")
	}
	if doc.Uniforms == nil {
		return NewStatusError(CodeBroken, "Uniform inventory is invalid.")
	}
	if doc.Weekly == nil {
		return NewStatusError(CodeBroken, "Weekly data is invalid.")
	}
	if doc.Todos == nil {
		return NewStatusError(CodeBroken, "Todo data is invalid.")
	}
	if doc.Recycle.Items == nil || doc.Recycle.Redo == nil {
		return NewStatusError(CodeBroken, "Recycle data is invalid.")
	}

	for _, column := range doc.Kanban.Columns {
		if column.ID == "" {
			return NewStatusError(CodeBroken, "Column IDs are invalid.")
		}
	}
	for _, card := range doc.Kanban.Cards {
		if card.UUID == "" {
			return NewStatusError(CodeBroken, "Card IDs are invalid.")
		}
		if card.ColumnID == "" {
			return NewStatusError(CodeBroken, "Card column references are invalid.")
		}
	}
	for _, row := range doc.Kanban.Candidates {
		if row[CandidateUUIDField] == "" {
			return NewStatusError(CodeBroken, "Candidate UUIDs are missing.")
		}
	}
	return nil
}
