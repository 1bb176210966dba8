// Package common defines shared constants and sentinel errors used across
// the workflow store layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Undo/redo ledger errors.
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrUnableRestore = errors.New("unable to restore")
	ErrUnableReapply = errors.New("unable to redo")

	// Board errors.
	ErrLastColumn        = errors.New("last column")
	ErrInvalidColumn     = errors.New("invalid column")
	ErrColumnName        = errors.New("column name is required")
	ErrMissingCandidate  = errors.New("missing candidate")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrInvalidTime       = errors.New("invalid time format")
	ErrBranchRequired    = errors.New("branch is required")

	// Auth errors.
	ErrPasswordRequired = errors.New("password is required")
	ErrInvalidPassword  = errors.New("invalid password")

	// Table/storage errors.
	ErrInvalidTable = errors.New("invalid table")
	ErrInvalidPath  = errors.New("invalid storage path")
	ErrMissingWeek  = errors.New("missing week start")

	// Secure cache errors.
	ErrCacheMiss = errors.New("cache miss")
)
