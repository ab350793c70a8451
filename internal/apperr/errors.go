package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")

	// ErrDimensionMismatch is returned by vector operations when the two
	// operands have different lengths.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrSuperseded is returned when an answer completes after a newer
	// question has already been issued on the same engine.
	ErrSuperseded = errors.New("superseded by a newer question")
)
