package domain

import "errors"

var (
	// ErrProblemNotFound is returned when a problem bundle is missing or incomplete.
	ErrProblemNotFound = errors.New("problem not found")
	// ErrIndexNotFound is returned when no active index has been persisted yet.
	ErrIndexNotFound = errors.New("problem index not found")
	// ErrIndexCorrupt indicates the persisted index record could not be parsed.
	ErrIndexCorrupt = errors.New("problem index corrupt")
	// ErrInvalidIndex indicates a problem index below 1.
	ErrInvalidIndex = errors.New("invalid problem index")
)
