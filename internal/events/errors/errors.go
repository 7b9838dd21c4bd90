package errors

import "errors"

var (
	ErrNotFound = errors.New("evento not found")

	ErrInvalidID = errors.New("invalid evento ID format")
)
