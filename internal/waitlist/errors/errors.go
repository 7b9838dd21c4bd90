package errors

import "errors"

var (
	ErrNotFound  = errors.New("fila de espera not found")
	ErrInvalidID = errors.New("invalid fila de espera ID format")
)
