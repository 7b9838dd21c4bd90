package errors

import "errors"

var (
	ErrNotFound  = errors.New("reserva not found")
	ErrInvalidID = errors.New("invalid reserva ID format")
)
