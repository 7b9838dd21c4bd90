package errors

import "errors"

var (
	ErrNotFound = errors.New("pagamento not found")
)
