package inventory

import "errors"

var (
	ErrNotFound    = errors.New("inventory item not found")
	ErrInvalidData = errors.New("invalid data")
	ErrTimeout     = errors.New("timeout")
)
