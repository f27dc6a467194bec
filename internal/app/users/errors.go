package users

import "errors"

var (
	ErrNotFound    = errors.New("user not found")
	ErrInvalidData = errors.New("invalid data")
	ErrTimeout     = errors.New("timeout")
)
