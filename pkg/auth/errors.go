package auth

import "errors"

var (
	ErrInvalidSession = errors.New("invalid session")
	ErrStateNotFound  = errors.New("state not found")
)
