package domain

import "errors"

var (
	ErrDuplicateSession = errors.New("session already exists")
	ErrModelNotAllowed  = errors.New("model not allowed")
	ErrMissingConfig    = errors.New("missing required configuration")
	ErrInvalidForm      = errors.New("invalid form request")
	ErrNotLoggedIn      = errors.New("not logged in")
)
