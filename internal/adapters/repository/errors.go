package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound      = errors.New("analysis not found")
	ErrInvalidLimit  = errors.New("invalid list limit")
	ErrInvalidRecord = errors.New("invalid analysis record")
	ErrDuplicate     = errors.New("analysis already exists")
)
