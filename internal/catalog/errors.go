package catalog

import "errors"

var (
	ErrNotFound    = errors.New("track not found")
	ErrEmpty       = errors.New("registry has no tracks")
	ErrDuplicateID = errors.New("duplicate track id")
)
