package store

import "errors"

var (
	ErrNotFound = errors.New("goal not found")
)
