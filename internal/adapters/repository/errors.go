package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrRead   = errors.New("read badge log")
	ErrAppend = errors.New("append badge")
)
