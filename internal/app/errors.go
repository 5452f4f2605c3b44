package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrReadOnly        = errors.New("badge log is read-only")
	ErrInvalidBadge    = errors.New("invalid badge")
	ErrInvalidArgument = errors.New("invalid argument")
)
