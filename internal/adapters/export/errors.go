package export

import "errors"

// Sentinel kinds for export errors.
var (
	ErrWrite         = errors.New("write export")
	ErrUnknownFormat = errors.New("unknown export format")
	ErrChart         = errors.New("render chart")
)
