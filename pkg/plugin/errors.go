package plugin

import "errors"

var (
	ErrOutOfBounds   = errors.New("buffer out of bounds")
	ErrUnknownExport = errors.New("unknown export")
	ErrNilMemory     = errors.New("nil memory")
)
