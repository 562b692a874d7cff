package host

import (
	"errors"

	"github.com/saylorsolutions/xorplug/pkg/plugin"
)

var (
	ErrOutOfBounds   = plugin.ErrOutOfBounds
	ErrUnknownExport = plugin.ErrUnknownExport
	ErrNoMemory      = errors.New("guest does not export memory")
	ErrAlloc         = errors.New("guest allocation failed")
	ErrClosed        = errors.New("plugin closed")
	ErrResult        = errors.New("unexpected export result")
	ErrArgType       = errors.New("unsupported argument type")
)
