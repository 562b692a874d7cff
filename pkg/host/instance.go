package host

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

const (
	exportMemory = "memory"
	exportAlloc  = "alloc"
	exportFree   = "free"
)

// memory is the part of a guest's linear memory the host needs.
type memory interface {
	Size() uint32
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
}

// instance is a single instantiated guest.
type instance interface {
	Memory() memory
	HasExport(name string) bool
	Call(ctx context.Context, name string, params ...uint64) ([]uint64, error)
	Close(ctx context.Context) error
}

var _ instance = (*wazeroInstance)(nil)

type wazeroInstance struct {
	mod api.Module
}

func (i *wazeroInstance) Memory() memory {
	mem := i.mod.ExportedMemory(exportMemory)
	if mem == nil {
		return nil
	}
	return mem
}

func (i *wazeroInstance) HasExport(name string) bool {
	return i.mod.ExportedFunction(name) != nil
}

func (i *wazeroInstance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := i.mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExport, name)
	}
	return fn.Call(ctx, params...)
}

func (i *wazeroInstance) Close(ctx context.Context) error {
	return i.mod.Close(ctx)
}
