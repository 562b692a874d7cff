package host

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/saylorsolutions/xorplug/pkg/plugin"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"
)

type fakeMemory struct {
	plugin.SliceMemory
}

func (m *fakeMemory) Write(offset uint32, v []byte) bool {
	buf, ok := m.SliceMemory.Read(offset, uint32(len(v)))
	if !ok {
		return false
	}
	copy(buf, v)
	return true
}

// fakeGuest runs the plugin exports natively over an in-memory linear memory.
type fakeGuest struct {
	mem      *fakeMemory
	plug     *plugin.Plugin
	withHeap bool
	growable bool
	next     uint32
	allocs   map[uint32]uint32
	frees    int
	calls    []string
	closed   bool
	failCall error
}

var _ instance = (*fakeGuest)(nil)

func newFakeGuest(t *testing.T, size int, withHeap bool, opts ...plugin.Opt) *fakeGuest {
	t.Helper()
	p, err := plugin.New(opts...)
	require.NoError(t, err)
	return &fakeGuest{
		mem:      &fakeMemory{SliceMemory: make(plugin.SliceMemory, size)},
		plug:     p,
		withHeap: withHeap,
		next:     16,
		allocs:   map[uint32]uint32{},
	}
}

func (g *fakeGuest) Memory() memory {
	if g.mem == nil {
		return nil
	}
	return g.mem
}

func (g *fakeGuest) HasExport(name string) bool {
	switch name {
	case plugin.ExportSetKey, plugin.ExportEncryptWithKey, plugin.ExportEntry, plugin.ExportGetKey:
		return true
	case exportAlloc, exportFree:
		return g.withHeap
	}
	return false
}

func (g *fakeGuest) Call(_ context.Context, name string, params ...uint64) ([]uint64, error) {
	g.calls = append(g.calls, name)
	if g.failCall != nil {
		return nil, g.failCall
	}
	switch name {
	case exportAlloc:
		size := api.DecodeU32(params[0])
		if uint64(g.next)+uint64(size) > uint64(g.mem.Size()) {
			if !g.growable {
				return []uint64{0}, nil
			}
			grown := make(plugin.SliceMemory, g.next+size)
			copy(grown, g.mem.SliceMemory)
			g.mem.SliceMemory = grown
		}
		ptr := g.next
		g.next += size
		g.allocs[ptr] = size
		return []uint64{api.EncodeU32(ptr)}, nil
	case exportFree:
		ptr := api.DecodeU32(params[0])
		if _, ok := g.allocs[ptr]; !ok {
			return nil, fmt.Errorf("double free of %d", ptr)
		}
		delete(g.allocs, ptr)
		g.frees++
		return nil, nil
	case plugin.ExportGetKey:
		if len(params) != 0 {
			return nil, errors.New("wrong param count")
		}
		return []uint64{api.EncodeI32(int32(g.plug.Key()))}, nil
	}
	if len(params) != 2 {
		return nil, errors.New("wrong param count")
	}
	return nil, g.plug.Invoke(name, g.mem, api.DecodeU32(params[0]), api.DecodeU32(params[1]))
}

func (g *fakeGuest) Close(context.Context) error {
	g.closed = true
	return nil
}
