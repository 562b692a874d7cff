package host

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/saylorsolutions/xorplug/pkg/plugin"
	"github.com/tetratelabs/wazero/api"
)

// legacyOffset is where buffers go for guests that don't export alloc.
const legacyOffset uint32 = 0

// Plugin is a loaded guest instance.
type Plugin struct {
	mu     sync.Mutex
	inst   instance
	mem    memory
	log    *slog.Logger
	closed bool
}

func newPlugin(inst instance, log *slog.Logger) (*Plugin, error) {
	mem := inst.Memory()
	if mem == nil {
		return nil, ErrNoMemory
	}
	return &Plugin{
		inst: inst,
		mem:  mem,
		log:  log,
	}, nil
}

func (p *Plugin) exports() []string {
	var names []string
	for _, name := range plugin.Exports {
		if p.inst.HasExport(name) {
			names = append(names, name)
		}
	}
	for _, name := range []string{plugin.ExportGetKey, exportAlloc, exportFree} {
		if p.inst.HasExport(name) {
			names = append(names, name)
		}
	}
	return names
}

// Call copies data into guest memory, invokes the named export with its pointer and length, and returns the buffer as the guest left it.
// data is never modified.
func (p *Plugin) Call(ctx context.Context, name string, data []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrClosed
	}
	if !p.inst.HasExport(name) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExport, name)
	}
	if len(data) == 0 {
		if _, err := p.inst.Call(ctx, name, 0, 0); err != nil {
			return nil, fmt.Errorf("failed to call %s: %w", name, err)
		}
		return []byte{}, nil
	}
	if uint64(len(data)) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %d bytes exceeds the 32-bit address space", ErrOutOfBounds, len(data))
	}
	length := uint32(len(data))

	ptr, release, err := p.alloc(ctx, length)
	if err != nil {
		return nil, err
	}
	defer release()

	if !p.mem.Write(ptr, data) {
		return nil, fmt.Errorf("%w: ptr %d len %d exceeds guest memory size %d", ErrOutOfBounds, ptr, length, p.mem.Size())
	}
	if _, err := p.inst.Call(ctx, name, api.EncodeU32(ptr), api.EncodeU32(length)); err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", name, err)
	}
	out, ok := p.mem.Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("%w: ptr %d len %d exceeds guest memory size %d", ErrOutOfBounds, ptr, length, p.mem.Size())
	}
	p.log.Debug("Called guest export", "export", name, "ptr", ptr, "len", length)
	return append([]byte(nil), out...), nil
}

func (p *Plugin) alloc(ctx context.Context, length uint32) (ptr uint32, release func(), err error) {
	if !p.inst.HasExport(exportAlloc) {
		// Without alloc the guest can't grow its memory for us.
		if uint64(legacyOffset)+uint64(length) > uint64(p.mem.Size()) {
			return 0, nil, fmt.Errorf("%w: %d bytes exceeds guest memory size %d", ErrOutOfBounds, length, p.mem.Size())
		}
		return legacyOffset, func() {}, nil
	}
	res, err := p.inst.Call(ctx, exportAlloc, api.EncodeU32(length))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrAlloc, err)
	}
	if len(res) == 0 {
		return 0, nil, fmt.Errorf("%w: alloc returned no pointer", ErrAlloc)
	}
	ptr = api.DecodeU32(res[0])
	if ptr == 0 {
		return 0, nil, fmt.Errorf("%w: alloc returned a null pointer for %d bytes", ErrAlloc, length)
	}
	release = func() {
		if !p.inst.HasExport(exportFree) {
			return
		}
		if _, err := p.inst.Call(ctx, exportFree, api.EncodeU32(ptr), api.EncodeU32(length)); err != nil {
			p.log.Warn("Failed to free guest buffer", "ptr", ptr, "len", length, "error", err)
		}
	}
	return ptr, release, nil
}

// SetKey calls set_key, storing the last byte of data as the guest's key.
func (p *Plugin) SetKey(ctx context.Context, data []byte) error {
	_, err := p.Call(ctx, plugin.ExportSetKey, data)
	return err
}

// EncryptWithKey calls encrypt_with_key, returning data XORed with the guest's stored key.
func (p *Plugin) EncryptWithKey(ctx context.Context, data []byte) ([]byte, error) {
	return p.Call(ctx, plugin.ExportEncryptWithKey, data)
}

// Entry calls plugin_entry, returning data with all but the last byte XORed with the last byte.
func (p *Plugin) Entry(ctx context.Context, data []byte) ([]byte, error) {
	return p.Call(ctx, plugin.ExportEntry, data)
}

// CallScalar invokes an export that takes and returns i32 values directly, without touching guest memory.
// The export must return exactly one value.
func (p *Plugin) CallScalar(ctx context.Context, name string, args ...int32) (int32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, ErrClosed
	}
	if !p.inst.HasExport(name) {
		return 0, fmt.Errorf("%w: %q", ErrUnknownExport, name)
	}
	params := make([]uint64, len(args))
	for i, arg := range args {
		params[i] = api.EncodeI32(arg)
	}
	res, err := p.inst.Call(ctx, name, params...)
	if err != nil {
		return 0, fmt.Errorf("failed to call %s: %w", name, err)
	}
	if len(res) != 1 {
		return 0, fmt.Errorf("%w: %s returned %d values, expected 1", ErrResult, name, len(res))
	}
	return api.DecodeI32(res[0]), nil
}

// Key calls get_key, returning the guest's stored key.
func (p *Plugin) Key(ctx context.Context) (byte, error) {
	key, err := p.CallScalar(ctx, plugin.ExportGetKey)
	if err != nil {
		return 0, err
	}
	return byte(key), nil
}

// Close releases the guest instance. Calls after Close return ErrClosed.
func (p *Plugin) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.inst.Close(ctx)
}
