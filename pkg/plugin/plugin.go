package plugin

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/saylorsolutions/xorplug/pkg/xor"
)

// Export names exposed across the host/guest boundary.
const (
	ExportSetKey         = "set_key"
	ExportEncryptWithKey = "encrypt_with_key"
	ExportEntry          = "plugin_entry"

	// ExportGetKey takes no buffer and returns the stored key as an i32.
	ExportGetKey = "get_key"
)

// Environment variables read by the WASM guest when it initializes.
// Any non-empty value enables the setting.
const (
	DebugEnv            = "XORPLUG_DEBUG"
	UpdateKeyOnEntryEnv = "XORPLUG_UPDATE_KEY_ON_ENTRY"
)

// Exports lists every export name that Invoke accepts.
var Exports = []string{ExportSetKey, ExportEncryptWithKey, ExportEntry}

// Plugin owns the XOR key used across calls.
// The zero value is not usable, use New.
type Plugin struct {
	mu               sync.Mutex
	key              byte
	updateKeyOnEntry bool
	log              *slog.Logger
}

// Opt operates on a Plugin while it's being constructed.
// If any Opt returns an error, then New returns it.
type Opt = func(p *Plugin) error

// UpdateKeyOnEntry controls whether Entry also stores the key it derives.
// This is off by default.
func UpdateKeyOnEntry(val ...bool) Opt {
	return func(p *Plugin) error {
		if len(val) > 0 {
			p.updateKeyOnEntry = val[0]
			return nil
		}
		p.updateKeyOnEntry = true
		return nil
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(log *slog.Logger) Opt {
	return func(p *Plugin) error {
		if log == nil {
			return fmt.Errorf("nil logger")
		}
		p.log = log
		return nil
	}
}

// WithKey sets the initial key, which is otherwise zero.
func WithKey(key byte) Opt {
	return func(p *Plugin) error {
		p.key = key
		return nil
	}
}

// New creates a Plugin with a zero key, configured with zero or more Opt.
func New(opts ...Opt) (*Plugin, error) {
	p := &Plugin{
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Key returns the currently stored key.
func (p *Plugin) Key() byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.key
}

// SetKey stores the last byte of buf as the key.
func (p *Plugin) SetKey(buf []byte) {
	if len(buf) == 0 {
		return
	}
	key := buf[len(buf)-1]
	p.mu.Lock()
	p.key = key
	p.mu.Unlock()
	p.log.Debug("Key set", "export", ExportSetKey, "key", key)
}

// EncryptWithKey XORs every byte of buf in place with the stored key.
func (p *Plugin) EncryptWithKey(buf []byte) {
	if len(buf) == 0 {
		return
	}
	key := p.Key()
	xor.Apply(buf, key)
	p.log.Debug("Buffer screened", "export", ExportEncryptWithKey, "len", len(buf))
}

// Entry uses the last byte of buf as the key and XORs every preceding byte with it.
// The last byte is left as is.
func (p *Plugin) Entry(buf []byte) {
	if len(buf) == 0 {
		return
	}
	last := len(buf) - 1
	key := buf[last]
	xor.Apply(buf[:last], key)
	if p.updateKeyOnEntry {
		p.mu.Lock()
		p.key = key
		p.mu.Unlock()
	}
	p.log.Debug("Entry screened", "export", ExportEntry, "len", last, "key_updated", p.updateKeyOnEntry)
}

// Invoke runs the named export against the buffer at ptr in mem.
// Nothing is read or modified if the buffer doesn't fit in mem.
func (p *Plugin) Invoke(name string, mem Memory, ptr, length uint32) error {
	var fn func([]byte)
	switch name {
	case ExportSetKey:
		fn = p.SetKey
	case ExportEncryptWithKey:
		fn = p.EncryptWithKey
	case ExportEntry:
		fn = p.Entry
	default:
		return fmt.Errorf("%w: %q", ErrUnknownExport, name)
	}
	buf, err := View(mem, ptr, length)
	if err != nil {
		p.log.Warn("Rejected buffer", "export", name, "ptr", ptr, "len", length, "error", err)
		return err
	}
	fn(buf)
	return nil
}
