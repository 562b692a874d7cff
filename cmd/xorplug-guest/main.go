//go:build wasip1

// Command xorplug-guest is the xorplug WASM guest.
//
// Build it as a reactor so the host can call exports after initialization:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o xorplug.wasm ./cmd/xorplug-guest
package main

import (
	"log/slog"
	"os"
	"unsafe"

	"github.com/saylorsolutions/xorplug/pkg/plugin"
)

var (
	plug   = mustPlugin()
	pinned = map[uint32][]byte{}
)

func mustPlugin() *plugin.Plugin {
	var opts []plugin.Opt
	if len(os.Getenv(plugin.UpdateKeyOnEntryEnv)) > 0 {
		opts = append(opts, plugin.UpdateKeyOnEntry())
	}
	if len(os.Getenv(plugin.DebugEnv)) > 0 {
		log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		opts = append(opts, plugin.WithLogger(log))
	}
	p, err := plugin.New(opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// buffer turns a host supplied pointer and length into a slice of linear memory.
// The host is trusted to pass a range it allocated.
func buffer(ptr, length uint32) []byte {
	if length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), length)
}

//go:wasmexport set_key
func setKey(ptr, length uint32) {
	plug.SetKey(buffer(ptr, length))
}

//go:wasmexport encrypt_with_key
func encryptWithKey(ptr, length uint32) {
	plug.EncryptWithKey(buffer(ptr, length))
}

//go:wasmexport plugin_entry
func pluginEntry(ptr, length uint32) {
	plug.Entry(buffer(ptr, length))
}

//go:wasmexport get_key
func getKey() int32 {
	return int32(plug.Key())
}

//go:wasmexport alloc
func alloc(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	buf := make([]byte, size)
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))
	pinned[ptr] = buf
	return ptr
}

//go:wasmexport free
func free(ptr, _ uint32) {
	delete(pinned, ptr)
}

func main() {}
