/*
Package host loads xorplug WASM guests and calls their exports.

The buffer convention is the one every guest export follows: the host places the input bytes in guest linear memory, calls the export with the pointer and length, and reads the same range back since the export mutates it in place.

Guests may export alloc(size) and free(ptr, size) to hand out buffers.
When alloc isn't exported, buffers are written at offset 0 of the guest's memory, which only works for guests that don't keep data there.

Each Plugin is a separate module instance with its own key state.
Calls on one Plugin are serialized, since they share guest memory.
*/
package host

//go:generate env GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o testdata/xorplug.wasm ../../cmd/xorplug-guest
