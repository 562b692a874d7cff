package xor

import (
	"io"
)

// Reader extends io.Reader, but also provides a way to reuse a key with a different source.
type Reader interface {
	io.Reader
	// Reset will use the provided io.Reader and reset the offset position within the key to its initial value.
	Reset(source io.Reader)
}

// Writer extends io.Writer, but also provides a way to reuse a key with a different target.
type Writer interface {
	io.Writer
	// Reset will use the provided io.Writer and reset the offset position within the key to its initial value.
	Reset(target io.Writer)
}

var _ Reader = (*reader)(nil)

type reader struct {
	source io.Reader
	ring   *ring
}

func (r *reader) Read(out []byte) (n int, err error) {
	n, err = r.source.Read(out)
	r.ring.apply(out[:n])
	return n, err
}

func (r *reader) Reset(source io.Reader) {
	r.source = source
	r.ring.reset()
}

// NewReader constructs a new Reader that will XOR all bytes read with the provided key, starting at offset.
func NewReader(r io.Reader, key []byte, offset ...int) (Reader, error) {
	ring, err := newRing(key, offset...)
	if err != nil {
		return nil, err
	}
	return &reader{
		source: r,
		ring:   ring,
	}, nil
}

var _ Writer = (*writer)(nil)

type writer struct {
	target io.Writer
	ring   *ring
	buf    []byte
}

// NewWriter constructs a new Writer that will XOR all bytes written with the provided key, starting at offset.
// The caller's slice is never modified.
func NewWriter(target io.Writer, key []byte, offset ...int) (Writer, error) {
	ring, err := newRing(key, offset...)
	if err != nil {
		return nil, err
	}
	return &writer{
		target: target,
		ring:   ring,
	}, nil
}

func (w *writer) Write(in []byte) (n int, err error) {
	w.buf = append(w.buf[:0], in...)
	w.ring.apply(w.buf)
	return w.target.Write(w.buf)
}

func (w *writer) Reset(target io.Writer) {
	w.target = target
	w.ring.reset()
}
