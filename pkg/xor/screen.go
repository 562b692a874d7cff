package xor

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyKey    = errors.New("cannot use empty key")
	ErrKeyOffset   = errors.New("key offset out of range")
	ErrKeyGenerate = errors.New("failed to generate key")
)

// Apply will XOR every byte of data with key, in place and in index order.
// An empty slice is left untouched.
func Apply(data []byte, key byte) {
	for i := range data {
		data[i] ^= key
	}
}

type ring struct {
	key  []byte
	init int
	cur  int
}

func newRing(key []byte, offset ...int) (*ring, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	r := &ring{
		key: key,
	}
	if len(offset) > 0 {
		if offset[0] < 0 || offset[0] >= len(key) {
			return nil, fmt.Errorf("%w: offset %d for key of len %d", ErrKeyOffset, offset[0], len(key))
		}
		r.init = offset[0]
		r.cur = r.init
	}
	return r, nil
}

func (r *ring) apply(data []byte) {
	if len(r.key) == 1 {
		Apply(data, r.key[0])
		return
	}
	for i := range data {
		data[i] ^= r.key[r.cur]
		r.cur = (r.cur + 1) % len(r.key)
	}
}

func (r *ring) reset() {
	r.cur = r.init
}
