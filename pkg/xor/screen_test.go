package xor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApply(t *testing.T) {
	data := []byte{0x10, 0x20}
	Apply(data, 0x05)
	assert.Equal(t, []byte{0x15, 0x25}, data)

	Apply(data, 0x05)
	assert.Equal(t, []byte{0x10, 0x20}, data, "XOR must be self-inverse")

	var empty []byte
	Apply(empty, 0xff)
	assert.Empty(t, empty)
}

func TestNewRingNeg(t *testing.T) {
	_, err := newRing(nil)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, err = newRing([]byte{0}, -1)
	assert.ErrorIs(t, err, ErrKeyOffset)
	_, err = newRing([]byte{0}, 1)
	assert.ErrorIs(t, err, ErrKeyOffset)
	_, err = newRing([]byte{0}, 2)
	assert.ErrorIs(t, err, ErrKeyOffset)
}

func TestRing_SingleByteMatchesApply(t *testing.T) {
	r, err := newRing([]byte{0x5a})
	assert.NoError(t, err)

	got := []byte("some plain text")
	want := []byte("some plain text")
	r.apply(got)
	Apply(want, 0x5a)
	assert.Equal(t, want, got)
}

func TestRing_Offset(t *testing.T) {
	r, err := newRing([]byte{0x1, 0x2, 0x3}, 2)
	assert.NoError(t, err)
	data := make([]byte, 4)
	r.apply(data)
	assert.Equal(t, []byte{0x3, 0x1, 0x2, 0x3}, data)

	r.reset()
	data = make([]byte, 1)
	r.apply(data)
	assert.Equal(t, []byte{0x3}, data)
}
