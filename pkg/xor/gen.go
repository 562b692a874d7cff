package xor

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// GenKey will generate an XOR key with the given length.
func GenKey(length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: asked to generate a %d-length key", ErrKeyGenerate, length)
	}
	buf := make([]byte, length)
	n, err := rand.Read(buf)
	if n < length {
		return nil, fmt.Errorf("%w: failed to read requested bytes: %v", ErrKeyGenerate, err)
	}
	return buf, nil
}

// GenKeyByte generates a single key byte, as used by the plugin exports.
// Zero is skipped since it would leave data unchanged.
func GenKeyByte() (byte, error) {
	for {
		key, err := GenKey(1)
		if err != nil {
			return 0, err
		}
		if key[0] != 0 {
			return key[0], nil
		}
	}
}

func GenKeyAndOffset(length int) ([]byte, int, error) {
	key, err := GenKey(length)
	if err != nil {
		return nil, 0, err
	}
	buf := make([]byte, 4)
	_, err = rand.Read(buf)
	if err != nil {
		return nil, 0, err
	}
	return key, int(binary.BigEndian.Uint32(buf)) % length, nil
}
