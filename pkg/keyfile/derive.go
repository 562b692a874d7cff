package keyfile

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	DefaultIterations    uint64 = 1 << 15
	DefaultRelBlockSize  uint8  = 8
	DefaultCpuCost       uint8  = 1
	SaltSize                    = 16
	derivedKeySize              = 1
	minRelativeBlockSize uint8  = 1
)

var (
	ErrEmptyPassphrase = errors.New("cannot use an empty passphrase")
)

// Salt is a slice of secure random bytes that is used with scrypt to derive a key from a passphrase.
type Salt [SaltSize]byte

// KeyGenerator derives key bytes from passphrases with scrypt.
type KeyGenerator struct {
	iterations        uint64
	relativeBlockSize uint8
	cpuCost           uint8
}

type GeneratorOpt = func(*KeyGenerator) error

// SetIterations allows the caller to customize the iteration count.
func SetIterations(iterations uint64) GeneratorOpt {
	return func(gen *KeyGenerator) error {
		if iterations <= 1 {
			return errors.New("iterations cannot be <= 1")
		}
		if iterations&(iterations-1) != 0 {
			return errors.New("iterations must be a power of 2")
		}
		gen.iterations = iterations
		return nil
	}
}

// SetCPUCost sets the parallelism factor for key generation from the default of 1.
func SetCPUCost(cost uint8) GeneratorOpt {
	return func(gen *KeyGenerator) error {
		if cost < DefaultCpuCost {
			return errors.New("cpu cost must be at least 1")
		}
		gen.cpuCost = cost
		return nil
	}
}

// SetRelativeBlockSize sets the relative block size.
func SetRelativeBlockSize(size uint8) GeneratorOpt {
	return func(gen *KeyGenerator) error {
		if size < minRelativeBlockSize {
			return errors.New("relative block size must be at least 1")
		}
		gen.relativeBlockSize = size
		return nil
	}
}

// NewKeyGenerator creates a new KeyGenerator using the options provided as zero or more GeneratorOpt.
func NewKeyGenerator(opts ...GeneratorOpt) (*KeyGenerator, error) {
	gen := &KeyGenerator{
		iterations:        DefaultIterations,
		relativeBlockSize: DefaultRelBlockSize,
		cpuCost:           DefaultCpuCost,
	}

	for _, opt := range opts {
		if err := opt(gen); err != nil {
			return nil, err
		}
	}
	return gen, nil
}

// NewSalt reads a Salt from the OS entropy pool.
func NewSalt() (Salt, error) {
	var salt Salt
	if _, err := rand.Read(salt[:]); err != nil {
		return salt, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// Derive returns the key byte for the given passphrase and salt.
func (g *KeyGenerator) Derive(pass []byte, salt Salt) (byte, error) {
	if len(pass) == 0 {
		return 0, ErrEmptyPassphrase
	}
	key, err := scrypt.Key(pass, salt[:], int(g.iterations), int(g.relativeBlockSize), int(g.cpuCost), derivedKeySize)
	if err != nil {
		return 0, err
	}
	return key[0], nil
}
