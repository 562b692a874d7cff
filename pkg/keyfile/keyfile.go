package keyfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	bin "github.com/saylorsolutions/binmap"
	"github.com/saylorsolutions/xorplug/pkg/xor"
)

const (
	magic          uint64 = 0x786f72706c756701
	CurrentVersion uint8  = 1

	flagUpdateKeyOnEntry uint8 = 1 << 0
)

var (
	ErrInvalidHeader      = errors.New("invalid key file header")
	ErrUnsupportedVersion = errors.New("unsupported key file version")
	endian                = binary.BigEndian
)

// KeyFile is the persisted form of a plugin key and its options.
type KeyFile struct {
	magic   uint64
	version uint8
	flags   uint8
	key     uint8
	salt    Salt
}

func (k *KeyFile) mapper() bin.Mapper {
	mappers := []bin.Mapper{
		bin.Int(&k.magic),
		bin.Byte(&k.version),
		bin.Byte(&k.flags),
		bin.Byte(&k.key),
	}
	for i := range k.salt {
		mappers = append(mappers, bin.Byte(&k.salt[i]))
	}
	return bin.MapSequence(mappers...)
}

type Opt = func(k *KeyFile) error

// UpdateKeyOnEntry records that the plugin_entry export should also store its derived key.
func UpdateKeyOnEntry(val ...bool) Opt {
	return func(k *KeyFile) error {
		if len(val) > 0 && !val[0] {
			k.flags &^= flagUpdateKeyOnEntry
			return nil
		}
		k.flags |= flagUpdateKeyOnEntry
		return nil
	}
}

// New creates a KeyFile holding the given key.
func New(key byte, opts ...Opt) (*KeyFile, error) {
	k := &KeyFile{
		magic:   magic,
		version: CurrentVersion,
		key:     key,
	}
	for _, opt := range opts {
		if err := opt(k); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// Generate creates a KeyFile with a random, non-zero key.
func Generate(opts ...Opt) (*KeyFile, error) {
	key, err := xor.GenKeyByte()
	if err != nil {
		return nil, err
	}
	return New(key, opts...)
}

// FromPassphrase creates a KeyFile with a key derived from pass and a fresh salt.
func FromPassphrase(gen *KeyGenerator, pass []byte, opts ...Opt) (*KeyFile, error) {
	salt, err := NewSalt()
	if err != nil {
		return nil, err
	}
	key, err := gen.Derive(pass, salt)
	if err != nil {
		return nil, err
	}
	k, err := New(key, opts...)
	if err != nil {
		return nil, err
	}
	k.salt = salt
	return k, nil
}

// Key returns the stored key byte.
func (k *KeyFile) Key() byte {
	return k.key
}

// Salt returns the salt used to derive the key, which is all zeroes if the key wasn't derived.
func (k *KeyFile) Salt() Salt {
	return k.salt
}

// UpdatesKeyOnEntry reports whether the update key on entry flag is set.
func (k *KeyFile) UpdatesKeyOnEntry() bool {
	return k.flags&flagUpdateKeyOnEntry != 0
}

// Verify reports whether pass derives the stored key with the stored salt.
// With a single byte key, roughly 1 in 256 wrong passphrases will also match.
func (k *KeyFile) Verify(gen *KeyGenerator, pass []byte) bool {
	key, err := gen.Derive(pass, k.salt)
	if err != nil {
		return false
	}
	return key == k.key
}

func (k *KeyFile) Write(w io.Writer) error {
	return k.mapper().Write(w, endian)
}

// Read populates k from r, validating the header.
func (k *KeyFile) Read(r io.Reader) error {
	var tmp KeyFile
	if err := tmp.mapper().Read(r, endian); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if tmp.magic != magic {
		return fmt.Errorf("%w: bad magic 0x%016x", ErrInvalidHeader, tmp.magic)
	}
	if tmp.version != CurrentVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, tmp.version)
	}
	*k = tmp
	return nil
}

// Save writes k to the file at path, which is created with owner-only permissions.
func (k *KeyFile) Save(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if err := k.Write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Load reads a KeyFile from the file at path.
func Load(path string) (*KeyFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()
	k := new(KeyFile)
	if err := k.Read(f); err != nil {
		return nil, fmt.Errorf("failed to load key file '%s': %w", path, err)
	}
	return k, nil
}
