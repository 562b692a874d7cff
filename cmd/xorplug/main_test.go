package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/saylorsolutions/xorplug/cmd/internal"
	"github.com/saylorsolutions/xorplug/pkg/keyfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var guestFixture = filepath.Join("..", "..", "pkg", "host", "testdata", "xorplug.wasm")

func captureStderr(t *testing.T) *strings.Builder {
	t.Helper()
	var buf strings.Builder
	orig := internal.Stderr
	internal.Stderr = &buf
	t.Cleanup(func() {
		internal.Stderr = orig
	})
	return &buf
}

func writeInput(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.bin")
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	assert.NoError(t, run(context.Background(), nil, &out))
	assert.Contains(t, out.String(), "USAGE:")

	out.Reset()
	err := run(context.Background(), []string{"bogus"}, &out)
	assert.ErrorIs(t, err, errUsage)

	out.Reset()
	assert.NoError(t, run(context.Background(), []string{"version"}, &out))
	assert.Equal(t, version+"\n", out.String())
}

func TestApply_Encrypt(t *testing.T) {
	captureStderr(t)
	input := writeInput(t, []byte{0x10, 0x20})
	var out bytes.Buffer
	err := run(context.Background(), []string{"apply", "-k", "010205", input}, &out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x15, 0x25}, out.Bytes())
}

func TestApply_EncryptVerbose(t *testing.T) {
	stderr := captureStderr(t)
	input := writeInput(t, []byte{0x10, 0x20})
	var out bytes.Buffer
	err := run(context.Background(), []string{"apply", "-v", "-k", "05", input}, &out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x15, 0x25}, out.Bytes())
	assert.Contains(t, stderr.String(), "Screened input stream natively")
	assert.Contains(t, stderr.String(), "bytes=2")
	assert.NotContains(t, stderr.String(), "export=encrypt_with_key", "the stream never calls the export")
}

func TestApply_Entry(t *testing.T) {
	captureStderr(t)
	input := writeInput(t, []byte{0x10, 0x20, 0x05})
	var out bytes.Buffer
	err := run(context.Background(), []string{"apply", "--mode", "entry", input}, &out)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x15, 0x25, 0x05}, out.Bytes())
}

func TestApply_OutputFile(t *testing.T) {
	captureStderr(t)
	data := []byte("round trip through a file")
	input := writeInput(t, data)
	screened := filepath.Join(t.TempDir(), "screened.bin")
	restored := filepath.Join(t.TempDir(), "restored.bin")

	require.NoError(t, run(context.Background(), []string{"apply", "-k", "5a", "-o", screened, input}, &bytes.Buffer{}))
	require.NoError(t, run(context.Background(), []string{"apply", "-k", "0x5a", "-o", restored, screened}, &bytes.Buffer{}))

	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestApply_KeyFile(t *testing.T) {
	stderr := captureStderr(t)
	keyPath := filepath.Join(t.TempDir(), "plugin.key")
	require.NoError(t, run(context.Background(), []string{"keygen", keyPath}, &bytes.Buffer{}))
	assert.Contains(t, stderr.String(), "Wrote key")

	kf, err := keyfile.Load(keyPath)
	require.NoError(t, err)

	input := writeInput(t, []byte{0x00, 0x00})
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"apply", "--key-file", keyPath, input}, &out))
	assert.Equal(t, []byte{kf.Key(), kf.Key()}, out.Bytes())
}

func TestKeygen_Passphrase(t *testing.T) {
	captureStderr(t)
	keyPath := filepath.Join(t.TempDir(), "plugin.key")
	err := run(context.Background(), []string{"keygen", "--passphrase", "hunter2", "--update-key-on-entry", keyPath}, &bytes.Buffer{})
	require.NoError(t, err)

	kf, err := keyfile.Load(keyPath)
	require.NoError(t, err)
	assert.True(t, kf.UpdatesKeyOnEntry())
	gen, err := keyfile.NewKeyGenerator()
	require.NoError(t, err)
	assert.True(t, kf.Verify(gen, []byte("hunter2")))
}

func TestApply_Neg(t *testing.T) {
	captureStderr(t)
	input := writeInput(t, []byte{0x1})
	tests := map[string][]string{
		"no file":        {"apply", "-k", "01"},
		"no key":         {"apply", input},
		"bad mode":       {"apply", "-m", "decrypt", "-k", "01", input},
		"both keys":      {"apply", "-k", "01", "--key-file", "x.key", input},
		"bad flag":       {"apply", "--nope", input},
		"keygen no args": {"keygen"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			err := run(context.Background(), args, &bytes.Buffer{})
			assert.ErrorIs(t, err, errUsage)
		})
	}

	err := run(context.Background(), []string{"apply", "-k", "zz", input}, &bytes.Buffer{})
	assert.Error(t, err)
	err = run(context.Background(), []string{"apply", "-k", "01", filepath.Join(t.TempDir(), "missing")}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestApply_Guest(t *testing.T) {
	if _, err := os.Stat(guestFixture); err != nil {
		t.Skipf("guest fixture unavailable: %v", err)
	}
	captureStderr(t)
	input := writeInput(t, []byte{0x10, 0x20, 0x05})

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"apply", "-p", guestFixture, "-m", "entry", input}, &out))
	assert.Equal(t, []byte{0x15, 0x25, 0x05}, out.Bytes())

	out.Reset()
	require.NoError(t, run(context.Background(), []string{"apply", "-p", guestFixture, "-k", "05", input}, &out))
	assert.Equal(t, []byte{0x15, 0x25, 0x00}, out.Bytes())
}
