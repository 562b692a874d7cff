// Package guestbuild compiles the xorplug WASM guest for tests that need a real module.
package guestbuild

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const GuestPackage = "github.com/saylorsolutions/xorplug/cmd/xorplug-guest"

// Build compiles the guest as a wasip1 reactor into dir, returning the path to the module.
// The go tool must be on the PATH, and the working directory must be inside this module.
func Build(dir string) (string, error) {
	goBin, err := exec.LookPath("go")
	if err != nil {
		return "", err
	}
	out := filepath.Join(dir, "xorplug.wasm")
	cmd := exec.Command(goBin, "build", "-buildmode=c-shared", "-o", out, GuestPackage)
	cmd.Env = append(os.Environ(), "GOOS=wasip1", "GOARCH=wasm")
	if output, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("failed to build guest: %w\n%s", err, output)
	}
	return out, nil
}

// EnsureFixture returns fixture if it already exists, otherwise it builds the guest into a temporary directory.
// The returned cleanup removes anything Build created.
func EnsureFixture(fixture string) (path string, cleanup func(), err error) {
	if _, err := os.Stat(fixture); err == nil {
		return fixture, func() {}, nil
	}
	dir, err := os.MkdirTemp("", "xorplug-guest")
	if err != nil {
		return "", nil, err
	}
	cleanup = func() {
		_ = os.RemoveAll(dir)
	}
	path, err = Build(dir)
	if err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
