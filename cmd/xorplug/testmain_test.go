package main

import (
	"fmt"
	"os"
	"testing"

	"github.com/saylorsolutions/xorplug/internal/guestbuild"
)

func TestMain(m *testing.M) {
	path, cleanup, err := guestbuild.EnsureFixture(guestFixture)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Guest tests will skip: %v\n", err)
	} else {
		guestFixture = path
	}
	code := m.Run()
	if cleanup != nil {
		cleanup()
	}
	os.Exit(code)
}
