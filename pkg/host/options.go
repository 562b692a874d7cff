package host

import (
	"fmt"
	"io"
	"log/slog"
)

type config struct {
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
	env    map[string]string
}

func defaultConfig() *config {
	return &config{
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		stdout: io.Discard,
		stderr: io.Discard,
		env:    map[string]string{},
	}
}

// Opt configures a Runtime.
// If any Opt returns an error, then NewRuntime returns it.
type Opt = func(c *config) error

// WithLogger sets the logger for host diagnostics.
func WithLogger(log *slog.Logger) Opt {
	return func(c *config) error {
		if log == nil {
			return fmt.Errorf("nil logger")
		}
		c.log = log
		return nil
	}
}

// WithGuestStdout forwards guest stdout to w. Guest output is discarded by default.
func WithGuestStdout(w io.Writer) Opt {
	return func(c *config) error {
		c.stdout = w
		return nil
	}
}

// WithGuestStderr forwards guest stderr to w. Guest output is discarded by default.
func WithGuestStderr(w io.Writer) Opt {
	return func(c *config) error {
		c.stderr = w
		return nil
	}
}

// WithGuestEnv sets an environment variable visible to every guest loaded by the Runtime it configures.
func WithGuestEnv(key, value string) Opt {
	return func(c *config) error {
		if len(key) == 0 {
			return fmt.Errorf("empty environment variable name")
		}
		c.env[key] = value
		return nil
	}
}
