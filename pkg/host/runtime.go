package host

import (
	"context"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// reactorInit is the start function of a guest built with -buildmode=c-shared.
const reactorInit = "_initialize"

// Runtime compiles and instantiates guests.
type Runtime struct {
	rt  wazero.Runtime
	cfg *config
}

// NewRuntime creates a Runtime with WASI preview 1 available to guests.
func NewRuntime(ctx context.Context, opts ...Opt) (*Runtime, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	return &Runtime{
		rt:  rt,
		cfg: cfg,
	}, nil
}

// Load compiles and instantiates the guest in wasm.
func (r *Runtime) Load(ctx context.Context, wasm []byte) (*Plugin, error) {
	compiled, err := r.rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to compile guest: %w", err)
	}
	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStdout(r.cfg.stdout).
		WithStderr(r.cfg.stderr).
		WithStartFunctions(reactorInit)
	for k, v := range r.cfg.env {
		modCfg = modCfg.WithEnv(k, v)
	}
	mod, err := r.rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate guest: %w", err)
	}
	p, err := newPlugin(&wazeroInstance{mod: mod}, r.cfg.log)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	r.cfg.log.Debug("Loaded guest", "exports", p.exports())
	return p, nil
}

// LoadFile reads the guest at path and loads it.
func (r *Runtime) LoadFile(ctx context.Context, path string) (*Plugin, error) {
	wasm, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := r.Load(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to load '%s': %w", path, err)
	}
	return p, nil
}

// Close releases every guest loaded by this Runtime.
func (r *Runtime) Close(ctx context.Context) error {
	return r.rt.Close(ctx)
}
