package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/saylorsolutions/xorplug/cmd/internal"
	"github.com/saylorsolutions/xorplug/pkg/host"
	"github.com/saylorsolutions/xorplug/pkg/keyfile"
	"github.com/saylorsolutions/xorplug/pkg/plugin"
	"github.com/saylorsolutions/xorplug/pkg/xor"
	flag "github.com/spf13/pflag"
)

const (
	modeEncrypt = "encrypt"
	modeEntry   = "entry"
)

var (
	version = "dev"

	errUsage = errors.New("usage")
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			internal.Echo("%v", err)
			os.Exit(2)
		}
		internal.Fatal("%v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}
	switch args[0] {
	case "apply":
		return runApply(ctx, args[1:], stdout)
	case "keygen":
		return runKeygen(args[1:], stdout)
	case "version":
		_, err := fmt.Fprintln(stdout, version)
		return err
	case "-h", "--help", "help":
		usage(stdout)
		return nil
	default:
		usage(stdout)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func usage(out io.Writer) {
	_, _ = fmt.Fprint(out, `
xorplug applies the xorplug XOR exports to a file, either natively or through a WASM guest.

USAGE:
    xorplug apply [FLAGS] FILE
    xorplug keygen [FLAGS] OUTPUT
    xorplug version

Run a command with --help to see its flags.

SECURITY:
    This is not encryption, this is obfuscation, and they are very different things!
A single byte XOR key is recovered from a single known plain text byte.
`)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(internal.Stderr, &slog.HandlerOptions{Level: level}))
}

type applyParams struct {
	mode             string
	keyHex           string
	keyFile          string
	pluginPath       string
	output           string
	updateKeyOnEntry bool
	verbose          bool

	keyBuf []byte
	log    *slog.Logger
}

func runApply(ctx context.Context, args []string, stdout io.Writer) error {
	var (
		params   applyParams
		helpFlag bool
	)
	flags := flag.NewFlagSet("apply", flag.ContinueOnError)
	flags.SetOutput(internal.Stderr)
	flags.BoolVarP(&helpFlag, "help", "h", false, "Prints this usage information.")
	flags.StringVarP(&params.mode, "mode", "m", modeEncrypt, "Export to apply, either 'encrypt' (set_key then encrypt_with_key) or 'entry' (plugin_entry, key is the last byte of FILE).")
	flags.StringVarP(&params.keyHex, "key", "k", "", "Key buffer as a hex string. The last byte is used as the key.")
	flags.StringVar(&params.keyFile, "key-file", "", "Key file created with 'xorplug keygen'.")
	flags.StringVarP(&params.pluginPath, "plugin", "p", "", "WASM guest to run the export in. The export runs natively if not set.")
	flags.StringVarP(&params.output, "output", "o", "", "Output file. Defaults to stdout.")
	flags.BoolVar(&params.updateKeyOnEntry, "update-key-on-entry", false, "Store the key derived by plugin_entry as the plugin key.")
	flags.BoolVarP(&params.verbose, "verbose", "v", false, "Enables debug logging.")
	flags.Usage = func() {
		_, _ = fmt.Fprintf(stdout, "\nUSAGE:  xorplug apply [FLAGS] FILE\n\nFLAGS:\n%s", flags.FlagUsages())
	}
	if err := flags.Parse(args); err != nil {
		flags.Usage()
		return fmt.Errorf("%w: error parsing flags: %v", errUsage, err)
	}
	if helpFlag {
		flags.Usage()
		return nil
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("%w: expected exactly one FILE argument", errUsage)
	}
	params.log = newLogger(params.verbose)
	if err := params.resolveKey(); err != nil {
		return err
	}

	in, err := os.Open(flags.Arg(0))
	if err != nil {
		return err
	}
	defer func() {
		_ = in.Close()
	}()

	out, closeOut, err := openOutput(params.output, stdout)
	if err != nil {
		return err
	}
	if err := params.apply(ctx, in, out); err != nil {
		_ = closeOut()
		return err
	}
	return closeOut()
}

func (p *applyParams) resolveKey() error {
	switch p.mode {
	case modeEncrypt, modeEntry:
	default:
		return fmt.Errorf("%w: unknown mode %q", errUsage, p.mode)
	}
	if len(p.keyHex) > 0 && len(p.keyFile) > 0 {
		return fmt.Errorf("%w: --key and --key-file are mutually exclusive", errUsage)
	}
	switch {
	case len(p.keyHex) > 0:
		buf, err := hex.DecodeString(strings.TrimPrefix(p.keyHex, "0x"))
		if err != nil {
			return fmt.Errorf("failed to decode key, must be a hex string with only the characters a-f, A-F, or 0-9: %w", err)
		}
		p.keyBuf = buf
	case len(p.keyFile) > 0:
		kf, err := keyfile.Load(p.keyFile)
		if err != nil {
			return err
		}
		p.keyBuf = []byte{kf.Key()}
		p.updateKeyOnEntry = p.updateKeyOnEntry || kf.UpdatesKeyOnEntry()
	}
	if p.mode == modeEncrypt && len(p.keyBuf) == 0 {
		return fmt.Errorf("%w: mode %s requires --key or --key-file", errUsage, modeEncrypt)
	}
	return nil
}

func (p *applyParams) apply(ctx context.Context, in io.Reader, out io.Writer) error {
	if len(p.pluginPath) > 0 {
		return p.applyGuest(ctx, in, out)
	}
	return p.applyNative(in, out)
}

func (p *applyParams) applyNative(in io.Reader, out io.Writer) error {
	plug, err := plugin.New(plugin.WithLogger(p.log), plugin.UpdateKeyOnEntry(p.updateKeyOnEntry))
	if err != nil {
		return err
	}
	plug.SetKey(p.keyBuf)

	if p.mode == modeEncrypt {
		w, err := xor.NewWriter(out, []byte{plug.Key()})
		if err != nil {
			return err
		}
		n, err := io.Copy(w, in)
		if err != nil {
			return err
		}
		p.log.Debug("Screened input stream natively with the stored key", "key", plug.Key(), "bytes", n)
		return nil
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	plug.Entry(data)
	p.log.Debug("Applied entry", "bytes", len(data), "key", plug.Key())
	_, err = out.Write(data)
	return err
}

func (p *applyParams) applyGuest(ctx context.Context, in io.Reader, out io.Writer) error {
	opts := []host.Opt{
		host.WithLogger(p.log),
		host.WithGuestStderr(internal.Stderr),
	}
	if p.verbose {
		opts = append(opts, host.WithGuestEnv(plugin.DebugEnv, "1"))
	}
	if p.updateKeyOnEntry {
		opts = append(opts, host.WithGuestEnv(plugin.UpdateKeyOnEntryEnv, "1"))
	}
	rt, err := host.NewRuntime(ctx, opts...)
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.Close(ctx)
	}()
	guest, err := rt.LoadFile(ctx, p.pluginPath)
	if err != nil {
		return err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	if err := guest.SetKey(ctx, p.keyBuf); err != nil {
		return err
	}
	var result []byte
	switch p.mode {
	case modeEncrypt:
		result, err = guest.EncryptWithKey(ctx, data)
	case modeEntry:
		result, err = guest.Entry(ctx, data)
	}
	if err != nil {
		return err
	}
	_, err = out.Write(result)
	return err
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if len(path) == 0 {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func runKeygen(args []string, stdout io.Writer) error {
	var (
		helpFlag         bool
		passphrase       string
		updateKeyOnEntry bool
	)
	flags := flag.NewFlagSet("keygen", flag.ContinueOnError)
	flags.SetOutput(internal.Stderr)
	flags.BoolVarP(&helpFlag, "help", "h", false, "Prints this usage information.")
	flags.StringVar(&passphrase, "passphrase", "", "Derive the key from this passphrase with scrypt instead of generating a random key.")
	flags.BoolVar(&updateKeyOnEntry, "update-key-on-entry", false, "Record that plugin_entry should store its derived key.")
	flags.Usage = func() {
		_, _ = fmt.Fprintf(stdout, "\nUSAGE:  xorplug keygen [FLAGS] OUTPUT\n\nFLAGS:\n%s", flags.FlagUsages())
	}
	if err := flags.Parse(args); err != nil {
		flags.Usage()
		return fmt.Errorf("%w: error parsing flags: %v", errUsage, err)
	}
	if helpFlag {
		flags.Usage()
		return nil
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("%w: expected exactly one OUTPUT argument", errUsage)
	}

	var (
		kf  *keyfile.KeyFile
		err error
		opt = keyfile.UpdateKeyOnEntry(updateKeyOnEntry)
	)
	if len(passphrase) > 0 {
		gen, genErr := keyfile.NewKeyGenerator()
		if genErr != nil {
			return genErr
		}
		kf, err = keyfile.FromPassphrase(gen, []byte(passphrase), opt)
	} else {
		kf, err = keyfile.Generate(opt)
	}
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	if err := kf.Save(flags.Arg(0)); err != nil {
		return fmt.Errorf("failed to save key file: %w", err)
	}
	internal.Echo("Wrote key 0x%02x to %s", kf.Key(), flags.Arg(0))
	return nil
}
