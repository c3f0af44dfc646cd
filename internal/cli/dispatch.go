// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todoview/internal/commands"
	"todoview/internal/config"
	"todoview/internal/exitcode"
	"todoview/internal/logging"
	"todoview/internal/service"
)

// DefaultCommand runs when no command is given.
const DefaultCommand = "tui"

// BackendFactory creates a Backend from config.
// Used to inject the backend during dispatch.
type BackendFactory func(ctx context.Context, cfg *config.Config) (service.Backend, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  BackendFactory
}

// NewDispatcher creates a new dispatcher with the given registry and backend factory.
func NewDispatcher(registry *commands.Registry, factory BackendFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> interactive interface
	if len(args) == 0 {
		return d.dispatch(ctx, DefaultCommand, nil, out, errOut)
	}

	cmdName := args[0]

	// Leading flags belong to the first positional word, which names the
	// command, or to the default command when there is none.
	if strings.HasPrefix(cmdName, "-") {
		switch cmdName {
		case "-h", "--help":
			return d.dispatch(ctx, "help", args[1:], out, errOut)
		case "--version":
			return d.dispatch(ctx, "version", args[1:], out, errOut)
		}
		if i := d.firstPositional(args); i >= 0 {
			rest := append(append([]string{}, args[:i]...), args[i+1:]...)
			return d.dispatch(ctx, args[i], rest, out, errOut)
		}
		return d.dispatch(ctx, DefaultCommand, args, out, errOut)
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		if s := d.registry.Suggest(cmdName); s != "" {
			fmt.Fprintf(errOut, "error: unknown command: %s (did you mean %s?)\n", cmdName, s)
		} else {
			fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		}
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

// firstPositional returns the index of the first argument that is neither a
// flag nor a flag's value, or -1. Flag types come from the common flags and
// the default command's flags; unknown flags are taken to have no value.
func (d *Dispatcher) firstPositional(args []string) int {
	fs := pflag.NewFlagSet("", pflag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	if cmd, ok := d.registry.Find(DefaultCommand); ok {
		cmd.RegisterFlags(fs)
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return -1
		case !strings.HasPrefix(a, "-") || a == "-":
			return i
		case strings.Contains(a, "="):
			continue
		}

		var f *pflag.Flag
		if strings.HasPrefix(a, "--") {
			f = fs.Lookup(a[2:])
		} else if len(a) == 2 {
			f = fs.ShorthandLookup(a[1:])
		}
		if f != nil && f.NoOptDefVal == "" {
			i++ // skip the value
		}
	}
	return -1
}

// commonFlags are accepted by every command.
type commonFlags struct {
	configDir string
	apiBase   string
	backend   string
	quiet     bool
	debug     bool
}

func (c *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&c.configDir, "config", "", "override config directory")
	fs.StringVar(&c.apiBase, "api-base", "", "REST server base URL")
	fs.StringVar(&c.backend, "backend", "", "task backend (rest or googletasks)")
	fs.BoolVarP(&c.quiet, "quiet", "q", false, "suppress informational output")
	fs.BoolVar(&c.debug, "debug", false, "print debug logs to stderr")
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := pflag.NewFlagSet(cmd.Name(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves
	fs.SortFlags = false

	var common commonFlags
	common.register(fs)
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(out, "Usage: %s\n\n%s.\n\nFlags:\n%s", cmd.Usage(), cmd.Synopsis(), fs.FlagUsages())
			return exitcode.Success
		}
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	positionalArgs := fs.Args()

	cfg, code := d.loadConfig(cmd, fs, &common, errOut)
	if code != exitcode.Success {
		return code
	}

	closeLog := setupLogger(cmd, cfg, errOut)
	defer closeLog()
	cfg.Log().Debug("dispatch", "command", cmd.Name(), "backend", cfg.Backend, "args", positionalArgs)

	var backend service.Backend
	if cmd.NeedsBackend() {
		if cfg.Backend == config.BackendGoogleTasks {
			if !cfg.HasOAuthClient() {
				fmt.Fprintf(errOut, "error: %s not found in %s\n", config.OAuthClientFile, cfg.Dir)
				return exitcode.AuthError
			}
			if !cfg.HasToken() {
				fmt.Fprintln(errOut, "error: not logged in (run: todoview login)")
				return exitcode.AuthError
			}
		}

		var err error
		backend, err = d.factory(ctx, cfg)
		if err != nil {
			cfg.Log().Debug("backend setup failed", "err", err)
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.AuthError
		}
	}

	code = cmd.Run(ctx, cfg, backend, positionalArgs, out, errOut)
	cfg.Log().Debug("done", "command", cmd.Name(), "exit", exitcode.String(code))
	return code
}

// loadConfig layers the config file, the environment and the flags. Commands
// that do not need a backend still run on a broken config file.
func (d *Dispatcher) loadConfig(cmd commands.Command, fs *pflag.FlagSet, common *commonFlags, errOut io.Writer) (*config.Config, int) {
	cfg, err := config.Load(common.configDir)
	if err != nil {
		if cmd.NeedsBackend() {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return nil, exitcode.AuthError
		}
		cfg, err = config.New(common.configDir)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return nil, exitcode.AuthError
		}
	}
	cfg.Quiet = common.quiet
	cfg.Debug = common.debug

	if fs.Changed("api-base") {
		cfg.APIBase = common.apiBase
	}
	if fs.Changed("backend") {
		cfg.Backend = common.backend
	}

	if cmd.NeedsBackend() {
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return nil, exitcode.AuthError
		}
	}
	return cfg, exitcode.Success
}

// setupLogger points cfg's logger at the log file for commands that own the
// terminal, at stderr with --debug, and nowhere otherwise. The returned func
// releases the log file.
func setupLogger(cmd commands.Command, cfg *config.Config, errOut io.Writer) func() {
	opts := logging.DefaultOptions()
	opts.Level = logging.ParseLevel(cfg.LogLevel)
	opts.Formatter = logging.ParseFormatter(cfg.LogFormat)
	if cfg.Debug {
		opts.Level = logging.ParseLevel("debug")
	}

	if fl, ok := cmd.(commands.FileLogger); ok && fl.LogsToFile() {
		logger, closer, err := logging.OpenFile(cfg.LogPath(), opts)
		if err != nil {
			cfg.Logger = logging.Discard()
			if cfg.Debug {
				fmt.Fprintf(errOut, "warning: %v\n", err)
			}
			return func() {}
		}
		cfg.Logger = logger
		return func() { closer.Close() }
	}

	if cfg.Debug {
		opts.ReportTimestamp = false
		cfg.Logger = logging.New(errOut, opts)
	} else {
		cfg.Logger = logging.Discard()
	}
	return func() {}
}
