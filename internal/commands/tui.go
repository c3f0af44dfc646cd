package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"todoview/internal/config"
	"todoview/internal/exitcode"
	"todoview/internal/service"
	"todoview/internal/store"
	"todoview/internal/tui"
)

func init() {
	Register(&TUICmd{})
}

// TUICmd starts the interactive interface. It is also what runs when
// todoview is called without a command.
type TUICmd struct {
	theme string
}

func (c *TUICmd) Name() string       { return "tui" }
func (c *TUICmd) Aliases() []string  { return []string{"ui"} }
func (c *TUICmd) Synopsis() string   { return "Start the interactive interface" }
func (c *TUICmd) Usage() string      { return "todoview [tui] [--theme light|dark|auto]" }
func (c *TUICmd) NeedsBackend() bool { return true }
func (c *TUICmd) LogsToFile() bool   { return true }

func (c *TUICmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.theme, "theme", "", "color theme (light, dark or auto)")
}

func (c *TUICmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	name := cfg.Theme
	if c.theme != "" {
		name = c.theme
	}
	switch strings.ToLower(name) {
	case config.ThemeLight, config.ThemeDark, config.ThemeAuto:
	default:
		fmt.Fprintf(errOut, "error: unknown theme: %s\n", name)
		return exitcode.UserError
	}

	s := store.New(backend,
		store.WithLogger(cfg.Log()),
		store.WithTheme(tui.ResolveTheme(name)),
	)
	if err := tui.Run(ctx, s, tui.Options{Log: cfg.Log()}); err != nil {
		cfg.Log().Error("interactive session failed", "err", err)
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
