package commands

import (
	"context"
	"io"

	"github.com/spf13/pflag"

	"todoview/internal/config"
	"todoview/internal/exitcode"
	"todoview/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string                    { return "rm" }
func (c *RmCmd) Aliases() []string               { return []string{"delete"} }
func (c *RmCmd) Synopsis() string                { return "Delete a task" }
func (c *RmCmd) Usage() string                   { return "todoview rm <ref>" }
func (c *RmCmd) NeedsBackend() bool              { return true }
func (c *RmCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	s, t, code := resolveTask(ctx, cfg, backend, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if err := s.Delete(ctx, t.ID); err != nil {
		return report(errOut, s, err)
	}
	return printOK(cfg, out)
}
