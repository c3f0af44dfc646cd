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
	Register(&DoneCmd{})
	Register(&UndoCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string                    { return "done" }
func (c *DoneCmd) Aliases() []string               { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string                { return "Mark a task completed" }
func (c *DoneCmd) Usage() string                   { return "todoview done <ref>" }
func (c *DoneCmd) NeedsBackend() bool              { return true }
func (c *DoneCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	return runSetCompleted(ctx, cfg, backend, args, true, out, errOut)
}

// UndoCmd implements the undo command.
type UndoCmd struct{}

func (c *UndoCmd) Name() string                    { return "undo" }
func (c *UndoCmd) Aliases() []string               { return []string{"reopen"} }
func (c *UndoCmd) Synopsis() string                { return "Mark a task not completed" }
func (c *UndoCmd) Usage() string                   { return "todoview undo <ref>" }
func (c *UndoCmd) NeedsBackend() bool              { return true }
func (c *UndoCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *UndoCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	return runSetCompleted(ctx, cfg, backend, args, false, out, errOut)
}

// runSetCompleted is the shared implementation for done and undo.
func runSetCompleted(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, completed bool, out, errOut io.Writer) int {
	s, t, code := resolveTask(ctx, cfg, backend, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if err := s.Toggle(ctx, t.ID, completed); err != nil {
		return report(errOut, s, err)
	}
	return printOK(cfg, out)
}
