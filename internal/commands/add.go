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
	"todoview/internal/task"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "todoview add [--description <text>] <title...>"
}
func (c *AddCmd) NeedsBackend() bool { return true }

func (c *AddCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.description, "description", "d", "", "task description")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	// Join args to form title
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	s := newStore(cfg, backend)
	created, err := s.Add(ctx, task.Draft{
		Title:       title,
		Description: strings.TrimSpace(c.description),
	})
	if err != nil {
		return report(errOut, s, err)
	}

	cfg.Log().Debug("created task", "id", created.ID, "provisional", created.Provisional)
	return printOK(cfg, out)
}
