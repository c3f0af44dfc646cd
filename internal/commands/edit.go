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
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only flags that were given are
// changed; the rest keep their current values.
type EditCmd struct {
	fs          *pflag.FlagSet
	title       string
	description string
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's title or description" }
func (c *EditCmd) Usage() string {
	return "todoview edit [--title <title>] [--description <text>] <ref>"
}
func (c *EditCmd) NeedsBackend() bool { return true }

func (c *EditCmd) RegisterFlags(fs *pflag.FlagSet) {
	c.fs = fs
	fs.StringVarP(&c.title, "title", "t", "", "new title")
	fs.StringVarP(&c.description, "description", "d", "", "new description")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	var changes task.Changes
	if c.changed("title") {
		title := strings.TrimSpace(c.title)
		if title == "" {
			fmt.Fprintln(errOut, "error: title required")
			return exitcode.UserError
		}
		changes.Title = task.String(title)
	}
	if c.changed("description") {
		changes.Description = task.String(strings.TrimSpace(c.description))
	}
	if changes.IsEmpty() {
		fmt.Fprintln(errOut, "error: nothing to change (use --title or --description)")
		return exitcode.UserError
	}

	s, t, code := resolveTask(ctx, cfg, backend, args, errOut)
	if code != exitcode.Success {
		return code
	}

	if _, err := s.Update(ctx, t.ID, changes); err != nil {
		return report(errOut, s, err)
	}
	return printOK(cfg, out)
}

// changed reports whether a flag was set on the command line.
func (c *EditCmd) changed(name string) bool {
	return c.fs != nil && c.fs.Changed(name)
}
