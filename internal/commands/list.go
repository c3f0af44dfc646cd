package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todoview/internal/config"
	"todoview/internal/exitcode"
	"todoview/internal/output"
	"todoview/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Completed tasks are hidden unless --all is given; numbering always counts
// over the full list so that references stay stable.
type ListCmd struct {
	format string
	all    bool
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return []string{"ls"} }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string {
	return "todoview list [--format text|json|yaml] [--all]"
}
func (c *ListCmd) NeedsBackend() bool { return true }

func (c *ListCmd) RegisterFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.format, "format", "f", string(output.FormatText), "output format")
	fs.BoolVarP(&c.all, "all", "a", false, "include completed tasks")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	format, err := output.ParseFormat(c.format)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	s, err := loadStore(ctx, cfg, backend)
	if err != nil {
		return report(errOut, s, err)
	}

	var items []output.Numbered
	for i, t := range s.Snapshot().Todos {
		if t.Completed && !c.all {
			continue
		}
		items = append(items, output.Numbered{Num: i + 1, Task: t})
	}

	switch format {
	case output.FormatJSON:
		err = output.WriteJSON(out, items)
	case output.FormatYAML:
		err = output.WriteYAML(out, items)
	default:
		if len(items) == 0 {
			if !cfg.Quiet {
				fmt.Fprintln(out, "no tasks found")
			}
			return exitcode.Success
		}
		output.WriteText(out, items)
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: writing output: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}
