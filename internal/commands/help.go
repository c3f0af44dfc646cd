package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"todoview/internal/config"
	"todoview/internal/exitcode"
	"todoview/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string                    { return "help" }
func (c *HelpCmd) Aliases() []string               { return nil }
func (c *HelpCmd) Synopsis() string                { return "Print usage" }
func (c *HelpCmd) Usage() string                   { return "todoview help [command]" }
func (c *HelpCmd) NeedsBackend() bool              { return false }
func (c *HelpCmd) RegisterFlags(fs *pflag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, backend service.Backend, args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(out, helpText)
		return exitcode.Success
	}

	cmd, found := DefaultRegistry.Find(args[0])
	if !found {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", args[0])
		return exitcode.UserError
	}
	fmt.Fprintf(out, "Usage: %s\n\n%s.\n", cmd.Usage(), cmd.Synopsis())
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		fmt.Fprintf(out, "Aliases: %v\n", aliases)
	}
	return exitcode.Success
}

const helpText = `Usage:
  todoview                                      Start the interactive interface
  todoview tui [--theme light|dark|auto]        Start the interactive interface
  todoview list [--format text|json|yaml] [--all]
  todoview add [--description <text>] <title...>
  todoview done <ref>                           Mark a task completed
  todoview undo <ref>                           Mark a task not completed
  todoview edit [--title <title>] [--description <text>] <ref>
  todoview rm <ref>                             Delete a task
  todoview login                                Authenticate with Google Tasks
  todoview logout                               Remove stored Google credentials
  todoview help [command]
  todoview version

A <ref> is a task's number in list output or its id. Prefix with "id:"
to force an id, e.g. todoview done id:42.

Common flags:
  --config <dir>                  Override config directory
  --api-base <url>                REST server (default http://localhost:5001)
  --backend rest|googletasks      Task backend
  -q, --quiet                     Suppress informational output
  --debug                         Print debug logs to stderr

Interactive keys:
  up/k down/j  move        space  toggle       e  edit      d  delete
  a/tab        add task    t      theme        y  copy      r  reload
  ?            more help   q      quit
`
