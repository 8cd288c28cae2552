package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "sq help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  sq                 Show your status (same as sq status)")
	DefaultRegistry.WriteUsage(out)
	fmt.Fprint(out, commonFlagsText)
	return exitcode.Success
}

const commonFlagsText = `
Common flags:
  --config <dir>   Override config directory
  --api-url <url>  Override the API base URL
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
