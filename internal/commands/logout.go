package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"spacequest/internal/cache"
	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/service"
)

func init() {
	Register(&LogoutCmd{})
}

// LogoutCmd implements the logout command.
type LogoutCmd struct {
	purge bool
}

func (c *LogoutCmd) Name() string      { return "logout" }
func (c *LogoutCmd) Aliases() []string { return nil }
func (c *LogoutCmd) Synopsis() string  { return "Remove the stored session" }
func (c *LogoutCmd) Usage() string     { return "sq logout [--purge]" }
func (c *LogoutCmd) NeedsAuth() bool   { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.purge, "purge", false, "")
}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.purge {
		if err := cache.Remove(cfg.CachePath()); err != nil {
			fmt.Fprintf(errOut, "error: failed to remove cache: %v\n", err)
			return exitcode.UserError
		}
	}

	if !cfg.HasToken() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := cfg.RemoveToken(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
