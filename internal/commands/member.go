package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/service"
)

func init() {
	Register(&MemberCmd{})
}

// MemberCmd adds a player to an expedition.
type MemberCmd struct {
	project string
}

// SetProject sets the project reference (for testing).
func (c *MemberCmd) SetProject(ref string) {
	c.project = ref
}

func (c *MemberCmd) Name() string      { return "member" }
func (c *MemberCmd) Aliases() []string { return []string{"invite"} }
func (c *MemberCmd) Synopsis() string  { return "Add a crew member to an expedition" }
func (c *MemberCmd) Usage() string     { return "sq member --project <p> <username>" }
func (c *MemberCmd) NeedsAuth() bool   { return true }

func (c *MemberCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.project, "project", "", "")
	fs.StringVar(&c.project, "p", "", "")
}

func (c *MemberCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.project == "" {
		return usageError(errOut, "--project required")
	}
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return usageError(errOut, "username required")
	}

	p, err := svc.ResolveProject(ctx, c.project)
	if err != nil {
		return fail(cfg, errOut, err)
	}
	if err := svc.AddMember(ctx, p.ID, strings.TrimSpace(args[0])); err != nil {
		return fail(cfg, errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
