package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/output"
	"spacequest/internal/service"
)

func init() {
	Register(&ProjectsCmd{})
}

// ProjectsCmd lists the player's expeditions.
type ProjectsCmd struct{}

func (c *ProjectsCmd) Name() string      { return "projects" }
func (c *ProjectsCmd) Aliases() []string { return []string{"expeditions"} }
func (c *ProjectsCmd) Synopsis() string  { return "List expeditions" }
func (c *ProjectsCmd) Usage() string     { return "sq projects" }
func (c *ProjectsCmd) NeedsAuth() bool   { return true }

func (c *ProjectsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ProjectsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	projects, err := svc.ListProjects(ctx)
	if err != nil {
		return fail(cfg, errOut, err)
	}

	if len(projects) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no expeditions found")
		}
		return exitcode.Success
	}

	for _, p := range projects {
		output.FormatProject(out, p)
	}
	return exitcode.Success
}
