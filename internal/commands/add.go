package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"spacequest/internal/board"
	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/service"
)

// DefaultXPReward is the reward of a task created without --xp.
const DefaultXPReward = 10

// dueLayout is the accepted --due format.
const dueLayout = "2006-01-02"

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	project string
	xp      int
	credits int
	due     string
	desc    string
	status  string
}

// SetProject sets the project reference (for testing).
func (c *AddCmd) SetProject(ref string) {
	c.project = ref
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create an objective" }
func (c *AddCmd) Usage() string {
	return "sq add [--project <p>] [--xp <n>] [--credits <n>] [--due <yyyy-mm-dd>] [--desc <text>] [--status <column>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.project, "project", "", "")
	fs.StringVar(&c.project, "p", "", "")
	fs.IntVar(&c.xp, "xp", DefaultXPReward, "")
	fs.IntVar(&c.credits, "credits", 0, "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.desc, "desc", "", "")
	fs.StringVar(&c.status, "status", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	in := service.NewTask{
		Title:        strings.Join(args, " "),
		Description:  c.desc,
		XPReward:     c.xp,
		CreditReward: c.credits,
	}
	if err := in.Validate(); err != nil {
		return usageError(errOut, "%v", err)
	}

	if c.due != "" {
		due, err := parseDue(c.due)
		if err != nil {
			return usageError(errOut, "%v", err)
		}
		in.DueDate = &due
	}

	if c.status != "" && c.project == "" {
		return usageError(errOut, "--status requires --project")
	}

	if c.project != "" {
		p, err := fetchProject(ctx, svc, c.project)
		if err != nil {
			return fail(cfg, errOut, err)
		}
		in.ProjectID = p.ID
		if c.status != "" {
			col, ok := board.FromProject(p).ResolveColumn(c.status)
			if !ok {
				return usageError(errOut, "column not found: %s", c.status)
			}
			in.Status = col.ID
		}
	}

	task, err := svc.CreateTask(ctx, in)
	if err != nil {
		return fail(cfg, errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %s\n", task.ID)
	}
	return exitcode.Success
}

func parseDue(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dueLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date: %s (want YYYY-MM-DD)", s)
	}
	return t, nil
}
