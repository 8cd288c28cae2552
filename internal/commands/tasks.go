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
	Register(&TasksCmd{})
}

// TasksCmd lists personal objectives.
type TasksCmd struct {
	all bool
}

// SetAll includes completed tasks (for testing).
func (c *TasksCmd) SetAll(all bool) {
	c.all = all
}

func (c *TasksCmd) Name() string      { return "tasks" }
func (c *TasksCmd) Aliases() []string { return []string{"ls"} }
func (c *TasksCmd) Synopsis() string  { return "List personal objectives" }
func (c *TasksCmd) Usage() string     { return "sq tasks [--all]" }
func (c *TasksCmd) NeedsAuth() bool   { return true }

func (c *TasksCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.all, "all", false, "")
}

func (c *TasksCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	tasks, err := svc.ListTasks(ctx)
	if err != nil {
		return fail(cfg, errOut, err)
	}

	shown := 0
	for _, t := range tasks {
		if t.Completed && !c.all {
			continue
		}
		output.FormatTask(out, t)
		shown++
	}

	if shown == 0 && !cfg.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
