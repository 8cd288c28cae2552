package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strconv"

	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/output"
	"spacequest/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd changes fields of an existing objective. Only flags that are
// given are sent.
type EditCmd struct {
	update service.TaskUpdate
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Edit an objective" }
func (c *EditCmd) Usage() string {
	return "sq edit [--title <t>] [--desc <text>] [--due <yyyy-mm-dd>] [--xp <n>] [--assignee <user>] <task-id>"
}
func (c *EditCmd) NeedsAuth() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.update = service.TaskUpdate{}
	fs.Func("title", "", func(s string) error {
		c.update.Title = &s
		return nil
	})
	fs.Func("desc", "", func(s string) error {
		c.update.Description = &s
		return nil
	})
	fs.Func("assignee", "", func(s string) error {
		c.update.Assignee = &s
		return nil
	})
	fs.Func("due", "", func(s string) error {
		due, err := parseDue(s)
		if err != nil {
			return err
		}
		c.update.DueDate = &due
		return nil
	})
	fs.Func("xp", "", func(s string) error {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("not a number: %s", s)
		}
		c.update.XPReward = &n
		return nil
	})
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskRef(args)
	if err != nil {
		return usageError(errOut, "%v", err)
	}
	if err := c.update.Validate(); err != nil {
		return usageError(errOut, "%v", err)
	}

	task, err := svc.UpdateTask(ctx, id, c.update)
	if err != nil {
		return fail(cfg, errOut, err)
	}

	if !cfg.Quiet {
		output.FormatTask(out, task)
	}
	return exitcode.Success
}
