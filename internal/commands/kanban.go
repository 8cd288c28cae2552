package commands

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/service"
	"spacequest/internal/tui"
)

func init() {
	Register(&KanbanCmd{})
}

// KanbanCmd opens the interactive board.
type KanbanCmd struct {
	// In is the keyboard input. Defaults to os.Stdin.
	In io.Reader

	noRevert bool
}

func (c *KanbanCmd) Name() string      { return "kanban" }
func (c *KanbanCmd) Aliases() []string { return []string{"ui"} }
func (c *KanbanCmd) Synopsis() string  { return "Open the interactive board" }
func (c *KanbanCmd) Usage() string     { return "sq kanban [--no-revert] <project>" }
func (c *KanbanCmd) NeedsAuth() bool   { return true }

func (c *KanbanCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.noRevert, "no-revert", false, "")
}

func (c *KanbanCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	ref := strings.TrimSpace(strings.Join(args, " "))
	if ref == "" {
		return usageError(errOut, "project required")
	}

	in := c.In
	if in == nil {
		in = os.Stdin
	}
	opts := tui.Options{
		Table:     cfg.Table(),
		NotifyTTL: cfg.NotifyTTL,
		Logger:    cfg.Log(),
		Revert:    !c.noRevert,
	}
	if err := tui.RunBoard(ctx, svc, ref, opts, in, out); err != nil {
		if errors.Is(err, context.Canceled) {
			return exitcode.Success
		}
		return fail(cfg, errOut, err)
	}
	return exitcode.Success
}
