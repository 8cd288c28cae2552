package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"spacequest/internal/board"
	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/notify"
	"spacequest/internal/service"
)

func init() {
	Register(&MoveCmd{})
}

// MoveCmd moves a board task to another column through the board
// coordinator, the same path the kanban view uses.
type MoveCmd struct {
	project  string
	noRevert bool
}

// SetProject sets the project reference (for testing).
func (c *MoveCmd) SetProject(ref string) {
	c.project = ref
}

// SetNoRevert keeps the optimistic status after a failed move (for testing).
func (c *MoveCmd) SetNoRevert(v bool) {
	c.noRevert = v
}

func (c *MoveCmd) Name() string      { return "move" }
func (c *MoveCmd) Aliases() []string { return []string{"mv"} }
func (c *MoveCmd) Synopsis() string  { return "Move a task to another column" }
func (c *MoveCmd) Usage() string {
	return "sq move --project <p> [--no-revert] <task-id> <column>"
}
func (c *MoveCmd) NeedsAuth() bool { return true }

func (c *MoveCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.project, "project", "", "")
	fs.StringVar(&c.project, "p", "", "")
	fs.BoolVar(&c.noRevert, "no-revert", false, "")
}

func (c *MoveCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.project == "" {
		return usageError(errOut, "--project required")
	}
	if len(args) < 2 {
		return usageError(errOut, "task id and column required")
	}
	taskID, err := ParseTaskRef(args[:1])
	if err != nil {
		return usageError(errOut, "%v", err)
	}
	colRef := strings.Join(args[1:], " ")

	p, err := fetchProject(ctx, svc, c.project)
	if err != nil {
		return fail(cfg, errOut, err)
	}

	b := board.FromProject(p)
	col, ok := b.ResolveColumn(colRef)
	if !ok {
		return usageError(errOut, "column not found: %s", colRef)
	}

	coord := board.New(b, svc, moveNotifier(cfg, out),
		board.WithRevertOnFailure(!c.noRevert),
		board.WithLogger(cfg.Log()),
	)

	m, err := coord.Move(ctx, taskID, col.ID)
	if err != nil {
		if errors.Is(err, board.ErrTaskNotFound) {
			return usageError(errOut, "task %s is not on %s", taskID, b.Name)
		}
		return usageError(errOut, "%v", err)
	}
	if m == nil {
		if !cfg.Quiet {
			fmt.Fprintf(out, "already in %s\n", col.Title)
		}
		return exitcode.Success
	}

	if err := m.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(errOut, "error: cancelled")
			return exitcode.BackendError
		}
		if m.State() == board.Reverted {
			err = fmt.Errorf("%w (back in %s)", err, statusTitle(coord.Board(), taskID))
		}
		return fail(cfg, errOut, err)
	}
	return exitcode.Success
}

// moveNotifier prints confirmations to out and logs everything. Failures are
// left to fail so they are reported once, on stderr.
func moveNotifier(cfg *config.Config, out io.Writer) notify.Notifier {
	sink := notify.NewWriterSink(out, cfg.Quiet)
	logger := cfg.Log()
	return notify.Multi(
		notify.Func(func(n notify.Notification) {
			if n.Type != notify.Error {
				sink.Notify(n)
			}
		}),
		notify.Func(func(n notify.Notification) {
			logger.Debug("notification", zap.String("type", string(n.Type)),
				zap.String("title", n.Title), zap.String("message", n.Message))
		}),
	)
}

// statusTitle names the column a task currently sits in.
func statusTitle(b *board.Board, taskID string) string {
	t, ok := b.Task(taskID)
	if !ok {
		return "its column"
	}
	if col, ok := b.Column(t.Status); ok && strings.TrimSpace(col.Title) != "" {
		return col.Title
	}
	return t.Status
}
