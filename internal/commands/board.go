package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"spacequest/internal/board"
	"spacequest/internal/cache"
	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/output"
	"spacequest/internal/service"
)

func init() {
	Register(&BoardCmd{})
}

// BoardCmd prints a project's board column by column.
type BoardCmd struct {
	offline bool
}

// SetOffline sets the offline flag (for testing).
func (c *BoardCmd) SetOffline(offline bool) {
	c.offline = offline
}

func (c *BoardCmd) Name() string      { return "board" }
func (c *BoardCmd) Aliases() []string { return nil }
func (c *BoardCmd) Synopsis() string  { return "Show an expedition board" }
func (c *BoardCmd) Usage() string     { return "sq board [--offline] <project>" }
func (c *BoardCmd) NeedsAuth() bool   { return !c.offline }

func (c *BoardCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.offline, "offline", false, "")
}

func (c *BoardCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	ref := strings.TrimSpace(strings.Join(args, " "))
	if ref == "" {
		return usageError(errOut, "project required")
	}

	if c.offline {
		return c.runOffline(ctx, cfg, ref, out, errOut)
	}

	p, err := fetchProject(ctx, svc, ref)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			forgetSnapshot(ctx, cfg, ref)
		}
		return fail(cfg, errOut, err)
	}
	saveSnapshot(ctx, cfg, p)

	printBoard(out, board.FromProject(p))
	return exitcode.Success
}

func (c *BoardCmd) runOffline(ctx context.Context, cfg *config.Config, ref string, out, errOut io.Writer) int {
	store, err := cache.Open(ctx, cfg.CachePath())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	defer store.Close()

	snap, err := store.LoadProject(ctx, ref)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(errOut, output.Muted.Render("cached "+snap.FetchedAt.Local().Format("2006-01-02 15:04")))
	}
	printBoard(out, board.FromProject(snap.Project))
	return exitcode.Success
}

// fetchProject resolves ref and loads the full board.
func fetchProject(ctx context.Context, svc service.Service, ref string) (service.Project, error) {
	summary, err := svc.ResolveProject(ctx, ref)
	if err != nil {
		return service.Project{}, err
	}
	return svc.GetProject(ctx, summary.ID)
}

// saveSnapshot stores p for offline use. Failures are logged, not reported.
func saveSnapshot(ctx context.Context, cfg *config.Config, p service.Project) {
	if err := cfg.EnsureDir(); err != nil {
		cfg.Log().Debug("cache dir", zap.Error(err))
		return
	}
	store, err := cache.Open(ctx, cfg.CachePath())
	if err != nil {
		cfg.Log().Debug("open cache", zap.Error(err))
		return
	}
	defer store.Close()
	if err := store.SaveProject(ctx, p, time.Now()); err != nil {
		cfg.Log().Debug("save snapshot", zap.Error(err))
	}
}

// forgetSnapshot drops the cached board of a project the server no longer has.
func forgetSnapshot(ctx context.Context, cfg *config.Config, ref string) {
	if _, err := os.Stat(cfg.CachePath()); err != nil {
		return
	}
	store, err := cache.Open(ctx, cfg.CachePath())
	if err != nil {
		cfg.Log().Debug("open cache", zap.Error(err))
		return
	}
	defer store.Close()
	snap, err := store.LoadProject(ctx, ref)
	if err != nil {
		return
	}
	if err := store.Forget(ctx, snap.Project.ID); err != nil {
		cfg.Log().Debug("forget snapshot", zap.Error(err))
		return
	}
	cfg.Log().Debug("forgot snapshot", zap.String("project", snap.Project.ID))
}

// printBoard writes every column in order, then any orphaned tasks.
func printBoard(out io.Writer, b *board.Board) {
	fmt.Fprintln(out, output.Heading(output.IconOrbit, b.Name))
	counts := b.Counts()
	for _, col := range b.Columns {
		output.FormatColumnHeader(out, col.Title, counts[col.ID])
		for _, t := range b.TasksIn(col.ID) {
			output.FormatTaskIndented(out, t)
		}
	}

	orphans := b.Orphans()
	if len(orphans) == 0 {
		return
	}
	output.FormatColumnHeader(out, output.UnassignedHeading, len(orphans))
	for _, t := range orphans {
		output.FormatTaskIndented(out, t)
	}
}
