package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/output"
	"spacequest/internal/service"
)

func init() {
	Register(&LeaderboardCmd{})
}

// LeaderboardCmd prints the ranking, marking the signed-in player.
type LeaderboardCmd struct {
	limit int
}

func (c *LeaderboardCmd) Name() string      { return "leaderboard" }
func (c *LeaderboardCmd) Aliases() []string { return []string{"top"} }
func (c *LeaderboardCmd) Synopsis() string  { return "Show the leaderboard" }
func (c *LeaderboardCmd) Usage() string     { return "sq leaderboard [--limit <n>]" }
func (c *LeaderboardCmd) NeedsAuth() bool   { return true }

func (c *LeaderboardCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.limit, "limit", 0, "")
}

func (c *LeaderboardCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if c.limit < 0 {
		return usageError(errOut, "invalid limit: %d", c.limit)
	}

	var (
		me      string
		entries []service.LeaderboardEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The marker is cosmetic; a failed profile fetch only loses it.
		p, err := svc.Profile(gctx)
		if err != nil {
			cfg.Log().Debug("profile for leaderboard", zap.Error(err))
			return nil
		}
		me = p.Username
		return nil
	})
	g.Go(func() error {
		var err error
		entries, err = svc.Leaderboard(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fail(cfg, errOut, err)
	}

	if len(entries) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "leaderboard is empty")
		}
		return exitcode.Success
	}

	if c.limit > 0 && c.limit < len(entries) {
		entries = entries[:c.limit]
	}
	fmt.Fprintln(out, output.Heading(output.IconTrophy, "Leaderboard"))
	for _, e := range entries {
		output.FormatLeaderboardEntry(out, e, me != "" && e.Username == me)
	}
	return exitcode.Success
}
