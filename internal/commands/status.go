package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/output"
	"spacequest/internal/progress"
	"spacequest/internal/service"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd shows the player's level progress, credits, badges and rank.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return []string{"me"} }
func (c *StatusCmd) Synopsis() string  { return "Show level progress, credits and rank" }
func (c *StatusCmd) Usage() string     { return "sq status" }
func (c *StatusCmd) NeedsAuth() bool   { return true }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		return usageError(errOut, "unexpected argument: %s", args[0])
	}

	var (
		profile service.Profile
		ranks   []service.LeaderboardEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = svc.Profile(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ranks, err = svc.Leaderboard(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fail(cfg, errOut, err)
	}

	// Level is always re-derived from the authoritative XP.
	p := progress.ForXP(profile.XP, cfg.Table())
	if profile.Level != 0 && profile.Level != p.Level {
		cfg.Log().Debug("server level differs from derived level",
			zap.Int("server", profile.Level), zap.Int("derived", p.Level), zap.Int("xp", profile.XP))
	}

	fmt.Fprintln(out, output.Heading(output.IconRocket, profile.Username))
	output.FormatProgress(out, p)
	fmt.Fprintln(out, output.LabelValue("Credits", fmt.Sprintf("%d %s", profile.Credits, output.IconCredits)))
	fmt.Fprintln(out, output.LabelValue("Badges", badgeList(cfg, p.Level)))
	if rank, ok := findRank(ranks, profile.Username); ok {
		fmt.Fprintln(out, output.LabelValue("Rank", fmt.Sprintf("#%d of %d", rank, len(ranks))))
	}
	return exitcode.Success
}

func badgeList(cfg *config.Config, level int) string {
	badges := cfg.BadgesFor(level)
	if len(badges) == 0 {
		return "none"
	}
	names := make([]string, len(badges))
	for i, b := range badges {
		names[i] = strings.TrimSpace(b.Icon + " " + b.Name)
	}
	return strings.Join(names, ", ")
}

func findRank(entries []service.LeaderboardEntry, username string) (int, bool) {
	for _, e := range entries {
		if e.Username == username {
			return e.Position, true
		}
	}
	return 0, false
}
