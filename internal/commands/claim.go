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
	Register(&ClaimCmd{})
}

// ClaimCmd claims a pending reward.
type ClaimCmd struct{}

func (c *ClaimCmd) Name() string      { return "claim" }
func (c *ClaimCmd) Aliases() []string { return nil }
func (c *ClaimCmd) Synopsis() string  { return "Claim a reward" }
func (c *ClaimCmd) Usage() string     { return "sq claim <reward-id>" }
func (c *ClaimCmd) NeedsAuth() bool   { return true }

func (c *ClaimCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ClaimCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return usageError(errOut, "reward id required")
	}

	res, err := svc.ClaimReward(ctx, strings.TrimSpace(args[0]))
	if err != nil {
		return fail(cfg, errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %s  +%d XP +%d cr\n", res.RewardID, res.XPAwarded, res.CreditsAwarded)
	}
	return exitcode.Success
}
