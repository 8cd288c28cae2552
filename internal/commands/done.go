package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/output"
	"spacequest/internal/progress"
	"spacequest/internal/service"
)

func init() {
	Register(&DoneCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string      { return "done" }
func (c *DoneCmd) Aliases() []string { return []string{"complete"} }
func (c *DoneCmd) Synopsis() string  { return "Complete an objective and collect its rewards" }
func (c *DoneCmd) Usage() string     { return "sq done <task-id>" }
func (c *DoneCmd) NeedsAuth() bool   { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	id, err := ParseTaskRef(args)
	if err != nil {
		return usageError(errOut, "%v", err)
	}

	res, err := svc.CompleteTask(ctx, id)
	if err != nil {
		return fail(cfg, errOut, err)
	}

	if cfg.Quiet {
		return exitcode.Success
	}

	line := fmt.Sprintf("%s completed %s  +%d XP", output.IconDone, res.TaskID, res.XPAwarded)
	if res.CreditsAwarded > 0 {
		line += fmt.Sprintf(" +%d cr", res.CreditsAwarded)
	}
	fmt.Fprintln(out, output.Good.Render(line))
	if res.PowerUpConsumed != "" {
		fmt.Fprintln(out, output.LabelValue("Power-up used", res.PowerUpConsumed))
	}
	if res.LevelUp {
		fmt.Fprintln(out, output.Gold.Render(fmt.Sprintf("%s Level up! %d -> %d", output.IconStar, res.LevelBefore, res.LevelAfter)))
	}
	if res.TotalXP > 0 {
		output.FormatProgress(out, progress.ForXP(res.TotalXP, cfg.Table()))
	}
	return exitcode.Success
}
