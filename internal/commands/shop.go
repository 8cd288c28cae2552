package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"spacequest/internal/config"
	"spacequest/internal/exitcode"
	"spacequest/internal/output"
	"spacequest/internal/service"
)

func init() {
	Register(&ShopCmd{})
	Register(&BuyCmd{})
}

// ShopCmd lists the cosmetic item catalogue.
type ShopCmd struct{}

func (c *ShopCmd) Name() string      { return "shop" }
func (c *ShopCmd) Aliases() []string { return nil }
func (c *ShopCmd) Synopsis() string  { return "List shop items" }
func (c *ShopCmd) Usage() string     { return "sq shop" }
func (c *ShopCmd) NeedsAuth() bool   { return true }

func (c *ShopCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShopCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	items, err := svc.ShopItems(ctx)
	if err != nil {
		return fail(cfg, errOut, err)
	}
	if len(items) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "shop is empty")
		}
		return exitcode.Success
	}
	for _, item := range items {
		output.FormatShopItem(out, item)
	}
	return exitcode.Success
}

// BuyCmd purchases an item with credits.
type BuyCmd struct{}

func (c *BuyCmd) Name() string      { return "buy" }
func (c *BuyCmd) Aliases() []string { return []string{"purchase"} }
func (c *BuyCmd) Synopsis() string  { return "Buy a shop item" }
func (c *BuyCmd) Usage() string     { return "sq buy <item-id>" }
func (c *BuyCmd) NeedsAuth() bool   { return true }

func (c *BuyCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *BuyCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return usageError(errOut, "item id required")
	}

	res, err := svc.Purchase(ctx, strings.TrimSpace(args[0]))
	if err != nil {
		return fail(cfg, errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %s  %d cr left\n", res.ItemID, res.CreditsLeft)
	}
	return exitcode.Success
}
