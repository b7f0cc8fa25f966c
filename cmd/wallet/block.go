package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/output"
)

func blockCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "block [number|latest|pending|earliest]",
		Short: "Show a block",
		Long: `Fetch a block by height or tag and print its summary.

Examples:
  wallet block
  wallet block 19000000
  wallet block 0x121eac0 --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			which := format.Latest
			if len(args) == 1 {
				b, err := format.ParseBlockNumber(args[0])
				if err != nil {
					return err
				}
				which = b
			}
			return withApp(cmd, flags, 30*time.Second, func(ctx context.Context, a *app) error {
				return runBlock(ctx, a, which)
			})
		},
	}
}

func runBlock(ctx context.Context, a *app, which format.BlockNumber) error {
	start := time.Now()
	block, err := a.API.Eth.GetBlockByNumber(ctx, which, false)
	latency := time.Since(start)
	if err != nil {
		return fmt.Errorf("failed to fetch block %s: %w", which, err)
	}
	if block == nil {
		return fmt.Errorf("block %s not found", which)
	}

	bd := &output.BlockDisplay{Block: block, Latency: latency}
	return a.Print(output.NewBlockJSON(bd), func() { output.RenderBlock(os.Stdout, bd) })
}
