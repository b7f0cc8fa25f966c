package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/dmagro/eth-wallet-rpc/internal/api"
	"github.com/dmagro/eth-wallet-rpc/internal/fanout"
	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/output"
)

// balanceConcurrency bounds parallel eth_getBalance calls.
const balanceConcurrency = 8

func balanceCmd(flags *globalFlags) *cobra.Command {
	var block string

	cmd := &cobra.Command{
		Use:   "balance <address>...",
		Short: "Show account balances",
		Long: `Query eth_getBalance for each address concurrently.

Examples:
  wallet balance 0x742d35Cc6634C0532925a3b844Bc454e4438f44e
  wallet balance 0xA... 0xB... --block 19000000`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			which, err := format.ParseBlockNumber(block)
			if err != nil {
				return err
			}
			for _, addr := range args {
				if err := format.ValidateAddress(addr); err != nil {
					return err
				}
			}
			return withApp(cmd, flags, 30*time.Second, func(ctx context.Context, a *app) error {
				balances, err := fetchBalances(ctx, a.API, args, which)
				if err != nil {
					return err
				}
				rows := output.AccountRows(nil, balances, "")
				return a.Print(rows, func() { output.RenderAccounts(os.Stdout, rows) })
			})
		},
	}

	cmd.Flags().StringVar(&block, "block", format.TagLatest, "Block height or tag")
	return cmd
}

// fetchBalances looks up every address concurrently. Addresses whose lookup
// failed are logged and left out; the call only fails when all of them did.
func fetchBalances(ctx context.Context, a *api.API, addrs []string, which format.BlockNumber) (map[string]*big.Int, error) {
	results := fanout.ExecuteAll(ctx, addrs, balanceConcurrency,
		func(ctx context.Context, addr string) (*big.Int, error) {
			return a.Eth.GetBalance(ctx, addr, which)
		})

	balances := make(map[string]*big.Int, len(results))
	for _, r := range results {
		if r.Err == nil {
			balances[format.OutAddress(r.Key)] = r.Value
		}
	}
	failed := fanout.Errors(results)
	for _, r := range failed {
		log.Warn("Balance lookup failed", "address", r.Key, "err", r.Err)
	}
	if len(addrs) > 0 && len(failed) == len(addrs) {
		return nil, fmt.Errorf("all balance lookups failed: %w", failed[0].Err)
	}
	return balances, nil
}
