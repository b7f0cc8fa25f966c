package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/output"
)

// txFlags are the transaction fields accepted by post and send.
type txFlags struct {
	from     string
	to       string
	value    string
	gas      string
	gasPrice string
	data     string
}

func (f *txFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.from, "from", "", "Sender (default account when empty)")
	cmd.Flags().StringVar(&f.to, "to", "", "Recipient")
	cmd.Flags().StringVar(&f.value, "value", "", "Value in wei, decimal or 0x hex")
	cmd.Flags().StringVar(&f.gas, "gas", "", "Gas limit (estimated when empty)")
	cmd.Flags().StringVar(&f.gasPrice, "gas-price", "", "Gas price in wei (node price when empty)")
	cmd.Flags().StringVar(&f.data, "data", "", "Call data as 0x hex")
}

func optionalAddress(s string) (*common.Address, error) {
	if s == "" {
		return nil, nil
	}
	if err := format.ValidateAddress(s); err != nil {
		return nil, err
	}
	addr := common.HexToAddress(s)
	return &addr, nil
}

func optionalBig(name, s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	n, err := format.ToBig(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

// request builds the CallRequest the flags describe.
func (f *txFlags) request() (format.CallRequest, error) {
	var (
		req format.CallRequest
		err error
	)
	if req.From, err = optionalAddress(f.from); err != nil {
		return req, err
	}
	if req.To, err = optionalAddress(f.to); err != nil {
		return req, err
	}
	if req.Value, err = optionalBig("value", f.value); err != nil {
		return req, err
	}
	if req.Gas, err = optionalBig("gas", f.gas); err != nil {
		return req, err
	}
	if req.GasPrice, err = optionalBig("gas price", f.gasPrice); err != nil {
		return req, err
	}
	if f.data != "" {
		if req.Data, err = hexutil.Decode(format.InHex(f.data)); err != nil {
			return req, fmt.Errorf("invalid data: %w", err)
		}
	}
	return req, nil
}

func parseRequestID(s string) (*big.Int, error) {
	id, err := format.ToBig(s)
	if err != nil {
		return nil, fmt.Errorf("invalid request id %q: %w", s, err)
	}
	return id, nil
}

func txCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Post, confirm and inspect transactions",
	}
	cmd.AddCommand(
		txSendCmd(flags),
		txRequestsCmd(flags),
		txRejectCmd(flags),
		txReceiptCmd(flags),
	)
	return cmd
}

func txSendCmd(flags *globalFlags) *cobra.Command {
	var (
		tf       txFlags
		password string
		wait     bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Queue a transaction and confirm it with the sender's password",
		Long: `Queue the transaction with parity_postTransaction, confirm the signer
request with signer_confirmRequest and print the transaction hash.

Example:
  wallet tx send --local --from 0xA... --to 0xB... --value 1000000000000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := tf.request()
			if err != nil {
				return err
			}
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			return withApp(cmd, flags, 0, func(ctx context.Context, a *app) error {
				id, err := a.API.Parity.PostTransaction(ctx, req)
				if err != nil {
					return fmt.Errorf("failed to post transaction: %w", err)
				}
				hash, err := a.API.Signer.ConfirmRequest(ctx, id, format.CallRequest{}, pw)
				if err != nil {
					if _, rerr := a.API.Signer.RejectRequest(ctx, id); rerr != nil {
						return fmt.Errorf("failed to confirm request %s: %w (reject: %v)", id, err, rerr)
					}
					return fmt.Errorf("failed to confirm request %s: %w", id, err)
				}

				result := map[string]interface{}{"request": id.String(), "hash": hash}
				if !wait {
					return a.Print(result, func() { fmt.Printf("Sent %s\n", hash) })
				}
				receipt, err := waitReceipt(ctx, a, hash)
				if err != nil {
					return err
				}
				result["blockNumber"] = receipt.BlockNumber
				result["gasUsed"] = receipt.GasUsed
				return a.Print(result, func() {
					fmt.Printf("Sent %s\n", hash)
					renderReceipt(receipt)
				})
			})
		},
	}
	tf.register(cmd)
	passwordFlag(cmd, &password)
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the receipt")
	return cmd
}

func waitReceipt(ctx context.Context, a *app, hash string) (*format.Receipt, error) {
	c, err := a.Contract("[]")
	if err != nil {
		return nil, err
	}
	return c.PollTransactionReceipt(ctx, hash)
}

func renderReceipt(r *format.Receipt) {
	status := "unknown"
	if r.Status != nil {
		status = "failed"
		if *r.Status == 1 {
			status = "success"
		}
	}
	fmt.Printf("  Block:    %s\n", output.FormatNumber(r.BlockNumber))
	fmt.Printf("  Gas used: %s\n", output.FormatNumber(r.GasUsed))
	fmt.Printf("  Status:   %s\n", status)
	if r.ContractAddress != nil {
		fmt.Printf("  Contract: %s\n", r.ContractAddress.Hex())
	}
	fmt.Printf("  Logs:     %d\n", len(r.Logs))
}

func txRequestsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "requests",
		Short: "List signer requests waiting for confirmation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, 30*time.Second, func(ctx context.Context, a *app) error {
				reqs, err := a.API.Signer.RequestsToConfirm(ctx)
				if err != nil {
					return err
				}
				return a.Print(reqs, func() { output.RenderRequests(os.Stdout, reqs) })
			})
		},
	}
}

func txRejectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reject <request-id>",
		Short: "Reject a queued signer request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRequestID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, 30*time.Second, func(ctx context.Context, a *app) error {
				ok, err := a.API.Signer.RejectRequest(ctx, id)
				if err != nil {
					return err
				}
				return a.Print(map[string]bool{"rejected": ok}, func() {
					if ok {
						fmt.Printf("Rejected request %s\n", id)
					} else {
						fmt.Printf("Request %s was not pending\n", id)
					}
				})
			})
		},
	}
}

func txReceiptCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "receipt <hash>",
		Short: "Show a transaction receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, 30*time.Second, func(ctx context.Context, a *app) error {
				receipt, err := a.API.Eth.GetTransactionReceipt(ctx, args[0])
				if err != nil {
					return err
				}
				if receipt == nil {
					return fmt.Errorf("no receipt for %s yet", args[0])
				}
				return a.Print(receipt, func() {
					fmt.Printf("Receipt %s\n", receipt.TransactionHash.Hex())
					renderReceipt(receipt)
				})
			})
		},
	}
}
