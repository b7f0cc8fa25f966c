package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/dmagro/eth-wallet-rpc/internal/contract"
	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/output"
)

// contractFlags locate the ABI shared by the contract subcommands.
type contractFlags struct {
	abiPath string
}

func (f *contractFlags) abi() (string, error) {
	if f.abiPath == "" {
		return "", fmt.Errorf("--abi is required")
	}
	data, err := os.ReadFile(f.abiPath)
	if err != nil {
		return "", fmt.Errorf("failed to read ABI: %w", err)
	}
	return string(data), nil
}

func (f *contractFlags) load(a *app) (*contract.Contract, error) {
	abiJSON, err := f.abi()
	if err != nil {
		return nil, err
	}
	return a.Contract(abiJSON)
}

// readHexArg accepts 0x hex or @path to a file holding hex.
func readHexArg(s string) ([]byte, error) {
	if strings.HasPrefix(s, "@") {
		data, err := os.ReadFile(s[1:])
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(string(data))
	}
	return hexutil.Decode(format.InHex(s))
}

func stringArgs(args []string) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

func contractCmd(flags *globalFlags) *cobra.Command {
	cf := &contractFlags{}
	cmd := &cobra.Command{
		Use:   "contract",
		Short: "Deploy, call and inspect contracts through their ABI",
	}
	cmd.PersistentFlags().StringVar(&cf.abiPath, "abi", "", "Path to the contract ABI JSON")
	cmd.AddCommand(
		contractDeployCmd(flags, cf),
		contractCallCmd(flags, cf),
		contractSendCmd(flags, cf),
		contractEventsCmd(flags, cf),
		contractDecodeCmd(flags, cf),
	)
	return cmd
}

func contractDeployCmd(flags *globalFlags, cf *contractFlags) *cobra.Command {
	var (
		tf       txFlags
		code     string
		password string
		queue    bool
	)

	cmd := &cobra.Command{
		Use:   "deploy [constructor-arg]...",
		Short: "Deploy bytecode and wait until code exists at the new address",
		Long: `Deploy --code (0x hex or @file) with the constructor arguments appended.

By default the transaction is signed with --password through
personal_signAndSendTransaction. With --queue it is posted to the signer
queue instead and deploy waits until the request is confirmed elsewhere.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			bytecode, err := readHexArg(code)
			if err != nil {
				return fmt.Errorf("invalid --code: %w", err)
			}
			req, err := tf.request()
			if err != nil {
				return err
			}
			opts := contract.DeployOptions{
				OnStage: func(s contract.DeployStage) {
					if !flags.json() {
						fmt.Fprintf(os.Stderr, "  %s\n", s)
					}
				},
			}
			if !queue {
				if opts.Password, err = resolvePassword(password); err != nil {
					return err
				}
			}
			return withApp(cmd, flags, 0, func(ctx context.Context, a *app) error {
				c, err := cf.load(a)
				if err != nil {
					return err
				}
				address, err := c.Deploy(ctx, req, bytecode, stringArgs(args), opts)
				if err != nil {
					return err
				}
				return a.Print(map[string]string{"address": address}, func() {
					fmt.Printf("Deployed at %s\n", address)
				})
			})
		},
	}
	tf.register(cmd)
	cmd.Flags().StringVar(&code, "code", "", "Contract bytecode, 0x hex or @file")
	cmd.Flags().BoolVar(&queue, "queue", false, "Post to the signer queue instead of signing with a password")
	passwordFlag(cmd, &password)
	return cmd
}

func boundFunction(a *app, cf *contractFlags, address, name string) (*contract.Contract, *contract.Function, error) {
	c, err := cf.load(a)
	if err != nil {
		return nil, nil, err
	}
	fn := c.At(address).Function(name)
	if fn == nil {
		return nil, nil, fmt.Errorf("ABI has no function %q", name)
	}
	return c, fn, nil
}

func contractCallCmd(flags *globalFlags, cf *contractFlags) *cobra.Command {
	var tf txFlags

	cmd := &cobra.Command{
		Use:   "call <address> <function> [arg]...",
		Short: "Run a function with eth_call and decode the result",
		Long: `Examples:
  wallet contract call --abi erc20.json 0xA0b8...eB48 balanceOf 0x742d...f44e
  wallet contract call --abi erc20.json 0xA0b8...eB48 totalSupply`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := tf.request()
			if err != nil {
				return err
			}
			return withApp(cmd, flags, 30*time.Second, func(ctx context.Context, a *app) error {
				c, fn, err := boundFunction(a, cf, args[0], args[1])
				if err != nil {
					return err
				}
				result, err := fn.Call(ctx, req, stringArgs(args[2:])...)
				if err != nil {
					return fmt.Errorf("%s failed: %w", fn.Name, err)
				}
				return a.Print(map[string]interface{}{"function": fn.Signature, "result": result}, func() {
					output.RenderCallResult(os.Stdout, c.Address(), fn.Signature, result)
				})
			})
		},
	}
	tf.register(cmd)
	return cmd
}

func contractSendCmd(flags *globalFlags, cf *contractFlags) *cobra.Command {
	var (
		tf       txFlags
		password string
		estimate bool
	)

	cmd := &cobra.Command{
		Use:   "send <address> <function> [arg]...",
		Short: "Sign and send a state changing function call",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := tf.request()
			if err != nil {
				return err
			}
			var pw string
			if !estimate {
				if pw, err = resolvePassword(password); err != nil {
					return err
				}
			}
			return withApp(cmd, flags, 0, func(ctx context.Context, a *app) error {
				c, fn, err := boundFunction(a, cf, args[0], args[1])
				if err != nil {
					return err
				}
				if estimate {
					gas, err := fn.EstimateGas(ctx, req, stringArgs(args[2:])...)
					if err != nil {
						return err
					}
					return a.Print(map[string]string{"gas": gas.String()}, func() {
						fmt.Printf("Estimated gas: %s\n", output.FormatNumber(gas))
					})
				}
				hash, err := fn.SignAndSendTransaction(ctx, req, pw, stringArgs(args[2:])...)
				if err != nil {
					return err
				}
				receipt, err := waitReceipt(ctx, a, hash)
				if err != nil {
					return err
				}
				events, err := c.ParseTransactionEvents(receipt)
				if err != nil {
					log.Warn("Could not decode receipt events", "tx", hash, "err", err)
				}
				return a.Print(map[string]interface{}{"hash": hash, "events": events}, func() {
					fmt.Printf("Sent %s\n", hash)
					renderReceipt(receipt)
					for _, ev := range events {
						output.RenderParams(os.Stdout, ev.Signature, ev.Params)
					}
				})
			})
		},
	}
	tf.register(cmd)
	passwordFlag(cmd, &password)
	cmd.Flags().BoolVar(&estimate, "estimate", false, "Only estimate the gas")
	return cmd
}

func contractEventsCmd(flags *globalFlags, cf *contractFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "events <tx-hash>",
		Short: "Decode the events a transaction emitted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, 30*time.Second, func(ctx context.Context, a *app) error {
				c, err := cf.load(a)
				if err != nil {
					return err
				}
				receipt, err := a.API.Eth.GetTransactionReceipt(ctx, args[0])
				if err != nil {
					return err
				}
				if receipt == nil {
					return fmt.Errorf("no receipt for %s yet", args[0])
				}
				events, err := c.ParseTransactionEvents(receipt)
				if err != nil {
					return err
				}
				return a.Print(events, func() {
					for _, ev := range events {
						output.RenderParams(os.Stdout, ev.Signature+" @ "+ev.Address.Hex(), ev.Params)
					}
				})
			})
		},
	}
}

func contractDecodeCmd(flags *globalFlags, cf *contractFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <input>",
		Short: "Decode transaction input data against the ABI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readHexArg(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd, flags, 30*time.Second, func(ctx context.Context, a *app) error {
				c, err := cf.load(a)
				if err != nil {
					return err
				}
				decoded, err := c.DecodeInput(data)
				if err != nil {
					return err
				}
				result := map[string]interface{}{"function": decoded.Function.Signature, "args": decoded.Args}
				return a.Print(result, func() {
					output.RenderParams(os.Stdout, decoded.Function.Signature, decoded.Args)
				})
			})
		},
	}
}
