package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/output"
)

// passwordEnv is read when --password is not given.
const passwordEnv = "WALLET_PASSWORD"

func passwordFlag(cmd *cobra.Command, password *string) {
	cmd.Flags().StringVar(password, "password", "", "Account password (default $"+passwordEnv+")")
}

func resolvePassword(password string) (string, error) {
	if password != "" {
		return password, nil
	}
	if p := os.Getenv(passwordEnv); p != "" {
		return p, nil
	}
	return "", fmt.Errorf("a password is required (--password or $%s)", passwordEnv)
}

func accountsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "List and manage accounts",
	}
	cmd.AddCommand(
		accountsListCmd(flags),
		accountsNewCmd(flags),
		accountsPhraseCmd(flags),
		accountsRenameCmd(flags),
		accountsRemoveCmd(flags),
	)
	return cmd
}

func accountsListCmd(flags *globalFlags) *cobra.Command {
	var withBalances bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List accounts with names and balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, 30*time.Second, func(ctx context.Context, a *app) error {
				info, err := a.API.Parity.AllAccountsInfo(ctx)
				if err != nil {
					return fmt.Errorf("failed to list accounts: %w", err)
				}
				def, err := a.API.Parity.DefaultAccount(ctx)
				if err != nil {
					return err
				}
				var balances map[string]*big.Int
				if withBalances && len(info) > 0 {
					addrs := make([]string, 0, len(info))
					for addr := range info {
						addrs = append(addrs, addr)
					}
					if balances, err = fetchBalances(ctx, a.API, addrs, format.Latest); err != nil {
						return err
					}
				}
				rows := output.AccountRows(info, balances, def)
				return a.Print(rows, func() { output.RenderAccounts(os.Stdout, rows) })
			})
		},
	}
	cmd.Flags().BoolVar(&withBalances, "balances", true, "Also fetch balances")
	return cmd
}

func accountsNewCmd(flags *globalFlags) *cobra.Command {
	var (
		phrase   string
		secret   string
		name     string
		password string
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an account from a recovery phrase or a raw secret",
		Long: `Create an account. Without --phrase or --secret a new recovery phrase
is generated and printed once; keep it safe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if phrase != "" && secret != "" {
				return fmt.Errorf("--phrase and --secret are mutually exclusive")
			}
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			return withApp(cmd, flags, time.Minute, func(ctx context.Context, a *app) error {
				generated := false
				if phrase == "" && secret == "" {
					if phrase, err = a.API.Parity.GenerateSecretPhrase(ctx); err != nil {
						return err
					}
					generated = true
				}

				var address string
				if secret != "" {
					address, err = a.API.Parity.NewAccountFromSecret(ctx, secret, pw)
				} else {
					address, err = a.API.Parity.NewAccountFromPhrase(ctx, phrase, pw)
				}
				if err != nil {
					return fmt.Errorf("failed to create account: %w", err)
				}
				if name != "" {
					if _, err := a.API.Parity.SetAccountName(ctx, address, name); err != nil {
						return err
					}
				}

				result := map[string]string{"address": address}
				if generated {
					result["phrase"] = phrase
				}
				return a.Print(result, func() {
					fmt.Printf("Created account %s\n", address)
					if generated {
						fmt.Printf("Recovery phrase: %s\n", phrase)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&phrase, "phrase", "", "Recovery phrase to derive the key from")
	cmd.Flags().StringVar(&secret, "secret", "", "Hex private key to import")
	cmd.Flags().StringVar(&name, "name", "", "Account name")
	passwordFlag(cmd, &password)
	return cmd
}

func accountsPhraseCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "phrase [phrase]",
		Short: "Generate a recovery phrase or show the address a phrase derives",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, time.Minute, func(ctx context.Context, a *app) error {
				var phrase string
				var err error
				if len(args) == 1 {
					phrase = args[0]
				} else if phrase, err = a.API.Parity.GenerateSecretPhrase(ctx); err != nil {
					return err
				}
				address, err := a.API.Parity.PhraseToAddress(ctx, phrase)
				if err != nil {
					return err
				}
				result := map[string]string{"phrase": phrase, "address": address}
				return a.Print(result, func() {
					fmt.Printf("%s\n%s\n", phrase, address)
				})
			})
		},
	}
}

func accountsRenameCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <address> <name>",
		Short: "Set the display name of an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, 30*time.Second, func(ctx context.Context, a *app) error {
				ok, err := a.API.Parity.SetAccountName(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return a.Print(map[string]bool{"ok": ok}, func() {
					fmt.Printf("Renamed %s to %q\n", format.OutAddress(args[0]), args[1])
				})
			})
		},
	}
}

func accountsRemoveCmd(flags *globalFlags) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "remove <address>",
		Short: "Delete an account after checking its password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := resolvePassword(password)
			if err != nil {
				return err
			}
			return withApp(cmd, flags, time.Minute, func(ctx context.Context, a *app) error {
				ok, err := a.API.Parity.KillAccount(ctx, args[0], pw)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("account %s was not removed, check the password", args[0])
				}
				return a.Print(map[string]bool{"ok": ok}, func() {
					fmt.Printf("Removed %s\n", format.OutAddress(args[0]))
				})
			})
		},
	}
	passwordFlag(cmd, &password)
	return cmd
}
