package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/dmagro/eth-wallet-rpc/internal/env"
	"github.com/dmagro/eth-wallet-rpc/internal/output"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	envPath    string
	format     string
	local      bool
	stats      bool
	verbosity  int
	noColor    bool
}

func (g *globalFlags) json() bool { return g.format == "json" }

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "wallet",
		Short: "Parity JSON-RPC wallet client",
		Long: `Query an Ethereum node over JSON-RPC, manage accounts and sign
transactions either on the node or locally.

With --local (or local_accounts.enabled in the config) account and signer
calls are answered by an in-process keystore instead of the node.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch flags.format {
			case "terminal", "json":
			default:
				return fmt.Errorf("unknown format %q (terminal|json)", flags.format)
			}
			if flags.noColor || flags.json() {
				output.DisableColor()
			}
			setupLogging(flags.verbosity)
			return env.Load(flags.envPath)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file path (defaults apply when empty)")
	pf.StringVar(&flags.envPath, "env", "", "Environment file loaded before the config (default .env)")
	pf.StringVar(&flags.format, "format", "terminal", "Output format: terminal|json")
	pf.BoolVar(&flags.local, "local", false, "Sign with local accounts instead of the node")
	pf.BoolVar(&flags.stats, "stats", false, "Print per-method RPC call statistics when done")
	pf.IntVar(&flags.verbosity, "verbosity", 2, "Log level: 0=crit 1=error 2=warn 3=info 4=debug 5=trace")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		blockCmd(flags),
		balanceCmd(flags),
		accountsCmd(flags),
		txCmd(flags),
		contractCmd(flags),
		watchCmd(flags),
	)
	return root
}

func setupLogging(verbosity int) {
	useColor := os.Getenv("NO_COLOR") == ""
	handler := log.NewTerminalHandlerWithLevel(os.Stderr, log.FromLegacyLevel(verbosity), useColor)
	log.SetDefault(log.NewLogger(handler))
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
