package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/cobra"

	"github.com/dmagro/eth-wallet-rpc/internal/api"
	"github.com/dmagro/eth-wallet-rpc/internal/contract"
	"github.com/dmagro/eth-wallet-rpc/internal/format"
	"github.com/dmagro/eth-wallet-rpc/internal/output"
)

func watchCmd(flags *globalFlags) *cobra.Command {
	var maxEvents int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow new blocks or contract events until interrupted",
	}
	cmd.PersistentFlags().IntVar(&maxEvents, "max-events", 20, "Number of feed lines kept on screen")
	cmd.AddCommand(watchHeadsCmd(flags, &maxEvents), watchEventsCmd(flags, &maxEvents))
	return cmd
}

// feedPrinter writes feed events as JSON lines, or redraws the feed on a
// terminal.
func feedPrinter(flags *globalFlags, title string, maxEvents int) func(source, msg string, sev output.EventSeverity) {
	feed := output.NewFeed(maxEvents)
	return func(source, msg string, sev output.EventSeverity) {
		ev := feed.Add(source, msg, sev)
		if flags.json() {
			_ = output.WriteJSON(os.Stdout, ev)
			return
		}
		output.RenderFeed(os.Stdout, title, feed)
	}
}

func watchHeadsCmd(flags *globalFlags, maxEvents *int) *cobra.Command {
	return &cobra.Command{
		Use:   "heads",
		Short: "Subscribe to newHeads over the WebSocket endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, 0, func(ctx context.Context, a *app) error {
				sub, err := a.Subscriptions(ctx)
				if err != nil {
					return err
				}
				emit := feedPrinter(flags, "New heads", *maxEvents)
				fail := make(chan error, 1)

				id, err := sub.Pubsub.NewHeads(ctx, func(err error, b *format.Block) {
					if err != nil {
						select {
						case fail <- err:
						default:
						}
						return
					}
					msg := fmt.Sprintf("#%s %d txs gas %s", output.FormatNumber(b.Number), b.TxCount(), output.FormatNumber(b.GasUsed))
					emit("heads", msg, output.SeverityInfo)
				})
				if err != nil {
					return fmt.Errorf("failed to subscribe: %w", err)
				}
				log.Info("Watching new heads", "subscription", id)
				return waitSubscription(ctx, sub, id, fail)
			})
		},
	}
}

func waitSubscription(ctx context.Context, sub *api.API, id string, fail <-chan error) error {
	err := awaitEnd(ctx, fail)
	if err == nil {
		unsubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, _ = sub.Pubsub.Unsubscribe(unsubCtx, "eth", id)
	}
	return err
}

// awaitEnd blocks until ctx is done or the subscription reports a failure.
// Failures caused by ctx being cancelled count as a clean stop.
func awaitEnd(ctx context.Context, fail <-chan error) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-fail:
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscription ended: %w", err)
	}
}

func watchEventsCmd(flags *globalFlags, maxEvents *int) *cobra.Command {
	var (
		cf    contractFlags
		event string
	)

	cmd := &cobra.Command{
		Use:   "events <address>",
		Short: "Decode contract events as they are mined",
		Long: `Watch the events of a contract. With node.ws_url configured a logs
subscription is used, otherwise a filter is polled.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := format.ValidateAddress(args[0]); err != nil {
				return err
			}
			return withApp(cmd, flags, 0, func(ctx context.Context, a *app) (err error) {
				on := a.API
				if a.cfg.Node.WSURL != "" {
					if on, err = a.Subscriptions(ctx); err != nil {
						return err
					}
				}
				abiJSON, err := cf.abi()
				if err != nil {
					return err
				}
				c, err := a.contractOn(on, abiJSON)
				if err != nil {
					return err
				}
				c.At(args[0])

				title := "Events of " + c.Address()
				emit := feedPrinter(flags, title, *maxEvents)
				fail := make(chan error, 1)
				sub, err := c.SubscribeEvent(ctx, event, func(err error, ev *contract.EventLog) {
					if err != nil {
						select {
						case fail <- err:
						default:
						}
						return
					}
					emit(ev.Event, describeParams(ev.Params), output.SeverityInfo)
				})
				if err != nil {
					return err
				}

				err = awaitEnd(ctx, fail)
				if uerr := sub.Unsubscribe(context.Background()); uerr != nil {
					log.Debug("Unsubscribe failed", "err", uerr)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&cf.abiPath, "abi", "", "Path to the contract ABI JSON")
	cmd.Flags().StringVar(&event, "event", "", "Event name (all events when empty)")
	return cmd
}

func describeParams(params map[string]interface{}) string {
	parts := make([]string, 0, len(params))
	for name, v := range params {
		parts = append(parts, name+"="+output.FormatValue(v))
	}
	sort.Strings(parts)
	return strings.Join(parts, " ")
}
