package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/dmagro/eth-wallet-rpc/internal/api"
	"github.com/dmagro/eth-wallet-rpc/internal/config"
	"github.com/dmagro/eth-wallet-rpc/internal/contract"
	"github.com/dmagro/eth-wallet-rpc/internal/local"
	"github.com/dmagro/eth-wallet-rpc/internal/metrics"
	"github.com/dmagro/eth-wallet-rpc/internal/output"
	"github.com/dmagro/eth-wallet-rpc/internal/rpc"
)

// app owns everything a command needs: the transport stack, the module
// clients and, when enabled, the local account middleware.
type app struct {
	flags *globalFlags
	cfg   *config.Config

	pool       *rpc.Pool
	collector  *metrics.Collector
	metricsSrv *http.Server

	storage    local.Storage
	workers    *local.WorkerPool
	middleware *local.Middleware

	API *api.API
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp dials the node and assembles the transport chain:
// node transport -> metrics instrumentation -> local middleware (optional).
func newApp(ctx context.Context, flags *globalFlags) (*app, error) {
	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	a := &app{flags: flags, cfg: cfg, pool: rpc.NewPool(), collector: metrics.NewCollector()}

	if cfg.Metrics.Listen != "" {
		if err := a.serveMetrics(cfg.Metrics.Listen); err != nil {
			return nil, err
		}
	}

	node, err := a.pool.GetOrDial(ctx, "node", cfg.Node.URL, cfg.Node.Timeout)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Node.URL, err)
	}
	var transport rpc.Transport = node
	if a.instrumented() {
		transport = metrics.Instrument(node, a.collector)
	}

	if flags.local || cfg.LocalAccounts.Enabled {
		if transport, err = a.withLocalAccounts(transport); err != nil {
			a.Close()
			return nil, err
		}
	}
	a.API = api.New(transport)
	log.Debug("Connected", "url", cfg.Node.URL, "local", a.middleware != nil)
	return a, nil
}

func (a *app) instrumented() bool {
	return a.flags.stats || a.cfg.Metrics.Enabled || a.cfg.Metrics.Listen != ""
}

func (a *app) withLocalAccounts(inner rpc.Transport) (rpc.Transport, error) {
	lc := a.cfg.LocalAccounts
	storage, err := local.OpenStorage(lc.Storage, lc.Path)
	if err != nil {
		return nil, err
	}
	a.storage = storage
	a.workers = local.NewWorkerPool(a.cfg.Workers.Size, a.cfg.Workers.Queue)

	accounts, err := local.NewAccounts(storage, a.workers, local.WithPersistDelay(lc.PersistDelay))
	if err != nil {
		return nil, fmt.Errorf("failed to load local accounts: %w", err)
	}
	var opts []local.MiddlewareOption
	if id := lc.ChainIDBig(); id != nil {
		opts = append(opts, local.WithChainID(id))
	}
	a.middleware = local.NewMiddleware(inner, accounts, opts...)
	return a.middleware, nil
}

func (a *app) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPrometheus(reg)
	if err != nil {
		return err
	}
	a.collector.WithPrometheus(prom)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics endpoint failed", "addr", addr, "err", err)
		}
	}()
	log.Info("Serving metrics", "addr", addr)
	return nil
}

// Subscriptions returns module clients over the WebSocket endpoint, for
// commands that need push notifications.
func (a *app) Subscriptions(ctx context.Context) (*api.API, error) {
	url := a.cfg.Node.WSURL
	if url == "" {
		return nil, fmt.Errorf("node.ws_url is required for subscriptions")
	}
	ws, err := a.pool.GetOrDial(ctx, "ws", url, a.cfg.Node.Timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	if a.instrumented() {
		ws = metrics.Instrument(ws, a.collector)
	}
	sub := api.New(ws)
	if sub.Pubsub == nil {
		return nil, fmt.Errorf("%s does not support subscriptions", url)
	}
	return sub, nil
}

// Contract binds abiJSON with the configured polling behavior.
func (a *app) Contract(abiJSON string) (*contract.Contract, error) {
	return a.contractOn(a.API, abiJSON)
}

func (a *app) contractOn(on *api.API, abiJSON string) (*contract.Contract, error) {
	return contract.New(on, abiJSON,
		contract.WithPollInterval(a.cfg.Contracts.PollInterval),
		contract.WithPollTimeout(a.cfg.Contracts.PollTimeout))
}

// Print renders v as JSON or, in terminal mode, calls terminal.
func (a *app) Print(v interface{}, terminal func()) error {
	if a.flags.json() {
		return output.WriteJSON(os.Stdout, v)
	}
	terminal()
	return nil
}

// Close flushes local accounts, prints call statistics when requested and
// releases every connection.
func (a *app) Close() {
	if a.middleware != nil {
		if err := a.middleware.Accounts().Close(); err != nil {
			log.Warn("Failed to flush local accounts", "err", err)
		}
	}
	if a.workers != nil {
		a.workers.Close()
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			log.Warn("Failed to close account storage", "err", err)
		}
	}
	if a.flags.stats {
		sorted := a.collector.Sorted()
		if a.flags.json() {
			_ = output.WriteJSON(os.Stderr, output.NewStatsJSON(sorted))
		} else {
			fmt.Fprintln(os.Stderr)
			output.RenderStats(os.Stderr, sorted)
		}
	}
	if a.metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		_ = a.metricsSrv.Shutdown(ctx)
		cancel()
	}
	if err := a.pool.CloseAll(); err != nil {
		log.Debug("Closing transports", "err", err)
	}
}

// withApp builds the app, runs fn with a context bound to the configured
// timeout budget, and tears everything down afterwards.
func withApp(cmd *cobra.Command, flags *globalFlags, timeout time.Duration,
	fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
