// runestoned indexes Bitcoin Runes protocol state from a node's best
// chain and mempool into a local store, and streams state-change events
// to TCP and WebSocket subscribers.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/runestoned/indexer/internal/cache"
	"github.com/runestoned/indexer/internal/chainparams"
	"github.com/runestoned/indexer/internal/config"
	"github.com/runestoned/indexer/internal/events"
	"github.com/runestoned/indexer/internal/indexer"
	"github.com/runestoned/indexer/internal/kv"
	"github.com/runestoned/indexer/internal/log"
	"github.com/runestoned/indexer/internal/metrics"
	"github.com/runestoned/indexer/internal/pipeline"
	"github.com/runestoned/indexer/internal/query"
	"github.com/runestoned/indexer/internal/rpcnode"
)

func main() {
	fs := pflag.NewFlagSet("runestoned", pflag.ContinueOnError)
	config.Flags(fs)
	configPath := fs.String("config", "", "path to a YAML/JSON/TOML config file")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load(fs, *configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := &cli.App{
		Name:    "runestoned",
		Usage:   "Bitcoin Runes protocol indexer",
		Version: "0.1.0",
		Action: func(*cli.Context) error {
			return run(cfg)
		},
	}

	// Flags are already consumed by pflag above; cli.App only supplies
	// command scaffolding (help, version) and the Action lifecycle, so
	// it is run with no arguments of its own.
	if err := app.Run([]string{os.Args[0]}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("runestoned: log level: %w", err)
	}
	log.SetDefault(log.New(level, nil))

	params, err := chainparams.For(cfg.Chain)
	if err != nil {
		return err
	}

	store, err := kv.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("runestoned: open store: %w", err)
	}
	defer store.Close()
	if err := store.EnsureSchemaVersion(); err != nil {
		return fmt.Errorf("runestoned: schema version: %w", err)
	}

	settings := cache.Settings{
		MaxRecoverableReorgDepth: cfg.MaxReorgDepth,
		IndexSpentOutputs:        cfg.IndexSpentOuts,
	}

	node := rpcnode.NewHTTPClient(cfg.RPCEndpoint, cfg.RPCUser, cfg.RPCPass)

	block := pipeline.NewBlock(store, node, settings, params.Runes, cfg.FlushInterval)

	var mempool *pipeline.Mempool
	if cfg.RunMempool {
		mempool = pipeline.NewMempool(store, node, settings, params.Runes, cfg.DebounceWindow)
	}

	reg := prometheus.NewRegistry()
	reporter := metrics.New(reg)

	dispatcher := events.NewDispatcher()
	ix := indexer.New(block, mempool, dispatcher, reporter)

	q := query.New(store)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tcpListener, err := newTCPListener(cfg.TCPListenAddr)
	if err != nil {
		return fmt.Errorf("runestoned: tcp listen: %w", err)
	}
	tcpServer := events.NewTCPServer(dispatcher)
	go func() {
		if err := tcpServer.Serve(ctx, tcpListener); err != nil {
			log.Error("tcp subscription server stopped", "error", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("/subscribe", events.NewWebSocketHandler(dispatcher))
	mux.HandleFunc("/status", statusHandler(q))
	httpServer := &http.Server{Addr: cfg.HTTPListenAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server stopped", "error", err)
		}
	}()

	log.Info("runestoned starting", "chain", string(cfg.Chain), "datadir", cfg.DataDir)
	err = ix.Run(ctx, cfg.TickInterval)
	httpServer.Close()
	return err
}

func newTCPListener(addr string) (net.Listener, error) {
	return net.Listen("tcp", addr)
}

func statusHandler(q *query.Queryset) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, err := q.Status()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"tip_height":%d,"tip_known":%t,"purged_through":%d,"rune_count":%d}`,
			status.TipHeight, status.TipKnown, status.PurgedThrough, status.RuneCount)
	}
}
