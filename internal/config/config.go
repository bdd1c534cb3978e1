// Package config loads runestoned's configuration from flags, the
// environment, and a config file, in that order of precedence (flags
// left at their defaults rank below the other two), using the
// same viper/pflag/cast layering the teacher's CLI tooling uses.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/runestoned/indexer/internal/chainparams"
)

// Config is everything a running indexer needs: where to store data,
// which node to index from, which network it's on, and how often to
// tick.
type Config struct {
	DataDir string

	Chain chainparams.Chain

	RPCEndpoint string
	RPCUser     string
	RPCPass     string

	TickInterval    time.Duration
	FlushInterval   int
	DebounceWindow  time.Duration
	MaxReorgDepth   uint64
	IndexSpentOuts  bool
	RunMempool      bool

	TCPListenAddr string
	HTTPListenAddr string

	LogLevel string
}

// Flags registers every Config field onto fs, a plain *pflag.FlagSet that
// cmd/runestoned parses itself before starting its urfave/cli.App.
func Flags(fs *pflag.FlagSet) {
	fs.String("datadir", "./data", "directory holding the pebble-backed store")
	fs.String("chain", string(chainparams.Mainnet), "mainnet, testnet, signet, or regtest")
	fs.String("rpc-endpoint", "http://127.0.0.1:8332", "Bitcoin Core JSON-RPC endpoint")
	fs.String("rpc-user", "", "Bitcoin Core RPC username")
	fs.String("rpc-pass", "", "Bitcoin Core RPC password")
	fs.Duration("tick-interval", 10*time.Second, "how often to poll the node for new blocks and mempool state")
	fs.Int("flush-interval", 1000, "blocks staged in the cache before a flush window commits")
	fs.Duration("debounce-window", 30*time.Second, "how long a seen mempool txid is suppressed from re-indexing")
	fs.Uint64("max-reorg-depth", 6, "deepest reorg the Block Pipeline will walk back to recover from")
	fs.Bool("index-spent-outputs", false, "keep outpoint balances around after they're spent")
	fs.Bool("mempool", true, "run the Mempool Pipeline alongside the Block Pipeline")
	fs.String("tcp-listen-addr", ":8090", "line-delimited JSON event subscription listener")
	fs.String("http-listen-addr", ":8091", "WebSocket event subscription and metrics listener")
	fs.String("log-level", "info", "debug, info, warn, or error")
}

// Load reads fs-bound flags, a config file at configPath (if non-empty
// and present), and RUNESTONED_-prefixed environment variables into a
// Config. A flag set on the command line wins over the environment, which
// wins over the config file; flag defaults apply only where none sets a key.
func Load(fs *pflag.FlagSet, configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RUNESTONED")
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return nil, fmt.Errorf("config: read %s: %w", configPath, err)
			}
		}
	}

	maxReorgDepth, err := cast.ToUint64E(v.Get("max-reorg-depth"))
	if err != nil {
		return nil, fmt.Errorf("config: max-reorg-depth: %w", err)
	}

	return &Config{
		DataDir:        v.GetString("datadir"),
		Chain:          chainparams.Chain(v.GetString("chain")),
		RPCEndpoint:    v.GetString("rpc-endpoint"),
		RPCUser:        v.GetString("rpc-user"),
		RPCPass:        v.GetString("rpc-pass"),
		TickInterval:   v.GetDuration("tick-interval"),
		FlushInterval:  v.GetInt("flush-interval"),
		DebounceWindow: v.GetDuration("debounce-window"),
		MaxReorgDepth:  maxReorgDepth,
		IndexSpentOuts: v.GetBool("index-spent-outputs"),
		RunMempool:     v.GetBool("mempool"),
		TCPListenAddr:  v.GetString("tcp-listen-addr"),
		HTTPListenAddr: v.GetString("http-listen-addr"),
		LogLevel:       v.GetString("log-level"),
	}, nil
}
