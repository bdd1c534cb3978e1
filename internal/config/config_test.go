package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse(nil))

	cfg, err := Load(fs, "")
	require.NoError(t, err)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, 10*time.Second, cfg.TickInterval)
	require.Equal(t, uint64(6), cfg.MaxReorgDepth)
	require.True(t, cfg.RunMempool)
}

func TestLoadOverridesFromFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Flags(fs)
	require.NoError(t, fs.Parse([]string{"--chain=regtest", "--max-reorg-depth=2", "--mempool=false"}))

	cfg, err := Load(fs, "")
	require.NoError(t, err)
	require.EqualValues(t, "regtest", cfg.Chain)
	require.Equal(t, uint64(2), cfg.MaxReorgDepth)
	require.False(t, cfg.RunMempool)
}
