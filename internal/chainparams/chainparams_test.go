package chainparams

import (
	"testing"

	"github.com/runestoned/indexer/internal/runes"
	"github.com/stretchr/testify/require"
)

func TestForUnknownChain(t *testing.T) {
	_, err := For("nonsense")
	require.Error(t, err)
}

func TestMainnetScheduleStepsDownToOne(t *testing.T) {
	params, err := For(Mainnet)
	require.NoError(t, err)
	require.Equal(t, uint64(firstRuneHeight), params.FirstHeight)

	require.Equal(t, 13, runes.MinimumNameLengthAtHeight(firstRuneHeight, params.Runes.NameLengthSchedule))
	last := params.Runes.NameLengthSchedule[len(params.Runes.NameLengthSchedule)-1]
	require.Equal(t, 1, last.MinNameLength)
	require.Equal(t, 1, runes.MinimumNameLengthAtHeight(last.Height+1_000_000, params.Runes.NameLengthSchedule))
}

func TestRegtestIsFlatFromGenesis(t *testing.T) {
	params, err := For(Regtest)
	require.NoError(t, err)
	require.Equal(t, 1, runes.MinimumNameLengthAtHeight(0, params.Runes.NameLengthSchedule))
}
