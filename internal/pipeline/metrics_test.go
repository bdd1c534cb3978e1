package pipeline

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/runestoned/indexer/internal/metrics"
	"github.com/runestoned/indexer/internal/runes"
)

func TestObserveChangeNilRegistryIsNoop(t *testing.T) {
	observeChange(nil, &runes.TransactionStateChange{Etched: &runes.EtchedRune{}})
}

func TestObserveChangeNilChangeIsNoop(t *testing.T) {
	reg := metrics.New(prometheus.NewRegistry())
	observeChange(reg, nil)
	require.Zero(t, testutil.ToFloat64(reg.RunesEtched))
}

func TestObserveChangeIncrementsCountersForEachEffect(t *testing.T) {
	reg := metrics.New(prometheus.NewRegistry())
	id := runes.Id{Block: 1, Tx: 1}

	observeChange(reg, &runes.TransactionStateChange{
		Etched: &runes.EtchedRune{RuneId: id},
		Minted: &runes.RuneAmount{RuneId: id, Amount: runes.NewAmount(1)},
		Burned: map[runes.Id]runes.Amount{id: runes.NewAmount(1)},
	})

	require.Equal(t, float64(1), testutil.ToFloat64(reg.RunesEtched))
	require.Equal(t, float64(1), testutil.ToFloat64(reg.RunesMinted))
	require.Equal(t, float64(1), testutil.ToFloat64(reg.RunesBurned))
}
