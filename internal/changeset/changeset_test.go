package changeset

import (
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/require"
)

func TestCategorizeBuckets(t *testing.T) {
	u := New()

	u.UpdateMempool(Delta{Added: setOf("mined", "stays-in-mempool"), Removed: setOf()})
	u.AddBlockTx("mined")
	u.AddBlockTx("new-in-block")
	u.UpdateMempool(Delta{Added: setOf(), Removed: setOf("evicted", "mined")})
	u.RemoveBlockTx("reorged-out")
	u.RemoveBlockTx("reorged-and-remined")
	u.AddBlockTx("reorged-and-remined")
	u.UpdateMempool(Delta{Added: setOf("reorged-out"), Removed: setOf()})

	cat := u.Categorize()
	require.True(t, cat.MinedFromMempool.Contains("mined"))
	require.True(t, cat.NewInMempoolOnly.Contains("stays-in-mempool"))
	require.True(t, cat.NewBlockOnly.Contains("new-in-block"))
	require.True(t, cat.MempoolRBFOrEvicted.Contains("evicted"))
	require.True(t, cat.ReorgedBackToMempool.Contains("reorged-out"))
	require.True(t, cat.ReorgedOutAndRemined.Contains("reorged-and-remined"))
	require.False(t, cat.ReorgedOutEntirely.Contains("reorged-out"))
}

func TestIsEmptyAndReset(t *testing.T) {
	u := New()
	require.True(t, u.IsEmpty())

	u.AddBlockTx("a")
	require.False(t, u.IsEmpty())

	u.Reset()
	require.True(t, u.IsEmpty())
}

func TestEnoughEventsToSend(t *testing.T) {
	u := New()
	for i := 0; i < 10_001; i++ {
		u.AddBlockTx(string(rune(i)))
	}
	require.True(t, u.EnoughEventsToSend())
}

func setOf(items ...string) TxidSet {
	s := mapset.NewThreadUnsafeSet[string]()
	for _, item := range items {
		s.Add(item)
	}
	return s
}
