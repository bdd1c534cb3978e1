package indexer

import (
	"testing"

	"github.com/runestoned/indexer/internal/cache"
	"github.com/runestoned/indexer/internal/events"
	"github.com/runestoned/indexer/internal/pipeline"
	"github.com/runestoned/indexer/internal/rpcnode"
	"github.com/runestoned/indexer/internal/runes"
	"github.com/stretchr/testify/require"
)

func newTestIndexer() (*Indexer, *events.Dispatcher) {
	node := rpcnode.NewMock()
	block := pipeline.NewBlock(nil, node, cache.Settings{}, runes.Params{}, 1000)
	dispatcher := events.NewDispatcher()
	return New(block, nil, dispatcher, nil), dispatcher
}

func TestIndexerCategorizesMinedFromMempool(t *testing.T) {
	ix, _ := newTestIndexer()

	ix.observe(events.Event{Type: events.TypeTransactionsAdded, TxIds: []string{"a", "b"}})
	ix.observe(events.Event{Type: events.TypeNewBlock, TxIds: []string{"a", "c"}})
	ix.observe(events.Event{Type: events.TypeTransactionsReplaced, TxIds: []string{"a"}})

	cat := ix.Categorized()
	require.True(t, cat.MinedFromMempool.Contains("a"))
	require.True(t, cat.NewInMempoolOnly.Contains("b"))
	require.True(t, cat.NewBlockOnly.Contains("c"))
}

func TestIndexerForwardsEveryEventToDispatcher(t *testing.T) {
	ix, dispatcher := newTestIndexer()
	_, ch := dispatcher.Subscribe(nil)

	ix.observe(events.Event{Type: events.TypeNewBlock, BlockHeight: 5, TxIds: []string{"a"}})

	select {
	case e := <-ch:
		require.Equal(t, uint64(5), e.BlockHeight)
	default:
		t.Fatal("expected event forwarded to dispatcher")
	}
}

func TestIndexerResetClearsChangesetBetweenTicks(t *testing.T) {
	ix, _ := newTestIndexer()

	ix.observe(events.Event{Type: events.TypeNewBlock, TxIds: []string{"a"}})
	require.True(t, ix.Categorized().NewBlockOnly.Contains("a"))

	ix.update.Reset()
	require.False(t, ix.Categorized().NewBlockOnly.Contains("a"))
}
