package cache

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/runestoned/indexer/internal/kv"
	"github.com/runestoned/indexer/internal/runes"
)

func openTestCache(t *testing.T) (*kv.Store, *Cache) {
	t.Helper()
	store, err := kv.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	c, err := New(store, Settings{MaxRecoverableReorgDepth: 6})
	require.NoError(t, err)
	return store, c
}

func TestNewSeedsCountersFromEmptyStore(t *testing.T) {
	_, c := openTestCache(t)

	require.Equal(t, uint64(0), c.RuneCount())
	require.Equal(t, uint64(0), c.BlockCount())
	require.Equal(t, uint64(0), c.BlockHeightTip())
}

func TestSetNewBlockRejectsOutOfOrderHeight(t *testing.T) {
	_, c := openTestCache(t)

	err := c.SetNewBlock(5, chainhash.Hash{1}, nil)
	require.Error(t, err)
}

func TestSetNewBlockAdvancesCounters(t *testing.T) {
	_, c := openTestCache(t)

	hash := chainhash.Hash{1, 2, 3}
	require.NoError(t, c.SetNewBlock(0, hash, nil))
	require.Equal(t, uint64(1), c.BlockCount())
	require.Equal(t, uint64(0), c.BlockHeightTip())

	got, ok, err := c.BlockHash(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, hash, got)
}

func TestDeleteBlockRemovesPendingRecord(t *testing.T) {
	_, c := openTestCache(t)

	require.NoError(t, c.SetNewBlock(0, chainhash.Hash{1}, nil))
	c.DeleteBlock(0)

	_, ok, err := c.BlockRecord(0)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRewindBlockCountBypassesOrderCheck(t *testing.T) {
	_, c := openTestCache(t)

	require.NoError(t, c.SetNewBlock(0, chainhash.Hash{1}, nil))
	require.NoError(t, c.SetNewBlock(1, chainhash.Hash{2}, nil))
	c.RewindBlockCount(1)
	require.Equal(t, uint64(1), c.BlockCount())
	require.NoError(t, c.SetNewBlock(1, chainhash.Hash{3}, nil))
}

func TestRuneEntryPendingWriteAndDelete(t *testing.T) {
	_, c := openTestCache(t)

	id := runes.Id{Block: 840000, Tx: 1}
	entry := &runes.Entry{RuneId: id}
	c.SetRuneEntry(id, entry)

	got, err := c.GetRuneEntry(id)
	require.NoError(t, err)
	require.Same(t, entry, got)

	c.DeleteRuneEntry(id)
	got, err = c.GetRuneEntry(id)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestLookupRuneNameReserveThenRelease(t *testing.T) {
	_, c := openTestCache(t)

	name, ok := runes.ParseSpacedRune("UNCOMMON•GOODS")
	require.True(t, ok)
	id := runes.Id{Block: 840000, Tx: 1}

	_, found, err := c.LookupRuneName(name)
	require.NoError(t, err)
	require.False(t, found)

	c.ReserveRuneName(name, id, 0)
	gotID, found, err := c.LookupRuneName(name)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, id, gotID)

	c.ReleaseRuneName(name, id)
	_, found, err = c.LookupRuneName(name)
	require.NoError(t, err)
	require.False(t, found)
}

func TestIncrementDecrementRuneCountSaturates(t *testing.T) {
	_, c := openTestCache(t)

	c.DecrementRuneCount()
	require.Equal(t, uint64(0), c.RuneCount())

	c.IncrementRuneCount()
	c.IncrementRuneCount()
	require.Equal(t, uint64(2), c.RuneCount())

	c.DecrementRuneCount()
	require.Equal(t, uint64(1), c.RuneCount())
}

func TestPurgeBlockRemovesScriptIndexEvenWhenIndexSpentOutputsTrue(t *testing.T) {
	store, err := kv.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	c, err := New(store, Settings{IndexSpentOutputs: true})
	require.NoError(t, err)

	txid := [32]byte{1}
	inputOp := wire.OutPoint{Hash: chainhash.Hash{9}, Index: 0}
	script := []byte{0x00, 0x14, 1, 2, 3}
	inputBalances := []runes.RuneAmount{{RuneId: runes.Id{Block: 1, Tx: 1}, Amount: runes.NewAmount(7)}}

	c.SetOutpointScript(inputOp, script)
	c.SetOutpointBalances(inputOp, inputBalances)
	require.NoError(t, c.SetNewBlock(0, chainhash.Hash{2}, [][32]byte{txid}))
	c.SetTxStateChange(txid, &runes.TransactionStateChange{
		Inputs: []runes.InputConsumption{{OutPoint: inputOp, Balances: inputBalances}},
	})

	require.NoError(t, c.purgeBlock(0))

	require.Len(t, c.scriptRemovals, 1)
	require.Equal(t, inputOp, c.scriptRemovals[0].Op)
	require.Equal(t, script, c.scriptRemovals[0].Script)

	_, ok, err := c.OutpointScript(inputOp)
	require.NoError(t, err)
	require.False(t, ok, "reverse scriptPubKey index must be purged unconditionally")

	balances, err := c.GetOutpointBalances(inputOp)
	require.NoError(t, err)
	require.Equal(t, inputBalances, balances, "IndexSpentOutputs=true must retain the balance record")
}

func TestRuneTransactionsAppendsPending(t *testing.T) {
	_, c := openTestCache(t)

	id := runes.Id{Block: 840000, Tx: 2}
	txid := [32]byte{9}
	require.NoError(t, c.AddRuneTransaction(id, txid))

	got, err := c.RuneTransactions(id)
	require.NoError(t, err)
	require.Equal(t, [][32]byte{txid}, got)
}
