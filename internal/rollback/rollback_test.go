package rollback

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/runestoned/indexer/internal/cache"
	"github.com/runestoned/indexer/internal/kv"
	"github.com/runestoned/indexer/internal/runes"
)

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	store, err := kv.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	c, err := cache.New(store, cache.Settings{MaxRecoverableReorgDepth: 6})
	require.NoError(t, err)
	return c
}

func newTestMempoolCache(t *testing.T) *cache.Cache {
	t.Helper()
	store, err := kv.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	c, err := cache.New(store, cache.Settings{Mempool: true})
	require.NoError(t, err)
	return c
}

func TestTransactionNoOpWhenNothingRecorded(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, Transaction(c, [32]byte{1}, 840000))
}

func TestTransactionUndoesEtchingAndMint(t *testing.T) {
	c := newTestCache(t)

	id := runes.Id{Block: 840000, Tx: 1}
	name, ok := runes.ParseSpacedRune("UNCOMMON•GOODS")
	require.True(t, ok)

	entry := &runes.Entry{RuneId: id, SpacedRune: name, Mints: 1}
	c.SetRuneEntry(id, entry)
	c.ReserveRuneName(name, id, 0)
	c.IncrementRuneCount()

	txid := [32]byte{2}
	mintedAmount := runes.RuneAmount{RuneId: id, Amount: runes.NewAmount(500)}
	change := &runes.TransactionStateChange{
		TxIndex: 1,
		Etched:  &runes.EtchedRune{RuneId: id, Entry: *entry},
		Minted:  &mintedAmount,
	}
	c.SetTxStateChange(txid, change)
	c.MarkTxConfirmed(txid, 840000)

	require.NoError(t, Transaction(c, txid, 840000))

	got, err := c.GetRuneEntry(id)
	require.NoError(t, err)
	require.Nil(t, got)

	_, found, err := c.LookupRuneName(name)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, uint64(0), c.RuneCount())

	_, found, err = c.TxConfirmedHeight(txid)
	require.NoError(t, err)
	require.False(t, found)

	gotChange, err := c.GetTxStateChange(txid)
	require.NoError(t, err)
	require.Nil(t, gotChange)
}

func TestTransactionRestoresConsumedInputsAndRemovesOutputs(t *testing.T) {
	c := newTestCache(t)

	txid := [32]byte{3}
	hash := chainhash.Hash(txid)
	outputOp := wire.OutPoint{Hash: hash, Index: 0}
	inputOp := wire.OutPoint{Hash: chainhash.Hash{9}, Index: 0}

	id := runes.Id{Block: 840000, Tx: 5}
	inputBalances := []runes.RuneAmount{{RuneId: id, Amount: runes.NewAmount(100)}}
	c.SetOutpointBalances(outputOp, []runes.RuneAmount{{RuneId: id, Amount: runes.NewAmount(100)}})

	change := &runes.TransactionStateChange{
		TxIndex: 5,
		Inputs:  []runes.InputConsumption{{OutPoint: inputOp, Balances: inputBalances}},
		Outputs: [][]runes.RuneAmount{{{RuneId: id, Amount: runes.NewAmount(100)}}},
	}
	c.SetTxStateChange(txid, change)

	require.NoError(t, Transaction(c, txid, 840000))

	restored, err := c.GetOutpointBalances(inputOp)
	require.NoError(t, err)
	require.Equal(t, inputBalances, restored)

	removed, err := c.GetOutpointBalances(outputOp)
	require.NoError(t, err)
	require.Empty(t, removed)
}

func TestTransactionUndoesBurn(t *testing.T) {
	c := newTestCache(t)

	id := runes.Id{Block: 840000, Tx: 7}
	entry := &runes.Entry{RuneId: id, Burned: runes.NewAmount(50)}
	c.SetRuneEntry(id, entry)

	txid := [32]byte{4}
	change := &runes.TransactionStateChange{
		Burned: map[runes.Id]runes.Amount{id: runes.NewAmount(50)},
	}
	c.SetTxStateChange(txid, change)

	require.NoError(t, Transaction(c, txid, 840000))

	got, err := c.GetRuneEntry(id)
	require.NoError(t, err)
	require.True(t, got.Burned.IsZero())
}

func TestTransactionUndoesMempoolMintDecrementsPendingOnly(t *testing.T) {
	c := newTestMempoolCache(t)

	id := runes.Id{Block: 840000, Tx: 9}
	entry := &runes.Entry{RuneId: id, Mints: 1, PendingMints: 1}
	c.SetRuneEntry(id, entry)

	txid := [32]byte{6}
	mintedAmount := runes.RuneAmount{RuneId: id, Amount: runes.NewAmount(10)}
	change := &runes.TransactionStateChange{Minted: &mintedAmount}
	c.SetTxStateChange(txid, change)

	require.NoError(t, Transaction(c, txid, 840000))

	got, err := c.GetRuneEntry(id)
	require.NoError(t, err)
	require.Equal(t, uint64(0), got.PendingMints)
	require.Equal(t, uint64(1), got.Mints)
}

func TestTransactionUndoesMempoolBurnDecrementsPendingOnly(t *testing.T) {
	c := newTestMempoolCache(t)

	id := runes.Id{Block: 840000, Tx: 10}
	entry := &runes.Entry{
		RuneId:       id,
		Burned:       runes.NewAmount(50),
		PendingBurns: runes.NewAmount(50),
	}
	c.SetRuneEntry(id, entry)

	txid := [32]byte{7}
	change := &runes.TransactionStateChange{
		Burned: map[runes.Id]runes.Amount{id: runes.NewAmount(50)},
	}
	c.SetTxStateChange(txid, change)

	require.NoError(t, Transaction(c, txid, 840000))

	got, err := c.GetRuneEntry(id)
	require.NoError(t, err)
	require.True(t, got.PendingBurns.IsZero())
	require.False(t, got.Burned.IsZero())
}

func TestTransactionReleasesCenotaphVoidedName(t *testing.T) {
	c := newTestCache(t)

	name, ok := runes.ParseSpacedRune("RARE•PEPE")
	require.True(t, ok)
	height := uint64(840000)
	voidedID := runes.Id{Block: height, Tx: 3}
	c.ReserveVoidedName(name, voidedID)

	txid := [32]byte{5}
	change := &runes.TransactionStateChange{
		TxIndex:            3,
		Cenotaph:           true,
		CenotaphEtchedName: &name,
	}
	c.SetTxStateChange(txid, change)

	require.NoError(t, Transaction(c, txid, height))

	_, found, err := c.LookupRuneName(name)
	require.NoError(t, err)
	require.False(t, found)
}
