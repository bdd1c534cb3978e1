package pipeline

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func txSpending(parents ...chainhash.Hash) *wire.MsgTx {
	tx := &wire.MsgTx{}
	for _, p := range parents {
		tx.TxIn = append(tx.TxIn, &wire.TxIn{PreviousOutPoint: wire.OutPoint{Hash: p}})
	}
	return tx
}

func indexOf(t *testing.T, ordered []chainhash.Hash, id chainhash.Hash) int {
	t.Helper()
	for i, h := range ordered {
		if h == id {
			return i
		}
	}
	t.Fatalf("%s not present in ordered output", id)
	return -1
}

func TestTopoSortOrdersParentBeforeChild(t *testing.T) {
	parent := chainhash.Hash{1}
	child := chainhash.Hash{2}
	fetched := map[[32]byte]*wire.MsgTx{
		[32]byte(child):  txSpending(parent),
		[32]byte(parent): txSpending(),
	}

	ordered := topoSortByDependency([]chainhash.Hash{child, parent}, fetched)
	require.Len(t, ordered, 2)
	require.Less(t, indexOf(t, ordered, parent), indexOf(t, ordered, child))
}

func TestTopoSortHandlesChainOfThree(t *testing.T) {
	a := chainhash.Hash{1}
	b := chainhash.Hash{2}
	c := chainhash.Hash{3}
	fetched := map[[32]byte]*wire.MsgTx{
		[32]byte(a): txSpending(),
		[32]byte(b): txSpending(a),
		[32]byte(c): txSpending(b),
	}

	ordered := topoSortByDependency([]chainhash.Hash{c, b, a}, fetched)
	require.Equal(t, []chainhash.Hash{a, b, c}, ordered)
}

func TestTopoSortDropsUnfetchedIds(t *testing.T) {
	present := chainhash.Hash{1}
	vanished := chainhash.Hash{2}
	fetched := map[[32]byte]*wire.MsgTx{
		[32]byte(present): txSpending(),
	}

	ordered := topoSortByDependency([]chainhash.Hash{present, vanished}, fetched)
	require.Equal(t, []chainhash.Hash{present}, ordered)
}

func TestTopoSortIgnoresDependenciesOutsideTheBatch(t *testing.T) {
	confirmedParent := chainhash.Hash{9}
	id := chainhash.Hash{1}
	fetched := map[[32]byte]*wire.MsgTx{
		[32]byte(id): txSpending(confirmedParent),
	}

	ordered := topoSortByDependency([]chainhash.Hash{id}, fetched)
	require.Equal(t, []chainhash.Hash{id}, ordered)
}
