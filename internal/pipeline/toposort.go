package pipeline

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// topoSortByDependency orders txids so that a parent spent by another
// mempool transaction in the same batch always precedes its child,
// dropping any id missing from fetched (vanished between listing and
// fetch). Without this, indexing a child before its own-batch parent
// would see a zero balance on the input the parent's output hasn't been
// written yet.
func topoSortByDependency(txids []chainhash.Hash, fetched map[[32]byte]*wire.MsgTx) []chainhash.Hash {
	visited := make(map[[32]byte]bool, len(fetched))
	visiting := make(map[[32]byte]bool, len(fetched))
	ordered := make([]chainhash.Hash, 0, len(fetched))

	var visit func(id [32]byte)
	visit = func(id [32]byte) {
		if visited[id] || visiting[id] {
			return
		}
		tx, ok := fetched[id]
		if !ok {
			return
		}
		visiting[id] = true
		for _, in := range tx.TxIn {
			parent := [32]byte(in.PreviousOutPoint.Hash)
			if parent == id {
				continue
			}
			visit(parent)
		}
		visiting[id] = false
		visited[id] = true
		ordered = append(ordered, chainhash.Hash(id))
	}

	for _, id := range txids {
		visit([32]byte(id))
	}
	return ordered
}
