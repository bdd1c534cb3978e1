package updater

import (
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/runestoned/indexer/internal/cache"
)

// AddressUpdater aggregates one flush window's scriptPubKey <-> outpoint
// churn — every output created and every input spent across every
// transaction in the window — before handing the net result to the cache
// as one batch of per-script deltas. Outpoints created and spent within
// the same window net to nothing instead of round-tripping through the
// store.
type AddressUpdater struct {
	newOutpoints   map[wire.OutPoint][]byte
	spentOutpoints map[wire.OutPoint]struct{}
}

func NewAddressUpdater() *AddressUpdater {
	return &AddressUpdater{
		newOutpoints:   map[wire.OutPoint][]byte{},
		spentOutpoints: map[wire.OutPoint]struct{}{},
	}
}

// AddNewOutpoint remembers op's scriptPubKey, unless it's an OP_RETURN
// output, which never carries a spendable balance worth indexing by
// address.
func (a *AddressUpdater) AddNewOutpoint(op wire.OutPoint, script []byte) {
	if isOpReturnScript(script) {
		return
	}
	a.newOutpoints[op] = append([]byte(nil), script...)
}

// AddSpentOutpoint remembers that op was spent within this window.
func (a *AddressUpdater) AddSpentOutpoint(op wire.OutPoint) {
	a.spentOutpoints[op] = struct{}{}
}

// Flush aggregates this window's churn into c's pending script deltas and
// resets for the next window.
func (a *AddressUpdater) Flush(c *cache.Cache) error {
	var err error
	if c.Settings.Mempool {
		err = a.flushMempool(c)
	} else {
		err = a.flushBlock(c)
	}
	a.newOutpoints = map[wire.OutPoint][]byte{}
	a.spentOutpoints = map[wire.OutPoint]struct{}{}
	return err
}

// flushBlock mirrors the new-then-spent partitioning: an outpoint spent
// outside this window resolves its script from the reverse index and is
// staged as removed; an outpoint created this window is staged as added,
// unless it was also spent this window, in which case it's staged as
// removed instead and never touches the forward index at all.
func (a *AddressUpdater) flushBlock(c *cache.Cache) error {
	newAndSpent := map[wire.OutPoint]struct{}{}
	for op := range a.spentOutpoints {
		if _, ok := a.newOutpoints[op]; ok {
			newAndSpent[op] = struct{}{}
		}
	}

	deltas := map[string]cache.ScriptDelta{}
	stage := func(script []byte, op wire.OutPoint, added bool) {
		key := string(script)
		d := deltas[key]
		if added {
			d.Added = append(d.Added, op)
		} else {
			d.Removed = append(d.Removed, op)
		}
		deltas[key] = d
	}

	for op := range a.spentOutpoints {
		if _, ok := newAndSpent[op]; ok {
			continue // handled alongside its creation below
		}
		script, ok, err := c.OutpointScript(op)
		if err != nil {
			return err
		}
		if !ok {
			continue // never indexed by address (OP_RETURN, or pre-dates the address index)
		}
		stage(script, op, false)
	}

	for op, script := range a.newOutpoints {
		if _, ok := newAndSpent[op]; ok {
			stage(script, op, false)
			continue
		}
		stage(script, op, true)
		c.SetOutpointScript(op, script)
	}

	c.SetScriptDeltas(deltas)
	return nil
}

// flushMempool only ever stages additions: mempool outputs are provisional
// and never age into the purge-safe reverse index the block path relies
// on, so a mempool-spent outpoint simply never gets promoted to "added"
// rather than generating a paired removal.
func (a *AddressUpdater) flushMempool(c *cache.Cache) error {
	deltas := map[string]cache.ScriptDelta{}
	for op, script := range a.newOutpoints {
		if _, ok := a.spentOutpoints[op]; ok {
			continue
		}
		d := deltas[string(script)]
		d.Added = append(d.Added, op)
		deltas[string(script)] = d
		c.SetOutpointScript(op, script)
	}
	c.SetScriptDeltas(deltas)
	return nil
}

func isOpReturnScript(script []byte) bool {
	tok := txscript.MakeScriptTokenizer(0, script)
	return tok.Next() && tok.Opcode() == txscript.OP_RETURN
}
