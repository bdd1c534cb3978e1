package cache

import (
	"fmt"

	"github.com/runestoned/indexer/internal/runes"
)

// Flush commits every pending write and delete to the store as a single
// atomic batch — one pebble.Batch carrying both halves, which is a
// stronger guarantee than the update-batch-then-delete-batch two-call
// sequence this is grounded on: there is no window where one could
// succeed and the other fail.
func (c *Cache) Flush() error {
	if !c.Settings.Mempool {
		if err := c.prepareToDelete(); err != nil {
			return fmt.Errorf("cache: prepare purge: %w", err)
		}
	}

	batch := c.store.NewBatch()
	defer batch.Close()

	for id, e := range c.entries {
		if err := batch.PutRuneEntry(id, e); err != nil {
			return err
		}
	}
	for name, r := range c.runeIds {
		batch.ReserveRuneName(runes.SpacedRune{Rune: runes.Name(name), Spacers: r.Spacers}, r.Id)
	}
	for number, id := range c.runeNumbers {
		batch.PutRuneNumber(number, id)
	}
	for id, txids := range c.runeTxs {
		if err := batch.PutRuneTransactions(id, txids); err != nil {
			return err
		}
	}
	for op, balances := range c.balances {
		if err := batch.PutOutpointBalances(op, balances); err != nil {
			return err
		}
	}
	for op, script := range c.outpointScripts {
		batch.PutOutpointScript(op, script)
	}
	for height, rec := range c.blocks {
		if err := batch.PutBlock(height, rec); err != nil {
			return err
		}
	}
	for txid, change := range c.stateChanges {
		if err := batch.PutTxStateChange(txid, change); err != nil {
			return err
		}
	}
	for txid, height := range c.confirmedAt {
		batch.MarkTxConfirmed(txid, height)
	}
	for txid := range c.deleteConfirmedAt {
		batch.DeleteTxConfirmed(txid)
	}
	for script, delta := range c.scriptDeltas {
		scriptBytes := []byte(script)
		for _, op := range delta.Added {
			batch.AddScriptOutpoint(scriptBytes, op)
			batch.PutOutpointScript(op, scriptBytes)
		}
		for _, op := range delta.Removed {
			batch.RemoveScriptOutpoint(scriptBytes, op)
		}
	}
	for _, r := range c.scriptRemovals {
		batch.RemoveScriptOutpoint(r.Script, r.Op)
	}
	if c.mempoolTxidSet {
		if err := batch.PutMempoolTxids(c.mempoolTxids); err != nil {
			return err
		}
	}

	for op := range c.deleteBalances {
		batch.DeleteOutpointBalances(op)
	}
	for txid := range c.deleteStateChanges {
		batch.DeleteTxStateChange(txid)
	}
	for op := range c.deleteOutpointScripts {
		batch.DeleteOutpointScript(op)
	}
	for id := range c.deleteEntries {
		batch.DeleteRuneEntry(id)
	}
	for name, id := range c.deleteRuneNames {
		batch.ReleaseRuneName(runes.SpacedRune{Rune: runes.Name(name)}, id)
	}
	for height := range c.deleteBlocks {
		batch.DeleteBlock(height)
	}

	batch.PutRuneCount(c.runeCount)
	if c.blockCount > 0 {
		batch.PutTipHeight(c.blockCount - 1)
	}
	batch.PutPurgedThrough(c.purgedBlocksCount)

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("cache: flush commit: %w", err)
	}

	c.resetWindow()
	return nil
}

func (c *Cache) resetWindow() {
	c.entries = nil
	c.runeIds = nil
	c.runeNumbers = nil
	c.runeTxs = nil
	c.balances = nil
	c.outpointScripts = nil
	c.blocks = nil
	c.stateChanges = nil
	c.confirmedAt = nil
	c.scriptDeltas = nil
	c.scriptRemovals = nil
	c.mempoolTxids = nil
	c.mempoolTxidSet = false
	c.deleteBalances = nil
	c.deleteStateChanges = nil
	c.deleteOutpointScripts = nil
	c.deleteEntries = nil
	c.deleteRuneNames = nil
	c.deleteConfirmedAt = nil
	c.deleteBlocks = nil
	c.firstBlockHeight = c.blockCount
	c.lastBlockHeight = nil
}
