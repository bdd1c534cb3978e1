package cache

// prepareToDelete computes which already-flushed blocks have fallen more
// than MaxRecoverableReorgDepth behind the window just flushed, and queues
// the balances of the inputs their transactions spent for deletion. Blocks inside the
// recoverable window are left alone so the Rollback Engine can still undo
// them.
func (c *Cache) prepareToDelete() error {
	if c.lastBlockHeight == nil {
		return nil
	}
	lastBlockHeight := *c.lastBlockHeight

	fromHeight := uint64(0)
	if c.firstBlockHeight > c.Settings.MaxRecoverableReorgDepth+1 {
		fromHeight = c.firstBlockHeight - (c.Settings.MaxRecoverableReorgDepth + 1)
	}

	if lastBlockHeight < c.Settings.MaxRecoverableReorgDepth {
		return nil // nothing has aged out of the recoverable window yet
	}
	toHeight := lastBlockHeight - c.Settings.MaxRecoverableReorgDepth

	if fromHeight < c.purgedBlocksCount+1 {
		fromHeight = c.purgedBlocksCount + 1
	}

	for h := fromHeight; h < toHeight; h++ {
		if err := c.purgeBlock(h); err != nil {
			return err
		}
	}

	return nil
}

// purgeBlock queues the deletion of the balance of every input spent by
// height's transactions, unless IndexSpentOutputs retains historical balances
// indefinitely. It always drops the now-stale scriptPubKey -> outpoint
// association the Address Updater left behind for each spent input, using
// the outpoint -> scriptPubKey reverse index to find it — the reverse
// index has no use for a spent outpoint regardless of whether the
// balance itself is retained.
func (c *Cache) purgeBlock(height uint64) error {
	block, found := c.blocks[height]
	if !found {
		rec, ok, err := c.store.Block(height)
		if err != nil {
			return err
		}
		if !ok {
			return nil // nothing recorded at this height; nothing to purge
		}
		block = *rec
	}

	for _, txid := range block.TxIds {
		change, err := c.GetTxStateChange(txid)
		if err != nil || change == nil {
			continue
		}
		for _, in := range change.Inputs {
			if !c.Settings.IndexSpentOutputs {
				c.DeleteOutpointBalances(in.OutPoint)
			}
			if script, ok, err := c.OutpointScript(in.OutPoint); err == nil && ok {
				c.queueScriptOutpointRemoval(script, in.OutPoint)
			}
			c.DeleteOutpointScript(in.OutPoint)
		}
	}

	for _, txid := range block.TxIds {
		c.DeleteTxStateChange(txid)
	}

	c.purgedBlocksCount = height
	return nil
}
