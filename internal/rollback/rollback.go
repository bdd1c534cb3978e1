// Package rollback inverts a confirmed transaction's persisted
// TransactionStateChange, undoing every mutation the Transaction Updater
// (component D) made when it was first applied. It is invoked block by
// block, from tip down to the reorg's fork point, by the Block Pipeline.
package rollback

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/runestoned/indexer/internal/cache"
	"github.com/runestoned/indexer/internal/runes"
)

// Transaction undoes txid's recorded effects against c. It is the mirror
// image of updater.Apply: every balance, counter, etching and name
// mutation there has an inverse here, read from the same persisted
// TransactionStateChange rather than by re-parsing the transaction (which
// may no longer even be available, once its block has been orphaned).
// The per-rune transaction history Apply appends to is left as it is.
func Transaction(c *cache.Cache, txid [32]byte, height uint64) error {
	change, err := c.GetTxStateChange(txid)
	if err != nil {
		return fmt.Errorf("rollback: load state change: %w", err)
	}
	if change == nil {
		return nil // nothing was ever recorded for this tx; nothing to undo
	}

	mempool := c.Settings.Mempool

	for id, amount := range change.Burned {
		if err := undoBurn(c, id, amount, mempool); err != nil {
			return err
		}
	}

	if change.Minted != nil {
		if err := undoMint(c, change.Minted.RuneId, mempool); err != nil {
			return err
		}
	}

	// Restore consumed inputs' balances so the outpoint is spendable again.
	for _, in := range change.Inputs {
		c.SetOutpointBalances(in.OutPoint, in.Balances)
	}

	// Remove this transaction's created outputs.
	hash := chainhash.Hash(txid)
	for vout, balances := range change.Outputs {
		if len(balances) == 0 {
			continue
		}
		c.DeleteOutpointBalances(wire.OutPoint{Hash: hash, Index: uint32(vout)})
	}

	if change.Etched != nil {
		if err := undoEtching(c, *change.Etched); err != nil {
			return err
		}
	} else if change.Cenotaph && change.CenotaphEtchedName != nil {
		voidedID := runes.Id{Block: height, Tx: change.TxIndex}
		c.ReleaseRuneName(*change.CenotaphEtchedName, voidedID)
	}

	c.DeleteTxStateChange(txid)
	c.DeleteTxConfirmed(txid)
	return nil
}

// undoBurn reverses applyBurn's mutation. For a confirmed rollback this
// decrements the confirmed Burned total; for a mempool rollback (the
// transaction being undone never confirmed) it decrements PendingBurns
// instead, mirroring updater.applyBurn's mempool branch exactly.
func undoBurn(c *cache.Cache, id runes.Id, amount runes.Amount, mempool bool) error {
	entry, err := c.GetRuneEntry(id)
	if err != nil {
		return fmt.Errorf("rollback: load rune entry for burn: %w", err)
	}
	if entry == nil {
		return nil
	}
	updated := *entry
	if mempool {
		remaining, ok := updated.PendingBurns.Sub(amount)
		if !ok {
			return fmt.Errorf("rollback: pending burn underflow for rune %s", id)
		}
		updated.PendingBurns = remaining
	} else {
		remaining, ok := updated.Burned.Sub(amount)
		if !ok {
			return fmt.Errorf("rollback: burn underflow for rune %s", id)
		}
		updated.Burned = remaining
	}
	c.SetRuneEntry(id, &updated)
	return nil
}

// undoMint reverses applyMint's mutation, decrementing PendingMints
// instead of Mints when mempool is true, mirroring updater.applyMint's
// mempool branch exactly.
func undoMint(c *cache.Cache, id runes.Id, mempool bool) error {
	entry, err := c.GetRuneEntry(id)
	if err != nil {
		return fmt.Errorf("rollback: load rune entry for mint: %w", err)
	}
	if entry == nil {
		return nil
	}
	updated := *entry
	if mempool {
		if updated.PendingMints > 0 {
			updated.PendingMints--
		}
	} else {
		if updated.Mints > 0 {
			updated.Mints--
		}
	}
	c.SetRuneEntry(id, &updated)
	return nil
}

// undoEtching reverses rune creation: the entry is removed, the rune
// counter is decremented, and the name reservation is dropped so the same
// name can be etched again by whatever transaction replaces this one.
func undoEtching(c *cache.Cache, etched runes.EtchedRune) error {
	c.DecrementRuneCount()
	c.DeleteRuneEntry(etched.RuneId)
	c.ReleaseRuneName(etched.Entry.SpacedRune, etched.RuneId)
	return nil
}
