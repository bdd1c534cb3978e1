package updater

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/runestoned/indexer/internal/cache"
	"github.com/runestoned/indexer/internal/events"
	"github.com/runestoned/indexer/internal/runes"
)

// Transaction bundles the inputs Apply needs to index one transaction,
// confirmed in a block or provisionally accepted into the mempool.
type Transaction struct {
	Height      uint64
	BlockHash   string
	TxIndex     uint32
	Tx          *wire.MsgTx
	Txid        chainhash.Hash
	MempoolOnly bool
}

// Apply parses t's rune effects against c's current view of chain state
// and folds the result into c: entry mint/burn counters, new etchings,
// created output balances, transaction history, and the events those
// changes produce. It returns the parsed change so the Address Updater
// (component E) can derive scriptPubKey deltas from the same Inputs/
// Outputs without re-parsing the transaction.
func Apply(c *cache.Cache, t Transaction, params runes.Params) (*runes.TransactionStateChange, error) {
	ledger := newLedgerAdapter(c)
	change := runes.IndexRunes(t.Height, t.TxIndex, t.Tx, t.Txid, ledger, params)
	if ledger.err != nil {
		return nil, fmt.Errorf("updater: resolve ledger state: %w", ledger.err)
	}

	loc := events.BlockLocation(t.Height)
	if t.MempoolOnly {
		loc = events.MempoolLocation()
	}
	txidHex := t.Txid.String()

	for id, amount := range change.Burned {
		id, amount := id, amount
		if err := applyBurn(c, id, amount, t.MempoolOnly); err != nil {
			return nil, err
		}
		c.AddEvent(events.Event{
			Type:        events.TypeRuneBurned,
			Location:    loc,
			BlockHeight: t.Height,
			BlockHash:   t.BlockHash,
			RuneId:      &id,
			Amount:      &amount,
			TxIds:       []string{txidHex},
		})
	}

	if change.Minted != nil {
		if err := applyMint(c, change.Minted.RuneId, t.MempoolOnly); err != nil {
			return nil, err
		}
		c.AddEvent(events.Event{
			Type:        events.TypeRuneMinted,
			Location:    loc,
			BlockHeight: t.Height,
			BlockHash:   t.BlockHash,
			RuneId:      &change.Minted.RuneId,
			Amount:      &change.Minted.Amount,
			TxIds:       []string{txidHex},
		})
	}

	if change.Etched != nil {
		id := change.Etched.RuneId
		entry := change.Etched.Entry
		entry.Number = c.RuneCount()
		c.SetRuneEntry(id, &entry)
		c.ReserveRuneName(entry.SpacedRune, id, entry.Number)
		c.IncrementRuneCount()
		c.AddEvent(events.Event{
			Type:        events.TypeRuneEtched,
			Location:    loc,
			BlockHeight: t.Height,
			BlockHash:   t.BlockHash,
			RuneId:      &id,
			Rune:        entry.SpacedRune.String(),
			TxIds:       []string{txidHex},
		})
	} else if change.Cenotaph && change.CenotaphEtchedName != nil {
		// The name was named in a malformed Runestone; it never gets an
		// entry or an etching number, but it is permanently unavailable
		// to any future etching all the same.
		voidedID := runes.Id{Block: t.Height, Tx: t.TxIndex}
		c.ReserveVoidedName(*change.CenotaphEtchedName, voidedID)
	}

	for vout, balances := range change.Outputs {
		if len(balances) == 0 {
			continue
		}
		op := wire.OutPoint{Hash: t.Txid, Index: uint32(vout)}
		c.SetOutpointBalances(op, balances)
		for _, ra := range balances {
			ra := ra
			c.AddEvent(events.Event{
				Type:        events.TypeRuneTransferred,
				Location:    loc,
				BlockHeight: t.Height,
				BlockHash:   t.BlockHash,
				RuneId:      &ra.RuneId,
				Amount:      &ra.Amount,
				TxIds:       []string{txidHex},
			})
		}
	}

	txidBytes := [32]byte(t.Txid)
	c.SetTxStateChange(txidBytes, change)
	if !t.MempoolOnly {
		c.MarkTxConfirmed(txidBytes, t.Height)
	}

	for _, id := range touchedRuneIds(change) {
		if err := c.AddRuneTransaction(id, txidBytes); err != nil {
			return nil, fmt.Errorf("updater: record rune transaction: %w", err)
		}
	}

	return change, nil
}

func applyBurn(c *cache.Cache, id runes.Id, amount runes.Amount, mempool bool) error {
	entry, err := c.GetRuneEntry(id)
	if err != nil {
		return fmt.Errorf("updater: load rune entry for burn: %w", err)
	}
	if entry == nil {
		return nil // burning a rune balance whose etching was purged; nothing to tally
	}
	updated := *entry
	if mempool {
		sum, ok := updated.PendingBurns.Add(amount)
		if !ok {
			return fmt.Errorf("updater: pending burn overflow for rune %s", id)
		}
		updated.PendingBurns = sum
	} else {
		sum, ok := updated.Burned.Add(amount)
		if !ok {
			return fmt.Errorf("updater: burn overflow for rune %s", id)
		}
		updated.Burned = sum
	}
	c.SetRuneEntry(id, &updated)
	return nil
}

func applyMint(c *cache.Cache, id runes.Id, mempool bool) error {
	entry, err := c.GetRuneEntry(id)
	if err != nil {
		return fmt.Errorf("updater: load rune entry for mint: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("updater: mint referenced unknown rune %s", id)
	}
	updated := *entry
	if mempool {
		updated.PendingMints++
	} else {
		updated.Mints++
	}
	c.SetRuneEntry(id, &updated)
	return nil
}

// touchedRuneIds collects every distinct rune id this change moved a
// balance for, the set the per-rune transaction history index records
// against.
func touchedRuneIds(change *runes.TransactionStateChange) []runes.Id {
	seen := map[runes.Id]struct{}{}
	add := func(id runes.Id) { seen[id] = struct{}{} }

	for _, in := range change.Inputs {
		for _, b := range in.Balances {
			add(b.RuneId)
		}
	}
	for _, outs := range change.Outputs {
		for _, b := range outs {
			add(b.RuneId)
		}
	}
	for id := range change.Burned {
		add(id)
	}
	if change.Minted != nil {
		add(change.Minted.RuneId)
	}
	if change.Etched != nil {
		add(change.Etched.RuneId)
	}

	ids := make([]runes.Id, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	return ids
}
