package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/runestoned/indexer/internal/cache"
	"github.com/runestoned/indexer/internal/events"
	"github.com/runestoned/indexer/internal/kv"
	"github.com/runestoned/indexer/internal/metrics"
	"github.com/runestoned/indexer/internal/rollback"
	"github.com/runestoned/indexer/internal/rpcnode"
	"github.com/runestoned/indexer/internal/runes"
	"github.com/runestoned/indexer/internal/updater"
)

// Mempool keeps the provisional mempool view in sync with a node's actual
// mempool, one Sync call at a time. It is not safe for concurrent use.
type Mempool struct {
	store    *kv.Store
	node     rpcnode.Client
	settings cache.Settings
	params   runes.Params
	debounce *debouncer

	Dispatch func(events.Event)

	// Metrics, if set, is updated as transactions are added to and removed
	// from the provisional mempool view. Left nil, no collector is touched.
	Metrics *metrics.Registry
}

func NewMempool(store *kv.Store, node rpcnode.Client, settings cache.Settings, params runes.Params, debounceWindow time.Duration) *Mempool {
	settings.Mempool = true
	return &Mempool{
		store:    store,
		node:     node,
		settings: settings,
		params:   params,
		debounce: newDebouncer(debounceWindow),
	}
}

// Sync diffs the node's current mempool against the last indexed
// snapshot: newly seen transactions are indexed as provisional, and
// transactions that disappeared (mined, replaced, or evicted) have their
// provisional effects rolled back.
func (m *Mempool) Sync(ctx context.Context) error {
	current, err := m.node.RawMempool(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: node mempool: %w", err)
	}
	currentSet := make(map[[32]byte]struct{}, len(current))
	currentRecords := make([][32]byte, 0, len(current))
	for _, id := range current {
		key := [32]byte(id)
		currentSet[key] = struct{}{}
		currentRecords = append(currentRecords, key)
	}

	c, err := cache.New(m.store, m.settings)
	if err != nil {
		return fmt.Errorf("pipeline: open mempool cache: %w", err)
	}
	stored, err := c.MempoolTxids()
	if err != nil {
		return fmt.Errorf("pipeline: stored mempool txids: %w", err)
	}
	storedSet := make(map[[32]byte]struct{}, len(stored))
	for _, id := range stored {
		storedSet[id] = struct{}{}
	}

	now := time.Now()
	var added []chainhash.Hash
	for _, id := range current {
		key := [32]byte(id)
		if _, ok := storedSet[key]; ok {
			continue
		}
		if m.debounce.seenRecently(key, now) {
			continue
		}
		added = append(added, id)
	}

	var removed [][32]byte
	for id := range storedSet {
		if _, ok := currentSet[id]; !ok {
			removed = append(removed, id)
		}
	}

	if len(added) == 0 && len(removed) == 0 {
		return nil
	}

	fetched := make(map[[32]byte]*wire.MsgTx, len(added))
	for _, txid := range added {
		tx, err := m.node.RawTransaction(ctx, txid)
		if err != nil {
			// Vanished between listing and fetch (mined or evicted already);
			// the next Sync call reconciles it from the node's new state.
			continue
		}
		fetched[[32]byte(txid)] = tx
	}

	addrUpdater := updater.NewAddressUpdater()
	indexed := topoSortByDependency(added, fetched)
	for _, txid := range indexed {
		tx := fetched[[32]byte(txid)]

		t := updater.Transaction{
			Height:      c.BlockCount(),
			TxIndex:     0,
			Tx:          tx,
			Txid:        txid,
			MempoolOnly: true,
		}
		change, err := updater.Apply(c, t, m.params)
		if err != nil {
			return fmt.Errorf("pipeline: index mempool tx %s: %w", txid, err)
		}
		observeChange(m.Metrics, change)

		for _, in := range tx.TxIn {
			if isNullOutpoint(in.PreviousOutPoint) {
				continue
			}
			addrUpdater.AddSpentOutpoint(in.PreviousOutPoint)
		}
		for vout, out := range tx.TxOut {
			addrUpdater.AddNewOutpoint(wire.OutPoint{Hash: txid, Index: uint32(vout)}, out.PkScript)
		}

		m.debounce.markSeen([32]byte(txid), now)
	}

	for _, txid := range removed {
		if err := rollback.Transaction(c, txid, c.BlockCount()); err != nil {
			return fmt.Errorf("pipeline: rollback mempool tx %x: %w", txid, err)
		}
	}

	if err := addrUpdater.Flush(c); err != nil {
		return fmt.Errorf("pipeline: flush mempool address updater: %w", err)
	}

	c.SetMempoolTxids(currentRecords)
	pending := c.PendingEntryCount()
	start := time.Now()
	if err := c.Flush(); err != nil {
		return fmt.Errorf("pipeline: flush mempool: %w", err)
	}

	if m.Metrics != nil {
		m.Metrics.FlushDuration.Observe(time.Since(start).Seconds())
		m.Metrics.FlushedEntries.Add(float64(pending))
		m.Metrics.MempoolSize.Set(float64(len(currentRecords)))
		m.Metrics.MempoolTxsAdded.Add(float64(len(indexed)))
		m.Metrics.MempoolTxsRemoved.Add(float64(len(removed)))
	}

	if len(indexed) > 0 {
		txids := make([]string, len(indexed))
		for i, id := range indexed {
			txids[i] = id.String()
		}
		c.AddEvent(events.Event{Type: events.TypeTransactionsAdded, Location: events.MempoolLocation(), TxIds: txids})
	}
	if len(removed) > 0 {
		txids := make([]string, len(removed))
		for i, id := range removed {
			txids[i] = chainhash.Hash(id).String()
		}
		c.AddEvent(events.Event{Type: events.TypeTransactionsReplaced, Location: events.MempoolLocation(), TxIds: txids})
	}

	m.dispatch(c.TakeEvents())
	return nil
}

func (m *Mempool) dispatch(evs []events.Event) {
	if m.Dispatch == nil {
		return
	}
	for _, e := range evs {
		m.Dispatch(e)
	}
}
