// Package indexer drives the Block and Mempool pipelines together on a
// fixed interval.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/runestoned/indexer/internal/changeset"
	"github.com/runestoned/indexer/internal/events"
	"github.com/runestoned/indexer/internal/metrics"
	"github.com/runestoned/indexer/internal/pipeline"
)

// Indexer owns one changeset.Update per tick, fed by every event either
// pipeline emits, so a tick's net transaction movement can be inspected
// as a whole (mined-from-mempool, reorged-back-to-mempool, and so on)
// rather than as a flat stream of NewBlock/TransactionsAdded events.
type Indexer struct {
	block   *pipeline.Block
	mempool *pipeline.Mempool
	out     *events.Dispatcher
	metrics *metrics.Registry

	update *changeset.Update
}

// New wires block and mempool (mempool may be nil to run confirmed-chain
// indexing only) so their events route through a shared changeset before
// reaching out. reg, if non-nil, is handed to both pipelines and updated
// with subscriber counts on every tick.
func New(block *pipeline.Block, mempool *pipeline.Mempool, out *events.Dispatcher, reg *metrics.Registry) *Indexer {
	ix := &Indexer{block: block, mempool: mempool, out: out, metrics: reg, update: changeset.New()}
	block.Dispatch = ix.observe
	block.Metrics = reg
	if mempool != nil {
		mempool.Dispatch = ix.observe
		mempool.Metrics = reg
	}
	return ix
}

// observe folds e's txids into the current cycle's changeset, then
// forwards e to the real dispatcher unchanged. EnoughEventsToSend does
// not suppress delivery here; it is exposed via Categorized for a caller
// that wants to collapse a noisy cycle into its own summary event.
func (ix *Indexer) observe(e events.Event) {
	switch e.Type {
	case events.TypeNewBlock:
		for _, txid := range e.TxIds {
			ix.update.AddBlockTx(txid)
		}
	case events.TypeTransactionsAdded:
		delta := changeset.NewDelta()
		for _, txid := range e.TxIds {
			delta.Added.Add(txid)
		}
		ix.update.UpdateMempool(delta)
	case events.TypeTransactionsReplaced:
		delta := changeset.NewDelta()
		for _, txid := range e.TxIds {
			delta.Removed.Add(txid)
		}
		ix.update.UpdateMempool(delta)
	}

	if ix.out != nil {
		ix.out.Dispatch(e)
	}
}

// Categorized reports how the current cycle's tracked txids partition
// across the seven transition buckets.
func (ix *Indexer) Categorized() changeset.Categorized {
	return ix.update.Categorize()
}

// Tick runs one Block.UpdateToTip pass, then one Mempool.Sync pass once
// the block pipeline has caught up to the node's tip, then resets the
// cycle's changeset.
func (ix *Indexer) Tick(ctx context.Context) error {
	defer ix.update.Reset()

	if err := ix.block.UpdateToTip(ctx); err != nil {
		return fmt.Errorf("indexer: block pipeline: %w", err)
	}
	if ix.mempool != nil && ix.block.IsAtTip() {
		if err := ix.mempool.Sync(ctx); err != nil {
			return fmt.Errorf("indexer: mempool pipeline: %w", err)
		}
	}
	if ix.metrics != nil && ix.out != nil {
		ix.metrics.Subscribers.Set(float64(ix.out.SubscriberCount()))
	}
	return nil
}

// Run calls Tick every interval until ctx is cancelled.
func (ix *Indexer) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := ix.Tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
