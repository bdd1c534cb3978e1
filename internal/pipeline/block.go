// Package pipeline drives the indexer's two update loops against a Bitcoin
// node: the Block Pipeline walks the node's best chain to tip, detecting
// and recovering from reorgs; the Mempool Pipeline keeps the provisional
// mempool view in sync between blocks.
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

// Block walks a node's best chain into the store, one UpdateToTip call at
// a time. It is not safe for concurrent use.
type Block struct {
	store         *kv.Store
	node          rpcnode.Client
	settings      cache.Settings
	params        runes.Params
	flushInterval int
	isAtTip       bool

	// Dispatch, if set, receives every event a successful flush confirms.
	// Left nil, events are simply dropped — useful for callers that only
	// care about the persisted state, not the live feed.
	Dispatch func(events.Event)

	// Metrics, if set, is updated as blocks are indexed, flushed, and
	// reorgs are handled. Left nil, no collector is touched.
	Metrics *metrics.Registry
}

func NewBlock(store *kv.Store, node rpcnode.Client, settings cache.Settings, params runes.Params, flushInterval int) *Block {
	return &Block{store: store, node: node, settings: settings, params: params, flushInterval: flushInterval}
}

func (p *Block) IsAtTip() bool { return p.isAtTip }

// UpdateToTip fetches every block the node has beyond the index's current
// tip. Once the pipeline has previously reached tip, each new block is
// checked for a reorg before being indexed; a reorg no deeper than
// MaxRecoverableReorgDepth is rolled back and replaced in place, a deeper
// one is returned as an error for the caller to treat as fatal.
func (p *Block) UpdateToTip(ctx context.Context) error {
	c, err := cache.New(p.store, p.settings)
	if err != nil {
		return fmt.Errorf("pipeline: open cache: %w", err)
	}

	nodeHeight, err := p.node.BlockCount(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: node block count: %w", err)
	}

	for nodeHeight >= c.BlockCount() {
		wasAtTip := p.isAtTip
		p.isAtTip = false

		height := c.BlockCount()
		hash, err := p.node.BlockHash(ctx, height)
		if err != nil {
			return fmt.Errorf("pipeline: block hash at %d: %w", height, err)
		}
		block, err := p.node.Block(ctx, hash)
		if err != nil {
			return fmt.Errorf("pipeline: fetch block %d: %w", height, err)
		}

		if wasAtTip && height > 0 {
			reorged, err := p.detectAndHandleReorg(ctx, c, block, height)
			if err != nil {
				return err
			}
			if reorged {
				if err := p.flush(c); err != nil {
					return fmt.Errorf("pipeline: flush after reorg: %w", err)
				}
				p.dispatch(c.TakeEvents())
				continue // re-fetch the node's block at the now-current (rewound) height
			}
		}

		if err := p.indexBlock(c, block, height); err != nil {
			return fmt.Errorf("pipeline: index block %d: %w", height, err)
		}
		if p.Metrics != nil {
			p.Metrics.BlockHeight.Set(float64(height))
			p.Metrics.BlocksIndexed.Inc()
		}

		if c.ShouldFlush(p.flushInterval) {
			if err := p.flush(c); err != nil {
				return fmt.Errorf("pipeline: flush: %w", err)
			}
			p.dispatch(c.TakeEvents())
		}

		nodeHeight, err = p.node.BlockCount(ctx)
		if err != nil {
			return fmt.Errorf("pipeline: node block count: %w", err)
		}
	}

	if err := p.flush(c); err != nil {
		return fmt.Errorf("pipeline: final flush: %w", err)
	}
	p.dispatch(c.TakeEvents())
	p.isAtTip = true
	return nil
}

// flush commits c's pending window, recording its duration and size when
// Metrics is set.
func (p *Block) flush(c *cache.Cache) error {
	pending := c.PendingEntryCount()
	start := time.Now()
	if err := c.Flush(); err != nil {
		return err
	}
	if p.Metrics != nil {
		p.Metrics.FlushDuration.Observe(time.Since(start).Seconds())
		p.Metrics.FlushedEntries.Add(float64(pending))
	}
	return nil
}

// indexBlock folds every transaction in block into c, then the net
// scriptPubKey churn it caused, then records the block itself.
func (p *Block) indexBlock(c *cache.Cache, block *wire.MsgBlock, height uint64) error {
	addrUpdater := updater.NewAddressUpdater()
	blockHash := block.BlockHash()
	blockHashHex := blockHash.String()

	txids := make([][32]byte, 0, len(block.Transactions))
	txidHexes := make([]string, 0, len(block.Transactions))

	for txIndex, tx := range block.Transactions {
		txid := tx.TxHash()
		txids = append(txids, [32]byte(txid))
		txidHexes = append(txidHexes, txid.String())

		t := updater.Transaction{
			Height:    height,
			BlockHash: blockHashHex,
			TxIndex:   uint32(txIndex),
			Tx:        tx,
			Txid:      txid,
		}
		change, err := updater.Apply(c, t, p.params)
		if err != nil {
			return fmt.Errorf("apply tx %s: %w", txid, err)
		}
		observeChange(p.Metrics, change)

		for _, in := range tx.TxIn {
			if isNullOutpoint(in.PreviousOutPoint) {
				continue
			}
			addrUpdater.AddSpentOutpoint(in.PreviousOutPoint)
		}
		for vout, out := range tx.TxOut {
			addrUpdater.AddNewOutpoint(wire.OutPoint{Hash: txid, Index: uint32(vout)}, out.PkScript)
		}
	}

	if err := addrUpdater.Flush(c); err != nil {
		return fmt.Errorf("flush address updater: %w", err)
	}

	if err := c.SetNewBlock(height, blockHash, txids); err != nil {
		return err
	}

	c.AddEvent(events.Event{
		Type:        events.TypeNewBlock,
		Location:    events.BlockLocation(height),
		BlockHeight: height,
		BlockHash:   blockHashHex,
		TxIds:       txidHexes,
	})
	return nil
}

func (p *Block) dispatch(evs []events.Event) {
	if p.Dispatch == nil {
		return
	}
	for _, e := range evs {
		p.Dispatch(e)
	}
}

func isNullOutpoint(op wire.OutPoint) bool {
	return op.Index == ^uint32(0) && op.Hash == (chainhash.Hash{})
}
