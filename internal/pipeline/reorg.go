package pipeline

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/wire"
	"github.com/runestoned/indexer/internal/cache"
	"github.com/runestoned/indexer/internal/events"
	"github.com/runestoned/indexer/internal/rollback"
)

// detectAndHandleReorg compares block's declared previous hash against
// what the index has stored for height-1. A mismatch means the node's
// best chain diverged from ours; it walks back, comparing the index's and
// the node's hash at each height, until it finds the common ancestor
// (then rewinds to it) or exhausts MaxRecoverableReorgDepth (an
// unrecoverable reorg, returned as an error).
func (p *Block) detectAndHandleReorg(ctx context.Context, c *cache.Cache, block *wire.MsgBlock, height uint64) (bool, error) {
	storedPrev, ok, err := c.BlockHash(height - 1)
	if err != nil {
		return false, fmt.Errorf("pipeline: load stored hash at %d: %w", height-1, err)
	}
	if !ok || storedPrev == block.Header.PrevBlock {
		return false, nil
	}

	for depth := uint64(1); depth <= p.settings.MaxRecoverableReorgDepth; depth++ {
		if depth > height {
			break
		}
		checkHeight := height - depth
		indexHash, ok, err := c.BlockHash(checkHeight)
		if err != nil || !ok {
			return false, fmt.Errorf("pipeline: unrecoverable reorg detected at height %d", height)
		}
		nodeHash, err := p.node.BlockHash(ctx, checkHeight)
		if err != nil {
			return false, fmt.Errorf("pipeline: node hash at %d: %w", checkHeight, err)
		}
		if indexHash == nodeHash {
			if p.Metrics != nil {
				p.Metrics.ReorgsHandled.Inc()
				p.Metrics.ReorgDepth.Observe(float64(depth))
			}
			return true, p.rewindTo(c, checkHeight, height)
		}
	}

	return false, fmt.Errorf("pipeline: unrecoverable reorg detected at height %d", height)
}

// rewindTo rolls back every transaction in every block from the cache's
// current tip down to forkHeight (exclusive), deletes those blocks'
// records, and moves the block counter back to forkHeight+1 so the
// replacement chain is replayed through the normal indexing path.
func (p *Block) rewindTo(c *cache.Cache, forkHeight, detectedAtHeight uint64) error {
	tip := c.BlockCount() - 1
	for h := tip; h > forkHeight; h-- {
		rec, ok, err := c.BlockRecord(h)
		if err != nil {
			return fmt.Errorf("pipeline: load block record at %d: %w", h, err)
		}
		if !ok {
			continue
		}
		for i := len(rec.TxIds) - 1; i >= 0; i-- {
			if err := rollback.Transaction(c, rec.TxIds[i], h); err != nil {
				return fmt.Errorf("pipeline: rollback tx at height %d: %w", h, err)
			}
		}
		c.DeleteBlock(h)
	}

	c.RewindBlockCount(forkHeight + 1)
	c.AddEvent(events.Event{
		Type:        events.TypeReorg,
		Location:    events.BlockLocation(forkHeight),
		BlockHeight: detectedAtHeight,
	})
	return nil
}
