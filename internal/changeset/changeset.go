// Package changeset tracks, across one update cycle, which transactions
// entered or left the mempool and which were added to or removed from the
// best chain, then categorizes each txid into the transition bucket that
// decides what event (if any) the dispatcher should emit for it.
package changeset

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// TxidSet names a set of transaction ids by their hex string, mirroring
// how the events package already renders TxIds for the wire protocol.
type TxidSet = mapset.Set[string]

// Delta is one side's (mempool's or the block chain's) added/removed txids
// for this update cycle.
type Delta struct {
	Added   TxidSet
	Removed TxidSet
}

func NewDelta() Delta {
	return Delta{Added: mapset.NewThreadUnsafeSet[string](), Removed: mapset.NewThreadUnsafeSet[string]()}
}

// Update accumulates mempool and block deltas across an update cycle until
// Categorize or Reset is called.
type Update struct {
	mempoolAdded   TxidSet
	mempoolRemoved TxidSet
	blockAdded     TxidSet
	blockRemoved   TxidSet
}

func New() *Update {
	return &Update{
		mempoolAdded:   mapset.NewThreadUnsafeSet[string](),
		mempoolRemoved: mapset.NewThreadUnsafeSet[string](),
		blockAdded:     mapset.NewThreadUnsafeSet[string](),
		blockRemoved:   mapset.NewThreadUnsafeSet[string](),
	}
}

func (u *Update) IsEmpty() bool {
	return u.mempoolAdded.Cardinality() == 0 &&
		u.mempoolRemoved.Cardinality() == 0 &&
		u.blockAdded.Cardinality() == 0 &&
		u.blockRemoved.Cardinality() == 0
}

// EnoughEventsToSend reports whether this cycle added enough confirmed
// transactions that subscribers should get a summarized notification
// instead of one event per transaction.
func (u *Update) EnoughEventsToSend() bool {
	return u.blockAdded.Cardinality() > 10_000
}

func (u *Update) AddBlockTx(txid string)    { u.blockAdded.Add(txid) }
func (u *Update) RemoveBlockTx(txid string) { u.blockRemoved.Add(txid) }

func (u *Update) UpdateMempool(delta Delta) {
	u.mempoolAdded = u.mempoolAdded.Union(delta.Added)
	u.mempoolRemoved = u.mempoolRemoved.Union(delta.Removed)
}

func (u *Update) Reset() {
	u.mempoolAdded = mapset.NewThreadUnsafeSet[string]()
	u.mempoolRemoved = mapset.NewThreadUnsafeSet[string]()
	u.blockAdded = mapset.NewThreadUnsafeSet[string]()
	u.blockRemoved = mapset.NewThreadUnsafeSet[string]()
}

// Categorized buckets every txid touched this cycle by what happened to
// it, so the dispatcher can translate each bucket into the right domain
// event (or none, for the purely-internal ones).
type Categorized struct {
	MinedFromMempool     TxidSet // mempool_removed ∩ block_added
	ReorgedBackToMempool TxidSet // block_removed ∩ mempool_added
	NewInMempoolOnly     TxidSet // mempool_added, not also block_removed
	NewBlockOnly         TxidSet // block_added, not also mempool_removed
	ReorgedOutEntirely   TxidSet // block_removed, never re-mined or re-mempooled
	MempoolRBFOrEvicted  TxidSet // mempool_removed, not mined
	ReorgedOutAndRemined TxidSet // block_removed ∩ block_added
}

// Categorize classifies every txid this cycle touched into the buckets
// above. A single txid may legitimately land in more than one bucket
// (e.g. a txid reorged out and mined again outside the mempool sits in both
// new_block_only and reorged_out_and_remined), so
// callers pick whichever bucket answers the question they're asking.
func (u *Update) Categorize() Categorized {
	return Categorized{
		MinedFromMempool:     u.mempoolRemoved.Intersect(u.blockAdded),
		ReorgedBackToMempool: u.blockRemoved.Intersect(u.mempoolAdded),
		NewInMempoolOnly:     u.mempoolAdded.Difference(u.blockRemoved),
		NewBlockOnly:         u.blockAdded.Difference(u.mempoolRemoved),
		ReorgedOutEntirely:   u.blockRemoved.Difference(u.mempoolAdded.Union(u.blockAdded)),
		MempoolRBFOrEvicted:  u.mempoolRemoved.Difference(u.blockAdded),
		ReorgedOutAndRemined: u.blockRemoved.Intersect(u.blockAdded),
	}
}
