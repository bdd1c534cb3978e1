// Package cache implements the Batched Updater Cache (component B): one
// flush-window write-through staging layer in front of the KV Store
// Facade. Every read checks pending writes first and falls back to the
// store; every write lands in memory and is only made durable by Flush,
// which also computes the purge window bounding how far a reorg can be
// recovered from.
package cache

// Settings configures one Cache instance's flush and purge behavior.
type Settings struct {
	// MaxRecoverableReorgDepth is how many blocks back of history stay
	// available to the Rollback Engine; anything older is purged on
	// flush and can no longer be rolled back.
	MaxRecoverableReorgDepth uint64
	// IndexSpentOutputs, when true, keeps outpoint balance records around
	// after they're spent instead of deleting them on purge (useful for
	// historical queries, at the cost of unbounded disk growth).
	IndexSpentOutputs bool
	// Mempool marks this Cache as the mempool pipeline's view: it skips
	// the purge pass entirely (mempool state has no block history to
	// purge), and rollback and the Address Updater take their mempool
	// branches. It reads and writes the same families as a block Cache.
	Mempool bool
}
