package cache

import (
	"encoding/json"
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	lru "github.com/hashicorp/golang-lru"
	"github.com/runestoned/indexer/internal/events"
	"github.com/runestoned/indexer/internal/kv"
	"github.com/runestoned/indexer/internal/runes"
)

// hotEntryCacheSize bounds how many rune entries stay resident across
// flush windows once read from the store, independent of the per-window
// pending-write maps that Flush clears.
const hotEntryCacheSize = 4096

// prefetchBufferBytes sizes the fastcache buffer PrefetchOutpoints fills;
// fastcache rounds this up internally and evicts LRU-style once full.
const prefetchBufferBytes = 64 * 1024 * 1024

// ScriptDelta is the net set of outpoints gained and lost by one
// scriptPubKey across a flush window, computed by the Address Updater
// (component E) so that an outpoint touched twice in the same window
// (e.g. created then immediately spent before a flush) nets to nothing
// instead of round-tripping through the store.
type ScriptDelta struct {
	Added   []wire.OutPoint
	Removed []wire.OutPoint
}

// Cache is the pending-write staging area for one indexing pass (a block
// range, or the mempool). It is not safe for concurrent use; the pipeline
// that owns it (F or G) serializes access under its own lock.
type Cache struct {
	store *kv.Store

	runeCount         uint64
	blockCount        uint64
	purgedBlocksCount uint64
	firstBlockHeight  uint64
	lastBlockHeight   *uint64

	Settings Settings

	entries         map[runes.Id]*runes.Entry
	runeIds         map[string]reservedName
	runeNumbers     map[uint64]runes.Id
	runeTxs         map[runes.Id][][32]byte
	balances        map[wire.OutPoint][]runes.RuneAmount
	outpointScripts map[wire.OutPoint][]byte
	blocks          map[uint64]kv.BlockRecord
	deleteBlocks    map[uint64]struct{}
	stateChanges    map[[32]byte]*runes.TransactionStateChange
	confirmedAt     map[[32]byte]uint64
	scriptDeltas    map[string]ScriptDelta
	mempoolTxids    [][32]byte
	mempoolTxidSet  bool // true once SetMempoolTxids has been called this window

	deleteBalances        map[wire.OutPoint]struct{}
	deleteStateChanges    map[[32]byte]struct{}
	deleteOutpointScripts map[wire.OutPoint]struct{}
	deleteEntries         map[runes.Id]struct{}
	deleteRuneNames       map[string]runes.Id
	deleteConfirmedAt     map[[32]byte]struct{}
	scriptRemovals        []scriptOutpointRemoval

	pendingEvents []events.Event

	// hotEntries caches store-resolved rune entries across flush windows;
	// pending writes this window are still served from entries above, this
	// only softens repeat store reads for runes not touched this window.
	hotEntries *lru.Cache
	// prefetchBuf holds a bulk-loaded snapshot of outpoint balances a
	// caller warmed with PrefetchOutpoints, so a block's many input
	// lookups don't each pay a pebble seek.
	prefetchBuf *fastcache.Cache
}

// New opens a Cache over store, seeding its counters from whatever was
// last flushed.
func New(store *kv.Store, settings Settings) (*Cache, error) {
	runeCount, err := store.RuneCount()
	if err != nil {
		return nil, fmt.Errorf("cache: read rune count: %w", err)
	}
	tip, hasTip, err := store.TipHeight()
	if err != nil {
		return nil, fmt.Errorf("cache: read tip height: %w", err)
	}
	blockCount := uint64(0)
	if hasTip {
		blockCount = tip + 1
	}
	purged, hasPurged, err := store.PurgedThrough()
	if err != nil {
		return nil, fmt.Errorf("cache: read purge watermark: %w", err)
	}
	purgedBlocksCount := uint64(0)
	if hasPurged {
		purgedBlocksCount = purged
	}

	hotEntries, err := lru.New(hotEntryCacheSize)
	if err != nil {
		return nil, fmt.Errorf("cache: create hot entry cache: %w", err)
	}

	return &Cache{
		store:             store,
		runeCount:         runeCount,
		blockCount:        blockCount,
		purgedBlocksCount: purgedBlocksCount,
		firstBlockHeight:  blockCount,
		Settings:          settings,
		hotEntries:        hotEntries,
		prefetchBuf:       fastcache.New(prefetchBufferBytes),
	}, nil
}

func (c *Cache) RuneCount() uint64 { return c.runeCount }

// BlockHeightTip is the height of the most recently indexed block, or 0
// before any block has been indexed (mirroring the saturating
// subtraction the original cache uses so an empty index doesn't panic).
func (c *Cache) BlockHeightTip() uint64 {
	if c.blockCount == 0 {
		return 0
	}
	return c.blockCount - 1
}

func (c *Cache) BlockCount() uint64        { return c.blockCount }
func (c *Cache) PurgedBlocksCount() uint64 { return c.purgedBlocksCount }

func (c *Cache) IncrementRuneCount() { c.runeCount++ }
func (c *Cache) DecrementRuneCount() {
	if c.runeCount > 0 {
		c.runeCount--
	}
}

// SetNewBlock records height's hash and transaction ids and advances the
// block counter. height must equal BlockCount(); anything else indicates
// the pipeline fed blocks out of order.
func (c *Cache) SetNewBlock(height uint64, hash chainhash.Hash, txids [][32]byte) error {
	if height != c.blockCount {
		return fmt.Errorf("cache: block height mismatch: got %d, expected %d", height, c.blockCount)
	}
	if c.blocks == nil {
		c.blocks = map[uint64]kv.BlockRecord{}
	}
	c.blocks[height] = kv.BlockRecord{Hash: hash, TxIds: txids}
	c.lastBlockHeight = &height
	c.blockCount++
	return nil
}

// BlockHash resolves height's hash from pending writes, then the store.
func (c *Cache) BlockHash(height uint64) (chainhash.Hash, bool, error) {
	if rec, ok := c.blocks[height]; ok {
		return rec.Hash, true, nil
	}
	return c.store.BlockHash(height)
}

// BlockRecord resolves height's full record (hash and transaction ids)
// from pending writes, then the store — the Block Pipeline's reorg
// handler reads this to find which transactions a rewound block needs
// rolled back.
func (c *Cache) BlockRecord(height uint64) (kv.BlockRecord, bool, error) {
	if rec, ok := c.blocks[height]; ok {
		return rec, true, nil
	}
	rec, ok, err := c.store.Block(height)
	if err != nil || !ok {
		return kv.BlockRecord{}, ok, err
	}
	return *rec, true, nil
}

// DeleteBlock stages height's block record for removal, used once the
// reorg handler has rolled back every transaction it contained.
func (c *Cache) DeleteBlock(height uint64) {
	delete(c.blocks, height)
	if c.deleteBlocks == nil {
		c.deleteBlocks = map[uint64]struct{}{}
	}
	c.deleteBlocks[height] = struct{}{}
}

// RewindBlockCount forces the block counter backward, bypassing the
// strict height-must-equal-current-count invariant SetNewBlock enforces.
// The reorg handler calls this once it has rolled back every transaction
// down to the fork point, before the replacement chain is replayed
// through SetNewBlock as usual.
func (c *Cache) RewindBlockCount(height uint64) {
	c.blockCount = height
}

// GetRuneEntry resolves id's entry from pending writes, then the hot
// entry cache, then the store.
func (c *Cache) GetRuneEntry(id runes.Id) (*runes.Entry, error) {
	if e, ok := c.entries[id]; ok {
		return e, nil
	}
	if _, deleted := c.deleteEntries[id]; deleted {
		return nil, nil
	}
	if cached, ok := c.hotEntries.Get(id); ok {
		return cached.(*runes.Entry), nil
	}
	e, err := c.store.GetRuneEntry(id)
	if err != nil {
		return nil, err
	}
	if e != nil {
		c.hotEntries.Add(id, e)
	}
	return e, nil
}

func (c *Cache) SetRuneEntry(id runes.Id, e *runes.Entry) {
	if c.entries == nil {
		c.entries = map[runes.Id]*runes.Entry{}
	}
	c.entries[id] = e
	c.hotEntries.Add(id, e)
	delete(c.deleteEntries, id)
}

// DeleteRuneEntry stages id's entry for removal — used by the Rollback
// Engine to undo an etching a reorged-away transaction created.
func (c *Cache) DeleteRuneEntry(id runes.Id) {
	delete(c.entries, id)
	c.hotEntries.Remove(id)
	if c.deleteEntries == nil {
		c.deleteEntries = map[runes.Id]struct{}{}
	}
	c.deleteEntries[id] = struct{}{}
}

// reservedName is a pending name reservation: which rune id claimed the
// bare letter sequence, and the spacer bitmask it was etched with (kept
// alongside so Flush can reconstruct the full SpacedRune for the reverse
// FamilyRuneNames entry).
type reservedName struct {
	Id      runes.Id
	Spacers uint32
}

// LookupRuneName reports whether name is already reserved, checking
// pending reservations before the store.
func (c *Cache) LookupRuneName(name runes.SpacedRune) (runes.Id, bool, error) {
	if r, ok := c.runeIds[string(name.Rune)]; ok {
		return r.Id, true, nil
	}
	if _, released := c.deleteRuneNames[string(name.Rune)]; released {
		return runes.Id{}, false, nil
	}
	return c.store.LookupRuneName(name)
}

// ReleaseRuneName undoes a prior ReserveRuneName — used by the Rollback
// Engine when the etching transaction that claimed name is undone by a
// reorg, freeing it for a different transaction to etch.
func (c *Cache) ReleaseRuneName(name runes.SpacedRune, id runes.Id) {
	delete(c.runeIds, string(name.Rune))
	if c.deleteRuneNames == nil {
		c.deleteRuneNames = map[string]runes.Id{}
	}
	c.deleteRuneNames[string(name.Rune)] = id
}

// ReserveRuneName stages name's reservation for id, and the etching
// sequence number assigned to it.
func (c *Cache) ReserveRuneName(name runes.SpacedRune, id runes.Id, number uint64) {
	if c.runeIds == nil {
		c.runeIds = map[string]reservedName{}
	}
	c.runeIds[string(name.Rune)] = reservedName{Id: id, Spacers: name.Spacers}
	if c.runeNumbers == nil {
		c.runeNumbers = map[uint64]runes.Id{}
	}
	c.runeNumbers[number] = id
}

// ReserveVoidedName permanently reserves name against id without assigning
// it an etching number or a rune entry — used when a Cenotaph names a rune
// that never actually gets etched, which still burns the name forever.
func (c *Cache) ReserveVoidedName(name runes.SpacedRune, id runes.Id) {
	if c.runeIds == nil {
		c.runeIds = map[string]reservedName{}
	}
	c.runeIds[string(name.Rune)] = reservedName{Id: id, Spacers: name.Spacers}
}

// RuneTransactions returns id's recorded transaction history, pending
// appends included.
func (c *Cache) RuneTransactions(id runes.Id) ([][32]byte, error) {
	if pending, ok := c.runeTxs[id]; ok {
		return pending, nil
	}
	return c.store.RuneTransactions(id)
}

// AddRuneTransaction appends txid to id's transaction history.
func (c *Cache) AddRuneTransaction(id runes.Id, txid [32]byte) error {
	existing, err := c.RuneTransactions(id)
	if err != nil {
		return err
	}
	if c.runeTxs == nil {
		c.runeTxs = map[runes.Id][][32]byte{}
	}
	c.runeTxs[id] = append(append([][32]byte{}, existing...), txid)
	return nil
}

// GetOutpointBalances resolves op's balances from pending writes, then the
// prefetch buffer a caller may have warmed with PrefetchOutpoints, then
// the store.
func (c *Cache) GetOutpointBalances(op wire.OutPoint) ([]runes.RuneAmount, error) {
	if b, ok := c.balances[op]; ok {
		return b, nil
	}
	key := kv.EncodeOutPoint(op)
	if raw, ok := c.prefetchBuf.HasGet(nil, key); ok {
		var balances []runes.RuneAmount
		if err := json.Unmarshal(raw, &balances); err != nil {
			return nil, fmt.Errorf("cache: decode prefetched balances: %w", err)
		}
		return balances, nil
	}
	return c.store.GetOutpointBalances(op)
}

func (c *Cache) SetOutpointBalances(op wire.OutPoint, balances []runes.RuneAmount) {
	if c.balances == nil {
		c.balances = map[wire.OutPoint][]runes.RuneAmount{}
	}
	c.balances[op] = balances
	delete(c.deleteBalances, op)
	c.prefetchBuf.Del(kv.EncodeOutPoint(op))
}

// DeleteOutpointBalances stages op's balance record for removal — used by
// the Rollback Engine to undo an output this cache's window created, and
// by the purge pass for spent outpoints outside the recoverable window.
func (c *Cache) DeleteOutpointBalances(op wire.OutPoint) {
	delete(c.balances, op)
	if c.deleteBalances == nil {
		c.deleteBalances = map[wire.OutPoint]struct{}{}
	}
	c.deleteBalances[op] = struct{}{}
	c.prefetchBuf.Del(kv.EncodeOutPoint(op))
}

// OutpointScript resolves op's scriptPubKey from pending writes, then the
// store.
func (c *Cache) OutpointScript(op wire.OutPoint) ([]byte, bool, error) {
	if script, ok := c.outpointScripts[op]; ok {
		return script, true, nil
	}
	return c.store.OutpointScript(op)
}

// SetOutpointScript stages op's scriptPubKey for writing to the reverse
// index, which the Address Updater consults for outpoints spent in a
// later window than the one that created them.
func (c *Cache) SetOutpointScript(op wire.OutPoint, script []byte) {
	if c.outpointScripts == nil {
		c.outpointScripts = map[wire.OutPoint][]byte{}
	}
	c.outpointScripts[op] = script
	delete(c.deleteOutpointScripts, op)
}

// DeleteOutpointScript stages op's reverse-index entry for removal, used by
// the purge pass once op ages past the recoverable reorg window.
func (c *Cache) DeleteOutpointScript(op wire.OutPoint) {
	delete(c.outpointScripts, op)
	if c.deleteOutpointScripts == nil {
		c.deleteOutpointScripts = map[wire.OutPoint]struct{}{}
	}
	c.deleteOutpointScripts[op] = struct{}{}
}

// scriptOutpointRemoval is a purge-time removal of one scriptPubKey's
// association with one outpoint, queued separately from SetScriptDeltas
// since it originates from the purge pass rather than component E's
// per-window aggregation.
type scriptOutpointRemoval struct {
	Script []byte
	Op     wire.OutPoint
}

// queueScriptOutpointRemoval stages the removal of script's association
// with op from the forward FamilySpkIndex, alongside the reverse-index
// deletion DeleteOutpointScript stages.
func (c *Cache) queueScriptOutpointRemoval(script []byte, op wire.OutPoint) {
	c.scriptRemovals = append(c.scriptRemovals, scriptOutpointRemoval{
		Script: append([]byte(nil), script...),
		Op:     op,
	})
}

// PrefetchOutpoints bulk-loads ops' current balances from the store into
// an in-memory buffer, so a block with many inputs referencing the same
// handful of prior outputs pays one pebble seek per outpoint up front
// instead of one per edict evaluated against it.
func (c *Cache) PrefetchOutpoints(ops []wire.OutPoint) error {
	for _, op := range ops {
		if _, ok := c.balances[op]; ok {
			continue // already pending this window, nothing to warm
		}
		key := kv.EncodeOutPoint(op)
		if _, ok := c.prefetchBuf.HasGet(nil, key); ok {
			continue
		}
		balances, err := c.store.GetOutpointBalances(op)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(balances)
		if err != nil {
			return fmt.Errorf("cache: encode prefetched balances: %w", err)
		}
		c.prefetchBuf.Set(key, raw)
	}
	return nil
}

func (c *Cache) TxConfirmedHeight(txid [32]byte) (uint64, bool, error) {
	if h, ok := c.confirmedAt[txid]; ok {
		return h, true, nil
	}
	if _, deleted := c.deleteConfirmedAt[txid]; deleted {
		return 0, false, nil
	}
	return c.store.TxConfirmedHeight(txid)
}

func (c *Cache) MarkTxConfirmed(txid [32]byte, height uint64) {
	if c.confirmedAt == nil {
		c.confirmedAt = map[[32]byte]uint64{}
	}
	c.confirmedAt[txid] = height
	delete(c.deleteConfirmedAt, txid)
}

// DeleteTxConfirmed undoes MarkTxConfirmed — used by the Rollback Engine
// when a confirmed transaction is reorged back into the mempool.
func (c *Cache) DeleteTxConfirmed(txid [32]byte) {
	delete(c.confirmedAt, txid)
	if c.deleteConfirmedAt == nil {
		c.deleteConfirmedAt = map[[32]byte]struct{}{}
	}
	c.deleteConfirmedAt[txid] = struct{}{}
}

func (c *Cache) GetTxStateChange(txid [32]byte) (*runes.TransactionStateChange, error) {
	if change, ok := c.stateChanges[txid]; ok {
		return change, nil
	}
	if _, deleted := c.deleteStateChanges[txid]; deleted {
		return nil, nil
	}
	return c.store.GetTxStateChange(txid)
}

func (c *Cache) SetTxStateChange(txid [32]byte, change *runes.TransactionStateChange) {
	if c.stateChanges == nil {
		c.stateChanges = map[[32]byte]*runes.TransactionStateChange{}
	}
	c.stateChanges[txid] = change
	delete(c.deleteStateChanges, txid)
}

// DeleteTxStateChange stages txid's recorded change for removal — used by
// the purge pass once its block ages past the recoverable reorg window,
// and by the Rollback Engine once it has finished inverting the change.
func (c *Cache) DeleteTxStateChange(txid [32]byte) {
	delete(c.stateChanges, txid)
	if c.deleteStateChanges == nil {
		c.deleteStateChanges = map[[32]byte]struct{}{}
	}
	c.deleteStateChanges[txid] = struct{}{}
}

// SetScriptDeltas overwrites the pending per-script outpoint deltas for
// this window. Component E calls this once, after aggregating every
// transaction's address-index effects and cancelling same-window churn,
// which is why Cache itself does no add/remove bookkeeping of its own.
func (c *Cache) SetScriptDeltas(deltas map[string]ScriptDelta) {
	c.scriptDeltas = deltas
}

// SetMempoolTxids overwrites the pending mempool txid snapshot.
func (c *Cache) SetMempoolTxids(txids [][32]byte) {
	c.mempoolTxids = txids
	c.mempoolTxidSet = true
}

func (c *Cache) MempoolTxids() ([][32]byte, error) {
	if c.mempoolTxidSet {
		return c.mempoolTxids, nil
	}
	return c.store.MempoolTxids()
}

// ShouldFlush reports whether the number of blocks staged this window has
// reached maxBlocks, the same proxy the original cache uses (len of the
// pending block map) for "time to flush".
func (c *Cache) ShouldFlush(maxBlocks int) bool {
	return len(c.blocks) >= maxBlocks
}

// PendingEntryCount sums every staged write and delete across the current
// flush window, for callers that report how much work a flush did.
func (c *Cache) PendingEntryCount() int {
	return len(c.entries) + len(c.runeIds) + len(c.runeNumbers) + len(c.runeTxs) +
		len(c.balances) + len(c.outpointScripts) + len(c.blocks) + len(c.stateChanges) +
		len(c.confirmedAt) + len(c.scriptDeltas) + len(c.scriptRemovals) +
		len(c.deleteBalances) + len(c.deleteStateChanges) + len(c.deleteOutpointScripts) +
		len(c.deleteEntries) + len(c.deleteRuneNames) + len(c.deleteConfirmedAt) + len(c.deleteBlocks)
}

// AddEvent queues an event to be handed to the dispatcher once this
// window's flush succeeds — never before, so subscribers never observe
// state they can't yet query.
func (c *Cache) AddEvent(e events.Event) {
	c.pendingEvents = append(c.pendingEvents, e)
}

// TakeEvents drains and returns every event queued since the last call.
func (c *Cache) TakeEvents() []events.Event {
	out := c.pendingEvents
	c.pendingEvents = nil
	return out
}
