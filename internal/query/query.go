// Package query implements the read-only Queryset facade: a thin
// pass-through over the KV Store Facade's point-gets and prefix scans,
// with no HTTP framing of its own. An outer REST or RPC layer is out of
// core scope; this package is what such a layer would call.
package query

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/runestoned/indexer/internal/kv"
	"github.com/runestoned/indexer/internal/runes"
)

// Queryset answers read requests directly against the store, bypassing
// any in-flight flush window — callers see only committed state.
type Queryset struct {
	store *kv.Store
}

func New(store *kv.Store) *Queryset {
	return &Queryset{store: store}
}

// Status is the /status response: the tip height and how far back
// purge has already run.
type Status struct {
	TipHeight     uint64 `json:"tip_height"`
	TipKnown      bool   `json:"tip_known"`
	PurgedThrough uint64 `json:"purged_through"`
	RuneCount     uint64 `json:"rune_count"`
}

// Tip returns the current indexed tip height, or ok=false if nothing
// has been indexed yet.
func (q *Queryset) Tip() (height uint64, ok bool, err error) {
	return q.store.TipHeight()
}

// Status returns a snapshot of the indexer's overall progress.
func (q *Queryset) Status() (Status, error) {
	tip, tipKnown, err := q.store.TipHeight()
	if err != nil {
		return Status{}, fmt.Errorf("query: tip height: %w", err)
	}
	purged, _, err := q.store.PurgedThrough()
	if err != nil {
		return Status{}, fmt.Errorf("query: purged through: %w", err)
	}
	runeCount, err := q.store.RuneCount()
	if err != nil {
		return Status{}, fmt.Errorf("query: rune count: %w", err)
	}
	return Status{TipHeight: tip, TipKnown: tipKnown, PurgedThrough: purged, RuneCount: runeCount}, nil
}

// Block returns the persisted record for height, or ok=false if height
// has not been indexed (or was rewound by a reorg).
func (q *Queryset) Block(height uint64) (*kv.BlockRecord, bool, error) {
	return q.store.Block(height)
}

// Rune looks up an etched rune by its spaced display name (e.g.
// "UNCOMMON•GOODS"), returning ok=false if no such rune was etched or
// the name does not parse.
func (q *Queryset) Rune(name string) (*runes.Entry, bool, error) {
	spaced, ok := runes.ParseSpacedRune(name)
	if !ok {
		return nil, false, nil
	}
	id, ok, err := q.store.LookupRuneName(spaced)
	if err != nil || !ok {
		return nil, ok, err
	}
	return q.RuneByID(id)
}

// RuneByID looks up an etched rune by its RuneId, returning ok=false if
// id was never etched.
func (q *Queryset) RuneByID(id runes.Id) (*runes.Entry, bool, error) {
	entry, err := q.store.GetRuneEntry(id)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		return nil, false, nil
	}
	return entry, true, nil
}

// RuneTransactions returns the txids of every confirmed transaction
// that touched id (etch, mint, transfer, or burn), in application order.
func (q *Queryset) RuneTransactions(id runes.Id) ([]chainhash.Hash, error) {
	raw, err := q.store.RuneTransactions(id)
	if err != nil {
		return nil, err
	}
	hashes := make([]chainhash.Hash, len(raw))
	for i, h := range raw {
		hashes[i] = chainhash.Hash(h)
	}
	return hashes, nil
}

// Output returns the rune balances held at op, and the scriptPubKey
// locking it if the address index has a record for it.
type Output struct {
	Balances []runes.RuneAmount `json:"balances"`
	Script   []byte             `json:"script,omitempty"`
}

func (q *Queryset) Output(op wire.OutPoint) (Output, error) {
	balances, err := q.store.GetOutpointBalances(op)
	if err != nil {
		return Output{}, fmt.Errorf("query: outpoint balances: %w", err)
	}
	script, _, err := q.store.OutpointScript(op)
	if err != nil {
		return Output{}, fmt.Errorf("query: outpoint script: %w", err)
	}
	return Output{Balances: balances, Script: script}, nil
}

// Address returns every outpoint the address index has recorded for
// scriptPubKey, regardless of whether each is still unspent — callers
// combine this with Output to learn current balances.
func (q *Queryset) Address(script []byte) ([]wire.OutPoint, error) {
	return q.store.ScriptOutpoints(script)
}

// MempoolTxids returns the txids currently tracked as mempool-only.
func (q *Queryset) MempoolTxids() ([]chainhash.Hash, error) {
	raw, err := q.store.MempoolTxids()
	if err != nil {
		return nil, err
	}
	hashes := make([]chainhash.Hash, len(raw))
	for i, h := range raw {
		hashes[i] = chainhash.Hash(h)
	}
	return hashes, nil
}

// Tx returns the rune state change a confirmed transaction produced, or
// ok=false if txid was never confirmed (or was purged past the
// recoverable reorg window).
func (q *Queryset) Tx(txid chainhash.Hash) (*runes.TransactionStateChange, bool, error) {
	change, err := q.store.GetTxStateChange([32]byte(txid))
	if err != nil {
		return nil, false, err
	}
	return change, change != nil, nil
}
