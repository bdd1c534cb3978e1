package kv

import (
	"bytes"
	"io"
	"sync"

	"github.com/cockroachdb/pebble"
)

// Family is a column-family-style key namespace. Pebble has no native
// column families, so each Family is implemented as a single-byte key
// prefix over one shared pebble instance, the same trick the pack's UTXO
// indexer uses ("x:", "p:", "c:" prefixes) rather than one pebble.DB per
// family. The set below mirrors the thirteen named CFs the facade's
// contract enumerates, plus FamilyOutpointScripts.
type Family byte

const (
	FamilyBlocks           Family = 'b' // height -> block hash + txids, for reorg walk-back and purge
	FamilyTxs              Family = 't' // txid -> confirming height (membership/lookup)
	FamilyOutpoints        Family = 'o' // wire.OutPoint -> []RuneAmount balance
	FamilySpkIndex         Family = 'k' // scriptPubKey -> set of outpoints holding runes
	FamilyOutpointScripts  Family = 'p' // wire.OutPoint -> scriptPubKey, the reverse of FamilySpkIndex
	FamilyRunes            Family = 'r' // RuneId -> Entry
	FamilyRuneIds          Family = 'i' // SpacedRune -> RuneId (name reservation, incl. Cenotaph-voided names)
	FamilyRuneNames        Family = 'n' // RuneId -> SpacedRune (inverse of FamilyRuneIds)
	FamilyRuneNumbers      Family = 'c' // etching sequence number -> RuneId
	FamilyRuneTransactions Family = 'x' // RuneId -> []txid, transactions a rune has appeared in
	FamilyMempool          Family = 'm' // unused; the last-seen mempool txid set is kept in FamilyMeta
	FamilyTxStateChanges   Family = 's' // txid -> serialized TransactionStateChange, for rollback
	FamilyInscriptions     Family = 'g' // outpoint -> inscription id, read-only passthrough (out of core scope)
	FamilyMeta             Family = 'z' // singleton metadata (sync height, schema version, purge watermark)
)

// Store is the facade over one pebble database. All access goes through
// typed accessors in balances.go/entries.go/meta.go; callers outside this
// package never see a raw pebble handle.
type Store struct {
	db *pebble.DB
	// mu guards against concurrent Batch commits racing each other's
	// "lock poisoned" recovery; pebble itself is goroutine-safe, this
	// only serializes the poisoned-state transition.
	mu       sync.Mutex
	poisoned bool
}

// Open opens (creating if absent) a pebble store rooted at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, classify("open", nil, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return classify("close", nil, s.db.Close())
}

func familyKey(f Family, key []byte) []byte {
	out := make([]byte, 0, len(key)+1)
	out = append(out, byte(f))
	out = append(out, key...)
	return out
}

// Get retrieves the value stored at key within family f.
func (s *Store) Get(f Family, key []byte) ([]byte, error) {
	if s.isPoisoned() {
		return nil, &Error{Kind: KindLockPoisoned, Op: "get", Key: key, Err: errLockPoisoned}
	}
	v, closer, err := s.db.Get(familyKey(f, key))
	if err == pebble.ErrNotFound {
		return nil, notFound("get", key)
	}
	if err != nil {
		return nil, classify("get", key, err)
	}
	defer closer.Close()
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Has reports whether key is present in family f.
func (s *Store) Has(f Family, key []byte) (bool, error) {
	_, err := s.Get(f, key)
	if err == nil {
		return true, nil
	}
	if kerr, ok := err.(*Error); ok && kerr.Kind == KindNotFound {
		return false, nil
	}
	return false, err
}

// Put writes a single key outside of a Batch. Components D/E/F always go
// through Batch for multi-family atomicity; Put exists for one-off
// metadata writes (schema version, genesis marker).
func (s *Store) Put(f Family, key, value []byte) error {
	return classify("put", key, s.db.Set(familyKey(f, key), value, pebble.NoSync))
}

func (s *Store) Delete(f Family, key []byte) error {
	return classify("delete", key, s.db.Delete(familyKey(f, key), pebble.NoSync))
}

// ScanPrefix iterates every key in family f whose remainder starts with
// prefix, calling fn with the remainder (family byte stripped, prefix
// kept) and the value.
// Iteration stops early if fn returns false.
func (s *Store) ScanPrefix(f Family, prefix []byte, fn func(key, value []byte) bool) error {
	lower := familyKey(f, prefix)
	upper := append(append([]byte{}, lower...), 0xff)
	iter, err := s.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return classify("scan", prefix, err)
	}
	defer iter.Close()
	for iter.SeekGE(lower); iter.Valid(); iter.Next() {
		k := iter.Key()
		if !bytes.HasPrefix(k, lower) {
			break
		}
		if !fn(k[1:], iter.Value()) {
			break
		}
	}
	return classify("scan", prefix, iter.Error())
}

func (s *Store) isPoisoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poisoned
}

func (s *Store) poison() {
	s.mu.Lock()
	s.poisoned = true
	s.mu.Unlock()
}

var _ io.Closer = (*Store)(nil)
