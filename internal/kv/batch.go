package kv

import "github.com/cockroachdb/pebble"

// Batch accumulates writes and deletes across any number of families for
// one atomic Commit. This is how component B's flush satisfies the "the
// update batch and the delete batch must commit as a single unit, never
// split" invariant: both halves are staged into the same pebble.Batch, so
// Commit either applies all of them or none.
type Batch struct {
	store *Store
	pb    *pebble.Batch
}

// NewBatch starts a new atomic batch against s.
func (s *Store) NewBatch() *Batch {
	return &Batch{store: s, pb: s.db.NewBatch()}
}

func (b *Batch) Put(f Family, key, value []byte) {
	_ = b.pb.Set(familyKey(f, key), value, nil)
}

func (b *Batch) Delete(f Family, key []byte) {
	_ = b.pb.Delete(familyKey(f, key), nil)
}

// Commit applies every staged write atomically. A panic during Commit
// (pebble surfaces fatal write-ahead-log failures this way) poisons the
// store: every subsequent Get (and so Has and the typed readers) and
// Commit returns KindLockPoisoned until the process restarts and reopens
// the store, rather than risk applying a half-written batch. Put, Delete
// and ScanPrefix do not check the poisoned state.
func (b *Batch) Commit() (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.store.poison()
			err = &Error{Kind: KindLockPoisoned, Op: "commit", Err: errLockPoisoned}
		}
	}()
	if b.store.isPoisoned() {
		return &Error{Kind: KindLockPoisoned, Op: "commit", Err: errLockPoisoned}
	}
	if err := b.pb.Commit(pebble.NoSync); err != nil {
		return classify("commit", nil, err)
	}
	return nil
}

func (b *Batch) Close() error {
	return b.pb.Close()
}
