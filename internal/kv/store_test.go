package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGetRoundTrip(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(FamilyBlocks, []byte("k1"), []byte("v1")))
	got, err := store.Get(FamilyBlocks, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)
}

func TestGetMissingKeyIsNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(FamilyBlocks, []byte("absent"))
	require.Error(t, err)
	kerr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, KindNotFound, kerr.Kind)
}

func TestHasReflectsPresence(t *testing.T) {
	store := openTestStore(t)

	ok, err := store.Has(FamilyBlocks, []byte("k1"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Put(FamilyBlocks, []byte("k1"), []byte("v1")))
	ok, err = store.Has(FamilyBlocks, []byte("k1"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDeleteRemovesKey(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(FamilyBlocks, []byte("k1"), []byte("v1")))
	require.NoError(t, store.Delete(FamilyBlocks, []byte("k1")))
	_, err := store.Get(FamilyBlocks, []byte("k1"))
	require.Error(t, err)
}

func TestFamiliesDoNotCollideOnTheSameKey(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(FamilyBlocks, []byte("k"), []byte("blocks-value")))
	require.NoError(t, store.Put(FamilyTxs, []byte("k"), []byte("txs-value")))

	got, err := store.Get(FamilyBlocks, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("blocks-value"), got)

	got, err = store.Get(FamilyTxs, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("txs-value"), got)
}

func TestScanPrefixStopsEarlyOnFalse(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(FamilyBlocks, []byte("aa"), []byte("1")))
	require.NoError(t, store.Put(FamilyBlocks, []byte("ab"), []byte("2")))
	require.NoError(t, store.Put(FamilyBlocks, []byte("ba"), []byte("3")))

	var seen [][]byte
	err := store.ScanPrefix(FamilyBlocks, []byte("a"), func(key, value []byte) bool {
		seen = append(seen, append([]byte{}, key...))
		return len(seen) < 1
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
}

func TestScanPrefixRespectsUpperBound(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.Put(FamilyBlocks, []byte("aa"), []byte("1")))
	require.NoError(t, store.Put(FamilyBlocks, []byte("ab"), []byte("2")))
	require.NoError(t, store.Put(FamilyBlocks, []byte("ba"), []byte("3")))

	var seen []string
	err := store.ScanPrefix(FamilyBlocks, []byte("a"), func(key, value []byte) bool {
		seen = append(seen, string(key))
		return true
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"aa", "ab"}, seen)
}

func TestBatchCommitIsAtomicAcrossFamilies(t *testing.T) {
	store := openTestStore(t)

	batch := store.NewBatch()
	batch.Put(FamilyBlocks, []byte("k1"), []byte("v1"))
	batch.Put(FamilyTxs, []byte("k2"), []byte("v2"))
	require.NoError(t, batch.Commit())

	got, err := store.Get(FamilyBlocks, []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, []byte("v1"), got)

	got, err = store.Get(FamilyTxs, []byte("k2"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
}

func TestBatchDeleteStagesAlongsidePuts(t *testing.T) {
	store := openTestStore(t)
	require.NoError(t, store.Put(FamilyBlocks, []byte("k1"), []byte("v1")))

	batch := store.NewBatch()
	batch.Delete(FamilyBlocks, []byte("k1"))
	batch.Put(FamilyBlocks, []byte("k2"), []byte("v2"))
	require.NoError(t, batch.Commit())

	_, err := store.Get(FamilyBlocks, []byte("k1"))
	require.Error(t, err)
	got, err := store.Get(FamilyBlocks, []byte("k2"))
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)
}

func TestTipHeightRoundTrip(t *testing.T) {
	store := openTestStore(t)

	_, known, err := store.TipHeight()
	require.NoError(t, err)
	require.False(t, known)

	batch := store.NewBatch()
	batch.PutTipHeight(840123)
	require.NoError(t, batch.Commit())

	height, known, err := store.TipHeight()
	require.NoError(t, err)
	require.True(t, known)
	require.Equal(t, uint64(840123), height)
}

func TestEnsureSchemaVersionStampsThenValidates(t *testing.T) {
	store := openTestStore(t)

	require.NoError(t, store.EnsureSchemaVersion())
	require.NoError(t, store.EnsureSchemaVersion())
}

func TestRuneCountDefaultsToZero(t *testing.T) {
	store := openTestStore(t)

	count, err := store.RuneCount()
	require.NoError(t, err)
	require.Equal(t, uint64(0), count)

	batch := store.NewBatch()
	batch.PutRuneCount(3)
	require.NoError(t, batch.Commit())

	count, err = store.RuneCount()
	require.NoError(t, err)
	require.Equal(t, uint64(3), count)
}
