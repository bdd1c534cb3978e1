package pipeline

import (
	"sync"
	"time"
)

// debouncer suppresses re-indexing a txid the Mempool Pipeline saw within
// the last window, in case two Sync calls race a single broadcast before
// the store reflects the first one.
type debouncer struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[[32]byte]time.Time
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{window: window, seen: map[[32]byte]time.Time{}}
}

// seenRecently reports whether txid was marked within the debounce
// window as of now, evicting stale entries it happens to walk past.
func (d *debouncer) seenRecently(txid [32]byte, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	at, ok := d.seen[txid]
	if !ok {
		return false
	}
	if now.Sub(at) > d.window {
		delete(d.seen, txid)
		return false
	}
	return true
}

func (d *debouncer) markSeen(txid [32]byte, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen[txid] = now
}
