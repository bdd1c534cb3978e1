package pipeline

import (
	"github.com/runestoned/indexer/internal/metrics"
	"github.com/runestoned/indexer/internal/runes"
)

// observeChange increments reg's rune-activity counters from a single
// transaction's state change. reg may be nil, in which case this is a
// no-op — callers don't need to guard every call site themselves.
func observeChange(reg *metrics.Registry, change *runes.TransactionStateChange) {
	if reg == nil || change == nil {
		return
	}
	if change.Etched != nil {
		reg.RunesEtched.Inc()
	}
	if change.Minted != nil {
		reg.RunesMinted.Inc()
	}
	if len(change.Burned) > 0 {
		reg.RunesBurned.Inc()
	}
}
