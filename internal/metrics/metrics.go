// Package metrics exposes the indexer's Prometheus collectors. Unlike
// the teacher's metrics/prometheus package, which bridges a foreign
// go-ethereum metrics registry into prometheus.Gatherer, there is no
// equivalent foreign registry here, so these collectors are registered
// directly against client_golang.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry groups every collector the Block and Mempool Pipelines, the
// cache, and the Event Dispatcher report into.
type Registry struct {
	BlockHeight       prometheus.Gauge
	BlocksIndexed     prometheus.Counter
	ReorgsHandled     prometheus.Counter
	ReorgDepth        prometheus.Histogram
	MempoolSize       prometheus.Gauge
	MempoolTxsAdded   prometheus.Counter
	MempoolTxsRemoved prometheus.Counter
	FlushDuration     prometheus.Histogram
	FlushedEntries    prometheus.Counter
	Subscribers       prometheus.Gauge
	RunesEtched       prometheus.Counter
	RunesMinted       prometheus.Counter
	RunesBurned       prometheus.Counter
}

// New registers every collector against reg and returns the Registry
// holding them.
func New(reg prometheus.Registerer) *Registry {
	r := &Registry{
		BlockHeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "runestoned", Name: "block_height", Help: "Height of the last block indexed.",
		}),
		BlocksIndexed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runestoned", Name: "blocks_indexed_total", Help: "Blocks folded into the store.",
		}),
		ReorgsHandled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runestoned", Name: "reorgs_handled_total", Help: "Reorgs detected and recovered from.",
		}),
		ReorgDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "runestoned", Name: "reorg_depth_blocks", Help: "Depth of each recovered reorg.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		MempoolSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "runestoned", Name: "mempool_size", Help: "Transactions currently tracked as mempool-only.",
		}),
		MempoolTxsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runestoned", Name: "mempool_txs_added_total", Help: "Transactions indexed as new mempool entries.",
		}),
		MempoolTxsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runestoned", Name: "mempool_txs_removed_total", Help: "Mempool transactions rolled back (mined, replaced, or evicted).",
		}),
		FlushDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "runestoned", Name: "flush_duration_seconds", Help: "Time spent committing a cache flush window.",
			Buckets: prometheus.DefBuckets,
		}),
		FlushedEntries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runestoned", Name: "flushed_entries_total", Help: "Cache entries written out across all flushes.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "runestoned", Name: "event_subscribers", Help: "Live TCP/WebSocket event subscribers.",
		}),
		RunesEtched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runestoned", Name: "runes_etched_total", Help: "Runes etched.",
		}),
		RunesMinted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runestoned", Name: "runes_minted_total", Help: "Mint edicts applied.",
		}),
		RunesBurned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "runestoned", Name: "runes_burned_total", Help: "Runes burned by cenotaphs or explicit burns.",
		}),
	}

	reg.MustRegister(
		r.BlockHeight, r.BlocksIndexed, r.ReorgsHandled, r.ReorgDepth,
		r.MempoolSize, r.MempoolTxsAdded, r.MempoolTxsRemoved,
		r.FlushDuration, r.FlushedEntries, r.Subscribers,
		r.RunesEtched, r.RunesMinted, r.RunesBurned,
	)
	return r
}
