// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"solana-dex-stream/internal/datasource"
	"solana-dex-stream/internal/pipeline"
)

// Metrics maps the stream's named observations onto registered Prometheus
// collectors. Observations under unknown names are dropped, so adding a
// metric name without registering it here is harmless but invisible.
type Metrics struct {
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

// Compile-time interface check.
var _ datasource.MetricsRecorder = (*Metrics)(nil)

// NewMetrics creates a Metrics instance with all collectors registered on
// the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_dex_stream"
	}

	counter := func(subsystem, name, help string) prometheus.Counter {
		return promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		})
	}
	histogram := func(subsystem, name, help string, buckets []float64) prometheus.Histogram {
		return promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
			Buckets:   buckets,
		})
	}

	latencyBuckets := []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

	return &Metrics{
		counters: map[string]prometheus.Counter{
			datasource.MetricNotificationsReceived: counter("datasource", "block_notifications_received_total",
				"Total number of slot notifications received over WebSocket"),
			datasource.MetricBlocksFetched: counter("datasource", "blocks_fetched_total",
				"Total number of blocks fetched over RPC"),
			datasource.MetricBlocksSkipped: counter("datasource", "blocks_skipped_total",
				"Total number of slots the cluster reported as skipped"),
			datasource.MetricBlockFetchErrors: counter("datasource", "block_fetch_errors_total",
				"Total number of block fetch failures other than skips"),
			datasource.MetricTransactionsProcessed: counter("datasource", "transactions_processed_total",
				"Total number of transactions emitted downstream"),
			pipeline.MetricEventsDecoded: counter("pipeline", "events_decoded_total",
				"Total number of DEX events decoded from instructions"),
			pipeline.MetricEventsPublished: counter("pipeline", "events_published_total",
				"Total number of DEX events delivered to all sinks"),
			pipeline.MetricPublishErrors: counter("pipeline", "publish_errors_total",
				"Total number of publish attempts with at least one failing sink"),
			pipeline.MetricEventsArchived: counter("pipeline", "events_archived_total",
				"Total number of DEX events written to the archive"),
			pipeline.MetricVoteTxsSkipped: counter("pipeline", "vote_transactions_skipped_total",
				"Total number of vote transactions dropped before decoding"),
			pipeline.MetricUnknownPrograms: counter("pipeline", "unknown_program_instructions_total",
				"Total number of instructions targeting programs without a handler"),
			pipeline.MetricMalformedDecodes: counter("pipeline", "malformed_instruction_data_total",
				"Total number of instructions with undecodable data"),
		},
		histograms: map[string]prometheus.Histogram{
			datasource.MetricBlockFetchMillis: histogram("datasource", "block_fetch_time_milliseconds",
				"Time to fetch one block over RPC", latencyBuckets),
			datasource.MetricTransactionMillis: histogram("datasource", "transaction_process_time_milliseconds",
				"Time to decompose and forward one transaction", latencyBuckets),
			pipeline.MetricDecodeMillis: histogram("pipeline", "decode_time_milliseconds",
				"Time to decode and emit all events of one transaction", latencyBuckets),
		},
	}
}

// IncCounter adds delta to the named counter.
func (m *Metrics) IncCounter(name string, delta uint64) {
	if c, ok := m.counters[name]; ok {
		c.Add(float64(delta))
	}
}

// ObserveHistogram records one observation on the named histogram.
func (m *Metrics) ObserveHistogram(name string, value float64) {
	if h, ok := m.histograms[name]; ok {
		h.Observe(value)
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
