package datasource

// Metric names recorded by the hybrid datasource.
const (
	MetricNotificationsReceived = "block_notifications_received"
	MetricBlocksFetched         = "blocks_fetched"
	MetricBlocksSkipped         = "blocks_skipped"
	MetricBlockFetchErrors      = "block_fetch_errors"
	MetricTransactionsProcessed = "transactions_processed"
	MetricBlockFetchMillis      = "block_fetch_time_milliseconds"
	MetricTransactionMillis     = "transaction_process_time_milliseconds"
)

// MetricsRecorder receives counter and histogram observations from the
// datasource. Recording is fire-and-forget: implementations must never
// block or fail in a way that affects the caller.
type MetricsRecorder interface {
	IncCounter(name string, delta uint64)
	ObserveHistogram(name string, value float64)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) IncCounter(string, uint64)        {}
func (NopMetrics) ObserveHistogram(string, float64) {}
