package executor

import "github.com/prometheus/client_golang/prometheus"

var (
	chunksProcessedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agr_chunks_processed_total",
		Help: "Total chunks submitted to the parallel executor",
	})
	chunksSucceededTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agr_chunks_succeeded_total",
		Help: "Total chunks whose backend invocation and parse both succeeded",
	})
	chunksFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "agr_chunks_failed_total",
		Help: "Total chunks whose backend invocation or parse failed",
	})
	workersSelected = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "agr_workers_selected",
		Help: "Worker count the parallel executor used for the most recent run (1 when a single chunk runs inline)",
	})
)

func init() {
	prometheus.MustRegister(chunksProcessedTotal, chunksSucceededTotal, chunksFailedTotal, workersSelected)
}

// observeResults feeds executor run metrics from a completed batch.
func observeResults(workerCount int, results []ChunkResult) {
	workersSelected.Set(float64(workerCount))
	for _, r := range results {
		chunksProcessedTotal.Inc()
		if r.IsSuccess() {
			chunksSucceededTotal.Inc()
		} else {
			chunksFailedTotal.Inc()
		}
	}
}
