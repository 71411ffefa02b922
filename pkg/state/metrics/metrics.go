package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Writes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "messageboard",
		Name:      "writes_total",
		Help:      "Write attempts by partition kind and outcome.",
	}, []string{"kind", "outcome"})

	Reads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "messageboard",
		Name:      "reads_total",
		Help:      "Read operations by name.",
	}, []string{"op"})

	BatchRecords = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "messageboard",
		Name:      "batch_records",
		Help:      "Records packed into a batch read envelope.",
		Buckets:   []float64{0, 1, 5, 10, 50, 100, 250, 500, 1000},
	})

	Backups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "messageboard",
		Name:      "backups_total",
		Help:      "Checkpoint runs by result.",
	}, []string{"result"})

	gcPauseTotal = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_gc_pause_total_seconds",
			Help: "Total GC pause time in seconds.",
		},
		func() float64 {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return float64(m.PauseTotalNs) / 1e9
		},
	)

	heapAlloc = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "go_heap_alloc_bytes",
			Help: "Bytes of allocated heap objects.",
		},
		func() float64 {
			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			return float64(m.HeapAlloc)
		},
	)
)

// Outcome labels for Writes.
const (
	OutcomeStored   = "stored"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

func init() {
	prometheus.MustRegister(Writes, Reads, BatchRecords, Backups, gcPauseTotal, heapAlloc)
}
