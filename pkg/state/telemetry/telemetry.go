package telemetry

import (
	"sync"
	"time"

	"messageboard/pkg/state/logger"

	"github.com/prometheus/client_golang/prometheus"
)

type Step struct {
	Name     string  `json:"name"`
	Duration float64 `json:"duration_ms"`
}

type Trace struct {
	Name     string    `json:"name"`
	Start    time.Time `json:"start"`
	Steps    []Step    `json:"steps"`
	TotalMS  float64   `json:"total_ms"`
	lastMark time.Time
	tel      *Telemetry
}

// Telemetry records operation traces as prometheus observations and
// logs traces slower than the configured threshold.
type Telemetry struct {
	mu            sync.RWMutex
	slowThreshold time.Duration
	durations     *prometheus.HistogramVec
}

var opDurations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "messageboard",
	Name:      "op_duration_seconds",
	Help:      "Duration of board operations.",
	Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
}, []string{"op"})

func init() {
	prometheus.MustRegister(opDurations)
}

var (
	tel     *Telemetry
	telOnce sync.Once
)

// Init configures the global telemetry instance.
func Init(slowThreshold time.Duration) {
	global().SetSlowThreshold(slowThreshold)
}

func global() *Telemetry {
	telOnce.Do(func() {
		tel = New(0, opDurations)
	})
	return tel
}

// Track starts a new trace using the global telemetry instance.
func Track(name string) *Trace {
	return global().Track(name)
}

// New creates a telemetry instance observing into durations. A zero
// slowThreshold disables slow-op logging.
func New(slowThreshold time.Duration, durations *prometheus.HistogramVec) *Telemetry {
	return &Telemetry{slowThreshold: slowThreshold, durations: durations}
}

func (t *Telemetry) SetSlowThreshold(d time.Duration) {
	t.mu.Lock()
	t.slowThreshold = d
	t.mu.Unlock()
}

func (t *Telemetry) threshold() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.slowThreshold
}

// Track starts a new trace linked to this telemetry.
func (t *Telemetry) Track(name string) *Trace {
	now := time.Now()
	return &Trace{
		Name:     name,
		Start:    now,
		lastMark: now,
		tel:      t,
	}
}

// Mark records the elapsed duration since last mark.
func (tr *Trace) Mark(label string) {
	now := time.Now()
	delta := now.Sub(tr.lastMark).Seconds() * 1000
	tr.Steps = append(tr.Steps, Step{Name: label, Duration: delta})
	tr.lastMark = now
}

// Finish finalizes the trace. Safe to call multiple times or via defer.
func (tr *Trace) Finish() {
	if tr.tel == nil {
		return
	}
	t := tr.tel
	tr.tel = nil

	elapsed := time.Since(tr.Start)
	tr.TotalMS = elapsed.Seconds() * 1000

	var sum float64
	for _, s := range tr.Steps {
		sum += s.Duration
	}
	if remaining := tr.TotalMS - sum; remaining > 0.001 {
		tr.Steps = append(tr.Steps, Step{Name: "unmarked", Duration: remaining})
	}

	if t.durations != nil {
		t.durations.WithLabelValues(tr.Name).Observe(elapsed.Seconds())
	}
	if th := t.threshold(); th > 0 && elapsed >= th {
		logger.Warn("slow_operation", "op", tr.Name, "total_ms", tr.TotalMS, "steps", tr.Steps)
	}
}
