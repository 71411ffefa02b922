package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTraceFinishObservesOnce(t *testing.T) {
	hist := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_op_seconds"}, []string{"op"})
	tel := New(time.Nanosecond, hist)

	tr := tel.Track("post")
	tr.Mark("validate")
	tr.Mark("commit")
	tr.Finish()
	tr.Finish()

	if got := testutil.CollectAndCount(hist); got != 1 {
		t.Fatalf("expected one series, got %d", got)
	}
	if len(tr.Steps) < 2 {
		t.Fatalf("expected marked steps, got %+v", tr.Steps)
	}
	if tr.Steps[0].Name != "validate" || tr.Steps[1].Name != "commit" {
		t.Fatalf("unexpected step order: %+v", tr.Steps)
	}
	if tr.TotalMS <= 0 {
		t.Fatalf("expected positive total, got %f", tr.TotalMS)
	}
}

func TestGlobalTrack(t *testing.T) {
	Init(0)
	tr := Track("global_op")
	tr.Finish()
	if tr.Name != "global_op" {
		t.Fatalf("unexpected trace name %q", tr.Name)
	}
}
