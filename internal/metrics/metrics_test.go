package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/curator/internal/metrics"
)

func TestComparisonsTotalIncrements(t *testing.T) {
	c := metrics.ComparisonsTotal.WithLabelValues("applied")
	before := testutil.ToFloat64(c)

	c.Inc()

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("applied comparisons: got %v, want %v", got, before+1)
	}
}

func TestReconcileRunsByOutcome(t *testing.T) {
	busy := metrics.ReconcileRuns.WithLabelValues("busy")
	ok := metrics.ReconcileRuns.WithLabelValues("ok")
	busyBefore, okBefore := testutil.ToFloat64(busy), testutil.ToFloat64(ok)

	busy.Inc()

	if got := testutil.ToFloat64(busy); got != busyBefore+1 {
		t.Errorf("busy runs: got %v, want %v", got, busyBefore+1)
	}
	if got := testutil.ToFloat64(ok); got != okBefore {
		t.Errorf("ok runs changed: got %v, want %v", got, okBefore)
	}
}

func TestObserveQuery(t *testing.T) {
	metrics.ObserveQuery("metrics_test", time.Now().Add(-5*time.Millisecond))

	if n := testutil.CollectAndCount(metrics.QueryDuration, "curator_query_duration_seconds"); n < 1 {
		t.Errorf("query duration series: got %d, want at least 1", n)
	}
}
