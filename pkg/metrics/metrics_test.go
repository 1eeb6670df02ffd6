package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordScore(t *testing.T) {
	before := testutil.ToFloat64(ScoreRequests.WithLabelValues("fallback"))
	RecordScore("fallback", 10*time.Millisecond)
	if got := testutil.ToFloat64(ScoreRequests.WithLabelValues("fallback")); got != before+1 {
		t.Errorf("fallback count = %v, want %v", got, before+1)
	}
}

func TestRecordTelemetryOutcome(t *testing.T) {
	okBefore := testutil.ToFloat64(TelemetryEvents.WithLabelValues("view", "ok"))
	errBefore := testutil.ToFloat64(TelemetryEvents.WithLabelValues("view", "error"))

	RecordTelemetry("view", nil)
	RecordTelemetry("view", errors.New("broker down"))

	if got := testutil.ToFloat64(TelemetryEvents.WithLabelValues("view", "ok")); got != okBefore+1 {
		t.Errorf("ok = %v, want %v", got, okBefore+1)
	}
	if got := testutil.ToFloat64(TelemetryEvents.WithLabelValues("view", "error")); got != errBefore+1 {
		t.Errorf("error = %v, want %v", got, errBefore+1)
	}
}
