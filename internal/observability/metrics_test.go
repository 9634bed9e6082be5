package observability

import (
	"fmt"
	"testing"
	"time"
)

func TestMetricsObserveTurnStageFeedsWindow(t *testing.T) {
	m := NewMetrics(fmt.Sprintf("aimaster_test_metrics_%d", time.Now().UnixNano()))
	m.ObserveTurnStage(StageSendToReply, 1200*time.Millisecond)
	m.ObserveTurnStage(StageSendToReply, 800*time.Millisecond)
	m.ObserveIndicator("quota_retry")

	snap := m.LatencySnapshot()
	if len(snap.Stages) != 1 || snap.Stages[0].Samples != 2 {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.Stages[0].AvgMS != 1000 {
		t.Fatalf("AvgMS = %.2f, want 1000", snap.Stages[0].AvgMS)
	}

	m.ResetLatency()
	if got := m.LatencySnapshot(); len(got.Stages) != 0 || len(got.Counters) != 0 {
		t.Fatalf("snapshot after reset = %+v", got)
	}
}
