package observability

import "testing"

func TestLatencyWindowSnapshot(t *testing.T) {
	w := newLatencyWindow(8)
	for _, ms := range []float64{500, 900, 700} {
		w.observe(StageSpeakToAudio, ms)
	}
	w.observe(StageSpeakToAudio, -1)
	w.count("quota_retry")
	w.count("quota_retry")
	w.count("  ")

	snap := w.snapshot()
	if snap.WindowSize != 8 {
		t.Fatalf("WindowSize = %d, want 8", snap.WindowSize)
	}
	if len(snap.Stages) != 1 {
		t.Fatalf("len(Stages) = %d, want 1", len(snap.Stages))
	}
	s := snap.Stages[0]
	if s.Stage != StageSpeakToAudio || s.Samples != 3 {
		t.Fatalf("stage = %+v", s)
	}
	if s.LastMS != 700 || s.P50MS != 700 || s.P95MS != 900 || s.MaxMS != 900 {
		t.Fatalf("stage = %+v, want last=700 p50=700 p95=900 max=900", s)
	}
	if s.BudgetMS != 2500 || s.OverBudget {
		t.Fatalf("budget = %.0f over=%v, want 2500 false", s.BudgetMS, s.OverBudget)
	}
	if len(snap.Counters) != 1 || snap.Counters[0] != (CounterSummary{Name: "quota_retry", Count: 2}) {
		t.Fatalf("Counters = %+v", snap.Counters)
	}
}

func TestLatencyWindowEvictsOldest(t *testing.T) {
	w := newLatencyWindow(3)
	for _, ms := range []float64{10000, 10000, 20, 30, 40} {
		w.observe(StageStoreWrite, ms)
	}
	s := w.snapshot().Stages[0]
	if s.Samples != 3 || s.MaxMS != 40 || s.AvgMS != 30 {
		t.Fatalf("stage = %+v, want 3 samples max=40 avg=30", s)
	}
}

func TestLatencyWindowFlagsOverBudget(t *testing.T) {
	w := newLatencyWindow(4)
	w.observe(StageStoreWrite, 10)
	w.observe(StageStoreWrite, 120)
	s := w.snapshot().Stages[0]
	if !s.OverBudget {
		t.Fatalf("OverBudget = false for p95=%.0f budget=%.0f", s.P95MS, s.BudgetMS)
	}
}
