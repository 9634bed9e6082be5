package observability

import (
	"math"
	"slices"
	"strings"
	"sync"
	"time"
)

// Stages recorded per classroom turn.
const (
	StageSendToReply  = "send_to_reply"
	StageStartToReply = "start_to_first_reply"
	StageSpeakToAudio = "speak_to_audio"
	StageStoreWrite   = "store_write"
)

// stageBudgets are the p95 targets in milliseconds shown next to each stage.
var stageBudgets = map[string]float64{
	StageSendToReply:  4000,
	StageStartToReply: 5000,
	StageSpeakToAudio: 2500,
	StageStoreWrite:   50,
}

type StageSummary struct {
	Stage    string  `json:"stage"`
	Samples  int     `json:"samples"`
	LastMS   float64 `json:"last_ms"`
	AvgMS    float64 `json:"avg_ms"`
	P50MS    float64 `json:"p50_ms"`
	P95MS    float64 `json:"p95_ms"`
	MaxMS    float64 `json:"max_ms"`
	BudgetMS float64 `json:"budget_p95_ms,omitempty"`
	// OverBudget is set once the window's p95 exceeds the budget.
	OverBudget bool `json:"over_budget,omitempty"`
}

type CounterSummary struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type LatencySnapshot struct {
	GeneratedAt time.Time        `json:"generated_at"`
	WindowSize  int              `json:"window_size"`
	Stages      []StageSummary   `json:"stages"`
	Counters    []CounterSummary `json:"counters,omitempty"`
}

// latencyWindow keeps the last N samples per stage plus event counters
// since the last reset.
type latencyWindow struct {
	mu       sync.Mutex
	size     int
	samples  map[string]*ring
	counters map[string]int
}

type ring struct {
	vals []float64
	pos  int
	last float64
}

func (r *ring) add(v float64, size int) {
	if len(r.vals) < size {
		r.vals = append(r.vals, v)
	} else {
		r.vals[r.pos] = v
		r.pos = (r.pos + 1) % size
	}
	r.last = v
}

func newLatencyWindow(size int) *latencyWindow {
	if size <= 0 {
		size = 256
	}
	return &latencyWindow{size: size, samples: map[string]*ring{}, counters: map[string]int{}}
}

func (w *latencyWindow) observe(stage string, ms float64) {
	if stage == "" || ms < 0 || math.IsNaN(ms) {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	r := w.samples[stage]
	if r == nil {
		r = &ring{}
		w.samples[stage] = r
	}
	r.add(ms, w.size)
}

func (w *latencyWindow) count(name string) {
	if name = strings.TrimSpace(name); name == "" {
		return
	}
	w.mu.Lock()
	w.counters[name]++
	w.mu.Unlock()
}

func (w *latencyWindow) reset() {
	w.mu.Lock()
	w.samples = map[string]*ring{}
	w.counters = map[string]int{}
	w.mu.Unlock()
}

func (w *latencyWindow) snapshot() LatencySnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	snap := LatencySnapshot{GeneratedAt: time.Now().UTC(), WindowSize: w.size, Stages: []StageSummary{}}
	for _, stage := range sortedKeys(w.samples) {
		r := w.samples[stage]
		if len(r.vals) == 0 {
			continue
		}
		vals := slices.Clone(r.vals)
		slices.Sort(vals)
		var sum float64
		for _, v := range vals {
			sum += v
		}
		s := StageSummary{
			Stage:    stage,
			Samples:  len(vals),
			LastMS:   roundMS(r.last),
			AvgMS:    roundMS(sum / float64(len(vals))),
			P50MS:    roundMS(nearestRank(vals, 50)),
			P95MS:    roundMS(nearestRank(vals, 95)),
			MaxMS:    roundMS(vals[len(vals)-1]),
			BudgetMS: stageBudgets[stage],
		}
		s.OverBudget = s.BudgetMS > 0 && s.P95MS > s.BudgetMS
		snap.Stages = append(snap.Stages, s)
	}
	for _, name := range sortedKeys(w.counters) {
		snap.Counters = append(snap.Counters, CounterSummary{Name: name, Count: w.counters[name]})
	}
	return snap
}

// nearestRank returns the p-th percentile of sorted values.
func nearestRank(sorted []float64, p int) float64 {
	rank := int(math.Ceil(float64(p) / 100 * float64(len(sorted))))
	rank = max(1, min(rank, len(sorted)))
	return sorted[rank-1]
}

func roundMS(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
