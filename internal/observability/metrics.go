package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveSessions prometheus.Gauge
	SessionEvents  *prometheus.CounterVec
	WSMessages     *prometheus.CounterVec
	BackendErrors  *prometheus.CounterVec
	QuotaRetries   prometheus.Counter
	TurnLatency    prometheus.Histogram
	SpeechOutcomes *prometheus.CounterVec
	SpeechLatency  prometheus.Histogram

	stages *latencyWindow
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of learners with an active conversation session.",
		}),
		SessionEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session events by type.",
		}, []string{"event"}),
		WSMessages: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		BackendErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_errors_total",
			Help:      "Backend failures that survived retries, by kind.",
		}, []string{"kind"}),
		QuotaRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quota_retries_total",
			Help:      "Text turns retried after a quota error.",
		}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "Latency from learner message to assistant reply in milliseconds.",
			Buckets:   []float64{250, 500, 1000, 2000, 3000, 5000, 8000, 15000},
		}),
		SpeechOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speech_requests_total",
			Help:      "Speak requests by outcome.",
		}, []string{"outcome"}),
		SpeechLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "speech_start_latency_ms",
			Help:      "Latency from speak request to playback start in milliseconds.",
			Buckets:   []float64{200, 400, 700, 1000, 1500, 2500, 4000},
		}),
		stages: newLatencyWindow(256),
	}
}

// ObserveTurnStage records a stage both in Prometheus and in the rolling window.
func (m *Metrics) ObserveTurnStage(stage string, d time.Duration) {
	ms := float64(d.Microseconds()) / 1000
	switch stage {
	case StageSendToReply:
		m.TurnLatency.Observe(ms)
	case StageSpeakToAudio:
		m.SpeechLatency.Observe(ms)
	}
	m.stages.observe(stage, ms)
}

func (m *Metrics) ObserveIndicator(name string) {
	m.stages.count(name)
}

// LatencySnapshot summarizes the recent window for the perf endpoint.
func (m *Metrics) LatencySnapshot() LatencySnapshot {
	return m.stages.snapshot()
}

func (m *Metrics) ResetLatency() {
	m.stages.reset()
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
