package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the question pipeline.
type Metrics struct {
	Questions        *prometheus.CounterVec
	PipelineDuration prometheus.Histogram
	SectionsOmitted  *prometheus.CounterVec
	RegistryEntries  prometheus.Histogram
	ActiveSessions   prometheus.Gauge
	SessionsEnded    prometheus.Counter
}

// New creates a Metrics instance with all assistant metrics registered.
func New() *Metrics {
	return &Metrics{
		Questions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finsight_assistant_questions_total",
			Help: "Questions answered by tier and outcome",
		}, []string{"tier", "outcome"}), // outcome: "ok", "data_error", "llm_error"

		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "finsight_assistant_pipeline_duration_seconds",
			Help:    "End to end duration of a question including the model call",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),

		SectionsOmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finsight_assistant_sections_omitted_total",
			Help: "Context sections left empty because their source failed",
		}, []string{"section"}),

		RegistryEntries: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "finsight_assistant_registry_entries",
			Help:    "Token registry size of the session after assembling a prompt",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),

		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "finsight_assistant_active_sessions",
			Help: "Sessions holding a live token registry",
		}),

		SessionsEnded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "finsight_assistant_sessions_ended_total",
			Help: "Session registries cleared by the logout hook",
		}),
	}
}

func (m *Metrics) IncrementQuestion(tier, outcome string) {
	if m != nil {
		m.Questions.WithLabelValues(tier, outcome).Inc()
	}
}

func (m *Metrics) ObservePipeline(d time.Duration) {
	if m != nil {
		m.PipelineDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementSectionOmitted(section string) {
	if m != nil {
		m.SectionsOmitted.WithLabelValues(section).Inc()
	}
}

func (m *Metrics) ObserveRegistrySize(n int) {
	if m != nil {
		m.RegistryEntries.Observe(float64(n))
	}
}

// SetActiveSessions fits tokenize.WithActiveObserver.
func (m *Metrics) SetActiveSessions(n int) {
	if m != nil {
		m.ActiveSessions.Set(float64(n))
	}
}

func (m *Metrics) IncrementSessionEnded() {
	if m != nil {
		m.SessionsEnded.Inc()
	}
}
