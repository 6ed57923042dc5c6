package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/lendflow/pkg/domain"
)

const namespace = "lendflow"

// Metrics holds the engine collectors.
type Metrics struct {
	Turns       *prometheus.CounterVec
	Transitions *prometheus.CounterVec
	Artifacts   *prometheus.CounterVec
	ArtifactDur prometheus.Histogram
	Phrases     *prometheus.CounterVec
	PhraseDur   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Handled turns by state and fault.",
		}, []string{"state", "fault", "automatic"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "State transitions.",
		}, []string{"from", "to"}),
		Artifacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_total",
			Help:      "Sanction letter generation attempts by outcome.",
		}, []string{"outcome"}),
		ArtifactDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "artifact_duration_seconds",
			Help:      "Sanction letter generation latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		Phrases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phrases_total",
			Help:      "Phrasing assistant calls by whether the reply was used.",
		}, []string{"field", "used"}),
		PhraseDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "phrase_duration_seconds",
			Help:      "Phrasing assistant latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
	}

	for _, c := range []prometheus.Collector{m.Turns, m.Transitions, m.Artifacts, m.ArtifactDur, m.Phrases, m.PhraseDur} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks records every lifecycle event on the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTurn: func(_ context.Context, e *domain.TurnEvent) {
			m.Turns.WithLabelValues(string(e.State), string(e.Fault), strconv.FormatBool(e.Automatic)).Inc()
		},
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnArtifact: func(_ context.Context, e *domain.ArtifactEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.Artifacts.WithLabelValues(outcome).Inc()
			m.ArtifactDur.Observe(e.Duration.Seconds())
		},
		OnPhrase: func(_ context.Context, e *domain.PhraseEvent) {
			m.Phrases.WithLabelValues(string(e.Field), strconv.FormatBool(e.Used)).Inc()
			m.PhraseDur.Observe(e.Duration.Seconds())
		},
	}
}

// Handler serves the gathered metrics in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
