package observability

import (
	"context"
	"strconv"

	"github.com/aretw0/mrt/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	PhaseEnters     *prometheus.CounterVec
	TrialsResolved  *prometheus.CounterVec
	ReactionTime    *prometheus.HistogramVec
	SessionsDone    prometheus.Counter
	SinkFailures    *prometheus.CounterVec
	MainAccuracyPct prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg means prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		PhaseEnters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mrt_phase_enter_total",
				Help: "Total number of sequencer phase entries",
			},
			[]string{"phase"},
		),
		TrialsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mrt_trials_resolved_total",
				Help: "Total number of resolved trials",
			},
			[]string{"block", "response", "correct"},
		),
		ReactionTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mrt_reaction_time_seconds",
				Help:    "Reaction time of answered trials",
				Buckets: []float64{0.25, 0.5, 0.75, 1, 1.5, 2, 2.5, 3, 3.5},
			},
			[]string{"block"},
		),
		SessionsDone: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mrt_sessions_completed_total",
			Help: "Total number of completed sessions",
		}),
		SinkFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mrt_sink_failures_total",
				Help: "Total number of swallowed sink submission failures",
			},
			[]string{"action"},
		),
		MainAccuracyPct: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mrt_session_accuracy_percent",
			Help:    "Main block accuracy of completed sessions with at least one answer",
			Buckets: prometheus.LinearBuckets(10, 10, 10),
		}),
	}

	for _, c := range []prometheus.Collector{m.PhaseEnters, m.TrialsResolved, m.ReactionTime, m.SessionsDone, m.SinkFailures, m.MainAccuracyPct} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks recording into m. Merge them with other hooks
// via domain.LifecycleHooks.Merge.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnter: func(ctx context.Context, e *domain.PhaseEvent) {
			m.PhaseEnters.WithLabelValues(string(e.Phase)).Inc()
		},
		OnTrialResolved: func(ctx context.Context, e *domain.TrialEvent) {
			r := e.Record
			m.TrialsResolved.WithLabelValues(string(r.Block), string(r.Response), strconv.FormatBool(r.Correct)).Inc()
			if r.ReactionTimeMs != nil {
				m.ReactionTime.WithLabelValues(string(r.Block)).Observe(float64(*r.ReactionTimeMs) / 1000)
			}
		},
		OnSessionComplete: func(ctx context.Context, e *domain.SummaryEvent) {
			m.SessionsDone.Inc()
			if e.Summary.AccuracyPercent != nil {
				m.MainAccuracyPct.Observe(*e.Summary.AccuracyPercent)
			}
		},
		OnSinkError: func(ctx context.Context, e *domain.SinkEvent) {
			m.SinkFailures.WithLabelValues(e.Action).Inc()
		},
	}
}
