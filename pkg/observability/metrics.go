package observability

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/polya/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "polya"

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	SessionsStarted *prometheus.CounterVec
	StepEntries     *prometheus.CounterVec
	HintToggles     *prometheus.CounterVec
	Completions     *prometheus.CounterVec
	Resets          *prometheus.CounterVec
	Scores          *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SessionsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_started_total",
				Help:      "Sessions started or rebound to a new exercise",
			},
			[]string{"exercise_id"},
		),
		StepEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "step_entries_total",
				Help:      "Times a learner entered a step",
			},
			[]string{"exercise_id", "step"},
		),
		HintToggles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hint_toggles_total",
				Help:      "Hint panel toggles",
			},
			[]string{"exercise_id", "step", "visible"},
		),
		Completions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "completions_total",
				Help:      "Finalized sessions",
			},
			[]string{"exercise_id", "category"},
		),
		Resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resets_total",
				Help:      "Session resets",
			},
			[]string{"exercise_id"},
		),
		Scores: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "completion_score",
				Help:      "Score of finalized sessions (0-100)",
				Buckets:   prometheus.LinearBuckets(0, 25, 5),
			},
			[]string{"exercise_id"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.SessionsStarted, m.StepEntries, m.HintToggles, m.Completions, m.Resets, m.Scores)
	}
	return m
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record metrics and log each event.
// Either argument may be nil.
func Hooks(m *Metrics, logger *slog.Logger) domain.LifecycleHooks {
	log := func(ctx context.Context, msg string, args ...any) {
		if logger != nil {
			logger.InfoContext(ctx, msg, args...)
		}
	}

	return domain.LifecycleHooks{
		OnSessionStart: func(ctx context.Context, e *domain.StepEvent) {
			log(ctx, "session_start", "session_id", e.SessionID, "exercise_id", e.ExerciseID)
			if m != nil {
				m.SessionsStarted.WithLabelValues(e.ExerciseID).Inc()
				m.StepEntries.WithLabelValues(e.ExerciseID, strconv.Itoa(e.StepIndex)).Inc()
			}
		},
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			log(ctx, "step_enter", "session_id", e.SessionID, "exercise_id", e.ExerciseID, "step", e.StepIndex, "title", e.StepTitle)
			if m != nil {
				m.StepEntries.WithLabelValues(e.ExerciseID, strconv.Itoa(e.StepIndex)).Inc()
			}
		},
		OnHintToggle: func(ctx context.Context, e *domain.HintEvent) {
			log(ctx, "hint_toggle", "session_id", e.SessionID, "exercise_id", e.ExerciseID, "step", e.StepIndex, "visible", e.Visible)
			if m != nil {
				m.HintToggles.WithLabelValues(e.ExerciseID, strconv.Itoa(e.StepIndex), strconv.FormatBool(e.Visible)).Inc()
			}
		},
		OnComplete: func(ctx context.Context, e *domain.CompletionEvent) {
			log(ctx, "complete", "session_id", e.SessionID, "exercise_id", e.ExerciseID, "score", e.Score, "substantive", e.Substantive)
			if m != nil {
				m.Completions.WithLabelValues(e.ExerciseID, e.Category).Inc()
				m.Scores.WithLabelValues(e.ExerciseID).Observe(float64(e.Score))
			}
		},
		OnReset: func(ctx context.Context, e *domain.StepEvent) {
			log(ctx, "reset", "session_id", e.SessionID, "exercise_id", e.ExerciseID)
			if m != nil {
				m.Resets.WithLabelValues(e.ExerciseID).Inc()
			}
		},
	}
}

// Combine returns hooks that call each of the given hook sets in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnSessionStart = chain(out.OnSessionStart, h.OnSessionStart)
		out.OnStepEnter = chain(out.OnStepEnter, h.OnStepEnter)
		out.OnHintToggle = chain(out.OnHintToggle, h.OnHintToggle)
		out.OnComplete = chain(out.OnComplete, h.OnComplete)
		out.OnReset = chain(out.OnReset, h.OnReset)
	}
	return out
}

func chain[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *E) {
		a(ctx, e)
		b(ctx, e)
	}
}
