package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/polya"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/aretw0/polya/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooks_RecordMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	engine, err := polya.New("", polya.WithLifecycleHooks(observability.Hooks(metrics, logger)))
	require.NoError(t, err)
	ctx := context.Background()

	s, _ := engine.Start(ctx, "s", 0)
	s, _ = engine.ToggleHint(ctx, s, 0)
	s, _ = engine.SetAnswer(ctx, s, 0, strings.Repeat("x", 51))
	for i := 0; i < 4; i++ {
		s, _ = engine.Advance(ctx, s)
	}
	_, _ = engine.Reset(ctx, s)

	id := "shopping-optimization"
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SessionsStarted.WithLabelValues(id)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HintToggles.WithLabelValues(id, "0", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StepEntries.WithLabelValues(id, "3")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Completions.WithLabelValues(id, "math")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Resets.WithLabelValues(id)))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.Scores))

	assert.Contains(t, logs.String(), "msg=complete")
	assert.Contains(t, logs.String(), "score=25")
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)
	metrics.Completions.WithLabelValues("ex", "logic").Inc()

	rec := httptest.NewRecorder()
	observability.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `polya_completions_total{category="logic",exercise_id="ex"} 1`)
}

func TestCombine(t *testing.T) {
	var order []string
	a := domain.LifecycleHooks{OnReset: func(ctx context.Context, e *domain.StepEvent) { order = append(order, "a") }}
	b := domain.LifecycleHooks{OnReset: func(ctx context.Context, e *domain.StepEvent) { order = append(order, "b") }}

	hooks := observability.Combine(a, domain.LifecycleHooks{}, b)
	require.NotNil(t, hooks.OnReset)
	assert.Nil(t, hooks.OnComplete)

	hooks.OnReset(context.Background(), &domain.StepEvent{})
	assert.Equal(t, []string{"a", "b"}, order)
}
