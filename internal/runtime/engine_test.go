package runtime_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/polya/internal/runtime"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourStep(id string) domain.Exercise {
	ex := domain.Exercise{ID: id, Title: strings.ToUpper(id), Difficulty: "basic", Category: "math", Problem: "problem " + id}
	for _, title := range []string{"Understand", "Plan", "Execute", "Review"} {
		ex.Steps = append(ex.Steps, domain.Step{
			Title:        title,
			Prompt:       title + " prompt",
			Hints:        []string{title + " hint 1", title + " hint 2"},
			SampleAnswer: title + " sample",
		})
	}
	return ex
}

func newEngine(t *testing.T, opts ...runtime.EngineOption) *runtime.Engine {
	t.Helper()
	engine, err := runtime.NewEngine([]domain.Exercise{fourStep("shopping"), fourStep("meeting")}, opts...)
	require.NoError(t, err)
	return engine
}

var long = strings.Repeat("a", 51)

func TestNewEngine_Validation(t *testing.T) {
	_, err := runtime.NewEngine(nil)
	assert.ErrorIs(t, err, domain.ErrEmptyCatalog)

	_, err = runtime.NewEngine([]domain.Exercise{{ID: "empty"}})
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
}

func TestEngine_Start(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	s, err := engine.Start(ctx, "sess-1", 1)
	require.NoError(t, err)

	assert.Equal(t, "sess-1", s.ID)
	assert.Equal(t, 1, s.ExerciseIndex)
	assert.Equal(t, "meeting", s.ExerciseID)
	assert.Equal(t, 0, s.StepIndex)
	assert.Equal(t, []string{"", "", "", ""}, s.Answers)
	assert.Equal(t, []bool{false, false, false, false}, s.HintVisible)
	assert.False(t, s.Completed)
	assert.Nil(t, s.Score)

	_, err = engine.Start(ctx, "sess-1", 2)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
	_, err = engine.Start(ctx, "sess-1", -1)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
}

func TestEngine_SelectExercise_ReplacesSession(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	s, err := engine.Start(ctx, "sess-1", 0)
	require.NoError(t, err)
	s, err = engine.SetAnswer(ctx, s, 0, "draft")
	require.NoError(t, err)
	s, err = engine.Advance(ctx, s)
	require.NoError(t, err)

	next, err := engine.SelectExercise(ctx, s, 1)
	require.NoError(t, err)
	assert.Equal(t, "sess-1", next.ID)
	assert.Equal(t, "meeting", next.ExerciseID)
	assert.Equal(t, 0, next.StepIndex)
	assert.Equal(t, []string{"", "", "", ""}, next.Answers)

	_, err = engine.SelectExercise(ctx, s, 7)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
	assert.Equal(t, "shopping", s.ExerciseID)
}

func TestEngine_AdvanceAndFinalize(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	s, err := engine.Start(ctx, "sess-1", 0)
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		s, err = engine.Advance(ctx, s)
		require.NoError(t, err)
		assert.Equal(t, i, s.StepIndex)
		assert.False(t, s.Completed)
		assert.Nil(t, s.Score)
	}

	s, err = engine.Advance(ctx, s)
	require.NoError(t, err)
	assert.True(t, s.Completed)
	require.NotNil(t, s.Score)
	assert.Equal(t, 0, *s.Score)
	assert.Equal(t, 3, s.StepIndex)

	again, err := engine.Advance(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, s, again)
}

func TestEngine_Scoring(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		want    int
	}{
		{"Two Substantive", []string{long, long, "short", ""}, 50},
		{"All Substantive", []string{long, long, long, long}, 100},
		{"None", []string{"", "", "", ""}, 0},
		{"Whitespace Padding Ignored", []string{"  " + strings.Repeat("b", 50) + "  ", long, long, long}, 75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newEngine(t)
			ctx := context.Background()

			s, err := engine.Start(ctx, "sess", 0)
			require.NoError(t, err)
			for i, a := range tt.answers {
				s, err = engine.SetAnswer(ctx, s, i, a)
				require.NoError(t, err)
			}
			for i := 0; i < 4; i++ {
				s, err = engine.Advance(ctx, s)
				require.NoError(t, err)
			}
			require.True(t, s.Completed)
			assert.Equal(t, tt.want, *s.Score)
		})
	}
}

func TestEngine_ScoreFixedAfterCompletion(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	s, _ := engine.Start(ctx, "sess", 0)
	s, _ = engine.GoToStep(ctx, s, 3)
	s, err := engine.Advance(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 0, *s.Score)

	s, err = engine.SetAnswer(ctx, s, 0, long)
	require.NoError(t, err)
	s, err = engine.GoToStep(ctx, s, 0)
	require.NoError(t, err)
	assert.True(t, s.Completed)
	assert.Equal(t, 0, *s.Score)

	s, err = engine.Advance(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 0, s.StepIndex)
	assert.Equal(t, 0, *s.Score)
}

func TestEngine_ToggleHint(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	s, _ := engine.Start(ctx, "sess", 0)
	once, err := engine.ToggleHint(ctx, s, 2)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, false, true, false}, once.HintVisible)

	twice, err := engine.ToggleHint(ctx, once, 2)
	require.NoError(t, err)
	assert.Equal(t, s.HintVisible, twice.HintVisible)

	_, err = engine.ToggleHint(ctx, s, 4)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)
}

func TestEngine_OutOfRangeLeavesStateUnchanged(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	s, _ := engine.Start(ctx, "sess", 0)
	s, _ = engine.SetAnswer(ctx, s, 1, "kept")
	before := s.Snapshot()

	next, err := engine.GoToStep(ctx, s, 5)
	assert.Nil(t, next)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)

	var rangeErr *domain.RangeError
	require.True(t, errors.As(err, &rangeErr))
	assert.Equal(t, 5, rangeErr.Index)
	assert.Equal(t, 4, rangeErr.Len)

	next, err = engine.SetAnswer(ctx, s, -1, "x")
	assert.Nil(t, next)
	assert.ErrorIs(t, err, domain.ErrOutOfRange)

	assert.Equal(t, before, s)
}

func TestEngine_TransitionsDoNotMutateInput(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	s, _ := engine.Start(ctx, "sess", 0)
	before := s.Snapshot()

	_, err := engine.SetAnswer(ctx, s, 0, "text")
	require.NoError(t, err)
	_, err = engine.ToggleHint(ctx, s, 0)
	require.NoError(t, err)
	_, err = engine.Advance(ctx, s)
	require.NoError(t, err)

	assert.Equal(t, before, s)
}

func TestEngine_PreviousStep(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	s, _ := engine.Start(ctx, "sess", 0)
	same, err := engine.PreviousStep(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 0, same.StepIndex)

	s, _ = engine.GoToStep(ctx, s, 2)
	s, err = engine.PreviousStep(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 1, s.StepIndex)
}

func TestEngine_ResetFromCompleted(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	s, _ := engine.Start(ctx, "sess", 1)
	s, _ = engine.SetAnswer(ctx, s, 0, long)
	s, _ = engine.ToggleHint(ctx, s, 0)
	for i := 0; i < 4; i++ {
		s, _ = engine.Advance(ctx, s)
	}
	require.True(t, s.Completed)

	s, err := engine.Reset(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "sess", s.ID)
	assert.Equal(t, 1, s.ExerciseIndex)
	assert.Equal(t, 0, s.StepIndex)
	assert.Equal(t, []string{"", "", "", ""}, s.Answers)
	assert.Equal(t, []bool{false, false, false, false}, s.HintVisible)
	assert.False(t, s.Completed)
	assert.Nil(t, s.Score)
}

func TestEngine_Validate(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()
	valid, _ := engine.Start(ctx, "sess", 0)

	tests := []struct {
		name   string
		mutate func(s *domain.Session)
	}{
		{"Exercise Index", func(s *domain.Session) { s.ExerciseIndex = 9 }},
		{"Exercise Drift", func(s *domain.Session) { s.ExerciseID = "other" }},
		{"Answer Slots", func(s *domain.Session) { s.Answers = s.Answers[:2] }},
		{"Step Index", func(s *domain.Session) { s.StepIndex = 4 }},
		{"Score Without Completion", func(s *domain.Session) { score := 10; s.Score = &score }},
		{"Completion Without Score", func(s *domain.Session) { s.Completed = true }},
	}

	require.NoError(t, engine.Validate(valid))
	assert.ErrorIs(t, engine.Validate(nil), domain.ErrInvalidSession)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid.Snapshot()
			tt.mutate(s)
			assert.ErrorIs(t, engine.Validate(s), domain.ErrInvalidSession)

			_, err := engine.Advance(ctx, s)
			assert.ErrorIs(t, err, domain.ErrInvalidSession)
		})
	}
}

func TestEngine_Render(t *testing.T) {
	engine := newEngine(t)
	ctx := context.Background()

	s, _ := engine.Start(ctx, "sess", 0)
	s, _ = engine.GoToStep(ctx, s, 1)
	s, _ = engine.SetAnswer(ctx, s, 1, long)

	view, err := engine.Render(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, "SHOPPING", view.Title)
	assert.Equal(t, 2, view.ExerciseCount)
	assert.Equal(t, 4, view.StepCount)
	assert.Equal(t, []string{"Understand", "Plan", "Execute", "Review"}, view.StepTitles)
	assert.Equal(t, "Plan", view.Step.Title)
	assert.Equal(t, "Plan sample", view.Step.SampleAnswer)
	assert.Equal(t, long, view.Step.Answer)
	assert.True(t, view.Step.Substantive)
	assert.False(t, view.Step.HintVisible)
	assert.Empty(t, view.Step.Hints)
	assert.Equal(t, 50, view.Progress)
	assert.Equal(t, domain.PhaseInProgress, view.Phase)

	s, _ = engine.ToggleHint(ctx, s, 1)
	view, err = engine.Render(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Plan hint 1", "Plan hint 2"}, view.Step.Hints)
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var events []domain.EventType
	var stamps []time.Time
	var completion *domain.CompletionEvent

	fixed := time.Date(2024, 3, 14, 9, 26, 53, 0, time.UTC)
	record := func(ctx context.Context, e *domain.StepEvent) {
		events = append(events, e.Type)
		stamps = append(stamps, e.Timestamp)
	}
	hooks := domain.LifecycleHooks{
		OnSessionStart: record,
		OnStepEnter:    record,
		OnReset:        record,
		OnHintToggle: func(ctx context.Context, e *domain.HintEvent) {
			events = append(events, e.Type)
			stamps = append(stamps, e.Timestamp)
		},
		OnComplete: func(ctx context.Context, e *domain.CompletionEvent) {
			events = append(events, e.Type)
			stamps = append(stamps, e.Timestamp)
			completion = e
		},
	}
	engine := newEngine(t, runtime.WithLifecycleHooks(hooks), runtime.WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	s, _ := engine.Start(ctx, "sess", 0)
	s, _ = engine.ToggleHint(ctx, s, 0)
	s, _ = engine.SetAnswer(ctx, s, 3, long)
	s, _ = engine.GoToStep(ctx, s, 3)
	s, _ = engine.Advance(ctx, s)
	_, _ = engine.Reset(ctx, s)

	assert.Equal(t, []domain.EventType{
		domain.EventSessionStart,
		domain.EventHintToggle,
		domain.EventStepEnter,
		domain.EventComplete,
		domain.EventReset,
	}, events)
	require.NotNil(t, completion)
	assert.Equal(t, 25, completion.Score)
	assert.Equal(t, 1, completion.Substantive)
	assert.Equal(t, "math", completion.Category)
	assert.Equal(t, "sess", completion.SessionID)

	require.Len(t, stamps, len(events))
	for _, ts := range stamps {
		assert.True(t, fixed.Equal(ts), "timestamp %v", ts)
	}
}
