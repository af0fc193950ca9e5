package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/pkg/domain"
)

// Engine is the tutorial session state machine.
// It holds the immutable exercise catalog and applies pure transitions to
// Session values. It keeps no per-session state, so a single Engine can
// serve any number of sessions concurrently.
type Engine struct {
	exercises []domain.Exercise
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	now       func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the event timestamp source (tests).
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine over the given catalog.
// The catalog is copied; it must contain at least one exercise and every
// exercise must have at least one step.
func NewEngine(exercises []domain.Exercise, opts ...EngineOption) (*Engine, error) {
	if len(exercises) == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	for i, ex := range exercises {
		if ex.StepCount() == 0 {
			return nil, fmt.Errorf("%w: exercise %d (%q) has no steps", domain.ErrInvalidCatalog, i, ex.ID)
		}
	}

	e := &Engine{
		exercises: append([]domain.Exercise(nil), exercises...),
		logger:    logging.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Exercises returns the catalog in order.
func (e *Engine) Exercises() []domain.Exercise {
	return append([]domain.Exercise(nil), e.exercises...)
}

// ExerciseCount returns the number of exercises in the catalog.
func (e *Engine) ExerciseCount() int {
	return len(e.exercises)
}

// Exercise returns the exercise at index.
func (e *Engine) Exercise(index int) (domain.Exercise, error) {
	if err := domain.CheckIndex("exercise", index, len(e.exercises)); err != nil {
		return domain.Exercise{}, err
	}
	return e.exercises[index], nil
}

// Validate checks that a session (typically loaded from a store) fits the catalog.
func (e *Engine) Validate(s *domain.Session) error {
	if s == nil {
		return fmt.Errorf("%w: nil session", domain.ErrInvalidSession)
	}
	if s.ExerciseIndex < 0 || s.ExerciseIndex >= len(e.exercises) {
		return fmt.Errorf("%w: exercise index %d not in catalog of %d", domain.ErrInvalidSession, s.ExerciseIndex, len(e.exercises))
	}
	ex := e.exercises[s.ExerciseIndex]
	if s.ExerciseID != ex.ID {
		return fmt.Errorf("%w: session bound to %q but catalog has %q at index %d", domain.ErrInvalidSession, s.ExerciseID, ex.ID, s.ExerciseIndex)
	}
	n := ex.StepCount()
	if len(s.Answers) != n || len(s.HintVisible) != n {
		return fmt.Errorf("%w: expected %d step slots, got %d answers and %d hints", domain.ErrInvalidSession, n, len(s.Answers), len(s.HintVisible))
	}
	if s.StepIndex < 0 || s.StepIndex >= n {
		return fmt.Errorf("%w: step index %d not in [0, %d)", domain.ErrInvalidSession, s.StepIndex, n)
	}
	if s.Completed != (s.Score != nil) {
		return fmt.Errorf("%w: completed=%t but score defined=%t", domain.ErrInvalidSession, s.Completed, s.Score != nil)
	}
	return nil
}

// bound returns a private copy of the session and its exercise after validation.
func (e *Engine) bound(s *domain.Session) (*domain.Session, domain.Exercise, error) {
	if err := e.Validate(s); err != nil {
		return nil, domain.Exercise{}, err
	}
	return s.Snapshot(), e.exercises[s.ExerciseIndex], nil
}

func (e *Engine) emitStepEnter(ctx context.Context, s *domain.Session, ex domain.Exercise, typ domain.EventType) {
	hook := e.hooks.OnStepEnter
	switch typ {
	case domain.EventSessionStart:
		hook = e.hooks.OnSessionStart
	case domain.EventReset:
		hook = e.hooks.OnReset
	}
	e.logger.Debug("step enter",
		"event", typ,
		"session_id", s.ID,
		"exercise_id", ex.ID,
		"step", s.StepIndex,
	)
	if hook == nil {
		return
	}
	hook(ctx, &domain.StepEvent{
		EventBase:  domain.EventBase{Timestamp: e.now(), Type: typ, SessionID: s.ID},
		ExerciseID: ex.ID,
		StepIndex:  s.StepIndex,
		StepTitle:  ex.Steps[s.StepIndex].Title,
	})
}

func (e *Engine) emitHintToggle(ctx context.Context, s *domain.Session, ex domain.Exercise, step int) {
	if e.hooks.OnHintToggle == nil {
		return
	}
	e.hooks.OnHintToggle(ctx, &domain.HintEvent{
		EventBase:  domain.EventBase{Timestamp: e.now(), Type: domain.EventHintToggle, SessionID: s.ID},
		ExerciseID: ex.ID,
		StepIndex:  step,
		Visible:    s.HintVisible[step],
	})
}

func (e *Engine) emitComplete(ctx context.Context, s *domain.Session, ex domain.Exercise, substantive int) {
	e.logger.Info("session completed",
		"session_id", s.ID,
		"exercise_id", ex.ID,
		"score", *s.Score,
		"substantive", substantive,
	)
	if e.hooks.OnComplete == nil {
		return
	}
	e.hooks.OnComplete(ctx, &domain.CompletionEvent{
		EventBase:   domain.EventBase{Timestamp: e.now(), Type: domain.EventComplete, SessionID: s.ID},
		ExerciseID:  ex.ID,
		Category:    ex.Category,
		Score:       *s.Score,
		Substantive: substantive,
		StepCount:   ex.StepCount(),
	})
}
