package polya

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/internal/runtime"
	"github.com/aretw0/polya/pkg/catalog"
	"github.com/aretw0/polya/pkg/domain"
)

// Engine is the high-level entry point for the Polya library.
// It wraps the internal runtime together with the loaded catalog.
type Engine struct {
	runtime *runtime.Engine
	catalog *catalog.Catalog
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithCatalog injects an already loaded catalog, bypassing file loading.
func WithCatalog(c *catalog.Catalog) Option {
	return func(e *Engine) {
		e.catalog = c
	}
}

// WithExercises builds the catalog from in-memory exercises.
func WithExercises(exercises ...domain.Exercise) Option {
	return func(e *Engine) {
		e.catalog = &catalog.Catalog{Exercises: exercises}
	}
}

// New initializes a Polya engine.
// The catalog is read from catalogPath (YAML or JSON); an empty path selects
// the embedded default catalog. WithCatalog or WithExercises skip loading.
func New(catalogPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.catalog == nil {
		c, err := catalog.Load(catalogPath)
		if err != nil {
			return nil, err
		}
		eng.catalog = c
	} else if err := eng.catalog.Validate(); err != nil {
		return nil, err
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	rt, err := runtime.NewEngine(eng.catalog.Exercises,
		runtime.WithLifecycleHooks(eng.hooks),
		runtime.WithLogger(eng.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	eng.runtime = rt
	return eng, nil
}

// Start creates a fresh session for the exercise at exerciseIndex.
func (e *Engine) Start(ctx context.Context, sessionID string, exerciseIndex int) (*domain.Session, error) {
	return e.runtime.Start(ctx, sessionID, exerciseIndex)
}

// SelectExercise discards the session and starts the exercise at index, keeping the ID.
func (e *Engine) SelectExercise(ctx context.Context, s *domain.Session, index int) (*domain.Session, error) {
	return e.runtime.SelectExercise(ctx, s, index)
}

// GoToStep jumps to a step. Completion is not affected.
func (e *Engine) GoToStep(ctx context.Context, s *domain.Session, index int) (*domain.Session, error) {
	return e.runtime.GoToStep(ctx, s, index)
}

// PreviousStep moves one step back, staying on the first step.
func (e *Engine) PreviousStep(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	return e.runtime.PreviousStep(ctx, s)
}

// SetAnswer records the answer text of a step.
func (e *Engine) SetAnswer(ctx context.Context, s *domain.Session, stepIndex int, text string) (*domain.Session, error) {
	return e.runtime.SetAnswer(ctx, s, stepIndex, text)
}

// ToggleHint shows or hides the hints of a step.
func (e *Engine) ToggleHint(ctx context.Context, s *domain.Session, stepIndex int) (*domain.Session, error) {
	return e.runtime.ToggleHint(ctx, s, stepIndex)
}

// Advance moves to the next step or finalizes the session on the last one.
func (e *Engine) Advance(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	return e.runtime.Advance(ctx, s)
}

// Reset clears all progress on the bound exercise.
func (e *Engine) Reset(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	return e.runtime.Reset(ctx, s)
}

// Render returns the read-only view of the session.
func (e *Engine) Render(ctx context.Context, s *domain.Session) (*domain.View, error) {
	return e.runtime.Render(ctx, s)
}

// Validate checks a persisted session against the catalog.
func (e *Engine) Validate(s *domain.Session) error {
	return e.runtime.Validate(s)
}

// Exercises returns the catalog exercises in order.
func (e *Engine) Exercises() []domain.Exercise {
	return e.runtime.Exercises()
}

// Catalog returns the loaded catalog, including the method stages and worked cases.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Starter adapts Start to session.StartFunc for the given exercise.
func (e *Engine) Starter(exerciseIndex int) func(ctx context.Context, sessionID string) (*domain.Session, error) {
	return func(ctx context.Context, sessionID string) (*domain.Session, error) {
		return e.Start(ctx, sessionID, exerciseIndex)
	}
}
