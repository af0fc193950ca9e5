package runtime

import (
	"context"

	"github.com/aretw0/polya/pkg/domain"
)

// Start creates a fresh session bound to the exercise at exerciseIndex.
func (e *Engine) Start(ctx context.Context, sessionID string, exerciseIndex int) (*domain.Session, error) {
	if err := domain.CheckIndex("select_exercise", exerciseIndex, len(e.exercises)); err != nil {
		return nil, err
	}
	ex := e.exercises[exerciseIndex]
	next := domain.NewSession(sessionID, exerciseIndex, ex)
	e.emitStepEnter(ctx, next, ex, domain.EventSessionStart)
	return next, nil
}

// SelectExercise replaces the session with a fresh one bound to the exercise at index.
// The session ID is kept. The current session does not need to be valid.
func (e *Engine) SelectExercise(ctx context.Context, s *domain.Session, index int) (*domain.Session, error) {
	id := ""
	if s != nil {
		id = s.ID
	}
	return e.Start(ctx, id, index)
}

// GoToStep moves to the given step. Allowed after completion for review;
// it never touches Completed or Score.
func (e *Engine) GoToStep(ctx context.Context, s *domain.Session, index int) (*domain.Session, error) {
	next, ex, err := e.bound(s)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckIndex("goto_step", index, ex.StepCount()); err != nil {
		return nil, err
	}
	if next.StepIndex == index {
		return next, nil
	}
	next.StepIndex = index
	e.emitStepEnter(ctx, next, ex, domain.EventStepEnter)
	return next, nil
}

// PreviousStep moves one step back. It is a no-op at the first step.
func (e *Engine) PreviousStep(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if err := e.Validate(s); err != nil {
		return nil, err
	}
	return e.GoToStep(ctx, s, max(0, s.StepIndex-1))
}

// SetAnswer overwrites the answer slot of the given step.
func (e *Engine) SetAnswer(ctx context.Context, s *domain.Session, stepIndex int, text string) (*domain.Session, error) {
	next, ex, err := e.bound(s)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckIndex("set_answer", stepIndex, ex.StepCount()); err != nil {
		return nil, err
	}
	next.Answers[stepIndex] = text
	return next, nil
}

// ToggleHint flips the hint visibility of the given step.
func (e *Engine) ToggleHint(ctx context.Context, s *domain.Session, stepIndex int) (*domain.Session, error) {
	next, ex, err := e.bound(s)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckIndex("toggle_hint", stepIndex, ex.StepCount()); err != nil {
		return nil, err
	}
	next.HintVisible[stepIndex] = !next.HintVisible[stepIndex]
	e.emitHintToggle(ctx, next, ex, stepIndex)
	return next, nil
}

// Advance moves to the next step, or finalizes the session when on the last step.
// Finalizing computes the score once; afterwards Advance is a no-op until Reset.
func (e *Engine) Advance(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	next, ex, err := e.bound(s)
	if err != nil {
		return nil, err
	}
	if next.Completed {
		return next, nil
	}

	if next.StepIndex < ex.LastStep() {
		next.StepIndex++
		e.emitStepEnter(ctx, next, ex, domain.EventStepEnter)
		return next, nil
	}

	score := domain.Score(next.Answers)
	next.Completed = true
	next.Score = &score
	e.emitComplete(ctx, next, ex, domain.SubstantiveCount(next.Answers))
	return next, nil
}

// Reset reinitializes the session for the same exercise. Callable from any state.
func (e *Engine) Reset(ctx context.Context, s *domain.Session) (*domain.Session, error) {
	if err := e.Validate(s); err != nil {
		return nil, err
	}
	ex := e.exercises[s.ExerciseIndex]
	next := domain.NewSession(s.ID, s.ExerciseIndex, ex)
	e.emitStepEnter(ctx, next, ex, domain.EventReset)
	return next, nil
}
