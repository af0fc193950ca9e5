package runtime

import (
	"context"

	"github.com/aretw0/polya/pkg/domain"
)

// Render projects the session onto its exercise without transitioning.
func (e *Engine) Render(ctx context.Context, s *domain.Session) (*domain.View, error) {
	cur, ex, err := e.bound(s)
	if err != nil {
		return nil, err
	}

	step := ex.Steps[cur.StepIndex]
	titles := make([]string, len(ex.Steps))
	for i, st := range ex.Steps {
		titles[i] = st.Title
	}

	view := &domain.View{
		SessionID:     cur.ID,
		ExerciseIndex: cur.ExerciseIndex,
		ExerciseCount: len(e.exercises),
		Exercise:      ex,
		Title:         ex.Title,
		Difficulty:    ex.Difficulty,
		Category:      ex.Category,
		Problem:       ex.Problem,
		StepCount:     ex.StepCount(),
		StepTitles:    titles,
		Step: domain.StepView{
			Index:        cur.StepIndex,
			Title:        step.Title,
			Prompt:       step.Prompt,
			HintVisible:  cur.HintVisible[cur.StepIndex],
			SampleAnswer: step.SampleAnswer,
			Answer:       cur.Answers[cur.StepIndex],
			Substantive:  domain.IsSubstantive(cur.Answers[cur.StepIndex]),
		},
		Progress:  (cur.StepIndex + 1) * 100 / ex.StepCount(),
		Phase:     cur.Phase(),
		Completed: cur.Completed,
		Score:     cur.Score,
	}
	if view.Step.HintVisible {
		view.Step.Hints = append([]string(nil), step.Hints...)
	}
	return view, nil
}
