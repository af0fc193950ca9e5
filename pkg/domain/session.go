package domain

// Session represents the runtime snapshot of one exercise attempt.
// Sessions are values: the engine never mutates a Session it receives and
// returns a new one for every transition.
type Session struct {
	// ID identifies the session in a store. It survives SelectExercise and Reset.
	ID string `json:"id"`

	// ExerciseIndex is the position of the bound exercise in the catalog.
	ExerciseIndex int `json:"exercise_index"`

	// ExerciseID is the ID of the bound exercise, used to detect catalog drift.
	ExerciseID string `json:"exercise_id"`

	// StepIndex is the active step.
	StepIndex int `json:"step_index"`

	// Answers holds one free-text slot per step.
	Answers []string `json:"answers"`

	// HintVisible holds one flag per step.
	HintVisible []bool `json:"hint_visible"`

	// Completed is set once the terminal step is advanced past.
	Completed bool `json:"completed"`

	// Score is defined if and only if Completed is true.
	Score *int `json:"score,omitempty"`
}

// NewSession creates a fresh session bound to the exercise at the given index.
func NewSession(id string, exerciseIndex int, exercise Exercise) *Session {
	return &Session{
		ID:            id,
		ExerciseIndex: exerciseIndex,
		ExerciseID:    exercise.ID,
		StepIndex:     0,
		Answers:       make([]string, exercise.StepCount()),
		HintVisible:   make([]bool, exercise.StepCount()),
	}
}

// Snapshot returns a deep copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Answers = append([]string(nil), s.Answers...)
	c.HintVisible = append([]bool(nil), s.HintVisible...)
	if s.Score != nil {
		score := *s.Score
		c.Score = &score
	}
	return &c
}

// Phase describes the state machine position of the session.
type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
)

// Phase returns PhaseCompleted once the session is finalized.
func (s *Session) Phase() Phase {
	if s.Completed {
		return PhaseCompleted
	}
	return PhaseInProgress
}
