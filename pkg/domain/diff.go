package domain

// SessionDiff represents the changes between two sessions.
// It is designed to be serialized to JSON for partial updates on the client.
type SessionDiff struct {
	// SessionID is always present to identify the target.
	SessionID string `json:"session_id"`

	ExerciseIndex *int `json:"exercise_index,omitempty"`
	StepIndex     *int `json:"step_index,omitempty"`

	// Answers and Hints are keyed by step index and carry only changed slots.
	// A change of exercise sends every slot of the new exercise.
	Answers map[int]string `json:"answers,omitempty"`
	Hints   map[int]bool   `json:"hints,omitempty"`

	Completed *bool `json:"completed,omitempty"`
	Score     *int  `json:"score,omitempty"`

	// ScoreCleared is set when a reset drops a previously defined score.
	ScoreCleared bool `json:"score_cleared,omitempty"`
}

// Diff calculates the difference between oldSession and newSession.
// If oldSession is nil, it returns a diff representing the entire newSession (initial load).
// It returns nil when nothing changed.
func Diff(oldSession, newSession *Session) *SessionDiff {
	if newSession == nil {
		return nil
	}

	diff := &SessionDiff{SessionID: newSession.ID}

	rebound := oldSession == nil ||
		oldSession.ExerciseIndex != newSession.ExerciseIndex ||
		oldSession.ExerciseID != newSession.ExerciseID

	if rebound {
		diff.ExerciseIndex = ptr(newSession.ExerciseIndex)
	}
	if rebound || oldSession.StepIndex != newSession.StepIndex {
		diff.StepIndex = ptr(newSession.StepIndex)
	}

	diff.Answers = diffAnswers(oldSession, newSession, rebound)
	diff.Hints = diffHints(oldSession, newSession, rebound)

	if rebound || oldSession.Completed != newSession.Completed {
		diff.Completed = ptr(newSession.Completed)
	}
	switch {
	case newSession.Score != nil && (oldSession == nil || oldSession.Score == nil || *oldSession.Score != *newSession.Score):
		diff.Score = ptr(*newSession.Score)
	case newSession.Score == nil && oldSession != nil && oldSession.Score != nil:
		diff.ScoreCleared = true
	}

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffAnswers(old, new *Session, full bool) map[int]string {
	delta := make(map[int]string)
	for i, a := range new.Answers {
		if full || i >= len(old.Answers) || old.Answers[i] != a {
			delta[i] = a
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffHints(old, new *Session, full bool) map[int]bool {
	delta := make(map[int]bool)
	for i, v := range new.HintVisible {
		if full || i >= len(old.HintVisible) || old.HintVisible[i] != v {
			delta[i] = v
		}
	}
	if len(delta) == 0 {
		return nil
	}
	return delta
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *SessionDiff) IsEmpty() bool {
	return d.ExerciseIndex == nil &&
		d.StepIndex == nil &&
		len(d.Answers) == 0 &&
		len(d.Hints) == 0 &&
		d.Completed == nil &&
		d.Score == nil &&
		!d.ScoreCleared
}

func ptr[T any](v T) *T {
	return &v
}
