package domain

// StepView is the renderable part of the active step.
type StepView struct {
	Index        int      `json:"index"`
	Title        string   `json:"title"`
	Prompt       string   `json:"prompt"`
	HintVisible  bool     `json:"hint_visible"`
	Hints        []string `json:"hints,omitempty"` // only populated when HintVisible
	SampleAnswer string   `json:"sample_answer,omitempty"`
	Answer       string   `json:"answer"`
	Substantive  bool     `json:"substantive"`
}

// View is a read-only projection of a session and its exercise.
type View struct {
	SessionID     string   `json:"session_id"`
	ExerciseIndex int      `json:"exercise_index"`
	ExerciseCount int      `json:"exercise_count"`
	Exercise      Exercise `json:"-"`
	Title         string   `json:"title"`
	Difficulty    string   `json:"difficulty"`
	Category      string   `json:"category"`
	Problem       string   `json:"problem"`
	StepCount     int      `json:"step_count"`
	StepTitles    []string `json:"step_titles"`
	Step          StepView `json:"step"`
	Progress      int      `json:"progress"` // percent of steps reached, (StepIndex+1)/StepCount
	Phase         Phase    `json:"phase"`
	Completed     bool     `json:"completed"`
	Score         *int     `json:"score,omitempty"`
}
