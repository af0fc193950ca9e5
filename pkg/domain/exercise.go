package domain

// Step is one stage of an exercise. Steps are immutable content.
type Step struct {
	Title  string   `json:"title" yaml:"title" mapstructure:"title"`
	Prompt string   `json:"prompt" yaml:"prompt" mapstructure:"prompt"`
	Hints  []string `json:"hints,omitempty" yaml:"hints,omitempty" mapstructure:"hints"`

	// SampleAnswer is a reference answer shown on request. It is never scored.
	SampleAnswer string `json:"sample_answer,omitempty" yaml:"sample_answer,omitempty" mapstructure:"sample_answer"`
}

// Exercise is a static problem-solving scenario with an ordered list of steps.
// Exercises are loaded once at startup and never mutated.
type Exercise struct {
	ID          string `json:"id" yaml:"id" mapstructure:"id"`
	Title       string `json:"title" yaml:"title" mapstructure:"title"`
	Difficulty  string `json:"difficulty" yaml:"difficulty" mapstructure:"difficulty"`
	Category    string `json:"category" yaml:"category" mapstructure:"category"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Problem     string `json:"problem" yaml:"problem" mapstructure:"problem"`
	Steps       []Step `json:"steps" yaml:"steps" mapstructure:"steps"`
}

// StepCount returns the number of steps of the exercise.
func (e Exercise) StepCount() int {
	return len(e.Steps)
}

// LastStep returns the index of the terminal step, or -1 for an exercise without steps.
func (e Exercise) LastStep() int {
	return len(e.Steps) - 1
}
