package domain

import "time"

// Completion records one finished exercise attempt of a learner.
type Completion struct {
	UserID      string    `json:"user_id"`
	SessionID   string    `json:"session_id"`
	ExerciseID  string    `json:"exercise_id"`
	Category    string    `json:"category,omitempty"`
	Score       int       `json:"score"`
	Substantive int       `json:"substantive"`
	StepCount   int       `json:"step_count"`
	CompletedAt time.Time `json:"completed_at"`
}

// CategoryProgress aggregates a learner's completions of one exercise category.
type CategoryProgress struct {
	Category     string  `json:"category"`
	Completions  int     `json:"completions"`
	AverageScore float64 `json:"average_score"`
}

// LearnerProgress summarizes the completion history of one learner.
// A learner without completions has zero counts and no LastActivity.
type LearnerProgress struct {
	UserID       string             `json:"user_id"`
	Completions  int                `json:"completions"`
	Exercises    int                `json:"exercises"`
	AverageScore float64            `json:"average_score"`
	BestScore    int                `json:"best_score"`
	LastActivity *time.Time         `json:"last_activity,omitempty"`
	ByCategory   []CategoryProgress `json:"by_category"`
	Recent       []Completion       `json:"recent"`
}

// LeaderboardEntry ranks one learner by completions, then average score.
type LeaderboardEntry struct {
	Rank         int     `json:"rank"`
	UserID       string  `json:"user_id"`
	Completions  int     `json:"completions"`
	AverageScore float64 `json:"average_score"`
}
