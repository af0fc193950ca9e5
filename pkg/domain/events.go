package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSessionStart EventType = "session_start"
	EventStepEnter    EventType = "step_enter"
	EventHintToggle   EventType = "hint_toggle"
	EventComplete     EventType = "complete"
	EventReset        EventType = "reset"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents a session entering a step (including the first one on start).
type StepEvent struct {
	EventBase
	ExerciseID string `json:"exercise_id"`
	StepIndex  int    `json:"step_index"`
	StepTitle  string `json:"step_title"`
}

// HintEvent represents a hint being shown or hidden.
type HintEvent struct {
	EventBase
	ExerciseID string `json:"exercise_id"`
	StepIndex  int    `json:"step_index"`
	Visible    bool   `json:"visible"`
}

// CompletionEvent represents a session being finalized.
type CompletionEvent struct {
	EventBase
	ExerciseID  string `json:"exercise_id"`
	Category    string `json:"category"`
	Score       int    `json:"score"`
	Substantive int    `json:"substantive"`
	StepCount   int    `json:"step_count"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously after a transition has been computed and cannot alter it.
type LifecycleHooks struct {
	OnSessionStart func(context.Context, *StepEvent)
	OnStepEnter    func(context.Context, *StepEvent)
	OnHintToggle   func(context.Context, *HintEvent)
	OnComplete     func(context.Context, *CompletionEvent)
	OnReset        func(context.Context, *StepEvent)
}
