// Package cli holds the wiring shared by the polya commands: logger and engine
// construction, store selection and the practice session entry point.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/pkg/domain"
)

// CreateLogger configures the application logger.
// Debug forces debug level; otherwise level is parsed from the configuration.
// Logs go to Stderr so Stdout stays free for the practice loop.
func CreateLogger(debug bool, level string) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(logging.ParseLevel(level))
}

// PrintSystemMessage writes a standardized system line.
func PrintSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// DebugHooks logs every lifecycle event at debug level.
func DebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	step := func(msg string) func(context.Context, *domain.StepEvent) {
		return func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug(msg, "session_id", e.SessionID, "exercise_id", e.ExerciseID, "step", e.StepIndex)
		}
	}
	return domain.LifecycleHooks{
		OnSessionStart: step("Session Start"),
		OnStepEnter:    step("Enter Step"),
		OnReset:        step("Reset"),
		OnHintToggle: func(ctx context.Context, e *domain.HintEvent) {
			logger.Debug("Toggle Hint", "session_id", e.SessionID, "step", e.StepIndex, "visible", e.Visible)
		},
		OnComplete: func(ctx context.Context, e *domain.CompletionEvent) {
			logger.Debug("Complete", "session_id", e.SessionID, "exercise_id", e.ExerciseID, "score", e.Score)
		},
	}
}

// IsInterrupted reports whether err only signals that the user stopped the program.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

// HandleExecutionError maps interruptions to a clean exit.
func HandleExecutionError(err error) error {
	if err == nil || IsInterrupted(err) {
		return nil
	}
	return err
}
