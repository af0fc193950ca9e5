package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/polya/pkg/domain"
)

// CompletionRecorder stores finished attempts, e.g. a ports.ProgressStore.
type CompletionRecorder interface {
	RecordCompletion(ctx context.Context, c domain.Completion) error
}

// ProgressHooks returns hooks that record every completion for userID.
// Hooks cannot fail a transition, so a failed write is only logged.
func ProgressHooks(rec CompletionRecorder, userID string, logger *slog.Logger) domain.LifecycleHooks {
	if rec == nil {
		return domain.LifecycleHooks{}
	}
	return domain.LifecycleHooks{
		OnComplete: func(ctx context.Context, e *domain.CompletionEvent) {
			err := rec.RecordCompletion(ctx, domain.Completion{
				UserID:      userID,
				SessionID:   e.SessionID,
				ExerciseID:  e.ExerciseID,
				Category:    e.Category,
				Score:       e.Score,
				Substantive: e.Substantive,
				StepCount:   e.StepCount,
				CompletedAt: e.Timestamp,
			})
			if err != nil && logger != nil {
				logger.ErrorContext(ctx, "failed to record completion", "err", err, "session_id", e.SessionID, "user_id", userID)
			}
		},
	}
}
