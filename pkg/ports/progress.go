package ports

import (
	"context"

	"github.com/aretw0/polya/pkg/domain"
)

// ProgressStore keeps the completion history of learners.
type ProgressStore interface {
	// RecordCompletion appends one completion. Records are never updated.
	RecordCompletion(ctx context.Context, c domain.Completion) error

	// Progress aggregates the history of one learner. An unknown learner
	// yields an empty summary, not an error.
	Progress(ctx context.Context, userID string, recent int) (*domain.LearnerProgress, error)

	// Leaderboard ranks learners by completions, then by average score.
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}
