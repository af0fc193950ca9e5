package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/polya/pkg/adapters/sqlite"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/aretw0/polya/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.ProgressStore = (*sqlite.Store)(nil)

func TestSQLiteStore_Progress(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	records := []domain.Completion{
		{UserID: "ana", SessionID: "s1", ExerciseID: "shopping", Category: "math", Score: 50, Substantive: 2, StepCount: 4, CompletedAt: base},
		{UserID: "ana", SessionID: "s1", ExerciseID: "shopping", Category: "math", Score: 100, Substantive: 4, StepCount: 4, CompletedAt: base.Add(time.Hour)},
		{UserID: "ana", SessionID: "s2", ExerciseID: "meeting", Category: "life", Score: 75, Substantive: 3, StepCount: 4, CompletedAt: base.Add(2 * time.Hour)},
		{UserID: "bo", SessionID: "s3", ExerciseID: "meeting", Category: "life", Score: 25, Substantive: 1, StepCount: 4, CompletedAt: base},
	}
	for _, c := range records {
		require.NoError(t, store.RecordCompletion(ctx, c))
	}

	p, err := store.Progress(ctx, "ana", 2)
	require.NoError(t, err)
	assert.Equal(t, "ana", p.UserID)
	assert.Equal(t, 3, p.Completions)
	assert.Equal(t, 2, p.Exercises)
	assert.InDelta(t, 75.0, p.AverageScore, 0.001)
	assert.Equal(t, 100, p.BestScore)
	require.NotNil(t, p.LastActivity)
	assert.True(t, base.Add(2*time.Hour).Equal(*p.LastActivity))

	assert.Equal(t, []domain.CategoryProgress{
		{Category: "life", Completions: 1, AverageScore: 75},
		{Category: "math", Completions: 2, AverageScore: 75},
	}, p.ByCategory)

	require.Len(t, p.Recent, 2)
	assert.Equal(t, "meeting", p.Recent[0].ExerciseID)
	assert.Equal(t, 100, p.Recent[1].Score)
	assert.Equal(t, 4, p.Recent[1].Substantive)
	assert.True(t, base.Add(time.Hour).Equal(p.Recent[1].CompletedAt))

	p, err = store.Progress(ctx, "ana", 0)
	require.NoError(t, err)
	assert.Empty(t, p.Recent)
}

func TestSQLiteStore_ProgressUnknownLearner(t *testing.T) {
	store := newStore(t)

	p, err := store.Progress(context.Background(), "nobody", 5)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Completions)
	assert.Nil(t, p.LastActivity)
	assert.NotNil(t, p.ByCategory)
	assert.NotNil(t, p.Recent)
}

func TestSQLiteStore_Leaderboard(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, c := range []domain.Completion{
		{UserID: "bo", ExerciseID: "a", Score: 100},
		{UserID: "ana", ExerciseID: "a", Score: 50},
		{UserID: "ana", ExerciseID: "b", Score: 50},
		{UserID: "cy", ExerciseID: "a", Score: 50},
	} {
		require.NoError(t, store.RecordCompletion(ctx, c))
	}

	board, err := store.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, domain.LeaderboardEntry{Rank: 1, UserID: "ana", Completions: 2, AverageScore: 50}, board[0])
	assert.Equal(t, "bo", board[1].UserID)
	assert.Equal(t, "cy", board[2].UserID)
	assert.Equal(t, 3, board[2].Rank)

	top, err := store.Leaderboard(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "ana", top[0].UserID)
}

func TestSQLiteStore_RecordCompletionStampsTime(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.RecordCompletion(ctx, domain.Completion{UserID: "ana", ExerciseID: "a", Score: 25}))

	p, err := store.Progress(ctx, "ana", 1)
	require.NoError(t, err)
	require.Len(t, p.Recent, 1)
	assert.False(t, p.Recent[0].CompletedAt.Before(before.Truncate(time.Second)))
}
