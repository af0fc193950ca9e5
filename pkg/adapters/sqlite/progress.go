package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aretw0/polya/pkg/domain"
)

// RecordCompletion appends a completion to the learner's history.
// A zero CompletedAt is stamped with the store clock.
func (s *Store) RecordCompletion(ctx context.Context, c domain.Completion) error {
	at := c.CompletedAt
	if at.IsZero() {
		at = s.now()
	}

	query := `
	INSERT INTO completions (user_id, session_id, exercise_id, category, score, substantive, step_count, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		c.UserID, c.SessionID, c.ExerciseID, c.Category, c.Score, c.Substantive, c.StepCount, at.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert completion: %w", err)
	}
	return nil
}

// Progress aggregates the learner's completions. recent bounds the number of
// latest completions returned; zero or less omits them.
func (s *Store) Progress(ctx context.Context, userID string, recent int) (*domain.LearnerProgress, error) {
	p := &domain.LearnerProgress{
		UserID:     userID,
		ByCategory: []domain.CategoryProgress{},
		Recent:     []domain.Completion{},
	}

	var last sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*), COUNT(DISTINCT exercise_id), COALESCE(AVG(score), 0), COALESCE(MAX(score), 0), MAX(completed_at)
	FROM completions
	WHERE user_id = ?`, userID).Scan(&p.Completions, &p.Exercises, &p.AverageScore, &p.BestScore, &last)
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	if last.Valid {
		t := time.Unix(last.Int64, 0).UTC()
		p.LastActivity = &t
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT category, COUNT(*), AVG(score)
	FROM completions
	WHERE user_id = ?
	GROUP BY category
	ORDER BY category`, userID)
	if err != nil {
		return nil, fmt.Errorf("query category progress: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cp domain.CategoryProgress
		if err := rows.Scan(&cp.Category, &cp.Completions, &cp.AverageScore); err != nil {
			return nil, fmt.Errorf("scan category progress: %w", err)
		}
		p.ByCategory = append(p.ByCategory, cp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if recent > 0 {
		if p.Recent, err = s.recentCompletions(ctx, userID, recent); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *Store) recentCompletions(ctx context.Context, userID string, limit int) ([]domain.Completion, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT user_id, session_id, exercise_id, category, score, substantive, step_count, completed_at
	FROM completions
	WHERE user_id = ?
	ORDER BY completed_at DESC, id DESC
	LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query completions: %w", err)
	}
	defer rows.Close()

	out := []domain.Completion{}
	for rows.Next() {
		var c domain.Completion
		var at int64
		if err := rows.Scan(&c.UserID, &c.SessionID, &c.ExerciseID, &c.Category, &c.Score, &c.Substantive, &c.StepCount, &at); err != nil {
			return nil, fmt.Errorf("scan completion: %w", err)
		}
		c.CompletedAt = time.Unix(at, 0).UTC()
		out = append(out, c)
	}
	return out, rows.Err()
}

// Leaderboard ranks learners by completions, then average score, then user ID.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = -1 // no limit
	}
	rows, err := s.db.QueryContext(ctx, `
	SELECT user_id, COUNT(*) AS n, AVG(score) AS avg_score
	FROM completions
	GROUP BY user_id
	ORDER BY n DESC, avg_score DESC, user_id
	LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := []domain.LeaderboardEntry{}
	for rows.Next() {
		e := domain.LeaderboardEntry{Rank: len(out) + 1}
		if err := rows.Scan(&e.UserID, &e.Completions, &e.AverageScore); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
