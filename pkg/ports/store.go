package ports

import (
	"context"

	"github.com/aretw0/polya/pkg/domain"
)

// SessionStore persists tutorial sessions so a learner can stop and resume an exercise.
type SessionStore interface {
	// Save persists the session under the given ID, replacing any previous value.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the session for a given ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
