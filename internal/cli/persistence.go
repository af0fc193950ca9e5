package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/polya/internal/config"
	"github.com/aretw0/polya/pkg/adapters/file"
	"github.com/aretw0/polya/pkg/adapters/memory"
	"github.com/aretw0/polya/pkg/adapters/redis"
	"github.com/aretw0/polya/pkg/adapters/sqlite"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/aretw0/polya/pkg/observability"
	"github.com/aretw0/polya/pkg/persistence/middleware"
	"github.com/aretw0/polya/pkg/ports"
	"github.com/aretw0/polya/pkg/session"
)

// LockPrefix namespaces distributed lock keys away from session keys.
const LockPrefix = "polya:"

// ErrSummaryUnsupported is returned by Summary for stores without aggregate queries.
var ErrSummaryUnsupported = errors.New("summary requires the sqlite store")

// ErrProgressUnsupported is returned by the progress queries for stores without a completion history.
var ErrProgressUnsupported = errors.New("learner progress requires the sqlite store")

// Persistence bundles the configured store with its optional lock.
type Persistence struct {
	Kind   config.StoreKind
	Store  ports.SessionStore
	Locker ports.DistributedLocker

	// Encrypted reports whether answers are sealed before reaching the backend.
	Encrypted bool

	// Progress keeps completions per learner; nil unless the backend supports it.
	Progress ports.ProgressStore

	summary func(context.Context) ([]sqlite.ExerciseSummary, error)
	close   func() error
}

// OpenStore builds the session store selected by cfg.Store.
// Network and database backends are pinged before returning.
func OpenStore(ctx context.Context, cfg *config.Config) (*Persistence, error) {
	p := &Persistence{Kind: cfg.Store, close: func() error { return nil }}

	switch cfg.Store {
	case config.StoreMemory:
		p.Store = memory.NewStore()
	case config.StoreFile:
		p.Store = file.New(cfg.SessionDir)
	case config.StoreRedis:
		store := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, redis.WithTTL(cfg.Redis.TTL))
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		p.Store = store
		p.Locker = redis.NewLocker(store.Client(), LockPrefix)
		p.close = store.Close
	case config.StoreSQLite:
		store, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		p.Store = store
		p.summary = store.Summary
		p.Progress = store
		p.close = store.Close
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	if cfg.EncryptionKey != "" {
		mw, err := encryption(cfg)
		if err != nil {
			_ = p.close()
			return nil, err
		}
		p.Store = middleware.Chain(p.Store, mw)
		p.Encrypted = true
	}
	return p, nil
}

func encryption(cfg *config.Config) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.EnvEncryptionKey, err)
	}
	ec := middleware.EncryptionConfig{ActiveKey: active}
	for i, raw := range cfg.EncryptionFallbackKeys {
		key, err := middleware.ParseKey(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", config.EnvEncryptionFallbackKeys, i, err)
		}
		ec.FallbackKeys = append(ec.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(ec)
}

// Manager wraps the store in a session manager, using the distributed lock when available.
func (p *Persistence) Manager(logger *slog.Logger) *session.Manager {
	opts := []session.Option{session.WithLogger(logger)}
	if p.Locker != nil {
		opts = append(opts, session.WithLocker(p.Locker))
	}
	return session.NewManager(p.Store, opts...)
}

// Summary returns per-exercise statistics when the store supports it.
func (p *Persistence) Summary(ctx context.Context) ([]sqlite.ExerciseSummary, error) {
	if p.summary == nil {
		return nil, ErrSummaryUnsupported
	}
	return p.summary(ctx)
}

// ProgressHooks returns hooks that record completions for userID,
// or no hooks when the store keeps no completion history.
func (p *Persistence) ProgressHooks(userID string, logger *slog.Logger) domain.LifecycleHooks {
	if p.Progress == nil {
		return domain.LifecycleHooks{}
	}
	return observability.ProgressHooks(p.Progress, userID, logger)
}

// LearnerProgress returns the completion summary of userID.
func (p *Persistence) LearnerProgress(ctx context.Context, userID string, recent int) (*domain.LearnerProgress, error) {
	if p.Progress == nil {
		return nil, ErrProgressUnsupported
	}
	return p.Progress.Progress(ctx, userID, recent)
}

// Leaderboard ranks learners by completions.
func (p *Persistence) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	if p.Progress == nil {
		return nil, ErrProgressUnsupported
	}
	return p.Progress.Leaderboard(ctx, limit)
}

// Close releases backend connections.
func (p *Persistence) Close() error {
	return p.close()
}
