package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/polya"
	"github.com/aretw0/polya/internal/config"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/aretw0/polya/pkg/observability"
)

// NewEngine initializes a Polya engine from the configured catalog.
// All hook sets are combined and run in order.
func NewEngine(cfg *config.Config, logger *slog.Logger, hooks ...domain.LifecycleHooks) (*polya.Engine, error) {
	opts := []polya.Option{polya.WithLogger(logger)}
	if len(hooks) > 0 {
		opts = append(opts, polya.WithLifecycleHooks(observability.Combine(hooks...)))
	}

	engine, err := polya.New(cfg.CatalogPath, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}
