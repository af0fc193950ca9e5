package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/polya"
	"github.com/aretw0/polya/internal/config"
	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/internal/presentation/tui"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/aretw0/polya/pkg/runner"
)

// DefaultSessionID is used by practice when no session is named.
const DefaultSessionID = "local"

// PracticeOptions configures an interactive practice session.
type PracticeOptions struct {
	SessionID string
	Exercise  int // 0-based; only used when the session is new
	Fresh     bool
	Debug     bool
	Plain     bool
	Quiet     bool

	In  io.Reader // defaults to Stdin
	Out io.Writer // defaults to Stdout
}

// RunPractice runs the terminal practice loop against the configured store.
func RunPractice(ctx context.Context, cfg *config.Config, opts PracticeOptions) error {
	if opts.SessionID == "" {
		opts.SessionID = DefaultSessionID
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	var logger *slog.Logger
	var hooks []domain.LifecycleHooks
	if opts.Debug {
		logger = CreateLogger(true, "")
		hooks = append(hooks, DebugHooks(logger))
	} else {
		logger = logging.NewNop()
	}

	persistence, err := OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer persistence.Close()
	manager := persistence.Manager(logger)

	hooks = append(hooks, persistence.ProgressHooks(cfg.Tutor.UserID, logger))
	engine, err := NewEngine(cfg, logger, hooks...)
	if err != nil {
		return err
	}

	if opts.Fresh {
		if err := manager.Delete(ctx, opts.SessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to reset session: %w", err)
		}
	}

	renderer := runner.ContentRenderer(tui.PlainRenderer)
	if !opts.Plain && opts.Out == nil {
		renderer = runner.ContentRenderer(tui.RendererFor(os.Stdout))
	}

	if !opts.Quiet {
		tui.PrintBanner(out, polya.Version)
		PrintSystemMessage(out, "Session '%s' (%s store).", opts.SessionID, persistence.Kind)
	}

	r := runner.NewRunner(engine,
		runner.WithManager(manager),
		runner.WithSessionID(opts.SessionID),
		runner.WithExercise(opts.Exercise),
		runner.WithIO(opts.In, out),
		runner.WithRenderer(renderer),
		runner.WithLogger(logger),
		runner.WithQuiet(opts.Quiet),
	)

	final, runErr := r.Run(ctx)
	if !opts.Quiet && final != nil {
		if final.Completed && final.Score != nil {
			PrintSystemMessage(out, "Completed with score %d.", *final.Score)
		} else {
			PrintSystemMessage(out, "Progress saved at step %d.", final.StepIndex+1)
		}
	}
	return HandleExecutionError(runErr)
}
