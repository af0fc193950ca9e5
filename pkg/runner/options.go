package runner

import (
	"io"
	"log/slog"

	"github.com/aretw0/polya/pkg/session"
)

// DefaultInputBufferSize is the number of lines buffered ahead of the loop.
const DefaultInputBufferSize = 64

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithManager persists the session after every change.
func WithManager(m *session.Manager) Option {
	return func(r *Runner) {
		r.manager = m
	}
}

// WithSessionID sets the session ID used with the manager.
func WithSessionID(id string) Option {
	return func(r *Runner) {
		r.sessionID = id
	}
}

// WithExercise selects the exercise started for a new session.
func WithExercise(index int) Option {
	return func(r *Runner) {
		r.exercise = index
	}
}

// WithIO sets the input and output streams.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		if in != nil {
			r.in = in
		}
		if out != nil {
			r.out = out
		}
	}
}

// WithRenderer configures the markdown renderer (e.g. glamour).
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) {
		r.renderer = renderer
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithQuiet suppresses the prompt and help banner (scripted input).
func WithQuiet(quiet bool) Option {
	return func(r *Runner) {
		r.quiet = quiet
	}
}
