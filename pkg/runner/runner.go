package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/polya"
	"github.com/aretw0/polya/internal/logging"
	"github.com/aretw0/polya/internal/presentation/tui"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/aretw0/polya/pkg/session"
)

// ContentRenderer transforms markdown before it is written out.
type ContentRenderer func(string) (string, error)

// Runner drives one practice session from line-oriented input.
type Runner struct {
	engine    *polya.Engine
	manager   *session.Manager
	sessionID string
	exercise  int

	in       io.Reader
	out      io.Writer
	renderer ContentRenderer
	logger   *slog.Logger
	quiet    bool

	reader     *lineReader
	showSample bool
}

// NewRunner creates a Runner reading Stdin and writing Stdout.
func NewRunner(engine *polya.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine:    engine,
		sessionID: "local",
		in:        os.Stdin,
		out:       os.Stdout,
		renderer:  tui.PlainRenderer,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the loop until quit, end of input or ctx cancellation.
// It returns the last session state.
func (r *Runner) Run(ctx context.Context) (*domain.Session, error) {
	r.reader = newLineReader(r.in)

	s, err := r.initialSession(ctx)
	if err != nil {
		return nil, err
	}

	if !r.quiet {
		fmt.Fprintln(r.out, helpText)
		fmt.Fprintln(r.out)
	}
	if err := r.render(ctx, s); err != nil {
		return s, err
	}

	for {
		if !r.quiet {
			fmt.Fprint(r.out, "> ")
		}
		line, err := r.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return s, nil
			}
			return s, err
		}

		cmd := parseCommand(line)
		if cmd.name == "" {
			continue
		}
		if cmd.name == "quit" {
			return s, nil
		}

		next, err := r.dispatch(ctx, s, cmd)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return s, nil
			}
			if ctx.Err() != nil {
				return s, ctx.Err()
			}
			r.printError(err)
			continue
		}
		if next == nil {
			continue
		}

		if r.manager != nil {
			if err := r.manager.Save(ctx, r.sessionID, next); err != nil {
				return s, fmt.Errorf("critical persistence error: %w", err)
			}
		}
		s = next
		if err := r.render(ctx, s); err != nil {
			return s, err
		}
	}
}

func (r *Runner) initialSession(ctx context.Context) (*domain.Session, error) {
	if r.manager == nil {
		return r.engine.Start(ctx, r.sessionID, r.exercise)
	}

	s, err := r.manager.LoadOrStart(ctx, r.sessionID, r.engine.Starter(r.exercise))
	if err != nil {
		return nil, err
	}
	if err := r.engine.Validate(s); err != nil {
		r.logger.Warn("stored session does not match catalog, starting over",
			"session_id", r.sessionID,
			"err", err,
		)
		if s, err = r.engine.Start(ctx, r.sessionID, r.exercise); err != nil {
			return nil, err
		}
		if err := r.manager.Save(ctx, r.sessionID, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// dispatch applies a command. A nil session with nil error means nothing changed.
func (r *Runner) dispatch(ctx context.Context, s *domain.Session, cmd command) (*domain.Session, error) {
	e := r.engine
	switch cmd.name {
	case "next":
		return e.Advance(ctx, s)
	case "prev":
		return e.PreviousStep(ctx, s)
	case "goto":
		idx, ok := cmd.ordinal()
		if !ok {
			return nil, fmt.Errorf("usage: goto N")
		}
		return e.GoToStep(ctx, s, idx)
	case "hint":
		return e.ToggleHint(ctx, s, s.StepIndex)
	case "answer":
		return r.setAnswer(ctx, s, cmd.arg)
	case "write":
		text, err := r.readMultiline(ctx)
		if err != nil {
			return nil, err
		}
		return r.setAnswer(ctx, s, text)
	case "sample":
		r.showSample = !r.showSample
		return nil, r.render(ctx, s)
	case "method":
		r.printMethod(s.StepIndex)
		return nil, nil
	case "reset":
		return e.Reset(ctx, s)
	case "select":
		idx, ok := cmd.ordinal()
		if !ok {
			return nil, fmt.Errorf("usage: select N")
		}
		return e.SelectExercise(ctx, s, idx)
	case "list":
		r.printExercises(s.ExerciseIndex)
		return nil, nil
	case "status":
		return nil, r.render(ctx, s)
	case "help":
		fmt.Fprintln(r.out, helpText)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown command %q (type help)", cmd.name)
	}
}

func (r *Runner) setAnswer(ctx context.Context, s *domain.Session, text string) (*domain.Session, error) {
	clean, err := SanitizeInput(text)
	if err != nil {
		return nil, err
	}
	return r.engine.SetAnswer(ctx, s, s.StepIndex, clean)
}

func (r *Runner) readMultiline(ctx context.Context) (string, error) {
	if !r.quiet {
		fmt.Fprintln(r.out, `Enter your answer. Finish with a line containing only ".".`)
	}
	var lines []string
	for {
		line, err := r.reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) && len(lines) > 0 {
				return strings.Join(lines, "\n"), nil
			}
			return "", err
		}
		if strings.TrimSpace(line) == "." {
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
}

func (r *Runner) render(ctx context.Context, s *domain.Session) error {
	view, err := r.engine.Render(ctx, s)
	if err != nil {
		return fmt.Errorf("render error: %w", err)
	}
	r.write(tui.ViewMarkdown(view, r.showSample))
	return nil
}

func (r *Runner) write(markdown string) {
	out := markdown
	if r.renderer != nil {
		if rendered, err := r.renderer(markdown); err == nil {
			out = rendered
		}
	}
	fmt.Fprintln(r.out, strings.TrimSpace(out))
}

func (r *Runner) printError(err error) {
	switch {
	case errors.Is(err, domain.ErrOutOfRange):
		var re *domain.RangeError
		if errors.As(err, &re) {
			fmt.Fprintf(r.out, "Out of range: choose 1-%d.\n", re.Len)
			return
		}
	case errors.Is(err, ErrInputTooLarge):
		fmt.Fprintf(r.out, "Answer too long (limit %d bytes).\n", MaxInputSize())
		return
	}
	fmt.Fprintf(r.out, "Error: %v\n", err)
}

func (r *Runner) printMethod(step int) {
	stage, ok := r.engine.Catalog().Stage(step)
	if !ok {
		fmt.Fprintln(r.out, "No method notes for this step.")
		return
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n%s\n\n", stage.Name, stage.Description)
	if len(stage.Strategies) > 0 {
		sb.WriteString("**Strategies**\n\n")
		for _, s := range stage.Strategies {
			fmt.Fprintf(&sb, "- %s\n", s)
		}
		sb.WriteString("\n")
	}
	if len(stage.CommonMistakes) > 0 {
		sb.WriteString("**Common mistakes**\n\n")
		for _, m := range stage.CommonMistakes {
			fmt.Fprintf(&sb, "- %s\n", m)
		}
	}
	r.write(sb.String())
}

func (r *Runner) printExercises(current int) {
	var sb strings.Builder
	for i, ex := range r.engine.Exercises() {
		marker := " "
		if i == current {
			marker = "*"
		}
		fmt.Fprintf(&sb, "%s %d. %s (%s, %s)\n", marker, i+1, ex.Title, ex.Category, ex.Difficulty)
	}
	fmt.Fprint(r.out, sb.String())
}
