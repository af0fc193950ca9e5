/*
Package polya is an interactive tutorial engine for Polya's four-step
problem-solving method: understand the problem, devise a plan, carry out the
plan, look back.

The core is a deterministic state machine over stepped exercises. A Session
records the active step, one free-text answer and one hint flag per step, and
the completion score. Every operation takes the current Session and returns a
new one; the input is never modified, and on error no new Session is produced.

# Scoring

Advancing past the last step finalizes the session. An answer counts as
substantive when its whitespace-trimmed text is longer than 50 characters
(Unicode code points). The score is round(substantive / steps * 100).

# Usage

	engine, err := polya.New("") // embedded default catalog
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	s, _ := engine.Start(ctx, "learner-1", 0)
	s, _ = engine.SetAnswer(ctx, s, 0, "The unknown is ...")
	s, _ = engine.Advance(ctx, s)

	view, _ := engine.Render(ctx, s)
	fmt.Println(view.Step.Title)

Sessions can be persisted with any ports.SessionStore (memory, file, Redis,
SQLite) and shared safely between goroutines or replicas through
session.Manager. The pkg/adapters/http and pkg/adapters/mcp packages expose
the same operations over HTTP and the Model Context Protocol.
*/
package polya
