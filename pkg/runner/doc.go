/*
Package runner implements the terminal practice loop.

The Runner reads one command per line, applies the matching engine operation
to the current session, persists the result when a session.Manager is
configured, and renders the new view.

# Commands

	next | n            advance (finalizes on the last step)
	prev | p            previous step
	goto N              jump to step N (1-based)
	hint | h            show or hide the hints of the current step
	answer TEXT | a     set the answer of the current step
	write               multi-line answer, finished by a line with a single "."
	sample | s          show or hide the sample answer
	method | m          method strategies for the current step
	reset               clear all progress on this exercise
	select N            start exercise N (1-based)
	list                list exercises
	status              render the current view again
	help                list commands
	quit | q            exit

# Usage

	r := runner.NewRunner(engine,
		runner.WithManager(manager),
		runner.WithSessionID("learner-1"),
		runner.WithIO(os.Stdin, os.Stdout),
	)
	if _, err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
