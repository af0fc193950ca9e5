package runner

import (
	"strconv"
	"strings"
)

type command struct {
	name string
	arg  string
}

var aliases = map[string]string{
	"n":        "next",
	"p":        "prev",
	"previous": "prev",
	"h":        "hint",
	"a":        "answer",
	"s":        "sample",
	"m":        "method",
	"q":        "quit",
	"exit":     "quit",
	"g":        "goto",
	"?":        "help",
}

// parseCommand splits a line into a lowercased command name and its raw argument.
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	name, arg, _ := strings.Cut(line, " ")
	name = strings.ToLower(name)
	if full, ok := aliases[name]; ok {
		name = full
	}
	return command{name: name, arg: strings.TrimSpace(arg)}
}

// ordinal parses a 1-based number into a 0-based index.
func (c command) ordinal() (int, bool) {
	n, err := strconv.Atoi(c.arg)
	if err != nil {
		return 0, false
	}
	return n - 1, true
}

const helpText = `Commands:
  next (n)          advance; on the last step, finish and score
  prev (p)          previous step
  goto N            jump to step N
  hint (h)          show/hide hints
  answer TEXT (a)   set your answer for this step
  write             multi-line answer, end with a line containing "."
  sample (s)        show/hide the sample answer
  method (m)        strategies and common mistakes for this step
  reset             start this exercise over
  select N          switch to exercise N
  list              list exercises
  status            show the current step again
  quit (q)          exit`
