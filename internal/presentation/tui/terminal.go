package tui

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// RendererFor picks glamour for terminals and plain markdown otherwise,
// so piped output stays free of ANSI sequences.
func RendererFor(f *os.File) Renderer {
	if IsTerminal(f) {
		return NewRenderer()
	}
	return PlainRenderer
}
