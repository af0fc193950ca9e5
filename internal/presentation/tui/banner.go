package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Polya banner with the version underneath.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{`  ____       _             `, "#34d399"},
		{` |  _ \ ___ | |_   _  __ _ `, "#2dd4bf"},
		{` | |_) / _ \| | | | |/ _' |`, "#22d3ee"},
		{` |  __/ (_) | | |_| | (_| |`, "#38bdf8"},
		{` |_|   \___/|_|\__, |\__,_|`, "#60a5fa"},
		{`               |___/       `, "#818cf8"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  understand · plan · execute · look back   v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}

// Status colors a short status string: green for good, yellow for warnings.
func Status(text string, ok bool) string {
	p := termenv.ColorProfile()
	color := "#fbbf24"
	if ok {
		color = "#34d399"
	}
	return termenv.String(text).Foreground(p.Color(color)).Bold().String()
}
