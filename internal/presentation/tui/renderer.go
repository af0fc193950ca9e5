// Package tui renders practice views for the terminal.
package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/polya/pkg/catalog"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// Renderer transforms markdown before it reaches the terminal.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a glamour-backed markdown renderer.
// It falls back to plain text if glamour cannot be initialized.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return PlainRenderer
	}
	return r.Render
}

// PlainRenderer returns markdown unchanged.
func PlainRenderer(markdown string) (string, error) {
	return markdown, nil
}

// ViewMarkdown formats a session view as markdown.
func ViewMarkdown(v *domain.View, showSample bool) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", v.Title)
	fmt.Fprintf(&sb, "*%s · %s* · exercise %d of %d\n\n", v.Category, v.Difficulty, v.ExerciseIndex+1, v.ExerciseCount)
	if v.Problem != "" {
		sb.WriteString("> ")
		sb.WriteString(strings.ReplaceAll(strings.TrimSpace(v.Problem), "\n", "\n> "))
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "## Step %d/%d: %s (%d%%)\n\n", v.Step.Index+1, v.StepCount, v.Step.Title, v.Progress)
	sb.WriteString(v.Step.Prompt)
	sb.WriteString("\n\n")

	if v.Step.HintVisible && len(v.Step.Hints) > 0 {
		sb.WriteString("**Hints**\n\n")
		for _, h := range v.Step.Hints {
			fmt.Fprintf(&sb, "- %s\n", h)
		}
		sb.WriteString("\n")
	}

	if v.Step.Answer != "" {
		sb.WriteString("**Your answer**\n\n")
		sb.WriteString("```\n")
		sb.WriteString(v.Step.Answer)
		sb.WriteString("\n```\n\n")
	}

	if showSample && v.Step.SampleAnswer != "" {
		sb.WriteString("**Sample answer**\n\n")
		sb.WriteString("```\n")
		sb.WriteString(strings.TrimSpace(v.Step.SampleAnswer))
		sb.WriteString("\n```\n\n")
	}

	if v.Completed && v.Score != nil {
		fmt.Fprintf(&sb, "**Completed. Score: %d/100**\n", *v.Score)
	}
	return sb.String()
}

// CaseMarkdown formats a worked case, one section per stage.
func CaseMarkdown(c catalog.Case) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", c.Title)
	if c.Category != "" || c.Difficulty != "" {
		fmt.Fprintf(&sb, "*%s · %s*\n\n", c.Category, c.Difficulty)
	}
	sb.WriteString("> ")
	sb.WriteString(strings.ReplaceAll(strings.TrimSpace(c.Problem), "\n", "\n> "))
	sb.WriteString("\n\n")

	for i, st := range c.Stages {
		fmt.Fprintf(&sb, "## %d. %s\n\n", i+1, st.Title)
		sb.WriteString(strings.TrimSpace(st.Content))
		sb.WriteString("\n\n")
		if len(st.KeyInsights) > 0 {
			sb.WriteString("**Key insights**\n\n")
			for _, k := range st.KeyInsights {
				fmt.Fprintf(&sb, "- %s\n", k)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
