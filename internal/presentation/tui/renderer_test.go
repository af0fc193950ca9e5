package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/polya/internal/presentation/tui"
	"github.com/aretw0/polya/pkg/catalog"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func view() *domain.View {
	return &domain.View{
		ExerciseCount: 2,
		Title:         "Shopping",
		Difficulty:    "basic",
		Category:      "math",
		Problem:       "Buy fruit.\nMaximize weight.",
		StepCount:     4,
		Step: domain.StepView{
			Index:        1,
			Title:        "Plan",
			Prompt:       "Which method?",
			Hints:        []string{"Think greedy"},
			HintVisible:  true,
			SampleAnswer: "Greedy by value",
			Answer:       "my plan",
		},
		Progress: 50,
	}
}

func TestViewMarkdown(t *testing.T) {
	md := tui.ViewMarkdown(view(), false)

	assert.Contains(t, md, "# Shopping")
	assert.Contains(t, md, "exercise 1 of 2")
	assert.Contains(t, md, "> Buy fruit.\n> Maximize weight.")
	assert.Contains(t, md, "## Step 2/4: Plan (50%)")
	assert.Contains(t, md, "- Think greedy")
	assert.Contains(t, md, "my plan")
	assert.NotContains(t, md, "Sample answer")

	md = tui.ViewMarkdown(view(), true)
	assert.Contains(t, md, "Greedy by value")
}

func TestViewMarkdown_Completed(t *testing.T) {
	v := view()
	score := 75
	v.Completed, v.Score = true, &score
	v.Step.HintVisible = false

	md := tui.ViewMarkdown(v, false)
	assert.Contains(t, md, "Score: 75/100")
	assert.NotContains(t, md, "Hints")
}

func TestPlainRendererAndBanner(t *testing.T) {
	out, err := tui.PlainRenderer("**x**")
	assert.NoError(t, err)
	assert.Equal(t, "**x**", out)

	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3\n")
	assert.Contains(t, buf.String(), "v1.2.3")
}

func TestCaseMarkdown(t *testing.T) {
	md := tui.CaseMarkdown(catalog.Case{
		Title:      "Cuboid",
		Category:   "math",
		Difficulty: "basic",
		Problem:    "A box.\nFind the diagonal.",
		Stages: []catalog.CaseStage{
			{Title: "Understand", Content: "  Unknown: x  ", KeyInsights: []string{"Think in 3D"}},
			{Title: "Plan", Content: "Use Pythagoras"},
		},
	})

	assert.Contains(t, md, "# Cuboid")
	assert.Contains(t, md, "*math · basic*")
	assert.Contains(t, md, "> A box.\n> Find the diagonal.")
	assert.Contains(t, md, "## 1. Understand\n\nUnknown: x\n")
	assert.Contains(t, md, "- Think in 3D")
	assert.Contains(t, md, "## 2. Plan")
	assert.Equal(t, 1, bytes.Count([]byte(md), []byte("Key insights")))
}
