package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/polya/internal/presentation/graph"
	"github.com/aretw0/polya/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func exercise() domain.Exercise {
	return domain.Exercise{ID: "ex", Steps: []domain.Step{
		{Title: "Understand"}, {Title: "Plan \"it\""}, {Title: "Review"},
	}}
}

func TestGenerateMermaid(t *testing.T) {
	out := graph.GenerateMermaid(exercise(), nil)

	for _, want := range []string{
		"graph TD\n",
		`step0["1. Understand"]`,
		`step1["2. Plan 'it'"]`,
		`completed(("Completed"))`,
		"step0 -- advance --> step1",
		`step2 -- "advance (score)" --> completed`,
		"completed -. reset .-> step0",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "classDef")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	s := domain.NewSession("s", 0, exercise())
	s.Answers[0] = strings.Repeat("a", 51)
	s.StepIndex = 1

	out := graph.GenerateMermaid(exercise(), graph.OverlayFor(s))
	assert.Contains(t, out, "class step0 answered;")
	assert.NotContains(t, out, "class step1 answered;")
	assert.Contains(t, out, "class step1 current;")

	score := 33
	s.Completed, s.Score = true, &score
	out = graph.GenerateMermaid(exercise(), graph.OverlayFor(s))
	assert.Contains(t, out, "class completed current;")
}
