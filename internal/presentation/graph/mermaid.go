// Package graph renders an exercise's step machine as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/polya/pkg/domain"
)

const doneID = "completed"

// Overlay marks session progress on the diagram.
type Overlay struct {
	Substantive []bool // per step, answer counts toward the score
	CurrentStep int
	Completed   bool
}

// OverlayFor builds an overlay from a session.
func OverlayFor(s *domain.Session) *Overlay {
	o := &Overlay{CurrentStep: s.StepIndex, Completed: s.Completed}
	for _, a := range s.Answers {
		o.Substantive = append(o.Substantive, domain.IsSubstantive(a))
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the exercise:
// - Steps: [Rectangle] labelled with the step title
// - Completion: ((Circle))
// - Advance: solid arrows; the last step finalizes
// - Reset: dotted arrow back to the first step
func GenerateMermaid(ex domain.Exercise, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, st := range ex.Steps {
		label := strings.ReplaceAll(st.Title, "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s[\"%d. %s\"]\n", stepID(i), i+1, label))
	}
	sb.WriteString(fmt.Sprintf("    %s((\"Completed\"))\n", doneID))

	for i := range ex.Steps {
		if i < ex.LastStep() {
			sb.WriteString(fmt.Sprintf("    %s -- advance --> %s\n", stepID(i), stepID(i+1)))
		} else {
			sb.WriteString(fmt.Sprintf("    %s -- \"advance (score)\" --> %s\n", stepID(i), doneID))
		}
	}
	if len(ex.Steps) > 0 {
		sb.WriteString(fmt.Sprintf("    %s -. reset .-> %s\n", doneID, stepID(0)))
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text keeps contrast on both light and dark themes.
		sb.WriteString("    classDef answered fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		for i, ok := range overlay.Substantive {
			if ok && i < len(ex.Steps) {
				sb.WriteString(fmt.Sprintf("    class %s answered;\n", stepID(i)))
			}
		}
		current := stepID(overlay.CurrentStep)
		if overlay.Completed {
			current = doneID
		}
		sb.WriteString(fmt.Sprintf("    class %s current;\n", current))
	}

	return sb.String()
}

func stepID(i int) string {
	return fmt.Sprintf("step%d", i)
}
