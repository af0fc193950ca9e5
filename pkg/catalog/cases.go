package catalog

import (
	"fmt"

	"github.com/aretw0/polya/pkg/domain"
)

// Case is a worked example walked through every stage of the method.
// Cases are read-only reference material; they never become sessions.
type Case struct {
	ID          string      `json:"id" yaml:"id" mapstructure:"id"`
	Title       string      `json:"title" yaml:"title" mapstructure:"title"`
	Category    string      `json:"category,omitempty" yaml:"category,omitempty" mapstructure:"category"`
	Difficulty  string      `json:"difficulty,omitempty" yaml:"difficulty,omitempty" mapstructure:"difficulty"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Problem     string      `json:"problem" yaml:"problem" mapstructure:"problem"`
	Stages      []CaseStage `json:"stages" yaml:"stages" mapstructure:"stages"`
}

// CaseStage is the worked content of one stage of a case.
type CaseStage struct {
	Title       string   `json:"title" yaml:"title" mapstructure:"title"`
	Content     string   `json:"content" yaml:"content" mapstructure:"content"`
	KeyInsights []string `json:"key_insights,omitempty" yaml:"key_insights,omitempty" mapstructure:"key_insights"`
}

// Case returns the case at index.
func (c *Catalog) Case(index int) (Case, error) {
	if err := domain.CheckIndex("case", index, len(c.Cases)); err != nil {
		return Case{}, err
	}
	return c.Cases[index], nil
}

func (c *Catalog) validateCases() []error {
	var errs []error
	seen := make(map[string]int, len(c.Cases))
	for i, cs := range c.Cases {
		if cs.ID == "" {
			errs = append(errs, fmt.Errorf("case %d: missing id", i))
		} else if prev, dup := seen[cs.ID]; dup {
			errs = append(errs, fmt.Errorf("case %d: id %q already used by case %d", i, cs.ID, prev))
		} else {
			seen[cs.ID] = i
		}
		if cs.Title == "" {
			errs = append(errs, fmt.Errorf("case %q: missing title", cs.ID))
		}
		if cs.Problem == "" {
			errs = append(errs, fmt.Errorf("case %q: missing problem", cs.ID))
		}
		if len(cs.Stages) == 0 {
			errs = append(errs, fmt.Errorf("case %q: no stages", cs.ID))
		}
		for j, st := range cs.Stages {
			if st.Title == "" || st.Content == "" {
				errs = append(errs, fmt.Errorf("case %q stage %d: missing title or content", cs.ID, j))
			}
		}
	}
	return errs
}
