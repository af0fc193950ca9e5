// Package catalog loads and validates the exercise catalog.
//
// A catalog is a YAML or JSON document with an optional "method" section
// (the stages of the problem-solving method, used as reference material), an
// optional "cases" section of worked examples and an ordered "exercises" list.
// The default catalog is embedded in the binary.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/polya/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

// Format selects the document syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Stage describes one stage of the problem-solving method.
type Stage struct {
	Name           string   `json:"name" yaml:"name" mapstructure:"name"`
	Description    string   `json:"description" yaml:"description" mapstructure:"description"`
	Strategies     []string `json:"strategies,omitempty" yaml:"strategies,omitempty" mapstructure:"strategies"`
	CommonMistakes []string `json:"common_mistakes,omitempty" yaml:"common_mistakes,omitempty" mapstructure:"common_mistakes"`
}

// Catalog is the decoded catalog document.
type Catalog struct {
	Method    []Stage           `json:"method,omitempty" yaml:"method,omitempty" mapstructure:"method"`
	Cases     []Case            `json:"cases,omitempty" yaml:"cases,omitempty" mapstructure:"cases"`
	Exercises []domain.Exercise `json:"exercises" yaml:"exercises" mapstructure:"exercises"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultDocument, FormatYAML)
}

// Load reads a catalog file. Files ending in .json are parsed as JSON,
// anything else as YAML. An empty path returns the embedded catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	format := FormatYAML
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		format = FormatJSON
	}
	cat, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes and validates a catalog document.
// Unknown keys are rejected so that typos in hand-written catalogs surface early.
func Parse(data []byte, format Format) (*Catalog, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: failed to parse json: %v", domain.ErrInvalidCatalog, err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: failed to parse yaml: %v", domain.ErrInvalidCatalog, err)
		}
	}

	var cat Catalog
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &cat,
		TagName:     "mapstructure",
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCatalog, err)
	}

	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// Validate checks the structural rules every catalog must satisfy.
func (c *Catalog) Validate() error {
	if len(c.Exercises) == 0 {
		return domain.ErrEmptyCatalog
	}

	var errs []error
	seen := make(map[string]int, len(c.Exercises))
	for i, ex := range c.Exercises {
		if ex.ID == "" {
			errs = append(errs, fmt.Errorf("exercise %d: missing id", i))
		} else if prev, dup := seen[ex.ID]; dup {
			errs = append(errs, fmt.Errorf("exercise %d: id %q already used by exercise %d", i, ex.ID, prev))
		} else {
			seen[ex.ID] = i
		}
		if ex.Title == "" {
			errs = append(errs, fmt.Errorf("exercise %q: missing title", ex.ID))
		}
		if len(ex.Steps) == 0 {
			errs = append(errs, fmt.Errorf("exercise %q: no steps", ex.ID))
		}
		for j, st := range ex.Steps {
			if st.Title == "" {
				errs = append(errs, fmt.Errorf("exercise %q step %d: missing title", ex.ID, j))
			}
			if st.Prompt == "" {
				errs = append(errs, fmt.Errorf("exercise %q step %d: missing prompt", ex.ID, j))
			}
		}
	}
	for i, st := range c.Method {
		if st.Name == "" {
			errs = append(errs, fmt.Errorf("method stage %d: missing name", i))
		}
	}
	errs = append(errs, c.validateCases()...)

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidCatalog, errors.Join(errs...))
	}
	return nil
}

// Stage returns the method stage matching a step index, if the catalog defines one.
func (c *Catalog) Stage(step int) (Stage, bool) {
	if step < 0 || step >= len(c.Method) {
		return Stage{}, false
	}
	return c.Method[step], true
}
