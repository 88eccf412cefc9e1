package catalog

import (
	_ "embed"
	"github.com/myrjola/dfircase/internal/errors"
	"github.com/myrjola/dfircase/internal/models"
	"gopkg.in/yaml.v3"
	"log/slog"
)

//go:embed steps.yaml
var stepsDefinition []byte

// Step is one forensic procedure an analyst performs and records a finding for.
type Step struct {
	ID            string       `yaml:"id" json:"id"`
	Title         string       `yaml:"title" json:"title"`
	Phase         models.Phase `yaml:"phase" json:"phase"`
	Description   string       `yaml:"description" json:"description"`
	ForensicValue []string     `yaml:"forensicValue" json:"forensicValue"`
	Tool          string       `yaml:"tool" json:"tool,omitempty"`
	Location      string       `yaml:"location" json:"location,omitempty"`
	ReadOnly      bool         `yaml:"readOnly" json:"isReadOnly,omitempty"`
}

// ToolLabel returns the tool name or N/A.
func (s Step) ToolLabel() string {
	if s.Tool == "" {
		return "N/A"
	}
	return s.Tool
}

// Catalog is the fixed, ordered step reference table.
type Catalog struct {
	steps []Step
	index map[string]int
}

// Load decodes the embedded step table.
func Load() (*Catalog, error) {
	return Parse(stepsDefinition)
}

// Parse decodes a YAML step table. Step ids must be unique and every step must belong to a known phase.
func Parse(definition []byte) (*Catalog, error) {
	var steps []Step
	if err := yaml.Unmarshal(definition, &steps); err != nil {
		return nil, errors.Wrap(err, "decode step catalog")
	}
	c := Catalog{
		steps: steps,
		index: make(map[string]int, len(steps)),
	}
	for i, step := range steps {
		if step.ID == "" {
			return nil, errors.New("step without id", slog.Int("index", i))
		}
		if !step.Phase.Valid() {
			return nil, errors.New("step with unknown phase",
				slog.String("step_id", step.ID), slog.String("phase", string(step.Phase)))
		}
		if _, ok := c.index[step.ID]; ok {
			return nil, errors.New("duplicate step id", slog.String("step_id", step.ID))
		}
		c.index[step.ID] = i
	}
	return &c, nil
}

// Steps returns all steps in catalog order.
func (c *Catalog) Steps() []Step {
	return append([]Step{}, c.steps...)
}

// Lookup returns the step with id.
func (c *Catalog) Lookup(id string) (Step, bool) {
	i, ok := c.index[id]
	if !ok {
		return Step{}, false //nolint:exhaustruct // zero value for missing steps
	}
	return c.steps[i], true
}

// Contains reports whether id names a catalog step.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// ForPhase returns the steps of phase in catalog order.
func (c *Catalog) ForPhase(phase models.Phase) []Step {
	var steps []Step
	for _, step := range c.steps {
		if step.Phase == phase {
			steps = append(steps, step)
		}
	}
	return steps
}

// Order returns the position of id in the catalog, or -1 for unknown ids.
func (c *Catalog) Order(id string) int {
	if i, ok := c.index[id]; ok {
		return i
	}
	return -1
}
