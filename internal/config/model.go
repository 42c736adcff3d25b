package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Document is the unified, format-agnostic representation of a model
// declaration file, whichever front-end parsed it.
type Document struct {
	Models []*Model
}

// Model declares one model: its named inputs and named steps. The
// dependency structure between steps is intentionally absent; it is
// discovered at run time by the engine, not written down here.
type Model struct {
	Name   string
	Inputs []*Input
	Steps  []*Step
}

// Input declares a single input slot, optionally with an initial value.
type Input struct {
	Name        string
	Description string
	// Default, when present, is written to the slot at build time so the
	// model satisfies the initialize-before-evaluate contract out of the box.
	Default *cty.Value
}

// Step declares a single computed step. Expr is the step's body: an HCL
// expression over `input.<name>` and `step.<name>` variables.
type Step struct {
	Name        string
	Description string
	Expr        hcl.Expression
}

// ModelByName finds a declared model, or errors with the available names.
func (d *Document) ModelByName(name string) (*Model, error) {
	for _, m := range d.Models {
		if m.Name == name {
			return m, nil
		}
	}
	available := make([]string, 0, len(d.Models))
	for _, m := range d.Models {
		available = append(available, m.Name)
	}
	return nil, fmt.Errorf("model not found: %s (declared: %v)", name, available)
}
