// Package schema holds the gohcl block structures for model declaration
// files. These mirror the file syntax exactly; translation into the
// format-agnostic config model happens in the hclmodel package.
package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// File represents the top-level structure of a model declaration file.
type File struct {
	Models []*Model `hcl:"model,block"`
}

// Model represents a `model "name" { ... }` block.
type Model struct {
	Name   string   `hcl:"name,label"`
	Inputs []*Input `hcl:"input,block"`
	Steps  []*Step  `hcl:"step,block"`
}

// Input represents an `input "name" { ... }` block within a model.
type Input struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
}

// Step represents a `step "name" { ... }` block within a model. The expr
// attribute is kept as an unevaluated expression; it is evaluated by the
// engine each time the step's body runs.
type Step struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	Expr        hcl.Expression `hcl:"expr"`
}
