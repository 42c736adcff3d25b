package hclmodel

import (
	"fmt"

	"github.com/retracehq/retrace/internal/config"
	"github.com/retracehq/retrace/internal/schema"
)

// translateModel converts an HCL-specific model schema into the agnostic
// config model.
func translateModel(m *schema.Model) (*config.Model, error) {
	out := &config.Model{
		Name:   m.Name,
		Inputs: make([]*config.Input, 0, len(m.Inputs)),
		Steps:  make([]*config.Step, 0, len(m.Steps)),
	}

	for _, in := range m.Inputs {
		translated, err := translateInput(m.Name, in)
		if err != nil {
			return nil, err
		}
		out.Inputs = append(out.Inputs, translated)
	}

	for _, st := range m.Steps {
		out.Steps = append(out.Steps, &config.Step{
			Name:        st.Name,
			Description: st.Description,
			Expr:        st.Expr,
		})
	}

	return out, nil
}

// translateInput processes a single input block, evaluating its default
// value. Defaults must be literals: they are evaluated with no variables in
// scope, before any model exists to read from.
func translateInput(modelName string, in *schema.Input) (*config.Input, error) {
	out := &config.Input{
		Name:        in.Name,
		Description: in.Description,
	}

	if in.Default != nil {
		val, diags := in.Default.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid default for input '%s' in model '%s': %w", in.Name, modelName, diags)
		}
		if !val.IsNull() {
			out.Default = &val
		}
	}

	return out, nil
}
