package builder

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/retracehq/retrace"
	"github.com/retracehq/retrace/internal/config"
	"github.com/retracehq/retrace/internal/ctxlog"
)

// Variable namespaces available to step expressions.
const (
	inputNamespace = "input"
	stepNamespace  = "step"
)

// Build constructs a live engine model from a declaration. Inputs with
// defaults are written before any step can run, satisfying the
// initialize-before-evaluate contract for declaration-file models.
func Build(ctx context.Context, cfg *config.Model) (*retrace.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("building model", "model", cfg.Name, "inputs", len(cfg.Inputs), "steps", len(cfg.Steps))

	m := retrace.NewModel()

	for _, in := range cfg.Inputs {
		slot, err := m.AddInput(in.Name)
		if err != nil {
			return nil, fmt.Errorf("model '%s': %w", cfg.Name, err)
		}
		if in.Default != nil {
			slot.Write(ctx, *in.Default)
		}
	}

	for _, st := range cfg.Steps {
		if _, err := m.AddStep(st.Name, exprBody(m, st.Name, st.Expr)); err != nil {
			return nil, fmt.Errorf("model '%s': %w", cfg.Name, err)
		}
	}

	logger.Debug("model built", "model", cfg.Name)
	return m, nil
}

// exprBody wraps an HCL expression as a step body. On every run it resolves
// the variables the expression references by reading them through the
// engine, so each read lands in the step's trace and the dependency edges
// always match the most recent evaluation.
func exprBody(m *retrace.Model, stepName string, expr hcl.Expression) retrace.Body {
	return func(ctx context.Context) (any, error) {
		inputs := make(map[string]cty.Value)
		steps := make(map[string]cty.Value)

		for _, traversal := range expr.Variables() {
			root := traversal.RootName()
			if len(traversal) < 2 {
				return nil, fmt.Errorf("step '%s': bare reference to %q; use %s.<name> or %s.<name>",
					stepName, root, inputNamespace, stepNamespace)
			}
			attr, ok := traversal[1].(hcl.TraverseAttr)
			if !ok {
				return nil, fmt.Errorf("step '%s': unsupported reference under %q", stepName, root)
			}

			switch root {
			case inputNamespace:
				in, found := m.Input(attr.Name)
				if !found {
					return nil, fmt.Errorf("step '%s' references unknown input '%s'", stepName, attr.Name)
				}
				raw, err := in.Read(ctx)
				if err != nil {
					return nil, err
				}
				val, err := asCty(raw)
				if err != nil {
					return nil, fmt.Errorf("input '%s': %w", attr.Name, err)
				}
				inputs[attr.Name] = val
			case stepNamespace:
				dep, found := m.Step(attr.Name)
				if !found {
					return nil, fmt.Errorf("step '%s' references unknown step '%s'", stepName, attr.Name)
				}
				raw, err := dep.Evaluate(ctx)
				if err != nil {
					return nil, err
				}
				val, err := asCty(raw)
				if err != nil {
					return nil, fmt.Errorf("step '%s': %w", attr.Name, err)
				}
				steps[attr.Name] = val
			default:
				return nil, fmt.Errorf("step '%s': unknown namespace %q; use %s.* or %s.*",
					stepName, root, inputNamespace, stepNamespace)
			}
		}

		evalCtx := &hcl.EvalContext{
			Variables: map[string]cty.Value{
				inputNamespace: cty.ObjectVal(inputs),
				stepNamespace:  cty.ObjectVal(steps),
			},
			Functions: Functions(),
		}

		val, diags := expr.Value(evalCtx)
		if diags.HasErrors() {
			return nil, fmt.Errorf("evaluating step '%s': %w", stepName, diags)
		}
		return val, nil
	}
}

// asCty normalizes a payload read from the engine to a cty value. Models
// built from declaration files always hold cty values; values written
// through the Go API are converted on the way in.
func asCty(raw any) (cty.Value, error) {
	if v, ok := raw.(cty.Value); ok {
		return v, nil
	}
	typ, err := gocty.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, fmt.Errorf("value %T cannot be used in an expression: %w", raw, err)
	}
	return gocty.ToCtyValue(raw, typ)
}
