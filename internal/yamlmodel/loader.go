// Package yamlmodel parses .yaml model declaration files into the same
// format-agnostic config model as the HCL front-end. Step bodies are given
// as expression strings and parsed with the HCL native expression syntax,
// so both front-ends feed identical expressions to the builder.
package yamlmodel

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/retracehq/retrace/internal/config"
	"github.com/retracehq/retrace/internal/ctxlog"
)

// file mirrors the YAML document layout.
type file struct {
	Models []*model `yaml:"models"`
}

type model struct {
	Name   string   `yaml:"name"`
	Inputs []*input `yaml:"inputs"`
	Steps  []*step  `yaml:"steps"`
}

type input struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Default     yaml.Node  `yaml:"default"`
}

type step struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Expr        string `yaml:"expr"`
}

// LoadFile reads and parses a single YAML model declaration file.
func LoadFile(ctx context.Context, path string) (*config.Document, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model file: %w", err)
	}
	return Parse(ctx, path, src)
}

// Parse parses YAML model declaration source. The filename is used for
// expression diagnostics.
func Parse(ctx context.Context, filename string, src []byte) (*config.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("parsing model declaration file", "file", filename)

	var parsed file
	if err := yaml.Unmarshal(src, &parsed); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}

	doc := &config.Document{Models: make([]*config.Model, 0, len(parsed.Models))}
	for _, m := range parsed.Models {
		translated, err := translateModel(filename, m)
		if err != nil {
			return nil, err
		}
		doc.Models = append(doc.Models, translated)
	}

	logger.Debug("model declaration parsed", "file", filename, "models", len(doc.Models))
	return doc, nil
}

func translateModel(filename string, m *model) (*config.Model, error) {
	out := &config.Model{
		Name:   m.Name,
		Inputs: make([]*config.Input, 0, len(m.Inputs)),
		Steps:  make([]*config.Step, 0, len(m.Steps)),
	}

	for _, in := range m.Inputs {
		translated := &config.Input{Name: in.Name, Description: in.Description}
		if in.Default.Kind != 0 {
			val, err := scalarToCty(&in.Default)
			if err != nil {
				return nil, fmt.Errorf("invalid default for input '%s' in model '%s': %w", in.Name, m.Name, err)
			}
			translated.Default = &val
		}
		out.Inputs = append(out.Inputs, translated)
	}

	for _, st := range m.Steps {
		expr, diags := hclsyntax.ParseExpression([]byte(st.Expr), filename, hcl.InitialPos)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid expr for step '%s' in model '%s': %w", st.Name, m.Name, diags)
		}
		out.Steps = append(out.Steps, &config.Step{
			Name:        st.Name,
			Description: st.Description,
			Expr:        expr,
		})
	}

	return out, nil
}

// scalarToCty converts a YAML scalar node to a cty value. Only scalars are
// accepted; structured defaults have no counterpart in the HCL front-end.
func scalarToCty(n *yaml.Node) (cty.Value, error) {
	if n.Kind != yaml.ScalarNode {
		return cty.NilVal, fmt.Errorf("default must be a scalar")
	}
	switch n.Tag {
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NumberIntVal(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NumberFloatVal(f), nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.BoolVal(b), nil
	case "!!str":
		return cty.StringVal(n.Value), nil
	default:
		return cty.NilVal, fmt.Errorf("unsupported default type %s", n.Tag)
	}
}
