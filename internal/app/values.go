package app

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// parseValue evaluates a command-line literal as an HCL expression with no
// variables in scope, so `2`, `1.5e-3`, `"text"`, `true` and `[1, 2]` all
// parse the way they would in a model file.
func parseValue(src string) (cty.Value, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "<arg>", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return val, nil
}

// renderValue formats a step result for output. Declaration-file models
// produce cty values, rendered as JSON; anything else falls back to Go
// formatting.
func renderValue(value any) (string, error) {
	cv, ok := value.(cty.Value)
	if !ok {
		return fmt.Sprintf("%v", value), nil
	}
	rendered, err := ctyjson.Marshal(cv, cv.Type())
	if err != nil {
		return "", fmt.Errorf("rendering value: %w", err)
	}
	return string(rendered), nil
}
