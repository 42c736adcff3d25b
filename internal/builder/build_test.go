package builder

import (
	"context"
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/retracehq/retrace"
	"github.com/retracehq/retrace/internal/config"
)

// expr parses an expression string for test declarations.
func expr(t *testing.T, src string) hcl.Expression {
	t.Helper()
	e, diags := hclsyntax.ParseExpression([]byte(src), "test.hcl", hcl.InitialPos)
	require.False(t, diags.HasErrors(), "parsing %q: %s", src, diags.Error())
	return e
}

func numPtr(f float64) *cty.Value {
	v := cty.NumberFloatVal(f)
	return &v
}

func pricingModel(t *testing.T) *config.Model {
	t.Helper()
	return &config.Model{
		Name: "pricing",
		Inputs: []*config.Input{
			{Name: "base", Default: numPtr(100)},
			{Name: "discount", Default: numPtr(0)},
			{Name: "tax_rate", Default: numPtr(0.25)},
		},
		Steps: []*config.Step{
			{Name: "discounted", Expr: expr(t, "input.base * (1 - input.discount)")},
			{Name: "tax", Expr: expr(t, "step.discounted * input.tax_rate")},
			{Name: "total", Expr: expr(t, "step.discounted + step.tax")},
		},
	}
}

func evalNum(t *testing.T, m *retrace.Model, step string) float64 {
	t.Helper()
	raw, err := m.Evaluate(context.Background(), step)
	require.NoError(t, err)
	val, ok := raw.(cty.Value)
	require.True(t, ok, "step %s returned %T, want cty.Value", step, raw)
	f, _ := val.AsBigFloat().Float64()
	return f
}

func TestBuild_EvaluatesDeclaredSteps(t *testing.T) {
	ctx := context.Background()
	m, err := Build(ctx, pricingModel(t))
	require.NoError(t, err)

	assert.InDelta(t, 100, evalNum(t, m, "discounted"), 1e-9)
	assert.InDelta(t, 25, evalNum(t, m, "tax"), 1e-9)
	assert.InDelta(t, 125, evalNum(t, m, "total"), 1e-9)

	// The engine discovered the edges from the expressions' reads.
	deps, err := m.Dependencies("total")
	require.NoError(t, err)
	assert.Equal(t, []string{"discounted", "tax"}, deps)
}

func TestBuild_WriteInvalidatesDownstreamOnly(t *testing.T) {
	ctx := context.Background()
	m, err := Build(ctx, pricingModel(t))
	require.NoError(t, err)

	require.InDelta(t, 125, evalNum(t, m, "total"), 1e-9)

	require.NoError(t, m.SetInput(ctx, "tax_rate", cty.NumberFloatVal(0.5)))

	discounted, _ := m.Step("discounted")
	tax, _ := m.Step("tax")
	total, _ := m.Step("total")
	assert.Equal(t, retrace.Valid, discounted.State())
	assert.Equal(t, retrace.Dirty, tax.State())
	assert.Equal(t, retrace.Dirty, total.State())

	assert.InDelta(t, 150, evalNum(t, m, "total"), 1e-9)
}

func TestBuild_FunctionsAvailable(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Model{
		Name:   "funcs",
		Inputs: []*config.Input{{Name: "x", Default: numPtr(-3)}},
		Steps: []*config.Step{
			{Name: "mag", Expr: expr(t, "max(abs(input.x), 2)")},
			{Name: "scaled", Expr: expr(t, "pow(step.mag, 2)")},
		},
	}
	m, err := Build(ctx, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 9, evalNum(t, m, "scaled"), 1e-9)
}

func TestBuild_GoValuesAreConverted(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Model{
		Name:   "conv",
		Inputs: []*config.Input{{Name: "x"}},
		Steps:  []*config.Step{{Name: "double", Expr: expr(t, "input.x * 2")}},
	}
	m, err := Build(ctx, cfg)
	require.NoError(t, err)

	// A plain Go number written through the API is converted before the
	// expression sees it.
	require.NoError(t, m.SetInput(ctx, "x", 21.0))
	assert.InDelta(t, 42, evalNum(t, m, "double"), 1e-9)
}

func TestBuild_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown input reference", func(t *testing.T) {
		cfg := &config.Model{
			Name:  "bad",
			Steps: []*config.Step{{Name: "s", Expr: expr(t, "input.missing + 1")}},
		}
		m, err := Build(ctx, cfg)
		require.NoError(t, err)
		_, err = m.Evaluate(ctx, "s")
		assert.ErrorContains(t, err, "unknown input 'missing'")
	})

	t.Run("unknown step reference", func(t *testing.T) {
		cfg := &config.Model{
			Name:  "bad",
			Steps: []*config.Step{{Name: "s", Expr: expr(t, "step.missing + 1")}},
		}
		m, err := Build(ctx, cfg)
		require.NoError(t, err)
		_, err = m.Evaluate(ctx, "s")
		assert.ErrorContains(t, err, "unknown step 'missing'")
	})

	t.Run("unknown namespace", func(t *testing.T) {
		cfg := &config.Model{
			Name:  "bad",
			Steps: []*config.Step{{Name: "s", Expr: expr(t, "var.x + 1")}},
		}
		m, err := Build(ctx, cfg)
		require.NoError(t, err)
		_, err = m.Evaluate(ctx, "s")
		assert.ErrorContains(t, err, `unknown namespace "var"`)
	})

	t.Run("uninitialized input surfaces from the slot", func(t *testing.T) {
		cfg := &config.Model{
			Name:   "bad",
			Inputs: []*config.Input{{Name: "x"}},
			Steps:  []*config.Step{{Name: "s", Expr: expr(t, "input.x + 1")}},
		}
		m, err := Build(ctx, cfg)
		require.NoError(t, err)
		_, err = m.Evaluate(ctx, "s")
		var uninit *retrace.UninitializedInputError
		assert.ErrorAs(t, err, &uninit)
	})

	t.Run("self reference is a cycle", func(t *testing.T) {
		cfg := &config.Model{
			Name:  "bad",
			Steps: []*config.Step{{Name: "loop", Expr: expr(t, "step.loop + 1")}},
		}
		m, err := Build(ctx, cfg)
		require.NoError(t, err)
		_, err = m.Evaluate(ctx, "loop")
		var cycleErr *retrace.CycleError
		assert.ErrorAs(t, err, &cycleErr)
	})

	t.Run("duplicate declaration", func(t *testing.T) {
		cfg := &config.Model{
			Name:   "bad",
			Inputs: []*config.Input{{Name: "x"}, {Name: "x"}},
		}
		_, err := Build(ctx, cfg)
		assert.ErrorContains(t, err, "already declared")
	})
}
