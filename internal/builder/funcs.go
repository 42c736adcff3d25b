package builder

import (
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Functions returns the function table available to step expressions: the
// numeric and string helpers a model author is likely to reach for when
// writing shrinkage factors and diagnostics.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		"abs":      stdlib.AbsoluteFunc,
		"ceil":     stdlib.CeilFunc,
		"floor":    stdlib.FloorFunc,
		"log":      stdlib.LogFunc,
		"pow":      stdlib.PowFunc,
		"signum":   stdlib.SignumFunc,
		"max":      stdlib.MaxFunc,
		"min":      stdlib.MinFunc,
		"int":      stdlib.IntFunc,
		"parseint": stdlib.ParseIntFunc,
		"format":   stdlib.FormatFunc,
		"upper":    stdlib.UpperFunc,
		"lower":    stdlib.LowerFunc,
		"strlen":   stdlib.StrlenFunc,
		"concat":   stdlib.ConcatFunc,
		"length":   stdlib.LengthFunc,
		"range":    stdlib.RangeFunc,
		"coalesce": stdlib.CoalesceFunc,
	}
}
