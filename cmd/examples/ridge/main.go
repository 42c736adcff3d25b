// Command ridge fits ridge regression with a dependency-tracked model and
// sweeps the regularization strength. The eigendecomposition of XᵀX and the
// Xᵀy product depend only on the data inputs, so every sweep iteration
// reuses them and recomputes just the shrinkage factors, the hat matrix and
// the weights.
package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/retracehq/retrace"
)

// eigen carries the eigendecomposition of XᵀX between steps.
type eigen struct {
	values  []float64
	vectors *mat.Dense
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx := context.Background()

	const (
		n = 50
		p = 4
	)
	rng := rand.New(rand.NewSource(9))
	xData := make([]float64, n*p)
	yData := make([]float64, n)
	for i := range xData {
		xData[i] = rng.NormFloat64()
	}
	for i := range yData {
		yData[i] = rng.NormFloat64()
	}

	model := retrace.NewModel()
	runs := make(map[string]int)

	x, err := model.AddInput("x")
	if err != nil {
		return err
	}
	y, err := model.AddInput("y")
	if err != nil {
		return err
	}
	alpha, err := model.AddInput("alpha")
	if err != nil {
		return err
	}

	x.Write(ctx, mat.NewDense(n, p, xData))
	y.Write(ctx, mat.NewVecDense(n, yData))
	alpha.Write(ctx, 1.0)

	decompose, err := model.AddStep("decompose", func(ctx context.Context) (any, error) {
		runs["decompose"]++
		raw, err := x.Read(ctx)
		if err != nil {
			return nil, err
		}
		xMat := raw.(*mat.Dense)

		var xtx mat.Dense
		xtx.Mul(xMat.T(), xMat)
		sym := mat.NewSymDense(p, nil)
		for i := 0; i < p; i++ {
			for j := i; j < p; j++ {
				sym.SetSym(i, j, xtx.At(i, j))
			}
		}

		var eig mat.EigenSym
		if ok := eig.Factorize(sym, true); !ok {
			return nil, fmt.Errorf("eigendecomposition of XᵀX failed")
		}
		var vectors mat.Dense
		eig.VectorsTo(&vectors)
		return &eigen{values: eig.Values(nil), vectors: &vectors}, nil
	})
	if err != nil {
		return err
	}

	shrinkage, err := model.AddStep("shrinkage", func(ctx context.Context) (any, error) {
		runs["shrinkage"]++
		raw, err := decompose.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		a, err := alpha.Read(ctx)
		if err != nil {
			return nil, err
		}
		eig := raw.(*eigen)
		factors := make([]float64, len(eig.values))
		for i, lam := range eig.values {
			factors[i] = 1 / (lam + a.(float64))
		}
		return factors, nil
	})
	if err != nil {
		return err
	}

	hat, err := model.AddStep("hat", func(ctx context.Context) (any, error) {
		runs["hat"]++
		raw, err := decompose.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		factorsRaw, err := shrinkage.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		eig := raw.(*eigen)
		factors := factorsRaw.([]float64)

		// scaled = U * diag(factors)
		scaled := mat.NewDense(p, p, nil)
		for i := 0; i < p; i++ {
			for j := 0; j < p; j++ {
				scaled.Set(i, j, eig.vectors.At(i, j)*factors[j])
			}
		}
		var h mat.Dense
		h.Mul(scaled, eig.vectors.T())
		return &h, nil
	})
	if err != nil {
		return err
	}

	xty, err := model.AddStep("xty", func(ctx context.Context) (any, error) {
		runs["xty"]++
		rawX, err := x.Read(ctx)
		if err != nil {
			return nil, err
		}
		rawY, err := y.Read(ctx)
		if err != nil {
			return nil, err
		}
		var v mat.VecDense
		v.MulVec(rawX.(*mat.Dense).T(), rawY.(*mat.VecDense))
		return &v, nil
	})
	if err != nil {
		return err
	}

	weights, err := model.AddStep("weights", func(ctx context.Context) (any, error) {
		runs["weights"]++
		rawHat, err := hat.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		rawXty, err := xty.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		var w mat.VecDense
		w.MulVec(rawHat.(*mat.Dense), rawXty.(*mat.VecDense))
		return &w, nil
	})
	if err != nil {
		return err
	}

	// predict is a plain composition of tracked steps: the engine neither
	// caches nor invalidates it.
	predict := func(ctx context.Context, xNew *mat.Dense) (*mat.VecDense, error) {
		raw, err := weights.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		var fitted mat.VecDense
		fitted.MulVec(xNew, raw.(*mat.VecDense))
		return &fitted, nil
	}

	xMat := mat.NewDense(n, p, xData)
	yVec := mat.NewVecDense(n, yData)
	for _, a := range []float64{0.1, 1, 10, 100} {
		alpha.Write(ctx, a)
		fitted, err := predict(ctx, xMat)
		if err != nil {
			return err
		}
		var resid mat.VecDense
		resid.SubVec(yVec, fitted)
		rmse := mat.Norm(&resid, 2) / math.Sqrt(float64(n))

		raw, err := weights.Evaluate(ctx)
		if err != nil {
			return err
		}
		w := raw.(*mat.VecDense)
		fmt.Fprintf(os.Stdout, "alpha=%-6g rmse=%.4f weights=%v\n", a, rmse, mat.Formatted(w.T(), mat.Prefix("")))
	}

	// decompose and xty run once no matter how many alphas are swept.
	names := make([]string, 0, len(runs))
	for name := range runs {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(os.Stdout, "body runs:")
	for _, name := range names {
		fmt.Fprintf(os.Stdout, "  %-10s %d\n", name, runs[name])
	}
	return nil
}
