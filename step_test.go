package retrace

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds the canonical a -> b -> c model: b doubles a, c adds one to
// b. The counters report how many times each body actually ran.
func chain(t *testing.T, ctx context.Context) (m *Model, a *Input, b, c *Step, bRuns, cRuns *int) {
	t.Helper()
	m = NewModel()

	var err error
	a, err = m.AddInput("a")
	require.NoError(t, err)
	a.Write(ctx, 2)

	bRuns = new(int)
	b, err = m.AddStep("b", func(ctx context.Context) (any, error) {
		*bRuns++
		v, err := a.Read(ctx)
		if err != nil {
			return nil, err
		}
		return v.(int) * 2, nil
	})
	require.NoError(t, err)

	cRuns = new(int)
	c, err = m.AddStep("c", func(ctx context.Context) (any, error) {
		*cRuns++
		v, err := b.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		return v.(int) + 1, nil
	})
	require.NoError(t, err)
	return
}

func TestStep_EvaluateCachesResult(t *testing.T) {
	ctx := context.Background()
	m := NewModel()
	x, err := m.AddInput("x")
	require.NoError(t, err)
	x.Write(ctx, 7)

	runs := 0
	f, err := m.AddStep("f", func(ctx context.Context) (any, error) {
		runs++
		return x.Read(ctx)
	})
	require.NoError(t, err)

	got, err := f.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 1, runs)
	assert.Equal(t, Valid, f.State())

	// Repeated evaluation without intervening writes returns the cached
	// value without invoking the body again.
	for i := 0; i < 3; i++ {
		got, err = f.Evaluate(ctx)
		require.NoError(t, err)
		assert.Equal(t, 7, got)
	}
	assert.Equal(t, 1, runs)
}

func TestStep_WriteThenRecompute(t *testing.T) {
	ctx := context.Background()
	_, a, b, c, bRuns, cRuns := chain(t, ctx)

	got, err := c.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, got)
	assert.Equal(t, Valid, b.State())
	assert.Equal(t, Valid, c.State())
	assert.Equal(t, 1, *bRuns)
	assert.Equal(t, 1, *cRuns)

	a.Write(ctx, 5)
	assert.Equal(t, Dirty, b.State())
	assert.Equal(t, Dirty, c.State())

	got, err = c.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, got)
	assert.Equal(t, 2, *bRuns, "b's body must run exactly once during the re-evaluation of c")
	assert.Equal(t, 2, *cRuns)
}

func TestStep_BodyFailureLeavesNoPartialState(t *testing.T) {
	ctx := context.Background()
	m := NewModel()
	x, err := m.AddInput("x")
	require.NoError(t, err)
	x.Write(ctx, 1)

	boom := errors.New("boom")
	fail := true
	f, err := m.AddStep("f", func(ctx context.Context) (any, error) {
		if fail {
			return nil, boom
		}
		return x.Read(ctx)
	})
	require.NoError(t, err)

	_, err = f.Evaluate(ctx)
	// The body's failure reaches the caller unchanged.
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, Unevaluated, f.State())
	assert.Nil(t, f.cached)

	// A corrected call retries cleanly.
	fail = false
	got, err := f.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	assert.Equal(t, Valid, f.State())
}

func TestStep_FailureUnwindsStack(t *testing.T) {
	ctx := context.Background()
	m := NewModel()

	inner, err := m.AddStep("inner", func(ctx context.Context) (any, error) {
		return nil, fmt.Errorf("inner failed")
	})
	require.NoError(t, err)

	outer, err := m.AddStep("outer", func(ctx context.Context) (any, error) {
		return inner.Evaluate(ctx)
	})
	require.NoError(t, err)

	_, err = outer.Evaluate(ctx)
	assert.ErrorContains(t, err, "inner failed")

	// The stack unwound on every exit path, so unrelated evaluations are
	// unaffected.
	assert.Nil(t, m.stack.current())
	ok, err := m.AddStep("ok", func(ctx context.Context) (any, error) { return "fine", nil })
	require.NoError(t, err)
	got, err := ok.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "fine", got)
}

func TestStep_CycleGuard(t *testing.T) {
	t.Run("direct self reference", func(t *testing.T) {
		ctx := context.Background()
		m := NewModel()
		var self *Step
		self, err := m.AddStep("self", func(ctx context.Context) (any, error) {
			return self.Evaluate(ctx)
		})
		require.NoError(t, err)

		_, err = self.Evaluate(ctx)
		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"self", "self"}, cycleErr.Path)
		assert.Equal(t, Unevaluated, self.State())
		assert.Nil(t, m.stack.current())
	})

	t.Run("indirect cycle through another step", func(t *testing.T) {
		ctx := context.Background()
		m := NewModel()
		var ping, pong *Step
		ping, err := m.AddStep("ping", func(ctx context.Context) (any, error) {
			return pong.Evaluate(ctx)
		})
		require.NoError(t, err)
		pong, err = m.AddStep("pong", func(ctx context.Context) (any, error) {
			return ping.Evaluate(ctx)
		})
		require.NoError(t, err)

		_, err = ping.Evaluate(ctx)
		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"ping", "pong", "ping"}, cycleErr.Path)
		assert.Nil(t, m.stack.current())
	})
}

func TestStep_CachedStepStillRegistersCallerEdge(t *testing.T) {
	ctx := context.Background()
	m := NewModel()
	x, err := m.AddInput("x")
	require.NoError(t, err)
	x.Write(ctx, 1)

	base, err := m.AddStep("base", func(ctx context.Context) (any, error) {
		return x.Read(ctx)
	})
	require.NoError(t, err)

	// base becomes Valid before dependent ever runs.
	_, err = base.Evaluate(ctx)
	require.NoError(t, err)

	dependent, err := m.AddStep("dependent", func(ctx context.Context) (any, error) {
		v, err := base.Evaluate(ctx)
		if err != nil {
			return nil, err
		}
		return v.(int) + 10, nil
	})
	require.NoError(t, err)

	_, err = dependent.Evaluate(ctx)
	require.NoError(t, err)

	// dependent's read of the cached base was still recorded, so a write
	// to x reaches dependent through base.
	x.Write(ctx, 2)
	assert.Equal(t, Dirty, base.State())
	assert.Equal(t, Dirty, dependent.State())

	got, err := dependent.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, got)
}

func TestStep_BranchSwitchRebuildsDependencies(t *testing.T) {
	ctx := context.Background()
	m := NewModel()

	flag, err := m.AddInput("flag")
	require.NoError(t, err)
	left, err := m.AddInput("left")
	require.NoError(t, err)
	right, err := m.AddInput("right")
	require.NoError(t, err)
	flag.Write(ctx, true)
	left.Write(ctx, "L")
	right.Write(ctx, "R")

	pick, err := m.AddStep("pick", func(ctx context.Context) (any, error) {
		f, err := flag.Read(ctx)
		if err != nil {
			return nil, err
		}
		if f.(bool) {
			return left.Read(ctx)
		}
		return right.Read(ctx)
	})
	require.NoError(t, err)

	got, err := pick.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "L", got)

	deps, err := m.Dependencies("pick")
	require.NoError(t, err)
	assert.Equal(t, []string{"flag", "left"}, deps)

	// Flip the branch; the trace is rebuilt from this run's reads.
	flag.Write(ctx, false)
	got, err = pick.Evaluate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "R", got)

	deps, err = m.Dependencies("pick")
	require.NoError(t, err)
	assert.Equal(t, []string{"flag", "right"}, deps)

	// The abandoned branch no longer invalidates the step.
	left.Write(ctx, "LL")
	assert.Equal(t, Valid, pick.State())

	right.Write(ctx, "RR")
	assert.Equal(t, Dirty, pick.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "unevaluated", Unevaluated.String())
	assert.Equal(t, "valid", Valid.String())
	assert.Equal(t, "dirty", Dirty.String())
	assert.Equal(t, "state(42)", State(42).String())
}
