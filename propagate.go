package retrace

import (
	"context"

	"github.com/retracehq/retrace/internal/ctxlog"
)

// propagate walks the reverse-edge graph breadth-first from the seed set,
// marking every reachable step dirty. The visited set guarantees each step
// is invalidated and expanded exactly once, so diamond-shaped fan-in does
// not enqueue a shared dependent twice. The graph is acyclic (the stack's
// re-entrancy guard rejects cycles before edges for them can exist), so the
// walk always terminates.
func propagate(ctx context.Context, seeds map[string]*Step) {
	if len(seeds) == 0 {
		return
	}

	visited := make(map[string]bool, len(seeds))
	queue := make([]*Step, 0, len(seeds))
	for _, st := range seeds {
		queue = append(queue, st)
	}

	invalidated := 0
	for len(queue) > 0 {
		st := queue[0]
		queue = queue[1:]
		if visited[st.name] {
			continue
		}
		visited[st.name] = true

		st.invalidate()
		invalidated++
		for _, dependent := range st.dependents {
			queue = append(queue, dependent)
		}
	}

	ctxlog.FromContext(ctx).Debug("invalidation propagated", "steps", invalidated)
}
