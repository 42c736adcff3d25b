// Package retrace is an incremental computation engine for numeric models
// whose inputs are tweaked far more often than they are all replaced.
//
// A model author declares named input slots and named computed steps on a
// Model. Step bodies are ordinary Go functions that read inputs and other
// steps through the engine. While a body runs, every read is observed and
// recorded as a dependency edge, so the engine discovers the dependency
// graph at run time instead of requiring it up front. Each step caches its
// result; writing an input walks the recorded reverse edges and marks
// exactly the downstream steps dirty, so the next evaluation recomputes
// only what the write actually affected.
//
// Dependency sets are cleared and rebuilt on every recompute. A body whose
// reads differ between runs (data-dependent branching) therefore always has
// edges matching its most recent trace, never a stale superset or subset.
//
// Invalidation is structural: writing an input always dirties its
// dependents, even if the new value compares equal to the old one. The
// engine never diffs values.
//
// A Model and everything it owns is confined to a single goroutine. The
// evaluation stack mirrors the call stack of the running bodies, which only
// holds when evaluations on one Model never interleave. Two distinct Models
// share no state and may be used from different goroutines freely.
package retrace
