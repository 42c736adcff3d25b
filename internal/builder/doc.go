// Package builder turns a parsed model declaration into a live engine
// model. Each declared step becomes a body that evaluates the step's HCL
// expression; the variables the expression references are resolved by
// reading them through the engine, which is what records the dependency
// edges. The builder never inspects the expression to precompute a
// dependency graph: the graph is discovered from the reads each run
// actually performs.
package builder
