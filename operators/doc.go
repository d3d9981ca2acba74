// Package operators implements the geometric operator kernel: a composable
// Mutator builder and stoichiometry-preserving cut-and-splice crossover.
//
// Mutator mirrors lvlath/builder's Constructor/BuilderOption composition —
// accumulate configuration via chained With-style calls, then apply it in one
// deterministic pass — but here the accumulated steps are geometric transforms
// applied, in a fixed order, to a single cluster rather than graph-construction
// steps applied to an empty graph.
package operators
