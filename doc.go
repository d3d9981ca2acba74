// Package clustermin searches for low-energy atomic cluster geometries using
// either a genetic algorithm with adaptive diversity management or a
// basin-hopping Monte Carlo walker.
//
// The engine is organized by concern rather than by algorithm:
//
//	species/     — domain model: Species, Atom, Lattice, Cluster, Parameters
//	linalg/      — dense matrices and symmetric eigendecomposition
//	grid/        — species-pair collision-threshold lookup table
//	spatial/     — the sole inter-atom distance function, overlap checks, wrapping
//	spawn/       — random sequential adsorption for initial clusters
//	fingerprint/ — isomer-identity strings for deduplication
//	operators/   — geometric mutation and cut-and-splice crossover
//	evaluator/   — the physics-engine abstraction (mock and external-process)
//	dispatch/    — bounded-concurrency evaluator fan-out/fan-in
//	event/       — progress events, telemetry, Prometheus gauges
//	rngstream/   — independent per-worker RNG derivation
//	ga/          — the genetic-algorithm solver
//	bh/          — the basin-hopping solver
//
// See SPEC_FULL.md for the full component design and DESIGN.md for why each
// package is built the way it is.
package clustermin
