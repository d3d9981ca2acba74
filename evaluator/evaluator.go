// Package evaluator defines the sole abstraction over the external physics
// engine (spec §6): a capability type with evaluate/name operations, grounded
// on lvlath/algorithms's free-function-over-interface style generalized into
// an explicit interface since, unlike BFS/DFS, callers here need dynamic
// dispatch between a mock and a real external-process implementation.
package evaluator

import (
	"context"
	"errors"

	"github.com/clustermin/clustermin/species"
)

// ErrUnusable indicates the candidate cluster could not be evaluated; the
// solver will discard it and may retry with a new candidate (spec §6).
var ErrUnusable = errors.New("evaluator: candidate unusable")

// Result is the outcome of a successful Evaluate call.
type Result struct {
	// Energy is in eV (any consistent unit works, but telemetry prints "eV").
	Energy float64

	// GradientNorm is optional.
	GradientNorm *float64

	// Relaxed, if present, must contain the same atom count and species
	// assignment in the same order as the input cluster; positions may
	// change; lattice may be set/updated.
	Relaxed *species.Cluster
}

// Evaluator must be safe for concurrent invocation from many goroutines
// (spec §6). Implementations include Mock (deterministic, for tests) and
// ProcessEvaluator (external command-line minimizer wrapper).
type Evaluator interface {
	// Evaluate runs the physics engine on c and returns its energy and
	// (optionally) relaxed geometry, or an error if the candidate is
	// unusable.
	Evaluate(ctx context.Context, c *species.Cluster) (Result, error)

	// Name identifies the evaluator implementation for logs/telemetry.
	Name() string
}
