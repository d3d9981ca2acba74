package evaluator

import (
	"context"
	"math"

	"github.com/clustermin/clustermin/species"
)

// Mock is the deterministic evaluator used by end-to-end tests (spec §8):
// energy = sum of |r_i| over all atoms, which prefers compact clusters near
// the origin. It never fails and never returns relaxed geometry, matching the
// simplest legal Evaluator (a nil Relaxed is always acceptable per the
// contract in spec §6).
type Mock struct{}

// NewMock returns a Mock evaluator.
func NewMock() *Mock { return &Mock{} }

// Evaluate computes sum(|r_i|) for c's atoms.
func (m *Mock) Evaluate(_ context.Context, c *species.Cluster) (Result, error) {
	var energy float64
	for _, a := range c.Atoms {
		energy += absVec(a.Position)
	}
	return Result{Energy: energy}, nil
}

// Name identifies this evaluator for logs/telemetry.
func (m *Mock) Name() string { return "mock-sum-abs" }

func absVec(p [3]float64) float64 {
	return math.Sqrt(p[0]*p[0] + p[1]*p[1] + p[2]*p[2])
}
