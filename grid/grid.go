// Package grid implements the interaction grid: an O(1) pairwise minimum-
// distance lookup table indexed by species pair, grounded on lvlath/matrix's
// square species/vertex-indexed adjacency-matrix idiom (matrix/adjacency_matrix.go),
// adapted here to store squared collision thresholds instead of edge weights.
package grid

import (
	"errors"
	"fmt"

	"github.com/clustermin/clustermin/species"
)

// ErrInvalidScale indicates a compression scale outside (0, 2].
var ErrInvalidScale = errors.New("grid: scale must be in (0, 2]")

// ErrSpeciesIndexOutOfRange indicates a species index outside the table bounds.
var ErrSpeciesIndexOutOfRange = errors.New("grid: species index out of range")

// InteractionGrid is a square matrix indexed by species pairs, storing
// ((r_i + r_j) * scale)^2 (spec §3). Stored squared to eliminate square roots
// on the hot path (spatial.CheckOverlap).
type InteractionGrid struct {
	n      int
	scale  float64
	collSq []float64 // row-major n x n
}

// New builds an InteractionGrid from a species table and a global compression
// scale. scale must lie in (0, 2]; original_source/src/core/chemistry.rs clamps
// scale before squaring, so we validate it here rather than silently producing
// a degenerate threshold.
func New(table []species.Species, scale float64) (*InteractionGrid, error) {
	if scale <= 0 || scale > 2 {
		return nil, fmt.Errorf("grid.New: scale=%.4f: %w", scale, ErrInvalidScale)
	}
	n := len(table)
	g := &InteractionGrid{n: n, scale: scale, collSq: make([]float64, n*n)}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r := (table[i].CovalentRadius + table[j].CovalentRadius) * scale
			g.collSq[i*n+j] = r * r
		}
	}
	return g, nil
}

// CollisionSq returns ((r_i + r_j) * scale)^2 for species indices i, j.
// Satisfies CollisionSq(i, j) == CollisionSq(j, i) by construction (spec §8).
func (g *InteractionGrid) CollisionSq(i, j int) (float64, error) {
	if i < 0 || i >= g.n || j < 0 || j >= g.n {
		return 0, fmt.Errorf("grid.CollisionSq(%d,%d): %w", i, j, ErrSpeciesIndexOutOfRange)
	}
	return g.collSq[i*g.n+j], nil
}

// Scale returns the compression factor the grid was built with.
func (g *InteractionGrid) Scale() float64 { return g.scale }

// NumSpecies returns the number of species the grid was built for.
func (g *InteractionGrid) NumSpecies() int { return g.n }
