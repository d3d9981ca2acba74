// Package spatial implements the only legal inter-atom distance function in the
// engine (spec §4.1: "the only legal inter-atom distance function in the code"),
// plus the overlap check and centering/wrapping built on top of it. It is
// grounded on lvlath/gridgraph's periodic-neighbor handling, generalized from
// integer lattice cells to continuous minimum-image coordinates.
package spatial

import (
	"math"

	"github.com/clustermin/clustermin/grid"
	"github.com/clustermin/clustermin/species"
)

// DistanceSq returns the squared distance between p1 and p2. With lat == nil
// this is plain squared Euclidean distance. With a lattice present, p2 - p1 is
// converted to fractional coordinates via the lattice's precomputed inverse,
// the minimum-image convention is applied by subtracting the rounded
// fractional offset component-wise, and the result is converted back to
// Cartesian before squaring and summing.
func DistanceSq(p1, p2 [3]float64, lat *species.Lattice) float64 {
	d := [3]float64{p2[0] - p1[0], p2[1] - p1[1], p2[2] - p1[2]}
	if lat == nil {
		return d[0]*d[0] + d[1]*d[1] + d[2]*d[2]
	}

	// Cartesian -> fractional via the precomputed inverse.
	var frac [3]float64
	for i := 0; i < 3; i++ {
		frac[i] = lat.Inv[i][0]*d[0] + lat.Inv[i][1]*d[1] + lat.Inv[i][2]*d[2]
	}
	// Minimum-image convention: pull each fractional component into [-0.5, 0.5].
	for i := 0; i < 3; i++ {
		frac[i] -= math.Round(frac[i])
	}
	// Fractional -> Cartesian via the column vectors A, B, C.
	var cart [3]float64
	for i := 0; i < 3; i++ {
		cart[i] = frac[0]*lat.A[i] + frac[1]*lat.B[i] + frac[2]*lat.C[i]
	}
	return cart[0]*cart[0] + cart[1]*cart[1] + cart[2]*cart[2]
}

// CheckOverlap reports whether every pair of atoms in c is separated by more
// than the grid's collision threshold for their species pair. O(n^2); no
// neighbor-list optimization is specified (spec §4.1).
func CheckOverlap(c *species.Cluster, g *grid.InteractionGrid) (bool, error) {
	n := len(c.Atoms)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			thresh, err := g.CollisionSq(c.Atoms[i].SpeciesIndex, c.Atoms[j].SpeciesIndex)
			if err != nil {
				return false, err
			}
			d := DistanceSq(c.Atoms[i].Position, c.Atoms[j].Position, c.Lattice)
			if d <= thresh {
				return false, nil
			}
		}
	}
	return true, nil
}

// WrapOrCenter normalizes c's geometry in place without reordering atoms: if a
// lattice is present, every atom's fractional position is reduced to [0, 1)
// via Euclidean remainder; otherwise the atom cloud's geometric centroid is
// shifted to the origin. Idempotent: applying it twice yields the same
// coordinates (spec §8).
func WrapOrCenter(c *species.Cluster) {
	if c.Lattice == nil {
		centerAtOrigin(c)
		return
	}
	wrapFractional(c)
}

func centerAtOrigin(c *species.Cluster) {
	n := len(c.Atoms)
	if n == 0 {
		return
	}
	var centroid [3]float64
	for _, a := range c.Atoms {
		centroid[0] += a.Position[0]
		centroid[1] += a.Position[1]
		centroid[2] += a.Position[2]
	}
	centroid[0] /= float64(n)
	centroid[1] /= float64(n)
	centroid[2] /= float64(n)
	for i := range c.Atoms {
		c.Atoms[i].Position[0] -= centroid[0]
		c.Atoms[i].Position[1] -= centroid[1]
		c.Atoms[i].Position[2] -= centroid[2]
	}
}

func wrapFractional(c *species.Cluster) {
	lat := c.Lattice
	for i, a := range c.Atoms {
		var frac [3]float64
		for k := 0; k < 3; k++ {
			frac[k] = lat.Inv[k][0]*a.Position[0] + lat.Inv[k][1]*a.Position[1] + lat.Inv[k][2]*a.Position[2]
		}
		for k := 0; k < 3; k++ {
			frac[k] = euclideanMod1(frac[k])
		}
		var cart [3]float64
		for k := 0; k < 3; k++ {
			cart[k] = frac[0]*lat.A[k] + frac[1]*lat.B[k] + frac[2]*lat.C[k]
		}
		c.Atoms[i].Position = cart
	}
}

// euclideanMod1 reduces x into [0, 1) using Euclidean remainder (always
// non-negative, unlike Go's math.Mod for negative x).
func euclideanMod1(x float64) float64 {
	m := math.Mod(x, 1.0)
	if m < 0 {
		m += 1.0
	}
	return m
}

// InvertLattice computes Lat.Inv from the column vectors A, B, C, used when
// constructing a Lattice from raw vectors (e.g. a cubic cell of edge L).
func InvertLattice(lat *species.Lattice) {
	a, b, c := lat.A, lat.B, lat.C
	// Matrix M has columns a,b,c; compute det(M) and adj(M)/det to get M^-1.
	det := a[0]*(b[1]*c[2]-b[2]*c[1]) -
		a[1]*(b[0]*c[2]-b[2]*c[0]) +
		a[2]*(b[0]*c[1]-b[1]*c[0])
	if det == 0 {
		lat.Inv = [3][3]float64{}
		return
	}
	inv := 1.0 / det
	lat.Inv = [3][3]float64{
		{
			(b[1]*c[2] - b[2]*c[1]) * inv,
			(b[2]*c[0] - b[0]*c[2]) * inv,
			(b[0]*c[1] - b[1]*c[0]) * inv,
		},
		{
			(a[2]*c[1] - a[1]*c[2]) * inv,
			(a[0]*c[2] - a[2]*c[0]) * inv,
			(a[1]*c[0] - a[0]*c[1]) * inv,
		},
		{
			(a[1]*b[2] - a[2]*b[1]) * inv,
			(a[2]*b[0] - a[0]*b[2]) * inv,
			(a[0]*b[1] - a[1]*b[0]) * inv,
		},
	}
}

// NewCubicLattice builds a cubic Lattice of edge length L with the inverse
// precomputed, a convenience used by tests and by callers that don't hand-roll
// general triclinic cells.
func NewCubicLattice(l float64) *species.Lattice {
	lat := &species.Lattice{
		A: [3]float64{l, 0, 0},
		B: [3]float64{0, l, 0},
		C: [3]float64{0, 0, l},
	}
	InvertLattice(lat)
	return lat
}
