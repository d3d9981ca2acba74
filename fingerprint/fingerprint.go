// Package fingerprint computes the isomer-identity string used for
// deduplication and hall-of-fame maintenance: a graph spectrum (sorted
// eigenvalues of the bonding adjacency matrix) combined with the principal
// moments of inertia (sorted eigenvalues of the unit-mass inertia tensor).
// Both reduce to the same small numerical primitive, linalg.Eigen on a
// symmetric matrix, adapted from lvlath/matrix/ops/eigen.go, and the adjacency
// construction mirrors examples/matrix_spectral_analysis.go's use of an
// adjacency matrix as the input to spectral analysis.
package fingerprint

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/clustermin/clustermin/linalg"
	"github.com/clustermin/clustermin/spatial"
	"github.com/clustermin/clustermin/species"
)

// DefaultBondCutoff is the nominal bonding distance cutoff in Angstrom (spec §4.3).
const DefaultBondCutoff = 1.5

// Degenerate fingerprint sentinels (spec §4.3). Any fingerprint equal to
// "INVALID_RADIUS" or containing "NAN" is treated as unique and is never
// deduplicated.
const (
	Empty          = "EMPTY"
	InvalidRadius  = "INVALID_RADIUS"
	NaNCoordinates = "NAN_COORDS"
)

// Compute returns the composite isomer-identity string for c at the given
// bonding cutoff (Angstrom). Degenerate cases return the sentinels above
// instead of a "GS:[...]|PMOI:[...]" string.
func Compute(c *species.Cluster, cutoff float64) string {
	n := len(c.Atoms)
	if n == 0 {
		return Empty
	}
	if cutoff <= 0 {
		return InvalidRadius
	}
	for _, a := range c.Atoms {
		for _, v := range a.Position {
			if math.IsNaN(v) {
				return NaNCoordinates
			}
		}
	}

	gs, err := graphSpectrum(c, cutoff)
	if err != nil {
		// A non-converging eigendecomposition on a tiny bonding matrix is not
		// expected in practice (n is small and the matrix is 0/1 symmetric),
		// but if it ever happens, treat it the same as NaN coordinates: a
		// descriptor that must never be silently deduplicated against another.
		return NaNCoordinates
	}
	pmoi := principalMoments(c)

	var b strings.Builder
	b.WriteString("GS:[")
	for i, e := range gs {
		if i > 0 {
			b.WriteString(";")
		}
		fmt.Fprintf(&b, "%.3f", e)
	}
	b.WriteString("]|PMOI:[")
	for i, e := range pmoi {
		if i > 0 {
			b.WriteString(";")
		}
		fmt.Fprintf(&b, "%.2f", e)
	}
	b.WriteString("]")
	return b.String()
}

// IsDegenerate reports whether fp is one of the sentinel forms that must
// never be deduplicated against anything else (spec §4.3): containing "NAN",
// or equal to InvalidRadius.
func IsDegenerate(fp string) bool {
	return strings.Contains(fp, "NAN") || fp == InvalidRadius
}

// bondAdjacency builds the n x n bonding adjacency matrix: A[i][j] = 1 iff
// the (possibly periodic) distance between atoms i and j is below cutoff,
// and 0 on the diagonal.
func bondAdjacency(c *species.Cluster, cutoff float64) (*linalg.Dense, error) {
	n := len(c.Atoms)
	m, err := linalg.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	cutoffSq := cutoff * cutoff
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := spatial.DistanceSq(c.Atoms[i].Position, c.Atoms[j].Position, c.Lattice)
			if d < cutoffSq {
				_ = m.Set(i, j, 1)
				_ = m.Set(j, i, 1)
			}
		}
	}
	return m, nil
}

// graphSpectrum returns the sorted-descending eigenvalues of the bonding
// adjacency matrix: a permutation invariant of the bond graph (spec §4.3).
func graphSpectrum(c *species.Cluster, cutoff float64) ([]float64, error) {
	n := len(c.Atoms)
	if n == 1 {
		return []float64{0}, nil
	}
	m, err := bondAdjacency(c, cutoff)
	if err != nil {
		return nil, err
	}
	vals, _, err := linalg.Eigen(m, linalg.DefaultEigenTol, linalg.DefaultEigenMaxIter)
	if err != nil {
		return nil, err
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(vals)))
	return vals, nil
}

// principalMoments returns the sorted-ascending eigenvalues of the unit-mass
// inertia tensor: a shape-only descriptor distinguishing sphere/rod/disc
// morphologies the bond spectrum alone cannot (spec §4.3).
func principalMoments(c *species.Cluster) []float64 {
	centroid := centroidOf(c)
	var ixx, iyy, izz, ixy, ixz, iyz float64
	for _, a := range c.Atoms {
		x := a.Position[0] - centroid[0]
		y := a.Position[1] - centroid[1]
		z := a.Position[2] - centroid[2]
		ixx += y*y + z*z
		iyy += x*x + z*z
		izz += x*x + y*y
		ixy -= x * y
		ixz -= x * z
		iyz -= y * z
	}
	m, _ := linalg.NewDense(3, 3)
	_ = m.Set(0, 0, ixx)
	_ = m.Set(1, 1, iyy)
	_ = m.Set(2, 2, izz)
	_ = m.Set(0, 1, ixy)
	_ = m.Set(1, 0, ixy)
	_ = m.Set(0, 2, ixz)
	_ = m.Set(2, 0, ixz)
	_ = m.Set(1, 2, iyz)
	_ = m.Set(2, 1, iyz)

	vals, _, err := linalg.Eigen(m, linalg.DefaultEigenTol, linalg.DefaultEigenMaxIter)
	if err != nil {
		// A 3x3 real symmetric tensor always converges in practice; fall back
		// to the diagonal (axis-aligned approximation) rather than panic.
		vals = []float64{ixx, iyy, izz}
	}
	sort.Float64s(vals)
	return vals
}

func centroidOf(c *species.Cluster) [3]float64 {
	var centroid [3]float64
	n := float64(len(c.Atoms))
	for _, a := range c.Atoms {
		centroid[0] += a.Position[0]
		centroid[1] += a.Position[1]
		centroid[2] += a.Position[2]
	}
	centroid[0] /= n
	centroid[1] /= n
	centroid[2] /= n
	return centroid
}

// IsDuplicate implements the duplicate predicate of spec §4.3: two clusters
// are duplicates iff both have energy, their energies differ by at most tol,
// both have valid (non-degenerate) fingerprints, and the fingerprints match.
func IsDuplicate(a, b *species.Cluster, tol float64) bool {
	if a.Energy == nil || b.Energy == nil {
		return false
	}
	if math.Abs(*a.Energy-*b.Energy) > tol {
		return false
	}
	if a.Fingerprint == "" || b.Fingerprint == "" {
		return false
	}
	if IsDegenerate(a.Fingerprint) || IsDegenerate(b.Fingerprint) {
		return false
	}
	return a.Fingerprint == b.Fingerprint
}
