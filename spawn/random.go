// Package spawn builds the initial random cluster via random sequential
// adsorption (RSA), grounded on lvlath/builder's impl_random_sparse.go: never
// panic, retry within a fixed budget, and return only sentinel errors.
// Parameters are not validated here; callers validate them beforehand.
package spawn

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/clustermin/clustermin/grid"
	"github.com/clustermin/clustermin/spatial"
	"github.com/clustermin/clustermin/species"
)

// MaxPlacementAttempts is the number of candidate positions tried per atom
// before the whole cluster generation attempt fails (spec §4.2: "up to 100
// candidate positions").
const MaxPlacementAttempts = 100

// ErrPlacementFailed indicates an atom could not be placed within
// MaxPlacementAttempts tries; the caller should retry the whole cluster.
var ErrPlacementFailed = errors.New("spawn: could not place atom within attempt budget")

// Random builds the exact multiset of species indices implied by
// params.AtomCounts, shuffles it to remove species-order bias in the initial
// topology, then places atoms one at a time via random sequential adsorption:
// for each element in shuffled order, sample up to MaxPlacementAttempts
// candidate positions uniformly in [-L, L]^3 and accept the first that does
// not overlap any previously placed atom.
//
// Per spec §4.2 and Open Question 1 (preserved, not redesigned): placement
// always uses Euclidean distance via spatial.DistanceSq(..., nil, ...) even
// when the run has a lattice — a deliberate "0-D generation" policy. The
// lattice (if any) is only attached to the returned cluster afterward.
//
// On success the cloud is centered (spatial.WrapOrCenter) and the cluster is
// returned with Status=Born. On failure (any atom exhausts its attempt
// budget), ErrPlacementFailed is returned and the caller should retry with a
// fresh RNG draw.
func Random(params species.Parameters, g *grid.InteractionGrid, lat *species.Lattice, generation int, rng *rand.Rand) (*species.Cluster, error) {
	indices := multisetIndices(params.AtomCounts)
	rng.Shuffle(len(indices), func(i, j int) { indices[i], indices[j] = indices[j], indices[i] })

	atoms := make([]species.Atom, 0, len(indices))
	l := params.BoxHalfExtent
	for _, spIdx := range indices {
		placed := false
		for attempt := 0; attempt < MaxPlacementAttempts; attempt++ {
			cand := [3]float64{
				(rng.Float64()*2 - 1) * l,
				(rng.Float64()*2 - 1) * l,
				(rng.Float64()*2 - 1) * l,
			}
			if !overlapsAny(cand, spIdx, atoms, g) {
				atoms = append(atoms, species.Atom{SpeciesIndex: spIdx, Position: cand})
				placed = true
				break
			}
		}
		if !placed {
			return nil, fmt.Errorf("spawn.Random: species %d: %w", spIdx, ErrPlacementFailed)
		}
	}

	c := species.NewBornCluster(atoms, lat, generation, "Random")
	spatial.WrapOrCenter(c)
	return c, nil
}

func overlapsAny(cand [3]float64, spIdx int, placed []species.Atom, g *grid.InteractionGrid) bool {
	for _, a := range placed {
		thresh, err := g.CollisionSq(spIdx, a.SpeciesIndex)
		if err != nil {
			// Out-of-range species index: let the caller's higher-level
			// validation surface this; treat as blocking overlap so we
			// never silently admit an invalid placement.
			return true
		}
		if spatial.DistanceSq(cand, a.Position, nil) <= thresh {
			return true
		}
	}
	return false
}

func multisetIndices(counts []int) []int {
	total := 0
	for _, n := range counts {
		total += n
	}
	out := make([]int, 0, total)
	for idx, n := range counts {
		for i := 0; i < n; i++ {
			out = append(out, idx)
		}
	}
	return out
}
