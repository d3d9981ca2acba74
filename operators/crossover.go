package operators

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/clustermin/clustermin/spatial"
	"github.com/clustermin/clustermin/species"
)

// CrossSplice performs stoichiometry-preserving cut-and-splice crossover
// (spec §4.4):
//
//  1. Requires equal atom counts between p1 and p2; otherwise returns
//     (nil, false).
//  2. Computes target stoichiometry from p1 (p1 is treated as authoritative —
//     Open Question 2, preserved as-is per DESIGN.md).
//  3. Clones both parents' atoms, centers each, and applies an independent
//     random rotation to each.
//  4. Sorts each parent's atoms by z.
//  5. Picks a cut point k in [1, n-1] uniformly; the child is
//     p1Sorted[0:k] ++ p2Sorted[k:n].
//  6. Repairs the child's species composition back to p1's target via
//     alchemy repair (step-by-step below).
//  7. Calls spatial.WrapOrCenter and tags the origin "X(aaaa,bbbb)" using
//     4-char prefixes of the parent IDs.
//
// The child may still fail a later overlap check; CrossSplice itself never
// checks for overlap — that is the caller's responsibility (spec §4.4: "The
// child may still fail check_overlap; the caller discards it").
func CrossSplice(p1, p2 *species.Cluster, rng *rand.Rand) (*species.Cluster, bool) {
	n := len(p1.Atoms)
	if n != len(p2.Atoms) {
		return nil, false
	}
	if n < 2 {
		return nil, false
	}

	target := speciesCounts(p1.Atoms)

	a1 := p1.Clone()
	a2 := p2.Clone()
	spatial.WrapOrCenter(a1)
	spatial.WrapOrCenter(a2)
	rotateRandomAxis(a1, 2*math.Pi, rng)
	rotateRandomAxis(a2, 2*math.Pi, rng)

	sortByZ(a1.Atoms)
	sortByZ(a2.Atoms)

	k := 1 + rng.Intn(n-1) // uniform in [1, n-1]

	child := make([]species.Atom, 0, n)
	child = append(child, a1.Atoms[:k]...)
	child = append(child, a2.Atoms[k:]...)

	alchemyRepair(child, target, rng)

	out := species.NewBornCluster(child, nil, 0, fmt.Sprintf("X(%s,%s)", species.ShortID(p1.ID), species.ShortID(p2.ID)))
	spatial.WrapOrCenter(out)
	return out, true
}

func speciesCounts(atoms []species.Atom) map[int]int {
	counts := make(map[int]int)
	for _, a := range atoms {
		counts[a.SpeciesIndex]++
	}
	return counts
}

func sortByZ(atoms []species.Atom) {
	sort.SliceStable(atoms, func(i, j int) bool { return atoms[i].Position[2] < atoms[j].Position[2] })
}

// alchemyRepair relabels child atoms' species indices in place so the
// resulting per-species counts match target, without moving any positions
// (spec §4.4 step 6: "The repair is purely combinatorial").
//
// It counts species in the child, builds a shuffled deficit list (species
// that are under-represented, each repeated by its multiplicity), then for
// every over-represented species picks random child atoms of that species and
// relabels them by popping from the deficit list until counts match target.
func alchemyRepair(child []species.Atom, target map[int]int, rng *rand.Rand) {
	current := speciesCounts(child)

	// Build the deficit list: species indices under-represented relative to
	// target, each appearing (deficit) times.
	var deficit []int
	speciesIdx := sortedKeys(target, current)
	for _, sp := range speciesIdx {
		want := target[sp]
		have := current[sp]
		if have < want {
			for i := 0; i < want-have; i++ {
				deficit = append(deficit, sp)
			}
		}
	}
	rng.Shuffle(len(deficit), func(i, j int) { deficit[i], deficit[j] = deficit[j], deficit[i] })

	for _, sp := range speciesIdx {
		want := target[sp]
		have := current[sp]
		excess := have - want
		for excess > 0 && len(deficit) > 0 {
			// Pick a random child atom currently labeled sp.
			idx := randomAtomOfSpecies(child, sp, rng)
			if idx < 0 {
				break
			}
			newSp := deficit[len(deficit)-1]
			deficit = deficit[:len(deficit)-1]
			child[idx].SpeciesIndex = newSp
			current[sp]--
			current[newSp]++
			excess--
		}
	}
}

func sortedKeys(a, b map[int]int) []int {
	seen := make(map[int]struct{}, len(a)+len(b))
	for k := range a {
		seen[k] = struct{}{}
	}
	for k := range b {
		seen[k] = struct{}{}
	}
	keys := make([]int, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func randomAtomOfSpecies(atoms []species.Atom, sp int, rng *rand.Rand) int {
	var candidates []int
	for i, a := range atoms {
		if a.SpeciesIndex == sp {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return -1
	}
	return candidates[rng.Intn(len(candidates))]
}
