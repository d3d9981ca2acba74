package operators_test

import (
	"math/rand"
	"testing"

	"github.com/clustermin/clustermin/operators"
	"github.com/clustermin/clustermin/species"
	"github.com/stretchr/testify/require"
)

func parentWithCounts(seedBase float64) *species.Cluster {
	// stoichiometry [2,2]: two atoms of species 0, two of species 1.
	return &species.Cluster{
		ID: "parent-id-0000",
		Atoms: []species.Atom{
			{SpeciesIndex: 0, Position: [3]float64{seedBase + 0, 0, 0}},
			{SpeciesIndex: 0, Position: [3]float64{seedBase + 1, 0, 1}},
			{SpeciesIndex: 1, Position: [3]float64{seedBase + 0, 1, 2}},
			{SpeciesIndex: 1, Position: [3]float64{seedBase + 1, 1, 3}},
		},
	}
}

func TestCrossSpliceStoichiometryPreserved(t *testing.T) {
	p1 := parentWithCounts(0)
	p2 := parentWithCounts(10)
	p2.ID = "parent-id-1111"
	rng := rand.New(rand.NewSource(99))

	for i := 0; i < 100; i++ {
		child, ok := operators.CrossSplice(p1, p2, rng)
		require.True(t, ok)
		counts := child.SpeciesCounts(2)
		require.Equal(t, []int{2, 2}, counts, "iteration %d", i)
	}
}

func TestCrossSpliceRejectsUnequalParents(t *testing.T) {
	p1 := parentWithCounts(0)
	p2 := &species.Cluster{Atoms: p1.Atoms[:2]}
	rng := rand.New(rand.NewSource(1))
	_, ok := operators.CrossSplice(p1, p2, rng)
	require.False(t, ok)
}

func TestCrossSpliceOriginTag(t *testing.T) {
	p1 := parentWithCounts(0)
	p2 := parentWithCounts(10)
	p2.ID = "parent-id-1111"
	rng := rand.New(rand.NewSource(5))
	child, ok := operators.CrossSplice(p1, p2, rng)
	require.True(t, ok)
	require.Equal(t, "X(pare,pare)", child.Origin)
}
