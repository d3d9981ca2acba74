package species_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clustermin/clustermin/species"
)

func TestCloneIsIndependent(t *testing.T) {
	e := -1.5
	v := [3]float64{1, 2, 3}
	c := &species.Cluster{
		ID:     "abcd1234",
		Atoms:  []species.Atom{{SpeciesIndex: 0, Position: [3]float64{0, 0, 0}, Velocity: &v}},
		Energy: &e,
	}
	clone := c.Clone()
	clone.Atoms[0].Position[0] = 99
	*clone.Energy = 42
	clone.Atoms[0].Velocity[1] = 7

	require.Equal(t, 0.0, c.Atoms[0].Position[0])
	require.Equal(t, -1.5, *c.Energy)
	require.Equal(t, 2.0, c.Atoms[0].Velocity[1])
}

func TestSpeciesCounts(t *testing.T) {
	c := &species.Cluster{Atoms: []species.Atom{
		{SpeciesIndex: 0}, {SpeciesIndex: 0}, {SpeciesIndex: 1},
	}}
	require.Equal(t, []int{2, 1}, c.SpeciesCounts(2))
}

func TestEnergyLessTreatsNilAsInfinite(t *testing.T) {
	lo, hi := -1.0, 5.0
	a := &species.Cluster{Energy: &lo}
	b := &species.Cluster{Energy: &hi}
	unevaluated := &species.Cluster{}

	require.True(t, species.EnergyLess(a, b))
	require.False(t, species.EnergyLess(b, a))
	require.True(t, species.EnergyLess(a, unevaluated))
	require.False(t, species.EnergyLess(unevaluated, a))
	require.False(t, species.EnergyLess(unevaluated, unevaluated))
}

func TestNewBornClusterStartsUnevaluated(t *testing.T) {
	c := species.NewBornCluster(nil, nil, 3, "Random")
	require.Equal(t, species.Born, c.Status)
	require.Nil(t, c.Energy)
	require.Empty(t, c.Fingerprint)
	require.Equal(t, 3, c.Generation)
	require.NotEmpty(t, c.ID)
}

func TestShortID(t *testing.T) {
	require.Equal(t, "abcd", species.ShortID("abcdefgh"))
	require.Equal(t, "ab", species.ShortID("ab"))
}
