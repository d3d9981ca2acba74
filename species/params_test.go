package species_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clustermin/clustermin/species"
)

func validParams() species.Parameters {
	p := species.DefaultParameters()
	p.SpeciesTable = []species.Species{{Symbol: "Na", CovalentRadius: 1.0}, {Symbol: "Cl", CovalentRadius: 1.0}}
	p.AtomCounts = []int{2, 2}
	return p
}

func TestValidateAcceptsWellFormedParams(t *testing.T) {
	p := validParams()
	require.NoError(t, p.Validate())
}

func TestValidateRejectsEmptySpeciesTable(t *testing.T) {
	p := validParams()
	p.SpeciesTable = nil
	require.ErrorIs(t, p.Validate(), species.ErrEmptySpeciesTable)
}

func TestValidateRejectsAtomCountsMismatch(t *testing.T) {
	p := validParams()
	p.AtomCounts = []int{2}
	require.ErrorIs(t, p.Validate(), species.ErrAtomCountsMismatch)
}

func TestValidateRejectsNegativeCount(t *testing.T) {
	p := validParams()
	p.AtomCounts = []int{-1, 2}
	require.ErrorIs(t, p.Validate(), species.ErrNegativeCount)
}

func TestValidateRejectsZeroAtoms(t *testing.T) {
	p := validParams()
	p.AtomCounts = []int{0, 0}
	require.ErrorIs(t, p.Validate(), species.ErrNoAtoms)
}

func TestValidateRejectsElitismExceedingPopulation(t *testing.T) {
	p := validParams()
	p.PopulationSize = 5
	p.ElitismCount = 10
	require.ErrorIs(t, p.Validate(), species.ErrElitismExceedsPopulation)
}

func TestValidateRejectsInvalidScale(t *testing.T) {
	p := validParams()
	p.CovalentScale = 0
	require.ErrorIs(t, p.Validate(), species.ErrInvalidScale)
	p.CovalentScale = 3
	require.ErrorIs(t, p.Validate(), species.ErrInvalidScale)
}

func TestValidateAllowsZeroBHSteps(t *testing.T) {
	p := validParams()
	p.Algorithm = "bh"
	p.BHSteps = 0
	require.NoError(t, p.Validate())
}

func TestValidateRejectsNegativeBHSteps(t *testing.T) {
	p := validParams()
	p.Algorithm = "bh"
	p.BHSteps = -1
	require.ErrorIs(t, p.Validate(), species.ErrInvalidBHSteps)
}

func TestTotalAtomsAndNumSpecies(t *testing.T) {
	p := validParams()
	require.Equal(t, 2, p.NumSpecies())
	require.Equal(t, 4, p.TotalAtoms())
}
