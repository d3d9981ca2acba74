package grid_test

import (
	"testing"

	"github.com/clustermin/clustermin/grid"
	"github.com/clustermin/clustermin/species"
	"github.com/stretchr/testify/require"
)

func TestCollisionSqMatchesFormula(t *testing.T) {
	table := []species.Species{
		{Symbol: "A", CovalentRadius: 2.0},
		{Symbol: "B", CovalentRadius: 1.0},
	}
	g, err := grid.New(table, 1.0)
	require.NoError(t, err)

	aa, err := g.CollisionSq(0, 0)
	require.NoError(t, err)
	require.InDelta(t, 16.0, aa, 1e-12)

	ab, err := g.CollisionSq(0, 1)
	require.NoError(t, err)
	require.InDelta(t, 9.0, ab, 1e-12)

	bb, err := g.CollisionSq(1, 1)
	require.NoError(t, err)
	require.InDelta(t, 4.0, bb, 1e-12)
}

func TestCollisionSqSymmetric(t *testing.T) {
	table := []species.Species{
		{Symbol: "A", CovalentRadius: 1.3},
		{Symbol: "B", CovalentRadius: 0.7},
	}
	g, err := grid.New(table, 0.7)
	require.NoError(t, err)

	ab, err := g.CollisionSq(0, 1)
	require.NoError(t, err)
	ba, err := g.CollisionSq(1, 0)
	require.NoError(t, err)
	require.Equal(t, ab, ba)
}

func TestNewRejectsInvalidScale(t *testing.T) {
	table := []species.Species{{Symbol: "A", CovalentRadius: 1.0}}
	_, err := grid.New(table, 0)
	require.ErrorIs(t, err, grid.ErrInvalidScale)
	_, err = grid.New(table, 2.5)
	require.ErrorIs(t, err, grid.ErrInvalidScale)
}

func TestCollisionSqOutOfRange(t *testing.T) {
	table := []species.Species{{Symbol: "A", CovalentRadius: 1.0}}
	g, err := grid.New(table, 1.0)
	require.NoError(t, err)
	_, err = g.CollisionSq(0, 5)
	require.ErrorIs(t, err, grid.ErrSpeciesIndexOutOfRange)
}
