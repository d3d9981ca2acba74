package fingerprint_test

import (
	"math"
	"testing"

	"github.com/clustermin/clustermin/fingerprint"
	"github.com/clustermin/clustermin/species"
	"github.com/stretchr/testify/require"
)

func sampleCluster() *species.Cluster {
	e := -1.23
	return &species.Cluster{
		Atoms: []species.Atom{
			{SpeciesIndex: 0, Position: [3]float64{0, 0, 0}},
			{SpeciesIndex: 0, Position: [3]float64{1.0, 0, 0}},
			{SpeciesIndex: 0, Position: [3]float64{0, 1.2, 0}},
			{SpeciesIndex: 0, Position: [3]float64{0.3, 0.3, 1.1}},
		},
		Energy: &e,
	}
}

func TestComputeDegenerateCases(t *testing.T) {
	require.Equal(t, fingerprint.Empty, fingerprint.Compute(&species.Cluster{}, 1.5))

	c := sampleCluster()
	require.Equal(t, fingerprint.InvalidRadius, fingerprint.Compute(c, 0))
	require.Equal(t, fingerprint.InvalidRadius, fingerprint.Compute(c, -1))

	nanCluster := sampleCluster()
	nanCluster.Atoms[0].Position[0] = math.NaN()
	require.Equal(t, fingerprint.NaNCoordinates, fingerprint.Compute(nanCluster, 1.5))
}

func TestComputeInvariantUnderRigidMotion(t *testing.T) {
	c := sampleCluster()
	fp1 := fingerprint.Compute(c, 1.5)
	require.NotEmpty(t, fp1)
	require.False(t, fingerprint.IsDegenerate(fp1))

	rotated := c.Clone()
	axis := [3]float64{0.267, 0.535, 0.802} // arbitrary unit-ish axis
	rotateAll(rotated, axis, math.Pi/3)
	translateAll(rotated, [3]float64{1, 2, 3})

	fp2 := fingerprint.Compute(rotated, 1.5)
	require.Equal(t, fp1, fp2)
}

func TestIsDuplicate(t *testing.T) {
	a := sampleCluster()
	a.Fingerprint = fingerprint.Compute(a, 1.5)
	b := a.Clone()
	b.Fingerprint = a.Fingerprint

	require.True(t, fingerprint.IsDuplicate(a, b, 1e-5))

	ea := *a.Energy + 10
	b.Energy = &ea
	require.False(t, fingerprint.IsDuplicate(a, b, 1e-5))
}

func TestIsDuplicateNeverForDegenerate(t *testing.T) {
	e := 0.0
	a := &species.Cluster{Energy: &e, Fingerprint: fingerprint.NaNCoordinates}
	b := &species.Cluster{Energy: &e, Fingerprint: fingerprint.NaNCoordinates}
	require.False(t, fingerprint.IsDuplicate(a, b, 1e-5))
}

func TestBondGraphComponents(t *testing.T) {
	// Two well-separated dimers: 2 components at a tight cutoff.
	c := &species.Cluster{Atoms: []species.Atom{
		{Position: [3]float64{0, 0, 0}},
		{Position: [3]float64{1.0, 0, 0}},
		{Position: [3]float64{20, 0, 0}},
		{Position: [3]float64{21.0, 0, 0}},
	}}
	n, err := fingerprint.BondGraphComponents(c, 1.5)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func rotateAll(c *species.Cluster, axis [3]float64, angle float64) {
	norm := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	ax := [3]float64{axis[0] / norm, axis[1] / norm, axis[2] / norm}
	cosT, sinT := math.Cos(angle), math.Sin(angle)
	for i, a := range c.Atoms {
		p := a.Position
		// Rodrigues' rotation formula.
		dot := ax[0]*p[0] + ax[1]*p[1] + ax[2]*p[2]
		cross := [3]float64{
			ax[1]*p[2] - ax[2]*p[1],
			ax[2]*p[0] - ax[0]*p[2],
			ax[0]*p[1] - ax[1]*p[0],
		}
		var out [3]float64
		for k := 0; k < 3; k++ {
			out[k] = p[k]*cosT + cross[k]*sinT + ax[k]*dot*(1-cosT)
		}
		c.Atoms[i].Position = out
	}
}

func translateAll(c *species.Cluster, d [3]float64) {
	for i := range c.Atoms {
		c.Atoms[i].Position[0] += d[0]
		c.Atoms[i].Position[1] += d[1]
		c.Atoms[i].Position[2] += d[2]
	}
}
