package bh_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clustermin/clustermin/bh"
	"github.com/clustermin/clustermin/evaluator"
	"github.com/clustermin/clustermin/event"
	"github.com/clustermin/clustermin/grid"
	"github.com/clustermin/clustermin/species"
)

func smokeParams() species.Parameters {
	p := species.DefaultParameters()
	p.Algorithm = "bh"
	p.Seed = 11
	p.Workers = 1
	p.SpeciesTable = []species.Species{{Symbol: "Ar", CovalentRadius: 0.5}}
	p.AtomCounts = []int{5}
	p.BoxHalfExtent = 4.0
	p.CovalentScale = 0.5
	p.BHSteps = 30
	p.BHStepSize = 0.3
	p.BHTemperatureK = 300
	return p
}

func initialCluster(p species.Parameters) *species.Cluster {
	return &species.Cluster{
		ID: species.NewID(),
		Atoms: []species.Atom{
			{SpeciesIndex: 0, Position: [3]float64{0, 0, 0}},
			{SpeciesIndex: 0, Position: [3]float64{1, 0, 0}},
			{SpeciesIndex: 0, Position: [3]float64{0, 1, 0}},
			{SpeciesIndex: 0, Position: [3]float64{0, 0, 1}},
			{SpeciesIndex: 0, Position: [3]float64{1, 1, 1}},
		},
	}
}

func TestWalkerRunBestNeverWorseThanWalker(t *testing.T) {
	p := smokeParams()
	require.NoError(t, p.Validate())

	g, err := grid.New(p.SpeciesTable, p.CovalentScale)
	require.NoError(t, err)

	bus := event.NewBus(4096)
	w := bh.NewWalker(p, g, evaluator.NewMock(), bus)

	walker, best, err := w.Run(context.Background(), initialCluster(p))
	require.NoError(t, err)
	require.NotNil(t, walker.Energy)
	require.NotNil(t, best.Energy)
	require.LessOrEqual(t, *best.Energy, *walker.Energy)
}

func TestWalkerQuenchNeverAcceptsUphill(t *testing.T) {
	p := smokeParams()
	p.BHTemperatureK = 0 // <= QuenchTemperature: pure quench
	require.NoError(t, p.Validate())

	g, err := grid.New(p.SpeciesTable, p.CovalentScale)
	require.NoError(t, err)

	bus := event.NewBus(4096)
	w := bh.NewWalker(p, g, evaluator.NewMock(), bus)

	walker, best, err := w.Run(context.Background(), initialCluster(p))
	require.NoError(t, err)
	require.InDelta(t, *best.Energy, *walker.Energy, 1e-12)
}

func TestWalkerZeroStepsFinishesImmediately(t *testing.T) {
	p := smokeParams()
	p.BHSteps = 0
	require.NoError(t, p.Validate())

	g, err := grid.New(p.SpeciesTable, p.CovalentScale)
	require.NoError(t, err)

	bus := event.NewBus(16)
	w := bh.NewWalker(p, g, evaluator.NewMock(), bus)

	walker, best, err := w.Run(context.Background(), initialCluster(p))
	require.NoError(t, err)
	require.Nil(t, walker.Energy)
	require.Nil(t, best.Energy)
	bus.Close()

	var kinds []event.Kind
	for ev := range bus.Events() {
		kinds = append(kinds, ev.Kind)
	}
	require.Equal(t, []event.Kind{event.Log, event.Finished}, kinds)
}

func TestWalkerEmitsFinishedLast(t *testing.T) {
	p := smokeParams()
	p.BHSteps = 3
	require.NoError(t, p.Validate())

	g, err := grid.New(p.SpeciesTable, p.CovalentScale)
	require.NoError(t, err)

	bus := event.NewBus(4096)
	w := bh.NewWalker(p, g, evaluator.NewMock(), bus)

	_, _, err = w.Run(context.Background(), initialCluster(p))
	require.NoError(t, err)
	bus.Close()

	var last event.Event
	sawFinished := false
	for ev := range bus.Events() {
		last = ev
		if ev.Kind == event.Finished {
			sawFinished = true
		}
	}
	require.True(t, sawFinished)
	require.Equal(t, event.Finished, last.Kind)
}
