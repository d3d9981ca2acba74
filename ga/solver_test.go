package ga_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clustermin/clustermin/evaluator"
	"github.com/clustermin/clustermin/event"
	"github.com/clustermin/clustermin/ga"
	"github.com/clustermin/clustermin/grid"
	"github.com/clustermin/clustermin/species"
)

func smokeParams() species.Parameters {
	p := species.DefaultParameters()
	p.Algorithm = "ga"
	p.Seed = 7
	p.Workers = 2
	p.SpeciesTable = []species.Species{{Symbol: "Ar", CovalentRadius: 0.5}}
	p.AtomCounts = []int{6}
	p.BoxHalfExtent = 4.0
	p.CovalentScale = 0.5
	p.PopulationSize = 8
	p.ElitismCount = 2
	p.MaxSteps = 5
	return p
}

func TestSolverRunProducesRankedPopulationOfTargetSize(t *testing.T) {
	p := smokeParams()
	require.NoError(t, p.Validate())

	g, err := grid.New(p.SpeciesTable, p.CovalentScale)
	require.NoError(t, err)

	bus := event.NewBus(1024)
	s := ga.NewSolver(p, g, evaluator.NewMock(), bus)

	pop, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, pop, p.PopulationSize)
	require.NotEmpty(t, pop)

	for i := 1; i < len(pop); i++ {
		if pop[i-1].Energy != nil && pop[i].Energy != nil {
			require.LessOrEqual(t, *pop[i-1].Energy, *pop[i].Energy)
		}
	}
}

func TestSolverEmitsFinishedLast(t *testing.T) {
	p := smokeParams()
	p.MaxSteps = 2
	require.NoError(t, p.Validate())

	g, err := grid.New(p.SpeciesTable, p.CovalentScale)
	require.NoError(t, err)

	bus := event.NewBus(4096)
	s := ga.NewSolver(p, g, evaluator.NewMock(), bus)

	_, err = s.Run(context.Background())
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
