// Package bh implements the basin-hopping solver: a single Metropolis walker
// over locally relaxed minima (spec §4.6), grounded on lvlath/tsp's
// single-state local-search solver shape, generalized from 2-opt tour moves
// to geometric cluster trial moves accepted via a physical temperature
// instead of a pure-improvement criterion.
package bh

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/clustermin/clustermin/dispatch"
	"github.com/clustermin/clustermin/evaluator"
	"github.com/clustermin/clustermin/event"
	"github.com/clustermin/clustermin/grid"
	"github.com/clustermin/clustermin/operators"
	"github.com/clustermin/clustermin/rngstream"
	"github.com/clustermin/clustermin/spatial"
	"github.com/clustermin/clustermin/species"
)

// BoltzmannConstant is k_B in eV/K (spec §4.6).
const BoltzmannConstant = 8.617333262e-5

// QuenchTemperature is the threshold below which acceptance is a pure quench
// (never uphill), per spec §4.6.
const QuenchTemperature = 1e-9

// trialRotation is the fixed rotation magnitude applied to every trial move,
// alongside the configured translation step size (spec §4.6 step 1).
const trialRotation = 0.2

// Walker runs the basin-hopping loop over one initial cluster.
type Walker struct {
	params species.Parameters
	grid   *grid.InteractionGrid
	disp   *dispatch.Dispatcher
	bus    *event.Bus
	log    *zap.Logger

	accepted int
	trials   int
}

// Option configures a Walker at construction time.
type Option func(*Walker)

// WithLogger attaches a zap logger; the default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Walker) { w.log = log }
}

// NewWalker constructs a Walker.
func NewWalker(params species.Parameters, g *grid.InteractionGrid, eval evaluator.Evaluator, bus *event.Bus, opts ...Option) *Walker {
	w := &Walker{params: params, grid: g, bus: bus, log: zap.NewNop()}
	for _, opt := range opts {
		opt(w)
	}
	w.disp = dispatch.New(eval, params.Workers, w.log)
	return w
}

// AcceptanceRate returns the fraction of trial moves accepted so far, a
// supplemented run statistic not named by the core per-step algorithm but
// useful for tuning step_size/temperature (0 if no trials have run yet).
func (w *Walker) AcceptanceRate() float64 {
	if w.trials == 0 {
		return 0
	}
	return float64(w.accepted) / float64(w.trials)
}

// Run executes bh_steps basin-hopping steps starting from init (which may or
// may not already have an energy) and returns the final walker state and the
// best cluster ever seen.
func (w *Walker) Run(ctx context.Context, init *species.Cluster) (walker *species.Cluster, best *species.Cluster, err error) {
	if w.params.BHSteps == 0 {
		w.bus.Send(event.Event{Kind: event.Log, Message: "bh_steps is 0: nothing to do"})
		w.bus.Send(event.Event{Kind: event.Finished, Reason: "bh_steps is 0"})
		return init, init, nil
	}

	rng := rngstream.New(w.params.Seed)

	walker = init.Clone()
	if walker.Energy == nil {
		o := w.disp.EvaluateOne(ctx, walker)
		if o.Err != nil {
			return nil, nil, fmt.Errorf("bh.Walker.Run: initial evaluation: %w", o.Err)
		}
		adopt(walker, o.Result)
	}
	best = walker.Clone()
	w.bus.Send(event.Event{Kind: event.NewBest, Best: best})

	start := time.Now()
	for i := 1; i <= w.params.BHSteps; i++ {
		if err := ctx.Err(); err != nil {
			w.bus.Send(event.Event{Kind: event.Finished, Reason: "context cancelled"})
			return walker, best, err
		}
		w.step(ctx, walker, &best, rng)
		w.emitStepUpdate(i, walker)
	}

	var opsPerSecond float64
	if secs := time.Since(start).Seconds(); secs > 0 {
		opsPerSecond = float64(w.trials) / secs
	}
	w.bus.Send(event.Event{Kind: event.WorkerHeartbeat, OpsPerSecond: opsPerSecond})
	w.bus.Send(event.Event{Kind: event.Finished, Reason: "bh_steps reached"})
	return walker, best, nil
}

// step runs one basin-hopping trial: produce a trial move, reject on
// overlap, evaluate, and apply the Metropolis acceptance rule.
func (w *Walker) step(ctx context.Context, walker *species.Cluster, best **species.Cluster, rng *rand.Rand) {
	w.trials++

	trial := operators.NewMutator().Translate(w.params.BHStepSize).Rotate(trialRotation).Apply(walker, rng)

	ok, err := spatial.CheckOverlap(trial, w.grid)
	if err != nil || !ok {
		return
	}

	o := w.disp.EvaluateOne(ctx, trial)
	if o.Err != nil {
		return
	}
	adopt(trial, o.Result)

	if w.metropolisAccept(*walker.Energy, *trial.Energy, rng) {
		w.accepted++
		*walker = *trial
		if *trial.Energy < *(*best).Energy {
			*best = trial.Clone()
			w.bus.Send(event.Event{Kind: event.NewBest, Best: *best})
		}
	}
}

// metropolisAccept implements spec §4.6 step 4.
func (w *Walker) metropolisAccept(oldE, newE float64, rng *rand.Rand) bool {
	if newE < oldE {
		return true
	}
	if w.params.BHTemperatureK <= QuenchTemperature {
		return false
	}
	p := math.Exp(-(newE - oldE) / (BoltzmannConstant * w.params.BHTemperatureK))
	return rng.Float64() < p
}

// emitStepUpdate reports the walker as a population of size one: best, avg
// and worst all equal the walker's current energy (spec §4.6 step 6).
func (w *Walker) emitStepUpdate(step int, walker *species.Cluster) {
	var e float64
	if walker.Energy != nil {
		e = *walker.Energy
	}
	best, avg, worst := e, e, e
	w.bus.Send(event.Event{
		Kind:           event.GenerationUpdate,
		Generation:     step,
		PopulationSize: 1,
		ValidCount:     1,
		Diversity:      1.0,
		MutationRate:   0.0,
		BestEnergy:     &best,
		AvgEnergy:      &avg,
		WorstEnergy:    &worst,
	})
}

// adopt copies the evaluator's result onto c: relaxed geometry (if
// atom-count matches), lattice, energy, gradient norm, then re-centers/wraps.
func adopt(c *species.Cluster, res evaluator.Result) {
	if res.Relaxed != nil && len(res.Relaxed.Atoms) == len(c.Atoms) {
		c.Atoms = res.Relaxed.Atoms
		if res.Relaxed.Lattice != nil {
			c.Lattice = res.Relaxed.Lattice
		}
	}
	e := res.Energy
	c.Energy = &e
	c.GradNorm = res.GradientNorm
	spatial.WrapOrCenter(c)
	c.Status = species.Evaluated
}
