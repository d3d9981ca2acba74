// Package ga implements the genetic-algorithm solver: adaptive-diversity
// evolution over a population of clusters (spec §4.5), grounded on
// lvlath/tsp's solver-with-options shape (a struct built via functional
// options, driven by a Solve-style entry point) generalized from a single
// tour-improvement loop to a full generational loop with parallel evaluation.
package ga

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clustermin/clustermin/dispatch"
	"github.com/clustermin/clustermin/evaluator"
	"github.com/clustermin/clustermin/event"
	"github.com/clustermin/clustermin/fingerprint"
	"github.com/clustermin/clustermin/grid"
	"github.com/clustermin/clustermin/operators"
	"github.com/clustermin/clustermin/rngstream"
	"github.com/clustermin/clustermin/spatial"
	"github.com/clustermin/clustermin/spawn"
	"github.com/clustermin/clustermin/species"
)

// Tuning constants named directly by spec §4.5.
const (
	initAttemptsPerIndividual    = 50
	refillAttemptsPerIndividual  = 100
	improvementThreshold         = 1e-5
	stagnationMassExtinction     = 50
	stagnationGenFloor           = 20
	diversityFloor               = 0.1
	hyperMutationStagnation      = 20
	hyperMutationRate            = 0.5
	massExtinctionCooldown       = 50
	fingerprintTolerance         = 1e-4
	breedingRotation             = 0.5
	breedingRattleBase           = 0.1
	breedingRattleStagnated      = 0.3
	breedingSwapCount            = 1
	breedingBreathe              = 0.05
	breedingBreatheChance        = 0.20
	heavyMutantRotation          = math.Pi
	heavyMutantTwist             = 0.5
	heavyMutantRattle            = 0.2
)

// Solver runs the GA loop described by spec §4.5 over one Parameters value.
type Solver struct {
	params species.Parameters
	grid   *grid.InteractionGrid
	disp   *dispatch.Dispatcher
	bus    *event.Bus
	log    *zap.Logger
	cutoff float64
}

// Option configures a Solver at construction time.
type Option func(*Solver)

// WithLogger attaches a zap logger; the default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Solver) { s.log = log }
}

// WithBondCutoff overrides the fingerprinting bond cutoff (default
// fingerprint.DefaultBondCutoff).
func WithBondCutoff(cutoff float64) Option {
	return func(s *Solver) { s.cutoff = cutoff }
}

// NewSolver constructs a Solver. g must have been built from
// params.SpeciesTable with params.CovalentScale.
func NewSolver(params species.Parameters, g *grid.InteractionGrid, eval evaluator.Evaluator, bus *event.Bus, opts ...Option) *Solver {
	s := &Solver{
		params: params,
		grid:   g,
		bus:    bus,
		log:    zap.NewNop(),
		cutoff: fingerprint.DefaultBondCutoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.disp = dispatch.New(eval, params.Workers, s.log)
	return s
}

// runState is the per-run adaptive state named in spec §4.5: "population,
// stagnation counter, extinction cooldown, last global best energy, current
// mutation rate".
type runState struct {
	population     []*species.Cluster
	stagnation     int
	cooldown       int
	lastBestEnergy *float64
	mutationRate   float64
}

// Run executes the GA loop to completion (max_steps generations, or ctx
// cancellation) and returns the final, energy-ranked population.
func (s *Solver) Run(ctx context.Context) ([]*species.Cluster, error) {
	rng := rngstream.New(s.params.Seed)

	st := &runState{mutationRate: s.params.MutationRate}
	if err := s.initialize(ctx, st, rng); err != nil {
		return nil, fmt.Errorf("ga.Solver.Run: initialize: %w", err)
	}

	for gen := 1; gen <= s.params.MaxSteps; gen++ {
		if err := ctx.Err(); err != nil {
			s.bus.Send(event.Event{Kind: event.Finished, Reason: "context cancelled"})
			return st.population, err
		}
		preDedup := s.stepGeneration(ctx, st, gen, rng)
		s.log.Debug("generation complete", zap.Int("generation", gen), zap.Int("pre_dedup", preDedup))
	}

	s.bus.Send(event.Event{Kind: event.Finished, Reason: "max_steps reached"})
	return st.population, nil
}

// initialize builds the starting population: up to population_size*50 random
// generation attempts, keeping the first population_size successes, then
// evaluates and ranks them.
func (s *Solver) initialize(ctx context.Context, st *runState, rng *rand.Rand) error {
	target := s.params.PopulationSize

	pop := s.parallelGenerate(target, target*initAttemptsPerIndividual, 0, rng.Int63())

	outcomes := s.disp.EvaluateBatch(ctx, pop)
	for _, o := range outcomes {
		s.applyOutcome(o)
	}
	for _, c := range pop {
		if c.Status == species.Evaluated {
			c.Fingerprint = fingerprint.Compute(c, s.cutoff)
		}
	}

	rankByEnergy(pop)
	st.population = pop
	return nil
}

// stepGeneration runs one full generation (breeding through adaptive state
// machine) and returns the pre-dedup candidate count (for diversity/debugging).
func (s *Solver) stepGeneration(ctx context.Context, st *runState, gen int, rng *rand.Rand) int {
	elites := cloneTop(st.population, s.params.ElitismCount)

	bred := s.breed(st, gen, rng)

	evalStart := time.Now()
	outcomes := s.disp.EvaluateBatch(ctx, bred)
	evalSeconds := time.Since(evalStart).Seconds()
	var opsThisGen int
	for _, o := range outcomes {
		s.applyOutcome(o)
		opsThisGen++
	}

	var withEnergy []*species.Cluster
	for _, c := range bred {
		if c.Status == species.Evaluated {
			c.Fingerprint = fingerprint.Compute(c, s.cutoff)
			withEnergy = append(withEnergy, c)
		}
	}

	survivors := dedup(withEnergy, fingerprintTolerance)
	preDedupCount := len(withEnergy)

	var diversity float64
	if preDedupCount > 0 {
		diversity = float64(len(survivors)) / float64(preDedupCount)
	}

	candidatePool := append(append([]*species.Cluster{}, elites...), survivors...)
	candidatePool = s.smartRefill(ctx, candidatePool, gen, rng)

	rankByEnergy(candidatePool)
	st.population = candidatePool

	improved := false
	if best := bestEnergy(st.population); best != nil {
		if st.lastBestEnergy == nil || *st.lastBestEnergy-*best >= improvementThreshold {
			st.lastBestEnergy = best
			st.stagnation = 0
			st.mutationRate = s.params.MutationRate
			improved = true
		}
	}
	if !improved {
		st.stagnation++
	}

	s.adapt(st, gen, diversity, rng, ctx)

	// Event emission is strictly ordered per generation (spec §5):
	// Log(s) -> GenerationUpdate -> NewBest (if any) -> WorkerHeartbeat.
	if improved {
		s.logBestTopology(st.population[0], gen)
	}
	s.emitGenerationStats(st, gen, diversity)
	if improved {
		s.bus.Send(event.Event{Kind: event.NewBest, Best: st.population[0]})
	}
	var opsPerSecond float64
	if evalSeconds > 0 {
		opsPerSecond = float64(opsThisGen) / evalSeconds
	}
	s.bus.Send(event.Event{Kind: event.WorkerHeartbeat, OpsPerSecond: opsPerSecond})

	return preDedupCount
}

// breed fills a slate of population_size candidates via elitism-excluded
// binary-tournament breeding, per spec §4.5 step 2.
func (s *Solver) breed(st *runState, gen int, rng *rand.Rand) []*species.Cluster {
	target := s.params.PopulationSize - s.params.ElitismCount
	if target < 0 {
		target = 0
	}
	out := make([]*species.Cluster, 0, target)

	rattle := breedingRattleBase
	if st.stagnation > hyperMutationStagnation {
		rattle = breedingRattleStagnated
	}

	for len(out) < target {
		p1 := tournamentSelect(st.population, rng)
		p2 := tournamentSelect(st.population, rng)

		var child *species.Cluster
		if rng.Float64() < s.params.CrossoverRate {
			if c, ok := operators.CrossSplice(p1, p2, rng); ok {
				child = c
			} else {
				child = p1.Clone()
			}
		} else {
			child = p1.Clone()
		}

		if rng.Float64() < st.mutationRate {
			mut := operators.NewMutator().Rotate(breedingRotation).Rattle(rattle).Swap(breedingSwapCount)
			if rng.Float64() < breedingBreatheChance {
				mut = mut.Breathe(breedingBreathe)
			}
			child = mut.Apply(child, rng)
		}

		ok, err := spatial.CheckOverlap(child, s.grid)
		if err != nil || !ok {
			continue
		}
		child.Status = species.Born
		child.Generation = gen
		out = append(out, child)
	}
	return out
}

// smartRefill implements spec §4.5 step 7: regenerate from scratch if the
// population collapsed to zero; otherwise top up shortfall with heavy
// mutants cycled best-to-worst (wrapping) over the survivor pool.
func (s *Solver) smartRefill(ctx context.Context, pool []*species.Cluster, gen int, rng *rand.Rand) []*species.Cluster {
	target := s.params.PopulationSize
	if len(pool) == 0 {
		fresh, err := s.generateValidated(ctx, target, rng)
		if err != nil {
			s.log.Warn("smart refill: fresh generation failed", zap.Error(err))
			return pool
		}
		return fresh
	}
	if len(pool) >= target {
		return pool
	}

	rankByEnergy(pool)
	shortfall := target - len(pool)
	mutants := make([]*species.Cluster, 0, shortfall)
	for i := 0; i < shortfall; i++ {
		src := pool[i%len(pool)]
		child := operators.NewMutator().
			Rotate(heavyMutantRotation).
			Twist(heavyMutantTwist).
			Rattle(heavyMutantRattle).
			Apply(src, rng)
		child.Energy = nil
		child.Fingerprint = ""
		child.Status = species.Born
		child.Generation = gen
		mutants = append(mutants, child)
	}

	outcomes := s.disp.EvaluateBatch(ctx, mutants)
	for _, o := range outcomes {
		s.applyOutcome(o)
	}
	for _, c := range mutants {
		if c.Status == species.Evaluated {
			c.Fingerprint = fingerprint.Compute(c, s.cutoff)
		}
	}

	return append(pool, mutants...)
}

// generateValidated produces up to n valid, evaluated, fingerprinted
// clusters via fresh random generation, for the zero-population safety
// fallback.
func (s *Solver) generateValidated(ctx context.Context, n int, rng *rand.Rand) ([]*species.Cluster, error) {
	pop := s.parallelGenerate(n, n*initAttemptsPerIndividual, 0, rng.Int63())
	outcomes := s.disp.EvaluateBatch(ctx, pop)
	for _, o := range outcomes {
		s.applyOutcome(o)
	}
	for _, c := range pop {
		if c.Status == species.Evaluated {
			c.Fingerprint = fingerprint.Compute(c, s.cutoff)
		}
	}
	return pop, nil
}

// parallelGenerate fans random-cluster generation out across s.params.Workers
// goroutines, each sampling from its own stream derived via rngstream.Derive
// (spec §5: "refill and evaluation parallel workers each sample their own
// generator") rather than sharing one *rand.Rand, which is not
// goroutine-safe. It stops once target valid clusters have been produced or
// maxAttempts generation attempts have been made across all workers.
func (s *Solver) parallelGenerate(target, maxAttempts, gen int, seed int64) []*species.Cluster {
	workers := s.params.Workers
	if workers <= 0 {
		workers = 1
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		pop      []*species.Cluster
		count    int
		attempts int
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(streamID uint64) {
			defer wg.Done()
			wr := rngstream.Derive(seed, streamID)
			for {
				mu.Lock()
				if count >= target || attempts >= maxAttempts {
					mu.Unlock()
					return
				}
				attempts++
				mu.Unlock()

				c, err := spawn.Random(s.params, s.grid, nil, gen, wr)
				if err != nil {
					continue
				}

				mu.Lock()
				if count < target {
					pop = append(pop, c)
					count++
				}
				mu.Unlock()
			}
		}(uint64(w))
	}
	wg.Wait()

	return pop
}

// adapt runs the adaptive state machine of spec §4.5 step 9.
func (s *Solver) adapt(st *runState, gen int, diversity float64, rng *rand.Rand, ctx context.Context) {
	switch {
	case st.cooldown > 0:
		st.cooldown--
	case st.stagnation > stagnationMassExtinction ||
		(gen > stagnationGenFloor && st.stagnation > hyperMutationStagnation && diversity < diversityFloor):
		s.massExtinction(ctx, st, gen, rng)
		st.cooldown = massExtinctionCooldown
		st.mutationRate = s.params.MutationRate
	case st.stagnation > hyperMutationStagnation && st.mutationRate < hyperMutationRate:
		st.mutationRate = hyperMutationRate
	}
}

// massExtinction truncates the population to its top elitism_count members
// and serially refills it with fresh random individuals, making up to
// population_size*100 generation attempts in total (spec §4.5 step 9, Open
// Question 3: mass-extinction refill is serial while normal refill is
// parallel — preserved as-is). The result is re-ranked by energy.
func (s *Solver) massExtinction(ctx context.Context, st *runState, gen int, rng *rand.Rand) {
	rankByEnergy(st.population)
	kept := cloneTop(st.population, s.params.ElitismCount)

	target := s.params.PopulationSize
	budget := target * refillAttemptsPerIndividual
	for attempt := 0; attempt < budget && len(kept) < target; attempt++ {
		c, err := spawn.Random(s.params, s.grid, nil, gen, rng)
		if err != nil {
			continue
		}
		o := s.disp.EvaluateOne(ctx, c)
		s.applyOutcome(o)
		if c.Status == species.Evaluated {
			c.Fingerprint = fingerprint.Compute(c, s.cutoff)
			kept = append(kept, c)
		}
	}
	rankByEnergy(kept)
	st.population = kept
}

// logBestTopology emits an optional Log event reporting the bonding-graph
// connectivity of a new best cluster (SPEC_FULL §2's diagnostic use of
// BondGraphComponents). A component count above 1 means the new best is
// fragmented rather than a single bonded cluster — worth a log line, not a
// reason to discard it.
func (s *Solver) logBestTopology(best *species.Cluster, gen int) {
	components, err := fingerprint.BondGraphComponents(best, s.cutoff)
	if err != nil {
		return
	}
	s.log.Debug("new best topology", zap.Int("generation", gen), zap.Int("bond_components", components))
	s.bus.Send(event.Event{
		Kind:    event.Log,
		Level:   "debug",
		Message: fmt.Sprintf("new best at generation %d has %d bonded component(s)", gen, components),
	})
}

func (s *Solver) emitGenerationStats(st *runState, gen int, diversity float64) {
	var best, worst, sum float64
	valid := 0
	for _, c := range st.population {
		if c.Energy == nil {
			continue
		}
		e := *c.Energy
		if valid == 0 || e < best {
			best = e
		}
		if valid == 0 || e > worst {
			worst = e
		}
		sum += e
		valid++
	}

	var bestPtr, worstPtr, avgPtr *float64
	if valid > 0 {
		b, w, avg := best, worst, sum/float64(valid)
		bestPtr, worstPtr, avgPtr = &b, &w, &avg
	}

	s.bus.Send(event.Event{
		Kind:           event.GenerationUpdate,
		Generation:     gen,
		PopulationSize: len(st.population),
		ValidCount:     valid,
		Diversity:      diversity,
		MutationRate:   st.mutationRate,
		BestEnergy:     bestPtr,
		AvgEnergy:      avgPtr,
		WorstEnergy:    worstPtr,
	})
}

func (s *Solver) applyOutcome(o dispatch.Outcome) {
	c := o.Cluster
	if o.Err != nil {
		c.Status = species.Discarded
		c.Energy = nil
		return
	}
	res := o.Result
	if res.Relaxed != nil {
		if len(res.Relaxed.Atoms) != len(c.Atoms) {
			c.Status = species.Discarded
			c.Energy = nil
			return
		}
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

func tournamentSelect(pop []*species.Cluster, rng *rand.Rand) *species.Cluster {
	a := pop[rng.Intn(len(pop))]
	b := pop[rng.Intn(len(pop))]
	if species.EnergyLess(b, a) {
		return b
	}
	return a
}

func dedup(in []*species.Cluster, tol float64) []*species.Cluster {
	var seen []*species.Cluster
	for _, c := range in {
		if fingerprint.IsDegenerate(c.Fingerprint) {
			seen = append(seen, c)
			continue
		}
		isDup := false
		for _, s := range seen {
			if fingerprint.IsDuplicate(c, s, tol) {
				isDup = true
				break
			}
		}
		if !isDup {
			seen = append(seen, c)
		}
	}
	return seen
}

// rankByEnergy sorts pop ascending by energy, with unevaluated (nil-energy)
// clusters sorted to the tail (spec §4.5: "Nones at the tail").
func rankByEnergy(pop []*species.Cluster) {
	sort.SliceStable(pop, func(i, j int) bool { return species.EnergyLess(pop[i], pop[j]) })
}

func cloneTop(pop []*species.Cluster, n int) []*species.Cluster {
	if n > len(pop) {
		n = len(pop)
	}
	if n < 0 {
		n = 0
	}
	out := make([]*species.Cluster, n)
	for i := 0; i < n; i++ {
		clone := pop[i].Clone()
		clone.Status = species.Elite
		out[i] = clone
	}
	return out
}

func bestEnergy(pop []*species.Cluster) *float64 {
	if len(pop) == 0 || pop[0].Energy == nil {
		return nil
	}
	e := *pop[0].Energy
	return &e
}
