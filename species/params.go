package species

import "fmt"

// Parameters configures a single solver run (GA or BH). It is read once at the
// start of a run and never mutated afterward (spec §3: "Immutable once the run
// begins"), mirroring tsp.Options/DefaultOptions in the teacher library.
type Parameters struct {
	// Algorithm selects which solver a caller intends to run ("ga" or "bh").
	// The ga and bh packages don't read this field themselves — it exists so a
	// single Parameters value loaded from config can drive a small dispatcher.
	Algorithm string

	// Seed is the solver-thread RNG seed. Parallel evaluation/refill workers
	// derive independent streams from it (spec §5); reproducibility at the
	// level of a full run is not guaranteed.
	Seed int64

	// Workers bounds the evaluator worker pool size. Workers <= 0 is treated
	// as 1.
	Workers int

	// AtomCounts[i] is the number of atoms of SpeciesTable[i] in every cluster
	// of this run. Stoichiometry must match this vector throughout the solver
	// lifecycle except transiently inside cut-and-splice before repair.
	AtomCounts []int

	// SpeciesTable is the immutable species catalogue atoms index into.
	SpeciesTable []Species

	// BoxHalfExtent bounds initial random placement to [-L, L]^3.
	BoxHalfExtent float64

	// CovalentScale is the global compression factor applied to the sum of
	// covalent radii when building the interaction grid (spec §3, typical
	// 0.5-0.85; validated to lie in (0, 2]).
	CovalentScale float64

	// PopulationSize is the GA population size.
	PopulationSize int

	// MutationRate is the baseline (non-hyper-mutated) mutation probability.
	MutationRate float64

	// CrossoverRate is the cut-and-splice crossover probability.
	CrossoverRate float64

	// ElitismCount is the number of top individuals carried unconditionally
	// into the next generation.
	ElitismCount int

	// MaxSteps bounds the number of GA generations.
	MaxSteps int

	// BHTemperatureK is the Metropolis temperature in Kelvin.
	BHTemperatureK float64

	// BHStepSize scales the translation applied to the BH trial move.
	BHStepSize float64

	// BHSteps bounds the number of basin-hopping steps.
	BHSteps int
}

// DefaultParameters returns a Parameters with conservative, runnable defaults,
// matching the teacher's DefaultOptions() idiom (tsp.DefaultOptions). Every
// scalar knob is set; Seed 0 and Workers 0 select the default seed and a
// single worker. SpeciesTable and AtomCounts are left empty for the caller to
// fill.
func DefaultParameters() Parameters {
	return Parameters{
		Algorithm:      "ga",
		Seed:           0,
		Workers:        0,
		BoxHalfExtent:  6.0,
		CovalentScale:  0.6,
		PopulationSize: 30,
		MutationRate:   0.2,
		CrossoverRate:  0.7,
		ElitismCount:   2,
		MaxSteps:       200,
		BHTemperatureK: 300,
		BHStepSize:     0.3,
		BHSteps:        500,
	}
}

// Validate checks that p is internally consistent before a run starts,
// covering the parameter-validation cases original_source/src/main.rs performs
// ahead of constructing a solver (spec §7 names "bh_steps = 0" as one concrete
// instance of this general check).
func (p *Parameters) Validate() error {
	if len(p.SpeciesTable) == 0 {
		return ErrEmptySpeciesTable
	}
	if len(p.AtomCounts) != len(p.SpeciesTable) {
		return ErrAtomCountsMismatch
	}
	total := 0
	for _, n := range p.AtomCounts {
		if n < 0 {
			return ErrNegativeCount
		}
		total += n
	}
	if total == 0 {
		return ErrNoAtoms
	}
	if p.BoxHalfExtent <= 0 {
		return ErrInvalidBoxExtent
	}
	if p.CovalentScale <= 0 || p.CovalentScale > 2 {
		return ErrInvalidScale
	}
	switch p.Algorithm {
	case "ga", "":
		if p.PopulationSize <= 0 {
			return ErrInvalidPopulationSize
		}
		if p.ElitismCount > p.PopulationSize {
			return ErrElitismExceedsPopulation
		}
		if p.MaxSteps < 0 {
			return ErrInvalidMaxSteps
		}
	case "bh":
		if p.BHSteps < 0 {
			return ErrInvalidBHSteps
		}
	default:
		return fmt.Errorf("species: unknown algorithm %q", p.Algorithm)
	}
	return nil
}

// NumSpecies returns the number of distinct species in the run.
func (p *Parameters) NumSpecies() int { return len(p.SpeciesTable) }

// TotalAtoms returns the sum of AtomCounts.
func (p *Parameters) TotalAtoms() int {
	total := 0
	for _, n := range p.AtomCounts {
		total += n
	}
	return total
}
