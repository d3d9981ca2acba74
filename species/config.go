package species

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadParameters reads a Parameters value from a TOML/YAML/JSON config file at
// path, applying DefaultParameters() as the baseline for any field the file
// doesn't set. This is the ambient configuration path for a run; the ga and bh
// packages never import viper themselves, only the species.Parameters struct
// this function produces.
//
// The config file's species table is expected under the "species" key as a
// list of objects with the same field names as Species (symbol, atomic_number,
// mass, charge, covalent_radius, ionic_radius); atom_counts is a parallel list
// of integers under "atom_counts".
func LoadParameters(path string) (Parameters, error) {
	v := viper.New()
	v.SetConfigFile(path)

	def := DefaultParameters()
	v.SetDefault("seed", def.Seed)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("box_half_extent", def.BoxHalfExtent)
	v.SetDefault("covalent_scale", def.CovalentScale)
	v.SetDefault("population_size", def.PopulationSize)
	v.SetDefault("mutation_rate", def.MutationRate)
	v.SetDefault("crossover_rate", def.CrossoverRate)
	v.SetDefault("elitism_count", def.ElitismCount)
	v.SetDefault("max_steps", def.MaxSteps)
	v.SetDefault("bh_temperature_k", def.BHTemperatureK)
	v.SetDefault("bh_step_size", def.BHStepSize)
	v.SetDefault("bh_steps", def.BHSteps)
	v.SetDefault("algorithm", def.Algorithm)

	if err := v.ReadInConfig(); err != nil {
		return Parameters{}, fmt.Errorf("species: LoadParameters(%s): %w", path, err)
	}

	var speciesTable []Species
	if err := v.UnmarshalKey("species", &speciesTable); err != nil {
		return Parameters{}, fmt.Errorf("species: LoadParameters(%s): decode species table: %w", path, err)
	}

	p := Parameters{
		Algorithm:      v.GetString("algorithm"),
		Seed:           v.GetInt64("seed"),
		Workers:        v.GetInt("workers"),
		AtomCounts:     v.GetIntSlice("atom_counts"),
		SpeciesTable:   speciesTable,
		BoxHalfExtent:  v.GetFloat64("box_half_extent"),
		CovalentScale:  v.GetFloat64("covalent_scale"),
		PopulationSize: v.GetInt("population_size"),
		MutationRate:   v.GetFloat64("mutation_rate"),
		CrossoverRate:  v.GetFloat64("crossover_rate"),
		ElitismCount:   v.GetInt("elitism_count"),
		MaxSteps:       v.GetInt("max_steps"),
		BHTemperatureK: v.GetFloat64("bh_temperature_k"),
		BHStepSize:     v.GetFloat64("bh_step_size"),
		BHSteps:        v.GetInt("bh_steps"),
	}

	if err := p.Validate(); err != nil {
		return Parameters{}, fmt.Errorf("species: LoadParameters(%s): %w", path, err)
	}
	return p, nil
}
