package species

import "github.com/google/uuid"

// NewID returns a fresh unique cluster identifier.
func NewID() string { return uuid.New().String() }

// ShortID returns the 4-character prefix of id, as used by crossover origin
// tags ("X(abcd,efgh)", spec §4.4).
func ShortID(id string) string {
	if len(id) <= 4 {
		return id
	}
	return id[:4]
}

// NewBornCluster constructs a Cluster in the Born state with a fresh ID and the
// given atoms/lattice/origin tag. Energy, GradNorm, PMOI and Fingerprint all
// start unset, per spec §3.
func NewBornCluster(atoms []Atom, lat *Lattice, generation int, origin string) *Cluster {
	return &Cluster{
		ID:         NewID(),
		Generation: generation,
		Origin:     origin,
		Atoms:      atoms,
		Lattice:    lat,
		Status:     Born,
	}
}
