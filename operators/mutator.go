package operators

import (
	"math"
	"math/rand"

	"github.com/clustermin/clustermin/spatial"
	"github.com/clustermin/clustermin/species"
)

// step identifies one kind of accumulated transform, in the fixed composition
// order spec §4.4 requires: Breathing, Rotation, Twist, Rattle, Swap,
// Translation. Order matters and is preserved regardless of the order the
// builder methods were called in.
type step int

const (
	stepBreathe step = iota
	stepRotate
	stepTwist
	stepRattle
	stepSwap
	stepTranslate
)

type pending struct {
	kind    step
	mag     float64 // magnitude (m) for breathe/rotate/twist/rattle/translate
	swapCnt int     // count for swap
}

// Mutator accumulates optional geometric transforms and applies them, in the
// fixed order above, to a clone of the input cluster. Unset transforms are
// skipped. Construct with NewMutator and chain the With-style methods; Apply
// executes the accumulated steps exactly once.
type Mutator struct {
	steps []pending
}

// NewMutator returns an empty Mutator with no accumulated transforms.
func NewMutator() *Mutator { return &Mutator{} }

// Breathe accumulates a uniform isotropic scale by 1 + U(-m, m).
func (mu *Mutator) Breathe(m float64) *Mutator {
	mu.steps = append(mu.steps, pending{kind: stepBreathe, mag: m})
	return mu
}

// Rotate accumulates a rotation about a random axis (uniform on the unit
// sphere) by an angle U(-m, m).
func (mu *Mutator) Rotate(m float64) *Mutator {
	mu.steps = append(mu.steps, pending{kind: stepRotate, mag: m})
	return mu
}

// Twist accumulates a z-dependent shear: per atom, theta = z * 2 * m *
// (U(0,1) - 0.5), then a 2-D rotation of (x, y) by theta. z is left
// invariant.
func (mu *Mutator) Twist(m float64) *Mutator {
	mu.steps = append(mu.steps, pending{kind: stepTwist, mag: m})
	return mu
}

// Rattle accumulates, per atom, an additive U(-m, m)^3 perturbation.
func (mu *Mutator) Rattle(m float64) *Mutator {
	mu.steps = append(mu.steps, pending{kind: stepRattle, mag: m})
	return mu
}

// Swap accumulates count index-pair position swaps (atoms keep their
// species; positions exchange), i != j enforced per swap, with replacement.
func (mu *Mutator) Swap(count int) *Mutator {
	mu.steps = append(mu.steps, pending{kind: stepSwap, swapCnt: count})
	return mu
}

// Translate accumulates a single shared U(-m, m)^3 vector added to all atoms.
func (mu *Mutator) Translate(m float64) *Mutator {
	mu.steps = append(mu.steps, pending{kind: stepTranslate, mag: m})
	return mu
}

// Apply executes the accumulated transforms, in the fixed order
// Breathe -> Rotate -> Twist -> Rattle -> Swap -> Translate regardless of
// call order, on a clone of c, calling spatial.WrapOrCenter before and after
// (spec §4.4). The original c is never mutated.
func (mu *Mutator) Apply(c *species.Cluster, rng *rand.Rand) *species.Cluster {
	out := c.Clone()
	spatial.WrapOrCenter(out)

	// Partition accumulated steps by kind so repeated calls of the same
	// transform still execute once each in the fixed order, in call order
	// among themselves.
	for _, kind := range []step{stepBreathe, stepRotate, stepTwist, stepRattle, stepSwap, stepTranslate} {
		for _, p := range mu.steps {
			if p.kind != kind {
				continue
			}
			applyOne(out, p, rng)
		}
	}

	spatial.WrapOrCenter(out)
	return out
}

func applyOne(c *species.Cluster, p pending, rng *rand.Rand) {
	switch p.kind {
	case stepBreathe:
		breathe(c, p.mag, rng)
	case stepRotate:
		rotateRandomAxis(c, p.mag, rng)
	case stepTwist:
		twist(c, p.mag, rng)
	case stepRattle:
		rattle(c, p.mag, rng)
	case stepSwap:
		swapPositions(c, p.swapCnt, rng)
	case stepTranslate:
		translate(c, p.mag, rng)
	}
}

func uniform(rng *rand.Rand, m float64) float64 {
	return (rng.Float64()*2 - 1) * m
}

func breathe(c *species.Cluster, m float64, rng *rand.Rand) {
	scale := 1 + uniform(rng, m)
	for i := range c.Atoms {
		c.Atoms[i].Position[0] *= scale
		c.Atoms[i].Position[1] *= scale
		c.Atoms[i].Position[2] *= scale
	}
}

func rotateRandomAxis(c *species.Cluster, m float64, rng *rand.Rand) {
	axis := [3]float64{uniform(rng, 0.5), uniform(rng, 0.5), uniform(rng, 0.5)}
	norm := math.Sqrt(axis[0]*axis[0] + axis[1]*axis[1] + axis[2]*axis[2])
	if norm == 0 {
		return
	}
	axis[0] /= norm
	axis[1] /= norm
	axis[2] /= norm
	angle := uniform(rng, m)
	cosT, sinT := math.Cos(angle), math.Sin(angle)

	for i, a := range c.Atoms {
		p := a.Position
		dot := axis[0]*p[0] + axis[1]*p[1] + axis[2]*p[2]
		cross := [3]float64{
			axis[1]*p[2] - axis[2]*p[1],
			axis[2]*p[0] - axis[0]*p[2],
			axis[0]*p[1] - axis[1]*p[0],
		}
		var out [3]float64
		for k := 0; k < 3; k++ {
			out[k] = p[k]*cosT + cross[k]*sinT + axis[k]*dot*(1-cosT)
		}
		c.Atoms[i].Position = out
	}
}

func twist(c *species.Cluster, m float64, rng *rand.Rand) {
	for i, a := range c.Atoms {
		z := a.Position[2]
		theta := z * 2 * m * (rng.Float64() - 0.5)
		cosT, sinT := math.Cos(theta), math.Sin(theta)
		x, y := a.Position[0], a.Position[1]
		c.Atoms[i].Position[0] = x*cosT - y*sinT
		c.Atoms[i].Position[1] = x*sinT + y*cosT
		// z left invariant.
	}
}

func rattle(c *species.Cluster, m float64, rng *rand.Rand) {
	for i := range c.Atoms {
		c.Atoms[i].Position[0] += uniform(rng, m)
		c.Atoms[i].Position[1] += uniform(rng, m)
		c.Atoms[i].Position[2] += uniform(rng, m)
	}
}

func swapPositions(c *species.Cluster, count int, rng *rand.Rand) {
	n := len(c.Atoms)
	if n < 2 {
		return
	}
	for k := 0; k < count; k++ {
		i := rng.Intn(n)
		j := rng.Intn(n)
		for j == i {
			j = rng.Intn(n)
		}
		c.Atoms[i].Position, c.Atoms[j].Position = c.Atoms[j].Position, c.Atoms[i].Position
	}
}

func translate(c *species.Cluster, m float64, rng *rand.Rand) {
	d := [3]float64{uniform(rng, m), uniform(rng, m), uniform(rng, m)}
	for i := range c.Atoms {
		c.Atoms[i].Position[0] += d[0]
		c.Atoms[i].Position[1] += d[1]
		c.Atoms[i].Position[2] += d[2]
	}
}
