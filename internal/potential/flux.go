package potential

import "fmt"

// FluxSample is one raw observation for a pair crossing the measurement
// plane: the symmetrized pair force and both atoms' velocities, recorded
// verbatim for spectral post-processing.
type FluxSample struct {
	F  [3]float64
	VI [3]float64
	VJ [3]float64
}

// FluxSampler maps atoms to cross-section measurement slots. An atom with a
// slot records one sample per force evaluation for the bond to its expected
// partner on the far side of the plane. Each slot is owned by exactly one
// atom, so the parallel assembly sweep can append without coordination.
type FluxSampler struct {
	slot    []int // per atom, -1 when not sampled
	partner []int
	samples [][]FluxSample
	owner   []int // per slot, owning atom
}

// NewFluxSampler returns a sampler covering n atoms with no pairs marked.
func NewFluxSampler(n int) *FluxSampler {
	s := &FluxSampler{
		slot:    make([]int, n),
		partner: make([]int, n),
	}
	for i := range s.slot {
		s.slot[i] = -1
		s.partner[i] = -1
	}
	return s
}

// Mark designates the (atom, partner) bond as crossing the plane and
// assigns it the next slot.
func (s *FluxSampler) Mark(atom, partner int) error {
	if atom < 0 || atom >= len(s.slot) || partner < 0 || partner >= len(s.slot) {
		return fmt.Errorf("flux sampler: atom pair (%d, %d) out of range", atom, partner)
	}
	if s.slot[atom] >= 0 {
		return fmt.Errorf("flux sampler: atom %d already marked", atom)
	}
	s.slot[atom] = len(s.owner)
	s.partner[atom] = partner
	s.owner = append(s.owner, atom)
	s.samples = append(s.samples, nil)
	return nil
}

// Pairs returns the number of marked pairs.
func (s *FluxSampler) Pairs() int { return len(s.owner) }

// Samples returns the recorded time series for a slot.
func (s *FluxSampler) Samples(slot int) []FluxSample { return s.samples[slot] }

// Owner returns the atom owning a slot and its expected partner.
func (s *FluxSampler) Owner(slot int) (atom, partner int) {
	atom = s.owner[slot]
	return atom, s.partner[atom]
}

// Record appends one observation for a marked atom's bond. The assembly
// sweep calls it once per force evaluation.
func (s *FluxSampler) Record(atom int, sample FluxSample) {
	s.samples[s.slot[atom]] = append(s.samples[s.slot[atom]], sample)
}
