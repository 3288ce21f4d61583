// Package potential implements many-body interatomic potentials behind a
// single compute capability. The bond-order three-body model lives in
// tersoff.go; drivers depend only on the Potential interface.
package potential

import (
	"fmt"

	"github.com/san-kum/bondmd/internal/box"
	"github.com/san-kum/bondmd/internal/md"
	"github.com/san-kum/bondmd/internal/neighbor"
)

// Potential is the force-evaluation capability consumed by the simulation
// driver. A model owns its parameters and scratch buffers; the measurement
// mode is configuration set before the call, not a separate entry point.
type Potential interface {
	Compute(b *box.Box, nl *neighbor.List, atoms *md.Atoms, out *Output) error
	Cutoff() float64
}

// Mode selects which measurement the assembly pass accumulates besides the
// total force. Exactly one mode is active per call.
type Mode int

const (
	// Standard accumulates force (and optionally energy) only.
	Standard Mode = iota
	// Virial additionally accumulates per-atom diagonal virial stress.
	Virial
	// HeatCurrent additionally accumulates the 5-component per-atom heat
	// current used in Green-Kubo post-processing.
	HeatCurrent
	// HNEMD adds a homogeneous driving force and subtracts its global mean
	// so the injected momentum is exactly zero.
	HNEMD
	// FluxSampling records raw pair force and velocity samples for atom
	// pairs crossing a designated cross-section.
	FluxSampling
)

func (m Mode) String() string {
	switch m {
	case Standard:
		return "standard"
	case Virial:
		return "virial"
	case HeatCurrent:
		return "heat"
	case HNEMD:
		return "hnemd"
	case FluxSampling:
		return "shc"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode maps a config string to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "standard":
		return Standard, nil
	case "virial":
		return Virial, nil
	case "heat":
		return HeatCurrent, nil
	case "hnemd":
		return HNEMD, nil
	case "shc":
		return FluxSampling, nil
	}
	return Standard, fmt.Errorf("unknown measurement mode %q", s)
}

// Options configures a model's measurement behavior. Energy accumulation is
// independent of the mode because it has its own runtime cost.
type Options struct {
	Mode          Mode
	ComputeEnergy bool

	// DrivingField is the uniform external field for HNEMD, in 1/Angstrom.
	DrivingField [3]float64

	// Sampler receives raw flux samples in FluxSampling mode.
	Sampler *FluxSampler
}

// Output holds the per-atom results of one force evaluation, owned by the
// force core and sized once to N atoms. Heat is atom-major with stride 5:
// x in-plane, x out-of-plane, y in-plane, y out-of-plane, z.
type Output struct {
	N          int
	FX, FY, FZ []float64
	PE         []float64
	VXX        []float64
	VYY        []float64
	VZZ        []float64
	Heat       []float64
}

// NewOutput allocates result arrays for n atoms.
func NewOutput(n int) *Output {
	return &Output{
		N:    n,
		FX:   make([]float64, n),
		FY:   make([]float64, n),
		FZ:   make([]float64, n),
		PE:   make([]float64, n),
		VXX:  make([]float64, n),
		VYY:  make([]float64, n),
		VZZ:  make([]float64, n),
		Heat: make([]float64, n*5),
	}
}

// Reset zeroes all accumulators.
func (o *Output) Reset() {
	for i := 0; i < o.N; i++ {
		o.FX[i], o.FY[i], o.FZ[i] = 0, 0, 0
		o.PE[i] = 0
		o.VXX[i], o.VYY[i], o.VZZ[i] = 0, 0, 0
	}
	for i := range o.Heat {
		o.Heat[i] = 0
	}
}

// TotalEnergy sums the per-atom potential energies.
func (o *Output) TotalEnergy() float64 {
	e := 0.0
	for _, p := range o.PE {
		e += p
	}
	return e
}

// TotalForce returns the vector sum of all forces; it should vanish for a
// closed system.
func (o *Output) TotalForce() (fx, fy, fz float64) {
	for i := 0; i < o.N; i++ {
		fx += o.FX[i]
		fy += o.FY[i]
		fz += o.FZ[i]
	}
	return fx, fy, fz
}

// TotalHeat sums the per-atom heat-current components.
func (o *Output) TotalHeat() (h [5]float64) {
	for i := 0; i < o.N; i++ {
		for c := 0; c < 5; c++ {
			h[c] += o.Heat[i*5+c]
		}
	}
	return h
}
