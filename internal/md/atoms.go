package md

import (
	"math"
	"math/rand"
)

// KB is the Boltzmann constant in eV/K.
const KB = 8.617343e-5

// TimeUnitFS is the natural time unit in femtoseconds given eV, Angstrom
// and amu.
const TimeUnitFS = 10.180505

// Atoms holds the per-atom state arrays. Layout is one flat slice per
// component so a sweep over atoms walks contiguous memory.
type Atoms struct {
	N    int
	Type []int
	Mass []float64

	X, Y, Z    []float64
	VX, VY, VZ []float64
}

// NewAtoms allocates state for n atoms of a single type with the given mass.
func NewAtoms(n int, mass float64) *Atoms {
	a := &Atoms{
		N:    n,
		Type: make([]int, n),
		Mass: make([]float64, n),
		X:    make([]float64, n),
		Y:    make([]float64, n),
		Z:    make([]float64, n),
		VX:   make([]float64, n),
		VY:   make([]float64, n),
		VZ:   make([]float64, n),
	}
	for i := range a.Mass {
		a.Mass[i] = mass
	}
	return a
}

// KineticEnergy returns the total kinetic energy in eV.
func (a *Atoms) KineticEnergy() float64 {
	ke := 0.0
	for i := 0; i < a.N; i++ {
		ke += 0.5 * a.Mass[i] * (a.VX[i]*a.VX[i] + a.VY[i]*a.VY[i] + a.VZ[i]*a.VZ[i])
	}
	return ke
}

// Temperature returns the instantaneous kinetic temperature in K,
// using 3N degrees of freedom.
func (a *Atoms) Temperature() float64 {
	if a.N == 0 {
		return 0
	}
	return 2.0 * a.KineticEnergy() / (3.0 * float64(a.N) * KB)
}

// Momentum returns the total linear momentum.
func (a *Atoms) Momentum() (px, py, pz float64) {
	for i := 0; i < a.N; i++ {
		px += a.Mass[i] * a.VX[i]
		py += a.Mass[i] * a.VY[i]
		pz += a.Mass[i] * a.VZ[i]
	}
	return px, py, pz
}

// ZeroMomentum removes the center-of-mass drift velocity.
func (a *Atoms) ZeroMomentum() {
	px, py, pz := a.Momentum()
	mTot := 0.0
	for i := 0; i < a.N; i++ {
		mTot += a.Mass[i]
	}
	if mTot == 0 {
		return
	}
	cx, cy, cz := px/mTot, py/mTot, pz/mTot
	for i := 0; i < a.N; i++ {
		a.VX[i] -= cx
		a.VY[i] -= cy
		a.VZ[i] -= cz
	}
}

// InitVelocities draws Maxwell-Boltzmann velocities for the target
// temperature, removes the net momentum, and rescales so the instantaneous
// temperature matches the target exactly.
func (a *Atoms) InitVelocities(temp float64, rng *rand.Rand) {
	if temp <= 0 {
		for i := 0; i < a.N; i++ {
			a.VX[i], a.VY[i], a.VZ[i] = 0, 0, 0
		}
		return
	}
	for i := 0; i < a.N; i++ {
		sigma := math.Sqrt(KB * temp / a.Mass[i])
		a.VX[i] = sigma * rng.NormFloat64()
		a.VY[i] = sigma * rng.NormFloat64()
		a.VZ[i] = sigma * rng.NormFloat64()
	}
	a.ZeroMomentum()

	cur := a.Temperature()
	if cur == 0 {
		return
	}
	scale := math.Sqrt(temp / cur)
	for i := 0; i < a.N; i++ {
		a.VX[i] *= scale
		a.VY[i] *= scale
		a.VZ[i] *= scale
	}
}
