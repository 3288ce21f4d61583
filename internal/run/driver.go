// Package run advances the simulation: velocity-Verlet integration,
// neighbor-list rebuild cadence, and per-step thermodynamic records.
package run

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/bondmd/internal/box"
	"github.com/san-kum/bondmd/internal/md"
	"github.com/san-kum/bondmd/internal/neighbor"
	"github.com/san-kum/bondmd/internal/potential"
)

// Config controls one run.
type Config struct {
	Dt           float64 // timestep in natural time units
	Steps        int
	RebuildEvery int // neighbor-list rebuild cadence in steps
	SampleEvery  int // thermo record cadence in steps
}

// DefaultConfig returns a conservative run setup.
func DefaultConfig() Config {
	return Config{
		Dt:           0.01, // ~0.1 fs
		Steps:        1000,
		RebuildEvery: 10,
		SampleEvery:  1,
	}
}

// Record is one thermo sample.
type Record struct {
	Step        int
	Time        float64
	Temperature float64
	Potential   float64
	Kinetic     float64
	Total       float64
	Heat        [5]float64
}

// Result collects a run's samples.
type Result struct {
	Records     []Record
	StepsTaken  int
	EnergyDrift float64
}

// StepError reports a failure at a specific step of the run.
type StepError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *StepError) Unwrap() error { return e.Wrapped }

// Observer is notified after every completed step.
type Observer interface {
	OnStep(step int, t float64, atoms *md.Atoms, out *potential.Output)
}

// Driver owns the neighbor list and output buffers and advances the atoms.
// The list is only mutated between force evaluations, never during one.
type Driver struct {
	Box   *box.Box
	Atoms *md.Atoms
	Pot   potential.Potential

	finder    *neighbor.Finder
	list      *neighbor.List
	out       *potential.Output
	observers []Observer
}

// New wires a driver. The finder's cutoff should exceed the potential's by
// the safety skin; that sizing keeps the list valid between rebuilds.
func New(b *box.Box, atoms *md.Atoms, pot potential.Potential, finder *neighbor.Finder) (*Driver, error) {
	if finder.Cutoff < pot.Cutoff() {
		return nil, fmt.Errorf("%w: list cutoff %g below force cutoff %g",
			md.ErrBadCutoff, finder.Cutoff, pot.Cutoff())
	}
	return &Driver{
		Box:    b,
		Atoms:  atoms,
		Pot:    pot,
		finder: finder,
		list:   neighbor.NewList(atoms.N, finder.MN),
		out:    potential.NewOutput(atoms.N),
	}, nil
}

// AddObserver registers a per-step callback.
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

// Out exposes the latest force-evaluation output.
func (d *Driver) Out() *potential.Output { return d.out }

// List exposes the current neighbor list.
func (d *Driver) List() *neighbor.List { return d.list }

// ComputeForces rebuilds the neighbor list and evaluates forces once,
// without advancing positions.
func (d *Driver) ComputeForces() error {
	if err := d.finder.Build(d.Box, d.Atoms, d.list); err != nil {
		return err
	}
	return d.Pot.Compute(d.Box, d.list, d.Atoms, d.out)
}

func (c Config) validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("run: dt must be positive, got %g", c.Dt)
	}
	if c.Steps <= 0 {
		return fmt.Errorf("run: steps must be positive, got %d", c.Steps)
	}
	if c.RebuildEvery < 1 {
		return fmt.Errorf("run: rebuild cadence must be at least 1, got %d", c.RebuildEvery)
	}
	if c.SampleEvery < 1 {
		return fmt.Errorf("run: sample cadence must be at least 1, got %d", c.SampleEvery)
	}
	return nil
}

// Run advances the system with velocity-Verlet. Forces are evaluated once
// up front and then once per step; the neighbor list is rebuilt on the
// configured cadence before the force call that follows the move.
func (d *Driver) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := d.ComputeForces(); err != nil {
		return nil, err
	}

	result := &Result{Records: make([]Record, 0, cfg.Steps/cfg.SampleEvery+1)}
	a, out := d.Atoms, d.out
	halfDt := 0.5 * cfg.Dt

	initial := d.record(0, 0)
	result.Records = append(result.Records, initial)

	t := 0.0
	for step := 1; step <= cfg.Steps; step++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		for i := 0; i < a.N; i++ {
			inv := halfDt / a.Mass[i]
			a.VX[i] += out.FX[i] * inv
			a.VY[i] += out.FY[i] * inv
			a.VZ[i] += out.FZ[i] * inv
			a.X[i] += a.VX[i] * cfg.Dt
			a.Y[i] += a.VY[i] * cfg.Dt
			a.Z[i] += a.VZ[i] * cfg.Dt
		}

		if (step-1)%cfg.RebuildEvery == 0 {
			if err := d.finder.Build(d.Box, a, d.list); err != nil {
				return result, &StepError{Step: step, Time: t, Wrapped: err}
			}
		}
		if err := d.Pot.Compute(d.Box, d.list, a, out); err != nil {
			return result, &StepError{Step: step, Time: t, Wrapped: err}
		}

		for i := 0; i < a.N; i++ {
			inv := halfDt / a.Mass[i]
			a.VX[i] += out.FX[i] * inv
			a.VY[i] += out.FY[i] * inv
			a.VZ[i] += out.FZ[i] * inv
		}

		t += cfg.Dt
		result.StepsTaken++

		if step%cfg.SampleEvery == 0 {
			result.Records = append(result.Records, d.record(step, t))
		}
		for _, o := range d.observers {
			o.OnStep(step, t, a, out)
		}
	}

	if last := result.Records[len(result.Records)-1]; initial.Total != 0 {
		result.EnergyDrift = math.Abs(last.Total-initial.Total) / math.Abs(initial.Total)
	}
	return result, nil
}

func (d *Driver) record(step int, t float64) Record {
	ke := d.Atoms.KineticEnergy()
	pe := d.out.TotalEnergy()
	return Record{
		Step:        step,
		Time:        t,
		Temperature: d.Atoms.Temperature(),
		Potential:   pe,
		Kinetic:     ke,
		Total:       ke + pe,
		Heat:        d.out.TotalHeat(),
	}
}
