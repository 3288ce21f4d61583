// Package config loads and saves run configurations as YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/bondmd/internal/md"
	"github.com/san-kum/bondmd/internal/potential"
)

const (
	DefaultDt           = 0.01
	DefaultSteps        = 1000
	DefaultRebuildEvery = 10
	DefaultMaxNeighbors = 32
	DefaultSkin         = 0.5
	DefaultLatticeA     = 5.431
	DefaultMass         = 28.085
	DefaultTemperature  = 300.0
)

// Config is the full description of a run: the crystal, the potential, the
// integration settings, and the active measurement.
type Config struct {
	Lattice   LatticeConfig           `yaml:"lattice"`
	Potential potential.TersoffParams `yaml:"potential"`
	Run       RunConfig               `yaml:"run"`
	Measure   MeasureConfig           `yaml:"measure"`
}

// LatticeConfig describes the initial crystal.
type LatticeConfig struct {
	Type        string  `yaml:"type"` // sc, fcc, diamond
	A           float64 `yaml:"a"`    // lattice constant, Angstrom
	NX          int     `yaml:"nx"`
	NY          int     `yaml:"ny"`
	NZ          int     `yaml:"nz"`
	Mass        float64 `yaml:"mass"` // amu
	Temperature float64 `yaml:"temperature"`
	Seed        int64   `yaml:"seed"`
}

// RunConfig describes integration and list maintenance.
type RunConfig struct {
	Dt           float64 `yaml:"dt"`
	Steps        int     `yaml:"steps"`
	RebuildEvery int     `yaml:"rebuild_every"`
	SampleEvery  int     `yaml:"sample_every"`
	MaxNeighbors int     `yaml:"max_neighbors"`
	Skin         float64 `yaml:"skin"`
}

// MeasureConfig selects the measurement mode of the assembly pass.
type MeasureConfig struct {
	Mode         string     `yaml:"mode"` // standard, virial, heat, hnemd, shc
	Energy       bool       `yaml:"energy"`
	DrivingField [3]float64 `yaml:"driving_field"`
	FluxPairs    [][2]int   `yaml:"flux_pairs"`
}

// DefaultConfig is a small silicon crystal at room temperature.
func DefaultConfig() *Config {
	return &Config{
		Lattice: LatticeConfig{
			Type:        "diamond",
			A:           DefaultLatticeA,
			NX:          3,
			NY:          3,
			NZ:          3,
			Mass:        DefaultMass,
			Temperature: DefaultTemperature,
		},
		Potential: potential.SiliconParams(),
		Run: RunConfig{
			Dt:           DefaultDt,
			Steps:        DefaultSteps,
			RebuildEvery: DefaultRebuildEvery,
			SampleEvery:  1,
			MaxNeighbors: DefaultMaxNeighbors,
			Skin:         DefaultSkin,
		},
		Measure: MeasureConfig{
			Mode:   "standard",
			Energy: true,
		},
	}
}

// Load reads a YAML config, layered over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a config as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Cell resolves the named unit cell.
func (l LatticeConfig) Cell() (md.UnitCell, error) {
	switch l.Type {
	case "sc":
		return md.SimpleCubic(l.A), nil
	case "fcc":
		return md.FCC(l.A), nil
	case "diamond":
		return md.Diamond(l.A), nil
	}
	return md.UnitCell{}, fmt.Errorf("config: unknown lattice type %q", l.Type)
}

// Options resolves the measurement options, wiring a flux sampler when the
// config marks cross-section pairs.
func (m MeasureConfig) Options(nAtoms int) (potential.Options, error) {
	mode, err := potential.ParseMode(m.Mode)
	if err != nil {
		return potential.Options{}, err
	}
	opts := potential.Options{
		Mode:          mode,
		ComputeEnergy: m.Energy,
		DrivingField:  m.DrivingField,
	}
	if mode == potential.FluxSampling {
		sampler := potential.NewFluxSampler(nAtoms)
		for _, p := range m.FluxPairs {
			if err := sampler.Mark(p[0], p[1]); err != nil {
				return potential.Options{}, err
			}
		}
		opts.Sampler = sampler
	}
	return opts, nil
}
