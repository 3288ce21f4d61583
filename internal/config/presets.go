package config

// Presets are ready-made run configurations keyed by name.
var Presets = map[string]func() *Config{
	"si-small": func() *Config {
		return DefaultConfig()
	},
	"si-relax": func() *Config {
		c := DefaultConfig()
		c.Lattice.Temperature = 10.0
		c.Run.Steps = 2000
		return c
	},
	"si-heat": func() *Config {
		c := DefaultConfig()
		c.Lattice.NX, c.Lattice.NY, c.Lattice.NZ = 4, 4, 4
		c.Run.Steps = 5000
		c.Measure.Mode = "heat"
		return c
	},
	"si-hnemd": func() *Config {
		c := DefaultConfig()
		c.Lattice.NX, c.Lattice.NY, c.Lattice.NZ = 4, 4, 4
		c.Run.Steps = 5000
		c.Measure.Mode = "hnemd"
		c.Measure.DrivingField = [3]float64{1e-4, 0, 0}
		return c
	},
	"si-virial": func() *Config {
		c := DefaultConfig()
		c.Measure.Mode = "virial"
		return c
	},
}

// Preset returns a fresh copy of a named preset, or nil.
func Preset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}
