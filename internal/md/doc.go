// Package md provides the shared primitives of the molecular-dynamics
// engine: the per-atom state arrays, thermodynamic helpers, lattice
// construction, and the chunked parallel sweep used by the force passes.
//
// Units are eV for energy, Angstrom for length and amu for mass. The
// derived natural time unit is sqrt(amu A^2 / eV), about 10.18 fs, so
// kinetic energy is 0.5*m*v*v in eV with no conversion factor.
//
// # Ownership
//
// Atoms is owned by the simulation driver. Force-evaluation code reads
// positions, velocities and types and never mutates them.
package md
