package md

import (
	"fmt"

	"github.com/san-kum/bondmd/internal/box"
)

// UnitCell is an orthogonal crystal unit cell with fractional basis sites.
type UnitCell struct {
	A     [3]float64    // cell edge lengths
	Basis [][3]float64  // fractional coordinates of the basis atoms
}

// SimpleCubic returns a one-atom cubic cell with lattice constant a.
func SimpleCubic(a float64) UnitCell {
	return UnitCell{
		A:     [3]float64{a, a, a},
		Basis: [][3]float64{{0, 0, 0}},
	}
}

// FCC returns the four-atom conventional face-centered cubic cell.
func FCC(a float64) UnitCell {
	return UnitCell{
		A: [3]float64{a, a, a},
		Basis: [][3]float64{
			{0, 0, 0}, {0.5, 0.5, 0}, {0.5, 0, 0.5}, {0, 0.5, 0.5},
		},
	}
}

// Diamond returns the eight-atom conventional diamond cubic cell
// (a = 5.431 for silicon).
func Diamond(a float64) UnitCell {
	return UnitCell{
		A: [3]float64{a, a, a},
		Basis: [][3]float64{
			{0, 0, 0}, {0.5, 0.5, 0}, {0.5, 0, 0.5}, {0, 0.5, 0.5},
			{0.25, 0.25, 0.25}, {0.75, 0.75, 0.25},
			{0.75, 0.25, 0.75}, {0.25, 0.75, 0.75},
		},
	}
}

// BuildLattice replicates a unit cell nx*ny*nz times and returns the atom
// arrays together with the fully periodic orthogonal box enclosing them.
func BuildLattice(cell UnitCell, nx, ny, nz int, mass float64) (*Atoms, *box.Box, error) {
	if nx < 1 || ny < 1 || nz < 1 {
		return nil, nil, fmt.Errorf("md: supercell counts must be at least 1, got %dx%dx%d", nx, ny, nz)
	}
	if len(cell.Basis) == 0 {
		return nil, nil, fmt.Errorf("md: unit cell has no basis atoms")
	}

	b, err := box.NewOrthogonal(
		cell.A[0]*float64(nx),
		cell.A[1]*float64(ny),
		cell.A[2]*float64(nz),
		[3]bool{true, true, true},
	)
	if err != nil {
		return nil, nil, err
	}

	n := nx * ny * nz * len(cell.Basis)
	atoms := NewAtoms(n, mass)
	i := 0
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			for iz := 0; iz < nz; iz++ {
				for _, s := range cell.Basis {
					atoms.X[i] = (float64(ix) + s[0]) * cell.A[0]
					atoms.Y[i] = (float64(iy) + s[1]) * cell.A[1]
					atoms.Z[i] = (float64(iz) + s[2]) * cell.A[2]
					i++
				}
			}
		}
	}
	return atoms, b, nil
}
