// Package box describes the periodic simulation cell and implements the
// minimum-image convention used by every pair evaluation.
package box

import (
	"fmt"
	"math"
)

// Box holds the lattice geometry and per-axis periodicity flags. The
// orthogonal case keeps only the three edge lengths and wraps component-wise;
// the triclinic case stores the full lattice matrix and wraps in fractional
// coordinates, since component-wise wrapping is only exact for orthogonal
// cells. The inverse matrix is recomputed whenever the matrix changes.
type Box struct {
	Periodic [3]bool

	triclinic bool
	length    [3]float64
	h         [9]float64 // columns are the lattice vectors a, b, c
	g         [9]float64 // inverse of h
}

// NewOrthogonal returns a box with three orthogonal edges.
func NewOrthogonal(lx, ly, lz float64, periodic [3]bool) (*Box, error) {
	if lx <= 0 || ly <= 0 || lz <= 0 {
		return nil, fmt.Errorf("box: edge lengths must be positive, got (%g, %g, %g)", lx, ly, lz)
	}
	return &Box{
		Periodic: periodic,
		length:   [3]float64{lx, ly, lz},
	}, nil
}

// NewTriclinic returns a box with a general lattice matrix h, given
// column-major as the three lattice vectors a, b, c.
func NewTriclinic(h [9]float64, periodic [3]bool) (*Box, error) {
	b := &Box{Periodic: periodic, triclinic: true}
	if err := b.SetMatrix(h); err != nil {
		return nil, err
	}
	return b, nil
}

// SetMatrix replaces the lattice matrix and recomputes its inverse.
func (b *Box) SetMatrix(h [9]float64) error {
	det := h[0]*(h[4]*h[8]-h[5]*h[7]) -
		h[1]*(h[3]*h[8]-h[5]*h[6]) +
		h[2]*(h[3]*h[7]-h[4]*h[6])
	if math.Abs(det) < 1e-12 {
		return fmt.Errorf("box: lattice matrix is singular (det=%g)", det)
	}
	inv := 1.0 / det
	b.h = h
	b.g = [9]float64{
		(h[4]*h[8] - h[5]*h[7]) * inv,
		(h[2]*h[7] - h[1]*h[8]) * inv,
		(h[1]*h[5] - h[2]*h[4]) * inv,
		(h[5]*h[6] - h[3]*h[8]) * inv,
		(h[0]*h[8] - h[2]*h[6]) * inv,
		(h[2]*h[3] - h[0]*h[5]) * inv,
		(h[3]*h[7] - h[4]*h[6]) * inv,
		(h[1]*h[6] - h[0]*h[7]) * inv,
		(h[0]*h[4] - h[1]*h[3]) * inv,
	}
	b.triclinic = true
	return nil
}

// Triclinic reports whether the box carries a general lattice matrix.
func (b *Box) Triclinic() bool { return b.triclinic }

// Length returns the edge length along an axis of an orthogonal box.
func (b *Box) Length(axis int) float64 { return b.length[axis] }

// Volume returns the cell volume.
func (b *Box) Volume() float64 {
	if !b.triclinic {
		return b.length[0] * b.length[1] * b.length[2]
	}
	h := b.h
	return math.Abs(h[0]*(h[4]*h[8]-h[5]*h[7]) -
		h[1]*(h[3]*h[8]-h[5]*h[6]) +
		h[2]*(h[3]*h[7]-h[4]*h[6]))
}

// Thickness returns the perpendicular distance between the two cell faces
// normal to the given lattice direction. The minimum-image convention is
// only valid when the interaction cutoff is below half this value.
func (b *Box) Thickness(axis int) float64 {
	if !b.triclinic {
		return b.length[axis]
	}
	// Row `axis` of the inverse matrix is the reciprocal vector of that
	// face; the face spacing is the reciprocal of its norm.
	g := b.g
	r := math.Sqrt(g[axis*3]*g[axis*3] + g[axis*3+1]*g[axis*3+1] + g[axis*3+2]*g[axis*3+2])
	return 1.0 / r
}

// MinimumImage wraps the displacement (dx, dy, dz) into the nearest periodic
// image. Non-periodic axes are left untouched. It is called on every
// candidate pair in every pass and must stay allocation-free.
func (b *Box) MinimumImage(dx, dy, dz *float64) {
	if !b.triclinic {
		if b.Periodic[0] {
			*dx = wrap(*dx, b.length[0])
		}
		if b.Periodic[1] {
			*dy = wrap(*dy, b.length[1])
		}
		if b.Periodic[2] {
			*dz = wrap(*dz, b.length[2])
		}
		return
	}

	g, h := &b.g, &b.h
	fx := g[0]*(*dx) + g[1]*(*dy) + g[2]*(*dz)
	fy := g[3]*(*dx) + g[4]*(*dy) + g[5]*(*dz)
	fz := g[6]*(*dx) + g[7]*(*dy) + g[8]*(*dz)
	if b.Periodic[0] {
		fx -= math.Round(fx)
	}
	if b.Periodic[1] {
		fy -= math.Round(fy)
	}
	if b.Periodic[2] {
		fz -= math.Round(fz)
	}
	*dx = h[0]*fx + h[1]*fy + h[2]*fz
	*dy = h[3]*fx + h[4]*fy + h[5]*fz
	*dz = h[6]*fx + h[7]*fy + h[8]*fz
}

// Fractional converts a Cartesian position to fractional coordinates.
func (b *Box) Fractional(x, y, z float64) (fx, fy, fz float64) {
	if !b.triclinic {
		return x / b.length[0], y / b.length[1], z / b.length[2]
	}
	g := &b.g
	fx = g[0]*x + g[1]*y + g[2]*z
	fy = g[3]*x + g[4]*y + g[5]*z
	fz = g[6]*x + g[7]*y + g[8]*z
	return fx, fy, fz
}

// wrap maps a raw coordinate difference to its nearest image. Positions are
// never folded back into the cell, so the difference may span several box
// lengths after a long run.
func wrap(d, l float64) float64 {
	return d - l*math.Round(d/l)
}
