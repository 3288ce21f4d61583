// Package neighbor builds bounded fixed-stride neighbor lists under
// periodic boundary conditions.
package neighbor

import (
	"fmt"
	"math"

	"github.com/san-kum/bondmd/internal/box"
	"github.com/san-kum/bondmd/internal/md"
)

// List is a fixed-stride neighbor list: atom i's neighbors live in
// Idx[i*MN : i*MN+Count[i]]. The stride is shared by all atoms so every
// pass addresses pair slots uniformly. A sweep over one atom's neighbors
// walks contiguous memory, which matches the per-atom unit of work here.
type List struct {
	MN    int
	Count []int
	Idx   []int
}

// NewList allocates a list for n atoms with stride mn.
func NewList(n, mn int) *List {
	return &List{
		MN:    mn,
		Count: make([]int, n),
		Idx:   make([]int, n*mn),
	}
}

// N returns the number of atoms the list covers.
func (l *List) N() int { return len(l.Count) }

// Neighbors returns atom i's neighbor indices as a shared sub-slice.
func (l *List) Neighbors(i int) []int {
	return l.Idx[i*l.MN : i*l.MN+l.Count[i]]
}

// Find returns the slot of atom j in atom i's list, or -1. The scan is
// bounded by MN; it is how the assembly pass locates reciprocal pair data.
func (l *List) Find(i, j int) int {
	base := i * l.MN
	for s := 0; s < l.Count[i]; s++ {
		if l.Idx[base+s] == j {
			return s
		}
	}
	return -1
}

// Finder builds neighbor lists within cutoff+skin. The skin keeps a list
// valid for several integration steps; the rebuild cadence belongs to the
// driver, not to the force passes.
type Finder struct {
	Cutoff float64 // force cutoff plus safety skin
	MN     int

	// cell scratch, reused across rebuilds
	head []int
	next []int
}

// NewFinder validates the list-building cutoff and stride.
func NewFinder(cutoff float64, mn int) (*Finder, error) {
	if cutoff <= 0 {
		return nil, fmt.Errorf("%w: list cutoff %g", md.ErrBadCutoff, cutoff)
	}
	if mn < 1 {
		return nil, fmt.Errorf("%w: max neighbors %d", md.ErrTooManyNeighbors, mn)
	}
	return &Finder{Cutoff: cutoff, MN: mn}, nil
}

// Build fills the list for the current positions. It picks the linked-cell
// decomposition when the box admits at least three cells per periodic axis
// and falls back to the all-pairs scan otherwise.
func (f *Finder) Build(b *box.Box, atoms *md.Atoms, l *List) error {
	if l.N() != atoms.N || l.MN != f.MN {
		return fmt.Errorf("%w: list sized for %d atoms stride %d, have %d atoms stride %d",
			md.ErrSizeMismatch, l.N(), l.MN, atoms.N, f.MN)
	}
	for axis := 0; axis < 3; axis++ {
		if b.Periodic[axis] && b.Thickness(axis) < 2*f.Cutoff {
			return fmt.Errorf("%w: axis %d thickness %g, cutoff %g",
				md.ErrBoxTooThin, axis, b.Thickness(axis), f.Cutoff)
		}
	}

	nc, ok := f.cellCounts(b)
	if ok && atoms.N >= 64 {
		return f.buildCells(b, atoms, l, nc)
	}
	return f.buildBrute(b, atoms, l)
}

// buildBrute is the O(N^2) all-pairs scan, used for small systems and as
// the reference the cell build is tested against.
func (f *Finder) buildBrute(b *box.Box, atoms *md.Atoms, l *List) error {
	cut2 := f.Cutoff * f.Cutoff
	n := atoms.N
	for i := 0; i < n; i++ {
		count := 0
		base := i * l.MN
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			dx := atoms.X[j] - atoms.X[i]
			dy := atoms.Y[j] - atoms.Y[i]
			dz := atoms.Z[j] - atoms.Z[i]
			b.MinimumImage(&dx, &dy, &dz)
			if dx*dx+dy*dy+dz*dz >= cut2 {
				continue
			}
			if count == l.MN {
				return fmt.Errorf("%w: atom %d needs more than %d slots", md.ErrTooManyNeighbors, i, l.MN)
			}
			l.Idx[base+count] = j
			count++
		}
		l.Count[i] = count
	}
	return nil
}

// cellCounts returns the number of cells per axis, or ok=false when any
// periodic axis cannot hold three cells of side >= cutoff.
func (f *Finder) cellCounts(b *box.Box) (nc [3]int, ok bool) {
	for axis := 0; axis < 3; axis++ {
		n := int(b.Thickness(axis) / f.Cutoff)
		if n < 3 {
			return nc, false
		}
		nc[axis] = n
	}
	return nc, true
}

// buildCells bins atoms by fractional coordinate and scans each atom's own
// and 26 adjacent cells, wrapping cell indices on periodic axes.
func (f *Finder) buildCells(b *box.Box, atoms *md.Atoms, l *List, nc [3]int) error {
	n := atoms.N
	total := nc[0] * nc[1] * nc[2]
	if cap(f.head) < total {
		f.head = make([]int, total)
	}
	head := f.head[:total]
	for c := range head {
		head[c] = -1
	}
	if cap(f.next) < n {
		f.next = make([]int, n)
	}
	next := f.next[:n]

	cellOf := make([]int, n)
	for i := 0; i < n; i++ {
		fx, fy, fz := b.Fractional(atoms.X[i], atoms.Y[i], atoms.Z[i])
		cx := binFraction(fx, nc[0], b.Periodic[0])
		cy := binFraction(fy, nc[1], b.Periodic[1])
		cz := binFraction(fz, nc[2], b.Periodic[2])
		c := (cz*nc[1]+cy)*nc[0] + cx
		cellOf[i] = c
		next[i] = head[c]
		head[c] = i
	}

	cut2 := f.Cutoff * f.Cutoff
	for i := 0; i < n; i++ {
		count := 0
		base := i * l.MN
		c := cellOf[i]
		cx := c % nc[0]
		cy := (c / nc[0]) % nc[1]
		cz := c / (nc[0] * nc[1])

		for ox := -1; ox <= 1; ox++ {
			jx, okx := shiftCell(cx, ox, nc[0], b.Periodic[0])
			if !okx {
				continue
			}
			for oy := -1; oy <= 1; oy++ {
				jy, oky := shiftCell(cy, oy, nc[1], b.Periodic[1])
				if !oky {
					continue
				}
				for oz := -1; oz <= 1; oz++ {
					jz, okz := shiftCell(cz, oz, nc[2], b.Periodic[2])
					if !okz {
						continue
					}
					for j := head[(jz*nc[1]+jy)*nc[0]+jx]; j >= 0; j = next[j] {
						if j == i {
							continue
						}
						dx := atoms.X[j] - atoms.X[i]
						dy := atoms.Y[j] - atoms.Y[i]
						dz := atoms.Z[j] - atoms.Z[i]
						b.MinimumImage(&dx, &dy, &dz)
						if dx*dx+dy*dy+dz*dz >= cut2 {
							continue
						}
						if count == l.MN {
							return fmt.Errorf("%w: atom %d needs more than %d slots",
								md.ErrTooManyNeighbors, i, l.MN)
						}
						l.Idx[base+count] = j
						count++
					}
				}
			}
		}
		l.Count[i] = count
	}
	return nil
}

// binFraction bins one fractional coordinate. Periodic axes fold into
// [0, 1); non-periodic axes clamp to the boundary bin, so an atom that
// drifted past a free face stays adjacent to its real neighbors instead of
// wrapping to the opposite one.
func binFraction(fr float64, nc int, periodic bool) int {
	if periodic {
		fr -= math.Floor(fr)
	}
	c := int(math.Floor(fr * float64(nc)))
	if c < 0 {
		c = 0
	} else if c >= nc {
		c = nc - 1
	}
	return c
}

func shiftCell(c, off, nc int, periodic bool) (int, bool) {
	c += off
	if periodic {
		if c < 0 {
			c += nc
		} else if c >= nc {
			c -= nc
		}
		return c, true
	}
	if c < 0 || c >= nc {
		return 0, false
	}
	return c, true
}
