package neighbor

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/san-kum/bondmd/internal/box"
	"github.com/san-kum/bondmd/internal/md"
)

func siliconCrystal(t *testing.T, nx, ny, nz int) (*md.Atoms, *box.Box) {
	t.Helper()
	atoms, b, err := md.BuildLattice(md.Diamond(5.431), nx, ny, nz, 28.085)
	if err != nil {
		t.Fatalf("lattice: %v", err)
	}
	return atoms, b
}

func TestBruteForceFindsPeriodicImage(t *testing.T) {
	b, _ := box.NewOrthogonal(12, 12, 12, [3]bool{true, true, true})
	atoms := md.NewAtoms(2, 1)
	atoms.X[0], atoms.X[1] = 0.5, 11.8 // 0.7 apart through the boundary

	f, err := NewFinder(3.0, 4)
	if err != nil {
		t.Fatalf("finder: %v", err)
	}
	l := NewList(2, 4)
	if err := f.Build(b, atoms, l); err != nil {
		t.Fatalf("build: %v", err)
	}

	if l.Count[0] != 1 || l.Idx[0] != 1 {
		t.Errorf("expected atom 0 to see atom 1 through the boundary, got count %d", l.Count[0])
	}
	if l.Count[1] != 1 || l.Idx[l.MN] != 0 {
		t.Errorf("expected atom 1 to see atom 0, got count %d", l.Count[1])
	}
}

func TestCellBuildMatchesBruteForce(t *testing.T) {
	atoms, b := siliconCrystal(t, 3, 3, 3) // 216 atoms, 4 cells per axis

	f, err := NewFinder(3.5, 32)
	if err != nil {
		t.Fatalf("finder: %v", err)
	}

	// jitter the lattice so the test is not order-degenerate
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < atoms.N; i++ {
		atoms.X[i] += 0.05 * rng.Float64()
		atoms.Y[i] += 0.05 * rng.Float64()
		atoms.Z[i] += 0.05 * rng.Float64()
	}

	cells := NewList(atoms.N, 32)
	if err := f.Build(b, atoms, cells); err != nil {
		t.Fatalf("cell build: %v", err)
	}
	brute := NewList(atoms.N, 32)
	if err := f.buildBrute(b, atoms, brute); err != nil {
		t.Fatalf("brute build: %v", err)
	}

	for i := 0; i < atoms.N; i++ {
		got := append([]int(nil), cells.Neighbors(i)...)
		want := append([]int(nil), brute.Neighbors(i)...)
		sort.Ints(got)
		sort.Ints(want)
		if len(got) != len(want) {
			t.Fatalf("atom %d: cell list has %d neighbors, brute force %d", i, len(got), len(want))
		}
		for s := range got {
			if got[s] != want[s] {
				t.Fatalf("atom %d: neighbor sets differ: %v vs %v", i, got, want)
			}
		}
	}
}

func TestCellBuildDriftedAtomFreeBoundary(t *testing.T) {
	atoms, periodic := siliconCrystal(t, 2, 2, 2) // 64 atoms, 3 cells per axis
	edge := periodic.Length(0)
	b, err := box.NewOrthogonal(edge, edge, edge, [3]bool{false, false, false})
	if err != nil {
		t.Fatalf("box: %v", err)
	}

	// atoms just past the free faces must stay binned with their real
	// neighbors, not wrap to the opposite boundary bin
	atoms.X[0] = -0.1
	atoms.Y[atoms.N-1] = edge + 0.1

	f, err := NewFinder(3.0, 32)
	if err != nil {
		t.Fatalf("finder: %v", err)
	}
	cells := NewList(atoms.N, 32)
	if err := f.Build(b, atoms, cells); err != nil {
		t.Fatalf("cell build: %v", err)
	}
	brute := NewList(atoms.N, 32)
	if err := f.buildBrute(b, atoms, brute); err != nil {
		t.Fatalf("brute build: %v", err)
	}

	for i := 0; i < atoms.N; i++ {
		got := append([]int(nil), cells.Neighbors(i)...)
		want := append([]int(nil), brute.Neighbors(i)...)
		sort.Ints(got)
		sort.Ints(want)
		if len(got) != len(want) {
			t.Fatalf("atom %d: cell list has %d neighbors, brute force %d", i, len(got), len(want))
		}
		for s := range got {
			if got[s] != want[s] {
				t.Fatalf("atom %d: neighbor sets differ: %v vs %v", i, got, want)
			}
		}
	}
}

func TestOverflowIsFatal(t *testing.T) {
	atoms, b := siliconCrystal(t, 2, 2, 2)

	f, err := NewFinder(3.5, 2)
	if err != nil {
		t.Fatalf("finder: %v", err)
	}
	l := NewList(atoms.N, 2)
	err = f.Build(b, atoms, l)
	if !errors.Is(err, md.ErrTooManyNeighbors) {
		t.Errorf("expected ErrTooManyNeighbors, got %v", err)
	}
}

func TestThinPeriodicBoxRejected(t *testing.T) {
	b, _ := box.NewOrthogonal(5, 20, 20, [3]bool{true, true, true})
	atoms := md.NewAtoms(2, 1)

	f, _ := NewFinder(3.0, 4)
	err := f.Build(b, atoms, NewList(2, 4))
	if !errors.Is(err, md.ErrBoxTooThin) {
		t.Errorf("expected ErrBoxTooThin, got %v", err)
	}
}

func TestBadCutoffRejected(t *testing.T) {
	if _, err := NewFinder(0, 4); !errors.Is(err, md.ErrBadCutoff) {
		t.Errorf("expected ErrBadCutoff, got %v", err)
	}
}

func TestListFind(t *testing.T) {
	l := NewList(3, 4)
	l.Count[0] = 2
	l.Idx[0], l.Idx[1] = 2, 1

	if s := l.Find(0, 1); s != 1 {
		t.Errorf("expected slot 1, got %d", s)
	}
	if s := l.Find(0, 0); s != -1 {
		t.Errorf("expected -1 for absent neighbor, got %d", s)
	}
}

func TestListSizeMismatchRejected(t *testing.T) {
	atoms, b := siliconCrystal(t, 2, 2, 2)
	f, _ := NewFinder(3.5, 32)

	err := f.Build(b, atoms, NewList(atoms.N-1, 32))
	if !errors.Is(err, md.ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
}
