package md

import (
	"math"
	"testing"
)

func TestBuildLatticeDiamond(t *testing.T) {
	atoms, b, err := BuildLattice(Diamond(5.431), 2, 3, 1, 28.085)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if atoms.N != 8*2*3*1 {
		t.Errorf("expected %d atoms, got %d", 8*2*3*1, atoms.N)
	}
	if math.Abs(b.Length(0)-2*5.431) > 1e-12 {
		t.Errorf("expected box length %f, got %f", 2*5.431, b.Length(0))
	}
	if math.Abs(b.Length(1)-3*5.431) > 1e-12 {
		t.Errorf("expected box length %f, got %f", 3*5.431, b.Length(1))
	}

	for i := 0; i < atoms.N; i++ {
		if atoms.Mass[i] != 28.085 {
			t.Fatalf("atom %d: expected mass 28.085, got %f", i, atoms.Mass[i])
		}
	}
}

func TestBuildLatticeRejectsBadCounts(t *testing.T) {
	if _, _, err := BuildLattice(SimpleCubic(1), 0, 1, 1, 1); err == nil {
		t.Error("expected error for zero supercell count")
	}
	if _, _, err := BuildLattice(UnitCell{A: [3]float64{1, 1, 1}}, 1, 1, 1, 1); err == nil {
		t.Error("expected error for empty basis")
	}
}

func TestFCCBasisCount(t *testing.T) {
	atoms, _, err := BuildLattice(FCC(4.05), 2, 2, 2, 26.98)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if atoms.N != 4*8 {
		t.Errorf("expected 32 atoms, got %d", atoms.N)
	}
}
