package box

import (
	"math"
	"testing"
)

func TestOrthogonalMinimumImage(t *testing.T) {
	b, err := NewOrthogonal(10, 10, 10, [3]bool{true, true, true})
	if err != nil {
		t.Fatalf("box: %v", err)
	}

	dx, dy, dz := 6.0, -6.0, 0.3
	b.MinimumImage(&dx, &dy, &dz)

	if math.Abs(dx-(-4.0)) > 1e-12 {
		t.Errorf("expected dx -4, got %f", dx)
	}
	if math.Abs(dy-4.0) > 1e-12 {
		t.Errorf("expected dy 4, got %f", dy)
	}
	if math.Abs(dz-0.3) > 1e-12 {
		t.Errorf("expected dz 0.3, got %f", dz)
	}
}

func TestMinimumImageSpansManyCells(t *testing.T) {
	b, _ := NewOrthogonal(10, 10, 10, [3]bool{true, true, true})

	dx, dy, dz := 26.0, -37.0, 0.0
	b.MinimumImage(&dx, &dy, &dz)

	if math.Abs(dx-(-4.0)) > 1e-12 {
		t.Errorf("expected dx -4, got %f", dx)
	}
	if math.Abs(dy-3.0) > 1e-12 {
		t.Errorf("expected dy 3, got %f", dy)
	}
	if dz != 0 {
		t.Errorf("expected dz 0, got %f", dz)
	}
}

func TestNonPeriodicAxisNotWrapped(t *testing.T) {
	b, _ := NewOrthogonal(10, 10, 10, [3]bool{true, false, true})

	dx, dy, dz := 6.0, 8.0, -6.0
	b.MinimumImage(&dx, &dy, &dz)

	if math.Abs(dy-8.0) > 1e-12 {
		t.Errorf("non-periodic axis was wrapped: got %f", dy)
	}
	if math.Abs(dx-(-4.0)) > 1e-12 || math.Abs(dz-4.0) > 1e-12 {
		t.Errorf("periodic axes not wrapped: got %f, %f", dx, dz)
	}
}

func TestTriclinicMatchesOrthogonal(t *testing.T) {
	ortho, _ := NewOrthogonal(10, 8, 6, [3]bool{true, true, true})
	tri, err := NewTriclinic([9]float64{10, 0, 0, 0, 8, 0, 0, 0, 6}, [3]bool{true, true, true})
	if err != nil {
		t.Fatalf("triclinic: %v", err)
	}

	cases := [][3]float64{
		{6, -5, 2.9}, {0.1, 0.1, 0.1}, {-9.9, 7.9, -5.9}, {15, -13, 7},
	}
	for _, c := range cases {
		ox, oy, oz := c[0], c[1], c[2]
		tx, ty, tz := c[0], c[1], c[2]
		ortho.MinimumImage(&ox, &oy, &oz)
		tri.MinimumImage(&tx, &ty, &tz)

		if math.Abs(ox-tx) > 1e-10 || math.Abs(oy-ty) > 1e-10 || math.Abs(oz-tz) > 1e-10 {
			t.Errorf("case %v: orthogonal (%f,%f,%f) vs triclinic (%f,%f,%f)",
				c, ox, oy, oz, tx, ty, tz)
		}
	}
}

func TestTriclinicSheared(t *testing.T) {
	// a=(10,0,0), b=(3,9,0), c=(0,0,8); a displacement of almost one b
	// vector should wrap to something short.
	tri, err := NewTriclinic([9]float64{10, 3, 0, 0, 9, 0, 0, 0, 8}, [3]bool{true, true, true})
	if err != nil {
		t.Fatalf("triclinic: %v", err)
	}

	dx, dy, dz := 3.1, 8.9, 0.0
	tri.MinimumImage(&dx, &dy, &dz)

	r := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if r > 1.0 {
		t.Errorf("expected a short wrapped displacement, got length %f", r)
	}
}

func TestSingularMatrixRejected(t *testing.T) {
	_, err := NewTriclinic([9]float64{1, 0, 0, 2, 0, 0, 0, 0, 1}, [3]bool{true, true, true})
	if err == nil {
		t.Error("expected error for singular lattice matrix")
	}
}

func TestNonPositiveEdgeRejected(t *testing.T) {
	if _, err := NewOrthogonal(10, 0, 10, [3]bool{true, true, true}); err == nil {
		t.Error("expected error for zero edge length")
	}
}

func TestVolumeAndThickness(t *testing.T) {
	b, _ := NewOrthogonal(10, 8, 6, [3]bool{true, true, true})
	if math.Abs(b.Volume()-480) > 1e-12 {
		t.Errorf("expected volume 480, got %f", b.Volume())
	}

	tri, _ := NewTriclinic([9]float64{10, 0, 0, 0, 8, 0, 0, 0, 6}, [3]bool{true, true, true})
	for axis, want := range []float64{10, 8, 6} {
		if math.Abs(tri.Thickness(axis)-want) > 1e-10 {
			t.Errorf("axis %d: expected thickness %f, got %f", axis, want, tri.Thickness(axis))
		}
	}
}
