package core

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestAnStarBasisIsSquare(t *testing.T) {
	for n := 1; n <= 4; n++ {
		basis, err := anStarBasis(n)
		if err != nil {
			t.Fatalf("anStarBasis(%d) error: %v", n, err)
		}
		rows, cols := basis.Dims()
		if rows != n || cols != n {
			t.Fatalf("anStarBasis(%d) has shape %dx%d, want %dx%d", n, rows, cols, n, n)
		}
	}
}

func TestAnStarBasisRejectsNonPositiveDimension(t *testing.T) {
	if _, err := anStarBasis(0); err == nil {
		t.Fatalf("expected an error for dimension 0")
	}
}

func TestFindCoveringGeneratorShape(t *testing.T) {
	dim := 3
	g := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		g.SetSym(i, i, 1)
	}
	generator, err := findCoveringGenerator(dim, 0.1, g)
	if err != nil {
		t.Fatalf("findCoveringGenerator error: %v", err)
	}
	rows, cols := generator.Dims()
	if rows != dim || cols != dim {
		t.Fatalf("generator has shape %dx%d, want %dx%d", rows, cols, dim, dim)
	}
}

func TestFindCoveringGeneratorRejectsNonPositiveMismatch(t *testing.T) {
	dim := 2
	g := mat.NewSymDense(dim, nil)
	g.SetSym(0, 0, 1)
	g.SetSym(1, 1, 1)
	if _, err := findCoveringGenerator(dim, 0, g); err == nil {
		t.Fatalf("expected an error for zero mismatch")
	}
}

func TestIndexToCanonicalOffsetIsLinear(t *testing.T) {
	generator := mat.NewDense(2, 2, []float64{1, 0, 0, 2})
	offset := indexToCanonicalOffset([]int{3, -1}, generator)
	if math.Abs(offset[0]-3) > 1e-12 || math.Abs(offset[1]-(-2)) > 1e-12 {
		t.Fatalf("offset = %v, want [3 -2]", offset)
	}
}
