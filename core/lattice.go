package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// anStarBasis returns an n x n matrix whose rows form a basis for the A*_n
// lattice (the dual of the A_n root lattice), normalised so its Euclidean
// covering radius equals 1.
//
// Construction: with simple roots of squared length 2, A_n's Gram matrix is
// the n x n tridiagonal Cartan matrix (2 on the diagonal, -1 on the first
// off-diagonals). The dual lattice's Gram matrix, in the same coordinate
// system, is its inverse; Cholesky-factoring that inverse gives a concrete
// basis realising it. The covering radius of the resulting (unscaled)
// lattice has the closed form rho^2 = n(n+2) / (12(n+1)) (Conway & Sloane,
// Sphere Packings, Lattices and Groups, ch. 4 & 6), which is used to rescale
// the basis to unit covering radius.
func anStarBasis(n int) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: lattice dimension must be positive, got %d", ErrInvalidDimension, n)
	}

	cartan := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		cartan.SetSym(i, i, 2)
		if i+1 < n {
			cartan.SetSym(i, i+1, -1)
		}
	}

	var cartanChol mat.Cholesky
	if ok := cartanChol.Factorize(cartan); !ok {
		return nil, fmt.Errorf("%w: A_%d Cartan matrix is not positive definite", ErrLattice, n)
	}
	var dualGram mat.SymDense
	if err := cartanChol.InverseTo(&dualGram); err != nil {
		return nil, fmt.Errorf("%w: inverting A_%d Cartan matrix: %v", ErrLattice, n, err)
	}

	var dualChol mat.Cholesky
	if ok := dualChol.Factorize(&dualGram); !ok {
		return nil, fmt.Errorf("%w: A*_%d dual Gram matrix is not positive definite", ErrLattice, n)
	}
	var lower mat.TriDense
	dualChol.LTo(&lower)

	basis := mat.NewDense(n, n, nil)
	basis.Copy(&lower)

	rho := math.Sqrt(float64(n*(n+2)) / float64(12*(n+1)))
	basis.Scale(1/rho, basis)

	return basis, nil
}

// findCoveringGenerator builds the generating matrix G such that the
// lattice { O + i^T G : i in Z^dim } has covering radius sqrt(mu) with
// respect to the flat metric g: G = sqrt(mu) * A * L^-T, where g = L L^T
// (Cholesky) and A is the unit-covering-radius A*_dim basis.
func findCoveringGenerator(dim int, mu float64, g mat.Symmetric) (*mat.Dense, error) {
	if mu <= 0 {
		return nil, fmt.Errorf("%w: mismatch must be positive, got %g", ErrInvalidDimension, mu)
	}
	rows, cols := g.Dims()
	if rows != dim || cols != dim {
		return nil, fmt.Errorf("%w: flat metric has shape %dx%d, want %dx%d", ErrInvalidDimension, rows, cols, dim, dim)
	}

	var metricChol mat.Cholesky
	if ok := metricChol.Factorize(g); !ok {
		return nil, fmt.Errorf("%w: flat metric is not positive definite", ErrMetric)
	}
	var l mat.TriDense
	metricChol.LTo(&l)

	var lInv mat.Dense
	if err := lInv.Inverse(&l); err != nil {
		return nil, fmt.Errorf("%w: inverting Cholesky factor of flat metric: %v", ErrLattice, err)
	}

	basis, err := anStarBasis(dim)
	if err != nil {
		return nil, err
	}
	basis.Scale(math.Sqrt(mu), basis)

	generator := mat.NewDense(dim, dim, nil)
	generator.Mul(basis, lInv.T())
	return generator, nil
}

// indexToCanonicalOffset returns i^T * generator: the canonical-coordinate
// offset from the lattice origin for integer index i.
func indexToCanonicalOffset(idx []int, generator *mat.Dense) []float64 {
	dim, _ := generator.Dims()
	out := make([]float64, dim)
	for k := 0; k < dim; k++ {
		var comp float64
		for j := 0; j < dim; j++ {
			comp += float64(idx[j]) * generator.At(j, k)
		}
		out[k] = comp
	}
	return out
}
