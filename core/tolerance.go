package core

import "math"

// epsReal8 is the fixed relative tolerance used for every floating-point
// boundary comparison in this package: single-vertex polygon matching, the
// unit-disk check when inverting a canonical point, and the spin-down box
// test (hemisphere classification is an exact sign test). It is not configurable; the
// scanner's output is defined to be deterministic given its inputs, and a
// caller-tunable tolerance would undermine that.
const epsReal8 = 1e-10

// fcmp compares x1 and x2 for approximate equality using a tolerance scaled
// to the binary exponent of the larger operand. It mirrors the well-known
// gsl_fcmp relative-comparison algorithm: returns -1 if x1 is definitely
// less than x2, 1 if definitely greater, and 0 if they agree to within
// epsilon. No Go package in the dependency graph exposes an equivalent
// function, so it is reimplemented directly here.
func fcmp(x1, x2, epsilon float64) int {
	if x1 == x2 {
		return 0
	}
	maxAbs := math.Abs(x1)
	if a2 := math.Abs(x2); a2 > maxAbs {
		maxAbs = a2
	}
	_, exponent := math.Frexp(maxAbs)
	delta := math.Ldexp(epsilon, exponent)
	difference := x1 - x2
	switch {
	case difference > delta:
		return 1
	case difference < -delta:
		return -1
	default:
		return 0
	}
}

func relEqual(x1, x2, epsilon float64) bool { return fcmp(x1, x2, epsilon) == 0 }
func relGE(x1, x2, epsilon float64) bool    { return fcmp(x1, x2, epsilon) >= 0 }
func relLE(x1, x2, epsilon float64) bool    { return fcmp(x1, x2, epsilon) <= 0 }
func relGT(x1, x2, epsilon float64) bool    { return fcmp(x1, x2, epsilon) > 0 }
