package core

import "gonum.org/v1/gonum/mat"

// FlatMetric computes a flat (piecewise-constant) approximation to the
// detector-network Fisher information metric over a search region, for a
// canonical space of the given dimension. Producing the metric itself is
// out of scope for this package: a real implementation draws on the
// detector network's antenna pattern and ephemeris, both of which are
// external collaborators here. Callers supply one when constructing a
// ScanState.
type FlatMetric func(dim int, refTimeGPS, startTimeGPS, tSpan float64) (mat.Symmetric, error)

// ConstantMetric wraps a fixed matrix as a FlatMetric, ignoring its
// arguments. It exists for tests and simple callers that already have a
// metric in hand and don't need it recomputed per region.
func ConstantMetric(g *mat.SymDense) FlatMetric {
	return func(dim int, refTimeGPS, startTimeGPS, tSpan float64) (mat.Symmetric, error) {
		return g, nil
	}
}
