package core

import (
	"encoding/json"
	"fmt"
	"io"

	"gonum.org/v1/gonum/mat"
)

// LoadFlatMetricFile decodes a flat metric from r, given as a JSON array of
// dim rows of dim numbers each (row-major, symmetric). This is a stand-in
// for the real collaborator: computing the actual detector-network Fisher
// metric is out of scope here, but callers still need a concrete metric to
// drive a ScanState with, whether for tests or for a scanner run seeded
// from a metric computed by another tool.
func LoadFlatMetricFile(r io.Reader, dim int) (*mat.SymDense, error) {
	var rows [][]float64
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, fmt.Errorf("latticescan: decoding flat metric: %w", err)
	}
	if len(rows) != dim {
		return nil, fmt.Errorf("%w: flat metric has %d rows, want %d", ErrInvalidDimension, len(rows), dim)
	}

	g := mat.NewSymDense(dim, nil)
	for i, row := range rows {
		if len(row) != dim {
			return nil, fmt.Errorf("%w: flat metric row %d has %d entries, want %d", ErrInvalidDimension, i, len(row), dim)
		}
		for j := i; j < dim; j++ {
			g.SetSym(i, j, row[j])
		}
	}
	return g, nil
}
