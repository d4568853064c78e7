package core

import (
	"context"

	"github.com/ridgeline-astro/latticescan/model"
)

// BatchRunner drives a ScanState to exhaustion, invoking registered
// listeners for every lattice point it visits. It generalises the
// tick-loop pattern used elsewhere in this codebase to the scanner's
// Advance/Finished protocol, honouring the rule that the scan's starting
// point must be read with Current before the first Advance.
type BatchRunner struct {
	scan      *ScanState
	listeners []func(model.PulsarDopplerParams)
}

// NewBatchRunner wraps an already-initialised scan.
func NewBatchRunner(scan *ScanState) *BatchRunner {
	return &BatchRunner{scan: scan}
}

// RegisterPointListener adds a callback invoked once per visited point, in
// the order points are produced.
func (r *BatchRunner) RegisterPointListener(fn func(model.PulsarDopplerParams)) {
	r.listeners = append(r.listeners, fn)
}

// Run emits the scan's starting point, then repeatedly advances and emits
// until the scan finishes or maxPoints points have been produced (maxPoints
// <= 0 means no limit). It returns the number of points emitted.
func (r *BatchRunner) Run(ctx context.Context, sys model.CoordinateSystem, maxPoints int) (int, error) {
	count := 0
	emit := func() error {
		pt, err := r.scan.Current(sys)
		if err != nil {
			return err
		}
		for _, fn := range r.listeners {
			fn(pt)
		}
		count++
		return nil
	}

	if err := emit(); err != nil {
		return count, err
	}

	for maxPoints <= 0 || count < maxPoints {
		outcome, err := r.scan.Advance(ctx)
		if err != nil {
			return count, err
		}
		if outcome == Finished {
			break
		}
		if err := emit(); err != nil {
			return count, err
		}
	}
	return count, nil
}
