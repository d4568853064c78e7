package core

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/mat"

	"github.com/ridgeline-astro/latticescan/internal/logging"
	"github.com/ridgeline-astro/latticescan/model"
)

// AdvanceResult reports the outcome of a single Advance call.
type AdvanceResult int

const (
	// Advanced means the scan moved to a new lattice point inside the
	// boundary; Current reflects it.
	Advanced AdvanceResult = iota
	// Finished means every reachable lattice point inside the boundary has
	// already been visited; the scan will not produce further points.
	Finished
)

func (r AdvanceResult) String() string {
	if r == Finished {
		return "finished"
	}
	return "advanced"
}

type scanStatus int

const (
	statusIdle scanStatus = iota
	statusReady
	statusFinished
)

// ScanRecorder receives instrumentation events emitted by a ScanState. It
// decouples this package from any one metrics backend; see the
// observability package for a Prometheus-backed implementation.
type ScanRecorder interface {
	ObserveInit(d time.Duration, err error)
	ObserveAdvance(d time.Duration)
	IncTemplatesGenerated()
}

// InitParams bundles everything needed to construct a ScanState.
type InitParams struct {
	// TSpan is the observation span T, in seconds.
	TSpan float64
	// StartTimeGPS is the start of the observation, GPS seconds.
	StartTimeGPS float64
	// Boundary describes the search region: sky vertices already resolved
	// to a single hemisphere (see NewBoundary) plus the spin-down box.
	Boundary model.Boundary
	// Origin is the sky direction the canonical origin is centred on
	// (normally the boundary's vertex centroid; see NewBoundary).
	Origin Vec3
	// Metric supplies the flat metric; required.
	Metric FlatMetric
	// Mismatch is the maximum allowed mismatch mu between a physical
	// point and its nearest lattice point.
	Mismatch float64

	Log      logging.Logger
	Recorder ScanRecorder
	Tracer   trace.Tracer
}

// ScanState is a deterministic iterator over the lattice points inside a
// bounded Doppler search region. It owns its boundary, origin, and
// generating matrix. It runs single-threaded with no internal goroutines or
// suspension points, and is not safe for concurrent use by more than one
// goroutine at a time; independent ScanStates may run concurrently as long
// as their FlatMetric collaborator is reentrant.
type ScanState struct {
	status scanStatus

	tSpan    float64
	dim      int
	boundary model.Boundary

	origin    []float64
	generator *mat.Dense

	index []int

	log      logging.Logger
	recorder ScanRecorder
	tracer   trace.Tracer
}

// NewScanState builds and validates a ScanState, ready to be queried with
// Current and stepped with Advance. The scan starts positioned at index
// zero (the canonical origin); that point is never returned by Advance —
// callers must call Current once before the first Advance to see it.
func NewScanState(ctx context.Context, p InitParams) (*ScanState, error) {
	start := time.Now()
	log := p.Log
	if log == nil {
		log = logging.Noop()
	}

	_, span := startSpan(ctx, p.Tracer, "latticescan.Init")
	defer span.End()

	s, err := newScanState(p, log)
	if p.Recorder != nil {
		p.Recorder.ObserveInit(time.Since(start), err)
	}
	if err != nil {
		log.Error(ctx, "scan init failed", logging.Any("error", err))
		return nil, err
	}
	log.Info(ctx, "scan initialised", logging.Int("dim", s.dim))
	return s, nil
}

func newScanState(p InitParams, log logging.Logger) (*ScanState, error) {
	if p.Metric == nil {
		return nil, fmt.Errorf("%w: flat metric collaborator is nil", ErrNilArgument)
	}
	if len(p.Boundary.Sky.Vertices) == 0 {
		return nil, fmt.Errorf("%w: boundary has no sky vertices", ErrDegeneratePolygon)
	}
	if p.TSpan <= 0 {
		return nil, fmt.Errorf("%w: observation span must be positive", ErrInvalidDimension)
	}

	dim := p.Boundary.Dim()

	midFkdot := p.Boundary.Spins.Fkdot0
	for s := 0; s < model.MaxSpinDown; s++ {
		midFkdot[s] += 0.5 * p.Boundary.Spins.FkdotBand[s]
	}

	origin, err := dopplerToCanonicalVec(p.Origin, midFkdot, p.TSpan, dim)
	if err != nil {
		return nil, err
	}

	g, err := p.Metric(dim, p.Boundary.Spins.RefTimeGPS, p.StartTimeGPS, p.TSpan)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetric, err)
	}

	generator, err := findCoveringGenerator(dim, p.Mismatch, g)
	if err != nil {
		return nil, err
	}

	return &ScanState{
		status:    statusReady,
		tSpan:     p.TSpan,
		dim:       dim,
		boundary:  p.Boundary,
		origin:    origin,
		generator: generator,
		index:     make([]int, dim),
		log:       log,
		recorder:  p.Recorder,
		tracer:    p.Tracer,
	}, nil
}

// Advance moves the scan to the next lattice point inside the boundary,
// using a deterministic depth-first, axis-by-axis search outward from the
// current index: for the first axis where stepping away from the origin
// (up if the current coordinate is non-negative, down otherwise) lands
// inside the boundary, take that step; if stepping up fails, also try
// jumping to -1 on that axis before giving up on it; axes that yield
// nothing are reset to zero and the search continues on the next axis.
// Advance always continues from the index last returned, never from an
// arbitrary one.
func (s *ScanState) Advance(ctx context.Context) (AdvanceResult, error) {
	if s.status != statusReady {
		return Finished, fmt.Errorf("%w: scan must be Ready to advance", ErrInvalidState)
	}

	start := time.Now()
	ctx, span := startSpan(ctx, s.tracer, "latticescan.Advance")
	defer span.End()
	if s.recorder != nil {
		defer func() { s.recorder.ObserveAdvance(time.Since(start)) }()
	}

	current := append([]int(nil), s.index...)

	for axis := 0; axis < s.dim; axis++ {
		goingUp := current[axis] >= 0

		trial := append([]int(nil), current...)
		if goingUp {
			trial[axis] = current[axis] + 1
		} else {
			trial[axis] = current[axis] - 1
		}
		ok, err := s.indexInsideBoundary(trial)
		if err != nil {
			return Finished, err
		}
		if ok {
			s.index = trial
			s.recordAdvance(ctx)
			return Advanced, nil
		}

		if goingUp {
			jump := append([]int(nil), current...)
			jump[axis] = -1
			ok, err := s.indexInsideBoundary(jump)
			if err != nil {
				return Finished, err
			}
			if ok {
				s.index = jump
				s.recordAdvance(ctx)
				return Advanced, nil
			}
		}

		current[axis] = 0
	}

	s.status = statusFinished
	s.log.Info(ctx, "scan exhausted")
	return Finished, nil
}

func (s *ScanState) recordAdvance(ctx context.Context) {
	if s.recorder != nil {
		s.recorder.IncTemplatesGenerated()
	}
	s.log.Debug(ctx, "advanced", logging.Any("index", s.index))
}

func (s *ScanState) indexInsideBoundary(idx []int) (bool, error) {
	vn, fkdot, err := s.indexToDoppler(idx)
	if err != nil {
		return false, err
	}
	return InsideBoundary(vn, fkdot, s.boundary)
}

func (s *ScanState) indexToDoppler(idx []int) (Vec3, model.PulsarSpins, error) {
	offset := indexToCanonicalOffset(idx, s.generator)
	canonical := make([]float64, s.dim)
	for i := range canonical {
		canonical[i] = s.origin[i] + offset[i]
	}
	vn, fkdot, err := canonicalVecToDoppler(canonical, s.boundary.Hemisphere, s.tSpan)
	if err != nil {
		return Vec3{}, model.PulsarSpins{}, err
	}
	// Spin-down orders beyond the active dimension don't vary (their band
	// is zero); carry their fixed value through rather than leaving them
	// at the zero value canonicalVecToDoppler leaves unset.
	numSpins := s.dim - 2
	for spin := numSpins; spin < model.MaxSpinDown; spin++ {
		fkdot[spin] = s.boundary.Spins.Fkdot0[spin]
	}
	return vn, fkdot, nil
}

// Current returns the Doppler parameters of the scan's current lattice
// point, with the sky position expressed in the requested coordinate
// system.
func (s *ScanState) Current(sys model.CoordinateSystem) (model.PulsarDopplerParams, error) {
	if s.status != statusReady {
		return model.PulsarDopplerParams{}, fmt.Errorf("%w: scan must be Ready to query the current point", ErrInvalidState)
	}
	vn, fkdot, err := s.indexToDoppler(s.index)
	if err != nil {
		return model.PulsarDopplerParams{}, err
	}
	sky := Vec3ToSky(vn, sys)
	return model.PulsarDopplerParams{
		RefTimeGPS: s.boundary.Spins.RefTimeGPS,
		Alpha:      sky.Longitude,
		Delta:      sky.Latitude,
		System:     sys,
		Fkdot:      fkdot,
	}, nil
}

// Index returns a copy of the scan's current lattice index.
func (s *ScanState) Index() ([]int, error) {
	if s.status != statusReady {
		return nil, fmt.Errorf("%w: scan must be Ready to read its index", ErrInvalidState)
	}
	return append([]int(nil), s.index...), nil
}

// SetIndex overwrites the scan's current lattice index, for checkpoint
// resumption. It performs no boundary check: a restored index is trusted
// to have been valid when it was saved.
func (s *ScanState) SetIndex(idx []int) error {
	if s.status != statusReady {
		return fmt.Errorf("%w: scan must be Ready to set its index", ErrInvalidState)
	}
	if len(idx) != s.dim {
		return fmt.Errorf("%w: index has dimension %d, want %d", ErrInvalidDimension, len(idx), s.dim)
	}
	s.index = append([]int(nil), idx...)
	return nil
}

// Dim returns the canonical-space dimension this scan operates in.
func (s *ScanState) Dim() int { return s.dim }

// Close releases the scan's owned resources. It is an error to Close a scan
// that has already been closed.
func (s *ScanState) Close() error {
	if s.status == statusIdle {
		return fmt.Errorf("%w: scan is already closed", ErrInvalidState)
	}
	s.generator = nil
	s.origin = nil
	s.index = nil
	s.boundary = model.Boundary{}
	s.status = statusIdle
	return nil
}

func startSpan(ctx context.Context, tracer trace.Tracer, name string) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = otel.Tracer("github.com/ridgeline-astro/latticescan")
	}
	return tracer.Start(ctx, name)
}
