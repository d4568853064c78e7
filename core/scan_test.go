package core

import (
	"context"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/ridgeline-astro/latticescan/model"
)

func identity(dim int) *mat.SymDense {
	g := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		g.SetSym(i, i, 1)
	}
	return g
}

// Scenario A: a degenerate single-point sky region with no spin-down band
// must initialise, report that point as Current, and finish on the very
// first Advance.
func TestScenarioADegenerateSinglePoint(t *testing.T) {
	vertices := []model.SkyPosition{{Longitude: 1.0, Latitude: 0.5, System: model.Equatorial}}
	spins := model.SpinRange{Fkdot0: model.PulsarSpins{100, 0, 0, 0}}
	boundary, origin, err := NewBoundary(vertices, spins)
	if err != nil {
		t.Fatalf("NewBoundary error: %v", err)
	}

	scan, err := NewScanState(context.Background(), InitParams{
		TSpan:    1e6,
		Boundary: boundary,
		Origin:   origin,
		Metric:   ConstantMetric(identity(boundary.Dim())),
		Mismatch: 0.02,
	})
	if err != nil {
		t.Fatalf("NewScanState error: %v", err)
	}
	defer scan.Close()

	pt, err := scan.Current(model.Equatorial)
	if err != nil {
		t.Fatalf("Current error: %v", err)
	}
	if math.Abs(pt.Alpha-1.0) > 1e-6 || math.Abs(pt.Delta-0.5) > 1e-6 {
		t.Fatalf("Current = %+v, want alpha=1.0 delta=0.5", pt)
	}

	outcome, err := scan.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if outcome != Finished {
		t.Fatalf("Advance = %v, want Finished for a degenerate point region", outcome)
	}
}

// Scenario B: a small sky triangle with no spin-down band produces at
// least one template, all of which land inside the boundary.
func TestScenarioBSkyPatchNoSpindown(t *testing.T) {
	vertices := []model.SkyPosition{
		{Longitude: 0.1, Latitude: 0.1, System: model.Equatorial},
		{Longitude: 0.2, Latitude: 0.1, System: model.Equatorial},
		{Longitude: 0.15, Latitude: 0.2, System: model.Equatorial},
	}
	spins := model.SpinRange{Fkdot0: model.PulsarSpins{100, 0, 0, 0}}
	boundary, origin, err := NewBoundary(vertices, spins)
	if err != nil {
		t.Fatalf("NewBoundary error: %v", err)
	}

	scan, err := NewScanState(context.Background(), InitParams{
		TSpan:    1e6,
		Boundary: boundary,
		Origin:   origin,
		Metric:   ConstantMetric(identity(boundary.Dim())),
		Mismatch: 0.01,
	})
	if err != nil {
		t.Fatalf("NewScanState error: %v", err)
	}
	defer scan.Close()

	runner := NewBatchRunner(scan)
	count, err := runner.Run(context.Background(), model.Equatorial, 2000)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if count < 1 {
		t.Fatalf("expected at least one template, got %d", count)
	}
}

// Scenario C: a single sky point with a narrow spin-down band should yield
// more than one template, all within the box.
func TestScenarioCSpinBox(t *testing.T) {
	vertices := []model.SkyPosition{{Longitude: 1.0, Latitude: 0.5, System: model.Equatorial}}
	spins := model.SpinRange{
		Fkdot0:    model.PulsarSpins{100, -1e-10, 0, 0},
		FkdotBand: model.PulsarSpins{0, 2e-10, 0, 0},
	}
	boundary, origin, err := NewBoundary(vertices, spins)
	if err != nil {
		t.Fatalf("NewBoundary error: %v", err)
	}

	scan, err := NewScanState(context.Background(), InitParams{
		TSpan:    1e7,
		Boundary: boundary,
		Origin:   origin,
		Metric:   ConstantMetric(identity(boundary.Dim())),
		Mismatch: 0.01,
	})
	if err != nil {
		t.Fatalf("NewScanState error: %v", err)
	}
	defer scan.Close()

	runner := NewBatchRunner(scan)
	var sawOutside bool
	runner.RegisterPointListener(func(pt model.PulsarDopplerParams) {
		lo := spins.Fkdot0[1] - epsReal8*math.Abs(spins.Fkdot0[1])
		hi := spins.Fkdot0[1] + spins.FkdotBand[1] + epsReal8*math.Abs(spins.Fkdot0[1]+spins.FkdotBand[1])
		if pt.Fkdot[1] < lo || pt.Fkdot[1] > hi {
			sawOutside = true
		}
	})
	count, err := runner.Run(context.Background(), model.Equatorial, 2000)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if count < 1 {
		t.Fatalf("expected at least one template in the spin box")
	}
	if sawOutside {
		t.Fatalf("saw a template with f1dot outside the configured band")
	}
}

// Scenario F: any valid finite region eventually yields Finished rather
// than scanning forever.
func TestScenarioFExhaustion(t *testing.T) {
	vertices := []model.SkyPosition{
		{Longitude: 0.1, Latitude: 0.1, System: model.Equatorial},
		{Longitude: 0.13, Latitude: 0.1, System: model.Equatorial},
		{Longitude: 0.115, Latitude: 0.13, System: model.Equatorial},
	}
	spins := model.SpinRange{Fkdot0: model.PulsarSpins{100, 0, 0, 0}}
	boundary, origin, err := NewBoundary(vertices, spins)
	if err != nil {
		t.Fatalf("NewBoundary error: %v", err)
	}

	scan, err := NewScanState(context.Background(), InitParams{
		TSpan:    1e6,
		Boundary: boundary,
		Origin:   origin,
		Metric:   ConstantMetric(identity(boundary.Dim())),
		Mismatch: 0.5,
	})
	if err != nil {
		t.Fatalf("NewScanState error: %v", err)
	}
	defer scan.Close()

	runner := NewBatchRunner(scan)
	count, err := runner.Run(context.Background(), model.Equatorial, 10000)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if count >= 10000 {
		t.Fatalf("scan did not exhaust within 10000 templates; advance algorithm may be looping")
	}
}

// Scenario E: given canonical point O + (3,-2,1)^T * G, built from a real
// origin and a real covering generator, inverting to Doppler and
// re-converting to canonical must reproduce O + offset within epsilon.
func TestScenarioERoundTrip(t *testing.T) {
	const tSpan = 1e6
	const dim = 3

	vn := Vec3{X: 0.2, Y: 0.3, Z: math.Sqrt(1 - 0.2*0.2 - 0.3*0.3)}
	fkdot := model.PulsarSpins{100, 0, 0, 0}

	origin, err := dopplerToCanonicalVec(vn, fkdot, tSpan, dim)
	if err != nil {
		t.Fatalf("dopplerToCanonicalVec error: %v", err)
	}

	generator, err := findCoveringGenerator(dim, 0.01, identity(dim))
	if err != nil {
		t.Fatalf("findCoveringGenerator error: %v", err)
	}

	offset := indexToCanonicalOffset([]int{3, -2, 1}, generator)
	canonical := make([]float64, dim)
	for i := range canonical {
		canonical[i] = origin[i] + offset[i]
	}

	vn2, fkdot2, err := canonicalVecToDoppler(canonical, model.HemisphereNorth, tSpan)
	if err != nil {
		t.Fatalf("canonicalVecToDoppler error: %v", err)
	}
	roundTripped, err := dopplerToCanonicalVec(vn2, fkdot2, tSpan, dim)
	if err != nil {
		t.Fatalf("dopplerToCanonicalVec (round trip) error: %v", err)
	}

	for i := range canonical {
		if math.Abs(roundTripped[i]-canonical[i]) > 1e-9 {
			t.Fatalf("component %d: round trip = %g, want %g", i, roundTripped[i], canonical[i])
		}
	}
}

func TestAdvanceDoesNotReturnOrigin(t *testing.T) {
	vertices := []model.SkyPosition{
		{Longitude: 0.1, Latitude: 0.1, System: model.Equatorial},
		{Longitude: 0.2, Latitude: 0.1, System: model.Equatorial},
		{Longitude: 0.15, Latitude: 0.2, System: model.Equatorial},
	}
	spins := model.SpinRange{Fkdot0: model.PulsarSpins{100, 0, 0, 0}}
	boundary, origin, err := NewBoundary(vertices, spins)
	if err != nil {
		t.Fatalf("NewBoundary error: %v", err)
	}

	scan, err := NewScanState(context.Background(), InitParams{
		TSpan:    1e6,
		Boundary: boundary,
		Origin:   origin,
		Metric:   ConstantMetric(identity(boundary.Dim())),
		Mismatch: 0.01,
	})
	if err != nil {
		t.Fatalf("NewScanState error: %v", err)
	}
	defer scan.Close()

	startIndex, err := scan.Index()
	if err != nil {
		t.Fatalf("Index error: %v", err)
	}
	for _, v := range startIndex {
		if v != 0 {
			t.Fatalf("expected scan to start at the zero index, got %v", startIndex)
		}
	}

	outcome, err := scan.Advance(context.Background())
	if err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	if outcome != Advanced {
		t.Fatalf("expected the first Advance on a multi-point region to succeed")
	}
	afterIndex, err := scan.Index()
	if err != nil {
		t.Fatalf("Index error: %v", err)
	}
	allZero := true
	for _, v := range afterIndex {
		if v != 0 {
			allZero = false
		}
	}
	if allZero {
		t.Fatalf("expected Advance to move away from the origin index")
	}
}

func TestSetIndexRoundTrip(t *testing.T) {
	vertices := []model.SkyPosition{
		{Longitude: 0.1, Latitude: 0.1, System: model.Equatorial},
		{Longitude: 0.2, Latitude: 0.1, System: model.Equatorial},
		{Longitude: 0.15, Latitude: 0.2, System: model.Equatorial},
	}
	spins := model.SpinRange{Fkdot0: model.PulsarSpins{100, 0, 0, 0}}
	boundary, origin, err := NewBoundary(vertices, spins)
	if err != nil {
		t.Fatalf("NewBoundary error: %v", err)
	}

	scan, err := NewScanState(context.Background(), InitParams{
		TSpan:    1e6,
		Boundary: boundary,
		Origin:   origin,
		Metric:   ConstantMetric(identity(boundary.Dim())),
		Mismatch: 0.01,
	})
	if err != nil {
		t.Fatalf("NewScanState error: %v", err)
	}
	defer scan.Close()

	if _, err := scan.Advance(context.Background()); err != nil {
		t.Fatalf("Advance error: %v", err)
	}
	checkpoint, err := scan.Index()
	if err != nil {
		t.Fatalf("Index error: %v", err)
	}

	if err := scan.SetIndex([]int{0, 0, 0}); err != nil {
		t.Fatalf("SetIndex error: %v", err)
	}
	if err := scan.SetIndex(checkpoint); err != nil {
		t.Fatalf("SetIndex error: %v", err)
	}
	restored, err := scan.Index()
	if err != nil {
		t.Fatalf("Index error: %v", err)
	}
	for i := range checkpoint {
		if restored[i] != checkpoint[i] {
			t.Fatalf("restored index %v does not match checkpoint %v", restored, checkpoint)
		}
	}
}

func TestCloseIsNotReusable(t *testing.T) {
	vertices := []model.SkyPosition{{Longitude: 1.0, Latitude: 0.5, System: model.Equatorial}}
	spins := model.SpinRange{Fkdot0: model.PulsarSpins{100, 0, 0, 0}}
	boundary, origin, err := NewBoundary(vertices, spins)
	if err != nil {
		t.Fatalf("NewBoundary error: %v", err)
	}
	scan, err := NewScanState(context.Background(), InitParams{
		TSpan:    1e6,
		Boundary: boundary,
		Origin:   origin,
		Metric:   ConstantMetric(identity(boundary.Dim())),
		Mismatch: 0.02,
	})
	if err != nil {
		t.Fatalf("NewScanState error: %v", err)
	}
	if err := scan.Close(); err != nil {
		t.Fatalf("first Close error: %v", err)
	}
	if err := scan.Close(); err == nil {
		t.Fatalf("expected an error closing an already-closed scan")
	}
}
