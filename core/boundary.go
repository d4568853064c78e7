package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ridgeline-astro/latticescan/model"
)

// PointInPolygon reports whether p lies inside poly. It casts a horizontal
// ray from p and counts edge crossings to both the left and the right,
// treating p as inside if either count comes out odd; this absorbs the
// usual on-edge/on-vertex ambiguities of a plain single-direction ray cast.
// A one-vertex polygon is a degenerate point region and matches only within
// the fixed relative tolerance; a two-vertex polygon is never valid.
func PointInPolygon(p model.Vertex2D, poly model.SkyPolygon) (bool, error) {
	n := len(poly.Vertices)
	switch {
	case n == 0:
		return false, fmt.Errorf("%w: empty polygon", ErrDegeneratePolygon)
	case n == 1:
		v := poly.Vertices[0]
		return relEqual(v.X, p.X, epsReal8) && relEqual(v.Y, p.Y, epsReal8), nil
	case n == 2:
		return false, fmt.Errorf("%w: two vertices is not a region", ErrDegeneratePolygon)
	}

	var crossLeft, crossRight int
	for i := 0; i < n; i++ {
		v1 := poly.Vertices[i]
		v2 := poly.Vertices[(i+1)%n]
		if v1.Y == v2.Y {
			continue
		}
		if p.Y < math.Min(v1.Y, v2.Y) || p.Y >= math.Max(v1.Y, v2.Y) {
			continue
		}
		xInter := v1.X + (p.Y-v1.Y)*(v2.X-v1.X)/(v2.Y-v1.Y)
		if xInter > p.X {
			crossLeft++
		}
		if xInter < p.X {
			crossRight++
		}
	}
	return crossLeft%2 == 1 || crossRight%2 == 1, nil
}

// insideSpinBox reports whether fkdot lies within spins, component by
// component, using a symmetric relative tolerance on each bound so points
// that land exactly on an edge (up to floating-point noise) are accepted.
func insideSpinBox(fkdot model.PulsarSpins, spins model.SpinRange) bool {
	for s := 0; s < model.MaxSpinDown; s++ {
		lo := spins.Fkdot0[s]
		hi := spins.Fkdot0[s] + spins.FkdotBand[s]
		tolLo := epsReal8 * math.Abs(lo)
		tolHi := epsReal8 * math.Abs(hi)
		if fkdot[s] < lo-tolLo || fkdot[s] > hi+tolHi {
			return false
		}
	}
	return true
}

// InsideBoundary reports whether a Doppler point (sky direction vn, spin
// vector fkdot) lies inside b: on the correct hemisphere, inside the sky
// polygon's (nX, nY) projection, and inside the spin-down box.
func InsideBoundary(vn Vec3, fkdot model.PulsarSpins, b model.Boundary) (bool, error) {
	if vn.Hemisphere() != b.Hemisphere {
		return false, nil
	}
	inPoly, err := PointInPolygon(model.Vertex2D{X: vn.X, Y: vn.Y}, b.Sky)
	if err != nil {
		return false, err
	}
	if !inPoly {
		return false, nil
	}
	return insideSpinBox(fkdot, b.Spins), nil
}

// ParseSkyRegionString parses a whitespace- and comma-separated list of
// (alpha, delta) pairs in equatorial radians, e.g. "(1.0,0.5) (0.2,0.3)" or
// the equivalent "1.0 0.5 0.2 0.3". Parentheses and commas are treated as
// separators and may be omitted.
func ParseSkyRegionString(s string) ([]model.SkyPosition, error) {
	cleaned := strings.NewReplacer("(", " ", ")", " ", ",", " ").Replace(s)
	fields := strings.Fields(cleaned)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty sky region string", ErrDegeneratePolygon)
	}
	if len(fields)%2 != 0 {
		return nil, fmt.Errorf("%w: sky region string has an odd number of coordinates", ErrDegeneratePolygon)
	}

	points := make([]model.SkyPosition, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		alpha, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing right ascension %q: %v", ErrDegeneratePolygon, fields[i], err)
		}
		delta, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing declination %q: %v", ErrDegeneratePolygon, fields[i+1], err)
		}
		points = append(points, model.SkyPosition{Longitude: alpha, Latitude: delta, System: model.Equatorial})
	}
	return points, nil
}

// NewBoundary builds a Boundary from a list of sky positions and a spin
// range. It converts every vertex to ecliptic coordinates, classifies the
// region's hemisphere, and rejects regions that straddle the ecliptic rather
// than silently splitting them, as well as two-vertex regions. It also
// returns the (renormalised) centre of mass of the vertices, for use as the
// scan origin's sky component.
func NewBoundary(vertices []model.SkyPosition, spins model.SpinRange) (model.Boundary, Vec3, error) {
	if len(vertices) == 0 {
		return model.Boundary{}, Vec3{}, fmt.Errorf("%w: no sky vertices given", ErrDegeneratePolygon)
	}

	vecs := make([]Vec3, len(vertices))
	for i, pos := range vertices {
		vecs[i] = SkyToVec3(pos)
	}

	hemi := HemisphereOfList(vecs)
	if hemi == model.HemisphereBoth {
		return model.Boundary{}, Vec3{}, fmt.Errorf("%w", ErrBothHemispheres)
	}
	if len(vertices) == 2 {
		return model.Boundary{}, Vec3{}, fmt.Errorf("%w: two vertices is not a region", ErrDegeneratePolygon)
	}

	poly := model.SkyPolygon{Vertices: make([]model.Vertex2D, len(vecs))}
	for i, v := range vecs {
		poly.Vertices[i] = model.Vertex2D{X: v.X, Y: v.Y}
	}

	com := CenterOfMass(vecs)
	if com.Norm() == 0 {
		return model.Boundary{}, Vec3{}, fmt.Errorf("%w: sky region's centre of mass is the zero vector", ErrDegeneratePolygon)
	}
	centroid := com.Unit()
	if centroid.Hemisphere() == model.HemisphereBoth {
		// Lies exactly on the ecliptic; keep the region's own hemisphere sign.
		centroid.Z = math.Copysign(centroid.Z, hemisphereSign(hemi))
	}

	return model.Boundary{Sky: poly, Hemisphere: hemi, Spins: spins}, centroid, nil
}

func hemisphereSign(h model.Hemisphere) float64 {
	if h == model.HemisphereSouth {
		return -1
	}
	return 1
}
