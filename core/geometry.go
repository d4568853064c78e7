package core

import (
	"math"

	"github.com/ridgeline-astro/latticescan/model"
)

// obliquityRad is the mean obliquity of the ecliptic used to rotate between
// the equatorial and ecliptic frames (IAU 1976 value, radians).
const obliquityRad = 0.4090928042223289

var sinObliquity, cosObliquity = math.Sincos(obliquityRad)

// Vec3 is a 3D Cartesian vector. Within this package it is almost always a
// unit vector pointing at a sky position, expressed in ecliptic coordinates.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// MulScalar returns v scaled by k.
func (v Vec3) MulScalar(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Unit returns v rescaled to unit length. For the zero vector the result has
// NaN components, so callers must rule that case out beforehand.
func (v Vec3) Unit() Vec3 {
	return v.MulScalar(1 / v.Norm())
}

// Hemisphere classifies v by the sign of its ecliptic Z component. A zero Z
// component is ambiguous and reported as HemisphereBoth; callers treat that
// as an error rather than guessing.
func (v Vec3) Hemisphere() model.Hemisphere {
	switch {
	case v.Z > 0:
		return model.HemisphereNorth
	case v.Z < 0:
		return model.HemisphereSouth
	default:
		return model.HemisphereBoth
	}
}

// SkyToVec3 converts a sky position into a unit 3-vector in ecliptic
// coordinates, rotating out of the equatorial frame first if necessary.
func SkyToVec3(pos model.SkyPosition) Vec3 {
	sinA, cosA := math.Sincos(pos.Longitude)
	sinD, cosD := math.Sincos(pos.Latitude)
	n := Vec3{X: cosA * cosD, Y: sinA * cosD, Z: sinD}
	if pos.System == model.Equatorial {
		return Vec3{
			X: n.X,
			Y: n.Y*cosObliquity + n.Z*sinObliquity,
			Z: -n.Y*sinObliquity + n.Z*cosObliquity,
		}
	}
	return n
}

// Vec3ToSky converts a unit 3-vector expressed in ecliptic coordinates back
// into a sky position, in the frame requested by sys. v need not be exactly
// unit length; it is renormalised before the inverse trig functions are
// applied.
func Vec3ToSky(v Vec3, sys model.CoordinateSystem) model.SkyPosition {
	n := v.Unit()
	if sys == model.Equatorial {
		n = Vec3{
			X: n.X,
			Y: n.Y*cosObliquity - n.Z*sinObliquity,
			Z: n.Y*sinObliquity + n.Z*cosObliquity,
		}
	}
	lon := math.Atan2(n.Y, n.X)
	if lon < 0 {
		lon += 2 * math.Pi
	}
	lat := math.Asin(clamp(n.Z, -1, 1))
	return model.SkyPosition{Longitude: lon, Latitude: lat, System: sys}
}

// CenterOfMass returns the arithmetic mean of points. The result is not
// renormalised onto the unit sphere; callers that need a sky direction out
// of it must call Unit() themselves.
func CenterOfMass(points []Vec3) Vec3 {
	var sum Vec3
	for _, p := range points {
		sum = sum.Add(p)
	}
	if len(points) == 0 {
		return sum
	}
	return sum.MulScalar(1 / float64(len(points)))
}

// HemisphereOfList classifies a list of sky vectors as belonging to a single
// hemisphere. The hemisphere is fixed by the first vector with a non-zero Z
// component; any later vector with the opposite sign yields HemisphereBoth,
// signalling a region that straddles the ecliptic. An all-zero-Z list (every
// vector lies exactly on the ecliptic plane) is reported as HemisphereBoth
// as well, since there is no sign to break the tie.
func HemisphereOfList(points []Vec3) model.Hemisphere {
	result := model.HemisphereBoth
	for _, p := range points {
		h := p.Hemisphere()
		if h == model.HemisphereBoth {
			continue
		}
		if result == model.HemisphereBoth {
			result = h
		} else if result != h {
			return model.HemisphereBoth
		}
	}
	return result
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
