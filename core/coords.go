package core

import (
	"fmt"
	"math"

	"github.com/ridgeline-astro/latticescan/model"
)

// auMeters is one astronomical unit, used as the fixed orbital radius R_orb
// of the Doppler modulation this scanner accounts for (the Earth's orbit
// around the Sun; it does not model binary-system orbits).
const auMeters = 1.495978707e11

// speedOfLightMPerS is the defined value of c in metres per second.
const speedOfLightMPerS = 299792458.0

// spinToCanonical returns w^(s) = 2*pi*T^(s+1)*fkdot[s] for every spin-down
// order, the canonical-coordinate image of a spin/spin-down vector.
func spinToCanonical(fkdot model.PulsarSpins, tSpan float64) model.PulsarSpins {
	var w model.PulsarSpins
	prefact := 2 * math.Pi * tSpan
	for s := 0; s < model.MaxSpinDown; s++ {
		w[s] = prefact * fkdot[s]
		prefact *= tSpan
	}
	return w
}

// dopplerToCanonicalVec maps a sky direction and spin vector to a canonical
// coordinate vector of length dim = 2 + numSpins, laid out as
// {w0, kX, kY, w1, w2, ...}.
func dopplerToCanonicalVec(vn Vec3, fkdot model.PulsarSpins, tSpan float64, dim int) ([]float64, error) {
	numSpins := dim - 2
	if numSpins < 1 || numSpins > model.MaxSpinDown {
		return nil, fmt.Errorf("%w: canonical dimension %d implies %d spin-down terms", ErrInvalidDimension, dim, numSpins)
	}
	w := spinToCanonical(fkdot, tSpan)
	prefix := (2 * math.Pi * auMeters / speedOfLightMPerS) * fkdot[0]

	out := make([]float64, dim)
	out[0] = w[0]
	out[1] = -prefix * vn.X
	out[2] = -prefix * vn.Y
	for s := 1; s < numSpins; s++ {
		out[2+s] = w[s]
	}
	return out, nil
}

// canonicalVecToDoppler is the inverse of dopplerToCanonicalVec. hemi
// resolves the sign ambiguity in recovering the sky vector's Z component;
// it must be HemisphereNorth or HemisphereSouth.
func canonicalVecToDoppler(canonical []float64, hemi model.Hemisphere, tSpan float64) (Vec3, model.PulsarSpins, error) {
	if hemi != model.HemisphereNorth && hemi != model.HemisphereSouth {
		return Vec3{}, model.PulsarSpins{}, fmt.Errorf("%w: need a fixed hemisphere to invert a canonical point", ErrInvalidState)
	}
	numSpins := len(canonical) - 2
	if numSpins < 1 || numSpins > model.MaxSpinDown {
		return Vec3{}, model.PulsarSpins{}, fmt.Errorf("%w: canonical point has %d spin-down terms, want 1..%d", ErrInvalidDimension, numSpins, model.MaxSpinDown)
	}

	var fkdot model.PulsarSpins
	prefact := 2 * math.Pi * tSpan
	fkdot[0] = canonical[0] / prefact
	for s := 1; s < numSpins; s++ {
		prefact *= tSpan
		fkdot[s] = canonical[2+s] / prefact
	}

	prefix := (2 * math.Pi * auMeters / speedOfLightMPerS) * fkdot[0]
	var nX, nY float64
	if prefix != 0 {
		nX = -canonical[1] / prefix
		nY = -canonical[2] / prefix
	}

	vn2 := nX*nX + nY*nY
	if relGT(vn2, 1.0, epsReal8) {
		return Vec3{}, model.PulsarSpins{}, fmt.Errorf("%w: nX^2+nY^2 = %g", ErrOffSphere, vn2)
	}
	nZ := math.Sqrt(math.Max(0, 1-vn2))
	if hemi == model.HemisphereSouth {
		nZ = -nZ
	}
	return Vec3{X: nX, Y: nY, Z: nZ}, fkdot, nil
}
