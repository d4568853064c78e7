package core

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ridgeline-astro/latticescan/model"
)

// scenarioJSON is the on-disk shape of a search-region scenario file: a sky
// region string plus the spin-down box and timing parameters needed to
// build a Boundary and, from it, a ScanState.
type scenarioJSON struct {
	SkyRegion    string     `json:"sky_region"`
	RefTimeGPS   float64    `json:"ref_time_gps"`
	StartTimeGPS float64    `json:"start_time_gps"`
	TSpanSeconds float64    `json:"tspan_seconds"`
	Mismatch     float64    `json:"mismatch"`
	Fkdot0       [4]float64 `json:"fkdot0"`
	FkdotBand    [4]float64 `json:"fkdot_band"`
}

// ScanScenario is the parsed, ready-to-use form of a scenario file.
type ScanScenario struct {
	Boundary     model.Boundary
	Origin       Vec3
	TSpan        float64
	StartTimeGPS float64
	Mismatch     float64
}

// LoadScanScenario decodes a JSON scenario description from r and resolves
// it into a ScanScenario, parsing the sky region string and validating the
// resulting boundary.
func LoadScanScenario(r io.Reader) (*ScanScenario, error) {
	var raw scenarioJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("latticescan: decoding scenario: %w", err)
	}

	vertices, err := ParseSkyRegionString(raw.SkyRegion)
	if err != nil {
		return nil, err
	}

	spins := model.SpinRange{
		RefTimeGPS: raw.RefTimeGPS,
		Fkdot0:     model.PulsarSpins(raw.Fkdot0),
		FkdotBand:  model.PulsarSpins(raw.FkdotBand),
	}

	boundary, origin, err := NewBoundary(vertices, spins)
	if err != nil {
		return nil, err
	}

	return &ScanScenario{
		Boundary:     boundary,
		Origin:       origin,
		TSpan:        raw.TSpanSeconds,
		StartTimeGPS: raw.StartTimeGPS,
		Mismatch:     raw.Mismatch,
	}, nil
}
