package domain

import (
	"fmt"
	"math"

	"github.com/peterstace/simplefeatures/geom"
	"github.com/tidwall/geodesic"
)

// defaultConeSegments is the fan resolution: segments+1 arc vertices.
const defaultConeSegments = 40

// Plume driver defaults when neither the request nor any station supplied a
// value.
const (
	defaultPlumeOneHourFM = 30.0
	minEmissionFactor     = 0.05
)

// FireSignals are the fire-intensity drivers of the plume model. Nil fields
// take documented defaults.
type FireSignals struct {
	BurningIndex *float64 `json:"burning_index,omitempty"`
	OneHourFM    *float64 `json:"one_hr_fm,omitempty"`
	FRP          *float64 `json:"frp,omitempty"`
	AreaM2       *float64 `json:"area_m2,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
}

// PlumeMultipliers scale the emission, lateral diffusion, and loft terms.
// Zero values mean 1.0 so the zero struct is a no-op.
type PlumeMultipliers struct {
	Emission  float64 `json:"emission_multiplier,omitempty"`
	Diffusion float64 `json:"diffusion_multiplier,omitempty"`
	Loft      float64 `json:"loft_multiplier,omitempty"`
}

func (m PlumeMultipliers) normalized() PlumeMultipliers {
	if m.Emission == 0 {
		m.Emission = 1.0
	}
	if m.Diffusion == 0 {
		m.Diffusion = 1.0
	}
	if m.Loft == 0 {
		m.Loft = 1.0
	}
	return m
}

// ConeParams drive one plume cone computation.
type ConeParams struct {
	Lat, Lon           float64
	WindSpeedMps       float64
	WindDirFromDeg     float64
	Hours              float64
	Signals            FireSignals
	Multipliers        PlumeMultipliers
	SuppressSmallFires bool
	Segments           int // 0 means defaultConeSegments
}

// PlumeMeta records the model internals for one frame.
type PlumeMeta struct {
	PlumeLengthM   float64 `json:"plume_length_m"`
	PlumeWidthM    float64 `json:"plume_width_m"`
	EmissionFactor float64 `json:"emission_factor"`
	Loft           float64 `json:"loft"`
	BINorm         float64 `json:"bi_norm"`
	FMNorm         float64 `json:"fm_norm"`
	FRPNorm        float64 `json:"frp_norm"`
	AreaNorm       float64 `json:"area_norm"`
}

// PlumeFrame is the downwind smoke footprint at one time offset. The polygon
// ring starts and ends at the ignition apex.
type PlumeFrame struct {
	Hours   float64      `json:"hours"`
	Polygon geom.Polygon `json:"polygon"`
	Meta    PlumeMeta    `json:"meta"`
}

// emissionFactor normalizes the four fire drivers to [0,1] and blends them
// into the emission strength. Weights: BI 0.4, fuel dryness 0.25, FRP 0.25,
// area 0.1, floored at minEmissionFactor.
func emissionFactor(s FireSignals, multiplier float64) (emission, biNorm, fmNorm, frpNorm, areaNorm float64) {
	biNorm = clamp(fieldOr(s.BurningIndex, 0)/200.0, 0, 1)
	fmNorm = 1.0 - clamp(fieldOr(s.OneHourFM, defaultPlumeOneHourFM)/100.0, 0, 1)
	frpNorm = clamp(fieldOr(s.FRP, 0)/500.0, 0, 1)
	areaNorm = clamp(fieldOr(s.AreaM2, 0)/1_000_000.0, 0, 1)

	raw := 0.4*biNorm + 0.25*fmNorm + 0.25*frpNorm + 0.1*areaNorm
	emission = math.Max(minEmissionFactor, raw) * multiplier
	return emission, biNorm, fmNorm, frpNorm, areaNorm
}

// loftFactor estimates vertical development from FRP and burning index,
// clamped to [0.3, 3.0].
func loftFactor(biNorm, frpNorm, multiplier float64) float64 {
	loft := 0.5 + 1.5*(0.6*frpNorm+0.4*biNorm)
	return clamp(loft, 0.3, 3.0) * multiplier
}

// suppressed reports whether the fire is too small and uncertain to model.
func suppressed(emission float64, s FireSignals) bool {
	frp := fieldOr(s.FRP, 0)
	area := fieldOr(s.AreaM2, 0)
	conf := fieldOr(s.Confidence, 0)
	bi := fieldOr(s.BurningIndex, 0)
	if emission < 0.08 && frp < 30 && area < 10_000 && conf < 40 {
		return true
	}
	return conf < 40 && bi < 40 && area < 5_000
}

// Cone computes the smoke footprint polygon for one time offset. It returns
// ErrPlumeSuppressed for fires below the modeling threshold and ErrGeometry
// when the generated ring is degenerate.
func Cone(p ConeParams) (PlumeFrame, error) {
	if p.Hours <= 0 {
		return PlumeFrame{}, fmt.Errorf("%w: hours must be positive", ErrInvalidInput)
	}
	mult := p.Multipliers.normalized()

	emission, biNorm, fmNorm, frpNorm, areaNorm := emissionFactor(p.Signals, mult.Emission)
	loft := loftFactor(biNorm, frpNorm, mult.Loft)

	if p.SuppressSmallFires && suppressed(emission, p.Signals) {
		return PlumeFrame{}, ErrPlumeSuppressed
	}

	baseDistanceM := math.Max(p.WindSpeedMps, 0) * 3600.0 * p.Hours
	plumeLengthM := math.Max(200.0, baseDistanceM*(0.8+1.2*emission)*loft)

	baseWidthM := math.Max(100.0, plumeLengthM*0.03)
	plumeWidthM := baseWidthM * (1.0 + 2.5*math.Sqrt(p.Hours)*(0.6+0.4*(1.0-fmNorm)))
	plumeWidthM *= mult.Diffusion

	// The plume travels opposite the direction the wind blows from.
	bearingTo := math.Mod(p.WindDirFromDeg+180.0, 360.0)
	halfAngle := clamp(degrees(math.Atan((plumeWidthM/2.0)/math.Max(plumeLengthM, 1.0))), 2.0, 40.0)

	segments := p.Segments
	if segments <= 0 {
		segments = defaultConeSegments
	}

	// Fan out from the apex: radius grows super-linearly (f^0.9) so the cone
	// widens faster near the tip. The apex closes the ring on both ends;
	// zero-radius arc points would duplicate it and are skipped.
	coords := make([]float64, 0, 2*(segments+3))
	coords = append(coords, p.Lon, p.Lat)
	for i := 0; i <= segments; i++ {
		frac := float64(i) / float64(segments)
		angle := bearingTo - halfAngle + 2*halfAngle*frac
		radius := plumeLengthM * math.Pow(frac, 0.9)
		if radius < 1e-3 {
			continue
		}
		var destLat, destLon float64
		geodesic.WGS84.Direct(p.Lat, p.Lon, angle, radius, &destLat, &destLon, nil)
		coords = append(coords, destLon, destLat)
	}
	coords = append(coords, p.Lon, p.Lat)

	ring := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	poly := geom.NewPolygon([]geom.LineString{ring})
	if err := poly.Validate(); err != nil {
		return PlumeFrame{}, fmt.Errorf("%w: %v", ErrGeometry, err)
	}
	if poly.IsEmpty() {
		return PlumeFrame{}, fmt.Errorf("%w: empty polygon", ErrGeometry)
	}

	return PlumeFrame{
		Hours:   p.Hours,
		Polygon: poly,
		Meta: PlumeMeta{
			PlumeLengthM:   plumeLengthM,
			PlumeWidthM:    plumeWidthM,
			EmissionFactor: emission,
			Loft:           loft,
			BINorm:         biNorm,
			FMNorm:         fmNorm,
			FRPNorm:        frpNorm,
			AreaNorm:       areaNorm,
		},
	}, nil
}
