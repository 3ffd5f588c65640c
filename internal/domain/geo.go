package domain

import (
	"fmt"
	"math"
	"sort"
)

// MpsPerMph converts RAWS wind speeds (mph) to m/s.
const MpsPerMph = 0.44704

const earthRadiusKM = 6371.0

// Bounds is a latitude/longitude bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// ConusBounds is the supported contiguous-United-States bounding box.
var ConusBounds = Bounds{MinLat: 24.0, MaxLat: 49.5, MinLon: -125.0, MaxLon: -66.0}

// Contains reports whether the point lies inside the box (edges inclusive).
func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

// HaversineKM is the great-circle distance in kilometers. All distance
// comparisons in the service use this one formula.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lon2 - lon1)
	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return 2 * earthRadiusKM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// InitialBearing is the great-circle bearing in degrees [0,360) from point 1
// toward point 2.
func InitialBearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLambda := radians(lon2 - lon1)
	x := math.Sin(dLambda) * math.Cos(phi2)
	y := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	bearing := degrees(math.Atan2(x, y))
	return math.Mod(bearing+360.0, 360.0)
}

var compassRose = [16]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Cardinal converts a bearing to the 16-point compass rose.
func Cardinal(bearing float64) string {
	idx := int(math.Mod(bearing+11.25, 360.0)/22.5) % 16
	if idx < 0 {
		idx += 16
	}
	return compassRose[idx]
}

// BBoxFromRadius approximates a radius around a point as a bounding box,
// clipped to the given outer bounds. The cosine guard keeps the box finite
// near the poles.
func BBoxFromRadius(lat, lon, radiusKM float64, outer Bounds) Bounds {
	latDelta := radiusKM / 111.32
	lonScale := math.Cos(radians(lat))
	if lonScale == 0 {
		lonScale = 0.01
	}
	lonDelta := radiusKM / (111.32 * lonScale)
	return Bounds{
		MinLat: math.Max(outer.MinLat, lat-latDelta),
		MaxLat: math.Min(outer.MaxLat, lat+latDelta),
		MinLon: math.Max(outer.MinLon, lon-lonDelta),
		MaxLon: math.Min(outer.MaxLon, lon+lonDelta),
	}
}

// maxPlumeHours caps the number of time offsets in one plume request.
const maxPlumeHours = 12

// NormalizeHours sorts, deduplicates, and validates plume time offsets.
// Non-positive entries are dropped; an empty or oversized result is
// ErrInvalidInput.
func NormalizeHours(hours []float64) ([]float64, error) {
	seen := make(map[float64]struct{}, len(hours))
	out := make([]float64, 0, len(hours))
	for _, h := range hours {
		if h <= 0 {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: at least one positive hour required", ErrInvalidInput)
	}
	if len(out) > maxPlumeHours {
		return nil, fmt.Errorf("%w: too many hours (%d > %d)", ErrInvalidInput, len(out), maxPlumeHours)
	}
	sort.Float64s(out)
	return out, nil
}

func radians(deg float64) float64 { return deg * math.Pi / 180.0 }
func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
