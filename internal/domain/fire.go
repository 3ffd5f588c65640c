package domain

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// nominalPixelKM is the VIIRS pixel size used when a detection row omits
// scan/track dimensions.
const nominalPixelKM = 0.375

// FireDetection is one satellite hotspot from a FIRMS area query,
// re-fetched each aggregation cycle.
type FireDetection struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	AcquiredAt time.Time `json:"acquired_at,omitzero"`
	Confidence *float64  `json:"confidence,omitempty"` // normalized 0-100
	FRP        *float64  `json:"frp,omitempty"`        // fire radiative power, MW
	ScanKM     float64   `json:"scan_km"`
	TrackKM    float64   `json:"track_km"`
	DayNight   string    `json:"daynight,omitempty"`
	DistanceKM float64   `json:"distance_km"` // from the query point
}

// FootprintAreaM2 estimates the detection footprint from the scan/track
// pixel dimensions, substituting the nominal VIIRS pixel when missing.
func (d FireDetection) FootprintAreaM2() float64 {
	scan := d.ScanKM
	if scan <= 0 {
		scan = nominalPixelKM
	}
	track := d.TrackKM
	if track <= 0 {
		track = nominalPixelKM
	}
	return scan * 1000.0 * track * 1000.0
}

// FireDetectionProvider is the upstream satellite fire-detection feed.
type FireDetectionProvider interface {
	// Detections returns hotspots inside the box over the trailing lookback
	// window. An empty slice means no fires, not an error.
	Detections(ctx context.Context, box Bounds, lookbackDays int) ([]FireDetection, error)
}

// ConfidencePercent normalizes a FIRMS confidence value to 0-100. VIIRS
// reports categorical low/nominal/high; MODIS reports a number. Returns nil
// for unparseable values.
func ConfidencePercent(raw string) *float64 {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return nil
	}
	switch raw {
	case "l", "low":
		return ptr(20.0)
	case "n", "nominal", "m", "med", "medium":
		return ptr(60.0)
	case "h", "high":
		return ptr(90.0)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return ptr(v)
}

// ParseAcquisition combines the FIRMS acq_date and acq_time columns
// ("2024-08-14", "930") into a UTC timestamp. Returns zero time when the
// date is missing or malformed.
func ParseAcquisition(acqDate, acqTime string) time.Time {
	acqDate = strings.TrimSpace(acqDate)
	if acqDate == "" {
		return time.Time{}
	}
	hhmm := strings.TrimSpace(acqTime)
	for len(hhmm) < 4 {
		hhmm = "0" + hhmm
	}
	t, err := time.Parse("2006-01-02 1504", acqDate+" "+hhmm)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func ptr(v float64) *float64 { return &v }
