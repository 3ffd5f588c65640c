package aggregator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/stations"
)

// FireWithPlumes pairs one detection with its plume frames, one per
// requested time offset. PlumeErrors records per-frame failures; a fire with
// errors still participates in the overview.
type FireWithPlumes struct {
	Detection   domain.FireDetection `json:"detection"`
	Frames      []domain.PlumeFrame  `json:"frames,omitempty"`
	PlumeErrors []string             `json:"plume_errors,omitempty"`
}

// Summary is the machine-readable digest of one overview, plus the
// human-readable statement assembled from it.
type Summary struct {
	FireCount      int                    `json:"fire_count"`
	Risk           *domain.RiskAssessment `json:"risk,omitempty"`
	NearestFireKM  *float64               `json:"nearest_fire_km,omitempty"`
	SmokeETAHours  *float64               `json:"smoke_eta_hours,omitempty"`
	SmokeDirection string                 `json:"smoke_direction,omitempty"`
	WindSpeedMps   *float64               `json:"wind_speed_mps,omitempty"`
	WindDirFromDeg *float64               `json:"wind_dir_from_deg,omitempty"`
	Statement      string                 `json:"statement"`
}

// WildfireContext is the assembled overview for one query. Entries in the
// result cache are immutable; reads hand back deep copies so callers can
// never corrupt a cached context.
type WildfireContext struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKM  float64 `json:"radius_km"`

	Fires       []FireWithPlumes  `json:"fires"`
	Station     *stations.Context `json:"station_context,omitempty"`
	MergedPlume geom.Geometry     `json:"merged_plume"`
	Summary     Summary           `json:"summary"`
	Warnings    []string          `json:"warnings,omitempty"`

	GeneratedAt time.Time `json:"generated_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	CacheHit    bool      `json:"cache_hit"`
}

// Clone deep-copies the context. Geometries are immutable values in
// simplefeatures and are shared safely.
func (c *WildfireContext) Clone() *WildfireContext {
	if c == nil {
		return nil
	}
	out := *c

	out.Fires = make([]FireWithPlumes, len(c.Fires))
	for i, f := range c.Fires {
		out.Fires[i] = FireWithPlumes{
			Detection:   cloneDetection(f.Detection),
			Frames:      append([]domain.PlumeFrame(nil), f.Frames...),
			PlumeErrors: append([]string(nil), f.PlumeErrors...),
		}
	}
	out.Warnings = append([]string(nil), c.Warnings...)
	out.Station = cloneStationContext(c.Station)

	out.Summary.Risk = cloneRisk(c.Summary.Risk)
	out.Summary.NearestFireKM = clonePtr(c.Summary.NearestFireKM)
	out.Summary.SmokeETAHours = clonePtr(c.Summary.SmokeETAHours)
	out.Summary.WindSpeedMps = clonePtr(c.Summary.WindSpeedMps)
	out.Summary.WindDirFromDeg = clonePtr(c.Summary.WindDirFromDeg)

	return &out
}

// FireThreat is one fire whose plume covers the query point, with the
// earliest time offset at which it does.
type FireThreat struct {
	Detection  domain.FireDetection `json:"detection"`
	Hours      float64              `json:"hours"`
	DistanceKM float64              `json:"distance_km"`
}

// ThreatResult ranks the threatening fires for a point, earliest first.
type ThreatResult struct {
	Threats   []FireThreat     `json:"threats"`
	Statement string           `json:"statement"`
	Context   *WildfireContext `json:"context,omitempty"`
}

// PlumeRequest drives a standalone plume computation. Exactly one of
// Lat/Lon, IgnitionGeoJSON, or StationID anchors the apex; driver fields
// left nil fall back to station observations and then to documented
// defaults.
type PlumeRequest struct {
	Lat             *float64        `json:"lat,omitempty"`
	Lon             *float64        `json:"lon,omitempty"`
	IgnitionGeoJSON json.RawMessage `json:"ignition_geometry,omitempty"`
	StationID       *int64          `json:"station_id,omitempty"`

	Hours []float64 `json:"hours,omitempty"`

	WindSpeedMps   *float64 `json:"wind_speed_mps,omitempty"`
	WindDirFromDeg *float64 `json:"wind_dir_from_deg,omitempty"`
	BurningIndex   *float64 `json:"burning_index,omitempty"`
	OneHourFM      *float64 `json:"one_hr_fm,omitempty"`
	FRP            *float64 `json:"frp,omitempty"`
	Confidence     *float64 `json:"confidence,omitempty"`
	AreaM2         *float64 `json:"area_m2,omitempty"`

	Multipliers        domain.PlumeMultipliers `json:"multipliers,omitzero"`
	SuppressSmallFires bool                    `json:"suppress_small_fires,omitempty"`
}

// PlumeResult carries the computed frames and the model version tag.
type PlumeResult struct {
	Frames    []domain.PlumeFrame `json:"frames"`
	SourceTag string              `json:"source_tag"`
	Warnings  []string            `json:"warnings,omitempty"`
}

// RiskRequest asks for a fire-danger assessment anchored on a station or a
// location. Stations bounds how many nearby stations a location-anchored
// assessment covers.
type RiskRequest struct {
	StationID *int64   `json:"station_id,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lon       *float64 `json:"lon,omitempty"`
	Stations  int      `json:"stations,omitempty"`
}

// StationRisk is one station's assessment with its underlying observations.
type StationRisk struct {
	Station    domain.Station             `json:"station"`
	DistanceKM float64                    `json:"distance_km"`
	Risk       domain.RiskAssessment      `json:"risk"`
	Weather    *domain.WeatherObservation `json:"weather,omitempty"`
	Fuel       *domain.FuelObservation    `json:"fuel,omitempty"`
	Warnings   []string                   `json:"warnings,omitempty"`
}

// RiskReport aggregates station assessments, highest score first.
type RiskReport struct {
	Stations []StationRisk    `json:"stations"`
	Highest  float64          `json:"highest"`
	Average  float64          `json:"average"`
	Level    domain.RiskLevel `json:"level"`
}

// OverviewEvent is the summary record published to the optional event sink
// after each freshly computed overview.
type OverviewEvent struct {
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	RadiusKM    float64          `json:"radius_km"`
	FireCount   int              `json:"fire_count"`
	RiskLevel   domain.RiskLevel `json:"risk_level,omitempty"`
	Statement   string           `json:"statement"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// EventSink receives overview summaries for downstream consumers. Publish
// failures are logged, never propagated to the caller.
type EventSink interface {
	Publish(ctx context.Context, event OverviewEvent) error
}

func cloneDetection(d domain.FireDetection) domain.FireDetection {
	d.Confidence = clonePtr(d.Confidence)
	d.FRP = clonePtr(d.FRP)
	return d
}

func cloneStationContext(sc *stations.Context) *stations.Context {
	if sc == nil {
		return nil
	}
	out := *sc
	out.Warnings = append([]string(nil), sc.Warnings...)
	if sc.Weather != nil {
		w := *sc.Weather
		out.Weather = &w
	}
	if sc.Fuel != nil {
		f := *sc.Fuel
		out.Fuel = &f
	}
	return &out
}

func cloneRisk(r *domain.RiskAssessment) *domain.RiskAssessment {
	if r == nil {
		return nil
	}
	out := *r
	return &out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
