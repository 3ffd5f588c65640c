// Package aggregator orchestrates the wildfire overview: fetch nearby fire
// detections, resolve one station/risk context for the query point, fan
// plume computation out across detections, merge the footprints, and cache
// the assembled result.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/peterstace/simplefeatures/geom"

	"github.com/couchcryptid/wildfire-risk-service/internal/cache"
	"github.com/couchcryptid/wildfire-risk-service/internal/config"
	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
	"github.com/couchcryptid/wildfire-risk-service/internal/stations"
)

const (
	minRadiusKM = 50.0
	maxRadiusKM = 1500.0

	defaultMaxFires            = 20
	defaultConfidenceThreshold = 0.0

	// sourceTag identifies the plume model revision in every response.
	sourceTag = "approx_cone_v1"
)

// Plume driver fallbacks when neither the request nor any station supplied a
// value.
const (
	fallbackWindSpeedMps   = 2.0
	fallbackWindDirFromDeg = 180.0
	fallbackBurningIndex   = 30.0
	fallbackOneHourFM      = 10.0
)

// defaultHours are the time offsets modeled when a request does not name any.
var defaultHours = []float64{0.5, 1, 2}

// Aggregator assembles wildfire overviews. One instance owns the result
// cache; construct with New.
type Aggregator struct {
	locator *stations.Locator
	fires   domain.FireDetectionProvider
	results *cache.TTL[*WildfireContext]
	sink    EventSink

	dataset          string
	product          string
	fireLookbackDays int
	plumeWorkers     int

	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// New creates an Aggregator. sink may be nil when no event publishing is
// configured.
func New(cfg *config.Config, locator *stations.Locator, fires domain.FireDetectionProvider, sink EventSink, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		locator:          locator,
		fires:            fires,
		results:          cache.New(clock, cfg.ResultCacheTTL, (*WildfireContext).Clone),
		sink:             sink,
		dataset:          "firms",
		product:          cfg.FIRMSProduct,
		fireLookbackDays: cfg.FireLookbackDays,
		plumeWorkers:     cfg.PlumeWorkers,
		clock:            clock,
		metrics:          metrics,
		logger:           logger,
	}
}

// CollectParams identify one overview query. Zero values take documented
// defaults; RadiusKM is clamped to [50, 1500].
type CollectParams struct {
	Lat                 float64   `json:"lat"`
	Lon                 float64   `json:"lon"`
	RadiusKM            float64   `json:"radius_km,omitempty"`
	ConfidenceThreshold float64   `json:"confidence_threshold,omitempty"`
	MaxFires            int       `json:"max_fires,omitempty"`
	Hours               []float64 `json:"hours,omitempty"`
}

func (p *CollectParams) normalize() error {
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: coordinates (%.4f, %.4f)", domain.ErrInvalidInput, p.Lat, p.Lon)
	}
	if !domain.ConusBounds.Contains(p.Lat, p.Lon) {
		return fmt.Errorf("%w: (%.4f, %.4f)", domain.ErrOutsideBounds, p.Lat, p.Lon)
	}
	if p.RadiusKM == 0 {
		p.RadiusKM = minRadiusKM
	}
	p.RadiusKM = math.Max(minRadiusKM, math.Min(maxRadiusKM, p.RadiusKM))
	if p.MaxFires <= 0 {
		p.MaxFires = defaultMaxFires
	}
	if len(p.Hours) == 0 {
		p.Hours = append([]float64(nil), defaultHours...)
	}
	hours, err := domain.NormalizeHours(p.Hours)
	if err != nil {
		return err
	}
	p.Hours = hours
	return nil
}

func (a *Aggregator) cacheKey(p CollectParams) string {
	return fmt.Sprintf("%.3f:%.3f:%d:%s:%s:%d:%d",
		p.Lat, p.Lon, int(p.RadiusKM), a.dataset, a.product,
		int(p.ConfidenceThreshold), p.MaxFires)
}

// Collect assembles the wildfire overview for one query point. Identical
// queries within the cache TTL return a deep copy of the cached context with
// CacheHit set.
func (a *Aggregator) Collect(ctx context.Context, p CollectParams) (*WildfireContext, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}

	key := a.cacheKey(p)
	if cached, expires, ok := a.results.Get(key); ok {
		a.metrics.CacheLookups.WithLabelValues("result", "hit").Inc()
		cached.ExpiresAt = expires
		cached.CacheHit = true
		return cached, nil
	}
	a.metrics.CacheLookups.WithLabelValues("result", "miss").Inc()

	started := a.clock.Now()
	wc := &WildfireContext{
		Latitude:    p.Lat,
		Longitude:   p.Lon,
		RadiusKM:    p.RadiusKM,
		Fires:       []FireWithPlumes{},
		GeneratedAt: started.UTC(),
	}

	box := domain.BBoxFromRadius(p.Lat, p.Lon, p.RadiusKM, domain.ConusBounds)
	detections, err := a.fires.Detections(ctx, box, a.fireLookbackDays)
	if err != nil {
		a.logger.Warn("fire detection fetch failed", "error", err)
		wc.Warnings = append(wc.Warnings, "fire detections unavailable: "+err.Error())
	}

	stationCtx, err := a.locator.ResolveContext(ctx, p.Lat, p.Lon)
	if err != nil {
		a.logger.Warn("station context unavailable", "error", err)
		wc.Warnings = append(wc.Warnings, "station context unavailable: "+err.Error())
	} else {
		wc.Station = stationCtx
		wc.Warnings = append(wc.Warnings, stationCtx.Warnings...)
	}

	var risk *domain.RiskAssessment
	if stationCtx != nil {
		r := domain.AssessFireDanger(stationCtx.Fuel, stationCtx.Weather)
		risk = &r
	}

	kept := a.filterDetections(detections, p)
	wc.Fires = a.fanOutPlumes(ctx, kept, stationCtx, p.Hours)
	wc.MergedPlume = a.mergePlumes(wc)
	wc.Summary = a.summarize(p, wc.Fires, stationCtx, risk)

	a.metrics.AggregationDuration.Observe(a.clock.Since(started).Seconds())
	a.metrics.FiresReturned.Observe(float64(len(wc.Fires)))

	// Publish to the cache only after the context is fully assembled.
	wc.ExpiresAt = a.results.Put(key, wc)
	a.publish(ctx, wc)
	return wc, nil
}

// filterDetections re-filters by true great-circle distance (the bounding
// box is approximate) and by confidence, then sorts by distance and
// truncates to MaxFires.
func (a *Aggregator) filterDetections(detections []domain.FireDetection, p CollectParams) []domain.FireDetection {
	kept := make([]domain.FireDetection, 0, len(detections))
	for _, d := range detections {
		d.DistanceKM = domain.HaversineKM(p.Lat, p.Lon, d.Latitude, d.Longitude)
		if d.DistanceKM > p.RadiusKM {
			continue
		}
		if p.ConfidenceThreshold > 0 && d.Confidence != nil && *d.Confidence < p.ConfidenceThreshold {
			continue
		}
		kept = append(kept, d)
	}
	sort.Slice(kept, func(i, j int) bool {
		return kept[i].DistanceKM < kept[j].DistanceKM
	})
	if len(kept) > p.MaxFires {
		kept = kept[:p.MaxFires]
	}
	return kept
}

// fanOutPlumes computes plume frames for every detection and time offset on
// a bounded worker pool. The driving weather/fuel context is resolved once
// before any worker starts.
func (a *Aggregator) fanOutPlumes(ctx context.Context, detections []domain.FireDetection, sc *stations.Context, hours []float64) []FireWithPlumes {
	fires := make([]FireWithPlumes, len(detections))
	for i, d := range detections {
		fires[i] = FireWithPlumes{Detection: d}
	}

	windMps, windDir := driverWind(sc)
	bi, fm := driverFuel(sc)

	workers := a.plumeWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for i := range fires {
		for _, h := range hours {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			sem <- struct{}{}
			go func(i int, h float64) {
				defer wg.Done()
				defer func() { <-sem }()

				d := fires[i].Detection
				area := d.FootprintAreaM2()
				frame, err := domain.Cone(domain.ConeParams{
					Lat:            d.Latitude,
					Lon:            d.Longitude,
					WindSpeedMps:   windMps,
					WindDirFromDeg: windDir,
					Hours:          h,
					Signals: domain.FireSignals{
						BurningIndex: &bi,
						OneHourFM:    &fm,
						FRP:          d.FRP,
						AreaM2:       &area,
						Confidence:   d.Confidence,
					},
				})

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					a.metrics.PlumeFrames.Inc()
					fires[i].Frames = append(fires[i].Frames, frame)
				case errors.Is(err, domain.ErrPlumeSuppressed):
					a.metrics.PlumesSuppressed.Inc()
				default:
					if errors.Is(err, domain.ErrGeometry) {
						a.metrics.GeometryErrors.Inc()
					}
					fires[i].PlumeErrors = append(fires[i].PlumeErrors,
						fmt.Sprintf("plume at %.2gh: %v", h, err))
				}
			}(i, h)
		}
	}
	wg.Wait()

	// Workers append frames in completion order; present them by offset.
	for i := range fires {
		sort.Slice(fires[i].Frames, func(x, y int) bool {
			return fires[i].Frames[x].Hours < fires[i].Frames[y].Hours
		})
		sort.Strings(fires[i].PlumeErrors)
	}
	return fires
}

// mergePlumes unions every frame polygon into one geometry. Union failures
// degrade to a warning; the per-fire frames remain available.
func (a *Aggregator) mergePlumes(wc *WildfireContext) geom.Geometry {
	// The zero Geometry is an empty collection, which the set operations
	// reject, so the first frame seeds the union.
	var merged geom.Geometry
	for _, f := range wc.Fires {
		for _, frame := range f.Frames {
			g := frame.Polygon.AsGeometry()
			if merged.IsEmpty() {
				merged = g
				continue
			}
			u, err := geom.Union(merged, g)
			if err != nil {
				a.metrics.GeometryErrors.Inc()
				wc.Warnings = append(wc.Warnings, "plume merge failed: "+err.Error())
				continue
			}
			merged = u
		}
	}
	return merged
}

func (a *Aggregator) summarize(p CollectParams, fires []FireWithPlumes, sc *stations.Context, risk *domain.RiskAssessment) Summary {
	s := Summary{FireCount: len(fires), Risk: risk}

	windMps, _ := driverWind(sc)
	if sc != nil && sc.Weather != nil {
		if sc.Weather.WindSpeed != nil {
			v := *sc.Weather.WindSpeed * domain.MpsPerMph
			s.WindSpeedMps = &v
		}
		s.WindDirFromDeg = clonePtr(sc.Weather.WindDirection)
	}

	if len(fires) > 0 {
		nearest := fires[0].Detection
		dist := nearest.DistanceKM
		s.NearestFireKM = &dist
		s.SmokeDirection = domain.Cardinal(domain.InitialBearing(nearest.Latitude, nearest.Longitude, p.Lat, p.Lon))
		if windMps > 0.1 {
			eta := dist / (windMps * 3.6)
			s.SmokeETAHours = &eta
		}
	}

	s.Statement = a.statement(s, sc)
	return s
}

// statement renders the one-line human summary surfaced to conversational
// clients.
func (a *Aggregator) statement(s Summary, sc *stations.Context) string {
	var b strings.Builder
	switch s.FireCount {
	case 0:
		b.WriteString("No satellite fire detections within range.")
	case 1:
		b.WriteString("1 fire detected nearby.")
	default:
		fmt.Fprintf(&b, "%d fires detected nearby.", s.FireCount)
	}

	if s.Risk != nil {
		fmt.Fprintf(&b, " Fire danger is %s (%.0f/100).", s.Risk.Level, s.Risk.Score)
	}
	if s.NearestFireKM != nil {
		fmt.Fprintf(&b, " Nearest fire is %.1f km away", *s.NearestFireKM)
		if s.SmokeDirection != "" {
			fmt.Fprintf(&b, " to the %s of you", opposite(s.SmokeDirection))
		}
		if s.SmokeETAHours != nil {
			fmt.Fprintf(&b, "; smoke could arrive in roughly %.1f hours", *s.SmokeETAHours)
		}
		b.WriteString(".")
	}
	if s.WindSpeedMps != nil && s.WindDirFromDeg != nil {
		fmt.Fprintf(&b, " Wind %.1f m/s from %.0f°.", *s.WindSpeedMps, *s.WindDirFromDeg)
	}
	if sc != nil && len(sc.Warnings) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(sc.Warnings, "; "))
	}
	return b.String()
}

// opposite flips a compass point: the smoke direction is fire-to-query, but
// the statement describes where the fire sits relative to the reader.
func opposite(cardinal string) string {
	bearingFor := map[string]float64{
		"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5, "E": 90, "ESE": 112.5,
		"SE": 135, "SSE": 157.5, "S": 180, "SSW": 202.5, "SW": 225,
		"WSW": 247.5, "W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
	}
	deg, ok := bearingFor[cardinal]
	if !ok {
		return cardinal
	}
	return domain.Cardinal(deg + 180)
}

func (a *Aggregator) publish(ctx context.Context, wc *WildfireContext) {
	if a.sink == nil {
		return
	}
	event := OverviewEvent{
		Latitude:    wc.Latitude,
		Longitude:   wc.Longitude,
		RadiusKM:    wc.RadiusKM,
		FireCount:   wc.Summary.FireCount,
		Statement:   wc.Summary.Statement,
		GeneratedAt: wc.GeneratedAt,
	}
	if wc.Summary.Risk != nil {
		event.RiskLevel = wc.Summary.Risk.Level
	}
	if err := a.sink.Publish(ctx, event); err != nil {
		a.logger.Warn("overview event publish failed", "error", err)
	}
}

// EvaluateSmokeThreat runs a full overview and ranks the fires whose plume
// frames cover the query point, earliest arrival first.
func (a *Aggregator) EvaluateSmokeThreat(ctx context.Context, p CollectParams) (*ThreatResult, error) {
	wc, err := a.Collect(ctx, p)
	if err != nil {
		return nil, err
	}

	point := geom.NewPoint(geom.Coordinates{XY: geom.XY{X: p.Lon, Y: p.Lat}})
	threats := make([]FireThreat, 0)
	for _, f := range wc.Fires {
		// Frames are sorted by hours; the first containing frame is the
		// earliest arrival for this fire.
		for _, frame := range f.Frames {
			if geom.Intersects(frame.Polygon.AsGeometry(), point.AsGeometry()) {
				threats = append(threats, FireThreat{
					Detection:  f.Detection,
					Hours:      frame.Hours,
					DistanceKM: f.Detection.DistanceKM,
				})
				break
			}
		}
	}
	sort.Slice(threats, func(i, j int) bool {
		if threats[i].Hours != threats[j].Hours {
			return threats[i].Hours < threats[j].Hours
		}
		return threats[i].DistanceKM < threats[j].DistanceKM
	})

	statement := "No modeled smoke plume reaches your location."
	if len(threats) > 0 {
		statement = fmt.Sprintf(
			"Smoke from %d fire(s) may reach your location; earliest within %.2g hours from a fire %.1f km away.",
			len(threats), threats[0].Hours, threats[0].DistanceKM)
	}

	return &ThreatResult{Threats: threats, Statement: statement, Context: wc}, nil
}

// ComputePlume runs the cone model for an explicit request: apex from
// lat/lon, an ignition polygon, or a station; drivers from the request, then
// the nearest or named station, then documented fallbacks.
func (a *Aggregator) ComputePlume(ctx context.Context, req PlumeRequest) (*PlumeResult, error) {
	result := &PlumeResult{SourceTag: sourceTag}

	lat, lon, areaFromGeometry, err := a.resolveApex(ctx, req, result)
	if err != nil {
		return nil, err
	}

	if len(req.Hours) == 0 {
		req.Hours = append([]float64(nil), defaultHours...)
	}
	hours, err := domain.NormalizeHours(req.Hours)
	if err != nil {
		return nil, err
	}

	drivers := a.resolveDrivers(ctx, req, lat, lon, result)
	if req.AreaM2 == nil && areaFromGeometry != nil {
		req.AreaM2 = areaFromGeometry
	}

	for _, h := range hours {
		frame, err := domain.Cone(domain.ConeParams{
			Lat:            lat,
			Lon:            lon,
			WindSpeedMps:   drivers.windMps,
			WindDirFromDeg: drivers.windDir,
			Hours:          h,
			Signals: domain.FireSignals{
				BurningIndex: &drivers.burningIndex,
				OneHourFM:    &drivers.oneHourFM,
				FRP:          req.FRP,
				AreaM2:       req.AreaM2,
				Confidence:   req.Confidence,
			},
			Multipliers:        req.Multipliers,
			SuppressSmallFires: req.SuppressSmallFires,
		})
		switch {
		case err == nil:
			a.metrics.PlumeFrames.Inc()
			result.Frames = append(result.Frames, frame)
		case errors.Is(err, domain.ErrPlumeSuppressed):
			a.metrics.PlumesSuppressed.Inc()
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("frame at %.2gh suppressed: fire too small or uncertain", h))
		case errors.Is(err, domain.ErrGeometry):
			a.metrics.GeometryErrors.Inc()
			result.Warnings = append(result.Warnings, fmt.Sprintf("frame at %.2gh dropped: %v", h, err))
		default:
			return nil, err
		}
	}
	return result, nil
}

// resolveApex picks the ignition point: explicit coordinates, a station's
// location, or the centroid of an ignition polygon. For polygons the
// footprint area is derived from the geometry unless the request overrides
// it.
func (a *Aggregator) resolveApex(ctx context.Context, req PlumeRequest, result *PlumeResult) (lat, lon float64, areaM2 *float64, err error) {
	switch {
	case req.StationID != nil:
		station, err := a.findStation(ctx, *req.StationID)
		if err != nil {
			return 0, 0, nil, err
		}
		return station.Latitude, station.Longitude, nil, nil

	case len(req.IgnitionGeoJSON) > 0:
		g, err := geom.UnmarshalGeoJSON(req.IgnitionGeoJSON)
		if err != nil {
			return 0, 0, nil, fmt.Errorf("%w: ignition geometry: %v", domain.ErrInvalidInput, err)
		}
		centroid, ok := g.Centroid().XY()
		if !ok {
			return 0, 0, nil, fmt.Errorf("%w: ignition geometry has no centroid", domain.ErrInvalidInput)
		}
		// Planar area in squared degrees, scaled to m² at the centroid
		// latitude. Good enough for an emission driver.
		areaDeg2 := g.Area()
		if areaDeg2 > 0 {
			mPerDegLat := 111_320.0
			mPerDegLon := mPerDegLat * math.Cos(centroid.Y*math.Pi/180.0)
			area := areaDeg2 * mPerDegLat * mPerDegLon
			areaM2 = &area
		}
		return centroid.Y, centroid.X, areaM2, nil

	case req.Lat != nil && req.Lon != nil:
		if *req.Lat < -90 || *req.Lat > 90 || *req.Lon < -180 || *req.Lon > 180 {
			return 0, 0, nil, fmt.Errorf("%w: coordinates (%.4f, %.4f)", domain.ErrInvalidInput, *req.Lat, *req.Lon)
		}
		return *req.Lat, *req.Lon, nil, nil

	default:
		return 0, 0, nil, fmt.Errorf("%w: request needs lat/lon, ignition geometry, or station id", domain.ErrInvalidInput)
	}
}

func (a *Aggregator) findStation(ctx context.Context, stationID int64) (*domain.Station, error) {
	station, err := a.locator.Station(ctx, stationID)
	if err != nil {
		return nil, err
	}
	return station, nil
}

// driverWind resolves the wind drivers from the station context, falling
// back to the documented defaults. Station wind speeds arrive in mph.
func driverWind(sc *stations.Context) (mps, dirFrom float64) {
	mps, dirFrom = fallbackWindSpeedMps, fallbackWindDirFromDeg
	if sc != nil && sc.Weather != nil {
		if sc.Weather.WindSpeed != nil {
			mps = *sc.Weather.WindSpeed * domain.MpsPerMph
		}
		if sc.Weather.WindDirection != nil {
			dirFrom = *sc.Weather.WindDirection
		}
	}
	return mps, dirFrom
}

// driverFuel resolves the fuel drivers from the station context, falling
// back to the documented defaults.
func driverFuel(sc *stations.Context) (burningIndex, oneHourFM float64) {
	burningIndex, oneHourFM = fallbackBurningIndex, fallbackOneHourFM
	if sc != nil && sc.Fuel != nil {
		if sc.Fuel.BurningIndex != nil {
			burningIndex = *sc.Fuel.BurningIndex
		}
		if sc.Fuel.OneHourFM != nil {
			oneHourFM = *sc.Fuel.OneHourFM
		}
	}
	return burningIndex, oneHourFM
}

type plumeDrivers struct {
	windMps      float64
	windDir      float64
	burningIndex float64
	oneHourFM    float64
}

// resolveDrivers fills missing plume drivers from the nearest (or named)
// station's latest observations, then from fixed fallbacks. Every
// substitution is surfaced as a warning.
func (a *Aggregator) resolveDrivers(ctx context.Context, req PlumeRequest, lat, lon float64, result *PlumeResult) plumeDrivers {
	needsStation := req.WindSpeedMps == nil || req.WindDirFromDeg == nil ||
		req.BurningIndex == nil || req.OneHourFM == nil

	var weather *domain.WeatherObservation
	var fuel *domain.FuelObservation
	if needsStation {
		if req.StationID != nil {
			weather, fuel = a.locator.Observe(ctx, *req.StationID)
		} else if sc, err := a.locator.ResolveContext(ctx, lat, lon); err == nil {
			weather, fuel = sc.Weather, sc.Fuel
			result.Warnings = append(result.Warnings, sc.Warnings...)
		} else {
			a.logger.Debug("no station context for plume drivers", "error", err)
		}
	}

	d := plumeDrivers{
		windMps:      fallbackWindSpeedMps,
		windDir:      fallbackWindDirFromDeg,
		burningIndex: fallbackBurningIndex,
		oneHourFM:    fallbackOneHourFM,
	}

	switch {
	case req.WindSpeedMps != nil:
		d.windMps = *req.WindSpeedMps
	case weather != nil && weather.WindSpeed != nil:
		d.windMps = *weather.WindSpeed * domain.MpsPerMph
	default:
		result.Warnings = append(result.Warnings, "wind speed defaulted to 2.0 m/s")
	}

	switch {
	case req.WindDirFromDeg != nil:
		d.windDir = *req.WindDirFromDeg
	case weather != nil && weather.WindDirection != nil:
		d.windDir = *weather.WindDirection
	default:
		result.Warnings = append(result.Warnings, "wind direction defaulted to 180°")
	}

	switch {
	case req.BurningIndex != nil:
		d.burningIndex = *req.BurningIndex
	case fuel != nil && fuel.BurningIndex != nil:
		d.burningIndex = *fuel.BurningIndex
	default:
		result.Warnings = append(result.Warnings, "burning index defaulted to 30")
	}

	switch {
	case req.OneHourFM != nil:
		d.oneHourFM = *req.OneHourFM
	case fuel != nil && fuel.OneHourFM != nil:
		d.oneHourFM = *fuel.OneHourFM
	default:
		result.Warnings = append(result.Warnings, "1-hr fuel moisture defaulted to 10")
	}

	return d
}

// AssessRisk scores fire danger for a named station or across the nearest
// stations to a location, highest score first.
func (a *Aggregator) AssessRisk(ctx context.Context, req RiskRequest) (*RiskReport, error) {
	switch {
	case req.StationID != nil:
		station, err := a.findStation(ctx, *req.StationID)
		if err != nil {
			return nil, err
		}
		return a.assess(ctx, []stations.Candidate{{Station: *station}})

	case req.Lat != nil && req.Lon != nil:
		n := req.Stations
		if n <= 0 {
			n = 1
		}
		candidates, err := a.locator.Nearest(ctx, *req.Lat, *req.Lon, n)
		if err != nil {
			return nil, err
		}
		return a.assess(ctx, candidates)

	default:
		return nil, fmt.Errorf("%w: request needs station id or lat/lon", domain.ErrInvalidInput)
	}
}

func (a *Aggregator) assess(ctx context.Context, candidates []stations.Candidate) (*RiskReport, error) {
	report := &RiskReport{Stations: make([]StationRisk, 0, len(candidates))}

	var total float64
	for _, cand := range candidates {
		weather, fuel := a.locator.Observe(ctx, cand.Station.ID)

		sr := StationRisk{
			Station:    cand.Station,
			DistanceKM: cand.DistanceKM,
			Risk:       domain.AssessFireDanger(fuel, weather),
			Weather:    weather,
			Fuel:       fuel,
		}
		if weather == nil {
			sr.Warnings = append(sr.Warnings, "no recent weather observations")
		}
		if fuel == nil {
			sr.Warnings = append(sr.Warnings, "no recent NFDRS observations")
		}
		report.Stations = append(report.Stations, sr)
		total += sr.Risk.Score
	}

	if len(report.Stations) == 0 {
		return nil, fmt.Errorf("%w: no stations to assess", domain.ErrNoObservations)
	}

	sort.Slice(report.Stations, func(i, j int) bool {
		return report.Stations[i].Risk.Score > report.Stations[j].Risk.Score
	})
	report.Highest = report.Stations[0].Risk.Score
	report.Average = math.Round(total/float64(len(report.Stations))*100) / 100
	report.Level = domain.LevelForScore(report.Highest)
	return report, nil
}

// CheckReadiness reports whether the station provider answers. Used by the
// readiness endpoint.
func (a *Aggregator) CheckReadiness(ctx context.Context) error {
	if _, err := a.locator.Nearest(ctx, domain.ConusBounds.MinLat, domain.ConusBounds.MinLon, 1); err != nil {
		return fmt.Errorf("station provider: %w", err)
	}
	return nil
}
