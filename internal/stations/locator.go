// Package stations selects the RAWS station that supplies weather and fuel
// context for a query point, walking outward through nearest candidates when
// the closest ones have no recent data.
package stations

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
)

// Candidate is a station annotated with its distance from the query point.
type Candidate struct {
	Station    domain.Station
	DistanceKM float64
}

// Context is the station data resolved for a query point. Weather and Fuel
// are the latest observations from the selected station, except that weather
// retained from an earlier partial candidate may come from a different
// station than Fuel; Warnings records every such compromise.
type Context struct {
	Station    domain.Station
	DistanceKM float64
	Weather    *domain.WeatherObservation
	Fuel       *domain.FuelObservation
	Warnings   []string
}

// Locator finds nearby RAWS stations and resolves observation context.
type Locator struct {
	provider     domain.StationDataProvider
	candidates   int
	weatherHours int
	fuelDays     int
	metrics      *observability.Metrics
	logger       *slog.Logger
}

// NewLocator creates a Locator that considers the given number of nearest
// candidates per query.
func NewLocator(provider domain.StationDataProvider, candidates, weatherHours, fuelDays int, metrics *observability.Metrics, logger *slog.Logger) *Locator {
	return &Locator{
		provider:     provider,
		candidates:   candidates,
		weatherHours: weatherHours,
		fuelDays:     fuelDays,
		metrics:      metrics,
		logger:       logger,
	}
}

// Nearest returns up to max stations ordered by distance from the point.
// Active stations are preferred; inactive ones are considered only when no
// active station exists at all.
func (l *Locator) Nearest(ctx context.Context, lat, lon float64, max int) ([]Candidate, error) {
	stations, err := l.provider.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("%w: provider returned no stations", domain.ErrNoObservations)
	}

	active := stations[:0:0]
	for _, s := range stations {
		if s.Active() {
			active = append(active, s)
		}
	}
	pool := active
	if len(pool) == 0 {
		pool = stations
	}

	candidates := make([]Candidate, 0, len(pool))
	for _, s := range pool {
		candidates = append(candidates, Candidate{
			Station:    s,
			DistanceKM: domain.HaversineKM(lat, lon, s.Latitude, s.Longitude),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].DistanceKM < candidates[j].DistanceKM
	})
	if max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}
	return candidates, nil
}

// Station looks up one station by id, regardless of status.
func (l *Locator) Station(ctx context.Context, stationID int64) (*domain.Station, error) {
	all, err := l.provider.ListStations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stations: %w", err)
	}
	for _, s := range all {
		if s.ID == stationID {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: station %d not found", domain.ErrInvalidInput, stationID)
}

// ResolveContext walks the nearest candidates until one has both recent
// weather and a recent NFDRS record. Weather found at an earlier candidate
// that lacked fuel data is retained so a partially-reporting close station
// still contributes. When no candidate has fuel data, the nearest station is
// returned with whatever was found and a warning per gap.
func (l *Locator) ResolveContext(ctx context.Context, lat, lon float64) (*Context, error) {
	candidates, err := l.Nearest(ctx, lat, lon, l.candidates)
	if err != nil {
		return nil, err
	}

	result := &Context{
		Station:    candidates[0].Station,
		DistanceKM: candidates[0].DistanceKM,
	}

	for rank, cand := range candidates {
		weather, fuel := l.Observe(ctx, cand.Station.ID)

		if result.Weather == nil && weather != nil {
			result.Weather = weather
			if rank > 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("weather from fallback station %s (%.1f km away)", cand.Station.Name, cand.DistanceKM))
			}
		}

		if weather != nil && fuel != nil {
			result.Station = cand.Station
			result.DistanceKM = cand.DistanceKM
			result.Weather = weather
			result.Fuel = fuel
			if rank > 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("selected fallback station %s (%.1f km away), rank %d", cand.Station.Name, cand.DistanceKM, rank))
			}
			l.metrics.StationFallbackDepth.Observe(float64(rank))
			return result, nil
		}

		l.logger.Debug("station candidate incomplete",
			"station_id", cand.Station.ID,
			"station", cand.Station.Name,
			"rank", rank,
			"has_weather", weather != nil,
			"has_fuel", fuel != nil,
		)
	}

	if result.Weather == nil && result.Fuel == nil {
		return nil, fmt.Errorf("%w: no candidate station reported weather or fuel data", domain.ErrNoObservations)
	}
	if result.Weather == nil {
		result.Warnings = append(result.Warnings, "no recent weather observations at any candidate station")
	}
	if result.Fuel == nil {
		result.Warnings = append(result.Warnings, "no recent NFDRS observations at any candidate station")
	}
	l.metrics.StationFallbackDepth.Observe(float64(len(candidates)))
	return result, nil
}

// Observe fetches the latest weather and fuel records for one station
// concurrently. Provider errors degrade to missing data; callers decide
// whether that is fatal.
func (l *Locator) Observe(ctx context.Context, stationID int64) (*domain.WeatherObservation, *domain.FuelObservation) {
	type weatherResult struct {
		obs *domain.WeatherObservation
		err error
	}
	type fuelResult struct {
		obs *domain.FuelObservation
		err error
	}

	weatherCh := make(chan weatherResult, 1)
	fuelCh := make(chan fuelResult, 1)

	go func() {
		obs, err := l.provider.WeatherObservations(ctx, stationID, l.weatherHours)
		weatherCh <- weatherResult{obs: domain.LatestWeather(obs), err: err}
	}()
	go func() {
		obs, err := l.provider.FuelObservations(ctx, stationID, l.fuelDays)
		fuelCh <- fuelResult{obs: domain.LatestFuel(obs), err: err}
	}()

	w := <-weatherCh
	f := <-fuelCh
	if w.err != nil {
		l.logger.Warn("weather fetch failed", "station_id", stationID, "error", w.err)
		w.obs = nil
	}
	if f.err != nil {
		l.logger.Warn("fuel fetch failed", "station_id", stationID, "error", f.err)
		f.obs = nil
	}
	return w.obs, f.obs
}
