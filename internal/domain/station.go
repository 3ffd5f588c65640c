package domain

import (
	"context"
	"time"
)

// Station is a RAWS weather/fuel observation site as reported by the FEMS
// station metadata endpoint. Immutable once fetched; refreshed per call.
type Station struct {
	ID        int64   `json:"station_id"`
	WRCCID    string  `json:"wrcc_id,omitempty"`
	Name      string  `json:"station_name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Elevation *float64 `json:"elevation,omitempty"`
	Type      string  `json:"station_type,omitempty"`
	Status    string  `json:"station_status,omitempty"`
	TimeZone  string  `json:"time_zone,omitempty"`
}

// Active reports whether the station is flagged active ("A") upstream.
func (s Station) Active() bool { return s.Status == "A" }

// WeatherObservation is one hourly RAWS weather record. Wind speed arrives
// in mph; precipitation accumulations in inches. Fields the provider omitted
// are nil, never zero.
type WeatherObservation struct {
	StationID        int64     `json:"station_id"`
	ObservationTime  time.Time `json:"observation_time"`
	Temperature      *float64  `json:"temperature,omitempty"`
	RelativeHumidity *float64  `json:"relative_humidity,omitempty"`
	WindSpeed        *float64  `json:"wind_speed,omitempty"`
	WindDirection    *float64  `json:"wind_direction,omitempty"`
	HourlyPrecip     *float64  `json:"hourly_precip,omitempty"`
	Precip24h        *float64  `json:"hr24_precipitation,omitempty"`
	Precip48h        *float64  `json:"hr48_precipitation,omitempty"`
	Precip72h        *float64  `json:"hr72_precipitation,omitempty"`
}

// FuelObservation is one daily NFDRS record for a station and fuel model.
type FuelObservation struct {
	StationID         int64     `json:"station_id"`
	Date              time.Time `json:"nfdr_date"`
	FuelModel         string    `json:"fuel_model,omitempty"`
	KBDI              *float64  `json:"kbdi,omitempty"`
	OneHourFM         *float64  `json:"one_hr_tl_fuel_moisture,omitempty"`
	TenHourFM         *float64  `json:"ten_hr_tl_fuel_moisture,omitempty"`
	HundredHourFM     *float64  `json:"hun_hr_tl_fuel_moisture,omitempty"`
	ThousandHourFM    *float64  `json:"thou_hr_tl_fuel_moisture,omitempty"`
	IgnitionComponent *float64  `json:"ignition_component,omitempty"`
	SpreadComponent   *float64  `json:"spread_component,omitempty"`
	EnergyRelease     *float64  `json:"energy_release_component,omitempty"`
	BurningIndex      *float64  `json:"burning_index,omitempty"`
}

// StationDataProvider is the upstream FEMS climatology service. Empty slices
// mean "no data", not an error. Implementations must honor the context.
type StationDataProvider interface {
	// ListStations returns station metadata for the configured region.
	ListStations(ctx context.Context) ([]Station, error)

	// WeatherObservations returns hourly weather for one station over the
	// trailing window, oldest first.
	WeatherObservations(ctx context.Context, stationID int64, hoursBack int) ([]WeatherObservation, error)

	// FuelObservations returns daily NFDRS records for one station over the
	// trailing window, oldest first.
	FuelObservations(ctx context.Context, stationID int64, daysBack int) ([]FuelObservation, error)
}

// LatestWeather returns the most recent observation by timestamp, or nil for
// an empty slice. Providers usually return time-ordered data but this does
// not assume it.
func LatestWeather(obs []WeatherObservation) *WeatherObservation {
	var latest *WeatherObservation
	for i := range obs {
		if latest == nil || obs[i].ObservationTime.After(latest.ObservationTime) {
			latest = &obs[i]
		}
	}
	return latest
}

// LatestFuel returns the most recent NFDRS record by date, or nil.
func LatestFuel(obs []FuelObservation) *FuelObservation {
	var latest *FuelObservation
	for i := range obs {
		if latest == nil || obs[i].Date.After(latest.Date) {
			latest = &obs[i]
		}
	}
	return latest
}
