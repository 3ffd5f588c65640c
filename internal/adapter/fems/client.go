// Package fems implements domain.StationDataProvider against the USDA Fire
// Environment Mapping System climatology GraphQL API.
package fems

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
)

// Client queries the FEMS climatology GraphQL endpoint.
type Client struct {
	baseURL    string
	stateID    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a FEMS client scoped to one state's RAWS network.
func NewClient(baseURL, stateID string, timeout time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		stateID: stateID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "fems",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// ListStations returns RAWS station metadata for the configured state.
func (c *Client) ListStations(ctx context.Context) ([]domain.Station, error) {
	query := fmt.Sprintf(`query {
    stationMetaData(
        stateId: %q
        hasHistoricData: TRUE
        stationType: "RAWS (SAT NFDRS)"
        returnAll: true
    ) {
        data {
            station_id
            wrcc_id
            station_name
            latitude
            longitude
            elevation
            station_type
            station_status
            time_zone
        }
    }
}`, c.stateID)

	var resp struct {
		Data struct {
			StationMetaData struct {
				Data []stationRow `json:"data"`
			} `json:"stationMetaData"`
		} `json:"data"`
	}
	if err := c.doQuery(ctx, query, &resp); err != nil {
		return nil, err
	}

	rows := resp.Data.StationMetaData.Data
	stations := make([]domain.Station, 0, len(rows))
	for _, row := range rows {
		stations = append(stations, row.toDomain())
	}
	c.countOutcome(len(stations))
	return stations, nil
}

// WeatherObservations returns hourly weather for one station over the
// trailing window.
func (c *Client) WeatherObservations(ctx context.Context, stationID int64, hoursBack int) ([]domain.WeatherObservation, error) {
	end := c.clock.Now().UTC()
	start := end.Add(-time.Duration(hoursBack) * time.Hour)

	query := fmt.Sprintf(`query {
    weatherObs(
        startDateTimeRange: %q
        endDateTimeRange: %q
        stationIds: "%d"
    ) {
        data {
            station_id
            observation_time
            temperature
            relative_humidity
            hourly_precip
            hr24Precipitation
            hr48Precipitation
            hr72Precipitation
            wind_speed
            wind_direction
        }
    }
}`, start.Format(time.RFC3339), end.Format(time.RFC3339), stationID)

	var resp struct {
		Data struct {
			WeatherObs struct {
				Data []weatherRow `json:"data"`
			} `json:"weatherObs"`
		} `json:"data"`
	}
	if err := c.doQuery(ctx, query, &resp); err != nil {
		return nil, err
	}

	rows := resp.Data.WeatherObs.Data
	obs := make([]domain.WeatherObservation, 0, len(rows))
	for _, row := range rows {
		obs = append(obs, row.toDomain())
	}
	c.countOutcome(len(obs))
	return obs, nil
}

// FuelObservations returns daily NFDRS records for one station over the
// trailing window.
func (c *Client) FuelObservations(ctx context.Context, stationID int64, daysBack int) ([]domain.FuelObservation, error) {
	end := c.clock.Now().UTC()
	start := end.AddDate(0, 0, -daysBack)

	query := fmt.Sprintf(`query {
    nfdrsObs(
        startDateRange: %q
        endDateRange: %q
        stationIds: "%d"
        nfdrType: "O"
        fuelModels: "Y"
        startHour: 12
        endHour: 14
    ) {
        data {
            station_id
            nfdr_date
            fuel_model
            kbdi
            one_hr_tl_fuel_moisture
            ten_hr_tl_fuel_moisture
            hun_hr_tl_fuel_moisture
            thou_hr_tl_fuel_moisture
            ignition_component
            spread_component
            energy_release_component
            burning_index
        }
    }
}`, start.Format("2006-01-02"), end.Format("2006-01-02"), stationID)

	var resp struct {
		Data struct {
			NFDRSObs struct {
				Data []fuelRow `json:"data"`
			} `json:"nfdrsObs"`
		} `json:"data"`
	}
	if err := c.doQuery(ctx, query, &resp); err != nil {
		return nil, err
	}

	rows := resp.Data.NFDRSObs.Data
	obs := make([]domain.FuelObservation, 0, len(rows))
	for _, row := range rows {
		obs = append(obs, row.toDomain())
	}
	c.countOutcome(len(obs))
	return obs, nil
}

func (c *Client) doQuery(ctx context.Context, query string, out any) error {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return fmt.Errorf("encode graphql query: %w", err)
	}

	start := c.clock.Now()
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: fems request: %v", domain.ErrProviderUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("%w: fems status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, snippet)
		}
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: read fems response: %v", domain.ErrProviderUnavailable, err)
		}
		return payload, nil
	})
	c.metrics.ProviderDuration.WithLabelValues("fems").Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.ProviderRequests.WithLabelValues("fems", "error").Inc()
		c.logger.Warn("fems query failed", "error", err)
		return err
	}

	if err := json.Unmarshal(result.([]byte), out); err != nil {
		c.metrics.ProviderRequests.WithLabelValues("fems", "error").Inc()
		return fmt.Errorf("decode fems response: %w", err)
	}
	return nil
}

func (c *Client) countOutcome(rows int) {
	if rows == 0 {
		c.metrics.ProviderRequests.WithLabelValues("fems", "empty").Inc()
		return
	}
	c.metrics.ProviderRequests.WithLabelValues("fems", "success").Inc()
}

// FEMS GraphQL response rows. Numeric fields are pointers: the API reports
// missing sensors as null and a zero would be a legitimate reading.

type stationRow struct {
	StationID int64    `json:"station_id"`
	WRCCID    string   `json:"wrcc_id"`
	Name      string   `json:"station_name"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Elevation *float64 `json:"elevation"`
	Type      string   `json:"station_type"`
	Status    string   `json:"station_status"`
	TimeZone  string   `json:"time_zone"`
}

func (r stationRow) toDomain() domain.Station {
	return domain.Station{
		ID:        r.StationID,
		WRCCID:    r.WRCCID,
		Name:      r.Name,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Elevation: r.Elevation,
		Type:      r.Type,
		Status:    r.Status,
		TimeZone:  r.TimeZone,
	}
}

type weatherRow struct {
	StationID        int64    `json:"station_id"`
	ObservationTime  string   `json:"observation_time"`
	Temperature      *float64 `json:"temperature"`
	RelativeHumidity *float64 `json:"relative_humidity"`
	HourlyPrecip     *float64 `json:"hourly_precip"`
	Precip24h        *float64 `json:"hr24Precipitation"`
	Precip48h        *float64 `json:"hr48Precipitation"`
	Precip72h        *float64 `json:"hr72Precipitation"`
	WindSpeed        *float64 `json:"wind_speed"`
	WindDirection    *float64 `json:"wind_direction"`
}

func (r weatherRow) toDomain() domain.WeatherObservation {
	return domain.WeatherObservation{
		StationID:        r.StationID,
		ObservationTime:  parseObservationTime(r.ObservationTime),
		Temperature:      r.Temperature,
		RelativeHumidity: r.RelativeHumidity,
		HourlyPrecip:     r.HourlyPrecip,
		Precip24h:        r.Precip24h,
		Precip48h:        r.Precip48h,
		Precip72h:        r.Precip72h,
		WindSpeed:        r.WindSpeed,
		WindDirection:    r.WindDirection,
	}
}

type fuelRow struct {
	StationID         int64    `json:"station_id"`
	Date              string   `json:"nfdr_date"`
	FuelModel         string   `json:"fuel_model"`
	KBDI              *float64 `json:"kbdi"`
	OneHourFM         *float64 `json:"one_hr_tl_fuel_moisture"`
	TenHourFM         *float64 `json:"ten_hr_tl_fuel_moisture"`
	HundredHourFM     *float64 `json:"hun_hr_tl_fuel_moisture"`
	ThousandHourFM    *float64 `json:"thou_hr_tl_fuel_moisture"`
	IgnitionComponent *float64 `json:"ignition_component"`
	SpreadComponent   *float64 `json:"spread_component"`
	EnergyRelease     *float64 `json:"energy_release_component"`
	BurningIndex      *float64 `json:"burning_index"`
}

func (r fuelRow) toDomain() domain.FuelObservation {
	date, _ := time.Parse("2006-01-02", r.Date)
	return domain.FuelObservation{
		StationID:         r.StationID,
		Date:              date,
		FuelModel:         r.FuelModel,
		KBDI:              r.KBDI,
		OneHourFM:         r.OneHourFM,
		TenHourFM:         r.TenHourFM,
		HundredHourFM:     r.HundredHourFM,
		ThousandHourFM:    r.ThousandHourFM,
		IgnitionComponent: r.IgnitionComponent,
		SpreadComponent:   r.SpreadComponent,
		EnergyRelease:     r.EnergyRelease,
		BurningIndex:      r.BurningIndex,
	}
}

// parseObservationTime accepts the two timestamp layouts FEMS has been seen
// to emit.
func parseObservationTime(raw string) time.Time {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02 15:04", raw); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
