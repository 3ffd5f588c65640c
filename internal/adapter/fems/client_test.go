package fems

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	clock := clockwork.NewFakeClockAt(time.Date(2025, 8, 14, 18, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(srv.URL, "NY", 5*time.Second, clock, observability.NewMetricsForTesting(), logger)
}

func decodeQuery(t *testing.T, r *http.Request) string {
	t.Helper()
	var body struct {
		Query string `json:"query"`
	}
	require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
	return body.Query
}

func TestListStations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		query := decodeQuery(t, r)
		assert.Contains(t, query, "stationMetaData")
		assert.Contains(t, query, `stateId: "NY"`)
		assert.Contains(t, query, `stationType: "RAWS (SAT NFDRS)"`)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"data":{"stationMetaData":{"data":[
			{"station_id":30003,"wrcc_id":"NALB","station_name":"ALBANY","latitude":42.68,"longitude":-73.82,"elevation":89.0,"station_type":"RAWS (SAT NFDRS)","station_status":"A","time_zone":"America/New_York"},
			{"station_id":30017,"wrcc_id":"NSCH","station_name":"SCHENECTADY","latitude":42.81,"longitude":-73.94,"elevation":null,"station_type":"RAWS (SAT NFDRS)","station_status":"I","time_zone":"America/New_York"}
		]}}}`)
	})

	stations, err := client.ListStations(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 2)

	assert.Equal(t, int64(30003), stations[0].ID)
	assert.Equal(t, "ALBANY", stations[0].Name)
	assert.True(t, stations[0].Active())
	require.NotNil(t, stations[0].Elevation)
	assert.InDelta(t, 89.0, *stations[0].Elevation, 0.001)

	assert.False(t, stations[1].Active())
	assert.Nil(t, stations[1].Elevation)
}

func TestWeatherObservations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := decodeQuery(t, r)
		assert.Contains(t, query, "weatherObs")
		assert.Contains(t, query, `stationIds: "30003"`)
		// 24h window back from the fake clock.
		assert.Contains(t, query, `startDateTimeRange: "2025-08-13T18:00:00Z"`)
		assert.Contains(t, query, `endDateTimeRange: "2025-08-14T18:00:00Z"`)

		io.WriteString(w, `{"data":{"weatherObs":{"data":[
			{"station_id":30003,"observation_time":"2025-08-14T17:00:00Z","temperature":88.0,"relative_humidity":22.0,"wind_speed":14.0,"wind_direction":225.0,"hourly_precip":0.0},
			{"station_id":30003,"observation_time":"2025-08-14T16:00:00Z","temperature":86.0,"relative_humidity":null,"wind_speed":12.0,"wind_direction":230.0}
		]}}}`)
	})

	obs, err := client.WeatherObservations(context.Background(), 30003, 24)
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, time.Date(2025, 8, 14, 17, 0, 0, 0, time.UTC), obs[0].ObservationTime)
	require.NotNil(t, obs[0].WindSpeed)
	assert.InDelta(t, 14.0, *obs[0].WindSpeed, 0.001)
	assert.Nil(t, obs[1].RelativeHumidity)
}

func TestFuelObservations(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := decodeQuery(t, r)
		assert.Contains(t, query, "nfdrsObs")
		assert.Contains(t, query, `nfdrType: "O"`)
		assert.Contains(t, query, `fuelModels: "Y"`)
		assert.Contains(t, query, `startDateRange: "2025-08-07"`)
		assert.Contains(t, query, `endDateRange: "2025-08-14"`)

		io.WriteString(w, `{"data":{"nfdrsObs":{"data":[
			{"station_id":30003,"nfdr_date":"2025-08-14","fuel_model":"Y","kbdi":410.0,"one_hr_tl_fuel_moisture":5.2,"ignition_component":48.0,"spread_component":21.0,"burning_index":62.0}
		]}}}`)
	})

	obs, err := client.FuelObservations(context.Background(), 30003, 7)
	require.NoError(t, err)
	require.Len(t, obs, 1)

	assert.Equal(t, time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC), obs[0].Date)
	assert.Equal(t, "Y", obs[0].FuelModel)
	require.NotNil(t, obs[0].BurningIndex)
	assert.InDelta(t, 62.0, *obs[0].BurningIndex, 0.001)
	assert.Nil(t, obs[0].TenHourFM)
}

func TestDoQuery_UpstreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream maintenance", http.StatusBadGateway)
	})

	_, err := client.ListStations(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestDoQuery_BreakerOpensAfterFailures(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	// gobreaker defaults trip after 5 consecutive failures.
	for i := 0; i < 6; i++ {
		_, err := client.ListStations(context.Background())
		require.Error(t, err)
	}
	_, err := client.ListStations(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestParseObservationTime(t *testing.T) {
	assert.Equal(t, time.Date(2025, 8, 14, 17, 0, 0, 0, time.UTC), parseObservationTime("2025-08-14T17:00:00Z"))
	assert.Equal(t, time.Date(2025, 8, 14, 17, 0, 0, 0, time.UTC), parseObservationTime("2025-08-14 17:00"))
	assert.True(t, parseObservationTime("not a time").IsZero())
}
