package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestScoreFireDanger(t *testing.T) {
	t.Run("reference scenario", func(t *testing.T) {
		// Station at (40.0,-74.0): BI 80, IC 60, SC 50, KBDI 400, 1-hr FM 6,
		// wind 10 mph, RH 30 => 10 + 12 + 7.5 + 5 + 12.003 + 3 + 3.5 = 53.0.
		fuel := &FuelObservation{
			BurningIndex:      f(80),
			IgnitionComponent: f(60),
			SpreadComponent:   f(50),
			KBDI:              f(400),
			OneHourFM:         f(6),
		}
		weather := &WeatherObservation{
			WindSpeed:        f(10),
			WindDirection:    f(270),
			RelativeHumidity: f(30),
		}

		score := ScoreFireDanger(fuel, weather)
		assert.InDelta(t, 53.0, score, 0.01)
		assert.Equal(t, RiskHigh, LevelForScore(score))
	})

	t.Run("all defaults", func(t *testing.T) {
		// fm=30 => max(0, 100-99.9)*0.15 = 0.015; rh=50 => 2.5.
		score := ScoreFireDanger(nil, nil)
		assert.InDelta(t, 2.52, score, 0.01)
		assert.Equal(t, RiskLow, LevelForScore(score))
	})

	t.Run("bounded for extreme inputs", func(t *testing.T) {
		fuel := &FuelObservation{
			BurningIndex:      f(10_000),
			IgnitionComponent: f(100),
			SpreadComponent:   f(10_000),
			KBDI:              f(800),
			OneHourFM:         f(0),
		}
		weather := &WeatherObservation{
			WindSpeed:        f(500),
			RelativeHumidity: f(0),
		}
		score := ScoreFireDanger(fuel, weather)
		assert.LessOrEqual(t, score, 100.0)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.Equal(t, RiskExtreme, LevelForScore(score))
	})

	t.Run("monotonicity", func(t *testing.T) {
		base := func() (*FuelObservation, *WeatherObservation) {
			return &FuelObservation{
					BurningIndex:      f(60),
					IgnitionComponent: f(40),
					SpreadComponent:   f(30),
					KBDI:              f(200),
					OneHourFM:         f(12),
				}, &WeatherObservation{
					WindSpeed:        f(8),
					RelativeHumidity: f(40),
				}
		}

		fuel, weather := base()
		ref := ScoreFireDanger(fuel, weather)

		bump := []struct {
			name  string
			apply func(*FuelObservation, *WeatherObservation)
			up    bool
		}{
			{"burning index up", func(fu *FuelObservation, _ *WeatherObservation) { fu.BurningIndex = f(120) }, true},
			{"ignition component up", func(fu *FuelObservation, _ *WeatherObservation) { fu.IgnitionComponent = f(80) }, true},
			{"spread component up", func(fu *FuelObservation, _ *WeatherObservation) { fu.SpreadComponent = f(60) }, true},
			{"kbdi up", func(fu *FuelObservation, _ *WeatherObservation) { fu.KBDI = f(500) }, true},
			{"wind up", func(_ *FuelObservation, w *WeatherObservation) { w.WindSpeed = f(20) }, true},
			{"humidity up", func(_ *FuelObservation, w *WeatherObservation) { w.RelativeHumidity = f(80) }, false},
			{"fuel moisture up", func(fu *FuelObservation, _ *WeatherObservation) { fu.OneHourFM = f(25) }, false},
		}

		for _, tt := range bump {
			t.Run(tt.name, func(t *testing.T) {
				fu, w := base()
				tt.apply(fu, w)
				got := ScoreFireDanger(fu, w)
				if tt.up {
					assert.GreaterOrEqual(t, got, ref)
				} else {
					assert.LessOrEqual(t, got, ref)
				}
			})
		}
	})
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskLevel
	}{
		{0, RiskLow},
		{19.99, RiskLow},
		{20, RiskModerate},
		{39.99, RiskModerate},
		{40, RiskHigh},
		{60, RiskVeryHigh},
		{80, RiskExtreme},
		{100, RiskExtreme},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelForScore(tt.score), "score %.2f", tt.score)
	}
}

func TestLatestObservations(t *testing.T) {
	t.Run("weather picks most recent by timestamp", func(t *testing.T) {
		obs := []WeatherObservation{
			{StationID: 1, ObservationTime: mustTime(t, "2026-08-01T10:00:00Z")},
			{StationID: 2, ObservationTime: mustTime(t, "2026-08-01T14:00:00Z")},
			{StationID: 3, ObservationTime: mustTime(t, "2026-08-01T12:00:00Z")},
		}
		latest := LatestWeather(obs)
		assert.EqualValues(t, 2, latest.StationID)
	})

	t.Run("nil for empty slices", func(t *testing.T) {
		assert.Nil(t, LatestWeather(nil))
		assert.Nil(t, LatestFuel(nil))
	})
}
