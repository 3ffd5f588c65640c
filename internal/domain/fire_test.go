package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestConfidencePercent(t *testing.T) {
	tests := []struct {
		raw  string
		want *float64
	}{
		{"l", f(20)},
		{"low", f(20)},
		{"n", f(60)},
		{"nominal", f(60)},
		{"h", f(90)},
		{"HIGH", f(90)},
		{"85", f(85)},
		{"42.5", f(42.5)},
		{"", nil},
		{"garbage", nil},
	}
	for _, tt := range tests {
		got := ConfidencePercent(tt.raw)
		if tt.want == nil {
			assert.Nil(t, got, "raw %q", tt.raw)
		} else {
			require.NotNil(t, got, "raw %q", tt.raw)
			assert.Equal(t, *tt.want, *got, "raw %q", tt.raw)
		}
	}
}

func TestParseAcquisition(t *testing.T) {
	t.Run("full timestamp", func(t *testing.T) {
		got := ParseAcquisition("2024-08-14", "1510")
		assert.Equal(t, mustTime(t, "2024-08-14T15:10:00Z"), got)
	})

	t.Run("zero-pads short times", func(t *testing.T) {
		got := ParseAcquisition("2024-08-14", "930")
		assert.Equal(t, mustTime(t, "2024-08-14T09:30:00Z"), got)
	})

	t.Run("missing date", func(t *testing.T) {
		assert.True(t, ParseAcquisition("", "1510").IsZero())
	})

	t.Run("malformed date", func(t *testing.T) {
		assert.True(t, ParseAcquisition("14/08/2024", "1510").IsZero())
	})
}

func TestFootprintAreaM2(t *testing.T) {
	t.Run("from scan and track", func(t *testing.T) {
		d := FireDetection{ScanKM: 0.5, TrackKM: 0.4}
		assert.InDelta(t, 200_000, d.FootprintAreaM2(), 1)
	})

	t.Run("nominal pixel fallback", func(t *testing.T) {
		d := FireDetection{}
		assert.InDelta(t, 140_625, d.FootprintAreaM2(), 1)
	})
}
