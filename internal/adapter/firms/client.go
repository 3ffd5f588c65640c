// Package firms implements domain.FireDetectionProvider against the NASA
// FIRMS (Fire Information for Resource Management System) area API.
package firms

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"

	"github.com/couchcryptid/wildfire-risk-service/internal/cache"
	"github.com/couchcryptid/wildfire-risk-service/internal/domain"
	"github.com/couchcryptid/wildfire-risk-service/internal/observability"
)

// Client fetches satellite fire detections from the FIRMS area API. Raw
// responses are cached by URL so repeated overviews of nearby points within
// the TTL do not re-hit the upstream rate limit.
type Client struct {
	baseURL    string
	mapKey     string
	product    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	raw        *cache.TTL[[]domain.FireDetection]
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a FIRMS client for one satellite product.
func NewClient(baseURL, mapKey, product string, timeout, cacheTTL time.Duration, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		mapKey:  mapKey,
		product: product,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "firms",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
		raw:     cache.New(clock, cacheTTL, cloneDetections),
		metrics: metrics,
		logger:  logger,
	}
}

// Detections returns fire detections inside the bounding box for the
// trailing lookback window. The JSON endpoint is tried first with a CSV
// fallback, matching the two formats the area API serves.
func (c *Client) Detections(ctx context.Context, box domain.Bounds, lookbackDays int) ([]domain.FireDetection, error) {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	area := fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", box.MinLon, box.MinLat, box.MaxLon, box.MaxLat)
	jsonURL := fmt.Sprintf("%s/area/json/%s/%s/%s/%d", c.baseURL, c.mapKey, c.product, area, lookbackDays)

	if cached, _, ok := c.raw.Get(jsonURL); ok {
		c.metrics.CacheLookups.WithLabelValues("firms", "hit").Inc()
		return cached, nil
	}
	c.metrics.CacheLookups.WithLabelValues("firms", "miss").Inc()

	detections, err := c.fetchJSON(ctx, jsonURL)
	if err != nil {
		c.logger.Warn("firms json fetch failed, falling back to csv", "error", err)
		csvURL := fmt.Sprintf("%s/area/csv/%s/%s/%s/%d", c.baseURL, c.mapKey, c.product, area, lookbackDays)
		detections, err = c.fetchCSV(ctx, csvURL)
		if err != nil {
			c.metrics.ProviderRequests.WithLabelValues("firms", "error").Inc()
			return nil, err
		}
	}

	// The area API can return detections slightly outside the requested
	// box; keep only what the caller asked for.
	filtered := detections[:0]
	for _, d := range detections {
		if d.Latitude >= box.MinLat && d.Latitude <= box.MaxLat &&
			d.Longitude >= box.MinLon && d.Longitude <= box.MaxLon {
			filtered = append(filtered, d)
		}
	}
	detections = filtered

	if len(detections) == 0 {
		c.metrics.ProviderRequests.WithLabelValues("firms", "empty").Inc()
	} else {
		c.metrics.ProviderRequests.WithLabelValues("firms", "success").Inc()
	}

	c.raw.Put(jsonURL, detections)
	return detections, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: firms request: %v", domain.ErrProviderUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return nil, fmt.Errorf("%w: firms status %d: %s", domain.ErrProviderUnavailable, resp.StatusCode, snippet)
		}
		return io.ReadAll(resp.Body)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Client) fetchJSON(ctx context.Context, url string) ([]domain.FireDetection, error) {
	payload, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var rows []detectionRow
	if err := json.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode firms json: %w", err)
	}

	detections := make([]domain.FireDetection, 0, len(rows))
	for _, row := range rows {
		detections = append(detections, row.toDomain())
	}
	return detections, nil
}

func (c *Client) fetchCSV(ctx context.Context, url string) ([]domain.FireDetection, error) {
	payload, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(string(payload)))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("decode firms csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		col[strings.TrimSpace(name)] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	detections := make([]domain.FireDetection, 0, len(records)-1)
	for _, rec := range records[1:] {
		lat, err1 := strconv.ParseFloat(field(rec, "latitude"), 64)
		lon, err2 := strconv.ParseFloat(field(rec, "longitude"), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		row := detectionRow{
			Latitude:   lat,
			Longitude:  lon,
			AcqDate:    field(rec, "acq_date"),
			AcqTime:    json.RawMessage(field(rec, "acq_time")),
			Confidence: json.RawMessage(field(rec, "confidence")),
			DayNight:   field(rec, "daynight"),
		}
		if v, err := strconv.ParseFloat(field(rec, "frp"), 64); err == nil {
			row.FRP = &v
		}
		if v, err := strconv.ParseFloat(field(rec, "scan"), 64); err == nil {
			row.Scan = v
		}
		if v, err := strconv.ParseFloat(field(rec, "track"), 64); err == nil {
			row.Track = v
		}
		detections = append(detections, row.toDomain())
	}
	return detections, nil
}

// detectionRow is one FIRMS area record. Confidence is a string on VIIRS
// products ("l"/"n"/"h") and numeric on MODIS, so it stays raw until
// normalization.
type detectionRow struct {
	Latitude   float64         `json:"latitude"`
	Longitude  float64         `json:"longitude"`
	AcqDate    string          `json:"acq_date"`
	AcqTime    json.RawMessage `json:"acq_time"`
	Confidence json.RawMessage `json:"confidence"`
	FRP        *float64        `json:"frp"`
	Scan       float64         `json:"scan"`
	Track      float64         `json:"track"`
	DayNight   string          `json:"daynight"`
}

func (r detectionRow) toDomain() domain.FireDetection {
	d := domain.FireDetection{
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		Confidence: domain.ConfidencePercent(rawString(r.Confidence)),
		FRP:        r.FRP,
		ScanKM:     r.Scan,
		TrackKM:    r.Track,
		DayNight:   r.DayNight,
	}
	d.AcquiredAt = domain.ParseAcquisition(r.AcqDate, rawString(r.AcqTime))
	return d
}

// rawString strips quoting from a JSON scalar that may arrive as either a
// string or a number (FIRMS emits acq_time and confidence both ways).
func rawString(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	return strings.Trim(s, `"`)
}

func cloneDetections(in []domain.FireDetection) []domain.FireDetection {
	if in == nil {
		return nil
	}
	out := make([]domain.FireDetection, len(in))
	copy(out, in)
	return out
}
