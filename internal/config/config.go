package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// FEMS climatology (stations, weather, NFDRS).
	FEMSBaseURL string
	FEMSTimeout time.Duration
	FEMSStateID string

	// NASA FIRMS fire detections.
	FIRMSBaseURL  string
	FIRMSMapKey   string
	FIRMSProduct  string
	FIRMSTimeout  time.Duration
	FIRMSCacheTTL time.Duration

	// Aggregation.
	ResultCacheTTL       time.Duration
	StationCandidates    int
	WeatherLookbackHours int
	FuelLookbackDays     int
	FireLookbackDays     int
	PlumeWorkers         int

	// Optional Kafka summary sink.
	KafkaBrokers      []string
	KafkaSummaryTopic string
	KafkaEnabled      bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	femsTimeout, err := parseDuration("FEMS_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	firmsTimeout, err := parseDuration("FIRMS_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	firmsCacheTTL, err := parseDuration("FIRMS_CACHE_TTL", "30m")
	if err != nil {
		return nil, err
	}
	resultCacheTTL, err := parseDuration("RESULT_CACHE_TTL", "1h")
	if err != nil {
		return nil, err
	}

	kafkaBrokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	kafkaEnabled := envOrDefault("KAFKA_ENABLED", "false") == "true"

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FEMSBaseURL: envOrDefault("FEMS_BASE_URL", "https://fems.fs2c.usda.gov/api/climatology/graphql"),
		FEMSTimeout: femsTimeout,
		FEMSStateID: envOrDefault("FEMS_STATE_ID", "NY"),

		FIRMSBaseURL:  envOrDefault("FIRMS_BASE_URL", "https://firms.modaps.eosdis.nasa.gov/api"),
		FIRMSMapKey:   os.Getenv("FIRMS_MAP_KEY"),
		FIRMSProduct:  envOrDefault("FIRMS_PRODUCT", "VIIRS_SNPP_NRT"),
		FIRMSTimeout:  firmsTimeout,
		FIRMSCacheTTL: firmsCacheTTL,

		ResultCacheTTL:       resultCacheTTL,
		StationCandidates:    parsePositiveInt("STATION_CANDIDATES", 6),
		WeatherLookbackHours: parsePositiveInt("WEATHER_LOOKBACK_HOURS", 24),
		FuelLookbackDays:     parsePositiveInt("FUEL_LOOKBACK_DAYS", 7),
		FireLookbackDays:     parsePositiveInt("FIRE_LOOKBACK_DAYS", 1),
		PlumeWorkers:         parsePositiveInt("PLUME_WORKERS", 8),

		KafkaBrokers:      kafkaBrokers,
		KafkaSummaryTopic: envOrDefault("KAFKA_SUMMARY_TOPIC", "wildfire-overview-summaries"),
		KafkaEnabled:      kafkaEnabled,
	}

	if cfg.FIRMSMapKey == "" {
		return nil, errors.New("FIRMS_MAP_KEY is required")
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func parseBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
