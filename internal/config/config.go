package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/jalansafe/routeintel/internal/scoring"
)

// Backend names for pluggable stores
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the process configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	DatabaseURL    string
	RedisURL       string
	TrafficBackend string
	TaskStore      string

	GraphHopperURL    string
	GraphHopperAPIKey string
	NominatimURL      string
	NominatimCountry  string
	OpenWeatherAPIKey string
	ImageryServiceURL string

	RoutingTimeout   time.Duration
	WeatherTimeout   time.Duration
	GeocodingTimeout time.Duration
	ImageryTimeout   time.Duration
	TaskTimeout      time.Duration
	TaskRetention    time.Duration

	CandidateMinPoints int
	CandidateViaOffset float64

	Scoring scoring.Config

	// Warnings lists variables that were set but could not be parsed
	Warnings []string
}

// Load reads an optional .env file and then the environment.
// It reports whether a .env file was found.
func Load(envFiles ...string) (*Config, bool) {
	found := godotenv.Load(envFiles...) == nil
	return FromEnv(), found
}

// FromEnv builds the configuration from the current environment
func FromEnv() *Config {
	l := &loader{}
	sc := scoring.DefaultConfig()

	cfg := &Config{
		Port:      l.str("PORT", "8080"),
		Env:       l.str("GO_ENV", "development"),
		LogLevel:  l.str("LOG_LEVEL", "info"),
		LogFormat: l.str("LOG_FORMAT", "json"),

		DatabaseURL:    l.str("DATABASE_URL", ""),
		RedisURL:       l.str("REDIS_URL", ""),
		TrafficBackend: l.str("TRAFFIC_BACKEND", BackendPostgres),
		TaskStore:      l.str("TASK_STORE", BackendMemory),

		GraphHopperURL:    l.str("GRAPHHOPPER_URL", "https://graphhopper.com/api/1"),
		GraphHopperAPIKey: l.str("GRAPHHOPPER_API_KEY", ""),
		NominatimURL:      l.str("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimCountry:  l.str("NOMINATIM_COUNTRY", "MY"),
		OpenWeatherAPIKey: l.str("OPENWEATHER_API_KEY", ""),
		ImageryServiceURL: l.str("IMAGERY_SERVICE_URL", "http://localhost:8000"),

		RoutingTimeout:   l.duration("ROUTING_TIMEOUT", 10*time.Second),
		WeatherTimeout:   l.duration("WEATHER_TIMEOUT", 10*time.Second),
		GeocodingTimeout: l.duration("GEOCODING_TIMEOUT", 15*time.Second),
		ImageryTimeout:   l.duration("IMAGERY_TIMEOUT", 120*time.Second),
		TaskTimeout:      l.duration("TASK_TIMEOUT", 5*time.Minute),
		TaskRetention:    l.duration("TASK_RETENTION", 24*time.Hour),

		CandidateMinPoints: l.integer("CANDIDATE_MIN_POINTS", 20),
		CandidateViaOffset: l.float("CANDIDATE_VIA_OFFSET", 0.01),

		Scoring: scoring.Config{
			HazardWeight:              l.float("SCORE_HAZARD_WEIGHT", sc.HazardWeight),
			ObserverWeight:            l.float("SCORE_OBSERVER_WEIGHT", sc.ObserverWeight),
			DelayWeight:               l.float("SCORE_DELAY_WEIGHT", sc.DelayWeight),
			GreenAbove:                l.float("SCORE_GREEN_ABOVE", sc.GreenAbove),
			RedBelow:                  l.float("SCORE_RED_BELOW", sc.RedBelow),
			RedObserverLimit:          l.integer("SCORE_RED_OBSERVER_LIMIT", sc.RedObserverLimit),
			OptimalGreenObserverLimit: l.integer("SCORE_OPTIMAL_GREEN_OBSERVER_LIMIT", sc.OptimalGreenObserverLimit),
			HazardRadiusMeters:        l.float("HAZARD_RADIUS_METERS", sc.HazardRadiusMeters),
			TrafficWindow:             l.duration("TRAFFIC_WINDOW", sc.TrafficWindow),
			MatchStride:               l.integer("MATCH_STRIDE", sc.MatchStride),
		},
	}

	cfg.Warnings = l.warnings
	return cfg
}

type loader struct {
	warnings []string
}

func (l *loader) str(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func (l *loader) integer(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		l.warnings = append(l.warnings, fmt.Sprintf("invalid %s=%q, using default %d", key, value, fallback))
		return fallback
	}
	return n
}

func (l *loader) float(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		l.warnings = append(l.warnings, fmt.Sprintf("invalid %s=%q, using default %.2f", key, value, fallback))
		return fallback
	}
	return f
}

func (l *loader) duration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		l.warnings = append(l.warnings, fmt.Sprintf("invalid %s=%q, using default %s", key, value, fallback))
		return fallback
	}
	return d
}
