// Package config holds the process-level configuration surface: database
// contact points, cache sizing, fan-out limits, and retry policy. Parsing
// is intentionally thin (flag-based, flags overridden by environment
// variables) since full process wiring beyond that is out of scope.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every knob the gateway's process entrypoint needs.
type Config struct {
	// Database configuration
	ContactPoints []string
	Keyspace      string
	PageSize      int

	// Cache configuration
	CacheBytes int

	// Fan-out configuration
	FanOutLimit int

	// Time zone used for day-partition boundaries and the live-day check.
	LocalZone string

	// Retry configuration
	RetryMaxAttempts     int
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryMultiplier      float64

	// Worker pool configuration
	WorkerCount int
	QueueSize   int
}

// Default returns the gateway's default configuration.
func Default() *Config {
	return &Config{
		ContactPoints: []string{"127.0.0.1"},
		Keyspace:      "hdbpp",
		PageSize:      50000,

		CacheBytes: 256 * 1024 * 1024,

		FanOutLimit: 50,

		LocalZone: "UTC",

		RetryMaxAttempts:     5,
		RetryInitialInterval: 200 * time.Millisecond,
		RetryMaxInterval:     5 * time.Second,
		RetryMultiplier:      2.0,

		WorkerCount: 4,
		QueueSize:   64,
	}
}

// LoadFromFlags parses command-line flags (seeded with Default's values)
// then applies any matching environment variable overrides.
func LoadFromFlags() *Config {
	cfg := Default()

	var contactPoints string
	flag.StringVar(&contactPoints, "contact-points", strings.Join(cfg.ContactPoints, ","), "comma-separated Cassandra contact points")
	flag.StringVar(&cfg.Keyspace, "keyspace", cfg.Keyspace, "Cassandra keyspace")
	flag.IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "driver page size")

	flag.IntVar(&cfg.CacheBytes, "cache-bytes", cfg.CacheBytes, "day-cache byte budget")
	flag.IntVar(&cfg.FanOutLimit, "fan-out-limit", cfg.FanOutLimit, "max concurrent day-partition fetches per request")

	flag.StringVar(&cfg.LocalZone, "local-zone", cfg.LocalZone, "IANA time zone for day-partition boundaries")

	flag.IntVar(&cfg.RetryMaxAttempts, "retry-max-attempts", cfg.RetryMaxAttempts, "max driver call attempts")
	flag.DurationVar(&cfg.RetryInitialInterval, "retry-initial-interval", cfg.RetryInitialInterval, "initial retry backoff")
	flag.DurationVar(&cfg.RetryMaxInterval, "retry-max-interval", cfg.RetryMaxInterval, "max retry backoff")
	flag.Float64Var(&cfg.RetryMultiplier, "retry-multiplier", cfg.RetryMultiplier, "retry backoff multiplier")

	flag.IntVar(&cfg.WorkerCount, "worker-count", cfg.WorkerCount, "background transform worker count")
	flag.IntVar(&cfg.QueueSize, "queue-size", cfg.QueueSize, "background transform queue size")

	flag.Parse()

	cfg.ContactPoints = splitCSV(getEnv("ARCHIVEGW_CONTACT_POINTS", contactPoints))
	cfg.Keyspace = getEnv("ARCHIVEGW_KEYSPACE", cfg.Keyspace)
	cfg.PageSize = getEnvInt("ARCHIVEGW_PAGE_SIZE", cfg.PageSize)

	cfg.CacheBytes = getEnvInt("ARCHIVEGW_CACHE_BYTES", cfg.CacheBytes)
	cfg.FanOutLimit = getEnvInt("ARCHIVEGW_FAN_OUT_LIMIT", cfg.FanOutLimit)

	cfg.LocalZone = getEnv("ARCHIVEGW_LOCAL_ZONE", cfg.LocalZone)

	cfg.RetryMaxAttempts = getEnvInt("ARCHIVEGW_RETRY_MAX_ATTEMPTS", cfg.RetryMaxAttempts)
	cfg.RetryInitialInterval = getEnvDuration("ARCHIVEGW_RETRY_INITIAL_INTERVAL", cfg.RetryInitialInterval)
	cfg.RetryMaxInterval = getEnvDuration("ARCHIVEGW_RETRY_MAX_INTERVAL", cfg.RetryMaxInterval)
	cfg.RetryMultiplier = getEnvFloat64("ARCHIVEGW_RETRY_MULTIPLIER", cfg.RetryMultiplier)

	cfg.WorkerCount = getEnvInt("ARCHIVEGW_WORKER_COUNT", cfg.WorkerCount)
	cfg.QueueSize = getEnvInt("ARCHIVEGW_QUEUE_SIZE", cfg.QueueSize)

	return cfg
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
