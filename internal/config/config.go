// Package config defines service configuration and its loading.
//
// Keys are flat so that every one of them can be set from the environment
// with the SWAP_ prefix, e.g. SWAP_BATCH_WIDTH=20.
package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/skillswap/internal/domain/scoring"
)

// Store kinds.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Notification sinks.
const (
	SinkLog   = "log"
	SinkRedis = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// RateLimitPerMinute caps requests per client IP; 0 disables it.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// Store selects the persistence backend: memory or postgres.
	Store            string `koanf:"store"`
	DatabaseURL      string `koanf:"database_url"`
	DBMaxConns       int    `koanf:"db_max_conns"`
	DBQueryTimeoutMS int    `koanf:"db_query_timeout_ms"`
	// SeedPeople fills the memory store with synthetic people at startup.
	SeedPeople int `koanf:"seed_people"`

	// Redis backs the batch lock and, optionally, notification delivery.
	RedisEnabled  bool   `koanf:"redis_enabled"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Matching limits.
	CandidatePoolLimit int  `koanf:"candidate_pool_limit"`
	DefaultLimit       int  `koanf:"default_limit"`
	MaxLimit           int  `koanf:"max_limit"`
	ResponseWindowDays int  `koanf:"response_window_days"`
	RecordViews        bool `koanf:"record_views"`

	// Factor weights; they must sum to 1.
	WeightComplementarity     float64 `koanf:"weight_complementarity"`
	WeightAvailabilityOverlap float64 `koanf:"weight_availability_overlap"`
	WeightLearningStyle       float64 `koanf:"weight_learning_style"`
	WeightRatingHistory       float64 `koanf:"weight_rating_history"`
	WeightResponseRate        float64 `koanf:"weight_response_rate"`

	// Batch generation. BatchIntervalMinutes 0 disables the schedule.
	BatchWidth           int `koanf:"batch_width"`
	BatchPauseMS         int `koanf:"batch_pause_ms"`
	BatchTopK            int `koanf:"batch_top_k"`
	BatchIntervalMinutes int `koanf:"batch_interval_minutes"`
	BatchLockTTLMinutes  int `koanf:"batch_lock_ttl_minutes"`
	ActiveWindowDays     int `koanf:"active_window_days"`

	// Retention of PASS and VIEW rows. RetentionIntervalHours 0 disables it.
	RetentionDays          int `koanf:"retention_days"`
	RetentionIntervalHours int `koanf:"retention_interval_hours"`

	// Notification delivery.
	NotificationSink          string `koanf:"notification_sink"`
	NotificationChannel       string `koanf:"notification_channel"`
	NotificationQueueSize     int    `koanf:"notification_queue_size"`
	NotificationWorkers       int    `koanf:"notification_workers"`
	BreakerFailureThreshold   int    `koanf:"breaker_failure_threshold"`
	BreakerOpenTimeoutSeconds int    `koanf:"breaker_open_timeout_seconds"`
}

// New returns a Config holding the defaults.
func New() *Config {
	w := scoring.DefaultWeights()
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		RateLimitPerMinute: 600,

		Store:            StoreMemory,
		DBMaxConns:       10,
		DBQueryTimeoutMS: 2000,

		RedisAddr: "localhost:6379",

		CandidatePoolLimit: 100,
		DefaultLimit:       20,
		MaxLimit:           100,
		ResponseWindowDays: 30,

		WeightComplementarity:     w.Complementarity,
		WeightAvailabilityOverlap: w.AvailabilityOverlap,
		WeightLearningStyle:       w.LearningStyle,
		WeightRatingHistory:       w.RatingHistory,
		WeightResponseRate:        w.ResponseRate,

		BatchWidth:           10,
		BatchPauseMS:         500,
		BatchTopK:            5,
		BatchIntervalMinutes: 24 * 60,
		BatchLockTTLMinutes:  30,
		ActiveWindowDays:     30,

		RetentionDays:          90,
		RetentionIntervalHours: 24,

		NotificationSink:          SinkLog,
		NotificationChannel:       "skillswap:notifications",
		NotificationQueueSize:     10_000,
		NotificationWorkers:       2,
		BreakerFailureThreshold:   5,
		BreakerOpenTimeoutSeconds: 30,
	}
}

// Weights returns the configured factor weights.
func (c *Config) Weights() scoring.Weights {
	return scoring.Weights{
		Complementarity:     c.WeightComplementarity,
		AvailabilityOverlap: c.WeightAvailabilityOverlap,
		LearningStyle:       c.WeightLearningStyle,
		RatingHistory:       c.WeightRatingHistory,
		ResponseRate:        c.WeightResponseRate,
	}
}

// Validate reports the first inconsistency, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(c.Addr) == "" {
		return invalid("addr must not be empty")
	}
	switch c.Store {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return invalid("database_url is required for the postgres store")
		}
	default:
		return invalid("unknown store %q", c.Store)
	}
	switch c.NotificationSink {
	case SinkLog:
	case SinkRedis:
		if !c.RedisEnabled {
			return invalid("the redis notification sink needs redis_enabled")
		}
	default:
		return invalid("unknown notification_sink %q", c.NotificationSink)
	}
	if err := c.Weights().Validate(); err != nil {
		return invalid("%v", err)
	}

	positive := map[string]int{
		"candidate_pool_limit":    c.CandidatePoolLimit,
		"default_limit":           c.DefaultLimit,
		"max_limit":               c.MaxLimit,
		"response_window_days":    c.ResponseWindowDays,
		"batch_width":             c.BatchWidth,
		"batch_top_k":             c.BatchTopK,
		"active_window_days":      c.ActiveWindowDays,
		"retention_days":          c.RetentionDays,
		"notification_queue_size": c.NotificationQueueSize,
		"notification_workers":    c.NotificationWorkers,
	}
	for _, key := range sortedKeys(positive) {
		if positive[key] <= 0 {
			return invalid("%s must be positive", key)
		}
	}
	if c.DefaultLimit > c.MaxLimit {
		return invalid("default_limit %d exceeds max_limit %d", c.DefaultLimit, c.MaxLimit)
	}
	if c.SeedPeople < 0 {
		return invalid("seed_people must not be negative")
	}
	if c.BatchPauseMS < 0 || c.BatchIntervalMinutes < 0 || c.RetentionIntervalHours < 0 || c.RateLimitPerMinute < 0 {
		return invalid("intervals and rate limits must not be negative")
	}
	return nil
}

// BatchPause is the delay between batch groups.
func (c *Config) BatchPause() time.Duration {
	return time.Duration(c.BatchPauseMS) * time.Millisecond
}

// BatchInterval is the time between scheduled batch runs.
func (c *Config) BatchInterval() time.Duration {
	return time.Duration(c.BatchIntervalMinutes) * time.Minute
}

// BatchLockTTL bounds how long a crashed run can hold the batch lock.
func (c *Config) BatchLockTTL() time.Duration {
	return time.Duration(c.BatchLockTTLMinutes) * time.Minute
}

// ActiveWindow is how recently a person must have been active to be
// included in batch runs.
func (c *Config) ActiveWindow() time.Duration {
	return days(c.ActiveWindowDays)
}

// ResponseWindow is how far back candidate decisions count.
func (c *Config) ResponseWindow() time.Duration {
	return days(c.ResponseWindowDays)
}

// Retention is the age after which PASS and VIEW rows are purged.
func (c *Config) Retention() time.Duration {
	return days(c.RetentionDays)
}

// RetentionInterval is the time between scheduled purges.
func (c *Config) RetentionInterval() time.Duration {
	return time.Duration(c.RetentionIntervalHours) * time.Hour
}

// DBQueryTimeout bounds each store query.
func (c *Config) DBQueryTimeout() time.Duration {
	return time.Duration(c.DBQueryTimeoutMS) * time.Millisecond
}

// BreakerOpenTimeout is how long the notification breaker stays open.
func (c *Config) BreakerOpenTimeout() time.Duration {
	return time.Duration(c.BreakerOpenTimeoutSeconds) * time.Second
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
