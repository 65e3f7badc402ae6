// Package config loads the service configuration from environment variables,
// with built-in defaults for every knob.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/DanielKusyDev/posthog-session-insights/pkg/enrichment"
)

// Config is the full service configuration.
type Config struct {
	HTTPPort   string
	Worker     WorkerConfig
	Enrichment EnrichmentConfig
	Context    ContextConfig
	Retention  RetentionConfig
}

// WorkerConfig controls how the ingestion worker claims and processes
// batches.
type WorkerConfig struct {
	// BatchSize is the maximum number of raw events claimed per iteration.
	BatchSize int

	// MaxConcurrency bounds the in-flight per-event tasks within a batch.
	MaxConcurrency int

	// WaitTime is how long the worker sleeps after an empty batch.
	WaitTime time.Duration

	// TaskTimeout aborts a stuck per-event task; timed-out events are
	// marked FAILED.
	TaskTimeout time.Duration
}

// EnrichmentConfig controls semantic label building and context assembly.
type EnrichmentConfig struct {
	SemanticLabelMaxLength int
	PagesInSummaryLimit    int
	CustomEventTemplates   map[string]string
	ElementEnrichmentRules map[string]string
	ContextExcludedKeys    []string
}

// RetentionConfig controls the background sweeper that closes idle sessions
// and purges dead raw rows.
type RetentionConfig struct {
	// SessionIdleTimeout is how long a session may sit without activity
	// before the sweeper closes it.
	SessionIdleTimeout time.Duration

	// FailedEventTTL is how long FAILED raw rows are kept for inspection
	// before deletion.
	FailedEventTTL time.Duration

	// SweepInterval is the pause between sweeper runs.
	SweepInterval time.Duration
}

// ContextConfig controls the context-read endpoint.
type ContextConfig struct {
	// RecentEventsLimit caps the cross-session recent event list.
	RecentEventsLimit int

	// RecentEventsLookback restricts recent events to a trailing window;
	// zero disables the filter.
	RecentEventsLookback time.Duration
}

// Load reads the configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),
		Worker: WorkerConfig{
			BatchSize:      200,
			MaxConcurrency: 10,
			WaitTime:       1 * time.Second,
			TaskTimeout:    30 * time.Second,
		},
		Enrichment: EnrichmentConfig{
			SemanticLabelMaxLength: enrichment.DefaultSemanticLabelMaxLength,
			PagesInSummaryLimit:    3,
			CustomEventTemplates:   enrichment.DefaultCustomEventTemplates,
			ElementEnrichmentRules: enrichment.DefaultElementEnrichmentRules,
			ContextExcludedKeys:    enrichment.DefaultContextExcludedKeys,
		},
		Context: ContextConfig{
			RecentEventsLimit: 20,
		},
		Retention: RetentionConfig{
			SessionIdleTimeout: 30 * time.Minute,
			FailedEventTTL:     72 * time.Hour,
			SweepInterval:      5 * time.Minute,
		},
	}

	var err error
	if cfg.Worker.BatchSize, err = getEnvInt("BATCH_SIZE", cfg.Worker.BatchSize); err != nil {
		return nil, err
	}
	if cfg.Worker.MaxConcurrency, err = getEnvInt("MAX_CONCURRENCY", cfg.Worker.MaxConcurrency); err != nil {
		return nil, err
	}
	if cfg.Worker.WaitTime, err = getEnvSeconds("WAIT_TIME", cfg.Worker.WaitTime); err != nil {
		return nil, err
	}
	if cfg.Worker.TaskTimeout, err = getEnvSeconds("TASK_TIMEOUT", cfg.Worker.TaskTimeout); err != nil {
		return nil, err
	}
	if cfg.Worker.BatchSize <= 0 {
		return nil, fmt.Errorf("BATCH_SIZE must be positive, got %d", cfg.Worker.BatchSize)
	}
	if cfg.Worker.MaxConcurrency <= 0 {
		return nil, fmt.Errorf("MAX_CONCURRENCY must be positive, got %d", cfg.Worker.MaxConcurrency)
	}

	if cfg.Enrichment.SemanticLabelMaxLength, err = getEnvInt("SEMANTIC_LABEL_MAX_LENGTH", cfg.Enrichment.SemanticLabelMaxLength); err != nil {
		return nil, err
	}
	if cfg.Enrichment.PagesInSummaryLimit, err = getEnvInt("PAGES_IN_SUMMARY_LIMIT", cfg.Enrichment.PagesInSummaryLimit); err != nil {
		return nil, err
	}
	if err = getEnvJSON("CUSTOM_EVENT_TEMPLATES", &cfg.Enrichment.CustomEventTemplates); err != nil {
		return nil, err
	}
	if err = getEnvJSON("ELEMENT_ENRICHMENT_RULES", &cfg.Enrichment.ElementEnrichmentRules); err != nil {
		return nil, err
	}
	if err = getEnvJSON("CONTEXT_EXCLUDED_KEYS", &cfg.Enrichment.ContextExcludedKeys); err != nil {
		return nil, err
	}

	if cfg.Retention.SessionIdleTimeout, err = getEnvSeconds("SESSION_IDLE_TIMEOUT", cfg.Retention.SessionIdleTimeout); err != nil {
		return nil, err
	}
	if cfg.Retention.FailedEventTTL, err = getEnvSeconds("FAILED_EVENT_TTL", cfg.Retention.FailedEventTTL); err != nil {
		return nil, err
	}
	if cfg.Retention.SweepInterval, err = getEnvSeconds("SWEEP_INTERVAL", cfg.Retention.SweepInterval); err != nil {
		return nil, err
	}
	if cfg.Retention.SweepInterval <= 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", cfg.Retention.SweepInterval)
	}

	if cfg.Context.RecentEventsLimit, err = getEnvInt("RECENT_EVENTS_LIMIT", cfg.Context.RecentEventsLimit); err != nil {
		return nil, err
	}
	if lookbackHours, err := getEnvInt("RECENT_EVENTS_LOOKBACK_HOURS", 0); err != nil {
		return nil, err
	} else if lookbackHours > 0 {
		cfg.Context.RecentEventsLookback = time.Duration(lookbackHours) * time.Hour
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// getEnvSeconds parses a duration configured as a number of seconds.
func getEnvSeconds(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if seconds < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// getEnvJSON overwrites dst with a JSON-encoded environment value, leaving
// the default in place when the variable is unset.
func getEnvJSON(key string, dst any) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	return nil
}
