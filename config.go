package usecase

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds configuration for an engine.Context.
type Config struct {
	// ExecuteTimeout bounds each Execute call through the timeout
	// middleware. Zero disables it.
	ExecuteTimeout time.Duration `yaml:"execute_timeout"`

	// RateLimit is the number of Execute calls per second admitted by the
	// rate limit middleware. Zero disables it.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the token bucket size for RateLimit.
	RateBurst int `yaml:"rate_burst"`

	// StreamBufferSize is the channel buffer for each stream subscriber.
	StreamBufferSize int `yaml:"stream_buffer_size"`

	// StreamCredits is the initial flow control credit granted to a stream
	// subscriber. Zero means unlimited.
	StreamCredits int64 `yaml:"stream_credits"`

	// DisableDefaultMiddleware turns off the built-in middleware stack.
	DisableDefaultMiddleware bool `yaml:"disable_default_middleware"`

	// Limits sets per-use-case admission limits. A run over its limit
	// fails with ErrThrottled instead of waiting.
	Limits []Limit `yaml:"limits"`
}

// Limit defines admission limits for the use case with display name Name.
type Limit struct {
	Name string `yaml:"name"`

	// MaxConcurrency limits how many runs may be live at once. Zero means
	// no limit.
	MaxConcurrency int `yaml:"max_concurrency"`

	// RateLimit is the maximum sustained runs per second. Zero disables
	// rate limiting.
	RateLimit float64 `yaml:"rate_limit"`

	// RateBurst is the token bucket size. Defaults to 1 when RateLimit is
	// set.
	RateBurst int `yaml:"rate_burst"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ExecuteTimeout:   0,
		RateLimit:        0,
		RateBurst:        1,
		StreamBufferSize: 256,
		StreamCredits:    0,
	}
}

// LoadConfig reads a YAML file and merges it over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("usecase: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("usecase: parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error

	if c.ExecuteTimeout < 0 {
		errs = append(errs, fmt.Errorf("execute_timeout must not be negative: %s", c.ExecuteTimeout))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate_limit must not be negative: %v", c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate_burst must be at least 1 when rate_limit is set"))
	}
	if c.StreamBufferSize < 0 {
		errs = append(errs, fmt.Errorf("stream_buffer_size must not be negative: %d", c.StreamBufferSize))
	}
	if c.StreamCredits < 0 {
		errs = append(errs, fmt.Errorf("stream_credits must not be negative: %d", c.StreamCredits))
	}
	seen := make(map[string]bool, len(c.Limits))
	for i, l := range c.Limits {
		if l.Name == "" {
			errs = append(errs, fmt.Errorf("limits[%d]: name is required", i))
		} else if seen[l.Name] {
			errs = append(errs, fmt.Errorf("limits[%d]: duplicate name %q", i, l.Name))
		}
		seen[l.Name] = true
		if l.MaxConcurrency < 0 || l.RateLimit < 0 || l.RateBurst < 0 {
			errs = append(errs, fmt.Errorf("limits[%d]: values must not be negative", i))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}
