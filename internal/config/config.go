// Package config loads the SDK configuration file: target environment,
// transport tuning, rate limits, cache and preview server settings.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gsquant/marquee-go/internal/net/ratelimit"
	"github.com/gsquant/marquee-go/internal/session"
)

// Config is the full configuration document.
type Config struct {
	Environment string          `yaml:"environment"` // prod | qa | dev
	Session     SessionConfig   `yaml:"session"`
	RateLimit   RateLimitConfig `yaml:"ratelimit"`
	Cache       CacheConfig     `yaml:"cache"`
	Preview     PreviewConfig   `yaml:"preview"`
}

// SessionConfig tunes the HTTP session.
type SessionConfig struct {
	BaseURL        string        `yaml:"base_url"` // overrides environment when set
	TimeoutMS      int           `yaml:"timeout_ms"`
	MaxRetries     int           `yaml:"max_retries"`
	Backoff        BackoffConfig `yaml:"backoff_ms"`
	MaxConcurrency int           `yaml:"max_concurrent"`
	Breaker        BreakerConfig `yaml:"breaker"`
}

// BackoffConfig shapes retry backoff, in milliseconds.
type BackoffConfig struct {
	Base int `yaml:"base"`
	Max  int `yaml:"max"`
}

// BreakerConfig shapes the circuit breaker; zero failures disables it.
type BreakerConfig struct {
	Failures  int `yaml:"failures"`
	TimeoutMS int `yaml:"timeout_ms"`
}

// RateLimitConfig holds the default token bucket and per-route-class
// overrides.
type RateLimitConfig struct {
	Default ClassConfig            `yaml:"default"`
	Classes map[string]ClassConfig `yaml:"classes"`
}

// ClassConfig is one token bucket shape.
type ClassConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CacheConfig selects the response cache backend.
type CacheConfig struct {
	RedisAddr string `yaml:"redis_addr"` // empty: in-process cache
}

// PreviewConfig configures the local preview server.
type PreviewConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Environment: "prod",
		Session: SessionConfig{
			TimeoutMS:      30000,
			MaxRetries:     3,
			Backoff:        BackoffConfig{Base: 500, Max: 10000},
			MaxConcurrency: 8,
			Breaker:        BreakerConfig{Failures: 5, TimeoutMS: 30000},
		},
		RateLimit: RateLimitConfig{
			Default: ClassConfig{RPS: 10, Burst: 20},
		},
		Preview: PreviewConfig{Host: "127.0.0.1", Port: 8188},
	}
}

// Load reads and validates a configuration file. Fields not present keep
// their defaults. The MARQUEE_ENV environment variable overrides the
// configured environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}
	if env := os.Getenv("MARQUEE_ENV"); env != "" {
		cfg.Environment = env
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate ensures the configuration is consistent.
func (c *Config) Validate() error {
	switch c.Environment {
	case "prod", "qa", "dev":
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.Session.TimeoutMS <= 0 {
		return fmt.Errorf("session timeout must be positive, got %d", c.Session.TimeoutMS)
	}
	if c.Session.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.Session.MaxRetries)
	}
	if c.Session.Backoff.Base <= 0 || c.Session.Backoff.Max < c.Session.Backoff.Base {
		return fmt.Errorf("backoff base/max out of order: %d/%d", c.Session.Backoff.Base, c.Session.Backoff.Max)
	}
	if c.RateLimit.Default.RPS <= 0 || c.RateLimit.Default.Burst <= 0 {
		return fmt.Errorf("ratelimit default must set rps and burst")
	}
	for name, class := range c.RateLimit.Classes {
		if class.RPS <= 0 || class.Burst <= 0 {
			return fmt.Errorf("ratelimit class %q must set rps and burst", name)
		}
	}
	if c.Preview.Port < 0 || c.Preview.Port > 65535 {
		return fmt.Errorf("preview port %d out of range", c.Preview.Port)
	}
	return nil
}

// SessionConfig materializes the session.Config for this configuration.
// token is passed separately; it never lives in the config file.
func (c *Config) NewSessionConfig(token string) session.Config {
	classes := make(map[string]ratelimit.Class, len(c.RateLimit.Classes))
	for name, class := range c.RateLimit.Classes {
		classes[name] = ratelimit.Class{RPS: class.RPS, Burst: class.Burst}
	}
	return session.Config{
		Environment:     session.Environment(c.Environment),
		BaseURL:         c.Session.BaseURL,
		Token:           token,
		RequestTimeout:  time.Duration(c.Session.TimeoutMS) * time.Millisecond,
		MaxRetries:      c.Session.MaxRetries,
		BackoffBase:     time.Duration(c.Session.Backoff.Base) * time.Millisecond,
		BackoffMax:      time.Duration(c.Session.Backoff.Max) * time.Millisecond,
		MaxConcurrency:  c.Session.MaxConcurrency,
		BreakerFailures: uint32(c.Session.Breaker.Failures),
		BreakerTimeout:  time.Duration(c.Session.Breaker.TimeoutMS) * time.Millisecond,
		Limiter: ratelimit.NewLimiter(
			ratelimit.Class{RPS: c.RateLimit.Default.RPS, Burst: c.RateLimit.Default.Burst},
			classes,
		),
	}
}
