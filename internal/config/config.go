// Package config resolves runtime settings from defaults, environment
// variables, an optional YAML file and command-line flags, in increasing order
// of precedence.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sander-remitly/knapsnack/internal/algorithm"
	"github.com/sander-remitly/knapsnack/internal/mass"
)

const (
	defaultPort           = 8080
	defaultDBPath         = "./data/knapsnack.db"
	defaultMaxClasses     = 16
	defaultMaxCount       = 50
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultRedisAddr      = "localhost:6379"
)

// Config aggregates runtime configuration.
type Config struct {
	Port   int
	DBPath string

	// DefaultBagWeight (g) is used when a bag weight is left empty.
	DefaultBagWeight int
	Solver           algorithm.Params

	MaxClasses int // weight classes per request
	MaxCount   int // bottles per weight class

	RateLimitRPS   float64
	RateLimitBurst int

	Redis Redis

	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	IdleTimeout         time.Duration
	ShutdownGracePeriod time.Duration
}

// Redis configures the optional result cache.
type Redis struct {
	Enabled    bool
	Addr       string
	Password   string
	InitialTTL time.Duration
	MaxTTL     time.Duration
}

type yamlConfig struct {
	Port             int    `yaml:"port"`
	DBPath           string `yaml:"db_path"`
	DefaultBagWeight string `yaml:"default_bag_weight"`
	Solver           struct {
		AllowOvershoot *bool    `yaml:"allow_overshoot"`
		OvershootRatio *float64 `yaml:"overshoot_ratio"`
		BottlePenalty  *int     `yaml:"bottle_penalty"`
	} `yaml:"solver"`
	Limits struct {
		MaxClasses int `yaml:"max_classes"`
		MaxCount   int `yaml:"max_count"`
	} `yaml:"limits"`
	RateLimit struct {
		RPS   *float64 `yaml:"rps"`
		Burst *int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	Redis struct {
		Enabled    *bool  `yaml:"enabled"`
		Addr       string `yaml:"addr"`
		Password   string `yaml:"password"`
		InitialTTL string `yaml:"initial_ttl"`
		MaxTTL     string `yaml:"max_ttl"`
	} `yaml:"redis"`
	ReadTimeout         string `yaml:"read_timeout"`
	WriteTimeout        string `yaml:"write_timeout"`
	IdleTimeout         string `yaml:"idle_timeout"`
	ShutdownGracePeriod string `yaml:"shutdown_grace_period"`
}

// Overrides holds values set explicitly on the command line. Nil means unset.
type Overrides struct {
	ConfigFile       string
	Port             *int
	DBPath           *string
	DefaultBagWeight *string
}

// Load resolves the configuration: defaults < environment < YAML < flags.
func Load(overrides *Overrides) (Config, error) {
	cfg := Default()

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yc, err := loadFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAML(&cfg, yc); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		if err := applyOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:             defaultPort,
		DBPath:           defaultDBPath,
		DefaultBagWeight: mass.DefaultBagWeight,
		Solver:           algorithm.DefaultParams(),
		MaxClasses:       defaultMaxClasses,
		MaxCount:         defaultMaxCount,
		RateLimitRPS:     defaultRateLimitRPS,
		RateLimitBurst:   defaultRateLimitBurst,
		Redis: Redis{
			Addr:       defaultRedisAddr,
			InitialTTL: 5 * time.Minute,
			MaxTTL:     24 * time.Hour,
		},
		ReadTimeout:         15 * time.Second,
		WriteTimeout:        15 * time.Second,
		IdleTimeout:         60 * time.Second,
		ShutdownGracePeriod: 10 * time.Second,
	}
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DefaultBagWeight < 0 {
		return fmt.Errorf("default bag weight must be non-negative, got %d", c.DefaultBagWeight)
	}
	if c.Solver.OvershootRatio < 0 {
		return fmt.Errorf("overshoot ratio must be non-negative, got %g", c.Solver.OvershootRatio)
	}
	if c.Solver.BottlePenalty < 0 {
		return fmt.Errorf("bottle penalty must be non-negative, got %d", c.Solver.BottlePenalty)
	}
	if c.MaxClasses <= 0 || c.MaxCount <= 0 {
		return fmt.Errorf("limits must be positive, got max_classes=%d max_count=%d", c.MaxClasses, c.MaxCount)
	}
	if c.RateLimitRPS < 0 || c.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit must be >= 0")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis address is required when redis is enabled")
	}
	if c.Redis.InitialTTL <= 0 || c.Redis.MaxTTL < c.Redis.InitialTTL {
		return fmt.Errorf("redis TTLs must satisfy 0 < initial_ttl <= max_ttl")
	}
	return nil
}

func loadFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	return &yc, nil
}

func applyYAML(cfg *Config, yc *yamlConfig) error {
	if yc.Port != 0 {
		cfg.Port = yc.Port
	}
	if yc.DBPath != "" {
		cfg.DBPath = yc.DBPath
	}
	if yc.DefaultBagWeight != "" {
		g, err := mass.ParseGrams(yc.DefaultBagWeight, cfg.DefaultBagWeight)
		if err != nil {
			return fmt.Errorf("default_bag_weight: %w", err)
		}
		cfg.DefaultBagWeight = g
	}

	if yc.Solver.AllowOvershoot != nil {
		cfg.Solver.AllowOvershoot = *yc.Solver.AllowOvershoot
	}
	if yc.Solver.OvershootRatio != nil {
		cfg.Solver.OvershootRatio = *yc.Solver.OvershootRatio
	}
	if yc.Solver.BottlePenalty != nil {
		cfg.Solver.BottlePenalty = *yc.Solver.BottlePenalty
	}

	if yc.Limits.MaxClasses > 0 {
		cfg.MaxClasses = yc.Limits.MaxClasses
	}
	if yc.Limits.MaxCount > 0 {
		cfg.MaxCount = yc.Limits.MaxCount
	}

	if yc.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yc.RateLimit.RPS
	}
	if yc.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yc.RateLimit.Burst
	}

	if yc.Redis.Enabled != nil {
		cfg.Redis.Enabled = *yc.Redis.Enabled
	}
	if yc.Redis.Addr != "" {
		cfg.Redis.Addr = yc.Redis.Addr
	}
	if yc.Redis.Password != "" {
		cfg.Redis.Password = yc.Redis.Password
	}

	durations := []struct {
		raw string
		dst *time.Duration
	}{
		{yc.Redis.InitialTTL, &cfg.Redis.InitialTTL},
		{yc.Redis.MaxTTL, &cfg.Redis.MaxTTL},
		{yc.ReadTimeout, &cfg.ReadTimeout},
		{yc.WriteTimeout, &cfg.WriteTimeout},
		{yc.IdleTimeout, &cfg.IdleTimeout},
		{yc.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", d.raw, err)
		}
		*d.dst = v
	}

	return nil
}

func applyEnv(cfg *Config) error {
	if v := env("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("PORT: invalid integer %q", v)
		}
		cfg.Port = port
	}
	if v := env("KNAPSNACK_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := env("DEFAULT_BAG_WEIGHT"); v != "" {
		g, err := mass.ParseGrams(v, cfg.DefaultBagWeight)
		if err != nil {
			return fmt.Errorf("DEFAULT_BAG_WEIGHT: %w", err)
		}
		cfg.DefaultBagWeight = g
	}
	if v := env("RATE_LIMIT_RPS"); v != "" {
		if rps, err := strconv.ParseFloat(v, 64); err == nil && rps >= 0 {
			cfg.RateLimitRPS = rps
		}
	}
	if v := env("RATE_LIMIT_BURST"); v != "" {
		if burst, err := strconv.Atoi(v); err == nil && burst >= 0 {
			cfg.RateLimitBurst = burst
		}
	}
	if v := env("REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = v == "true"
	}
	if v := env("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := env("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	return nil
}

func applyOverrides(cfg *Config, o *Overrides) error {
	if o.Port != nil {
		cfg.Port = *o.Port
	}
	if o.DBPath != nil && *o.DBPath != "" {
		cfg.DBPath = *o.DBPath
	}
	if o.DefaultBagWeight != nil && *o.DefaultBagWeight != "" {
		g, err := mass.ParseGrams(*o.DefaultBagWeight, cfg.DefaultBagWeight)
		if err != nil {
			return fmt.Errorf("parse default bag weight: %w", err)
		}
		cfg.DefaultBagWeight = g
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
