// Package config loads and validates the served application
// configuration from YAML and environment variables.
package config

import (
	"time"

	hfstol "github.com/UAlbertaALTLab/hfst-altlab"
)

// Config is the root application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Transducers TransducersConfig `yaml:"transducers"`
	Lookup      LookupConfig      `yaml:"lookup"`
	Cache       CacheConfig       `yaml:"cache"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// TransducersConfig points at the model files the application serves.
type TransducersConfig struct {
	// Analyser is the .hfstol model mapping wordforms to analyses.
	Analyser string `yaml:"analyser" env:"TRANSDUCER_ANALYSER" env-required:"true"`

	// Generator is the normative model consulted for standardization.
	// Optional; without it the server answers from the analyser alone.
	Generator string `yaml:"generator" env:"TRANSDUCER_GENERATOR"`

	// Watch reloads the models when the files change on disk.
	Watch bool `yaml:"watch" env:"TRANSDUCER_WATCH" env-default:"false"`
}

// LookupConfig bounds individual lookups. Zero or negative budgets mean
// unlimited here; an operator writing 0 into a file means "off".
type LookupConfig struct {
	Cutoff   time.Duration `yaml:"cutoff"    env:"LOOKUP_CUTOFF"    env-default:"60s"`
	MaxPaths int           `yaml:"max_paths" env:"LOOKUP_MAX_PATHS" env-default:"-1"`
	MaxSteps int           `yaml:"max_steps" env:"LOOKUP_MAX_STEPS" env-default:"-1"`
}

// Options maps the lookup budgets onto transducer options.
func (l LookupConfig) Options() []hfstol.Option {
	maxPaths, maxSteps := l.MaxPaths, l.MaxSteps
	if maxPaths <= 0 {
		maxPaths = hfstol.Unlimited
	}
	if maxSteps <= 0 {
		maxSteps = hfstol.Unlimited
	}
	return []hfstol.Option{
		hfstol.WithSearchCutoff(l.Cutoff),
		hfstol.WithPathLimit(maxPaths),
		hfstol.WithStepLimit(maxSteps),
	}
}

// CacheConfig selects and tunes the analysis cache.
type CacheConfig struct {
	// Backend is one of "memory", "redis" or "none".
	Backend string `yaml:"backend" env:"CACHE_BACKEND" env-default:"memory"`

	// MaxEntries bounds the memory backend. Zero or negative means
	// unbounded.
	MaxEntries int `yaml:"max_entries" env:"CACHE_MAX_ENTRIES" env-default:"10000"`

	// Denylist keeps keys matching these patterns out of the backend.
	Denylist []string `yaml:"denylist" env:"CACHE_DENYLIST"`

	// EncryptionKey enables at-rest encryption of cached entries when
	// set. Hex-encoded, must decode to 32 bytes.
	EncryptionKey string `yaml:"encryption_key" env:"CACHE_ENCRYPTION_KEY"`

	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr     string        `yaml:"addr"     env:"REDIS_ADDR"     env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
	Prefix   string        `yaml:"prefix"   env:"REDIS_PREFIX"   env-default:"hfstol:analysis:"`
	TTL      time.Duration `yaml:"ttl"      env:"REDIS_TTL"      env-default:"24h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"text"`
}
