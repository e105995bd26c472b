// Package config provides configuration loading and validation for career-path.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variable names
const (
	EnvAPIKey         = "LLM_API_KEY"
	EnvProvider       = "LLM_PROVIDER"
	EnvTextModel      = "LLM_TEXT_MODEL"
	EnvEmbedModel     = "LLM_EMBED_MODEL"
	EnvTimeout        = "LLM_TIMEOUT"
	EnvIndexPath      = "VECTOR_INDEX_PATH"
	EnvCollection     = "VECTOR_COLLECTION"
	EnvSeedCatalog    = "SEED_CATALOG_PATH"
	EnvRedisURL       = "REDIS_URL"
	EnvS3Endpoint     = "S3_ENDPOINT"
	EnvSessionTTL     = "SESSION_TTL"
	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"
)

const (
	defaultIndexPath  = ".careerpath/index"
	defaultCollection = "careers"
	defaultProvider   = "gemini"
	defaultEmbedModel = "text-embedding-004"
	defaultTimeout    = 60 * time.Second
	defaultSessionTTL = 30 * time.Minute
	defaultRateLimit  = 2.0
	defaultBurst      = 10
)

// Config holds everything the career-path components need at construction.
// It can be loaded from the environment, from a JSON file, or both (environment wins).
type Config struct {
	APIKey     string        `json:"api_key,omitempty"`
	Provider   string        `json:"provider,omitempty" validate:"omitempty,oneof=gemini"`
	TextModel  string        `json:"text_model,omitempty"`
	EmbedModel string        `json:"embed_model,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty" validate:"gte=0"`

	IndexPath   string `json:"index_path,omitempty" validate:"required"`
	Collection  string `json:"collection,omitempty" validate:"required,max=64"`
	SeedCatalog string `json:"seed_catalog,omitempty"`
	RedisURL    string `json:"redis_url,omitempty" validate:"omitempty,url"`
	S3Endpoint  string `json:"s3_endpoint,omitempty" validate:"omitempty,url"`

	SessionTTL     time.Duration `json:"session_ttl,omitempty" validate:"gte=0"`
	RateLimitRPS   float64       `json:"rate_limit_rps,omitempty" validate:"gte=0"`
	RateLimitBurst int           `json:"rate_limit_burst,omitempty" validate:"gte=0"`
}

// Defaults returns the built-in configuration values.
func Defaults() Config {
	return Config{
		Provider:       defaultProvider,
		EmbedModel:     defaultEmbedModel,
		Timeout:        defaultTimeout,
		IndexPath:      defaultIndexPath,
		Collection:     defaultCollection,
		SessionTTL:     defaultSessionTTL,
		RateLimitRPS:   defaultRateLimit,
		RateLimitBurst: defaultBurst,
	}
}

// FromEnv reads the recognised environment variables. Unset variables are left empty.
// Malformed numeric or duration values are reported as errors.
func FromEnv() (Config, error) {
	cfg := Config{
		APIKey:      strings.TrimSpace(os.Getenv(EnvAPIKey)),
		Provider:    strings.TrimSpace(os.Getenv(EnvProvider)),
		TextModel:   strings.TrimSpace(os.Getenv(EnvTextModel)),
		EmbedModel:  strings.TrimSpace(os.Getenv(EnvEmbedModel)),
		IndexPath:   strings.TrimSpace(os.Getenv(EnvIndexPath)),
		Collection:  strings.TrimSpace(os.Getenv(EnvCollection)),
		SeedCatalog: strings.TrimSpace(os.Getenv(EnvSeedCatalog)),
		RedisURL:    strings.TrimSpace(os.Getenv(EnvRedisURL)),
		S3Endpoint:  strings.TrimSpace(os.Getenv(EnvS3Endpoint)),
	}

	var err error
	if cfg.Timeout, err = envDuration(EnvTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SessionTTL, err = envDuration(EnvSessionTTL); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(EnvRateLimitRPS); v != "" {
		if cfg.RateLimitRPS, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvRateLimitRPS, err)
		}
	}
	if v := os.Getenv(EnvRateLimitBurst); v != "" {
		if cfg.RateLimitBurst, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", EnvRateLimitBurst, err)
		}
	}

	return cfg, nil
}

// Load builds the effective configuration: environment over the optional JSON file over defaults.
func Load(path string) (Config, error) {
	env, err := FromEnv()
	if err != nil {
		return Config{}, err
	}

	base := Defaults()
	if path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return Config{}, err
		}
		base = file.MergeWithDefaults(base)
	}

	cfg := env.MergeWithDefaults(base)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// A missing API key is not a validation failure: it surfaces as a ConfigError on first LLM call.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.TextModel == "" {
		result.TextModel = defaults.TextModel
	}
	if result.EmbedModel == "" {
		result.EmbedModel = defaults.EmbedModel
	}
	if result.Timeout == 0 {
		result.Timeout = defaults.Timeout
	}
	if result.IndexPath == "" {
		result.IndexPath = defaults.IndexPath
	}
	if result.Collection == "" {
		result.Collection = defaults.Collection
	}
	if result.SeedCatalog == "" {
		result.SeedCatalog = defaults.SeedCatalog
	}
	if result.RedisURL == "" {
		result.RedisURL = defaults.RedisURL
	}
	if result.S3Endpoint == "" {
		result.S3Endpoint = defaults.S3Endpoint
	}
	if result.SessionTTL == 0 {
		result.SessionTTL = defaults.SessionTTL
	}
	if result.RateLimitRPS == 0 {
		result.RateLimitRPS = defaults.RateLimitRPS
	}
	if result.RateLimitBurst == 0 {
		result.RateLimitBurst = defaults.RateLimitBurst
	}

	return result
}

// HasAPIKey reports whether a credential is configured.
func (c *Config) HasAPIKey() bool {
	return c.APIKey != ""
}

func envDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
