// Package config loads engine configuration from a YAML file with
// environment variable overrides. When the file is missing the environment
// alone must provide the required settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEpoch is the season epoch used when none is configured. It must be a
// Monday at 00:00:00 UTC.
const DefaultEpoch = "2024-01-01T00:00:00Z"

// Config holds all engine configuration.
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Season        SeasonConfig        `yaml:"season"`
	Chain         ChainConfig         `yaml:"chain"`
	Archive       ArchiveConfig       `yaml:"archive"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL          string `yaml:"url"`
	NKeySeedFile string `yaml:"nkey_seed_file"`
}

// HTTPConfig holds the API server configuration.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// JWTConfig holds the trigger endpoint auth configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	Issuer     string        `yaml:"issuer"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// SeasonConfig holds season clock configuration.
type SeasonConfig struct {
	// Epoch is the RFC3339 timestamp season 1 starts at. Must be a Monday
	// at 00:00:00 UTC.
	Epoch    string        `yaml:"epoch"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// ChainConfig holds the authoritative season registry configuration.
type ChainConfig struct {
	RPCURL          string        `yaml:"rpc_url"`
	RegistryAddress string        `yaml:"registry_address"`
	Timeout         time.Duration `yaml:"timeout"`
	RequestsPerSec  float64       `yaml:"requests_per_sec"`
}

// ArchiveConfig holds the permanent storage configuration.
type ArchiveConfig struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
	Prefix   string `yaml:"prefix"`
}

// ObservabilityConfig holds configuration for observability components.
type ObservabilityConfig struct {
	Environment  string  `yaml:"environment"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	OTLPInsecure bool    `yaml:"otlp_insecure"`
	TraceSample  float64 `yaml:"trace_sample"`
}

// LoadConfig loads the configuration from a YAML file, overriding with
// environment variables. A missing file falls back to pure env config.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables only.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config
	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_NKEY_SEED_FILE"); v != "" {
		cfg.NATS.NKeySeedFile = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("JWT_ISSUER"); v != "" {
		cfg.JWT.Issuer = v
	}
	if v := os.Getenv("JWT_DEFAULT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.JWT.DefaultTTL = d
		}
	}
	if v := os.Getenv("SEASON_EPOCH"); v != "" {
		cfg.Season.Epoch = v
	}
	if v := os.Getenv("SEASON_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Season.CacheTTL = d
		}
	}
	if v := os.Getenv("CHAIN_RPC_URL"); v != "" {
		cfg.Chain.RPCURL = v
	}
	if v := os.Getenv("CHAIN_REGISTRY_ADDRESS"); v != "" {
		cfg.Chain.RegistryAddress = v
	}
	if v := os.Getenv("CHAIN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Chain.Timeout = d
		}
	}
	if v := os.Getenv("CHAIN_REQUESTS_PER_SEC"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Chain.RequestsPerSec = f
		}
	}
	if v := os.Getenv("ARCHIVE_BUCKET"); v != "" {
		cfg.Archive.Bucket = v
	}
	if v := os.Getenv("ARCHIVE_REGION"); v != "" {
		cfg.Archive.Region = v
	}
	if v := os.Getenv("ARCHIVE_ENDPOINT"); v != "" {
		cfg.Archive.Endpoint = v
	}
	if v := os.Getenv("ARCHIVE_PREFIX"); v != "" {
		cfg.Archive.Prefix = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		cfg.Observability.OTLPInsecure = v == "true"
	}
	if v := os.Getenv("TRACE_SAMPLE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Observability.TraceSample = f
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.JWT.DefaultTTL == 0 {
		cfg.JWT.DefaultTTL = 24 * time.Hour
	}
	if cfg.Season.Epoch == "" {
		cfg.Season.Epoch = DefaultEpoch
	}
	if cfg.Season.CacheTTL == 0 {
		cfg.Season.CacheTTL = 30 * time.Second
	}
	if cfg.Chain.Timeout == 0 {
		cfg.Chain.Timeout = 5 * time.Second
	}
	if cfg.Chain.RequestsPerSec == 0 {
		cfg.Chain.RequestsPerSec = 5
	}
	if cfg.Observability.TraceSample == 0 {
		cfg.Observability.TraceSample = 0.1
	}
}

func (cfg *Config) validate() error {
	epoch, err := time.Parse(time.RFC3339, cfg.Season.Epoch)
	if err != nil {
		return fmt.Errorf("invalid season epoch %q: %w", cfg.Season.Epoch, err)
	}
	epoch = epoch.UTC()
	if epoch.Weekday() != time.Monday || epoch.Hour() != 0 || epoch.Minute() != 0 || epoch.Second() != 0 {
		return fmt.Errorf("season epoch %q must be a Monday at 00:00:00 UTC", cfg.Season.Epoch)
	}
	return nil
}

// EpochTime returns the parsed season epoch. Call only after LoadConfig
// succeeded; validation guarantees the value parses.
func (cfg *Config) EpochTime() time.Time {
	t, _ := time.Parse(time.RFC3339, cfg.Season.Epoch)
	return t.UTC()
}
