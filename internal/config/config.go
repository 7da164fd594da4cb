package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BuildConfig defines how we ingest a bugreport stream
type BuildConfig struct {
	// Rows per transaction. Commits every BatchSize rows to bound
	// per-transaction memory/WAL growth; the final partial batch commits
	// at end-of-stream.
	BatchSize int `yaml:"batch_size"`

	// Size of the fixed read buffer used while streaming the source.
	// Peak memory stays independent of file size.
	ReadBufferBytes int `yaml:"read_buffer_bytes"`
}

// QueryConfig bounds what a single query call can return
type QueryConfig struct {
	DefaultLimit int64 `yaml:"default_limit"` // Used when limit is 0/unspecified
	MaxLimit     int64 `yaml:"max_limit"`     // Hard clamp
}

// ServerConfig is only used by the HTTP surface
type ServerConfig struct {
	Port int `yaml:"port"`
}

// SystemConfig represents the engine configuration for this version of the app
type SystemConfig struct {
	AppVersion string       `yaml:"-"`
	CacheDir   string       `yaml:"cache_dir"` // Empty means ~/.logdex
	Build      BuildConfig  `yaml:"build"`
	Query      QueryConfig  `yaml:"query"`
	Server     ServerConfig `yaml:"server"`
}

// CurrentDefaults defines the configuration for THIS version of the binary.
// When you update the app, you change these values here.
var CurrentDefaults = SystemConfig{
	AppVersion: "0.1.0",

	Build: BuildConfig{
		BatchSize:       50000,
		ReadBufferBytes: 1 << 20, // 1MB
	},

	Query: QueryConfig{
		DefaultLimit: 200,
		MaxLimit:     500,
	},

	Server: ServerConfig{
		Port: 8080,
	},
}

// Load returns CurrentDefaults overlaid with the YAML file at path.
// A missing file is not an error; a malformed one is.
func Load(path string) (SystemConfig, error) {
	cfg := CurrentDefaults

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("could not read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, cfg.validate()
}

func (c SystemConfig) validate() error {
	if c.Build.BatchSize < 1 {
		return fmt.Errorf("build.batch_size must be >= 1, got %d", c.Build.BatchSize)
	}
	if c.Build.ReadBufferBytes < 4096 {
		return fmt.Errorf("build.read_buffer_bytes must be >= 4096, got %d", c.Build.ReadBufferBytes)
	}
	if c.Query.MaxLimit < 1 || c.Query.DefaultLimit < 1 {
		return fmt.Errorf("query limits must be >= 1")
	}
	if c.Query.DefaultLimit > c.Query.MaxLimit {
		return fmt.Errorf("query.default_limit (%d) exceeds query.max_limit (%d)",
			c.Query.DefaultLimit, c.Query.MaxLimit)
	}
	return nil
}
