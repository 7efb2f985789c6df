// Package cliconfig loads corvid's own runtime configuration: a YAML file
// overlaid by environment variables and, from the CLI, --section.key=value
// flags (see internal/cli/commands/serve.go).
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents a corvid application's runtime configuration.
type Config struct {
	ProjectName string         `mapstructure:"project_name"`
	Server      ServerConfig   `mapstructure:"server"`
	DI          DIConfig       `mapstructure:"di"`
	Problem     ProblemConfig  `mapstructure:"problem"`
	Database    DatabaseConfig `mapstructure:"database"`
	Redis       RedisConfig    `mapstructure:"redis"`
}

// ServerConfig configures the HTTP listener (App.Serve in the root package).
type ServerConfig struct {
	Port            int    `mapstructure:"port"`
	Host            string `mapstructure:"host"`
	APIPrefix       string `mapstructure:"api_prefix"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout_seconds"`
}

// DIConfig configures the dependency graph's bounded worker pool (pkg/di).
type DIConfig struct {
	WorkerPoolSize int `mapstructure:"worker_pool_size"`
}

// ProblemConfig configures the problem mapper (pkg/problem).
type ProblemConfig struct {
	Verbose bool `mapstructure:"verbose"`
}

// DatabaseConfig configures the reference database-backed session store.
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// RedisConfig configures the reference rate-limit/cache plugins.
type RedisConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load loads configuration from corvid.yml/corvid.yaml plus environment
// variables. v is nil-able; pass a *viper.Viper pre-populated with
// --section.key=value flag overlays (see internal/cli/commands) to have them take
// precedence over the file and defaults.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.api_prefix", "")
	v.SetDefault("server.shutdown_timeout_seconds", 15)
	v.SetDefault("di.worker_pool_size", 32)
	v.SetDefault("problem.verbose", false)

	v.SetConfigName("corvid")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CORVID")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// GetDatabaseURL returns the database URL from environment or config file.
func GetDatabaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	cfg, err := Load(nil)
	if err != nil {
		return ""
	}
	return cfg.Database.URL
}

// InProject reports whether the current directory holds a corvid project.
func InProject() bool {
	if _, err := os.Stat("app"); err != nil {
		return false
	}
	if _, err := os.Stat("corvid.yml"); err == nil {
		return true
	}
	if _, err := os.Stat("corvid.yaml"); err == nil {
		return true
	}
	return false
}

// GetProjectRoot walks upward from the working directory looking for
// corvid.yml/corvid.yaml, falling back to an "app" directory marker.
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "corvid.yml")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "corvid.yaml")); err == nil {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "app")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a corvid project (no corvid.yml found)")
		}
		dir = parent
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Server.APIPrefix != "" {
		if !strings.HasPrefix(cfg.Server.APIPrefix, "/") {
			return fmt.Errorf("server.api_prefix must start with '/', got: %s", cfg.Server.APIPrefix)
		}
		if strings.HasSuffix(cfg.Server.APIPrefix, "/") {
			return fmt.Errorf("server.api_prefix must not end with '/', got: %s", cfg.Server.APIPrefix)
		}
	}
	if cfg.DI.WorkerPoolSize <= 0 {
		return fmt.Errorf("di.worker_pool_size must be positive, got: %d", cfg.DI.WorkerPoolSize)
	}
	return nil
}
