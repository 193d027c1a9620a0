package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds connection settings for an environment's metadata
// database.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// DSN renders the config as a Postgres connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, sslmode)
}

// APIConfig holds the per-environment service base URLs.
type APIConfig struct {
	RuleEngine   string `yaml:"rule_engine"`
	RuleMetadata string `yaml:"rule_metadata"`
}

// EnvConfig describes one deployment environment.
type EnvConfig struct {
	Database DatabaseConfig `yaml:"database"`
	APIs     APIConfig      `yaml:"apis"`
}

// Config is the application configuration.
type Config struct {
	Environments map[string]EnvConfig `yaml:"environments"`
	DefaultEnv   string               `yaml:"default_env"`
	DataDir      string               `yaml:"data_dir"`
	User         string               `yaml:"user"`

	// Store selects the persistence backend: "postgres" uses the default
	// environment's database, "sqlite" keeps everything in a local file
	// under DataDir.
	Store string `yaml:"store"`
}

// DefaultConfig returns the built-in configuration used when no config file
// exists: a single local environment backed by SQLite.
func DefaultConfig() *Config {
	user := os.Getenv("USER")
	if user == "" {
		user = "unknown"
	}
	return &Config{
		Environments: map[string]EnvConfig{
			"LOCAL": {
				APIs: APIConfig{
					RuleEngine:   "http://localhost:3000/rule-engine",
					RuleMetadata: "http://localhost:3000/rule-metadata",
				},
			},
		},
		DefaultEnv: "LOCAL",
		DataDir:    defaultDataDir(),
		User:       user,
		Store:      "sqlite",
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ruliad"
	}
	return filepath.Join(home, ".ruliad")
}

// DefaultPath returns the config file location, honoring RULIAD_CONFIG.
func DefaultPath() string {
	if p := os.Getenv("RULIAD_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// Load reads the config file at path. A missing file yields DefaultConfig;
// a present but malformed file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Environments) == 0 {
		return fmt.Errorf("config declares no environments")
	}
	if _, ok := c.Environments[c.DefaultEnv]; !ok {
		return fmt.Errorf("default environment %q is not declared", c.DefaultEnv)
	}
	return nil
}

// Resolve returns the config for env, falling back to the default
// environment when env is unknown. The returned name is the environment
// actually used.
func (c *Config) Resolve(env string) (string, EnvConfig) {
	if e, ok := c.Environments[env]; ok {
		return env, e
	}
	return c.DefaultEnv, c.Environments[c.DefaultEnv]
}

// EnvNames returns the declared environment names in sorted order.
func (c *Config) EnvNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
