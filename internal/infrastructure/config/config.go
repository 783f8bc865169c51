// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigFile is the config file read when --config is not given.
	DefaultConfigFile = "ruleshift.yaml"
	// DefaultOutputDir is where staged snapshots are written.
	DefaultOutputDir = "converted_rules"
	// DefaultBackupRoot is where per-run backup directories are created.
	DefaultBackupRoot = "backups"
	// DefaultPort is the Postgres port used when an environment omits one.
	DefaultPort = 5432
	// DefaultSSLMode is used when an environment omits sslmode.
	DefaultSSLMode = "prefer"
)

// Config holds static tool configuration (read-only after load).
type Config struct {
	OutputDir    string              `yaml:"output_dir,omitempty"`
	BackupRoot   string              `yaml:"backup_root,omitempty"`
	Environments map[string]Database `yaml:"environments"`
}

// Database holds connection parameters for one environment.
type Database struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port,omitempty"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		OutputDir:  DefaultOutputDir,
		BackupRoot: DefaultBackupRoot,
	}
}

// Load loads configuration from the given file path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'ruleshift init' first)", path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if len(cfg.Environments) == 0 {
		return nil, fmt.Errorf("config file %s defines no environments", path)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if pw := os.Getenv("RULESHIFT_DB_PASSWORD"); pw != "" {
		for name, db := range c.Environments {
			if db.Password == "" {
				db.Password = pw
				c.Environments[name] = db
			}
		}
	}
}

// Environment returns the connection parameters for the named environment.
func (c *Config) Environment(env string) (Database, error) {
	db, ok := c.Environments[env]
	if !ok {
		return Database{}, fmt.Errorf("unknown environment %q (known: %s)",
			env, strings.Join(c.EnvironmentNames(), ", "))
	}
	return db, nil
}

// EnvironmentNames returns the configured environment names, sorted.
func (c *Config) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DSN builds the Postgres connection string for the environment.
func (d Database) DSN() string {
	port := d.Port
	if port == 0 {
		port = DefaultPort
	}
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = DefaultSSLMode
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, port, d.Name, sslmode)
}
