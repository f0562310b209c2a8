package ipkit

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds defaults read from a YAML file. Command line flags take
// precedence over it.
type Config struct {
	// Resolver is a DNS server used instead of the system resolver.
	Resolver string `yaml:"resolver"`
	// Timeout in milliseconds for lookups and connects.
	Timeout int `yaml:"timeout"`
	Retries int `yaml:"retries"`
	Threads int `yaml:"threads"`
	// Ports checked by the target action.
	Ports string `yaml:"ports"`
	// Exclude lists addresses, ranges or CIDRs never printed by iprange.
	Exclude []string `yaml:"exclude"`
}

func DefaultConfig() *Config {
	return &Config{
		Timeout: DefaultTimeout,
		Retries: DefaultRetries,
		Threads: DefaultThreads,
		Ports:   DefaultPorts,
	}
}

// LoadConfig reads the YAML file at path. Missing values keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file %s", path)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config file %s", path)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultRetries
	}
	if cfg.Threads <= 0 {
		cfg.Threads = DefaultThreads
	}
	if cfg.Ports == "" {
		cfg.Ports = DefaultPorts
	}
	return cfg, nil
}

// DefaultConfigPath is ~/.config/ipkit/config.yaml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".config", configDirName, configFileName)
}

// loadConfig loads path, or the default file when path is empty and that
// file exists, or the built-in defaults.
func loadConfig(path string) (*Config, error) {
	if path != "" {
		return LoadConfig(path)
	}
	if def := DefaultConfigPath(); def != "" {
		if _, err := os.Stat(def); err == nil {
			return LoadConfig(def)
		}
	}
	return DefaultConfig(), nil
}
