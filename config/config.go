// Package config holds the configuration of the v8shim-run command.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/augustoroman/v8shim"
	"github.com/augustoroman/v8shim/log"
	"github.com/imdario/mergo"
	"sigs.k8s.io/yaml"
)

// Config describes the configuration for the runner.
type Config struct {
	Engine  v8shim.Config
	Logger  log.Logger
	Console ConsoleConfig
	Cache   CacheConfig
}

// ConsoleConfig selects where console.* output goes.
type ConsoleConfig struct {
	// Mode is "stdout", printing like a terminal program, or "log",
	// forwarding every call to the logger.
	Mode   string
	Prefix string
	// Color is "auto", "always" or "never".
	Color string
}

// CacheConfig controls the HTTP cache used for remote scripts.
type CacheConfig struct {
	// Dir holds the cache database. Empty means the user cache directory.
	Dir     string
	Disable bool
	// Timeout bounds every remote fetch, e.g. "30s".
	Timeout string
}

// DefaultConfig returns an instance of the default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Engine.MaxScopeDepth = 1024
	c.Logger = log.DefaultLoggerConfig()
	c.Console.Mode = "stdout"
	c.Console.Color = "auto"
	c.Cache.Timeout = "30s"
	return c
}

// SetDefaults fills every unset field from DefaultConfig.
func (c *Config) SetDefaults() error {
	return mergo.Merge(c, DefaultConfig())
}

// Override copies every non-zero field of o onto c.
func (c *Config) Override(o Config) error {
	return mergo.Merge(c, o, mergo.WithOverride)
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Console.Mode {
	case "stdout", "log":
	default:
		return fmt.Errorf("unknown console mode %q", c.Console.Mode)
	}
	switch c.Console.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("unknown console color setting %q", c.Console.Color)
	}
	if _, err := c.Cache.FetchTimeout(); err != nil {
		return err
	}
	return nil
}

// FetchTimeout parses Timeout. Empty means no timeout.
func (c CacheConfig) FetchTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid cache timeout: %v", err)
	}
	return d, nil
}

// ParseConfig parses a YAML doc into the given Config instance.
func ParseConfig(raw []byte, conf *Config) error {
	return yaml.UnmarshalStrict(raw, conf)
}

// ParseConfigFile parses a config file, which is formatted in YAML,
// and returns a Config struct.
func ParseConfigFile(relpath string, conf *Config) error {
	if relpath == "" {
		return fmt.Errorf("config path is empty")
	}

	// Try to get absolute path. If it fails, fall back to relative path.
	path, err := filepath.Abs(relpath)
	if err != nil {
		path = relpath
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config at path %s: \n%v", path, err)
	}

	if err := ParseConfig(source, conf); err != nil {
		return fmt.Errorf("failed to parse config at path %s: \n%v", path, err)
	}
	return nil
}
