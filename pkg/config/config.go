// Package config loads the mcp-server configuration. Values are layered,
// lowest precedence first: built-in defaults, a YAML file, environment
// variables, then command-line flags.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Transport modes
const (
	ModeStdio = "stdio"
	ModeHTTP  = "http"
)

// Defaults
const (
	DefaultServerName      = "mcp-tool-service"
	DefaultServerVersion   = "0.1.0"
	DefaultProtocolVersion = "2024-11-05"
	DefaultLogLevel        = "INFO"
	DefaultHTTPAddr        = ":8080"
)

// Environment variables
const (
	EnvConfigPath = "MCP_TOOL_CONFIG"
	EnvLogLevel   = "MCP_TOOL_LOG_LEVEL"
	EnvTransport  = "MCP_TOOL_TRANSPORT"
	EnvHTTPAddr   = "MCP_TOOL_HTTP_ADDR"
)

// Config is the complete server configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	// Watch re-applies log.level whenever the config file changes
	Watch bool `yaml:"watch"`

	// Path is the file the configuration was read from, if any
	Path string `yaml:"-"`
	// FileLogLevel is log.level as written in the file, before env and
	// flags are applied
	FileLogLevel string `yaml:"-"`
	// Warnings describes settings Load adjusted or ignored
	Warnings []string `yaml:"-"`
}

// ServerConfig is reported to clients by initialize
type ServerConfig struct {
	Name            string `yaml:"name"`
	Version         string `yaml:"version"`
	ProtocolVersion string `yaml:"protocol_version"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `yaml:"level"`
}

// TransportConfig selects how requests reach the server
type TransportConfig struct {
	Mode     string `yaml:"mode"`
	HTTPAddr string `yaml:"http_addr"`
}

// Overrides holds values given on the command line. Empty fields are unset.
type Overrides struct {
	ConfigPath string
	LogLevel   string
	Transport  string
	HTTPAddr   string
}

// LookupFunc reads an environment variable; os.LookupEnv satisfies it
type LookupFunc func(key string) (string, bool)

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Name:            DefaultServerName,
			Version:         DefaultServerVersion,
			ProtocolVersion: DefaultProtocolVersion,
		},
		Log: LogConfig{Level: DefaultLogLevel},
		Transport: TransportConfig{
			Mode:     ModeStdio,
			HTTPAddr: DefaultHTTPAddr,
		},
	}
}

// Load builds the configuration from every source and validates it.
// A nil lookup reads the process environment.
func Load(overrides Overrides, lookup LookupFunc) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := Default()

	path := overrides.ConfigPath
	if path == "" {
		path, _ = lookup(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(lookup)
	cfg.ApplyOverrides(overrides)

	if cfg.FileLogLevel != "" && !strings.EqualFold(cfg.FileLogLevel, cfg.Log.Level) {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf(
			"log.level %q in %s is overridden by %q from the environment or command line",
			cfg.FileLogLevel, cfg.Path, cfg.Log.Level))
	}
	if !ValidLogLevel(cfg.Log.Level) {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("unknown log level %q, using %s", cfg.Log.Level, DefaultLogLevel))
		cfg.Log.Level = DefaultLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFile merges the YAML file at path into c. Keys absent from the file
// keep their current values; unknown keys are rejected.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	level := c.Log.Level
	c.Log.Level = ""
	if err := c.decode(bytes.NewReader(data)); err != nil {
		c.Log.Level = level
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	if c.Log.Level == "" {
		c.Log.Level = level
	} else {
		c.FileLogLevel = c.Log.Level
	}

	c.Path = path
	return nil
}

func (c *Config) decode(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(c); err != nil && err != io.EOF {
		return err
	}
	return nil
}

// ApplyEnv overlays values set in the environment
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	if v, ok := lookup(EnvTransport); ok && v != "" {
		c.Transport.Mode = v
	}
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		c.Transport.HTTPAddr = v
	}
}

// ApplyOverrides overlays values given on the command line
func (c *Config) ApplyOverrides(o Overrides) {
	if o.LogLevel != "" {
		c.Log.Level = o.LogLevel
	}
	if o.Transport != "" {
		c.Transport.Mode = o.Transport
	}
	if o.HTTPAddr != "" {
		c.Transport.HTTPAddr = o.HTTPAddr
	}
}

// Validate checks that the configuration can be served. An unknown log
// level is not an error; Load replaces it with DefaultLogLevel.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Name) == "" {
		return fmt.Errorf("server.name cannot be empty")
	}
	if c.Server.ProtocolVersion == "" {
		return fmt.Errorf("server.protocol_version cannot be empty")
	}
	switch c.Transport.Mode {
	case ModeStdio:
	case ModeHTTP:
		if c.Transport.HTTPAddr == "" {
			return fmt.Errorf("transport.http_addr is required for http transport")
		}
	default:
		return fmt.Errorf("unknown transport mode %q (want %s or %s)", c.Transport.Mode, ModeStdio, ModeHTTP)
	}

	return nil
}

// ValidLogLevel reports whether level names a known log level
func ValidLogLevel(level string) bool {
	switch strings.ToUpper(level) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
		return true
	}
	return false
}
