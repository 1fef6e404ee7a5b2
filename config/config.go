// SPDX-License-Identifier: MIT
//
// Package config loads the YAML configuration shared by the netmanager
// service and tools.
//
//	server:
//	  listen: ":8080"
//	  shutdown_timeout: 10s
//	topology:
//	  snapshot_path: netmanager.cbor
//	  verify: false
//	  parallelism: 0
//	loader:
//	  database: connectivity.db
//	  generator_types: ["Circuit Breaker"]
//	  service_point_types: ["Service Point"]
//	log:
//	  level: info
//	  format: text
//
// Omitted keys keep their defaults; unknown keys are an error.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/netmanager/loader"
	"github.com/katalvlaran/netmanager/topology"
)

// ErrInvalid indicates a configuration that parsed but cannot be used.
var ErrInvalid = errors.New("config: invalid configuration")

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config is the root document.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Topology TopologyConfig `yaml:"topology"`
	Loader   LoaderConfig   `yaml:"loader"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TopologyConfig configures the engine and its snapshot.
type TopologyConfig struct {
	SnapshotPath string `yaml:"snapshot_path"`
	Verify       bool   `yaml:"verify"`
	Parallelism  int    `yaml:"parallelism"`
}

// LoaderConfig configures the SQL loading job.
type LoaderConfig struct {
	Database          string   `yaml:"database"`
	GeneratorTypes    []string `yaml:"generator_types"`
	ServicePointTypes []string `yaml:"service_point_types"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:          ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Topology: TopologyConfig{
			SnapshotPath: "netmanager.cbor",
		},
		Loader: LoaderConfig{
			Database:          "connectivity.db",
			GeneratorTypes:    []string{loader.DefaultGeneratorType},
			ServicePointTypes: []string{loader.DefaultServicePointType},
		},
		Log: LogConfig{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// Load reads and validates the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes data over the defaults and validates the result.
// An empty document yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Listen == "" {
		errs = append(errs, errors.New("server.listen is required"))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must not be negative"))
	}
	if c.Topology.SnapshotPath == "" {
		errs = append(errs, errors.New("topology.snapshot_path is required"))
	}
	if c.Topology.Parallelism < 0 {
		errs = append(errs, errors.New("topology.parallelism must not be negative"))
	}
	if _, err := c.Log.level(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != FormatText && c.Log.Format != FormatJSON {
		errs = append(errs, fmt.Errorf("log.format %q: want %s or %s", c.Log.Format, FormatText, FormatJSON))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}

	return nil
}

// TopologyOptions converts the topology section into engine options.
func (c *Config) TopologyOptions(logger *slog.Logger) []topology.Option {
	return []topology.Option{
		topology.WithVerification(c.Topology.Verify),
		topology.WithParallelism(c.Topology.Parallelism),
		topology.WithLogger(logger),
	}
}

// LoaderOptions converts the loader section into loader options.
func (c *Config) LoaderOptions(logger *slog.Logger) []loader.Option {
	return []loader.Option{
		loader.WithGeneratorTypes(c.Loader.GeneratorTypes...),
		loader.WithServicePointTypes(c.Loader.ServicePointTypes...),
		loader.WithLogger(logger),
	}
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	err := lvl.UnmarshalText([]byte(strings.ToLower(l.Level)))

	return lvl, err
}

// Logger builds the configured slog logger writing to w.
func (l LogConfig) Logger(w io.Writer) *slog.Logger {
	lvl, err := l.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == FormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
