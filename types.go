// Package epkroute computes partition key hashes and effective partition
// keys the way the server does, and routes them to partitions.
package epkroute

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/epkroute/epkroute-go/internal/routing"
	"github.com/epkroute/epkroute-go/pkhash"
)

// Partition is a named range of the hash space.
type Partition = routing.Partition

// PartitionProvider supplies the authoritative partition layout for
// Partitioner.Refresh.
type PartitionProvider = routing.Provider

// PartitionProviderFunc adapts a function to PartitionProvider.
type PartitionProviderFunc = routing.ProviderFunc

// PartitionKeyDefinition describes a container's partition key.
type PartitionKeyDefinition struct {
	// Paths are JSON pointer paths such as "/tenantId", in key order.
	Paths []string `yaml:"paths"`

	// Kind is Hash, Range or MultiHash (default: Hash).
	Kind pkhash.Kind `yaml:"kind"`

	// Version selects the hashing scheme, 1 or 2 (default: 2).
	Version pkhash.Version `yaml:"version"`
}

// Config contains configuration for a Partitioner.
type Config struct {
	PartitionKey PartitionKeyDefinition `yaml:"partitionKey"`

	// InitialPartitions is how many equal partitions the full hash range
	// starts with (default: 1).
	InitialPartitions int `yaml:"initialPartitions"`

	// WatchTopology delivers layout changes in the background and logs them
	// (default: true).
	WatchTopology bool `yaml:"watchTopology"`

	// LogLevel is debug, info, warn or error (default: info).
	LogLevel string `yaml:"logLevel"`

	// LogFormat is text or json (default: text).
	LogFormat string `yaml:"logFormat"`

	// Logger overrides LogLevel and LogFormat.
	Logger *slog.Logger `yaml:"-"`

	// Provider is consulted by Refresh. Optional.
	Provider PartitionProvider `yaml:"-"`
}

// DefaultPartitionKeyDefinition returns a V2 hash definition over paths.
func DefaultPartitionKeyDefinition(paths ...string) PartitionKeyDefinition {
	return PartitionKeyDefinition{
		Paths:   paths,
		Kind:    pkhash.KindHash,
		Version: pkhash.V2,
	}
}

// DefaultConfig returns the default configuration for paths.
func DefaultConfig(paths ...string) *Config {
	return &Config{
		PartitionKey:      DefaultPartitionKeyDefinition(paths...),
		InitialPartitions: 1,
		WatchTopology:     true,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// ParseConfig reads YAML over the defaults and validates the result.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, NewFormatError("failed to parse config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseConfig(data)
}

// applyDefaults fills zero values.
func (c *Config) applyDefaults() {
	if c.PartitionKey.Kind == "" {
		c.PartitionKey.Kind = pkhash.KindHash
	}
	if c.PartitionKey.Version == 0 {
		c.PartitionKey.Version = pkhash.V2
	}
	if c.InitialPartitions == 0 {
		c.InitialPartitions = 1
	}
}

// Validate checks the configuration after filling zero values.
func (c *Config) Validate() error {
	c.applyDefaults()

	pk := c.PartitionKey
	if len(pk.Paths) == 0 {
		return NewInvalidArgumentError("at least one partition key path is required")
	}
	for _, p := range pk.Paths {
		if !strings.HasPrefix(p, "/") {
			return NewInvalidArgumentError(fmt.Sprintf("partition key path %q must start with /", p))
		}
	}
	switch pk.Kind {
	case pkhash.KindHash, pkhash.KindRange:
	case pkhash.KindMultiHash:
		if pk.Version != pkhash.V2 {
			return NewInvalidArgumentError("MultiHash partition keys require version 2")
		}
	default:
		return NewInvalidArgumentError(fmt.Sprintf("unknown partition key kind %q", pk.Kind))
	}
	if pk.Version != pkhash.V1 && pk.Version != pkhash.V2 {
		return NewInvalidArgumentError(fmt.Sprintf("unsupported partition key version %d", int(pk.Version)))
	}
	if c.InitialPartitions < 1 {
		return NewInvalidArgumentError("initialPartitions must be at least 1")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return NewInvalidArgumentError(fmt.Sprintf("unknown log format %q", c.LogFormat))
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, NewInvalidArgumentError(fmt.Sprintf("unknown log level %q", s))
	}
}

// newLogger builds the logger for a validated config.
func newLogger(c *Config, w io.Writer) *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	level, _ := parseLevel(c.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(c.LogFormat) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("component", "epkroute")
}
