package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Path        string // .hcl layout file or directory, or a serialized .json graph
	ModulesPath string // extra .hcl manifests
	Graph       string // layout to run; empty runs every layout

	Frames int     // ticks to drive after building
	Delta  float64 // seconds per tick

	OutPath   string // write the serialized graph here
	StoreDir  string // badger directory; empty keeps records in memory
	BridgeURL string // socket.io server receiving graph events

	Watch           bool
	HealthcheckPort int

	LogFormat string
	LogLevel  string
}

// DefaultDelta is the tick interval used when Config.Delta is zero.
const DefaultDelta = 1.0 / 60

var (
	logFormats = []string{"text", "json"}
	logLevels  = []string{"debug", "info", "warn", "error"}
)

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.Path == "" {
		return nil, errors.New("Path is a required configuration field and cannot be empty")
	}
	if cfg.Frames < 0 {
		return nil, fmt.Errorf("frames must not be negative, got %d", cfg.Frames)
	}
	if cfg.Delta < 0 {
		return nil, fmt.Errorf("delta must not be negative, got %g", cfg.Delta)
	}
	if cfg.Delta == 0 {
		cfg.Delta = DefaultDelta
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("healthcheck port %d is out of range", cfg.HealthcheckPort)
	}
	if cfg.Watch && cfg.IsRecord() {
		return nil, errors.New("watch mode needs an .hcl layout, not a serialized graph")
	}

	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !contains(logFormats, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log-format %q: must be one of %s", cfg.LogFormat, strings.Join(logFormats, ", "))
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if !contains(logLevels, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log-level %q: must be one of %s", cfg.LogLevel, strings.Join(logLevels, ", "))
	}
	return &cfg, nil
}

// IsRecord reports whether Path names a serialized graph instead of HCL.
func (c *Config) IsRecord() bool {
	return strings.EqualFold(filepath.Ext(c.Path), ".json")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
