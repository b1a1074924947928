package app

import (
	"errors"
	"time"
)

// Offload targets selectable from configuration. Any other non-empty
// value is treated as a socket.io worker URL.
const (
	OffloadOff   = "off"
	OffloadLocal = "local"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	PipelinePath string // .hcl file or directory

	LogFormat       string
	LogLevel        string
	HealthcheckPort int

	// Workers bounds concurrent node executions and sizes the local
	// offload pool.
	Workers int

	// Offload selects where transform nodes run: OffloadOff in-process,
	// OffloadLocal through an in-process worker pool, anything else is
	// dialed as a socket.io worker URL.
	Offload string

	// HTTPTimeout caps every HTTP ingestion request. Zero leaves only
	// per-node timeouts.
	HTTPTimeout time.Duration
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PipelinePath == "" {
		return nil, errors.New("PipelinePath is a required configuration field and cannot be empty")
	}
	if cfg.Offload == "" {
		cfg.Offload = OffloadOff
	}
	return &cfg, nil
}
