package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	DocPaths []string // design documents: files or directories
	OutDir   string   // artifact output root

	DesignName string // overrides the documents' design block
	PDK        string
	Library    string
	Flow       bool

	Workers    int
	GenTimeout time.Duration
	FailFast   bool

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.DocPaths) == 0 {
		return nil, errors.New("at least one design document path is required")
	}
	if cfg.OutDir == "" {
		return nil, errors.New("OutDir is a required configuration field and cannot be empty")
	}

	// Future validations for other fields can be added here.

	return &cfg, nil
}
