package app

import (
	"errors"
	"runtime"
)

// Config holds everything the invoking build system hands the pipeline:
// the manifest location plus per-invocation overrides. Optional stage
// toggles are explicit flags validated here, at the start of the run,
// not by editing build files.
type Config struct {
	ManifestPath string

	// Version, Archs and Prefix override the manifest when non-zero.
	Version string
	Archs   []string
	Prefix  string

	// Jobs bounds make parallelism; defaulted to the host core count.
	Jobs int

	Install  bool
	RunTests bool

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ManifestPath == "" {
		return nil, errors.New("ManifestPath is a required configuration field and cannot be empty")
	}
	if cfg.Jobs < 0 {
		return nil, errors.New("Jobs must not be negative")
	}
	if cfg.Jobs == 0 {
		cfg.Jobs = runtime.NumCPU()
	}

	return &cfg, nil
}
