// Package config loads the runtime overrides layered on top of
// spec.md's build-time constants.
//
// Grounded on github.com/helixml/helix's api/pkg/config.LoadServerConfig:
// a plain struct processed by envconfig, one field per tunable,
// each carrying a `default` tag equal to the spec constant it mirrors.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Build-time constants from spec.md §6, used by every package that
// needs them directly (tests, CLI help text). The envconfig default
// tags on Config repeat the matching values as literals.
const (
	MaxClients     = 9
	CellWidth      = 320
	CellHeight     = 240
	TargetAspectNu = 16
	TargetAspectDe = 9
	BufferSize     = 4096
	DefaultPort    = 27884
	FrameRate      = 30
)

// TargetAspect is TargetAspectNu/TargetAspectDe as a float64.
func TargetAspect() float64 { return float64(TargetAspectNu) / float64(TargetAspectDe) }

// Config is the set of runtime-tunable knobs (SPEC_FULL.md §11). The
// CLI flag for the listen port, when given, overrides Port after
// Load returns.
type Config struct {
	Port        int           `envconfig:"PORT" default:"27884"`
	IdleLimit   time.Duration `envconfig:"IDLE_LIMIT" default:"2s"`
	SweepPeriod time.Duration `envconfig:"SWEEP_PERIOD" default:"8s"`
	BitrateKbps int           `envconfig:"BITRATE_KBPS" default:"500"`
	MetricsAddr string        `envconfig:"METRICS_ADDR" default:":9090"`
	LogLevel    string        `envconfig:"LOG_LEVEL" default:"info"`
}

// Load processes environment variables prefixed GRIDMEET_ into a Config,
// falling back to the struct's default tags (spec.md's constants).
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("GRIDMEET", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
