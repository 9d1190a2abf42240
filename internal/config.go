package internal

import (
	"time"

	"mod-ark/ark"
)

type Config struct {
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BackupRoot     string `env:"BACKUP_ROOT,required=true"`
	StagingDir     string `env:"STAGING_DIR,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	WorkshopLatency time.Duration `env:"WORKSHOP_LATENCY,required=true"`

	// Orchestrator waits; unset values fall back to the defaults.
	LocateInterval time.Duration `env:"LOCATE_INTERVAL"`
	LocatePolls    *int          `env:"LOCATE_POLLS"`
	AttemptWait    time.Duration `env:"ATTEMPT_WAIT"`
	RestartDelay   time.Duration `env:"RESTART_DELAY"`
}

// Timing builds the orchestrator timing from the defaults, overridden by
// whichever knobs the environment sets.
func (c Config) Timing() ark.Timing {
	t := ark.DefaultTiming()
	if c.LocateInterval > 0 {
		t.LocateInterval = c.LocateInterval
	}
	if c.LocatePolls != nil && *c.LocatePolls > 0 {
		t.LocatePolls = *c.LocatePolls
	}
	if c.AttemptWait > 0 {
		t.AttemptWait = c.AttemptWait
	}
	if c.RestartDelay > 0 {
		t.RestartDelay = c.RestartDelay
	}
	return t
}
