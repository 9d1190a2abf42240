package ark

import "time"

// Timing holds every wait the orchestrator performs. The platform gives no
// completion notification for workshop calls, so completion is polled at a
// fixed interval; tests shrink these to milliseconds.
type Timing struct {
	// Locate phase: how often and how many times the staging directory is
	// polled for a snapshot file.
	LocateInterval time.Duration
	LocatePolls    int

	// Workshop call retry discipline.
	MaxAttempts   int
	AttemptWait   time.Duration
	PollInterval  time.Duration
	RetryDelay    time.Duration
	NotReadyDelay time.Duration

	// Countdown before the process-level restart notification fires.
	RestartDelay time.Duration
}

func DefaultTiming() Timing {
	return Timing{
		LocateInterval: 1 * time.Second,
		LocatePolls:    60,
		MaxAttempts:    3,
		AttemptWait:    10 * time.Second,
		PollInterval:   100 * time.Millisecond,
		RetryDelay:     1 * time.Second,
		NotReadyDelay:  500 * time.Millisecond,
		RestartDelay:   10 * time.Second,
	}
}
