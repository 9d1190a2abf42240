// Package observability aggregates bus activity counters and process-level
// self stats for the terminal's stats view.
package observability

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"mod-ark/domain"
	"mod-ark/domain/event"

	"github.com/shirou/gopsutil/process"
)

// Snapshot is a point-in-time view of the counters plus process metrics.
type Snapshot struct {
	Registrations     uint64  `json:"registrations"`
	Unregistrations   uint64  `json:"unregistrations"`
	Delivered         uint64  `json:"delivered"`
	DeliveryFailures  uint64  `json:"delivery_failures"`
	OnlineCount       int     `json:"online_count"`
	RSSMb             uint64  `json:"rss_mb"`
	CPUPercent        float64 `json:"cpu_percent"`
	ProcStatus        string  `json:"proc_status"`
	GoAllocMb         uint64  `json:"go_alloc_mb"`
	NumGoroutine      int     `json:"num_goroutine"`
	UptimeSeconds     uint64  `json:"uptime_seconds"`
	LastEventReceived string  `json:"last_event_received"`
}

// BusStats counts bus lifecycle events. It is wired as a bus event sink and
// as a presence observer, so all increments happen on the bus goroutines.
type BusStats struct {
	registrations    atomic.Uint64
	unregistrations  atomic.Uint64
	delivered        atomic.Uint64
	deliveryFailures atomic.Uint64

	mu        sync.Mutex
	online    int
	lastEvent time.Time
	started   time.Time
	proc      *process.Process
}

func NewBusStats() *BusStats {
	// Self inspection is best effort. A nil process only blanks the
	// RSS/CPU columns of the stats view.
	p, _ := process.NewProcess(int32(os.Getpid()))
	return &BusStats{started: time.Now(), proc: p}
}

// Consume implements contract.EventSink.
func (s *BusStats) Consume(_ context.Context, e event.BusEvent) error {
	switch e.(type) {
	case event.ParticipantRegistered:
		s.registrations.Add(1)
	case event.ParticipantUnregistered:
		s.unregistrations.Add(1)
	case event.MessageDelivered:
		s.delivered.Add(1)
	case event.DeliveryFailed:
		s.deliveryFailures.Add(1)
	}
	s.mu.Lock()
	s.lastEvent = time.Now()
	s.mu.Unlock()
	return nil
}

// ObservePresence is registered on the presence tracker and keeps the online
// participant count current.
func (s *BusStats) ObservePresence(online []domain.ParticipantID) {
	s.mu.Lock()
	s.online = len(online)
	s.mu.Unlock()
}

// Collect builds a snapshot including process self stats.
func (s *BusStats) Collect() Snapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	s.mu.Lock()
	online := s.online
	lastEvent := s.lastEvent
	started := s.started
	proc := s.proc
	s.mu.Unlock()

	snap := Snapshot{
		Registrations:    s.registrations.Load(),
		Unregistrations:  s.unregistrations.Load(),
		Delivered:        s.delivered.Load(),
		DeliveryFailures: s.deliveryFailures.Load(),
		OnlineCount:      online,
		GoAllocMb:        mem.Alloc / 1024 / 1024,
		NumGoroutine:     runtime.NumGoroutine(),
		UptimeSeconds:    uint64(time.Since(started).Seconds()),
	}
	if !lastEvent.IsZero() {
		snap.LastEventReceived = lastEvent.Format("15:04:05")
	}

	if proc != nil {
		if memInfo, err := proc.MemoryInfo(); err == nil {
			snap.RSSMb = memInfo.RSS / 1024 / 1024
		}
		if cpu, err := proc.CPUPercent(); err == nil {
			snap.CPUPercent = cpu
		}
		if status, err := proc.Status(); err == nil {
			snap.ProcStatus = status
		}
	}
	return snap
}

// Render formats a snapshot as the multi-line text sent to the terminal.
func (s Snapshot) Render() string {
	lines := []string{
		fmt.Sprintf("Online participants : %d", s.OnlineCount),
		fmt.Sprintf("Registrations       : %d (offline: %d)", s.Registrations, s.Unregistrations),
		fmt.Sprintf("Messages delivered  : %d (failed: %d)", s.Delivered, s.DeliveryFailures),
		fmt.Sprintf("Process RSS         : %d MB (go alloc: %d MB)", s.RSSMb, s.GoAllocMb),
		fmt.Sprintf("CPU                 : %.1f%% (status: %s)", s.CPUPercent, s.ProcStatus),
		fmt.Sprintf("Goroutines          : %d", s.NumGoroutine),
		fmt.Sprintf("Uptime              : %ds", s.UptimeSeconds),
	}
	if s.LastEventReceived != "" {
		lines = append(lines, fmt.Sprintf("Last bus event      : %s", s.LastEventReceived))
	}
	out := ""
	for _, l := range lines {
		out += l + "\n"
	}
	return out
}
