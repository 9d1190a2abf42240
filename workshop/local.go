// Package workshop models the content-distribution service. The real
// platform completes subscription calls asynchronously and offers no
// completion notification, so callers poll the returned call handle.
package workshop

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mod-ark/contract"

	"github.com/google/uuid"
)

// Call is one in-flight workshop operation.
type Call struct {
	ID uuid.UUID

	mu   sync.Mutex
	done bool
	err  error
}

func (c *Call) Done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

func (c *Call) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Call) complete(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.done = true
	c.err = err
}

// LocalService simulates the platform workshop inside the process: calls
// complete after a configurable latency, specific ids can be made to fail or
// to never complete. It stands in for the platform SDK in the host binary
// and in tests.
type LocalService struct {
	mu         sync.Mutex
	ready      bool
	latency    time.Duration
	subscribed map[uint64]struct{}
	failing    map[uint64]struct{}
	stalled    map[uint64]struct{}
	log        *slog.Logger
}

func NewLocalService(log *slog.Logger, latency time.Duration) *LocalService {
	return &LocalService{
		ready:      true,
		latency:    latency,
		subscribed: make(map[uint64]struct{}),
		failing:    make(map[uint64]struct{}),
		stalled:    make(map[uint64]struct{}),
		log:        log,
	}
}

func (s *LocalService) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// FailOn makes every call touching id complete with an error.
func (s *LocalService) FailOn(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[id] = struct{}{}
}

// StallOn makes every call touching id never complete, exercising the
// caller's wait-window timeout.
func (s *LocalService) StallOn(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stalled[id] = struct{}{}
}

// Seed marks ids as already subscribed without going through a call.
func (s *LocalService) Seed(ids ...uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.subscribed[id] = struct{}{}
	}
}

func (s *LocalService) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *LocalService) ListSubscribed() ([]uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return nil, fmt.Errorf("workshop not ready")
	}
	ids := make([]uint64, 0, len(s.subscribed))
	for id := range s.subscribed {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *LocalService) Subscribe(id uint64) (contract.WorkshopCall, error) {
	return s.start(id, func() {
		s.mu.Lock()
		s.subscribed[id] = struct{}{}
		s.mu.Unlock()
	})
}

func (s *LocalService) Unsubscribe(id uint64) (contract.WorkshopCall, error) {
	return s.start(id, func() {
		s.mu.Lock()
		delete(s.subscribed, id)
		s.mu.Unlock()
	})
}

func (s *LocalService) start(id uint64, apply func()) (contract.WorkshopCall, error) {
	s.mu.Lock()
	if !s.ready {
		s.mu.Unlock()
		return nil, fmt.Errorf("workshop not ready")
	}
	_, stall := s.stalled[id]
	_, fail := s.failing[id]
	latency := s.latency
	s.mu.Unlock()

	call := &Call{ID: uuid.New()}
	if stall {
		// Deliberately left pending forever.
		return call, nil
	}

	time.AfterFunc(latency, func() {
		if fail {
			call.complete(fmt.Errorf("workshop rejected item %d", id))
			return
		}
		apply()
		call.complete(nil)
	})
	return call, nil
}
