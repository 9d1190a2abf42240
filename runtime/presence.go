package runtime

import (
	"log/slog"
	"sort"
	"sync"

	"mod-ark/contract"
	"mod-ark/domain"

	"github.com/samber/lo"
)

// PresenceTracker maintains the set of currently-registered participants,
// excluding the terminal UI itself. The set mutates only on explicit
// online/offline signals, never by timeout. Observers always receive the
// complete set, so a missed notification can never leave them drifted.
type PresenceTracker struct {
	mu        sync.Mutex
	online    map[domain.ParticipantID]struct{}
	observers []contract.PresenceObserver
	log       *slog.Logger
}

func NewPresenceTracker(log *slog.Logger) *PresenceTracker {
	return &PresenceTracker{
		online: make(map[domain.ParticipantID]struct{}),
		log:    log,
	}
}

func (p *PresenceTracker) Online(id domain.ParticipantID) {
	if id == domain.TerminalUIID || id.IsEmpty() {
		return
	}
	p.mu.Lock()
	if _, present := p.online[id]; present {
		p.mu.Unlock()
		return
	}
	p.online[id] = struct{}{}
	snapshot, observers := p.snapshotLocked()
	p.mu.Unlock()

	p.log.Info("Participant online", "participant", id, "total", len(snapshot))
	notify(observers, snapshot)
}

func (p *PresenceTracker) Offline(id domain.ParticipantID) {
	p.mu.Lock()
	if _, present := p.online[id]; !present {
		p.mu.Unlock()
		return
	}
	delete(p.online, id)
	snapshot, observers := p.snapshotLocked()
	p.mu.Unlock()

	p.log.Info("Participant offline", "participant", id, "total", len(snapshot))
	notify(observers, snapshot)
}

// Snapshot returns a sorted copy of the current set.
func (p *PresenceTracker) Snapshot() []domain.ParticipantID {
	p.mu.Lock()
	defer p.mu.Unlock()
	snapshot, _ := p.snapshotLocked()
	return snapshot
}

// SubscribeChanges adds an observer. Delivery is synchronous and in
// subscription order, on the goroutine that mutated the set.
func (p *PresenceTracker) SubscribeChanges(fn contract.PresenceObserver) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

func (p *PresenceTracker) snapshotLocked() ([]domain.ParticipantID, []contract.PresenceObserver) {
	snapshot := lo.Keys(p.online)
	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i] < snapshot[j] })
	return snapshot, p.observers
}

func notify(observers []contract.PresenceObserver, snapshot []domain.ParticipantID) {
	for _, fn := range observers {
		// Each observer gets its own copy; mutating it must not corrupt
		// the tracker or a sibling observer.
		fn(append([]domain.ParticipantID(nil), snapshot...))
	}
}
