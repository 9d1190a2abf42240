// Package runtime hosts the message bus, presence tracking, and the workers
// that keep the terminal responsive. It orchestrates delivery without
// containing business logic or domain rules.
package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mod-ark/contract"
	"mod-ark/domain"
	"mod-ark/domain/event"
	"mod-ark/errors"

	"github.com/google/uuid"
)

// Bus is the process-wide registry mapping a participant id to exactly one
// active handler. Registration changes and presence notifications are
// strictly ordered per participant: all mutations go through one mutex, and
// the synthesized online/offline control message is sent before the mutex is
// handed to the next mutation of the same id.
type Bus struct {
	mu       sync.RWMutex
	handlers map[domain.ParticipantID]contract.Handler
	presence contract.IPresence
	sinks    []contract.EventSink
	log      *slog.Logger
}

func NewBus(log *slog.Logger, presence contract.IPresence) *Bus {
	return &Bus{
		handlers: make(map[domain.ParticipantID]contract.Handler),
		presence: presence,
		log:      log,
	}
}

// AddSinks appends bus lifecycle event consumers. Delivery is synchronous and
// in registration order, on the mutating goroutine.
func (b *Bus) AddSinks(sinks ...contract.EventSink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sinks...)
}

// Register installs handler as the exclusive handler for id. An existing
// handler is atomically replaced and never invoked again. Every successful
// registration triggers exactly one presence online signal and one
// synthesized "online <id>" control message to the terminal UI.
func (b *Bus) Register(id domain.ParticipantID, handler contract.Handler) {
	b.mu.Lock()
	_, replaced := b.handlers[id]
	b.handlers[id] = handler
	b.mu.Unlock()

	if replaced {
		b.log.Info("Handler replaced", "participant", id)
	}

	b.presence.Online(id)
	b.publish(event.ParticipantRegistered{ID: uuid.New(), Who: id, Replaced: replaced, At: time.Now().UTC()})
	b.notifyTerminal(id, domain.OnlineCommand(id))
}

// Unregister removes the handler for id if present; no-op otherwise.
func (b *Bus) Unregister(id domain.ParticipantID) {
	b.mu.Lock()
	_, present := b.handlers[id]
	delete(b.handlers, id)
	b.mu.Unlock()

	if !present {
		return
	}

	b.presence.Offline(id)
	b.publish(event.ParticipantUnregistered{ID: uuid.New(), Who: id, At: time.Now().UTC()})
	b.notifyTerminal(id, domain.OfflineCommand(id))
}

// Send delivers (from, contentType, body) to the handler registered for to.
// The handler runs synchronously on the calling goroutine, so callers that
// want back-pressure simply await the return; the bus itself holds no lock
// during the invocation and adds no waiting of its own.
func (b *Bus) Send(ctx context.Context, from, to domain.ParticipantID, contentType, body string) error {
	b.mu.RLock()
	handler, ok := b.handlers[to]
	b.mu.RUnlock()

	if !ok {
		b.publish(event.DeliveryFailed{ID: uuid.New(), Who: to, From: from, ContentType: contentType, At: time.Now().UTC()})
		return fmt.Errorf("%w: %s", errors.ErrNotRegistered, to)
	}

	if err := handler(ctx, from, contentType, body); err != nil {
		return fmt.Errorf("handler of %s: %w", to, err)
	}
	b.publish(event.MessageDelivered{ID: uuid.New(), Who: to, From: from, ContentType: contentType, At: time.Now().UTC()})
	return nil
}

// notifyTerminal mirrors a registration change to the terminal UI so it can
// keep its own presence table consistent without subscribing to the tracker.
// Failing is normal while the terminal itself is not registered yet.
func (b *Bus) notifyTerminal(id domain.ParticipantID, command string) {
	if id == domain.TerminalUIID {
		return
	}
	if err := b.Send(context.Background(), id, domain.TerminalUIID, domain.ContentTypeCLI, command); err != nil {
		b.log.Debug("Terminal control message not delivered", "participant", id, "error", err)
	}
}

func (b *Bus) publish(e event.BusEvent) {
	b.mu.RLock()
	sinks := b.sinks
	b.mu.RUnlock()
	for _, sink := range sinks {
		if err := sink.Consume(context.Background(), e); err != nil {
			b.log.Warn("Bus event sink failed", "error", err)
		}
	}
}
