package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"mod-ark/domain"
	"mod-ark/domain/event"
	"mod-ark/errors"

	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu     sync.Mutex
	events []event.BusEvent
}

func (s *recordingSink) Consume(_ context.Context, e event.BusEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) all() []event.BusEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.BusEvent(nil), s.events...)
}

func newTestBus() (*Bus, *PresenceTracker) {
	log := slog.Default()
	presence := NewPresenceTracker(log)
	return NewBus(log, presence), presence
}

func capture(into *[]string) func(ctx context.Context, from domain.ParticipantID, contentType, body string) error {
	return func(_ context.Context, _ domain.ParticipantID, _, body string) error {
		*into = append(*into, body)
		return nil
	}
}

func TestBus_Send_Reaches_Registered_Handler(t *testing.T) {
	req := require.New(t)
	bus, _ := newTestBus()
	var received []string

	// Given a registered participant
	bus.Register("local.alphamod", capture(&received))

	// When a message is sent to it
	err := bus.Send(context.Background(), "local.console", "local.alphamod", domain.ContentTypeCLI, "hello")

	// Then the handler saw exactly that body
	req.NoError(err)
	req.Equal([]string{"hello"}, received)
}

func TestBus_Send_To_Unknown_Participant_Fails(t *testing.T) {
	req := require.New(t)
	bus, _ := newTestBus()

	err := bus.Send(context.Background(), "local.console", "local.ghost", domain.ContentTypeCLI, "hello")

	req.ErrorIs(err, errors.ErrNotRegistered)
}

func TestBus_Register_Replaces_Previous_Handler(t *testing.T) {
	req := require.New(t)
	bus, _ := newTestBus()
	var old, current []string

	// Given a participant registered twice
	bus.Register("local.alphamod", capture(&old))
	bus.Register("local.alphamod", capture(&current))

	// When a message is sent
	err := bus.Send(context.Background(), "local.console", "local.alphamod", domain.ContentTypeCLI, "hello")

	// Then only the latest handler is ever invoked
	req.NoError(err)
	req.Empty(old)
	req.Equal([]string{"hello"}, current)
}

func TestBus_Registration_Changes_Notify_Terminal(t *testing.T) {
	req := require.New(t)
	bus, _ := newTestBus()
	var terminal []string
	bus.Register(domain.TerminalUIID, capture(&terminal))

	// When a participant comes and goes
	bus.Register("steam.42", capture(&[]string{}))
	bus.Unregister("steam.42")

	// Then the terminal received one online and one offline control message
	req.Equal([]string{"online steam.42", "offline steam.42"}, terminal)
}

func TestBus_Terminal_Registration_Does_Not_Notify_Itself(t *testing.T) {
	req := require.New(t)
	bus, _ := newTestBus()
	var terminal []string

	bus.Register(domain.TerminalUIID, capture(&terminal))

	req.Empty(terminal)
}

func TestBus_Unregister_Absent_Participant_Is_Noop(t *testing.T) {
	req := require.New(t)
	bus, presence := newTestBus()
	sink := &recordingSink{}
	bus.AddSinks(sink)

	bus.Unregister("local.ghost")

	req.Empty(sink.all())
	req.Empty(presence.Snapshot())
}

func TestBus_Publishes_Lifecycle_Events(t *testing.T) {
	req := require.New(t)
	bus, _ := newTestBus()
	var terminal, received []string
	bus.Register(domain.TerminalUIID, capture(&terminal))
	sink := &recordingSink{}
	bus.AddSinks(sink)

	// Given a registered participant and one failed send
	bus.Register("local.alphamod", capture(&received))
	req.NoError(bus.Send(context.Background(), "local.console", "local.alphamod", domain.ContentTypeCLI, "hi"))
	req.Error(bus.Send(context.Background(), "local.console", "local.ghost", domain.ContentTypeCLI, "hi"))

	// Then the sink counted the registration, both deliveries (the terminal
	// control message and "hi"), and the failure
	var registered, delivered, failed int
	for _, e := range sink.all() {
		switch e.(type) {
		case event.ParticipantRegistered:
			registered++
		case event.MessageDelivered:
			delivered++
		case event.DeliveryFailed:
			failed++
		}
	}
	req.Equal(1, registered)
	req.Equal(2, delivered)
	req.Equal(1, failed)
}

func TestBus_Registration_Updates_Presence(t *testing.T) {
	req := require.New(t)
	bus, presence := newTestBus()

	bus.Register("steam.42", capture(&[]string{}))
	bus.Register("local.alphamod", capture(&[]string{}))

	req.Equal([]domain.ParticipantID{"local.alphamod", "steam.42"}, presence.Snapshot())

	bus.Unregister("steam.42")
	req.Equal([]domain.ParticipantID{"local.alphamod"}, presence.Snapshot())
}
