//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"mod-ark/domain"
	"mod-ark/domain/event"
)

// Handler receives every envelope addressed to its participant. Exactly one
// handler is active per participant id at any time.
type Handler func(ctx context.Context, from domain.ParticipantID, contentType, body string) error

type IBus interface {
	Register(id domain.ParticipantID, handler Handler)
	Unregister(id domain.ParticipantID)
	Send(ctx context.Context, from, to domain.ParticipantID, contentType, body string) error
}

// PresenceObserver receives a fresh sorted copy of the full presence set on
// every mutation. Consumers rebuild derived state from it; they never patch.
type PresenceObserver func(online []domain.ParticipantID)

type IPresence interface {
	Online(id domain.ParticipantID)
	Offline(id domain.ParticipantID)
	Snapshot() []domain.ParticipantID
	SubscribeChanges(fn PresenceObserver)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

type EventSink interface {
	Consume(ctx context.Context, e event.BusEvent) error
}

// WorkshopCall is one in-flight asynchronous workshop operation. The platform
// offers no completion notification, so callers poll Done.
type WorkshopCall interface {
	Done() bool
	Err() error
}

// IWorkshop is the content-distribution service. Every call has at-least-once,
// possibly-failing semantics and requires the bounded retry discipline.
type IWorkshop interface {
	Ready() bool
	ListSubscribed() ([]uint64, error)
	Subscribe(id uint64) (WorkshopCall, error)
	Unsubscribe(id uint64) (WorkshopCall, error)
}

type IStateRepository interface {
	KnownMods() ([]domain.ModInfo, error)
	CurrentStates() ([]domain.ModState, error)
	SetOrder(name string, index int) error
	SetFlag(name string, enabled bool) error
	GetFlag(name string) (bool, error)
	Apply(states []domain.ModState) error
}
