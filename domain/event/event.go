package event

import (
	"time"

	"mod-ark/domain"

	"github.com/google/uuid"
)

type BusEvent interface {
	Participant() domain.ParticipantID
}

// ParticipantRegistered is emitted once per successful registration,
// including implicit handler replacements.
type ParticipantRegistered struct {
	ID       uuid.UUID
	Who      domain.ParticipantID
	Replaced bool
	At       time.Time
}

func (e ParticipantRegistered) Participant() domain.ParticipantID { return e.Who }

type ParticipantUnregistered struct {
	ID  uuid.UUID
	Who domain.ParticipantID
	At  time.Time
}

func (e ParticipantUnregistered) Participant() domain.ParticipantID { return e.Who }

// MessageDelivered records one successful handler invocation.
type MessageDelivered struct {
	ID          uuid.UUID
	Who         domain.ParticipantID
	From        domain.ParticipantID
	ContentType string
	At          time.Time
}

func (e MessageDelivered) Participant() domain.ParticipantID { return e.Who }

// DeliveryFailed records a send to a participant with no handler.
type DeliveryFailed struct {
	ID          uuid.UUID
	Who         domain.ParticipantID
	From        domain.ParticipantID
	ContentType string
	At          time.Time
}

func (e DeliveryFailed) Participant() domain.ParticipantID { return e.Who }
