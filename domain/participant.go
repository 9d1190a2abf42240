// Package domain contains core concepts of the mod terminal system.
// This file defines participant identity and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"fmt"
	"strings"
)

// OriginKind is the namespace prefix of a ParticipantID.
type OriginKind string

const (
	OriginSteam OriginKind = "steam"
	OriginLocal OriginKind = "local"
)

// TerminalUIID is the designated terminal-UI participant. It receives the
// synthesized online/offline control messages and is excluded from presence.
const TerminalUIID = ParticipantID("TerminalUIMod")

// ParticipantID identifies one plugin instance on the bus, namespaced as
// "<origin-kind>.<local-id>" ("steam.<numeric-id>" or "local.<folder-name>").
// It is immutable once assigned and is the sole registry key.
type ParticipantID string

func NewParticipantID(kind OriginKind, localID string) ParticipantID {
	return ParticipantID(fmt.Sprintf("%s.%s", kind, localID))
}

func (p ParticipantID) String() string { return string(p) }

func (p ParticipantID) IsEmpty() bool { return strings.TrimSpace(string(p)) == "" }

// Origin returns the namespace prefix, or "" when the id carries none.
func (p ParticipantID) Origin() OriginKind {
	kind, _, found := strings.Cut(string(p), ".")
	if !found {
		return ""
	}
	return OriginKind(kind)
}

// LocalID returns the part after the namespace prefix. Ids without a prefix
// are returned whole so they can still be normalized for display.
func (p ParticipantID) LocalID() string {
	_, local, found := strings.Cut(string(p), ".")
	if !found {
		return string(p)
	}
	return local
}
