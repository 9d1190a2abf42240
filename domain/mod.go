package domain

import "fmt"

// ModInfo is the locally-known metadata of one mod, as recorded by the
// state repository.
type ModInfo struct {
	Name        string
	ExternalID  uint64
	DisplayName string
}

// ModState is the live, reconciled view of one locally-known mod. It is
// derived on every read and never persisted directly.
type ModState struct {
	Name       string
	ExternalID uint64
	OrderIndex int
	Enabled    bool
}

// SubscribedMod describes one workshop subscription inside a snapshot.
type SubscribedMod struct {
	ExternalID  uint64 `json:"externalId"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// FallbackModLabel names a subscribed external id with no local metadata.
func FallbackModLabel(externalID uint64) string {
	return fmt.Sprintf("WorkshopItem_%d", externalID)
}
