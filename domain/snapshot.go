package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// SnapshotVersion is the only version this repository reads and writes.
const SnapshotVersion = "1"

var validate = validator.New()

// CollectionInfo is carried verbatim inside snapshots for forward
// compatibility. Restore never reads it.
type CollectionInfo struct {
	CollectionID string `json:"collectionId"`
	Name         string `json:"name"`
	Visibility   string `json:"visibility"`
}

func DefaultCollectionInfo() CollectionInfo {
	return CollectionInfo{
		CollectionID: "",
		Name:         "Mod Ark Backup Collection",
		Visibility:   "private",
	}
}

type ModOrderEntry struct {
	Name       string `json:"name"`
	OrderIndex int    `json:"orderIndex"`
}

type ModEnabledEntry struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// BackupSnapshot is the persisted point-in-time record of subscriptions,
// load order, and enablement. Names in ModOrder/ModEnabledStates describe
// local load order and need not appear in SubscribedMods.
type BackupSnapshot struct {
	Version          string            `json:"version"`
	BackupName       string            `json:"backupName" validate:"required"`
	CreatedAtUtc     time.Time         `json:"createdAtUtc"`
	Collection       CollectionInfo    `json:"collection"`
	SubscribedMods   []SubscribedMod   `json:"subscribedMods"`
	ModOrder         []ModOrderEntry   `json:"modOrder"`
	ModEnabledStates []ModEnabledEntry `json:"modEnabledStates"`
}

// Validate reports whether the snapshot carries every field restore depends
// on. Empty-but-present lists are valid; absent ones are not, which is why
// the list checks are on nil rather than a required tag.
func (s BackupSnapshot) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("snapshot validation: %w", err)
	}
	if s.SubscribedMods == nil {
		return fmt.Errorf("snapshot validation: subscribedMods is absent")
	}
	if s.ModOrder == nil {
		return fmt.Errorf("snapshot validation: modOrder is absent")
	}
	if s.ModEnabledStates == nil {
		return fmt.Errorf("snapshot validation: modEnabledStates is absent")
	}
	return nil
}
