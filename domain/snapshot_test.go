package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func validSnapshot() BackupSnapshot {
	return BackupSnapshot{
		Version:          SnapshotVersion,
		BackupName:       "weekly",
		Collection:       DefaultCollectionInfo(),
		SubscribedMods:   []SubscribedMod{{ExternalID: 111, Name: "alpha", DisplayName: "Alpha"}},
		ModOrder:         []ModOrderEntry{{Name: "alpha", OrderIndex: 0}},
		ModEnabledStates: []ModEnabledEntry{{Name: "alpha", Enabled: true}},
	}
}

func TestSnapshot_Validate_Accepts_Complete_Snapshot(t *testing.T) {
	req := require.New(t)
	req.NoError(validSnapshot().Validate())
}

func TestSnapshot_Validate_Accepts_Empty_But_Present_Lists(t *testing.T) {
	req := require.New(t)

	s := validSnapshot()
	s.SubscribedMods = []SubscribedMod{}
	s.ModOrder = []ModOrderEntry{}
	s.ModEnabledStates = []ModEnabledEntry{}

	req.NoError(s.Validate())
}

func TestSnapshot_Validate_Rejects_Missing_Fields(t *testing.T) {
	req := require.New(t)

	missingName := validSnapshot()
	missingName.BackupName = ""
	req.Error(missingName.Validate())

	missingMods := validSnapshot()
	missingMods.SubscribedMods = nil
	req.Error(missingMods.Validate())

	missingOrder := validSnapshot()
	missingOrder.ModOrder = nil
	req.Error(missingOrder.Validate())

	missingFlags := validSnapshot()
	missingFlags.ModEnabledStates = nil
	req.Error(missingFlags.Validate())
}

func TestSnapshot_Collection_Block_Round_Trips(t *testing.T) {
	req := require.New(t)

	// Given a snapshot with the default collection block
	original := validSnapshot()

	// When serialized and read back
	bytes, err := json.Marshal(original)
	req.NoError(err)
	var decoded BackupSnapshot
	req.NoError(json.Unmarshal(bytes, &decoded))

	// Then the collection info survives untouched
	req.Equal("Mod Ark Backup Collection", decoded.Collection.Name)
	req.Equal("private", decoded.Collection.Visibility)
	req.NoError(decoded.Validate())
}
