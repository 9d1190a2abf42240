package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func snapshotFor(mods []SubscribedMod, order []ModOrderEntry, enabled []ModEnabledEntry) BackupSnapshot {
	return BackupSnapshot{
		Version:          SnapshotVersion,
		BackupName:       "weekly",
		SubscribedMods:   mods,
		ModOrder:         order,
		ModEnabledStates: enabled,
	}
}

func TestComputePlan_Unchanged_State_Is_Noop(t *testing.T) {
	req := require.New(t)

	// Given a snapshot taken from the exact live state
	subscribed := []uint64{111, 222}
	snapshot := snapshotFor(
		[]SubscribedMod{{ExternalID: 111, Name: "alpha"}, {ExternalID: 222, Name: "beta"}},
		[]ModOrderEntry{{Name: "alpha", OrderIndex: 0}},
		[]ModEnabledEntry{{Name: "alpha", Enabled: true}},
	)

	// When the plan is computed
	plan := ComputePlan(subscribed, snapshot, nil)

	// Then nothing is to subscribe or unsubscribe
	req.True(plan.IsNoop())
	req.Empty(plan.ToSubscribe)
	req.Empty(plan.ToUnsubscribe)
}

func TestComputePlan_Diffs_Desired_Against_Current(t *testing.T) {
	req := require.New(t)

	// Given one desired mod missing live and one live mod not desired
	subscribed := []uint64{222, 333}
	snapshot := snapshotFor(
		[]SubscribedMod{{ExternalID: 111, Name: "alpha", DisplayName: "Alpha"}, {ExternalID: 222, Name: "beta"}},
		[]ModOrderEntry{},
		[]ModEnabledEntry{},
	)

	plan := ComputePlan(subscribed, snapshot, nil)

	req.Len(plan.ToSubscribe, 1)
	req.Equal(uint64(111), plan.ToSubscribe[0].ExternalID)
	req.Equal([]uint64{333}, plan.ToUnsubscribe)
}

func TestComputePlan_Zero_External_Id_Never_Produces_Actions(t *testing.T) {
	req := require.New(t)

	// Given a local-only snapshot entry with external id 0
	snapshot := snapshotFor(
		[]SubscribedMod{{ExternalID: 0, Name: "localonly"}},
		[]ModOrderEntry{},
		[]ModEnabledEntry{},
	)

	plan := ComputePlan(nil, snapshot, nil)

	req.Empty(plan.ToSubscribe)
	req.Empty(plan.ToUnsubscribe)
}

func TestComputePlan_Combined_States_Cover_All_Known_Mods(t *testing.T) {
	req := require.New(t)

	// Given two known mods, only one declared by the snapshot
	known := []ModInfo{
		{Name: "alpha", ExternalID: 111},
		{Name: "gamma"},
	}
	snapshot := snapshotFor(
		[]SubscribedMod{},
		[]ModOrderEntry{{Name: "alpha", OrderIndex: 4}},
		[]ModEnabledEntry{{Name: "alpha", Enabled: true}},
	)

	plan := ComputePlan(nil, snapshot, known)

	// Then the declared mod takes the snapshot values, the other zero values
	req.Len(plan.CombinedStates, 2)
	byName := map[string]ModState{}
	for _, s := range plan.CombinedStates {
		byName[s.Name] = s
	}
	req.Equal(4, byName["alpha"].OrderIndex)
	req.True(byName["alpha"].Enabled)
	req.Equal(0, byName["gamma"].OrderIndex)
	req.False(byName["gamma"].Enabled)
}

func TestComputePlan_First_Occurrence_Wins_On_Duplicate_Names(t *testing.T) {
	req := require.New(t)

	known := []ModInfo{{Name: "alpha"}}
	snapshot := snapshotFor(
		[]SubscribedMod{},
		[]ModOrderEntry{{Name: "alpha", OrderIndex: 1}, {Name: "alpha", OrderIndex: 9}},
		[]ModEnabledEntry{{Name: "alpha", Enabled: true}, {Name: "alpha", Enabled: false}},
	)

	plan := ComputePlan(nil, snapshot, known)

	req.Equal(1, plan.CombinedStates[0].OrderIndex)
	req.True(plan.CombinedStates[0].Enabled)
}

func TestComputePlan_Is_Pure(t *testing.T) {
	req := require.New(t)

	subscribed := []uint64{333, 111}
	known := []ModInfo{{Name: "alpha", ExternalID: 111}}
	snapshot := snapshotFor(
		[]SubscribedMod{{ExternalID: 111, Name: "alpha"}, {ExternalID: 444, Name: "beta"}},
		[]ModOrderEntry{{Name: "alpha", OrderIndex: 0}},
		[]ModEnabledEntry{{Name: "alpha", Enabled: true}},
	)

	// Two computations over the same inputs yield the same plan
	first := ComputePlan(subscribed, snapshot, known)
	second := ComputePlan(subscribed, snapshot, known)
	req.Equal(first, second)

	// And the inputs are left untouched, unsorted subscription set included
	req.Equal([]uint64{333, 111}, subscribed)
}

func TestComputePlan_Unsubscribe_List_Is_Sorted(t *testing.T) {
	req := require.New(t)

	subscribed := []uint64{555, 111, 333}
	snapshot := snapshotFor([]SubscribedMod{}, []ModOrderEntry{}, []ModEnabledEntry{})

	plan := ComputePlan(subscribed, snapshot, nil)

	req.Equal([]uint64{111, 333, 555}, plan.ToUnsubscribe)
}
