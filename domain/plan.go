package domain

import (
	"sort"

	"github.com/samber/lo"
)

// RestorePlan is the computed difference between a snapshot's desired state
// and live state, prior to any mutation. Plans are transient and recomputed
// on every restore attempt.
type RestorePlan struct {
	ToSubscribe    []SubscribedMod
	ToUnsubscribe  []uint64
	CombinedStates []ModState
}

func (p RestorePlan) IsNoop() bool {
	return len(p.ToSubscribe) == 0 && len(p.ToUnsubscribe) == 0
}

// ComputePlan is a pure function of the current subscribed set, the snapshot's
// desired set, and the locally-known mods. External ids of 0 mark local-only
// entries and never produce subscription actions. For every locally-known mod
// the combined state takes the snapshot-declared order/enablement when
// present, zero values otherwise.
func ComputePlan(subscribed []uint64, snapshot BackupSnapshot, known []ModInfo) RestorePlan {
	current := lo.SliceToMap(subscribed, func(id uint64) (uint64, struct{}) {
		return id, struct{}{}
	})
	desired := lo.SliceToMap(snapshot.SubscribedMods, func(m SubscribedMod) (uint64, struct{}) {
		return m.ExternalID, struct{}{}
	})
	delete(desired, 0)

	toSubscribe := lo.Filter(snapshot.SubscribedMods, func(m SubscribedMod, _ int) bool {
		_, have := current[m.ExternalID]
		return m.ExternalID != 0 && !have
	})

	toUnsubscribe := lo.Filter(subscribed, func(id uint64, _ int) bool {
		_, want := desired[id]
		return !want
	})
	sort.Slice(toUnsubscribe, func(i, j int) bool { return toUnsubscribe[i] < toUnsubscribe[j] })

	// First occurrence wins when a name is duplicated inside the snapshot.
	orderByName := make(map[string]int, len(snapshot.ModOrder))
	for _, entry := range snapshot.ModOrder {
		if _, ok := orderByName[entry.Name]; !ok {
			orderByName[entry.Name] = entry.OrderIndex
		}
	}
	enabledByName := make(map[string]bool, len(snapshot.ModEnabledStates))
	for _, entry := range snapshot.ModEnabledStates {
		if _, ok := enabledByName[entry.Name]; !ok {
			enabledByName[entry.Name] = entry.Enabled
		}
	}

	combined := lo.FilterMap(known, func(info ModInfo, _ int) (ModState, bool) {
		if info.Name == "" {
			return ModState{}, false
		}
		return ModState{
			Name:       info.Name,
			ExternalID: info.ExternalID,
			OrderIndex: orderByName[info.Name],
			Enabled:    enabledByName[info.Name],
		}, true
	})

	return RestorePlan{
		ToSubscribe:    toSubscribe,
		ToUnsubscribe:  toUnsubscribe,
		CombinedStates: combined,
	}
}
