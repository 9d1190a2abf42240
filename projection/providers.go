// Package projection rebuilds derived read models from observed state.
// It never mutates domain state and never talks to the bus directly.
package projection

import (
	"sort"
	"strings"
	"unicode"

	"mod-ark/domain"
)

// Seed length for short ids, and the length at which conflict resolution
// gives up and uses the full normalized id.
const (
	seedLength      = 3
	maxShortIDGrows = 20
)

// NameLookup resolves a participant to its display name. A nil lookup or an
// empty result falls back to the raw participant id.
type NameLookup func(id domain.ParticipantID) string

// BuildProviders derives the command provider list for a presence set.
// Deterministic for a fixed input set: the same participants always get the
// same pairwise-distinct short ids. The result is sorted by short id.
func BuildProviders(online []domain.ParticipantID, names NameLookup) []domain.CommandProvider {
	providers := make([]domain.CommandProvider, 0, len(online))
	groups := make(map[string][]int)

	for _, id := range online {
		shortID := seededID(id, seedLength)
		providers = append(providers, domain.CommandProvider{
			ParticipantID: id,
			DisplayName:   displayName(id, names),
			ShortID:       shortID,
		})
		groups[shortID] = append(groups[shortID], len(providers)-1)
	}

	for _, group := range groups {
		if len(group) > 1 {
			resolveConflicts(providers, group)
		}
	}

	sort.Slice(providers, func(i, j int) bool { return providers[i].ShortID < providers[j].ShortID })
	return providers
}

// resolveConflicts grows each member of one collision group until its short
// id is unique within that original group.
func resolveConflicts(providers []domain.CommandProvider, group []int) {
	for _, idx := range group {
		id := providers[idx].ParticipantID
		for length := seedLength + 1; ; length++ {
			candidate := seededID(id, length)
			if candidate == providers[idx].ShortID {
				// Already the full normalized id; growing changes nothing.
				break
			}
			if length > maxShortIDGrows {
				providers[idx].ShortID = normalize(id.LocalID())
				break
			}
			if uniqueWithin(providers, group, idx, candidate) {
				providers[idx].ShortID = candidate
				break
			}
		}
	}
}

func uniqueWithin(providers []domain.CommandProvider, group []int, self int, candidate string) bool {
	for _, idx := range group {
		if idx != self && providers[idx].ShortID == candidate {
			return false
		}
	}
	return true
}

// seededID derives the short id at a given length: steam ids keep their tail
// (the discriminating digits), every other origin keeps its head.
func seededID(id domain.ParticipantID, length int) string {
	normalized := normalize(id.LocalID())
	if len(normalized) <= length {
		return normalized
	}
	if id.Origin() == domain.OriginSteam {
		return normalized[len(normalized)-length:]
	}
	return normalized[:length]
}

// normalize keeps lowercase alphanumerics only.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func displayName(id domain.ParticipantID, names NameLookup) string {
	if names != nil {
		if name := names(id); name != "" {
			return name
		}
	}
	return id.String()
}
