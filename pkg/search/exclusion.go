package search

import (
	"strings"
)

// ExclusionSets holds the canonical identifiers already represented in
// the local dataset: chat-like ids and person ids (including the
// resolved counterparts of one-to-one conversations). Remote records
// carrying one of these ids are duplicates and are dropped before
// ranking.
type ExclusionSets struct {
	Chats  map[string]bool
	People map[string]bool
}

// Excludes reports whether an item's canonical id is already
// represented locally, using the set corresponding to its module.
func (e *ExclusionSets) Excludes(item Item) bool {
	if e == nil {
		return false
	}
	if chatLikeModule(item.Module()) {
		return e.Chats[item.CanonicalID()]
	}
	if item.Module() == ModuleUsers {
		return e.People[item.CanonicalID()]
	}
	return false
}

// BuildExclusionSets derives the exclusion sets from a dataset
// snapshot. selfID is the logged-in user's identifier and may be
// empty.
func BuildExclusionSets(chats []Chat, people []Person, selfID string) *ExclusionSets {
	sets := &ExclusionSets{
		Chats:  make(map[string]bool, len(chats)),
		People: make(map[string]bool, len(people)),
	}

	for _, chat := range chats {
		sets.Chats[chat.ID] = true
		if chat.TypeCode != chatTypeOneToOne {
			continue
		}
		if otherParty, ok := ResolveOtherParty(chat, selfID); ok {
			sets.People[otherParty] = true
		}
	}

	for _, person := range people {
		sets.People[person.ID] = true
	}

	return sets
}

// otherPartyStrategy attempts to pick the counterpart of a one-to-one
// conversation. Strategies run in order; the first success wins.
type otherPartyStrategy func(chat Chat, participants []Participant, selfID string) (string, bool)

// otherPartyStrategies is the ordered resolution chain:
//  1. the participant whose id differs from the logged-in user's,
//  2. the participant whose display name matches the conversation
//     title (for when the logged-in id is unavailable),
//  3. the sole recorded participant.
var otherPartyStrategies = []otherPartyStrategy{
	resolveBySelfExclusion,
	resolveByTitleMatch,
	resolveBySoleParticipant,
}

// ResolveOtherParty resolves the counterpart of a one-to-one
// conversation. Returns false when the participant data is malformed
// or no strategy succeeds; the caller then falls back to the
// conversation's own identifier.
func ResolveOtherParty(chat Chat, selfID string) (string, bool) {
	participants, err := chat.decodeParticipants()
	if err != nil || len(participants) == 0 {
		return "", false
	}

	for _, strategy := range otherPartyStrategies {
		if id, ok := strategy(chat, participants, selfID); ok {
			return id, true
		}
	}
	return "", false
}

func resolveBySelfExclusion(_ Chat, participants []Participant, selfID string) (string, bool) {
	if selfID == "" {
		return "", false
	}
	for _, p := range participants {
		if p.ID != "" && p.ID != selfID {
			return p.ID, true
		}
	}
	return "", false
}

func resolveByTitleMatch(chat Chat, participants []Participant, _ string) (string, bool) {
	title := strings.TrimSpace(stripMarker(chat.Title))
	if title == "" {
		return "", false
	}
	for _, p := range participants {
		if p.ID != "" && strings.EqualFold(strings.TrimSpace(p.Name), title) {
			return p.ID, true
		}
	}
	return "", false
}

func resolveBySoleParticipant(_ Chat, participants []Participant, _ string) (string, bool) {
	if len(participants) == 1 && participants[0].ID != "" {
		return participants[0].ID, true
	}
	return "", false
}
