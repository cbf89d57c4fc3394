package search

import (
	"encoding/json"
	"strings"
	"sync"
)

// Conversation type codes used by the source system.
const (
	chatTypeOneToOne = 1
	chatTypeChannel  = 8
	chatTypeBot      = 9
	chatTypeThread   = 11
)

// moduleForChatType maps a conversation type code to its module tag.
// Unmapped codes yield an empty tag; the entity stays searchable.
func moduleForChatType(typeCode int) Module {
	switch typeCode {
	case chatTypeChannel:
		return ModuleChannels
	case chatTypeOneToOne:
		return ModuleUsers
	case chatTypeThread:
		return ModuleThreads
	case chatTypeBot:
		return ModuleBots
	}
	return ""
}

// Participant is one member of a chat-like entity.
type Participant struct {
	ID   string `json:"zuid"`
	Name string `json:"dname"`
}

// Chat is a locally held chat-like entity. Participants arrive as raw
// structured data from the source and are decoded on demand; malformed
// data degrades to an unresolved participant list.
type Chat struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	TypeCode     int             `json:"type_code"`
	Participants json.RawMessage `json:"participants,omitempty"`
}

// decodeParticipants decodes the raw participant data.
func (c *Chat) decodeParticipants() ([]Participant, error) {
	if len(c.Participants) == 0 {
		return nil, nil
	}
	var participants []Participant
	if err := json.Unmarshal(c.Participants, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}

// Person is a locally held person entity.
type Person struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Dataset is the locally held snapshot the search pipeline operates
// on. Reads take copies; enrichment from global fetches is applied
// atomically through Apply.
type Dataset struct {
	mu     sync.RWMutex
	chats  []Chat
	people []Person
}

// NewDataset creates a dataset from initial entities.
func NewDataset(chats []Chat, people []Person) *Dataset {
	return &Dataset{chats: chats, people: people}
}

// Snapshot returns copies of the current chats and people.
func (d *Dataset) Snapshot() ([]Chat, []Person) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	chats := make([]Chat, len(d.chats))
	copy(chats, d.chats)
	people := make([]Person, len(d.people))
	copy(people, d.people)
	return chats, people
}

// EnrichmentDiff holds entities discovered by a global remote fetch
// that are not yet present locally. The coordinator applies the diff
// atomically after the fetch stage.
type EnrichmentDiff struct {
	Chats  []Chat
	People []Person
}

// Empty reports whether the diff adds nothing.
func (e *EnrichmentDiff) Empty() bool {
	return len(e.Chats) == 0 && len(e.People) == 0
}

// Apply folds an enrichment diff into the dataset, deduplicated by
// canonical identifier. Entities already present are skipped.
func (d *Dataset) Apply(diff EnrichmentDiff) {
	if diff.Empty() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	knownChats := make(map[string]bool, len(d.chats))
	for _, chat := range d.chats {
		knownChats[chat.ID] = true
	}
	for _, chat := range diff.Chats {
		if chat.ID == "" || knownChats[chat.ID] {
			continue
		}
		knownChats[chat.ID] = true
		d.chats = append(d.chats, chat)
	}

	knownPeople := make(map[string]bool, len(d.people))
	for _, person := range d.people {
		knownPeople[person.ID] = true
	}
	for _, person := range diff.People {
		if person.ID == "" || knownPeople[person.ID] {
			continue
		}
		knownPeople[person.ID] = true
		d.people = append(d.people, person)
	}
}

// LocalSearcher runs the synchronous local stage over a dataset
// snapshot, producing the immediately visible partial result set.
type LocalSearcher struct {
	// ChatScanLimit and PersonScanLimit bound how much of the dataset
	// a single invocation inspects.
	ChatScanLimit   int
	PersonScanLimit int
}

// NewLocalSearcher creates a local searcher with the given scan caps.
func NewLocalSearcher(chatLimit, personLimit int) *LocalSearcher {
	return &LocalSearcher{ChatScanLimit: chatLimit, PersonScanLimit: personLimit}
}

// LocalResult is the output of the local stage: chat matches followed
// by person matches, plus counts for the sparse-result heuristic.
type LocalResult struct {
	Items       []ScoredItem
	ChatCount   int
	PersonCount int
}

// Search filters the snapshot by prefix against the query phrase.
// Chat titles are matched with their leading @/# marker stripped;
// people match on name or email, excluding anyone already represented
// as a one-to-one conversation so the same human is not shown twice.
func (l *LocalSearcher) Search(chats []Chat, people []Person, query *ParsedQuery, selfID string) *LocalResult {
	needle := strings.ToLower(strings.TrimSpace(query.Phrase))
	result := &LocalResult{}
	if needle == "" {
		return result
	}

	if l.ChatScanLimit > 0 && len(chats) > l.ChatScanLimit {
		chats = chats[:l.ChatScanLimit]
	}
	if l.PersonScanLimit > 0 && len(people) > l.PersonScanLimit {
		people = people[:l.PersonScanLimit]
	}

	// People already shown as a one-to-one conversation.
	asConversation := make(map[string]bool)

	for _, chat := range chats {
		title := stripMarker(chat.Title)

		otherParty := ""
		if chat.TypeCode == chatTypeOneToOne {
			if id, ok := ResolveOtherParty(chat, selfID); ok {
				otherParty = id
				asConversation[id] = true
			}
		}

		if !strings.HasPrefix(strings.ToLower(title), needle) {
			continue
		}

		result.Items = append(result.Items, ScoredItem{Item: ChatItem{
			ID:           chat.ID,
			Title:        title,
			TypeCode:     chat.TypeCode,
			OtherPartyID: otherParty,
			Tag:          moduleForChatType(chat.TypeCode),
			Source:       OriginLocal,
		}})
		result.ChatCount++
	}

	for _, person := range people {
		if asConversation[person.ID] {
			continue
		}
		name := strings.ToLower(person.Name)
		email := strings.ToLower(person.Email)
		if !strings.HasPrefix(name, needle) && !strings.HasPrefix(email, needle) {
			continue
		}

		result.Items = append(result.Items, ScoredItem{Item: UserItem{
			ID:     person.ID,
			Name:   person.Name,
			Email:  person.Email,
			Source: OriginLocal,
		}})
		result.PersonCount++
	}

	return result
}
