package search

import (
	"strings"
)

// Module identifies the remote module (or local entity family) a result
// item belongs to.
type Module string

// Known module tags.
const (
	ModuleUsers       Module = "users"
	ModuleChats       Module = "chats"
	ModuleChannels    Module = "channels"
	ModuleMessages    Module = "messages"
	ModuleFiles       Module = "files"
	ModuleDepartment  Module = "department"
	ModuleBots        Module = "bots"
	ModuleThreads     Module = "threads"
	ModuleWidgets     Module = "widgets"
	ModuleApps        Module = "apps"
	ModuleConnections Module = "connections"
	ModuleSettings    Module = "settings"
)

// CategoryAll matches every module when used as the active category.
const CategoryAll = "all"

// AllModules lists every known module tag.
var AllModules = []Module{
	ModuleUsers, ModuleChats, ModuleChannels, ModuleMessages,
	ModuleFiles, ModuleDepartment, ModuleBots, ModuleThreads,
	ModuleWidgets, ModuleApps, ModuleConnections, ModuleSettings,
}

// Origin marks where a result item was produced.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
)

// Item is the capability interface every result variant implements.
// CanonicalID is the stable identifier used for exclusion filtering;
// DedupKey is the key used to collapse duplicates across sources;
// DisplayFields are the text fields the scorer matches against.
type Item interface {
	Module() Module
	Origin() Origin
	CanonicalID() string
	DisplayFields() []string
	DedupKey() string
}

// UserItem is a person result. Duplicate people arriving from
// different modules collapse on a normalized-name dedup key.
type UserItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Source Origin `json:"origin"`
}

func (u UserItem) Module() Module          { return ModuleUsers }
func (u UserItem) Origin() Origin          { return u.Source }
func (u UserItem) CanonicalID() string     { return u.ID }
func (u UserItem) DisplayFields() []string { return []string{u.Name, u.Email} }
func (u UserItem) DedupKey() string        { return string(ModuleUsers) + ":" + normalizeName(u.Name) }

// ChatItem is a chat-like result: channels, one-to-one chats, threads
// and bots all share this shape, distinguished by the module tag.
type ChatItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	// TypeCode is the conversation type code from the source system.
	TypeCode int `json:"type_code,omitempty"`
	// OtherPartyID is set for one-to-one conversations where the
	// counterpart could be resolved; it then serves as the canonical id.
	OtherPartyID string `json:"other_party_id,omitempty"`
	Tag          Module `json:"module"`
	Source       Origin `json:"origin"`
}

func (c ChatItem) Module() Module          { return c.Tag }
func (c ChatItem) Origin() Origin          { return c.Source }
func (c ChatItem) DisplayFields() []string { return []string{c.Title} }

// CanonicalID returns the resolved other-party id for one-to-one
// conversations, falling back to the chat's own id.
func (c ChatItem) CanonicalID() string {
	if c.OtherPartyID != "" {
		return c.OtherPartyID
	}
	return c.ID
}

func (c ChatItem) DedupKey() string {
	// One-to-one chats name a person; collapse them with user results.
	if c.TypeCode == chatTypeOneToOne {
		return string(ModuleUsers) + ":" + normalizeName(stripMarker(c.Title))
	}
	return string(c.Tag) + ":" + c.CanonicalID()
}

// MessageItem is a message result, keyed by message id.
type MessageItem struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Sender string `json:"sender,omitempty"`
	Source Origin `json:"origin"`
}

func (m MessageItem) Module() Module          { return ModuleMessages }
func (m MessageItem) Origin() Origin          { return m.Source }
func (m MessageItem) CanonicalID() string     { return m.ID }
func (m MessageItem) DisplayFields() []string { return []string{m.Text, m.Sender} }
func (m MessageItem) DedupKey() string        { return string(ModuleMessages) + ":" + m.ID }

// FileItem is a file result, keyed by generic id.
type FileItem struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Source Origin `json:"origin"`
}

func (f FileItem) Module() Module          { return ModuleFiles }
func (f FileItem) Origin() Origin          { return f.Source }
func (f FileItem) CanonicalID() string     { return f.ID }
func (f FileItem) DisplayFields() []string { return []string{f.Name} }
func (f FileItem) DedupKey() string        { return string(ModuleFiles) + ":" + f.ID }

// GenericItem covers the remaining modules (department, widgets, apps,
// connections, settings and anything new) with a title/description pair.
type GenericItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Tag         Module `json:"module"`
	Source      Origin `json:"origin"`
}

func (g GenericItem) Module() Module          { return g.Tag }
func (g GenericItem) Origin() Origin          { return g.Source }
func (g GenericItem) CanonicalID() string     { return g.ID }
func (g GenericItem) DisplayFields() []string { return []string{g.Title, g.Description} }
func (g GenericItem) DedupKey() string        { return string(g.Tag) + ":" + g.ID }

// ScoredItem carries an item together with its final score and the
// classification of the match that produced it.
type ScoredItem struct {
	Item       Item      `json:"item"`
	Score      float64   `json:"score"`
	Match      MatchType `json:"match,omitempty"`
	MatchScore float64   `json:"match_score,omitempty"`
}

// normalizeName lowercases and collapses whitespace so the same human
// arriving from different modules produces the same dedup key.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// stripMarker removes a leading @ or # channel/user marker.
func stripMarker(title string) string {
	return strings.TrimLeft(title, "@#")
}

// chatLikeModule reports whether a module deduplicates against the
// chat exclusion set rather than the person exclusion set.
func chatLikeModule(m Module) bool {
	switch m {
	case ModuleChats, ModuleChannels, ModuleBots, ModuleThreads:
		return true
	}
	return false
}
