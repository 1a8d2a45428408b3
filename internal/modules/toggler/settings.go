package toggler

import (
	"strings"

	"github.com/kayueda/rtoggler/internal/store"
)

// defaultDocument seeds the settings file on first run
var defaultDocument = map[string]interface{}{
	"message":   "Add a reaction to opt in/out of livestream notifications!",
	"add_dm":    "Hey {0}! You now have the {1} role.",
	"remove_dm": "Hey {0}! The {1} role has been taken from you.",
}

// settings lays typed accessors over the raw document: global texts at the
// top level, one mapping per guild id next to them
type settings struct {
	store *store.Store
}

func (s *settings) load() error {
	return s.store.Load(defaultDocument)
}

func (s *settings) save() error {
	return s.store.Save()
}

func (s *settings) text(key string) string {
	v, err := s.store.Read(key)
	if err != nil {
		return ""
	}

	t, _ := v.(string)

	return t
}

func (s *settings) message() string {
	return s.text("message")
}

func (s *settings) addDM() string {
	return s.text("add_dm")
}

func (s *settings) removeDM() string {
	return s.text("remove_dm")
}

func (s *settings) known(guildID string) bool {
	_, err := s.store.Read(guildID)

	return err == nil
}

// guild returns accessor for given guild, creating its entry when absent
func (s *settings) guild(guildID string) (*guildEntry, error) {
	if !s.known(guildID) {
		err := s.store.Write(guildID, map[string]interface{}{})
		if err != nil {
			return nil, err
		}
	}

	return &guildEntry{guildID: guildID, store: s.store}, nil
}

// lookup returns accessor for given guild only when its entry exists
func (s *settings) lookup(guildID string) (*guildEntry, bool) {
	if !s.known(guildID) {
		return nil, false
	}

	return &guildEntry{guildID: guildID, store: s.store}, true
}

type guildEntry struct {
	guildID string
	store   *store.Store
}

func (entry *guildEntry) field(name string) (string, bool) {
	v, err := entry.store.Read(entry.guildID + "." + name)
	if err != nil {
		return "", false
	}

	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}

// RoleID returns toggled role id, false when not configured yet
func (entry *guildEntry) RoleID() (string, bool) {
	return entry.field("role_id")
}

// Emoji returns toggle emoji, false when not configured yet
func (entry *guildEntry) Emoji() (string, bool) {
	return entry.field("emoji")
}

// ChannelID returns tracked channel id, false when not configured yet
func (entry *guildEntry) ChannelID() (string, bool) {
	return entry.field("channel_id")
}

// MessageID returns tracked message id, false when not configured yet
func (entry *guildEntry) MessageID() (string, bool) {
	return entry.field("message_id")
}

// SetRoleID stores toggled role id
func (entry *guildEntry) SetRoleID(id string) error {
	return entry.store.Write(entry.guildID+".role_id", id)
}

// SetEmoji stores toggle emoji
func (entry *guildEntry) SetEmoji(emoji string) error {
	return entry.store.Write(entry.guildID+".emoji", emoji)
}

// SetChannelID stores tracked channel id
func (entry *guildEntry) SetChannelID(id string) error {
	return entry.store.Write(entry.guildID+".channel_id", id)
}

// SetMessageID stores tracked message id
func (entry *guildEntry) SetMessageID(id string) error {
	return entry.store.Write(entry.guildID+".message_id", id)
}

// formatTemplate substitutes {0} with display name and {1} with role name
func formatTemplate(tpl, displayName, roleName string) string {
	tpl = strings.ReplaceAll(tpl, "{0}", displayName)

	return strings.ReplaceAll(tpl, "{1}", roleName)
}
