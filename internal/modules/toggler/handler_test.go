package toggler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kayueda/rtoggler/internal/bot"
	"github.com/kayueda/rtoggler/internal/config"
	"github.com/kayueda/rtoggler/internal/store"
)

func TestEmojiMatches(t *testing.T) {
	assert.True(t, emojiMatches(&discordgo.Emoji{Name: "\U0001f514"}, "\U0001f514"))
	assert.False(t, emojiMatches(&discordgo.Emoji{Name: "\U0001f515"}, "\U0001f514"))

	// custom emoji never qualify, not even on a name match
	assert.False(t, emojiMatches(&discordgo.Emoji{ID: "1234", Name: "\U0001f514"}, "\U0001f514"))
}

func TestHasRole(t *testing.T) {
	member := &discordgo.Member{Roles: []string{"1", "2"}}

	assert.True(t, hasRole(member, "2"))
	assert.False(t, hasRole(member, "3"))
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Ann", displayName(&discordgo.Member{
		Nick: "Ann",
		User: &discordgo.User{Username: "ann42"},
	}))
	assert.Equal(t, "ann42", displayName(&discordgo.Member{
		User: &discordgo.User{Username: "ann42"},
	}))
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

func testConfiguration(t *testing.T, session *discordgo.Session) *bot.Configuration {
	t.Helper()

	b, err := bot.NewBot(bot.Options{
		Discord: session,
		Config:  &config.Root{Private: config.Private{Data: t.TempDir()}},
		Log:     quietLogger(),
	})
	require.NoError(t, err)

	return &b.Configuration
}

func testModule(t *testing.T, session *discordgo.Session) *module {
	t.Helper()

	mod := &module{
		config: testConfiguration(t, session),
		settings: &settings{
			store: store.New(filepath.Join(t.TempDir(), "settings.json")),
		},
		tracked: make(map[string]string),
	}

	require.NoError(t, mod.settings.load())

	return mod
}

func seedState(t *testing.T, session *discordgo.Session) {
	t.Helper()

	session.State.User = &discordgo.User{ID: "bot"}

	require.NoError(t, session.State.GuildAdd(&discordgo.Guild{
		ID:    "guild",
		Roles: []*discordgo.Role{{ID: "100", Name: "Streamer"}},
	}))
	require.NoError(t, session.State.ChannelAdd(&discordgo.Channel{
		ID:      "channel",
		GuildID: "guild",
		Type:    discordgo.ChannelTypeGuildText,
	}))
	require.NoError(t, session.State.ChannelAdd(&discordgo.Channel{
		ID:   "dmchan",
		Type: discordgo.ChannelTypeDM,
	}))
}

func stateSession(t *testing.T) *discordgo.Session {
	t.Helper()

	session := &discordgo.Session{State: discordgo.NewState()}
	seedState(t, session)

	return session
}

// restRecorder captures every request the session makes against the stub
// discord endpoint, plus the content of posted messages per channel
type restRecorder struct {
	m        sync.Mutex
	requests []string
	messages map[string][]string
}

func newRecorder() *restRecorder {
	return &restRecorder{messages: make(map[string][]string)}
}

func (rec *restRecorder) all() []string {
	rec.m.Lock()
	defer rec.m.Unlock()

	return append([]string(nil), rec.requests...)
}

func (rec *restRecorder) sent(channelID string) []string {
	rec.m.Lock()
	defer rec.m.Unlock()

	return append([]string(nil), rec.messages[channelID]...)
}

func (rec *restRecorder) cleared(channelID, messageID, userID string) bool {
	prefix := "DELETE /channels/" + channelID + "/messages/" + messageID + "/reactions/"

	for _, r := range rec.all() {
		if strings.HasPrefix(r, prefix) && strings.HasSuffix(r, "/"+userID) {
			return true
		}
	}

	return false
}

// restSession builds a session whose REST calls land on a local stub server
// answering as a guild with one member ("user", nick "Ann") holding the given
// roles
func restSession(t *testing.T, rec *restRecorder, memberRoles []string) *discordgo.Session {
	t.Helper()

	if memberRoles == nil {
		memberRoles = []string{}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.m.Lock()
		rec.requests = append(rec.requests, r.Method+" "+r.URL.Path)
		rec.m.Unlock()

		switch {
		case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/members/"):
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"nick":  "Ann",
				"roles": memberRoles,
				"user":  map[string]interface{}{"id": "user", "username": "ann42"},
			})
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/users/@me/channels"):
			_, _ = w.Write([]byte(`{"id": "dmchan", "type": 1}`))
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/messages"):
			var body struct {
				Content string `json:"content"`
			}

			_ = json.NewDecoder(r.Body).Decode(&body)

			parts := strings.Split(r.URL.Path, "/")

			rec.m.Lock()
			rec.messages[parts[2]] = append(rec.messages[parts[2]], body.Content)
			rec.m.Unlock()

			_, _ = w.Write([]byte(`{"id": "m1"}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	t.Cleanup(srv.Close)

	oldGuilds := discordgo.EndpointGuilds
	oldChannels := discordgo.EndpointChannels
	oldUsers := discordgo.EndpointUsers

	discordgo.EndpointGuilds = srv.URL + "/guilds/"
	discordgo.EndpointChannels = srv.URL + "/channels/"
	discordgo.EndpointUsers = srv.URL + "/users/"

	t.Cleanup(func() {
		discordgo.EndpointGuilds = oldGuilds
		discordgo.EndpointChannels = oldChannels
		discordgo.EndpointUsers = oldUsers
	})

	session, err := discordgo.New()
	require.NoError(t, err)

	seedState(t, session)

	return session
}

func reaction(userID, channelID, messageID string) *discordgo.MessageReactionAdd {
	return &discordgo.MessageReactionAdd{
		MessageReaction: &discordgo.MessageReaction{
			UserID:    userID,
			ChannelID: channelID,
			MessageID: messageID,
			Emoji:     discordgo.Emoji{Name: "\U0001f514"},
		},
	}
}

func configureGuild(t *testing.T, mod *module) {
	t.Helper()

	entry, err := mod.settings.guild("guild")
	require.NoError(t, err)

	require.NoError(t, entry.SetRoleID("100"))
	require.NoError(t, entry.SetEmoji("\U0001f514"))
	require.NoError(t, mod.settings.store.Write("add_dm", "{0} gained {1}"))
	require.NoError(t, mod.settings.store.Write("remove_dm", "{0} lost {1}"))

	mod.tracked["guild"] = "tracked"
}

func TestHandlerIgnoresOwnReaction(t *testing.T) {
	session := stateSession(t)
	mod := testModule(t, session)

	mod.tracked["guild"] = "tracked"

	// no gateway connection behind the session: reaching any REST call would
	// panic, a clean return proves the event was dropped
	assert.NotPanics(t, func() {
		mod.handlerReactionAdd(session, reaction("bot", "channel", "tracked"))
	})
}

func TestHandlerIgnoresUntrackedMessage(t *testing.T) {
	session := stateSession(t)
	mod := testModule(t, session)

	mod.tracked["guild"] = "tracked"

	assert.NotPanics(t, func() {
		mod.handlerReactionAdd(session, reaction("user", "channel", "other"))
	})
}

func TestHandlerIgnoresNonGuildChannel(t *testing.T) {
	session := stateSession(t)
	mod := testModule(t, session)

	assert.NotPanics(t, func() {
		mod.handlerReactionAdd(session, reaction("user", "dmchan", "tracked"))
	})
}

func TestHandlerGrantsRole(t *testing.T) {
	rec := newRecorder()
	session := restSession(t, rec, nil)

	mod := testModule(t, session)
	configureGuild(t, mod)

	mod.handlerReactionAdd(session, reaction("user", "channel", "tracked"))

	assert.Contains(t, rec.all(), "PUT /guilds/guild/members/user/roles/100")
	assert.NotContains(t, rec.all(), "DELETE /guilds/guild/members/user/roles/100")
	assert.True(t, rec.cleared("channel", "tracked", "user"))
	assert.Equal(t, []string{"Ann gained Streamer"}, rec.sent("dmchan"))
}

func TestHandlerRevokesRole(t *testing.T) {
	rec := newRecorder()
	session := restSession(t, rec, []string{"100"})

	mod := testModule(t, session)
	configureGuild(t, mod)

	mod.handlerReactionAdd(session, reaction("user", "channel", "tracked"))

	assert.Contains(t, rec.all(), "DELETE /guilds/guild/members/user/roles/100")
	assert.NotContains(t, rec.all(), "PUT /guilds/guild/members/user/roles/100")
	assert.True(t, rec.cleared("channel", "tracked", "user"))
	assert.Equal(t, []string{"Ann lost Streamer"}, rec.sent("dmchan"))
}

func TestHandlerIgnoresWrongEmoji(t *testing.T) {
	rec := newRecorder()
	session := restSession(t, rec, nil)

	mod := testModule(t, session)
	configureGuild(t, mod)

	event := reaction("user", "channel", "tracked")
	event.Emoji = discordgo.Emoji{Name: "\U0001f515"}

	mod.handlerReactionAdd(session, event)

	// the stray reaction is still stripped, but no role change happens
	assert.True(t, rec.cleared("channel", "tracked", "user"))
	assert.NotContains(t, rec.all(), "PUT /guilds/guild/members/user/roles/100")
	assert.NotContains(t, rec.all(), "DELETE /guilds/guild/members/user/roles/100")
	assert.Empty(t, rec.sent("dmchan"))
}
