// Package toggler provides opt-in role toggling via a reaction on a single
// tracked message per guild
package toggler

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/kayueda/rtoggler/internal/bot"
	"github.com/kayueda/rtoggler/internal/modules/auth"
	"github.com/kayueda/rtoggler/internal/store"
)

var (
	// ErrInvalidArgumentNumber is returned on invalid argument number
	ErrInvalidArgumentNumber = errors.New("invalid argument number, use rtoggler.help")
)

// New provides module instance
func New() bot.Module {
	return &module{}
}

type module struct {
	config   *bot.Configuration
	settings *settings
	m        sync.RWMutex
	tracked  map[string]string
}

func (mod *module) Initialize(config *bot.Configuration) error {
	mod.config = config
	mod.tracked = make(map[string]string)
	mod.settings = &settings{
		store: store.New(filepath.Join(config.Config.Private.Data, "rtoggler", "settings.json")),
	}

	err := mod.settings.load()
	if err != nil {
		return err
	}

	config.Discord.AddHandler(mod.handlerReactionAdd)

	group := config.Router.Group("rtoggler").SetDescription("reaction role toggling")

	group.Set(auth.RouteConfigKey, &auth.RouteConfig{
		Permissions: discordgo.PermissionAdministrator,
	})

	group.On("rtoggler", "reaction role toggling", mod.commandBare)
	group.On("rtoggler.role", "sets the toggled role", mod.commandRole)
	group.On("rtoggler.emoji", "sets the toggle emoji", mod.commandEmoji)
	group.On("rtoggler.message", "sets the tracked message", mod.commandMessage)
	group.On("rtoggler.reload", "reloads settings from disk", mod.commandReload)
	group.On("rtoggler.help", "provides documentation", mod.commandHelp)

	return nil
}

// Configure attaches the tracked message for a guild: posts a fresh one when
// no message id is stored yet, fetches the stored one otherwise. A failing
// guild only loses its own tracking.
func (mod *module) Configure(config *bot.Configuration, guild *discordgo.Guild) {
	entry, ok := mod.settings.lookup(guild.ID)
	if !ok {
		return
	}

	channelID, ok := entry.ChannelID()
	if !ok {
		return
	}

	messageID, stored := entry.MessageID()

	mod.m.RLock()
	existing := mod.tracked[guild.ID]
	mod.m.RUnlock()

	if !stored && existing != "" {
		// fresh message was already posted earlier in this process
		return
	}

	var msg *discordgo.Message

	var err error

	if stored {
		msg, err = config.Discord.ChannelMessage(channelID, messageID)
	} else {
		msg, err = config.Discord.ChannelMessageSend(channelID, mod.settings.message())
	}

	if err != nil {
		config.Log.WithError(err).Error("Attaching tracked message", guild.ID)

		return
	}

	if emoji, ok := entry.Emoji(); ok {
		err = config.Discord.MessageReactionAdd(channelID, msg.ID, emoji)
		if err != nil {
			config.Log.WithError(err).Error("Adding tracked reaction", guild.ID, msg.ID)
		}
	}

	mod.m.Lock()
	mod.tracked[guild.ID] = msg.ID
	mod.m.Unlock()
}

// Shutdown clears reactions on every tracked message so a stopped bot leaves
// no stale toggle state behind
func (mod *module) Shutdown(config *bot.Configuration) {
	mod.m.RLock()
	defer mod.m.RUnlock()

	for guildID, messageID := range mod.tracked {
		entry, ok := mod.settings.lookup(guildID)
		if !ok {
			continue
		}

		channelID, ok := entry.ChannelID()
		if !ok {
			continue
		}

		err := config.Discord.MessageReactionsRemoveAll(channelID, messageID)
		if err != nil {
			config.Log.WithError(err).Error("Clearing tracked reactions", guildID, messageID)
		}
	}
}

func (mod *module) trackedMessage(guildID string) string {
	mod.m.RLock()
	defer mod.m.RUnlock()

	return mod.tracked[guildID]
}

func findRole(session *discordgo.Session, guildID, roleID string) *discordgo.Role {
	guild, err := session.State.Guild(guildID)
	if err != nil {
		guild, err = session.Guild(guildID)
		if err != nil {
			return nil
		}
	}

	for _, r := range guild.Roles {
		if r.ID == roleID {
			return r
		}
	}

	return nil
}
