package bot

import (
	"github.com/bwmarrin/discordgo"
)

func (bot *Bot) lookupGuild(guildID string) (*server, bool) {
	bot.m.RLock()
	defer bot.m.RUnlock()

	s, ok := bot.servers[guildID]

	return s, ok
}

func (bot *Bot) handlerMessageCreate(session *discordgo.Session, messageCreate *discordgo.MessageCreate) {
	if s, ok := bot.lookupGuild(messageCreate.GuildID); ok {
		_ = bot.Router.Dispatch(session, s.prefix, session.State.User.ID, messageCreate.Message)
	}
}

func (bot *Bot) handlerMessageUpdate(session *discordgo.Session, messageUpdate *discordgo.MessageUpdate) {
	s, ok := bot.lookupGuild(messageUpdate.GuildID)
	if !ok {
		return
	}

	msg, err := session.ChannelMessage(messageUpdate.ChannelID, messageUpdate.ID)
	if err != nil {
		bot.Log.WithError(err).Error("Getting message", messageUpdate.ID)
		return
	}

	for _, r := range msg.Reactions {
		if r.Me {
			return
		}
	}

	_ = bot.Router.Dispatch(session, s.prefix, session.State.User.ID, messageUpdate.Message)
}

func (bot *Bot) handlerGuildCreate(_ *discordgo.Session, guildCreate *discordgo.GuildCreate) {
	bot.configure(bot.guild(guildCreate.ID), guildCreate.Guild)

	for _, m := range bot.Modules {
		m.Configure(&bot.Configuration, guildCreate.Guild)
	}
}
