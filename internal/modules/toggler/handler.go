package toggler

import (
	"github.com/bwmarrin/discordgo"
)

// emojiMatches reports whether a reaction emoji qualifies for toggling.
// Custom (uploaded) emoji carry an id and are categorically unsupported.
func emojiMatches(emoji *discordgo.Emoji, configured string) bool {
	return emoji.ID == "" && emoji.Name == configured
}

func hasRole(member *discordgo.Member, roleID string) bool {
	for _, r := range member.Roles {
		if r == roleID {
			return true
		}
	}

	return false
}

func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}

	if member.User != nil {
		return member.User.Username
	}

	return ""
}

func (mod *module) handlerReactionAdd(session *discordgo.Session, reactionAdd *discordgo.MessageReactionAdd) {
	if session.State.User != nil && reactionAdd.UserID == session.State.User.ID {
		return
	}

	channel, err := session.State.Channel(reactionAdd.ChannelID)
	if err != nil {
		channel, err = session.Channel(reactionAdd.ChannelID)
		if err != nil {
			mod.config.Log.WithError(err).Error("Getting channel", reactionAdd.ChannelID)

			return
		}
	}

	if channel.Type != discordgo.ChannelTypeGuildText || channel.GuildID == "" {
		return
	}

	guildID := channel.GuildID

	if mod.trackedMessage(guildID) != reactionAdd.MessageID {
		return
	}

	// the toggle mechanism: the user's reaction is always stripped, keeping
	// only the bot's own reaction pinned on the tracked message
	err = session.MessageReactionRemove(
		reactionAdd.ChannelID,
		reactionAdd.MessageID,
		reactionAdd.Emoji.APIName(),
		reactionAdd.UserID,
	)
	if err != nil {
		mod.config.Log.WithError(err).Error("Removing user reaction", guildID, reactionAdd.UserID)
	}

	entry, ok := mod.settings.lookup(guildID)
	if !ok {
		return
	}

	roleID, ok := entry.RoleID()
	if !ok {
		return
	}

	role := findRole(session, guildID, roleID)
	if role == nil {
		return
	}

	configured, ok := entry.Emoji()
	if !ok || !emojiMatches(&reactionAdd.Emoji, configured) {
		return
	}

	member, err := session.GuildMember(guildID, reactionAdd.UserID)
	if err != nil {
		mod.config.Log.WithError(err).Error("Getting member", guildID, reactionAdd.UserID)

		return
	}

	name := displayName(member)

	if hasRole(member, role.ID) {
		err = session.GuildMemberRoleRemove(guildID, reactionAdd.UserID, role.ID)
		if err != nil {
			mod.config.Log.WithError(err).Error("Removing role", role.ID, reactionAdd.UserID)

			return
		}

		mod.config.RolesChanged(guildID, reactionAdd.UserID, nil, []string{role.ID})
		mod.sendDM(session, reactionAdd.UserID, formatTemplate(mod.settings.removeDM(), name, role.Name))
	} else {
		err = session.GuildMemberRoleAdd(guildID, reactionAdd.UserID, role.ID)
		if err != nil {
			mod.config.Log.WithError(err).Error("Adding role", role.ID, reactionAdd.UserID)

			return
		}

		mod.config.RolesChanged(guildID, reactionAdd.UserID, []string{role.ID}, nil)
		mod.sendDM(session, reactionAdd.UserID, formatTemplate(mod.settings.addDM(), name, role.Name))
	}
}

func (mod *module) sendDM(session *discordgo.Session, userID, text string) {
	channel, err := session.UserChannelCreate(userID)
	if err != nil {
		mod.config.Log.WithError(err).Error("Opening DM channel", userID)

		return
	}

	_, err = session.ChannelMessageSend(channel.ID, text)
	if err != nil {
		mod.config.Log.WithError(err).Error("Sending DM", userID)
	}
}
