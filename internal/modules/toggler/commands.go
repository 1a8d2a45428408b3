package toggler

import (
	"github.com/bwmarrin/discordgo"

	"github.com/kayueda/rtoggler/internal/router"
)

func (mod *module) commandBare(ctx *router.Context) error {
	_, err := ctx.Reply("You're not the only one, but you're doing things wrong... See rtoggler.help")

	return err
}

func (mod *module) commandRole(ctx *router.Context) error {
	roleID := ctx.Args.Get(1)
	if roleID == "" {
		return ErrInvalidArgumentNumber
	}

	role := findRole(ctx.Session, ctx.Message.GuildID, roleID)
	if role == nil {
		_, err := ctx.Reply("Invalid role ID.")

		return err
	}

	entry, err := mod.settings.guild(ctx.Message.GuildID)
	if err != nil {
		return err
	}

	err = entry.SetRoleID(role.ID)
	if err != nil {
		return err
	}

	err = mod.settings.save()
	if err != nil {
		return err
	}

	_, err = ctx.Reply("Successfully registered the role.")

	return err
}

func (mod *module) commandEmoji(ctx *router.Context) error {
	emoji := ctx.Args.Get(1)
	if emoji == "" {
		return ErrInvalidArgumentNumber
	}

	guildID := ctx.Message.GuildID

	entry, err := mod.settings.guild(guildID)
	if err != nil {
		return err
	}

	err = entry.SetEmoji(emoji)
	if err != nil {
		return err
	}

	err = mod.settings.save()
	if err != nil {
		return err
	}

	if messageID := mod.trackedMessage(guildID); messageID != "" {
		if channelID, ok := entry.ChannelID(); ok {
			err = ctx.Session.MessageReactionsRemoveAll(channelID, messageID)
			if err != nil {
				return err
			}

			err = ctx.Session.MessageReactionAdd(channelID, messageID, emoji)
			if err != nil {
				return err
			}
		}
	}

	_, err = ctx.Reply("Successfully set the emoji for this server.")

	return err
}

func (mod *module) commandMessage(ctx *router.Context) error {
	messageID := ctx.Args.Get(1)
	if messageID == "" {
		return ErrInvalidArgumentNumber
	}

	channelArg := ctx.Args.Get(2)
	guildID := ctx.Message.GuildID

	entry, err := mod.settings.guild(guildID)
	if err != nil {
		return err
	}

	channelID, haveChannel := entry.ChannelID()

	if !haveChannel && channelArg == "" {
		_, err = ctx.Reply("Channel is not set, please specify one.")

		return err
	}

	// untrack the previous message before moving on
	if prev := mod.trackedMessage(guildID); prev != "" && haveChannel {
		err = ctx.Session.MessageReactionsRemoveAll(channelID, prev)
		if err != nil {
			mod.config.Log.WithError(err).Error("Clearing previous tracked message", guildID, prev)
		}
	}

	if channelArg != "" {
		channel, cerr := ctx.Session.Channel(channelArg)
		if cerr != nil || channel.Type != discordgo.ChannelTypeGuildText || channel.GuildID != guildID {
			_, err = ctx.Reply("Invalid channel ID.")

			return err
		}

		channelID = channel.ID
	}

	msg, merr := ctx.Session.ChannelMessage(channelID, messageID)
	if merr != nil {
		_, err = ctx.Reply("Invalid message ID.")

		return err
	}

	// both fields land together so an aborted command persists nothing
	if channelArg != "" {
		err = entry.SetChannelID(channelID)
		if err != nil {
			return err
		}
	}

	err = entry.SetMessageID(msg.ID)
	if err != nil {
		return err
	}

	err = mod.settings.save()
	if err != nil {
		return err
	}

	mod.m.Lock()
	mod.tracked[guildID] = msg.ID
	mod.m.Unlock()

	err = ctx.Session.MessageReactionsRemoveAll(channelID, msg.ID)
	if err != nil {
		mod.config.Log.WithError(err).Error("Clearing tracked message reactions", guildID, msg.ID)
	}

	if emoji, ok := entry.Emoji(); ok {
		err = ctx.Session.MessageReactionAdd(channelID, msg.ID, emoji)
		if err != nil {
			return err
		}
	}

	_, err = ctx.Reply("Successfully configured the message for this server.")

	return err
}

func (mod *module) commandReload(ctx *router.Context) error {
	err := mod.settings.load()
	if err != nil {
		return err
	}

	_, err = ctx.Reply("Successfully reloaded settings.")

	return err
}

func (mod *module) commandHelp(ctx *router.Context) error {
	return ctx.ReplyEmbed("```yaml\n" + `
usage:
> rtoggler.role <roleID>
> rtoggler.emoji <emoji>
> rtoggler.message <messageID> [channelID]
> rtoggler.reload

Lets users opt in/out of a single role by reacting to a
tracked message. Execute role, emoji and message at least
once each to set things up; order is irrelevant.

channelID is required the first time message is set and
whenever the message moves to another channel. The message
must be in that channel.

Only built-in emoji work; custom server emoji are ignored.
` + "```")
}
