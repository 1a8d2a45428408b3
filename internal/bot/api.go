// Package bot provides main bot implementation
package bot

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	redis "github.com/go-redis/redis/v7"
	"github.com/sirupsen/logrus"

	"github.com/kayueda/rtoggler/internal/config"
	"github.com/kayueda/rtoggler/internal/model"
	"github.com/kayueda/rtoggler/internal/router"
)

// Options provide configuration options for bot
type Options struct {
	Discord *discordgo.Session
	Client  *redis.Client
	Config  *config.Root
	Log     *logrus.Logger
	Modules []Module
}

// Configuration store configuration for bot
type Configuration struct {
	Discord    *discordgo.Session
	Client     *redis.Client
	Config     *config.Root
	Log        *logrus.Logger
	Router     *router.Router
	Repository *model.Repository
	Modules    []Module
	bot        *Bot
}

// Module interface incapsulates methods for distinct functionality
type Module interface {
	Initialize(bot *Configuration) error
	Configure(bot *Configuration, server *discordgo.Guild)
	Shutdown(bot *Configuration)
}

// RoleModule interface marks modules interested in role changes
type RoleModule interface {
	RolesChanged(guildID, userID string, added, removed []string)
}

// RolesChanged notifies interested modules about role changes
func (conf *Configuration) RolesChanged(guildID, userID string, added, removed []string) {
	for _, rm := range conf.bot.roleModules {
		rm.RolesChanged(guildID, userID, added, removed)
	}
}

// HasPermission returns true if message author is guild owner or holds a role
// with matching permissions
func (conf *Configuration) HasPermission(msg *discordgo.Message, permissions int64) bool {
	guild, _ := conf.Discord.Guild(msg.GuildID)
	if guild != nil && guild.OwnerID == msg.Author.ID {
		return true
	}

	member := msg.Member
	if member == nil {
		var err error

		member, err = conf.Discord.GuildMember(msg.GuildID, msg.Author.ID)
		if err != nil {
			conf.Log.WithError(err).Error("Loading member", msg.GuildID, msg.Author.ID)

			return false
		}
	}

	for _, r := range member.Roles {
		role, err := conf.Discord.State.Role(msg.GuildID, r)
		if err != nil {
			conf.Log.WithError(err).Error("Loading role", msg.GuildID, r)
			continue
		}

		if role.Permissions&permissions != 0 {
			return true
		}
	}

	return false
}

// NewBot provides new instance of bot
func NewBot(options Options) (*Bot, error) {
	if options.Log == nil {
		options.Log = logrus.New()
	}

	var roleModules []RoleModule

	for _, m := range options.Modules {
		if rm, ok := m.(RoleModule); ok {
			roleModules = append(roleModules, rm)
		}
	}

	bot := &Bot{
		Configuration: Configuration{
			Discord:    options.Discord,
			Client:     options.Client,
			Config:     options.Config,
			Log:        options.Log,
			Router:     router.NewRouter(),
			Repository: model.NewRepository(options.Client),
			Modules:    options.Modules,
		},
		m:           &sync.RWMutex{},
		servers:     make(map[string]*server),
		roleModules: roleModules,
	}

	bot.Configuration.bot = bot

	for _, m := range bot.Modules {
		err := m.Initialize(&bot.Configuration)
		if err != nil {
			return nil, err
		}
	}

	bot.Discord.AddHandler(bot.handlerGuildCreate)
	bot.Discord.AddHandler(bot.handlerMessageCreate)
	bot.Discord.AddHandler(bot.handlerMessageUpdate)

	return bot, nil
}
