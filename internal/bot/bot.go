package bot

import (
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bwmarrin/discordgo"
)

// Bot is a main implementation of bot
type Bot struct {
	Configuration
	m           *sync.RWMutex
	servers     map[string]*server
	roleModules []RoleModule
}

// Serve starts bot serving loop and blocks until exit
func (bot *Bot) Serve() error {
	err := bot.Discord.Open()
	if err != nil {
		return err
	}

	bot.Log.Info("Running")

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	for _, m := range bot.Modules {
		m.Shutdown(&bot.Configuration)
	}

	return bot.Discord.Close()
}

func (bot *Bot) guild(guildID string) *server {
	bot.m.Lock()
	defer bot.m.Unlock()

	s, ok := bot.servers[guildID]
	if !ok {
		s = &server{}
		bot.servers[guildID] = s
	}

	return s
}

func (bot *Bot) configure(s *server, guild *discordgo.Guild) {
	prefix, err := bot.Repository.ConfigGet(guild.ID, "global", "prefix")
	if err != nil {
		bot.Log.WithError(err).Error("Getting server prefix", guild.ID)
		return
	}

	if prefix == "" {
		for _, srv := range bot.Config.Servers {
			if srv.GuildID == guild.ID {
				prefix = srv.Prefix
			}
		}
	}

	if prefix == "" {
		prefix = bot.Config.Private.Prefix
	}

	if prefix == "" {
		prefix = "!"
	}

	s.prefix = prefix

	err = bot.Repository.ConfigSet(guild.ID, "global", "prefix", prefix)
	if err != nil {
		bot.Log.WithError(err).Error("Saving server prefix", guild.ID)
	}
}
