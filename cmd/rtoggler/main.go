package main

import (
	"os"

	"github.com/bwmarrin/discordgo"
	redis "github.com/go-redis/redis/v7"
	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/kayueda/rtoggler/internal/bot"
	yamlConfig "github.com/kayueda/rtoggler/internal/config"
	"github.com/kayueda/rtoggler/internal/modules/audit"
	"github.com/kayueda/rtoggler/internal/modules/auth"
	"github.com/kayueda/rtoggler/internal/modules/help"
	"github.com/kayueda/rtoggler/internal/modules/reply"
	"github.com/kayueda/rtoggler/internal/modules/toggler"
)

type options struct {
	Config string `short:"c" long:"config" default:"rtoggler.yml" description:"Configuration file"`
}

func readConfig(log *logrus.Logger, configPath string) *yamlConfig.Root {
	configFile, err := os.OpenFile(configPath, os.O_CREATE|os.O_RDONLY, 0644)
	if err != nil {
		log.Fatal(err)
	}

	c, err := yamlConfig.Read(configFile)
	if err != nil {
		log.Fatal(err)
	}

	err = configFile.Close()
	if err != nil {
		log.Fatal(err)
	}

	return c
}

func main() {
	log := logrus.New()

	var opts options

	_, err := flags.Parse(&opts)
	if err != nil {
		if flags.WroteHelp(err) {
			return
		}

		log.Fatal(err)
	}

	configRoot := readConfig(log, opts.Config)

	if configRoot.Private.Token == "" {
		log.Fatal("Missing token in config")
	}

	if configRoot.Private.Data == "" {
		configRoot.Private.Data = "data"
	}

	dg, err := discordgo.New("Bot " + configRoot.Private.Token)
	if err != nil {
		log.Fatal(err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	client := redis.NewClient(&redis.Options{
		Addr:     configRoot.Private.Redis.Address,
		Password: configRoot.Private.Redis.Password,
		DB:       configRoot.Private.Redis.DB,
	})

	b, err := bot.NewBot(bot.Options{
		Discord: dg,
		Client:  client,
		Config:  configRoot,
		Log:     log,
		Modules: []bot.Module{
			reply.New(),
			auth.New(),
			help.New(),
			toggler.New(),
			audit.New(),
		},
	})
	if err != nil {
		log.Fatal(err)
	}

	err = b.Serve()
	if err != nil {
		log.Fatal(err)
	}
}
