// Package audit provides database audit trail of role changes
package audit

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // Postgres driver

	"github.com/kayueda/rtoggler/internal/bot"
	yamlConfig "github.com/kayueda/rtoggler/internal/config"
)

// New provides module instance
func New() bot.Module {
	return &module{}
}

type dbcontext struct {
	connect *sqlx.DB
	save    *sqlx.Stmt
}

type module struct {
	config *bot.Configuration
	dbmap  map[string]*dbcontext
	lock   *sync.RWMutex
}

func (mod *module) Initialize(config *bot.Configuration) error {
	mod.config = config
	mod.dbmap = make(map[string]*dbcontext)
	mod.lock = &sync.RWMutex{}

	return nil
}

// Configure opens the guild's audit database. The DSN is resolved from the
// redis repository first (scope "audit", key "db"), falling back to the
// server's yaml configuration.
func (mod *module) Configure(config *bot.Configuration, guild *discordgo.Guild) {
	mod.lock.Lock()
	defer mod.lock.Unlock()

	if _, ok := mod.dbmap[guild.ID]; ok {
		return
	}

	dsn, err := config.Repository.ConfigGet(guild.ID, "audit", "db")
	if err != nil {
		config.Log.WithError(err).Error("Getting audit database", guild.ID)
	}

	if dsn == "" {
		dsn = serverAuditDSN(config.Config, guild.ID)
	}

	if dsn == "" {
		return
	}

	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		config.Log.Errorln("opening database", err)

		return
	}

	saveStmt, err := db.Preparex(`
insert into role_audit(
  guild_id,
  user_id,
  role_id,
  action,
  time
) values (
  $1,
  $2,
  $3,
  $4,
  now()
)
`)
	if err != nil {
		config.Log.Errorln("preparing statement", err)

		_ = db.Close()

		return
	}

	mod.dbmap[guild.ID] = &dbcontext{
		connect: db,
		save:    saveStmt,
	}
}

func serverAuditDSN(root *yamlConfig.Root, guildID string) string {
	for _, s := range root.Servers {
		if s.GuildID == guildID && s.AuditDB != "" {
			return s.AuditDB
		}
	}

	return ""
}

func (mod *module) Shutdown(config *bot.Configuration) {
	mod.lock.Lock()
	defer mod.lock.Unlock()

	for _, d := range mod.dbmap {
		_ = d.connect.Close()
	}
}

// RolesChanged records every granted and revoked role for guilds with an
// audit database configured
func (mod *module) RolesChanged(guildID, userID string, added, removed []string) {
	mod.lock.RLock()
	defer mod.lock.RUnlock()

	db, ok := mod.dbmap[guildID]
	if !ok {
		return
	}

	for _, r := range added {
		_, err := db.save.Exec(guildID, userID, r, "add")
		if err != nil {
			mod.config.Log.Errorln("Saving role grant", err)
		}
	}

	for _, r := range removed {
		_, err := db.save.Exec(guildID, userID, r, "remove")
		if err != nil {
			mod.config.Log.Errorln("Saving role revocation", err)
		}
	}
}
