// Package model provides redis-backed per-guild bot settings
package model

import (
	"fmt"

	"github.com/go-redis/redis/v7"
)

// NewRepository provides Repository instance
func NewRepository(client *redis.Client) *Repository {
	return &Repository{
		client: client,
	}
}

// Repository stores per-guild scoped key-value settings
type Repository struct {
	client *redis.Client
}

// ConfigSet sets value for given guild, scope and key
func (repo *Repository) ConfigSet(guildID, scope, key, value string) error {
	fullkey := fmt.Sprintf("%s.%s.%s", guildID, scope, key)

	return repo.client.Set(fullkey, value, 0).Err()
}

// ConfigGet returns value for given guild, scope and key, empty string when unset
func (repo *Repository) ConfigGet(guildID, scope, key string) (s string, err error) {
	fullkey := fmt.Sprintf("%s.%s.%s", guildID, scope, key)
	s, err = repo.client.Get(fullkey).Result()

	if err == redis.Nil {
		err = nil
	}

	return
}
