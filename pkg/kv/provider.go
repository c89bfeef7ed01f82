package kv

import (
	redis "github.com/redis/go-redis/v9"

	"github.com/bazimogmbh/easypurchase/internal/config"
	"github.com/bazimogmbh/easypurchase/pkg/db"
)

// Open selects a KV backend from the store configuration. A redis store
// type connects a Redis client, every other type goes through the SQL
// settings table.
func Open(cfg config.StoreConfig) (KV, error) {
	if cfg.Type == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return NewRedis(client)
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	return NewSQL(conn)
}
