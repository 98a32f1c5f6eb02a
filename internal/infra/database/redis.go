package database

import (
	"github.com/redis/go-redis/v9"
)

// NewRedis connects the pub/sub broker carrying the fact change feed.
func NewRedis(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}
