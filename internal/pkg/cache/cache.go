package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
)

// Options configures the redis connection. An empty Host disables the
// distributed store.
type Options struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// SetupCache connects to redis and returns the client, or nil when no host
// is configured or the server does not answer.
func SetupCache(opts Options) *redis.Client {
	if opts.Host == "" {
		log.Infof("[Cache] CACHE_HOST not set, running without a distributed store")
		return nil
	}
	if opts.Port == "" {
		opts.Port = "6379"
	}

	c := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", opts.Host, opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	})

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pong, err := c.Ping(pingCtx).Result()
	if err != nil {
		log.Warnf("[Cache] Could not connect to redis at %s: %v", c.Options().Addr, err)
		_ = c.Close()
		return nil
	}
	log.Infof("[Cache] Successfully connected to redis: %s", pong)
	return c
}
