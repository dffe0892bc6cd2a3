package cache

import (
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"
	fiberredis "github.com/gofiber/storage/redis"
	"github.com/redis/go-redis/v9"
)

// FiberStorageDB keeps fiber middleware state apart from the limiter and
// lock keys in DB 0.
const FiberStorageDB = 2

// NewFiberStorage returns a fiber.Storage on the same redis server as client,
// or nil when client is nil so middleware falls back to its memory store.
func NewFiberStorage(client *redis.Client) fiber.Storage {
	if client == nil {
		return nil
	}
	host := "localhost"
	port := 6379
	addr := client.Options().Addr
	if h, p, err := net.SplitHostPort(addr); err == nil {
		host = h
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	return fiberredis.New(fiberredis.Config{
		Host:     host,
		Port:     port,
		Password: client.Options().Password,
		Database: FiberStorageDB,
		Reset:    false,
	})
}
