package config

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

func GetRedisDB() *redis.Client {
	return rdb
}

// GetRedisLock returns the shared lock client, or nil when Redis is not
// configured. Callers must treat a nil locker as "run unlocked".
func GetRedisLock() *redislock.Client {
	return locker
}

// ConnectRedis connects the optional Redis client. Redis is used only to
// serialize category creation during statement imports, so a missing
// REDIS_ADDRESS is not an error: the app degrades to unlocked get-or-create.
func ConnectRedis() {
	redisAddr := os.Getenv("REDIS_ADDRESS")
	if redisAddr == "" {
		log.Printf("REDIS_ADDRESS not set; running without redis locks")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		PoolSize: 20,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("failed to connect redis (addr=%s): %v; running without redis locks", redisAddr, err)
		return
	}

	rdb = client
	locker = redislock.New(client)
	log.Printf("connected to redis (addr=%s)", redisAddr)
}
