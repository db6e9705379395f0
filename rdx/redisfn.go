package rdx

import (
	"log"
	"os"
	"time"

	"satchel/globals"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

func init() {
	addr := os.Getenv("REDIS_URL")
	if addr == "" {
		addr = "localhost:6379"
	}

	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"), // Empty if no password
		DB:       0,                           // Default DB
	})
}

func RdxGet(key string) (string, error) {
	return Conn.Get(globals.Ctx, key).Result()
}

// RdxSetTTL stores a value that dies on its own; used for session cache
// entries whose TTL is capped at the session's remaining lifetime.
func RdxSetTTL(key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return Conn.Set(globals.Ctx, key, value, ttl).Err()
}

func RdxDel(key string) error {
	err := Conn.Del(globals.Ctx, key).Err()
	if err != nil && err != redis.Nil {
		log.Printf("Redis delete failed for %s: %v", key, err)
	}
	return err
}

func RdxHset(hash, field, value string) error {
	return Conn.HSet(globals.Ctx, hash, field, value).Err()
}
