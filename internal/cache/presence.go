// Package cache keeps a short-lived presence view in Redis so list
// enrichment does not hammer the users table. The cache is optional: a nil
// client degrades every call to a no-op or a miss.
package cache

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const presenceTTL = 60 * time.Second

// Presence is the Redis-backed online/last-seen view.
type Presence struct {
	client *redis.Client
}

// NewPresence connects to Redis. When addr is empty or the server is
// unreachable the service continues without a cache.
func NewPresence(addr string) *Presence {
	if addr == "" {
		log.Println("redis disabled, presence cache off")
		return &Presence{}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unreachable, presence cache off: %v", err)
		return &Presence{}
	}

	log.Println("redis connected")
	return &Presence{client: client}
}

// SetOnline writes through the user's presence with a TTL so crashed clients
// expire into offline.
func (p *Presence) SetOnline(ctx context.Context, userID string, online bool) {
	if p.client == nil {
		return
	}
	value := "0"
	if online {
		value = "1"
	}
	if err := p.client.Set(ctx, presenceKey(userID), value, presenceTTL).Err(); err != nil {
		log.Printf("presence cache set failed user=%s: %v", userID, err)
	}
}

// IsOnline returns the cached flag; ok is false on a miss or when the cache
// is off, in which case the caller falls back to the store.
func (p *Presence) IsOnline(ctx context.Context, userID string) (online, ok bool) {
	if p.client == nil {
		return false, false
	}
	value, err := p.client.Get(ctx, presenceKey(userID)).Result()
	if err != nil {
		return false, false
	}
	return value == "1", true
}

// Close releases the connection when the cache is on.
func (p *Presence) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

func presenceKey(userID string) string {
	return "presence:" + userID
}
