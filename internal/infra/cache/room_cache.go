package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	domain "github.com/BruksfildServices01/coaching-sessions/internal/domain/session"
)

const keyPrefix = "session-room:"

// RedisRoomCache stores provisioned rooms in redis as JSON.
type RedisRoomCache struct {
	client *redis.Client
}

// Open parses a redis:// URL and returns a cache backed by it.
func Open(url string) (*RedisRoomCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return NewRedisRoomCache(redis.NewClient(opts)), nil
}

func NewRedisRoomCache(client *redis.Client) *RedisRoomCache {
	return &RedisRoomCache{client: client}
}

func roomKey(sessionID uint) string {
	return fmt.Sprintf("%s%d", keyPrefix, sessionID)
}

// GetRoom returns nil without error on a miss.
func (c *RedisRoomCache) GetRoom(ctx context.Context, sessionID uint) (*domain.Room, error) {
	raw, err := c.client.Get(ctx, roomKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached room: %w", err)
	}

	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("decode cached room: %w", err)
	}
	if room.URL == "" {
		return nil, nil
	}
	return &room, nil
}

func (c *RedisRoomCache) PutRoom(ctx context.Context, sessionID uint, room domain.Room, ttl time.Duration) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, roomKey(sessionID), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache room: %w", err)
	}
	return nil
}

func (c *RedisRoomCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisRoomCache) Close() error {
	return c.client.Close()
}

var _ domain.RoomCache = (*RedisRoomCache)(nil)
