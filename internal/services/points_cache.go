package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PointsCache holds recently computed points. Implementations must treat
// every failure as a cache miss.
type PointsCache interface {
	Get(ctx context.Context, userID uuid.UUID) (UserPoints, bool)
	Set(ctx context.Context, userID uuid.UUID, points UserPoints)
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// NoopPointsCache never stores anything.
type NoopPointsCache struct{}

func (NoopPointsCache) Get(context.Context, uuid.UUID) (UserPoints, bool) { return UserPoints{}, false }
func (NoopPointsCache) Set(context.Context, uuid.UUID, UserPoints)        {}
func (NoopPointsCache) Invalidate(context.Context, uuid.UUID)             {}

// RedisPointsCache stores points as JSON under points:<user id>.
type RedisPointsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPointsCache wraps an existing client.
func NewRedisPointsCache(client *redis.Client, ttl time.Duration) *RedisPointsCache {
	return &RedisPointsCache{client: client, ttl: ttl}
}

// ConnectRedis parses a redis:// URL and pings the server.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis] Connected to %s", opts.Addr)
	return client, nil
}

func pointsKey(userID uuid.UUID) string {
	return "points:" + userID.String()
}

func (c *RedisPointsCache) Get(ctx context.Context, userID uuid.UUID) (UserPoints, bool) {
	raw, err := c.client.Get(ctx, pointsKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Redis] get points for %s: %v", userID, err)
		}
		return UserPoints{}, false
	}

	var points UserPoints
	if err := json.Unmarshal(raw, &points); err != nil {
		log.Printf("[Redis] corrupt points entry for %s: %v", userID, err)
		return UserPoints{}, false
	}
	return points, true
}

func (c *RedisPointsCache) Set(ctx context.Context, userID uuid.UUID, points UserPoints) {
	raw, err := json.Marshal(points)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, pointsKey(userID), raw, c.ttl).Err(); err != nil {
		log.Printf("[Redis] set points for %s: %v", userID, err)
	}
}

func (c *RedisPointsCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := c.client.Del(ctx, pointsKey(userID)).Err(); err != nil {
		log.Printf("[Redis] invalidate points for %s: %v", userID, err)
	}
}
