package automation

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lowaak/auto-workout/internal/autoworkout"
)

// Defaults for the Redis executor
const (
	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisChannel = "zwift-autoworkout"
)

// Redis publishes each action on a channel and mirrors the latest one into a
// hash of the same name.
type Redis struct {
	client  *redis.Client
	channel string
	logger  *log.Logger
	now     func() time.Time
}

// NewRedis creates the executor. The connection is made lazily on the first
// action.
func NewRedis(addr, channel string, logger *log.Logger) *Redis {
	if logger == nil {
		panic("Redis: logger cannot be nil")
	}
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 2 * time.Second,
	})
	return newRedis(client, channel, logger)
}

func newRedis(client *redis.Client, channel string, logger *log.Logger) *Redis {
	return &Redis{client: client, channel: channel, logger: logger, now: time.Now}
}

// Ping checks that the server is reachable
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Execute stores a in the hash and publishes it, in one pipeline
func (r *Redis) Execute(ctx context.Context, a autoworkout.Action) error {
	msg := NewMessage(a, r.now())
	payload, err := encodeMessage(msg)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, r.channel,
		"action", msg.Action,
		"workout", msg.Workout,
		"name", msg.Name,
		"time_s", msg.TimeS,
		"distance_m", msg.DistanceM,
	)
	pipe.Publish(ctx, r.channel, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis publish %s: %w", a.Kind, err)
	}
	return nil
}

// Close closes the client
func (r *Redis) Close() error {
	return r.client.Close()
}
