// Package cache keeps short-lived application state and onboarding locks
// in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultStateTTL is how long cached application state lives
	DefaultStateTTL = time.Hour
	// DefaultLockTTL bounds how long a crashed holder can block others
	DefaultLockTTL = 30 * time.Second
)

// Application states written by the workflows
const (
	StatusActive  = "active"
	StatusFailed  = "failed"
	StatusSyncing = "syncing"
)

// State is the JSON document stored under app:<name>:state
type State struct {
	Status        string    `json:"status"`
	Cluster       string    `json:"cluster,omitempty"`
	LastOperation string    `json:"last_operation,omitempty"`
	LastSync      string    `json:"last_sync,omitempty"`
	Error         string    `json:"error,omitempty"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Cache stores application state and locks
type Cache struct {
	client *redis.Client
	now    func() time.Time
}

// Connect initializes a Redis client from URL or host:port input
func Connect(ctx context.Context, redisURL string) (*Cache, error) {
	var opt *redis.Options
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opt.Addr, err)
	}

	return New(client), nil
}

// New wraps an existing client
func New(client *redis.Client) *Cache {
	return &Cache{client: client, now: time.Now}
}

// Close closes the underlying client
func (c *Cache) Close() error {
	return c.client.Close()
}

// StateKey is the Redis key holding the cached state of an application
func StateKey(name string) string {
	return "app:" + name + ":state"
}

// LockKey is the Redis key of a named lock
func LockKey(scope string) string {
	return "lock:" + scope
}

// CacheState stores state for name with the given ttl. UpdatedAt is set
// to the current time when left empty; a non-positive ttl uses DefaultStateTTL.
func (c *Cache) CacheState(ctx context.Context, name string, state State, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = c.now().UTC()
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	if err := c.client.SetEx(ctx, StateKey(name), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache state for %s: %w", name, err)
	}
	return nil
}

// GetState returns the cached state for name, or nil when nothing is cached
func (c *Cache) GetState(ctx context.Context, name string) (*State, error) {
	data, err := c.client.Get(ctx, StateKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read state for %s: %w", name, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode state for %s: %w", name, err)
	}
	return &state, nil
}

// AcquireLock sets lock:<scope> if nobody holds it. It reports false when
// the lock is already held.
func (c *Cache) AcquireLock(ctx context.Context, scope string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}

	ok, err := c.client.SetNX(ctx, LockKey(scope), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", scope, err)
	}
	return ok, nil
}

// ReleaseLock deletes lock:<scope>
func (c *Cache) ReleaseLock(ctx context.Context, scope string) error {
	if err := c.client.Del(ctx, LockKey(scope)).Err(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", scope, err)
	}
	return nil
}
