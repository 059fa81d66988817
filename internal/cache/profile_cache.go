package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"gopherauth/internal/schema"
)

// ProfileCache stores the public projection of users. It never sees password hashes.
type ProfileCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewProfileCache(client *redisv9.Client, ttl time.Duration) *ProfileCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ProfileCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached profile. Entries that no longer project cleanly are
// deleted and reported as a miss together with the validation error.
func (c *ProfileCache) Get(ctx context.Context, userID uint) (*schema.UserResponse, bool, error) {
	key := c.profileKey(userID)
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get profile failed: %w", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		_ = c.client.Del(ctx, key).Err()
		return nil, false, fmt.Errorf("unmarshal cached profile failed: %w", err)
	}
	profile, err := schema.UserResponseFromMap(fields)
	if err != nil {
		_ = c.client.Del(ctx, key).Err()
		return nil, false, fmt.Errorf("cached profile invalid: %w", err)
	}
	return &profile, true, nil
}

func (c *ProfileCache) Set(ctx context.Context, profile schema.UserResponse) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.profileKey(profile.ID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set profile failed: %w", err)
	}
	return nil
}

func (c *ProfileCache) Delete(ctx context.Context, userID uint) error {
	if err := c.client.Del(ctx, c.profileKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete profile failed: %w", err)
	}
	return nil
}

func (c *ProfileCache) profileKey(userID uint) string {
	return fmt.Sprintf("user:profile:%d", userID)
}
