package store

import (
	"context"
	"encoding/json"
	"fmt"

	"cryptopath-gateway/internal/config"
	"cryptopath-gateway/internal/models"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a redis client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisSessionStore persists the wallet session record in redis under a
// well-known key
type RedisSessionStore struct {
	client *redis.Client
	key    string
}

// NewRedisSessionStore creates a session store using the given key
func NewRedisSessionStore(client *redis.Client, key string) *RedisSessionStore {
	return &RedisSessionStore{client: client, key: key}
}

// Load implements SessionStore
func (s *RedisSessionStore) Load(ctx context.Context) (*models.SessionRecord, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("load session record: %w", err)
	}

	var record models.SessionRecord
	if err := json.Unmarshal(val, &record); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}

	return &record, nil
}

// Save implements SessionStore
func (s *RedisSessionStore) Save(ctx context.Context, record *models.SessionRecord) error {
	val, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}

	if err := s.client.Set(ctx, s.key, val, 0).Err(); err != nil {
		return fmt.Errorf("save session record: %w", err)
	}
	return nil
}

// Clear implements SessionStore
func (s *RedisSessionStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}

// RedisSettingsCache stores the settings bundle as JSON keyed by user ID
type RedisSettingsCache struct {
	client *redis.Client
}

// NewRedisSettingsCache creates a settings cache over the given client
func NewRedisSettingsCache(client *redis.Client) *RedisSettingsCache {
	return &RedisSettingsCache{client: client}
}

func settingsKey(userID string) string {
	return fmt.Sprintf("settings:%s", userID)
}

// Load implements SettingsCache
func (c *RedisSettingsCache) Load(ctx context.Context, userID string) (*models.UserSettings, error) {
	val, err := c.client.Get(ctx, settingsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("load settings for %s: %w", userID, err)
	}

	var settings models.UserSettings
	if err := json.Unmarshal(val, &settings); err != nil {
		return nil, fmt.Errorf("decode settings for %s: %w", userID, err)
	}

	return &settings, nil
}

// Save implements SettingsCache
func (c *RedisSettingsCache) Save(ctx context.Context, userID string, settings *models.UserSettings) error {
	val, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings for %s: %w", userID, err)
	}

	if err := c.client.Set(ctx, settingsKey(userID), val, 0).Err(); err != nil {
		return fmt.Errorf("save settings for %s: %w", userID, err)
	}
	return nil
}

// Delete implements SettingsCache
func (c *RedisSettingsCache) Delete(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, settingsKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete settings for %s: %w", userID, err)
	}
	return nil
}
