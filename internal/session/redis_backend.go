package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/stage-portal/internal/models"
	"github.com/noah-isme/stage-portal/pkg/config"
)

// RedisBackend persists the session in Redis, for shared or kiosk
// deployments where the local disk is not trustworthy.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisClient returns a configured Redis client, pinging it once.
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// NewRedisBackend wraps a client with the configured session key.
func NewRedisBackend(client *redis.Client, key string) *RedisBackend {
	if key == "" {
		key = "portal:session"
	}
	return &RedisBackend{client: client, key: key}
}

// Load fetches and decodes the persisted session; redis.Nil means none.
func (b *RedisBackend) Load(ctx context.Context) (*models.Session, error) {
	raw, err := b.client.Get(ctx, b.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", b.key, err)
	}
	var sess models.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, nil
	}
	return &sess, nil
}

// Save encodes and stores the session without expiry; the server decides
// when the token inside it dies.
func (b *RedisBackend) Save(ctx context.Context, s *models.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := b.client.Set(ctx, b.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", b.key, err)
	}
	return nil
}

// Clear removes the persisted session.
func (b *RedisBackend) Clear(ctx context.Context) error {
	if err := b.client.Del(ctx, b.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", b.key, err)
	}
	return nil
}
