package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/GoPolymarket/polydesk/internal/config"
	"github.com/GoPolymarket/polydesk/internal/model"
	"github.com/redis/go-redis/v9"
)

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return rdb, nil
}

// RedisCredentialStore stores one JSON document per user. SET replaces the
// whole document, which gives last-write-wins across writers.
type RedisCredentialStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisCredentialStore(client redis.Cmdable, prefix string) *RedisCredentialStore {
	if prefix == "" {
		prefix = "polydesk:creds"
	}
	return &RedisCredentialStore{client: client, prefix: prefix}
}

func (s *RedisCredentialStore) key(userID string) string {
	return s.prefix + ":" + userID
}

func (s *RedisCredentialStore) Get(ctx context.Context, userID string) (*model.Credentials, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, notFound(userID)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get credentials: %w", err)
	}
	var creds model.Credentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials for %s: %w", userID, err)
	}
	return &creds, nil
}

func (s *RedisCredentialStore) Upsert(ctx context.Context, creds *model.Credentials) error {
	rec := *creds
	rec.UpdatedAt = time.Now().UTC()
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(creds.UserID), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set credentials: %w", err)
	}
	return nil
}
