package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore implements the Store interface using Redis. Expiry is left to
// the key TTL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore initializes a new RedisStore instance.
func NewRedisStore(cfg *Config) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(rdb), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) SaveState(ctx context.Context, sessionID, state string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return fmt.Errorf("invalid expiration time for state")
	}
	return r.client.Set(ctx, string(stateKey(sessionID)), state, ttl).Err()
}

func (r *RedisStore) GetState(ctx context.Context, sessionID string) (string, error) {
	val, err := r.client.Get(ctx, string(stateKey(sessionID))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrStateNotFound
		}
		return "", err
	}
	return val, nil
}

// TakeState uses GETDEL, available since Redis 6.2.
func (r *RedisStore) TakeState(ctx context.Context, sessionID string) (string, error) {
	val, err := r.client.GetDel(ctx, string(stateKey(sessionID))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrStateNotFound
		}
		return "", err
	}
	return val, nil
}

func (r *RedisStore) DeleteState(ctx context.Context, sessionID string) error {
	return r.client.Del(ctx, string(stateKey(sessionID))).Err()
}

func (r *RedisStore) Close(ctx context.Context) error {
	return r.client.Close()
}
