package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/webitel/form-exporter/internal/model"
)

const statusTTL = 24 * time.Hour

type RedisCache struct {
	client  *redis.Client
	lockTTL time.Duration
}

func NewRedisCache(addr, password string, db int, lockTTL time.Duration) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Ping Redis to check the connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cannot connect to Redis at %s: %w", addr, err)
	}

	return &RedisCache{client: rdb, lockTTL: lockTTL}, nil
}

func (r *RedisCache) Acquire(path string) (bool, error) {
	return r.client.SetNX(context.Background(), runKey(path), time.Now().UTC().Format(time.RFC3339), r.lockTTL).Result()
}

func (r *RedisCache) Release(path string) error {
	return r.client.Del(context.Background(), runKey(path)).Err()
}

func (r *RedisCache) SetExportStatus(path string, status model.ExportStatus) error {
	return r.client.Set(context.Background(), statusKey(path), string(status), statusTTL).Err()
}

// GetExportStatus returns an empty status when no run was recorded for path.
func (r *RedisCache) GetExportStatus(path string) (model.ExportStatus, error) {
	val, err := r.client.Get(context.Background(), statusKey(path)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.ExportStatus(val), nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

// helpers to standardize keys
func runKey(path string) string {
	return fmt.Sprintf("%s:run:%s", model.AppServiceName, path)
}

func statusKey(path string) string {
	return fmt.Sprintf("%s:status:%s", model.AppServiceName, path)
}
