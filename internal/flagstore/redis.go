// Package flagstore хранит небольшие JSON-флаги (например, demo-статус элитного
// доступа). К нему обращаются только как к запасному источнику, когда удаленный
// статус недоступен.
package flagstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/gamefolio/internal/config"
)

// Store описывает хранилище флагов.
type Store interface {
	// Get читает флаг в result. Возвращает false, если ключа нет.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет флаг с временем жизни, при 0 флаг бессрочный.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete удаляет флаг.
	Delete(ctx context.Context, key string) error
}

// Redis хранилище флагов в redis.
type Redis struct {
	db     *redis.Client
	prefix string
}

// NewRedis подключается к redis и проверяет соединение.
func NewRedis(ctx context.Context, cfg config.RedisConnection) (*Redis, error) {
	const op = "flagstore.NewRedis"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Redis{db: db, prefix: "gamefolio:flag:"}, nil
}

func (r *Redis) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "flagstore.Redis.Get"
	val, err := r.db.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	const op = "flagstore.Redis.Set"
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := r.db.Set(ctx, r.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.db.Del(ctx, r.prefix+key).Err()
}

// Close закрывает соединение с redis.
func (r *Redis) Close() error {
	return r.db.Close()
}
