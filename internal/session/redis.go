package session

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix — префикс ключей сессии в Redis.
const DefaultRedisPrefix = "paybudz:session:"

type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis создаёт клиент Redis из URL (например, redis://:pass@host:6379/0).
// Если prefix пустой — используется DefaultRedisPrefix.
func NewRedis(ctx context.Context, redisURL, prefix string) (Store, error) {
	const op = "session.NewRedis"

	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rdb := redis.NewClient(opt)

	// Fail-fast на старте.
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return &redisStore{rdb: rdb, prefix: prefix}, nil
}

func (s *redisStore) key(name string) string { return s.prefix + name }

func (s *redisStore) Get(ctx context.Context) (Credentials, error) {
	const op = "session.redis.Get"

	vals, err := s.rdb.MGet(ctx, s.key(KeyAccessToken), s.key(KeyRefreshToken)).Result()
	if err != nil {
		return Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	var c Credentials
	if len(vals) == 2 {
		c.AccessToken, _ = vals[0].(string)
		c.RefreshToken, _ = vals[1].(string)
	}

	return c, nil
}

// Set пишет оба ключа в MULTI/EXEC, чтобы параллельный читатель
// не увидел пару из разных обновлений.
func (s *redisStore) Set(ctx context.Context, c Credentials) error {
	const op = "session.redis.Set"

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, s.key(KeyAccessToken), c.AccessToken, 0)
	pipe.Set(ctx, s.key(KeyRefreshToken), c.RefreshToken, 0)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *redisStore) Clear(ctx context.Context) error {
	const op = "session.redis.Clear"

	if err := s.rdb.Del(ctx, s.key(KeyAccessToken), s.key(KeyRefreshToken)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *redisStore) Close() error { return s.rdb.Close() }
