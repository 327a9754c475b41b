package infra

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nobra-gateway/middleware/ratelimit/domain"

	"github.com/redis/go-redis/v9"
)

// RedisStore implementa domain.CounterStore com INCR/EXPIRE/GET.
// A atomicidade do incremento entre processos é garantida pelo próprio Redis.
type RedisStore struct {
	rdb redis.Cmdable
}

var _ domain.CounterStore = (*RedisStore)(nil)

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: incr %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return n, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("%w: expire %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context, key string) (int64, error) {
	n, err := s.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%w: get %s: %w", domain.ErrStoreUnavailable, key, err)
	}
	return n, nil
}

// UnavailableStore é usado quando o Redis não subiu: toda operação falha e a
// política de falha do middleware decide.
type UnavailableStore struct{}

func (UnavailableStore) Incr(context.Context, string) (int64, error) {
	return 0, domain.ErrStoreUnavailable
}

func (UnavailableStore) Expire(context.Context, string, time.Duration) error {
	return domain.ErrStoreUnavailable
}

func (UnavailableStore) Count(context.Context, string) (int64, error) {
	return 0, domain.ErrStoreUnavailable
}
