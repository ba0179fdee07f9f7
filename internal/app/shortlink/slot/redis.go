package slot

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSlot 用一个普通 string key 保存整份历史，不设 TTL。
type RedisSlot struct {
	client *redis.Client
	key    string
}

func NewRedisSlot(client *redis.Client, key string) *RedisSlot {
	return &RedisSlot{
		client: client,
		key:    "sl:history:" + key,
	}
}

func (s *RedisSlot) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (s *RedisSlot) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return s.client.Set(ctx, s.key, data, 0).Err()
}
