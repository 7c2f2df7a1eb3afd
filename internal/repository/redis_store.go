package repository

import (
	"context"
	"errors"

	"nextstep-polls/pkg/logger"
	"nextstep-polls/pkg/redis"
)

type redisKV struct {
	client *redis.Client
}

func (r redisKV) get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r redisKV) put(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, redis.TTLForever)
}

func (r redisKV) del(ctx context.Context, keys ...string) error {
	return r.client.Delete(ctx, keys...)
}

// NewRedisStore returns a Store keeping both records in Redis under the
// client's namespace prefix
func NewRedisStore(client *redis.Client, log *logger.Logger) Store {
	return newKVStore(redisKV{client: client}, client.KeyBuilder.KeyPolls(), client.KeyBuilder.KeyBallots(), log)
}
