package repository

import (
	"context"
	"errors"

	"nextstep-polls/pkg/database"
	"nextstep-polls/pkg/logger"
	"nextstep-polls/pkg/redis"
)

type postgresKV struct {
	db *database.PostgresDB
}

func (p postgresKV) get(ctx context.Context, key string) (string, bool, error) {
	val, err := p.db.Get(ctx, key)
	if errors.Is(err, database.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (p postgresKV) put(ctx context.Context, key, value string) error {
	return p.db.Put(ctx, key, value)
}

func (p postgresKV) del(ctx context.Context, keys ...string) error {
	return p.db.Delete(ctx, keys...)
}

// NewPostgresStore returns a Store backed by the kv_store table. Keys follow
// the same namespace scheme as the Redis backend.
func NewPostgresStore(db *database.PostgresDB, keys *redis.KeyBuilder, log *logger.Logger) Store {
	return newKVStore(postgresKV{db: db}, keys.KeyPolls(), keys.KeyBallots(), log)
}
