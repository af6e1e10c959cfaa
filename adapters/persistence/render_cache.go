package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/khoahotran/portgen/internal/application/service"
	"github.com/khoahotran/portgen/pkg/apperror"
)

const (
	renderKeyPrefix  = "portfolio:render:"
	versionKeySuffix = ":version"
	versionTTL       = 24 * time.Hour
)

type redisRenderCache struct {
	rdb *redis.Client
}

func NewRedisRenderCache(rdb *redis.Client) service.RenderCache {
	return &redisRenderCache{rdb: rdb}
}

func renderKey(portfolioID string) string {
	return renderKeyPrefix + portfolioID
}

func versionKey(portfolioID string) string {
	return renderKeyPrefix + portfolioID + versionKeySuffix
}

func (c *redisRenderCache) Get(ctx context.Context, portfolioID string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, renderKey(portfolioID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperror.NewTransient("failed to read render cache", err)
	}
	return b, nil
}

func (c *redisRenderCache) Version(ctx context.Context, portfolioID string) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(portfolioID)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, apperror.NewTransient("failed to read render cache version", err)
	}
	return v, nil
}

// Set watches the version key so an Invalidate between the caller's Version
// read and this write aborts the write.
func (c *redisRenderCache) Set(ctx context.Context, portfolioID string, payload []byte, ttl time.Duration, version int64) (bool, error) {
	vKey := versionKey(portfolioID)
	stored := false
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, renderKey(portfolioID), payload, ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, vKey)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, apperror.NewTransient("failed to write render cache", err)
	}
	return stored, nil
}

func (c *redisRenderCache) Invalidate(ctx context.Context, portfolioID string) error {
	vKey := versionKey(portfolioID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, vKey)
		pipe.Expire(ctx, vKey, versionTTL)
		pipe.Del(ctx, renderKey(portfolioID))
		return nil
	})
	if err != nil {
		return apperror.NewTransient("failed to invalidate render cache", err)
	}
	return nil
}
