package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/Leopold1975/microblog/internal/microblog/repository/feedcache"
	"github.com/Leopold1975/microblog/internal/pkg/config"
	"github.com/Leopold1975/microblog/internal/pkg/redistools"
	"github.com/redis/go-redis/v9"
)

const generationKey = "feed:generation"

type FeedCache struct {
	rdb     *redis.Client
	expTime time.Duration
}

func New(ctx context.Context, cfg config.RedisCache) (FeedCache, error) {
	rdb, err := redistools.Connect(ctx, cfg)
	if err != nil {
		return FeedCache{}, fmt.Errorf("connect error: %w", err)
	}

	return NewWithClient(rdb, cfg.ExpTime), nil
}

func NewWithClient(rdb *redis.Client, expTime time.Duration) FeedCache {
	return FeedCache{
		rdb:     rdb,
		expTime: expTime,
	}
}

// PageKey binds a query key to the current generation. Pages stored under it
// become unreachable after the next Invalidate.
func (fc FeedCache) PageKey(ctx context.Context, query string) (string, error) {
	gen, err := fc.rdb.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("get generation error: %w", err)
	}

	return fmt.Sprintf("feed:%d:%s", gen, query), nil
}

func (fc FeedCache) GetPage(ctx context.Context, pageKey string) (models.PostsPage, error) {
	pageJSON, err := fc.rdb.Get(ctx, pageKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.PostsPage{}, feedcache.ErrMiss
	} else if err != nil {
		return models.PostsPage{}, fmt.Errorf("get error: %w", err)
	}

	var page models.PostsPage

	if err := json.Unmarshal(pageJSON, &page); err != nil {
		return models.PostsPage{}, fmt.Errorf("unmarshal error: %w", err)
	}

	return page, nil
}

func (fc FeedCache) SetPage(ctx context.Context, pageKey string, page models.PostsPage) error {
	pageJSON, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := fc.rdb.Set(ctx, pageKey, pageJSON, fc.expTime).Err(); err != nil {
		return fmt.Errorf("set error: %w", err)
	}

	return nil
}

// Invalidate drops every cached page. Pages of older generations are left to expire.
func (fc FeedCache) Invalidate(ctx context.Context) error {
	if err := fc.rdb.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("incr error: %w", err)
	}

	return nil
}

func (fc FeedCache) Close() error {
	return fc.rdb.Close() //nolint:wrapcheck
}
