package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/campusfeed/internal/model"
)

// RedisTimelineCacheRepo はRedisを使用したタイムラインキャッシュリポジトリ。
// (user, feed_type)ごとに1キーを持ち、JSONエンコードしたキャッシュ文書を
// TTL付きで保存する。
type RedisTimelineCacheRepo struct {
	client *redis.Client
}

// NewRedisTimelineCacheRepo はRedisTimelineCacheRepoを生成する。
func NewRedisTimelineCacheRepo(client *redis.Client) *RedisTimelineCacheRepo {
	return &RedisTimelineCacheRepo{client: client}
}

// timelineCacheKey はキャッシュキーを構築する。
func timelineCacheKey(userID string, feedType model.FeedType) string {
	return fmt.Sprintf("timeline:%s:%s", userID, feedType)
}

// Get は指定ユーザー・フィード種別のキャッシュを取得する。
// 存在しない場合はnilを返す。期限の判定は呼び出し側で行う。
func (r *RedisTimelineCacheRepo) Get(ctx context.Context, userID string, feedType model.FeedType) (*model.TimelineCache, error) {
	data, err := r.client.Get(ctx, timelineCacheKey(userID, feedType)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("タイムラインキャッシュの取得に失敗しました: %w", err)
	}

	cache := &model.TimelineCache{}
	if err := json.Unmarshal(data, cache); err != nil {
		// 壊れたキャッシュは存在しないものとして扱い、再生成に委ねる。
		return nil, nil
	}

	return cache, nil
}

// Put はキャッシュを上書き保存する。ttl経過後はRedis側で自動破棄される。
func (r *RedisTimelineCacheRepo) Put(ctx context.Context, userID string, feedType model.FeedType, cache *model.TimelineCache, ttl time.Duration) error {
	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("タイムラインキャッシュのエンコードに失敗しました: %w", err)
	}

	if err := r.client.Set(ctx, timelineCacheKey(userID, feedType), data, ttl).Err(); err != nil {
		return fmt.Errorf("タイムラインキャッシュの保存に失敗しました: %w", err)
	}

	return nil
}

// Invalidate は指定ユーザーのキャッシュを破棄する。
// feedTypesが空の場合は全フィード種別を破棄する。
func (r *RedisTimelineCacheRepo) Invalidate(ctx context.Context, userID string, feedTypes ...model.FeedType) error {
	if len(feedTypes) == 0 {
		feedTypes = model.AllFeedTypes
	}

	keys := make([]string, len(feedTypes))
	for i, ft := range feedTypes {
		keys[i] = timelineCacheKey(userID, ft)
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("タイムラインキャッシュの破棄に失敗しました: %w", err)
	}

	return nil
}
