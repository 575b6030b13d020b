package timeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/campusfeed/internal/metrics"
	"github.com/hitoshi/campusfeed/internal/model"
	"github.com/hitoshi/campusfeed/internal/repository"
)

// ページネーションの既定値と上限。
const (
	DefaultPageSize = 15
	MaxPageSize     = 50
)

// TimelineGenerator はタイムライン生成のインターフェース。
type TimelineGenerator interface {
	Generate(ctx context.Context, user *model.User, config *model.FeedConfiguration, feedType model.FeedType) ([]model.TimelineEntry, error)
}

// TimelineHydrator は表示用アイテム組み立てのインターフェース。
type TimelineHydrator interface {
	Hydrate(ctx context.Context, userID string, entries []model.TimelineEntry) ([]*model.TimelineItem, error)
}

// ConfigProvider はユーザーのフィード設定を取得するインターフェース。
// feedconfig.Serviceの部分集合として定義する。
type ConfigProvider interface {
	GetOrCreate(ctx context.Context, userID string) (*model.FeedConfiguration, error)
}

// TimelinePage はGetTimelineの戻り値となるページ封筒。
type TimelinePage struct {
	Results     []*model.TimelineItem
	Count       int
	Page        int
	PageSize    int
	HasNext     bool
	HasPrevious bool
}

// Service はタイムライン取得のサービス。
// キャッシュヒット時はキャッシュから、ミス時は生成してキャッシュに
// 保存してからページを切り出す。
type Service struct {
	users     repository.UserRepository
	cache     repository.TimelineCacheRepository
	generator TimelineGenerator
	hydrator  TimelineHydrator
	configs   ConfigProvider
	collector metrics.MetricsCollector
	logger    *slog.Logger

	cacheTTL time.Duration
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	users repository.UserRepository,
	cache repository.TimelineCacheRepository,
	generator TimelineGenerator,
	hydrator TimelineHydrator,
	configs ConfigProvider,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	cacheTTL time.Duration,
) *Service {
	return &Service{
		users:     users,
		cache:     cache,
		generator: generator,
		hydrator:  hydrator,
		configs:   configs,
		collector: collector,
		logger:    logger,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

// GetTimeline は指定フィード種別のタイムラインページを返す。
// キャッシュが有効ならそれを使い、なければ生成して保存する。
// 結果が空でもエラーにはしない。
func (s *Service) GetTimeline(ctx context.Context, userID string, feedType model.FeedType, page, pageSize int) (*TimelinePage, error) {
	if !model.RequestableFeedTypes[feedType] {
		return nil, model.NewInvalidFeedTypeError(string(feedType))
	}
	if page < 1 {
		return nil, model.NewInvalidPageError(page)
	}
	if pageSize == 0 {
		pageSize = DefaultPageSize
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, model.NewInvalidPageSizeError(pageSize)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	cached, err := s.loadOrGenerate(ctx, user, feedType)
	if err != nil {
		return nil, err
	}

	entries := cached.Page(page, pageSize)
	items, err := s.hydrator.Hydrate(ctx, userID, entries)
	if err != nil {
		return nil, err
	}

	return &TimelinePage{
		Results:     items,
		Count:       cached.TotalCount,
		Page:        page,
		PageSize:    pageSize,
		HasNext:     page*pageSize < cached.TotalCount,
		HasPrevious: page > 1,
	}, nil
}

// loadOrGenerate はキャッシュを読み、期限切れ・欠落時は生成して保存する。
// キャッシュの読み書きエラーは生成へのフォールバックで吸収し、
// 致命的エラーにはしない。
func (s *Service) loadOrGenerate(ctx context.Context, user *model.User, feedType model.FeedType) (*model.TimelineCache, error) {
	now := s.now()

	cached, err := s.cache.Get(ctx, user.ID, feedType)
	if err != nil {
		s.logger.Warn("timeline cache read failed",
			slog.String("user_id", user.ID),
			slog.String("feed_type", string(feedType)),
			slog.String("error", err.Error()),
		)
		cached = nil
	}
	if cached != nil && !cached.IsExpired(now) {
		s.collector.RecordCacheHit(string(feedType))
		return cached, nil
	}
	s.collector.RecordCacheMiss(string(feedType))

	config, err := s.configs.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	start := s.now()
	entries, err := s.generator.Generate(ctx, user, config, feedType)
	if err != nil {
		return nil, err
	}
	s.collector.RecordGenerationLatency(s.now().Sub(start))
	s.collector.RecordTimelineGenerated(string(feedType))

	fresh := &model.TimelineCache{
		Entries:     entries,
		TotalCount:  len(entries),
		LastRefresh: now,
		ExpiresAt:   now.Add(s.cacheTTL),
	}

	if err := s.cache.Put(ctx, user.ID, feedType, fresh, s.cacheTTL); err != nil {
		// 保存失敗は次回の再生成で賄えるためログのみ
		s.logger.Warn("timeline cache write failed",
			slog.String("user_id", user.ID),
			slog.String("feed_type", string(feedType)),
			slog.String("error", err.Error()),
		)
	}

	return fresh, nil
}
