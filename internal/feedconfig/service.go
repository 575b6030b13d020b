// Package feedconfig はユーザーごとのフィード設定の管理機能を提供する。
package feedconfig

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/campusfeed/internal/model"
	"github.com/hitoshi/campusfeed/internal/repository"
)

// Service はフィード設定の取得・更新のサービス。
// 設定は初回アクセス時にデフォルト値で遅延作成される。
// 更新成功時は当該ユーザーの全タイムラインキャッシュを無効化する
// （重みが変わるとキャッシュ済みの順位は古くなるため）。
type Service struct {
	configs repository.FeedConfigRepository
	cache   repository.TimelineCacheRepository
	logger  *slog.Logger
}

// NewService はServiceを生成する。
func NewService(
	configs repository.FeedConfigRepository,
	cache repository.TimelineCacheRepository,
	logger *slog.Logger,
) *Service {
	return &Service{
		configs: configs,
		cache:   cache,
		logger:  logger,
	}
}

// GetOrCreate は指定ユーザーの設定を返す。存在しない場合は
// デフォルト値（重み 0.4/0.3/0.2/0.1）で作成してから返す。
func (s *Service) GetOrCreate(ctx context.Context, userID string) (*model.FeedConfiguration, error) {
	config, err := s.configs.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if config != nil {
		return config, nil
	}

	config = model.DefaultFeedConfiguration(userID)
	if err := s.configs.Create(ctx, config); err != nil {
		return nil, fmt.Errorf("フィード設定の初期化に失敗しました: %w", err)
	}

	s.logger.Info("feed configuration created",
		slog.String("user_id", userID),
	)

	return config, nil
}

// UpdateInput は更新リクエストの入力。nilのフィールドは現状維持を意味する。
type UpdateInput struct {
	ShowUniversityPosts *bool
	ShowPublicPosts     *bool
	ShowProjectUpdates  *bool
	PreferredPostTypes  *[]string
	BlockedUserIDs      *[]string
	RecencyWeight       *float64
	RelevanceWeight     *float64
	EngagementWeight    *float64
	UniversityWeight    *float64
}

// Update は設定を部分更新する。重みの検証に失敗した場合は
// 何も適用せずにバリデーションエラーを返す。
// 成功時は当該ユーザーの全フィード種別のキャッシュを無効化する。
func (s *Service) Update(ctx context.Context, userID string, input UpdateInput) (*model.FeedConfiguration, error) {
	current, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 検証に失敗した場合に部分適用が残らないようコピーに適用する
	updated := *current
	config := &updated

	if input.ShowUniversityPosts != nil {
		config.ShowUniversityPosts = *input.ShowUniversityPosts
	}
	if input.ShowPublicPosts != nil {
		config.ShowPublicPosts = *input.ShowPublicPosts
	}
	if input.ShowProjectUpdates != nil {
		config.ShowProjectUpdates = *input.ShowProjectUpdates
	}
	if input.PreferredPostTypes != nil {
		config.PreferredPostTypes = *input.PreferredPostTypes
	}
	if input.BlockedUserIDs != nil {
		config.BlockedUserIDs = *input.BlockedUserIDs
	}
	if input.RecencyWeight != nil {
		config.RecencyWeight = *input.RecencyWeight
	}
	if input.RelevanceWeight != nil {
		config.RelevanceWeight = *input.RelevanceWeight
	}
	if input.EngagementWeight != nil {
		config.EngagementWeight = *input.EngagementWeight
	}
	if input.UniversityWeight != nil {
		config.UniversityWeight = *input.UniversityWeight
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := s.configs.Update(ctx, config); err != nil {
		return nil, fmt.Errorf("フィード設定の更新に失敗しました: %w", err)
	}

	// 重みが変わったためキャッシュ済みの順位は無効
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		// 無効化失敗はTTLで回収されるが、古い順位が残るためログに残す
		s.logger.Warn("timeline cache invalidation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("feed configuration updated",
		slog.String("user_id", userID),
	)

	return config, nil
}
