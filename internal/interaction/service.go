// Package interaction はユーザーインタラクションの記録とスコアフィードバックを提供する。
package interaction

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/campusfeed/internal/metrics"
	"github.com/hitoshi/campusfeed/internal/model"
	"github.com/hitoshi/campusfeed/internal/repository"
)

// scoreNudgeExpiry はオンライン加算で設定するスコアの有効期限。
// 定期再計算ジョブが同じ期限で上書きする。
const scoreNudgeExpiry = 24 * time.Hour

// Service はインタラクション記録のサービス。
// 記録本体の書き込みが主であり、スコアへのフィードバックは
// ベストエフォート（失敗しても呼び出し元には伝播しない）。
type Service struct {
	interactions repository.InteractionRepository
	scores       repository.ContentScoreRepository
	posts        repository.PostRepository
	projects     repository.ProjectRepository
	collector    metrics.MetricsCollector
	logger       *slog.Logger

	now func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	interactions repository.InteractionRepository,
	scores repository.ContentScoreRepository,
	posts repository.PostRepository,
	projects repository.ProjectRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		interactions: interactions,
		scores:       scores,
		posts:        posts,
		projects:     projects,
		collector:    collector,
		logger:       logger,
		now:          time.Now,
	}
}

// TrackInput はTrackの入力。
type TrackInput struct {
	ContentType model.ContentType
	ContentID   string
	Action      model.InteractionAction
	ViewTime    *float64
	FeedContext *model.FeedContext
}

// Track はインタラクションを検証・記録し、対象コンテンツのスコアへ
// フィードバックする。記録行の書き込み成功が戻り値を決め、
// スコア加算の失敗はログに残すだけで伝播しない。
func (s *Service) Track(ctx context.Context, userID string, input TrackInput) (*model.UserInteraction, error) {
	if !model.ValidInteractionAction(input.Action) {
		return nil, model.NewInvalidActionError(string(input.Action))
	}
	if input.ContentType != model.ContentTypePost && input.ContentType != model.ContentTypeProject {
		return nil, model.NewInvalidContentTypeError(string(input.ContentType))
	}
	if input.ContentID == "" {
		return nil, model.NewMissingContentIDError()
	}

	// 未知のフィード文脈は付帯メタデータなので黙って落とす
	feedContext := input.FeedContext
	if feedContext != nil && !model.ValidFeedContext(*feedContext) {
		feedContext = nil
	}

	exists, err := s.contentExists(ctx, input.ContentType, input.ContentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, model.NewContentNotFoundError(input.ContentType, input.ContentID)
	}

	interaction := &model.UserInteraction{
		UserID:      userID,
		ContentType: input.ContentType,
		ContentID:   input.ContentID,
		Action:      input.Action,
		ViewTime:    input.ViewTime,
		FeedContext: feedContext,
		CreatedAt:   s.now(),
	}

	if err := s.interactions.Create(ctx, interaction); err != nil {
		return nil, fmt.Errorf("インタラクションの記録に失敗しました: %w", err)
	}

	s.collector.RecordInteraction(string(input.Action))

	// スコアフィードバックは独立したエラー境界で行う
	s.nudgeScore(ctx, interaction)

	return interaction, nil
}

// nudgeScore は対象コンテンツのengagement_scoreを加算する。
// 失敗は記録本体の成功を覆さない。
func (s *Service) nudgeScore(ctx context.Context, interaction *model.UserInteraction) {
	delta := model.ScoreNudgeForAction(interaction.Action)
	if delta == 0 {
		return
	}

	ref := model.ContentRef{
		ContentType: interaction.ContentType,
		ContentID:   interaction.ContentID,
	}
	expiresAt := s.now().Add(scoreNudgeExpiry)

	if err := s.scores.ApplyEngagementNudge(ctx, ref, delta, expiresAt); err != nil {
		s.logger.Warn("score nudge failed",
			slog.String("user_id", interaction.UserID),
			slog.String("content_type", string(interaction.ContentType)),
			slog.String("content_id", interaction.ContentID),
			slog.String("action", string(interaction.Action)),
			slog.String("error", err.Error()),
		)
	}
}

// contentExists は対象コンテンツの存在を確認する。
func (s *Service) contentExists(ctx context.Context, contentType model.ContentType, contentID string) (bool, error) {
	switch contentType {
	case model.ContentTypePost:
		posts, err := s.posts.FindByIDs(ctx, []string{contentID})
		if err != nil {
			return false, err
		}
		return len(posts) > 0, nil
	case model.ContentTypeProject:
		projects, err := s.projects.FindByIDs(ctx, []string{contentID})
		if err != nil {
			return false, err
		}
		return len(projects) > 0, nil
	}
	return false, nil
}
