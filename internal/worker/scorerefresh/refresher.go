// Package scorerefresh はコンテンツスコアの定期再計算ジョブを提供する。
// 直近のコンテンツをバッチで走査してbase_scoreを再計算し、
// 期限切れのスコア行を併せて削除する。
package scorerefresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/campusfeed/internal/metrics"
	"github.com/hitoshi/campusfeed/internal/model"
	"github.com/hitoshi/campusfeed/internal/repository"
)

const (
	// DefaultBatchSize は1クエリで取得するコンテンツ件数のデフォルト。
	DefaultBatchSize = 100

	// DefaultWindowDays は再計算の対象期間のデフォルト。これより古い
	// コンテンツはスコア行の期限切れとともにフィード候補から自然に消える。
	DefaultWindowDays = 7

	// scoreExpiry は再計算したスコアの有効期限。
	scoreExpiry = 24 * time.Hour

	// recencyDecayHours は新しさスコアが0になるまでの時間（7日）。
	recencyDecayHours = 168.0
)

// Refresher はコンテンツスコアの再計算処理を行う。
// オンライン加算（インタラクション記録時）はあくまで近似であり、
// このジョブの再計算が正とされる。
type Refresher struct {
	posts     repository.PostRepository
	projects  repository.ProjectRepository
	scores    repository.ContentScoreRepository
	collector metrics.MetricsCollector
	logger     *slog.Logger
	batchSize  int
	windowDays int

	now func() time.Time
}

// NewRefresher はRefresherを生成する。
// batchSize、windowDaysが0以下の場合はそれぞれデフォルト値を使用する。
func NewRefresher(
	posts repository.PostRepository,
	projects repository.ProjectRepository,
	scores repository.ContentScoreRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	batchSize int,
	windowDays int,
) *Refresher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Refresher{
		posts:      posts,
		projects:   projects,
		scores:     scores,
		collector:  collector,
		logger:     logger,
		batchSize:  batchSize,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// RunOnce は再計算サイクルを1回実行する。
// 直近7日のコンテンツをバッチで走査してスコアをUPSERTし、
// 最後に期限切れのスコア行を削除する。冪等。
func (r *Refresher) RunOnce(ctx context.Context) error {
	start := r.now()
	since := start.Add(-time.Duration(r.windowDays) * 24 * time.Hour)

	postCount, err := r.refreshPosts(ctx, since)
	if err != nil {
		return fmt.Errorf("投稿スコアの再計算に失敗しました: %w", err)
	}

	projectCount, err := r.refreshProjects(ctx, since)
	if err != nil {
		return fmt.Errorf("プロジェクトスコアの再計算に失敗しました: %w", err)
	}

	refreshed := postCount + projectCount
	r.collector.RecordScoresRefreshed(refreshed)

	expired, err := r.scores.DeleteExpired(ctx, r.now())
	if err != nil {
		return fmt.Errorf("期限切れスコアの削除に失敗しました: %w", err)
	}
	r.collector.RecordScoresExpired(int(expired))

	duration := time.Since(start)
	r.logger.Info("スコア再計算サイクルが完了しました",
		slog.Int("refreshed_posts", postCount),
		slog.Int("refreshed_projects", projectCount),
		slog.Int64("expired_deleted", expired),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// refreshPosts は対象期間内の投稿スコアをバッチで再計算する。
func (r *Refresher) refreshPosts(ctx context.Context, since time.Time) (int, error) {
	count := 0
	for offset := 0; ; offset += r.batchSize {
		posts, err := r.posts.ListRecentForScoring(ctx, since, offset, r.batchSize)
		if err != nil {
			return count, err
		}
		for _, post := range posts {
			ref := model.ContentRef{ContentType: model.ContentTypePost, ContentID: post.ID}
			engagement := postEngagementScore(post.LikesCount, post.CommentsCount)
			if err := r.upsertScore(ctx, ref, post.CreatedAt, engagement); err != nil {
				r.logger.Warn("投稿スコアの更新に失敗しました",
					slog.String("post_id", post.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			count++
		}
		if len(posts) < r.batchSize {
			return count, nil
		}
	}
}

// refreshProjects は対象期間内のプロジェクトスコアをバッチで再計算する。
func (r *Refresher) refreshProjects(ctx context.Context, since time.Time) (int, error) {
	count := 0
	for offset := 0; ; offset += r.batchSize {
		projects, err := r.projects.ListRecentForScoring(ctx, since, offset, r.batchSize)
		if err != nil {
			return count, err
		}
		for _, project := range projects {
			ref := model.ContentRef{ContentType: model.ContentTypeProject, ContentID: project.ID}
			engagement := projectEngagementScore(len(project.Needs), project.TeamMemberCount)
			if err := r.upsertScore(ctx, ref, project.CreatedAt, engagement); err != nil {
				r.logger.Warn("プロジェクトスコアの更新に失敗しました",
					slog.String("project_id", project.ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			count++
		}
		if len(projects) < r.batchSize {
			return count, nil
		}
	}
}

// upsertScore は再計算したスコアをUPSERTする。
// trending_scoreはこのジョブでは算出せず、既存行の値を引き継ぐ。
func (r *Refresher) upsertScore(ctx context.Context, ref model.ContentRef, createdAt time.Time, engagement float64) error {
	existing, err := r.scores.FindByRef(ctx, ref)
	if err != nil {
		return err
	}

	trending := 0.0
	id := ""
	if existing != nil {
		trending = existing.TrendingScore
		id = existing.ID
	}

	now := r.now()
	recency := recencyScore(now.Sub(createdAt))
	base := clamp(0.4*recency + 0.4*engagement + 0.2*trending)

	return r.scores.Upsert(ctx, &model.ContentScore{
		ID:              id,
		ContentType:     ref.ContentType,
		ContentID:       ref.ContentID,
		BaseScore:       base,
		EngagementScore: engagement,
		RecencyScore:    recency,
		TrendingScore:   trending,
		CalculatedAt:    now,
		ExpiresAt:       now.Add(scoreExpiry),
	})
}

// recencyScore は経過時間に対して7日間で線形減衰するスコアを返す。
func recencyScore(age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		hours = 0
	}
	score := 100 - hours/recencyDecayHours*100
	if score < 0 {
		return 0
	}
	return score
}

// postEngagementScore は投稿の反応数からエンゲージメントスコアを算出する。
func postEngagementScore(likes, comments int) float64 {
	return clamp(float64(likes*2+comments*5) * 2)
}

// projectEngagementScore は募集項目数とチーム規模から
// プロジェクトのエンゲージメントスコアを算出する。
func projectEngagementScore(needs, teamMembers int) float64 {
	return clamp(30 + float64(needs*10) + float64(teamMembers*5))
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
