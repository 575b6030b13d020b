package scorerefresh

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/hitoshi/campusfeed/internal/model"
)

// --- テスト用モック ---

type mockPostRepo struct {
	listRecentFn func(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error)
}

func (m *mockPostRepo) ListUniversityCandidates(ctx context.Context, universityID string, since time.Time, excludeAuthorIDs []string, limit int) ([]*model.Post, error) {
	return nil, nil
}
func (m *mockPostRepo) ListPublicCandidates(ctx context.Context, since time.Time, excludeUniversityID string, excludeAuthorIDs []string, limit int) ([]*model.Post, error) {
	return nil, nil
}
func (m *mockPostRepo) ListByAuthorCandidates(ctx context.Context, authorIDs []string, viewerUniversityID string, since time.Time, limit int) ([]*model.Post, error) {
	return nil, nil
}
func (m *mockPostRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	return nil, nil
}
func (m *mockPostRepo) ListRecentForScoring(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, since, offset, limit)
	}
	return nil, nil
}

type mockProjectRepo struct {
	listRecentFn func(ctx context.Context, since time.Time, offset, limit int) ([]*model.Project, error)
}

func (m *mockProjectRepo) ListUniversityCandidates(ctx context.Context, universityID string, since time.Time, excludeOwnerIDs []string, limit int) ([]*model.Project, error) {
	return nil, nil
}
func (m *mockProjectRepo) ListPublicCandidates(ctx context.Context, since time.Time, excludeUniversityID string, excludeOwnerIDs []string, limit int) ([]*model.Project, error) {
	return nil, nil
}
func (m *mockProjectRepo) ListByOwnerCandidates(ctx context.Context, ownerIDs []string, viewerUniversityID string, since time.Time, limit int) ([]*model.Project, error) {
	return nil, nil
}
func (m *mockProjectRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Project, error) {
	return nil, nil
}
func (m *mockProjectRepo) ListRecentForScoring(ctx context.Context, since time.Time, offset, limit int) ([]*model.Project, error) {
	if m.listRecentFn != nil {
		return m.listRecentFn(ctx, since, offset, limit)
	}
	return nil, nil
}

// mockScoreRepo はUPSERTされたスコアをインメモリで保持する。
type mockScoreRepo struct {
	scores          map[model.ContentRef]*model.ContentScore
	upsertFn        func(ctx context.Context, score *model.ContentScore) error
	deleteExpiredFn func(ctx context.Context, now time.Time) (int64, error)
}

func newMockScoreRepo() *mockScoreRepo {
	return &mockScoreRepo{scores: make(map[model.ContentRef]*model.ContentScore)}
}

func (m *mockScoreRepo) FindByRef(ctx context.Context, ref model.ContentRef) (*model.ContentScore, error) {
	return m.scores[ref], nil
}

func (m *mockScoreRepo) Upsert(ctx context.Context, score *model.ContentScore) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, score)
	}
	m.scores[model.ContentRef{ContentType: score.ContentType, ContentID: score.ContentID}] = score
	return nil
}

func (m *mockScoreRepo) ApplyEngagementNudge(ctx context.Context, ref model.ContentRef, delta float64, expiresAt time.Time) error {
	return nil
}

func (m *mockScoreRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.deleteExpiredFn != nil {
		return m.deleteExpiredFn(ctx, now)
	}
	return 0, nil
}

// countingCollector は再計算関連メトリクスの記録を数える。
type countingCollector struct {
	refreshed int
	expired   int
}

func (c *countingCollector) RecordCacheHit(feedType string)                 {}
func (c *countingCollector) RecordCacheMiss(feedType string)                {}
func (c *countingCollector) RecordTimelineGenerated(feedType string)        {}
func (c *countingCollector) RecordGenerationLatency(duration time.Duration) {}
func (c *countingCollector) RecordInteraction(action string)                {}
func (c *countingCollector) RecordScoresRefreshed(count int)                { c.refreshed += count }
func (c *countingCollector) RecordScoresExpired(count int)                  { c.expired += count }
func (c *countingCollector) RecordHTTPStatus(statusCode int)                {}

func newTestRefresher(posts *mockPostRepo, projects *mockProjectRepo, scores *mockScoreRepo, collector *countingCollector, batchSize int) (*Refresher, time.Time) {
	r := NewRefresher(posts, projects, scores, collector, slog.New(slog.NewJSONHandler(io.Discard, nil)), batchSize, 0)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }
	return r, now
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 0.0001
}

// TestRunOnce_ComputesPostScore は投稿スコアの算出式を検証する。
func TestRunOnce_ComputesPostScore(t *testing.T) {
	scores := newMockScoreRepo()
	collector := &countingCollector{}
	var now time.Time

	posts := &mockPostRepo{}
	posts.listRecentFn = func(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error) {
		if offset > 0 {
			return nil, nil
		}
		return []*model.Post{{
			ID:            "post-1",
			LikesCount:    10,
			CommentsCount: 4,
			CreatedAt:     now.Add(-84 * time.Hour),
		}}, nil
	}

	r, n := newTestRefresher(posts, &mockProjectRepo{}, scores, collector, 0)
	now = n

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	score := scores.scores[model.ContentRef{ContentType: model.ContentTypePost, ContentID: "post-1"}]
	if score == nil {
		t.Fatal("score should be upserted")
	}

	// recency: 100 - 84/168*100 = 50
	if !almostEqual(score.RecencyScore, 50) {
		t.Errorf("recency = %v, want 50", score.RecencyScore)
	}
	// engagement: min(100, (10*2 + 4*5) * 2) = 80
	if !almostEqual(score.EngagementScore, 80) {
		t.Errorf("engagement = %v, want 80", score.EngagementScore)
	}
	// base: 0.4*50 + 0.4*80 + 0.2*0 = 52
	if !almostEqual(score.BaseScore, 52) {
		t.Errorf("base = %v, want 52", score.BaseScore)
	}
	if !score.ExpiresAt.Equal(now.Add(24 * time.Hour)) {
		t.Errorf("expires_at = %v, want now+24h", score.ExpiresAt)
	}
	if collector.refreshed != 1 {
		t.Errorf("refreshed = %d, want 1", collector.refreshed)
	}
}

// TestRunOnce_ComputesProjectScore はプロジェクトスコアの算出式を検証する。
func TestRunOnce_ComputesProjectScore(t *testing.T) {
	scores := newMockScoreRepo()
	var now time.Time

	projects := &mockProjectRepo{}
	projects.listRecentFn = func(ctx context.Context, since time.Time, offset, limit int) ([]*model.Project, error) {
		if offset > 0 {
			return nil, nil
		}
		return []*model.Project{{
			ID:              "project-1",
			Needs:           []string{"developer", "designer"},
			TeamMemberCount: 3,
			CreatedAt:       now,
		}}, nil
	}

	r, n := newTestRefresher(&mockPostRepo{}, projects, scores, &countingCollector{}, 0)
	now = n

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	score := scores.scores[model.ContentRef{ContentType: model.ContentTypeProject, ContentID: "project-1"}]
	if score == nil {
		t.Fatal("score should be upserted")
	}

	// engagement: min(100, 30 + 2*10 + 3*5) = 65
	if !almostEqual(score.EngagementScore, 65) {
		t.Errorf("engagement = %v, want 65", score.EngagementScore)
	}
	// base: 0.4*100 + 0.4*65 + 0.2*0 = 66
	if !almostEqual(score.BaseScore, 66) {
		t.Errorf("base = %v, want 66", score.BaseScore)
	}
}

// TestRunOnce_PreservesTrendingScore は既存行のtrending_scoreが
// 引き継がれることを検証する。
func TestRunOnce_PreservesTrendingScore(t *testing.T) {
	scores := newMockScoreRepo()
	ref := model.ContentRef{ContentType: model.ContentTypePost, ContentID: "post-1"}
	scores.scores[ref] = &model.ContentScore{
		ID:            "score-1",
		ContentType:   model.ContentTypePost,
		ContentID:     "post-1",
		TrendingScore: 30,
	}

	var now time.Time
	posts := &mockPostRepo{}
	posts.listRecentFn = func(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error) {
		if offset > 0 {
			return nil, nil
		}
		return []*model.Post{{
			ID:            "post-1",
			LikesCount:    10,
			CommentsCount: 4,
			CreatedAt:     now.Add(-84 * time.Hour),
		}}, nil
	}

	r, n := newTestRefresher(posts, &mockProjectRepo{}, scores, &countingCollector{}, 0)
	now = n

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	score := scores.scores[ref]
	if !almostEqual(score.TrendingScore, 30) {
		t.Errorf("trending = %v, want preserved 30", score.TrendingScore)
	}
	// base: 52 + 0.2*30 = 58
	if !almostEqual(score.BaseScore, 58) {
		t.Errorf("base = %v, want 58", score.BaseScore)
	}
	if score.ID != "score-1" {
		t.Errorf("id = %q, want existing score-1", score.ID)
	}
}

// TestRunOnce_BatchesUntilShortPage はバッチサイズ分取得できる限り
// オフセットを進めて走査することを検証する。
func TestRunOnce_BatchesUntilShortPage(t *testing.T) {
	scores := newMockScoreRepo()
	collector := &countingCollector{}
	var now time.Time
	var offsets []int

	all := make([]*model.Post, 5)
	for i := range all {
		all[i] = &model.Post{ID: string(rune('a' + i)), CreatedAt: now}
	}

	posts := &mockPostRepo{}
	posts.listRecentFn = func(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error) {
		offsets = append(offsets, offset)
		if offset >= len(all) {
			return nil, nil
		}
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		return all[offset:end], nil
	}

	r, n := newTestRefresher(posts, &mockProjectRepo{}, scores, collector, 2)
	now = n

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}

	if len(offsets) != 3 || offsets[0] != 0 || offsets[1] != 2 || offsets[2] != 4 {
		t.Errorf("offsets = %v, want [0 2 4]", offsets)
	}
	if collector.refreshed != 5 {
		t.Errorf("refreshed = %d, want 5", collector.refreshed)
	}
}

// TestRunOnce_SweepsExpiredScores は期限切れ行の削除件数が
// メトリクスに記録されることを検証する。
func TestRunOnce_SweepsExpiredScores(t *testing.T) {
	scores := newMockScoreRepo()
	scores.deleteExpiredFn = func(ctx context.Context, now time.Time) (int64, error) {
		return 7, nil
	}
	collector := &countingCollector{}

	r, _ := newTestRefresher(&mockPostRepo{}, &mockProjectRepo{}, scores, collector, 0)

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if collector.expired != 7 {
		t.Errorf("expired = %d, want 7", collector.expired)
	}
}

// TestRunOnce_UpsertFailureSkipsItem は単一コンテンツの更新失敗が
// サイクル全体を止めないことを検証する。
func TestRunOnce_UpsertFailureSkipsItem(t *testing.T) {
	scores := newMockScoreRepo()
	scores.upsertFn = func(ctx context.Context, score *model.ContentScore) error {
		if score.ContentID == "post-2" {
			return errors.New("write failed")
		}
		scores.scores[model.ContentRef{ContentType: score.ContentType, ContentID: score.ContentID}] = score
		return nil
	}
	collector := &countingCollector{}
	var now time.Time

	posts := &mockPostRepo{}
	posts.listRecentFn = func(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error) {
		if offset > 0 {
			return nil, nil
		}
		return []*model.Post{
			{ID: "post-1", CreatedAt: now},
			{ID: "post-2", CreatedAt: now},
			{ID: "post-3", CreatedAt: now},
		}, nil
	}

	r, n := newTestRefresher(posts, &mockProjectRepo{}, scores, collector, 0)
	now = n

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce should not fail on a single upsert error: %v", err)
	}
	if collector.refreshed != 2 {
		t.Errorf("refreshed = %d, want 2", collector.refreshed)
	}
}

// TestRecencyScore は減衰カーブの端点を検証する。
func TestRecencyScore(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want float64
	}{
		{0, 100},
		{84 * time.Hour, 50},
		{168 * time.Hour, 0},
		{300 * time.Hour, 0},
		{-time.Hour, 100},
	}
	for _, tt := range tests {
		if got := recencyScore(tt.age); !almostEqual(got, tt.want) {
			t.Errorf("recencyScore(%v) = %v, want %v", tt.age, got, tt.want)
		}
	}
}
