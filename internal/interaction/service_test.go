package interaction

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/campusfeed/internal/model"
)

// --- テスト用モック ---

type mockInteractionRepo struct {
	created  []*model.UserInteraction
	createFn func(ctx context.Context, interaction *model.UserInteraction) error
}

func (m *mockInteractionRepo) Create(ctx context.Context, interaction *model.UserInteraction) error {
	if m.createFn != nil {
		return m.createFn(ctx, interaction)
	}
	m.created = append(m.created, interaction)
	return nil
}

func (m *mockInteractionRepo) ListActionsByUserAndRefs(ctx context.Context, userID string, refs []model.ContentRef) (map[model.ContentRef][]model.InteractionAction, error) {
	return nil, nil
}

// mockScoreRepo はContentScoreRepositoryのテスト用モック。
// ApplyEngagementNudgeの呼び出しをインメモリのスコアに反映する。
type mockScoreRepo struct {
	scores  map[model.ContentRef]*model.ContentScore
	nudgeFn func(ctx context.Context, ref model.ContentRef, delta float64, expiresAt time.Time) error
}

func newMockScoreRepo() *mockScoreRepo {
	return &mockScoreRepo{scores: make(map[model.ContentRef]*model.ContentScore)}
}

func (m *mockScoreRepo) FindByRef(ctx context.Context, ref model.ContentRef) (*model.ContentScore, error) {
	return m.scores[ref], nil
}

func (m *mockScoreRepo) Upsert(ctx context.Context, score *model.ContentScore) error {
	m.scores[model.ContentRef{ContentType: score.ContentType, ContentID: score.ContentID}] = score
	return nil
}

func (m *mockScoreRepo) ApplyEngagementNudge(ctx context.Context, ref model.ContentRef, delta float64, expiresAt time.Time) error {
	if m.nudgeFn != nil {
		return m.nudgeFn(ctx, ref, delta, expiresAt)
	}
	score, ok := m.scores[ref]
	if !ok {
		score = &model.ContentScore{
			ContentType: ref.ContentType,
			ContentID:   ref.ContentID,
			BaseScore:   50,
		}
		m.scores[ref] = score
	}
	prevBase := score.BaseScore
	score.EngagementScore += delta
	blended := 0.7*score.BaseScore + 0.3*score.EngagementScore
	if blended > prevBase {
		score.BaseScore = blended
	}
	if score.BaseScore > 100 {
		score.BaseScore = 100
	}
	score.ExpiresAt = expiresAt
	return nil
}

func (m *mockScoreRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// mockPostRepo は存在確認専用のPostRepositoryモック。
type mockPostRepo struct {
	existing map[string]bool
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
	var posts []*model.Post
	for _, id := range ids {
		if m.existing[id] {
			posts = append(posts, &model.Post{ID: id})
		}
	}
	return posts, nil
}
func (m *mockPostRepo) ListRecentForScoring(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error) {
	return nil, nil
}

// mockProjectRepo は存在確認専用のProjectRepositoryモック。
type mockProjectRepo struct {
	existing map[string]bool
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
	var projects []*model.Project
	for _, id := range ids {
		if m.existing[id] {
			projects = append(projects, &model.Project{ID: id})
		}
	}
	return projects, nil
}
func (m *mockProjectRepo) ListRecentForScoring(ctx context.Context, since time.Time, offset, limit int) ([]*model.Project, error) {
	return nil, nil
}

// nopCollector は何もしないメトリクスコレクター。
type nopCollector struct{}

func (nopCollector) RecordCacheHit(feedType string)                 {}
func (nopCollector) RecordCacheMiss(feedType string)                {}
func (nopCollector) RecordTimelineGenerated(feedType string)        {}
func (nopCollector) RecordGenerationLatency(duration time.Duration) {}
func (nopCollector) RecordInteraction(action string)                {}
func (nopCollector) RecordScoresRefreshed(count int)                {}
func (nopCollector) RecordScoresExpired(count int)                  {}
func (nopCollector) RecordHTTPStatus(statusCode int)                {}

func newTestService(interactions *mockInteractionRepo, scores *mockScoreRepo) *Service {
	return NewService(
		interactions,
		scores,
		&mockPostRepo{existing: map[string]bool{"post-1": true}},
		&mockProjectRepo{existing: map[string]bool{"project-x": true}},
		nopCollector{},
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
	)
}

// TestTrack_RecordsInteraction は記録行の内容を検証する。
func TestTrack_RecordsInteraction(t *testing.T) {
	interactions := &mockInteractionRepo{}
	svc := newTestService(interactions, newMockScoreRepo())

	fc := model.FeedContextHome
	viewTime := 3.5
	got, err := svc.Track(context.Background(), "user-1", TrackInput{
		ContentType: model.ContentTypePost,
		ContentID:   "post-1",
		Action:      model.ActionView,
		ViewTime:    &viewTime,
		FeedContext: &fc,
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	if len(interactions.created) != 1 {
		t.Fatalf("created = %d, want 1", len(interactions.created))
	}
	rec := interactions.created[0]
	if rec.UserID != "user-1" || rec.ContentID != "post-1" || rec.Action != model.ActionView {
		t.Errorf("record = %+v", rec)
	}
	if rec.ViewTime == nil || *rec.ViewTime != 3.5 {
		t.Errorf("view_time = %v, want 3.5", rec.ViewTime)
	}
	if rec.FeedContext == nil || *rec.FeedContext != model.FeedContextHome {
		t.Errorf("feed_context = %v, want home", rec.FeedContext)
	}
	if got != rec {
		t.Error("returned interaction should be the created record")
	}
}

// TestTrack_LikeNudgesScore はlikeでengagement_scoreがちょうど2.0
// 増加し、base_scoreが減少しないことを検証する。
func TestTrack_LikeNudgesScore(t *testing.T) {
	scores := newMockScoreRepo()
	ref := model.ContentRef{ContentType: model.ContentTypeProject, ContentID: "project-x"}
	scores.scores[ref] = &model.ContentScore{
		ContentType:     model.ContentTypeProject,
		ContentID:       "project-x",
		BaseScore:       50,
		EngagementScore: 10,
	}

	svc := newTestService(&mockInteractionRepo{}, scores)

	_, err := svc.Track(context.Background(), "user-1", TrackInput{
		ContentType: model.ContentTypeProject,
		ContentID:   "project-x",
		Action:      model.ActionLike,
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	score := scores.scores[ref]
	if score.EngagementScore != 12 {
		t.Errorf("engagement_score = %v, want 12 (+2.0)", score.EngagementScore)
	}
	if score.BaseScore < 50 {
		t.Errorf("base_score = %v, should be non-decreasing from 50", score.BaseScore)
	}
}

// TestTrack_ViewDoesNotNudge はviewがスコアを加算しないことを検証する。
func TestTrack_ViewDoesNotNudge(t *testing.T) {
	scores := newMockScoreRepo()
	nudgeCalled := false
	scores.nudgeFn = func(ctx context.Context, ref model.ContentRef, delta float64, expiresAt time.Time) error {
		nudgeCalled = true
		return nil
	}

	svc := newTestService(&mockInteractionRepo{}, scores)

	_, err := svc.Track(context.Background(), "user-1", TrackInput{
		ContentType: model.ContentTypePost,
		ContentID:   "post-1",
		Action:      model.ActionView,
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if nudgeCalled {
		t.Error("view should not nudge the score")
	}
}

// TestTrack_NudgeDeltas はアクションごとの加算量を検証する。
func TestTrack_NudgeDeltas(t *testing.T) {
	tests := []struct {
		action model.InteractionAction
		want   float64
	}{
		{model.ActionLike, 2.0},
		{model.ActionShare, 3.0},
		{model.ActionComment, 1.5},
		{model.ActionClick, 0.5},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			scores := newMockScoreRepo()
			var gotDelta float64
			scores.nudgeFn = func(ctx context.Context, ref model.ContentRef, delta float64, expiresAt time.Time) error {
				gotDelta = delta
				return nil
			}

			svc := newTestService(&mockInteractionRepo{}, scores)
			_, err := svc.Track(context.Background(), "user-1", TrackInput{
				ContentType: model.ContentTypePost,
				ContentID:   "post-1",
				Action:      tt.action,
			})
			if err != nil {
				t.Fatalf("Track: %v", err)
			}
			if gotDelta != tt.want {
				t.Errorf("delta = %v, want %v", gotDelta, tt.want)
			}
		})
	}
}

// TestTrack_NudgeFailureDoesNotPropagate はスコア加算失敗が
// 呼び出し元に伝播しないことを検証する。
func TestTrack_NudgeFailureDoesNotPropagate(t *testing.T) {
	scores := newMockScoreRepo()
	scores.nudgeFn = func(ctx context.Context, ref model.ContentRef, delta float64, expiresAt time.Time) error {
		return errors.New("score store down")
	}
	interactions := &mockInteractionRepo{}

	svc := newTestService(interactions, scores)

	_, err := svc.Track(context.Background(), "user-1", TrackInput{
		ContentType: model.ContentTypePost,
		ContentID:   "post-1",
		Action:      model.ActionLike,
	})
	if err != nil {
		t.Fatalf("Track should succeed despite nudge failure: %v", err)
	}
	if len(interactions.created) != 1 {
		t.Errorf("interaction should be recorded: %d", len(interactions.created))
	}
}

// TestTrack_ValidationErrors は入力検証を確認する。
func TestTrack_ValidationErrors(t *testing.T) {
	svc := newTestService(&mockInteractionRepo{}, newMockScoreRepo())

	tests := []struct {
		name     string
		input    TrackInput
		wantCode string
	}{
		{
			"無効なアクション",
			TrackInput{ContentType: model.ContentTypePost, ContentID: "post-1", Action: "upvote"},
			model.ErrCodeInvalidAction,
		},
		{
			"無効なコンテンツ種別",
			TrackInput{ContentType: "event", ContentID: "e-1", Action: model.ActionLike},
			model.ErrCodeInvalidContentType,
		},
		{
			"コンテンツID未指定",
			TrackInput{ContentType: model.ContentTypePost, Action: model.ActionLike},
			model.ErrCodeMissingContentID,
		},
		{
			"存在しないコンテンツ",
			TrackInput{ContentType: model.ContentTypePost, ContentID: "ghost", Action: model.ActionLike},
			model.ErrCodeContentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Track(context.Background(), "user-1", tt.input)
			var apiErr *model.APIError
			if !errors.As(err, &apiErr) || apiErr.Code != tt.wantCode {
				t.Errorf("err = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

// TestTrack_DropsUnknownFeedContext は未知のフィード文脈が
// 黙って落とされることを検証する。
func TestTrack_DropsUnknownFeedContext(t *testing.T) {
	interactions := &mockInteractionRepo{}
	svc := newTestService(interactions, newMockScoreRepo())

	fc := model.FeedContext("sidebar")
	_, err := svc.Track(context.Background(), "user-1", TrackInput{
		ContentType: model.ContentTypePost,
		ContentID:   "post-1",
		Action:      model.ActionClick,
		FeedContext: &fc,
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if interactions.created[0].FeedContext != nil {
		t.Errorf("feed_context = %v, want nil", interactions.created[0].FeedContext)
	}
}
