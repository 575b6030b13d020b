package timeline

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/campusfeed/internal/model"
)

// mockInteractionRepo はInteractionRepositoryのテスト用モック。
type mockInteractionRepo struct {
	createFn                func(ctx context.Context, interaction *model.UserInteraction) error
	listActionsByUserRefsFn func(ctx context.Context, userID string, refs []model.ContentRef) (map[model.ContentRef][]model.InteractionAction, error)
}

func (m *mockInteractionRepo) Create(ctx context.Context, interaction *model.UserInteraction) error {
	if m.createFn != nil {
		return m.createFn(ctx, interaction)
	}
	return nil
}

func (m *mockInteractionRepo) ListActionsByUserAndRefs(ctx context.Context, userID string, refs []model.ContentRef) (map[model.ContentRef][]model.InteractionAction, error) {
	if m.listActionsByUserRefsFn != nil {
		return m.listActionsByUserRefsFn(ctx, userID, refs)
	}
	return map[model.ContentRef][]model.InteractionAction{}, nil
}

// mockSanitizer は入力に目印を付けて返すテスト用サニタイザー。
type mockSanitizer struct{}

func (mockSanitizer) Sanitize(raw string) string {
	return "sanitized:" + raw
}

// TestHydrate_AssemblesItems はエントリ列から表示用アイテムが
// 組み立てられることを検証する。
func TestHydrate_AssemblesItems(t *testing.T) {
	now := time.Now()
	posts := &mockPostRepo{
		findByIDsFn: func(ctx context.Context, ids []string) ([]*model.Post, error) {
			return []*model.Post{
				{ID: "p1", AuthorID: "a1", Content: "<p>本文</p>", CreatedAt: now},
			}, nil
		},
	}
	projects := &mockProjectRepo{
		findByIDsFn: func(ctx context.Context, ids []string) ([]*model.Project, error) {
			return []*model.Project{
				{ID: "pr1", OwnerID: "o1", Title: "プロジェクト", CreatedAt: now},
			}, nil
		},
	}
	interactions := &mockInteractionRepo{
		listActionsByUserRefsFn: func(ctx context.Context, userID string, refs []model.ContentRef) (map[model.ContentRef][]model.InteractionAction, error) {
			return map[model.ContentRef][]model.InteractionAction{
				{ContentType: model.ContentTypePost, ContentID: "p1"}: {model.ActionView, model.ActionLike},
			}, nil
		},
	}

	h := NewHydrator(posts, projects, interactions, mockSanitizer{})

	entries := []model.TimelineEntry{
		{ContentType: model.ContentTypePost, ContentID: "p1", Score: 80},
		{ContentType: model.ContentTypeProject, ContentID: "pr1", Score: 60},
	}

	items, err := h.Hydrate(context.Background(), "user-1", entries)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}

	post := items[0]
	if post.Post == nil || post.Post.ID != "p1" {
		t.Fatalf("first item should be post p1: %+v", post)
	}
	if post.Score != 80 {
		t.Errorf("score = %v, want 80", post.Score)
	}
	if !post.Viewed || !post.Liked || post.Clicked {
		t.Errorf("flags = viewed:%v clicked:%v liked:%v, want viewed+liked only", post.Viewed, post.Clicked, post.Liked)
	}
	if post.Post.Content != "sanitized:<p>本文</p>" {
		t.Errorf("post content should be sanitized: %q", post.Post.Content)
	}

	project := items[1]
	if project.Project == nil || project.Project.ID != "pr1" {
		t.Fatalf("second item should be project pr1: %+v", project)
	}
	if project.Viewed || project.Clicked || project.Liked {
		t.Error("project should have no interaction flags")
	}
}

// TestHydrate_DropsDanglingRefs は参照先が削除済みのエントリが
// 黙って落ちることを検証する。
func TestHydrate_DropsDanglingRefs(t *testing.T) {
	now := time.Now()
	posts := &mockPostRepo{
		findByIDsFn: func(ctx context.Context, ids []string) ([]*model.Post, error) {
			// p2は削除済みで返らない
			return []*model.Post{
				{ID: "p1", AuthorID: "a1", CreatedAt: now},
			}, nil
		},
	}

	h := NewHydrator(posts, &mockProjectRepo{}, &mockInteractionRepo{}, mockSanitizer{})

	entries := []model.TimelineEntry{
		{ContentType: model.ContentTypePost, ContentID: "p1", Score: 80},
		{ContentType: model.ContentTypePost, ContentID: "p2", Score: 70},
	}

	items, err := h.Hydrate(context.Background(), "user-1", entries)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, want 1 (dangling ref dropped)", len(items))
	}
	if items[0].ContentID != "p1" {
		t.Errorf("remaining item = %s, want p1", items[0].ContentID)
	}
}

// TestHydrate_Empty は空エントリで空スライスが返ることを検証する。
func TestHydrate_Empty(t *testing.T) {
	h := NewHydrator(&mockPostRepo{}, &mockProjectRepo{}, &mockInteractionRepo{}, mockSanitizer{})

	items, err := h.Hydrate(context.Background(), "user-1", nil)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("items = %v, want empty non-nil slice", items)
	}
}

// TestHydrate_PreservesEntryOrder はエントリ順が維持されることを検証する。
func TestHydrate_PreservesEntryOrder(t *testing.T) {
	now := time.Now()
	posts := &mockPostRepo{
		findByIDsFn: func(ctx context.Context, ids []string) ([]*model.Post, error) {
			// 取得順はID順とは限らない
			return []*model.Post{
				{ID: "p2", AuthorID: "a2", CreatedAt: now},
				{ID: "p1", AuthorID: "a1", CreatedAt: now},
			}, nil
		},
	}

	h := NewHydrator(posts, &mockProjectRepo{}, &mockInteractionRepo{}, mockSanitizer{})

	entries := []model.TimelineEntry{
		{ContentType: model.ContentTypePost, ContentID: "p1", Score: 90},
		{ContentType: model.ContentTypePost, ContentID: "p2", Score: 80},
	}

	items, err := h.Hydrate(context.Background(), "user-1", entries)
	if err != nil {
		t.Fatalf("Hydrate: %v", err)
	}
	if len(items) != 2 || items[0].ContentID != "p1" || items[1].ContentID != "p2" {
		t.Errorf("order should follow entries: %+v", items)
	}
}
