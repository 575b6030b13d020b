package timeline

import (
	"context"
	"fmt"

	"github.com/hitoshi/campusfeed/internal/model"
	"github.com/hitoshi/campusfeed/internal/repository"
	"github.com/hitoshi/campusfeed/internal/security"
)

// Hydrator は軽量なタイムラインエントリから表示用アイテムを組み立てる。
// コンテンツ本体を種別ごとに一括取得し、閲覧ユーザーのインタラクション
// フラグを付与する。参照先が削除済みのエントリは黙って落とす。
type Hydrator struct {
	posts        repository.PostRepository
	projects     repository.ProjectRepository
	interactions repository.InteractionRepository
	sanitizer    security.ContentSanitizerService
}

// NewHydrator はHydratorを生成する。
func NewHydrator(
	posts repository.PostRepository,
	projects repository.ProjectRepository,
	interactions repository.InteractionRepository,
	sanitizer security.ContentSanitizerService,
) *Hydrator {
	return &Hydrator{
		posts:        posts,
		projects:     projects,
		interactions: interactions,
		sanitizer:    sanitizer,
	}
}

// Hydrate はエントリ列を表示用アイテム列に変換する。
// 取得はコンテンツ種別ごとに1クエリ、インタラクションは1クエリで済ませる。
func (h *Hydrator) Hydrate(ctx context.Context, userID string, entries []model.TimelineEntry) ([]*model.TimelineItem, error) {
	if len(entries) == 0 {
		return []*model.TimelineItem{}, nil
	}

	// 種別ごとにIDを分ける
	var postIDs, projectIDs []string
	refs := make([]model.ContentRef, 0, len(entries))
	for _, e := range entries {
		refs = append(refs, model.ContentRef{ContentType: e.ContentType, ContentID: e.ContentID})
		switch e.ContentType {
		case model.ContentTypePost:
			postIDs = append(postIDs, e.ContentID)
		case model.ContentTypeProject:
			projectIDs = append(projectIDs, e.ContentID)
		}
	}

	posts, err := h.posts.FindByIDs(ctx, postIDs)
	if err != nil {
		return nil, fmt.Errorf("投稿の解決に失敗しました: %w", err)
	}
	postsByID := make(map[string]*model.Post, len(posts))
	for _, p := range posts {
		postsByID[p.ID] = p
	}

	projects, err := h.projects.FindByIDs(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの解決に失敗しました: %w", err)
	}
	projectsByID := make(map[string]*model.Project, len(projects))
	for _, p := range projects {
		projectsByID[p.ID] = p
	}

	actions, err := h.interactions.ListActionsByUserAndRefs(ctx, userID, refs)
	if err != nil {
		return nil, fmt.Errorf("インタラクション状態の解決に失敗しました: %w", err)
	}

	items := make([]*model.TimelineItem, 0, len(entries))
	for _, e := range entries {
		item := &model.TimelineItem{
			ContentType: e.ContentType,
			ContentID:   e.ContentID,
			Score:       e.Score,
		}

		switch e.ContentType {
		case model.ContentTypePost:
			post, ok := postsByID[e.ContentID]
			if !ok {
				// キャッシュ後に削除されたコンテンツは黙って落とす
				continue
			}
			sanitized := *post
			sanitized.Content = h.sanitizer.Sanitize(post.Content)
			item.Post = &sanitized
		case model.ContentTypeProject:
			project, ok := projectsByID[e.ContentID]
			if !ok {
				continue
			}
			item.Project = project
		default:
			continue
		}

		ref := model.ContentRef{ContentType: e.ContentType, ContentID: e.ContentID}
		for _, action := range actions[ref] {
			item.Interactions = append(item.Interactions, action)
			switch action {
			case model.ActionView:
				item.Viewed = true
			case model.ActionClick:
				item.Clicked = true
			case model.ActionLike:
				item.Liked = true
			}
		}

		items = append(items, item)
	}

	return items, nil
}
