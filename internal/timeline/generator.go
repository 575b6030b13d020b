package timeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hitoshi/campusfeed/internal/model"
	"github.com/hitoshi/campusfeed/internal/repository"
)

// フィード変種ごとの候補取得上限。ソース別に数十件に抑えることで
// ワーキングセットを有界に保つ。
const (
	homeUniversityPostLimit = 20
	homePublicPostLimit     = 15
	homeProjectLimit        = 10

	universityPostLimit    = 30
	universityProjectLimit = 15

	publicPostLimit    = 40
	publicProjectLimit = 20

	// homeTimelineMax はホームタイムラインの最大長。
	homeTimelineMax = 150
	// defaultTimelineMax は大学・パブリックタイムラインの最大長。
	defaultTimelineMax = 200
)

// Generator はフィード変種ごとのタイムライン候補列を生成する。
// 出力は軽量なエントリ（参照＋スコア）のスコア降順リストで、
// コンテンツ本体の解決は表示時のHydratorが行う。
type Generator struct {
	posts    repository.PostRepository
	projects repository.ProjectRepository
	follows  repository.FollowRepository
	scorer   *Scorer

	// candidateWindow は候補ウィンドウ。これより古いコンテンツは
	// スコアを下げるのではなく候補から除外する。
	candidateWindow time.Duration

	now func() time.Time
}

// NewGenerator はGeneratorを生成する。
func NewGenerator(
	posts repository.PostRepository,
	projects repository.ProjectRepository,
	follows repository.FollowRepository,
	scorer *Scorer,
	candidateWindowDays int,
) *Generator {
	return &Generator{
		posts:           posts,
		projects:        projects,
		follows:         follows,
		scorer:          scorer,
		candidateWindow: time.Duration(candidateWindowDays) * 24 * time.Hour,
		now:             time.Now,
	}
}

// Generate は指定ユーザー・フィード種別のタイムラインエントリ列を生成する。
// 大学フィードで所属大学がない場合は空リストを返す（エラーにはしない）。
func (g *Generator) Generate(ctx context.Context, user *model.User, config *model.FeedConfiguration, feedType model.FeedType) ([]model.TimelineEntry, error) {
	switch feedType {
	case model.FeedTypeHome:
		return g.generateHome(ctx, user, config)
	case model.FeedTypeUniversity:
		return g.generateUniversity(ctx, user, config)
	case model.FeedTypePublic:
		return g.generatePublic(ctx, user, config)
	}
	return nil, model.NewInvalidFeedTypeError(string(feedType))
}

// generateHome はフォロー関係を加味したホームタイムラインを生成する。
// フォロー先のコンテンツを先に取得して固定+20を加点し、後続の取得からは
// 除外して重複を防ぐ。
func (g *Generator) generateHome(ctx context.Context, user *model.User, config *model.FeedConfiguration) ([]model.TimelineEntry, error) {
	now := g.now()
	since := now.Add(-g.candidateWindow)

	followeeIDs, err := g.follows.ListFolloweeIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("フォロー先の解決に失敗しました: %w", err)
	}

	// ブロック対象のフォロー先は取得対象から外す
	var followees []string
	for _, id := range followeeIDs {
		if !config.IsBlocked(id) && id != user.ID {
			followees = append(followees, id)
		}
	}

	var entries []model.TimelineEntry
	seen := make(map[model.ContentRef]bool)

	// 1. フォロー先のコンテンツ（固定+20加点）
	if len(followees) > 0 {
		followedPosts, err := g.posts.ListByAuthorCandidates(ctx, followees, user.UniversityID, since, homeUniversityPostLimit)
		if err != nil {
			return nil, err
		}
		for _, p := range followedPosts {
			entries = g.appendPost(entries, seen, p, user, config, now, FollowBoost)
		}

		if config.ShowProjectUpdates {
			followedProjects, err := g.projects.ListByOwnerCandidates(ctx, followees, user.UniversityID, since, homeProjectLimit)
			if err != nil {
				return nil, err
			}
			for _, p := range followedProjects {
				entries = g.appendProject(entries, seen, p, user, config, now, FollowBoost)
			}
		}
	}

	// フォロー先と自分自身は後続の取得から除外する
	excludeAuthors := append([]string{user.ID}, followees...)
	excludeAuthors = append(excludeAuthors, config.BlockedUserIDs...)

	// 2. 同一大学のコンテンツ
	if config.ShowUniversityPosts && user.HasUniversity() {
		universityPosts, err := g.posts.ListUniversityCandidates(ctx, user.UniversityID, since, excludeAuthors, homeUniversityPostLimit)
		if err != nil {
			return nil, err
		}
		for _, p := range universityPosts {
			entries = g.appendPost(entries, seen, p, user, config, now, 0)
		}
	}

	// 3. パブリックコンテンツ（同一大学分は取得済みなので除外）
	if config.ShowPublicPosts {
		excludeUniversity := ""
		if config.ShowUniversityPosts && user.HasUniversity() {
			excludeUniversity = user.UniversityID
		}
		publicPosts, err := g.posts.ListPublicCandidates(ctx, since, excludeUniversity, excludeAuthors, homePublicPostLimit)
		if err != nil {
			return nil, err
		}
		for _, p := range publicPosts {
			entries = g.appendPost(entries, seen, p, user, config, now, 0)
		}
	}

	// 4. プロジェクト
	if config.ShowProjectUpdates {
		if user.HasUniversity() {
			universityProjects, err := g.projects.ListUniversityCandidates(ctx, user.UniversityID, since, excludeAuthors, homeProjectLimit)
			if err != nil {
				return nil, err
			}
			for _, p := range universityProjects {
				entries = g.appendProject(entries, seen, p, user, config, now, 0)
			}
		}
		publicProjects, err := g.projects.ListPublicCandidates(ctx, since, "", excludeAuthors, homeProjectLimit)
		if err != nil {
			return nil, err
		}
		for _, p := range publicProjects {
			entries = g.appendProject(entries, seen, p, user, config, now, 0)
		}
	}

	return finalize(entries, homeTimelineMax), nil
}

// generateUniversity は同一大学のコンテンツのみのタイムラインを生成する。
// 所属大学がないユーザーには空リストを返す。
func (g *Generator) generateUniversity(ctx context.Context, user *model.User, config *model.FeedConfiguration) ([]model.TimelineEntry, error) {
	if !user.HasUniversity() {
		return nil, nil
	}

	now := g.now()
	since := now.Add(-g.candidateWindow)
	excludeAuthors := append([]string{user.ID}, config.BlockedUserIDs...)

	var entries []model.TimelineEntry
	seen := make(map[model.ContentRef]bool)

	posts, err := g.posts.ListUniversityCandidates(ctx, user.UniversityID, since, excludeAuthors, universityPostLimit)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		entries = g.appendPost(entries, seen, p, user, config, now, 0)
	}

	if config.ShowProjectUpdates {
		projects, err := g.projects.ListUniversityCandidates(ctx, user.UniversityID, since, excludeAuthors, universityProjectLimit)
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			entries = g.appendProject(entries, seen, p, user, config, now, 0)
		}
	}

	return finalize(entries, defaultTimelineMax), nil
}

// generatePublic は全大学のパブリックコンテンツのタイムラインを生成する。
func (g *Generator) generatePublic(ctx context.Context, user *model.User, config *model.FeedConfiguration) ([]model.TimelineEntry, error) {
	now := g.now()
	since := now.Add(-g.candidateWindow)
	excludeAuthors := append([]string{user.ID}, config.BlockedUserIDs...)

	var entries []model.TimelineEntry
	seen := make(map[model.ContentRef]bool)

	posts, err := g.posts.ListPublicCandidates(ctx, since, "", excludeAuthors, publicPostLimit)
	if err != nil {
		return nil, err
	}
	for _, p := range posts {
		entries = g.appendPost(entries, seen, p, user, config, now, 0)
	}

	if config.ShowProjectUpdates {
		projects, err := g.projects.ListPublicCandidates(ctx, since, "", excludeAuthors, publicProjectLimit)
		if err != nil {
			return nil, err
		}
		for _, p := range projects {
			entries = g.appendProject(entries, seen, p, user, config, now, 0)
		}
	}

	return finalize(entries, defaultTimelineMax), nil
}

// appendPost は投稿をスコアリングしてエントリ列に追加する。
// 自分自身の投稿・ブロック対象・取得済み参照はスキップする。
func (g *Generator) appendPost(entries []model.TimelineEntry, seen map[model.ContentRef]bool, post *model.Post, user *model.User, config *model.FeedConfiguration, now time.Time, boost float64) []model.TimelineEntry {
	if post.AuthorID == user.ID || config.IsBlocked(post.AuthorID) {
		return entries
	}
	ref := model.ContentRef{ContentType: model.ContentTypePost, ContentID: post.ID}
	if seen[ref] {
		return entries
	}
	seen[ref] = true

	score := g.scorer.ScorePost(post, user.ID, user.UniversityID, config, now)
	return append(entries, model.TimelineEntry{
		ContentType: model.ContentTypePost,
		ContentID:   post.ID,
		Score:       clampScore(score + boost),
	})
}

// appendProject はプロジェクトをスコアリングしてエントリ列に追加する。
func (g *Generator) appendProject(entries []model.TimelineEntry, seen map[model.ContentRef]bool, project *model.Project, user *model.User, config *model.FeedConfiguration, now time.Time, boost float64) []model.TimelineEntry {
	if project.OwnerID == user.ID || config.IsBlocked(project.OwnerID) {
		return entries
	}
	ref := model.ContentRef{ContentType: model.ContentTypeProject, ContentID: project.ID}
	if seen[ref] {
		return entries
	}
	seen[ref] = true

	score := g.scorer.ScoreProject(project, user.ID, user.UniversityID, config, now)
	return append(entries, model.TimelineEntry{
		ContentType: model.ContentTypeProject,
		ContentID:   project.ID,
		Score:       clampScore(score + boost),
	})
}

// finalize はスコア降順に整列し、配分調整と切り詰めを行う。
func finalize(entries []model.TimelineEntry, max int) []model.TimelineEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})

	entries = BalanceMix(entries, DefaultPostRatio)

	if len(entries) > max {
		entries = entries[:max]
	}
	return entries
}
