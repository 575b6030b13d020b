// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/campusfeed/internal/model"
)

// UserRepository はユーザーデータの読み取りインターフェース。
// ユーザーの作成・認証は外部の責務であり、フィードエンジンは
// 大学所属の解決にのみ使用する。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// FollowRepository はフォロー関係の読み取りインターフェース。
type FollowRepository interface {
	// ListFolloweeIDs は指定ユーザーがフォローしている相手のID一覧を返す。
	ListFolloweeIDs(ctx context.Context, followerID string) ([]string, error)
}

// PostRepository は投稿の読み取り専用インターフェース。
// 各メソッドはフィード生成時の候補取得クエリに対応する。
// sinceより古い投稿は候補から除外される（候補ウィンドウ）。
type PostRepository interface {
	// ListUniversityCandidates は指定大学の投稿（visibility: university/public）を
	// 新しい順に最大limit件返す。excludeAuthorIDsの著者は除外する。
	ListUniversityCandidates(ctx context.Context, universityID string, since time.Time, excludeAuthorIDs []string, limit int) ([]*model.Post, error)

	// ListPublicCandidates はパブリック投稿を新しい順に最大limit件返す。
	// excludeUniversityIDが空でない場合、その大学の投稿は除外する
	// （大学パルで取得済みの分との重複回避）。
	ListPublicCandidates(ctx context.Context, since time.Time, excludeUniversityID string, excludeAuthorIDs []string, limit int) ([]*model.Post, error)

	// ListByAuthorCandidates は指定著者群の投稿を新しい順に最大limit件返す。
	// 可視性はviewerUniversityIDに基づいて判定する
	// （public、または同一大学のuniversity投稿のみ）。
	ListByAuthorCandidates(ctx context.Context, authorIDs []string, viewerUniversityID string, since time.Time, limit int) ([]*model.Post, error)

	// FindByIDs は指定ID群の投稿を一括取得する。存在しないIDは結果から落ちる。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error)

	// ListRecentForScoring はスコア再計算の対象投稿をバッチ取得する。
	// visibility が public/university の投稿のみを新しい順に返す。
	ListRecentForScoring(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error)
}

// ProjectRepository はプロジェクトの読み取り専用インターフェース。
type ProjectRepository interface {
	// ListUniversityCandidates は指定大学のプロジェクト（visibility: university/public）を
	// 新しい順に最大limit件返す。excludeOwnerIDsの所有者は除外する。
	ListUniversityCandidates(ctx context.Context, universityID string, since time.Time, excludeOwnerIDs []string, limit int) ([]*model.Project, error)

	// ListPublicCandidates はパブリックプロジェクトを新しい順に最大limit件返す。
	ListPublicCandidates(ctx context.Context, since time.Time, excludeUniversityID string, excludeOwnerIDs []string, limit int) ([]*model.Project, error)

	// ListByOwnerCandidates は指定所有者群のプロジェクトを新しい順に最大limit件返す。
	ListByOwnerCandidates(ctx context.Context, ownerIDs []string, viewerUniversityID string, since time.Time, limit int) ([]*model.Project, error)

	// FindByIDs は指定ID群のプロジェクトを一括取得する。存在しないIDは結果から落ちる。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Project, error)

	// ListRecentForScoring はスコア再計算の対象プロジェクトをバッチ取得する。
	ListRecentForScoring(ctx context.Context, since time.Time, offset, limit int) ([]*model.Project, error)
}

// ContentScoreRepository はコンテンツスコアの永続化インターフェース。
type ContentScoreRepository interface {
	// FindByRef は(content_type, content_id)のスコアを取得する。見つからない場合はnilを返す。
	FindByRef(ctx context.Context, ref model.ContentRef) (*model.ContentScore, error)

	// Upsert はスコアを(content_type, content_id)をキーに冪等にUPSERTする。
	// 新規作成時はIDを採番する。
	Upsert(ctx context.Context, score *model.ContentScore) error

	// ApplyEngagementNudge はengagement_scoreをdeltaだけ加算し、
	// base_scoreを既存値と更新後engagement_scoreの上限付きブレンドに再計算する。
	// 行が存在しない場合は初期値で作成してから加算する。
	ApplyEngagementNudge(ctx context.Context, ref model.ContentRef, delta float64, expiresAt time.Time) error

	// DeleteExpired はexpires_atがnowより前の行を削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// InteractionRepository はユーザーインタラクションの永続化インターフェース。
type InteractionRepository interface {
	// Create はインタラクションを追記する。更新・削除は提供しない。
	Create(ctx context.Context, interaction *model.UserInteraction) error

	// ListActionsByUserAndRefs は指定ユーザーの、指定コンテンツ参照群に対する
	// アクション一覧を返す。表示時のviewed/clicked/likedフラグ構築に使用する。
	ListActionsByUserAndRefs(ctx context.Context, userID string, refs []model.ContentRef) (map[model.ContentRef][]model.InteractionAction, error)
}

// FeedConfigRepository はフィード設定の永続化インターフェース。
type FeedConfigRepository interface {
	// FindByUserID は指定ユーザーの設定を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.FeedConfiguration, error)

	// Create は設定を新規作成する。IDを採番して返す。
	Create(ctx context.Context, config *model.FeedConfiguration) error

	// Update は設定を上書き更新する。
	Update(ctx context.Context, config *model.FeedConfiguration) error
}

// TimelineCacheRepository はタイムラインキャッシュの保存インターフェース。
// (user, feed_type)ごとに1エントリを保持する。
type TimelineCacheRepository interface {
	// Get は指定ユーザー・フィード種別のキャッシュを取得する。
	// 存在しない場合はnilを返す。期限の判定は呼び出し側で行う。
	Get(ctx context.Context, userID string, feedType model.FeedType) (*model.TimelineCache, error)

	// Put はキャッシュを上書き保存する。ttl経過後は自動的に破棄される。
	Put(ctx context.Context, userID string, feedType model.FeedType, cache *model.TimelineCache, ttl time.Duration) error

	// Invalidate は指定ユーザーのキャッシュを破棄する。
	// feedTypesが空の場合は全フィード種別を破棄する。
	Invalidate(ctx context.Context, userID string, feedTypes ...model.FeedType) error
}
