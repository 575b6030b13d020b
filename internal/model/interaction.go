package model

import "time"

// InteractionAction はユーザーがコンテンツに対して行ったアクションの種別を表す。
type InteractionAction string

const (
	// ActionView はコンテンツの閲覧。
	ActionView InteractionAction = "view"
	// ActionClick はコンテンツのクリック（詳細への遷移）。
	ActionClick InteractionAction = "click"
	// ActionLike はいいね。
	ActionLike InteractionAction = "like"
	// ActionShare はシェア。
	ActionShare InteractionAction = "share"
	// ActionComment はコメント投稿。
	ActionComment InteractionAction = "comment"
)

// ValidInteractionAction はアクションが定義済みの値かどうかを返す。
func ValidInteractionAction(a InteractionAction) bool {
	switch a {
	case ActionView, ActionClick, ActionLike, ActionShare, ActionComment:
		return true
	}
	return false
}

// FeedContext はインタラクションが発生した文脈を表す。
// タイムラインのフィード種別に加え、プロフィール画面や直接遷移も取り得る。
type FeedContext string

const (
	// FeedContextHome はホームフィード上でのインタラクション。
	FeedContextHome FeedContext = "home"
	// FeedContextUniversity は大学フィード上でのインタラクション。
	FeedContextUniversity FeedContext = "university"
	// FeedContextPublic はパブリックフィード上でのインタラクション。
	FeedContextPublic FeedContext = "public"
	// FeedContextProfile はプロフィール画面でのインタラクション。
	FeedContextProfile FeedContext = "profile"
	// FeedContextDirect は直接遷移でのインタラクション。
	FeedContextDirect FeedContext = "direct"
)

// ValidFeedContext はフィード文脈が定義済みの値かどうかを返す。
func ValidFeedContext(fc FeedContext) bool {
	switch fc {
	case FeedContextHome, FeedContextUniversity, FeedContextPublic,
		FeedContextProfile, FeedContextDirect:
		return true
	}
	return false
}

// UserInteraction はユーザーのコンテンツに対するアクションの追記専用レコード。
// 通常運用では更新・削除されない監査兼フィードバックの履歴であり、
// 「既にインタラクション済み」フラグの構築にも使われる。
type UserInteraction struct {
	ID          string
	UserID      string
	ContentType ContentType
	ContentID   string
	Action      InteractionAction
	ViewTime    *float64     // 閲覧時間（秒）。viewアクションのみ。
	FeedContext *FeedContext // インタラクションが発生した文脈。省略可。
	CreatedAt   time.Time
}
