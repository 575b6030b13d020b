package model

import "time"

// FeedType はタイムラインのフィード種別を表す。
type FeedType string

const (
	// FeedTypeHome はフォロー関係を加味したパーソナライズフィード。
	FeedTypeHome FeedType = "home"
	// FeedTypeUniversity は同一大学のコンテンツのみのフィード。
	FeedTypeUniversity FeedType = "university"
	// FeedTypePublic は全大学のパブリックコンテンツのフィード。
	FeedTypePublic FeedType = "public"
	// FeedTypeTrending はトレンドフィード。キャッシュ種別としてのみ予約。
	FeedTypeTrending FeedType = "trending"
)

// RequestableFeedTypes はGetTimelineで要求可能なフィード種別のセット。
// trendingはキャッシュ上の予約値であり、生成器は持たない。
var RequestableFeedTypes = map[FeedType]bool{
	FeedTypeHome:       true,
	FeedTypeUniversity: true,
	FeedTypePublic:     true,
}

// AllFeedTypes はキャッシュ無効化の対象となる全フィード種別。
var AllFeedTypes = []FeedType{
	FeedTypeHome, FeedTypeUniversity, FeedTypePublic, FeedTypeTrending,
}

// TimelineEntry はキャッシュに保存する軽量なタイムライン項目。
// コンテンツ本体は含めない。本体属性の変更（投稿の編集など）が
// キャッシュ無効化を要求しないのはこのためである。
type TimelineEntry struct {
	ContentType ContentType `json:"content_type"`
	ContentID   string      `json:"content_id"`
	Score       float64     `json:"score"`
}

// TimelineCache は(user, feed_type)ごとのタイムラインキャッシュ。
// 生成結果のスナップショットをTTL付きで保持し、ページネーションを
// 再生成なしで捌く。設定変更時は丸ごと破棄される。
type TimelineCache struct {
	Entries     []TimelineEntry `json:"entries"`
	TotalCount  int             `json:"total_count"`
	LastRefresh time.Time       `json:"last_refresh"`
	ExpiresAt   time.Time       `json:"expires_at"`
}

// IsExpired はキャッシュが期限切れかどうかを返す。
// 読み取り側は必ず明示的に期限を確認する（読み取り時破棄方式）。
func (c *TimelineCache) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Page はキャッシュ済みエントリの指定ページを返す。
// 範囲外のページは空スライスを返し、エラーにはしない。
func (c *TimelineCache) Page(page, pageSize int) []TimelineEntry {
	start := (page - 1) * pageSize
	if start < 0 || start >= len(c.Entries) {
		return nil
	}
	end := start + pageSize
	if end > len(c.Entries) {
		end = len(c.Entries)
	}
	return c.Entries[start:end]
}

// TimelineItem はリクエスト時に組み立てる表示用タイムライン項目。
// キャッシュエントリ＋コンテンツ本体＋閲覧ユーザーのインタラクション状態を
// 結合した一時表現で、永続化はしない。
type TimelineItem struct {
	ContentType  ContentType
	ContentID    string
	Score        float64
	Post         *Post    // ContentTypePostの場合のみ非nil
	Project      *Project // ContentTypeProjectの場合のみ非nil
	Interactions []InteractionAction
	Viewed       bool
	Clicked      bool
	Liked        bool
}
