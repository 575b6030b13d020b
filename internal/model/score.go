package model

import "time"

// ContentScore はコンテンツ単位（ユーザー非依存）の品質シグナルを保持する。
// (content_type, content_id) ごとに一意。バックグラウンドジョブによる定期再計算と、
// インタラクション記録時のオンライン加算の両方で更新される。
// 各スコアは慣例として [0, 100] にクランプされる。
type ContentScore struct {
	ID              string
	ContentType     ContentType
	ContentID       string
	BaseScore       float64
	EngagementScore float64
	RecencyScore    float64
	TrendingScore   float64
	CalculatedAt    time.Time
	ExpiresAt       time.Time
}

// IsExpired はスコアが期限切れかどうかを返す。
// 期限切れの行は厳密な読み手からは存在しないものとして扱う。
func (s *ContentScore) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// インタラクション種別ごとのengagement_scoreオンライン加算量。
// 完全な再計算はバックグラウンドジョブが担うため、ここでは軽量な近似加算に留める。
const (
	ScoreNudgeLike    = 2.0
	ScoreNudgeShare   = 3.0
	ScoreNudgeComment = 1.5
	ScoreNudgeClick   = 0.5
)

// ScoreNudgeForAction はアクションに対応するengagement_score加算量を返す。
// 加算対象外のアクション（viewなど）には0を返す。
func ScoreNudgeForAction(action InteractionAction) float64 {
	switch action {
	case ActionLike:
		return ScoreNudgeLike
	case ActionShare:
		return ScoreNudgeShare
	case ActionComment:
		return ScoreNudgeComment
	case ActionClick:
		return ScoreNudgeClick
	}
	return 0
}
