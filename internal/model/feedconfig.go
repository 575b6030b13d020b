package model

import (
	"math"
	"time"
)

// デフォルトのアルゴリズム重み。初回アクセス時の遅延作成で使用する。
const (
	DefaultRecencyWeight    = 0.4
	DefaultRelevanceWeight  = 0.3
	DefaultEngagementWeight = 0.2
	DefaultUniversityWeight = 0.1
)

// WeightSumTolerance は重み合計が1.0からずれてよい許容幅。
const WeightSumTolerance = 0.1

// FeedConfiguration はユーザーごとのフィード設定（1:1）。
// 表示トグルと4つのスコアリング重みを保持する。
// 更新時は当該ユーザーのタイムラインキャッシュを必ず無効化すること。
type FeedConfiguration struct {
	ID     string
	UserID string

	// 表示トグル
	ShowUniversityPosts bool
	ShowPublicPosts     bool
	ShowProjectUpdates  bool

	// コンテンツフィルタ
	PreferredPostTypes []string
	BlockedUserIDs     []string

	// アルゴリズム重み（各 [0, 1]、合計 ≈ 1.0）
	RecencyWeight    float64
	RelevanceWeight  float64
	EngagementWeight float64
	UniversityWeight float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultFeedConfiguration は指定ユーザーのデフォルト設定を生成する。
// IDは永続化層で採番する。
func DefaultFeedConfiguration(userID string) *FeedConfiguration {
	return &FeedConfiguration{
		UserID:              userID,
		ShowUniversityPosts: true,
		ShowPublicPosts:     true,
		ShowProjectUpdates:  true,
		RecencyWeight:       DefaultRecencyWeight,
		RelevanceWeight:     DefaultRelevanceWeight,
		EngagementWeight:    DefaultEngagementWeight,
		UniversityWeight:    DefaultUniversityWeight,
	}
}

// Validate は設定の整合性を検証する。
// 各重みが[0,1]の範囲にあり、合計が1.0±許容幅に収まらない場合は
// バリデーションエラーを返す。暗黙の補正は行わない。
func (c *FeedConfiguration) Validate() error {
	weights := []float64{
		c.RecencyWeight, c.RelevanceWeight,
		c.EngagementWeight, c.UniversityWeight,
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 || w > 1 {
			return NewInvalidWeightsError()
		}
		sum += w
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return NewInvalidWeightsError()
	}
	return nil
}

// IsBlocked は指定ユーザーがブロック対象かどうかを返す。
func (c *FeedConfiguration) IsBlocked(userID string) bool {
	for _, id := range c.BlockedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
