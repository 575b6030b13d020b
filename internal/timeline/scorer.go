// Package timeline はタイムラインの生成・スコアリング・キャッシュ・表示組み立てを提供する。
package timeline

import (
	"math/rand"
	"sync"
	"time"

	"github.com/hitoshi/campusfeed/internal/model"
)

// スコアリングの各コンポーネントは [0, 25] に正規化される。
const (
	componentMax = 25.0

	// recencyDecayWindow はrecencyコンポーネントの線形減衰ウィンドウ。
	// 候補ウィンドウ（30日）とは独立で、24時間で0に達する。
	recencyDecayWindow = 24 * time.Hour

	// universityAffinityMatch は同一大学コンテンツのaffinity値。
	universityAffinityMatch = 25.0
	// universityAffinityFloor は他大学コンテンツのaffinity下限値。
	// 他大学のコンテンツを完全には隠さないための床。
	universityAffinityFloor = 5.0

	// projectBaseAttractiveness はプロジェクトengagementの基礎点。
	projectBaseAttractiveness = 15.0
	// projectNeedBonus は募集項目1件あたりの加点。
	projectNeedBonus = 2.0

	// DefaultRelevance は現行設計のrelevanceコンポーネント定数。
	// パーソナライズ導入時はRelevanceSourceの実装を差し替える。
	DefaultRelevance = 15.0

	// jitterRange はスコアに加えるランダムゆらぎの振幅（±2）。
	jitterRange = 2.0

	// FollowBoost はホームフィードでフォロー先コンテンツに与える固定加点。
	FollowBoost = 20.0
)

// JitterSource はスコアに加えるゆらぎの供給源。
// テストおよびJITTER_DISABLED時はNoJitterを注入して決定的にする。
type JitterSource interface {
	// Jitter はスコアに加算するゆらぎ値を返す。
	Jitter() float64
}

// NoJitter は常に0を返すJitterSource。
type NoJitter struct{}

// Jitter は常に0を返す。
func (NoJitter) Jitter() float64 { return 0 }

// RandJitter は±2の一様乱数を返すJitterSource。
type RandJitter struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandJitter は現在時刻をシードとするRandJitterを生成する。
func NewRandJitter() *RandJitter {
	return &RandJitter{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Jitter は[-2, +2]の一様乱数を返す。
func (j *RandJitter) Jitter() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return (j.rnd.Float64()*2 - 1) * jitterRange
}

// RelevanceSource はrelevanceコンポーネントの供給源。
// 現行設計は定数のプレースホルダであり、将来のパーソナライズ実装と
// 差し替えるための名前付きコンポーネントとして分離している。
type RelevanceSource interface {
	// Relevance は閲覧者とコンテンツ参照に対するrelevance値（0〜25）を返す。
	Relevance(viewerID string, ref model.ContentRef) float64
}

// ConstantRelevance は定数を返すRelevanceSource。
type ConstantRelevance struct {
	Value float64
}

// Relevance は設定された定数を返す。
func (c ConstantRelevance) Relevance(viewerID string, ref model.ContentRef) float64 {
	return c.Value
}

// Scorer はコンテンツの4コンポーネント加重スコアを計算する。
// 各コンポーネントを0〜25に正規化し、設定重み×4を掛けて合算、
// [0, 100]にクランプする。
type Scorer struct {
	relevance RelevanceSource
	jitter    JitterSource
}

// NewScorer はScorerを生成する。
func NewScorer(relevance RelevanceSource, jitter JitterSource) *Scorer {
	return &Scorer{relevance: relevance, jitter: jitter}
}

// NewDefaultScorer は定数relevance（15）とランダムゆらぎのScorerを生成する。
func NewDefaultScorer() *Scorer {
	return NewScorer(ConstantRelevance{Value: DefaultRelevance}, NewRandJitter())
}

// ScorePost は閲覧者と設定に基づき投稿のスコアを計算する。
func (s *Scorer) ScorePost(post *model.Post, viewerID, viewerUniversityID string, config *model.FeedConfiguration, now time.Time) float64 {
	ref := model.ContentRef{ContentType: model.ContentTypePost, ContentID: post.ID}
	return s.combine(
		recencyComponent(post.CreatedAt, now),
		postEngagementComponent(post.LikesCount, post.CommentsCount),
		universityAffinityComponent(post.UniversityID, viewerUniversityID),
		s.relevance.Relevance(viewerID, ref),
		config,
	)
}

// ScoreProject は閲覧者と設定に基づきプロジェクトのスコアを計算する。
func (s *Scorer) ScoreProject(project *model.Project, viewerID, viewerUniversityID string, config *model.FeedConfiguration, now time.Time) float64 {
	ref := model.ContentRef{ContentType: model.ContentTypeProject, ContentID: project.ID}
	return s.combine(
		recencyComponent(project.CreatedAt, now),
		projectEngagementComponent(len(project.Needs)),
		universityAffinityComponent(project.UniversityID, viewerUniversityID),
		s.relevance.Relevance(viewerID, ref),
		config,
	)
}

// combine はコンポーネントと重みを合成し、ゆらぎを加えてクランプする。
func (s *Scorer) combine(recency, engagement, affinity, relevance float64, config *model.FeedConfiguration) float64 {
	score := recency*config.RecencyWeight*4 +
		engagement*config.EngagementWeight*4 +
		affinity*config.UniversityWeight*4 +
		relevance*config.RelevanceWeight*4

	score += s.jitter.Jitter()

	return clampScore(score)
}

// recencyComponent は作成時刻からの線形減衰値を返す。
// 作成直後が25、24時間で0に達し、それ以降は0で据え置く。
func recencyComponent(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age <= 0 {
		return componentMax
	}
	if age >= recencyDecayWindow {
		return 0
	}
	return componentMax * (1 - float64(age)/float64(recencyDecayWindow))
}

// postEngagementComponent はいいね×2＋コメント×3（上限25）を返す。
func postEngagementComponent(likes, comments int) float64 {
	v := float64(likes)*2 + float64(comments)*3
	if v > componentMax {
		return componentMax
	}
	return v
}

// projectEngagementComponent は基礎点15＋募集1件あたり2点（上限25）を返す。
func projectEngagementComponent(needs int) float64 {
	v := projectBaseAttractiveness + float64(needs)*projectNeedBonus
	if v > componentMax {
		return componentMax
	}
	return v
}

// universityAffinityComponent は同一大学なら25、それ以外は床値5を返す。
func universityAffinityComponent(contentUniversityID, viewerUniversityID string) float64 {
	if contentUniversityID != "" && contentUniversityID == viewerUniversityID {
		return universityAffinityMatch
	}
	return universityAffinityFloor
}

// clampScore はスコアを[0, 100]にクランプする。
func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
