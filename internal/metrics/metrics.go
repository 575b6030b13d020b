// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// タイムラインサービスやワーカーから利用する。
type MetricsCollector interface {
	RecordCacheHit(feedType string)
	RecordCacheMiss(feedType string)
	RecordTimelineGenerated(feedType string)
	RecordGenerationLatency(duration time.Duration)
	RecordInteraction(action string)
	RecordScoresRefreshed(count int)
	RecordScoresExpired(count int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	cacheHit          *prometheus.CounterVec
	cacheMiss         *prometheus.CounterVec
	timelineGenerated *prometheus.CounterVec
	generationLatency prometheus.Histogram
	interactions      *prometheus.CounterVec
	scoresRefreshed   prometheus.Counter
	scoresExpired     prometheus.Counter
	httpStatus        *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		cacheHit: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusfeed_cache_hit_total",
			Help: "タイムラインキャッシュヒットの合計数",
		}, []string{"feed_type"}),
		cacheMiss: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusfeed_cache_miss_total",
			Help: "タイムラインキャッシュミスの合計数",
		}, []string{"feed_type"}),
		timelineGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusfeed_timeline_generated_total",
			Help: "タイムライン生成の合計数",
		}, []string{"feed_type"}),
		generationLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "campusfeed_generation_latency_seconds",
			Help:    "タイムライン生成のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusfeed_interactions_total",
			Help: "記録されたインタラクションのアクション別合計数",
		}, []string{"action"}),
		scoresRefreshed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campusfeed_scores_refreshed_total",
			Help: "再計算されたコンテンツスコアの合計数",
		}),
		scoresExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "campusfeed_scores_expired_total",
			Help: "期限切れで削除されたコンテンツスコアの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campusfeed_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.cacheHit,
		c.cacheMiss,
		c.timelineGenerated,
		c.generationLatency,
		c.interactions,
		c.scoresRefreshed,
		c.scoresExpired,
		c.httpStatus,
	)

	return c
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit(feedType string) {
	c.cacheHit.WithLabelValues(feedType).Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss(feedType string) {
	c.cacheMiss.WithLabelValues(feedType).Inc()
}

// RecordTimelineGenerated はタイムライン生成を記録する。
func (c *Collector) RecordTimelineGenerated(feedType string) {
	c.timelineGenerated.WithLabelValues(feedType).Inc()
}

// RecordGenerationLatency はタイムライン生成のレイテンシを記録する。
func (c *Collector) RecordGenerationLatency(duration time.Duration) {
	c.generationLatency.Observe(duration.Seconds())
}

// RecordInteraction はインタラクションの記録をアクション別に数える。
func (c *Collector) RecordInteraction(action string) {
	c.interactions.WithLabelValues(action).Inc()
}

// RecordScoresRefreshed は再計算されたスコア数を記録する。
func (c *Collector) RecordScoresRefreshed(count int) {
	c.scoresRefreshed.Add(float64(count))
}

// RecordScoresExpired は期限切れ削除されたスコア数を記録する。
func (c *Collector) RecordScoresExpired(count int) {
	c.scoresExpired.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
