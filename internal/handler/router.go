package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/campusfeed/internal/metrics"
	"github.com/hitoshi/campusfeed/internal/middleware"
)

// HealthChecker はヘルスチェック時の死活確認インターフェース。
// *sql.DB を受け付けることができる。
type HealthChecker interface {
	Ping() error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger
	StatusRecorder    middleware.HTTPStatusRecorder
	MetricsGatherer   prometheus.Gatherer

	// サービス
	TimelineService    TimelineServiceInterface
	InteractionService InteractionServiceInterface
	ConfigService      ConfigServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → Session → RateLimit(General)
//
// /health と /metrics は認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.Logger != nil {
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	}
	if deps.StatusRecorder != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.StatusRecorder))
	}

	// --- 認証不要のルート ---

	r.Get("/health", newHealthHandler(deps.HealthChecker))

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.MetricsGatherer))
	}

	timelineHandler := NewTimelineHandler(deps.TimelineService)
	interactionHandler := NewInteractionHandler(deps.InteractionService)
	configHandler := NewConfigHandler(deps.ConfigService)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api/timeline", func(r chi.Router) {
			// フィード設定
			r.Get("/config", configHandler.GetConfig)
			r.Put("/config", configHandler.UpdateConfig)

			// POST /api/timeline/interactions - 記録専用レート制限を追加
			r.With(deps.RateLimiter.TrackMiddleware()).Post("/interactions", interactionHandler.Track)

			// GET /api/timeline/:feedType - タイムライン取得
			r.Get("/{feedType}", timelineHandler.GetTimeline)
		})
	})

	return r
}

// newHealthHandler はDB死活確認付きのヘルスチェックハンドラーを返す。
func newHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.Ping(); err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				json.NewEncoder(w).Encode(map[string]string{
					"status": "unavailable",
				})
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
		})
	}
}
