// Package app はアプリケーションの起動と依存関係のワイヤリングを行う。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/campusfeed/internal/config"
	"github.com/hitoshi/campusfeed/internal/database"
	"github.com/hitoshi/campusfeed/internal/feedconfig"
	"github.com/hitoshi/campusfeed/internal/handler"
	"github.com/hitoshi/campusfeed/internal/interaction"
	"github.com/hitoshi/campusfeed/internal/logger"
	"github.com/hitoshi/campusfeed/internal/metrics"
	"github.com/hitoshi/campusfeed/internal/middleware"
	"github.com/hitoshi/campusfeed/internal/repository"
	"github.com/hitoshi/campusfeed/internal/security"
	"github.com/hitoshi/campusfeed/internal/timeline"
	"github.com/hitoshi/campusfeed/internal/worker/scorerefresh"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DBとRedisの接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. Redis接続（タイムラインキャッシュ）
	redisClient, err := database.OpenRedis(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to open redis: %w", err)
	}
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	slog.Info("redis connection established")

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	followRepo := repository.NewPostgresFollowRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)
	scoreRepo := repository.NewPostgresContentScoreRepo(db)
	interactionRepo := repository.NewPostgresInteractionRepo(db)
	feedConfigRepo := repository.NewPostgresFeedConfigRepo(db)
	cacheRepo := repository.NewRedisTimelineCacheRepo(redisClient)

	// 4. メトリクスとセキュリティサービスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	sanitizer := security.NewContentSanitizer()

	// 5. ドメインサービスの初期化
	var jitter timeline.JitterSource = timeline.NewRandJitter()
	if cfg.JitterDisabled {
		jitter = timeline.NoJitter{}
	}
	scorer := timeline.NewScorer(
		timeline.ConstantRelevance{Value: timeline.DefaultRelevance}, jitter,
	)
	generator := timeline.NewGenerator(
		postRepo, projectRepo, followRepo, scorer, cfg.CandidateWindowDays,
	)
	hydrator := timeline.NewHydrator(postRepo, projectRepo, interactionRepo, sanitizer)

	configService := feedconfig.NewService(feedConfigRepo, cacheRepo, slog.Default())
	timelineService := timeline.NewService(
		userRepo, cacheRepo, generator, hydrator, configService,
		collector, slog.Default(), cfg.CacheTTL,
	)
	interactionService := interaction.NewService(
		interactionRepo, scoreRepo, postRepo, projectRepo,
		collector, slog.Default(),
	)

	// 6. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.RateLimiterConfigFor(cfg.RateLimitGeneral, cfg.RateLimitTrack),
	)
	defer rateLimiter.Stop()

	router := handler.NewRouter(&handler.RouterDeps{
		HealthChecker:     db,
		SessionFinder:     sessionRepo,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,
		Logger:            slog.Default(),
		StatusRecorder:    collector,
		MetricsGatherer:   registry,

		TimelineService:    timelineService,
		InteractionService: interactionService,
		ConfigService:      configService,
	})

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はスコア再計算ワーカーモードで起動する。
// DB接続を開き、再計算スケジューラを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリの初期化
	postRepo := repository.NewPostgresPostRepo(db)
	projectRepo := repository.NewPostgresProjectRepo(db)
	scoreRepo := repository.NewPostgresContentScoreRepo(db)

	// 3. 再計算ジョブの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	refresher := scorerefresh.NewRefresher(
		postRepo, projectRepo, scoreRepo, collector, slog.Default(),
		cfg.ScoreBatchSize, cfg.ScoreRefreshWindowDays,
	)
	scheduler := scorerefresh.NewScheduler(refresher, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("refresh_interval", cfg.ScoreRefreshInterval),
		slog.Int("batch_size", cfg.ScoreBatchSize),
	)

	// スケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.ScoreRefreshInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
