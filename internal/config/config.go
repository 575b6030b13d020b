package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Redis（タイムラインキャッシュ）
	RedisURL string

	// Timeline
	CacheTTL            time.Duration // タイムラインキャッシュのTTL
	CandidateWindowDays int           // 候補コンテンツの対象期間（日）
	JitterDisabled      bool          // スコアのランダムジッターを無効化する

	// Score refresh worker
	ScoreRefreshInterval   time.Duration // スコア再計算の実行間隔
	ScoreRefreshWindowDays int           // 再計算対象コンテンツの期間（日）
	ScoreBatchSize         int           // バッチ処理のチャンクサイズ

	// Rate Limit（req/min/user）
	RateLimitGeneral int
	RateLimitTrack   int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.CacheTTL = getEnvDuration("CACHE_TTL", time.Hour)
	cfg.CandidateWindowDays = getEnvInt("CANDIDATE_WINDOW_DAYS", 30)
	cfg.JitterDisabled = getEnvBool("JITTER_DISABLED", false)
	cfg.ScoreRefreshInterval = getEnvDuration("SCORE_REFRESH_INTERVAL", time.Hour)
	cfg.ScoreRefreshWindowDays = getEnvInt("SCORE_REFRESH_WINDOW_DAYS", 7)
	cfg.ScoreBatchSize = getEnvInt("SCORE_BATCH_SIZE", 100)
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitTrack = getEnvInt("RATE_LIMIT_TRACK", 60)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
