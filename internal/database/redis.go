package database

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// OpenRedis はRedis接続クライアントを生成する。
// redisURLはRedisの接続URLを指定する（例: "redis://localhost:6379/0"）。
// 接続確認は呼び出し側でclient.Ping()を使用すること。
func OpenRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return redis.NewClient(opts), nil
}
