package scorerefresh

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval は再計算サイクルのデフォルト実行間隔。
const DefaultInterval = time.Hour

// Scheduler はスコア再計算サイクルを一定間隔で繰り返し実行する。
type Scheduler struct {
	refresher *Refresher
	logger    *slog.Logger
}

// NewScheduler はSchedulerを生成する。
func NewScheduler(refresher *Refresher, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		refresher: refresher,
		logger:    logger,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("スコア再計算スケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行
	if err := s.refresher.RunOnce(ctx); err != nil {
		s.logger.Error("スコア再計算サイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("スコア再計算スケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.refresher.RunOnce(ctx); err != nil {
				s.logger.Error("スコア再計算サイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}
