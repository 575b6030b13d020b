package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/campusfeed/internal/model"
)

// PostgresContentScoreRepo はPostgreSQLを使用したコンテンツスコアリポジトリ。
type PostgresContentScoreRepo struct {
	db *sql.DB
}

// NewPostgresContentScoreRepo はPostgresContentScoreRepoを生成する。
func NewPostgresContentScoreRepo(db *sql.DB) *PostgresContentScoreRepo {
	return &PostgresContentScoreRepo{db: db}
}

// nudgeInitialBaseScore はオンライン加算で行を新規作成する際のbase_score初期値。
const nudgeInitialBaseScore = 50.0

// FindByRef は(content_type, content_id)のスコアを取得する。見つからない場合はnilを返す。
func (r *PostgresContentScoreRepo) FindByRef(ctx context.Context, ref model.ContentRef) (*model.ContentScore, error) {
	score := &model.ContentScore{}

	err := r.db.QueryRowContext(ctx,
		`SELECT id, content_type, content_id, base_score, engagement_score,
		        recency_score, trending_score, calculated_at, expires_at
		 FROM content_scores
		 WHERE content_type = $1 AND content_id = $2`,
		ref.ContentType, ref.ContentID,
	).Scan(
		&score.ID, &score.ContentType, &score.ContentID, &score.BaseScore,
		&score.EngagementScore, &score.RecencyScore, &score.TrendingScore,
		&score.CalculatedAt, &score.ExpiresAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("コンテンツスコアの取得に失敗しました: %w", err)
	}

	return score, nil
}

// Upsert はスコアを(content_type, content_id)をキーに冪等にUPSERTする。
func (r *PostgresContentScoreRepo) Upsert(ctx context.Context, score *model.ContentScore) error {
	if score.ID == "" {
		score.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO content_scores
		   (id, content_type, content_id, base_score, engagement_score,
		    recency_score, trending_score, calculated_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now(), $8)
		 ON CONFLICT (content_type, content_id) DO UPDATE SET
		   base_score = EXCLUDED.base_score,
		   engagement_score = EXCLUDED.engagement_score,
		   recency_score = EXCLUDED.recency_score,
		   trending_score = EXCLUDED.trending_score,
		   calculated_at = now(),
		   expires_at = EXCLUDED.expires_at`,
		score.ID, score.ContentType, score.ContentID, score.BaseScore,
		score.EngagementScore, score.RecencyScore, score.TrendingScore,
		score.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("コンテンツスコアの保存に失敗しました: %w", err)
	}

	return nil
}

// ApplyEngagementNudge はengagement_scoreをdeltaだけ加算し、
// base_scoreを既存値と更新後engagement_scoreの上限付きブレンドに再計算する。
// 行が存在しない場合は初期値で作成してから加算する。
// base_scoreは単調非減少（加算によって下がることはない）。
// 1文のUPSERTで行うため、並行加算でも行の消失は起きない
// （加算値同士の競合による取りこぼしは定期再計算が補正する）。
func (r *PostgresContentScoreRepo) ApplyEngagementNudge(ctx context.Context, ref model.ContentRef, delta float64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO content_scores
		   (id, content_type, content_id, base_score, engagement_score,
		    recency_score, trending_score, calculated_at, expires_at)
		 VALUES ($1, $2, $3, $4, LEAST(100, $5), 0, 0, now(), $6)
		 ON CONFLICT (content_type, content_id) DO UPDATE SET
		   engagement_score = LEAST(100, content_scores.engagement_score + $5),
		   base_score = LEAST(100, GREATEST(
		     content_scores.base_score,
		     0.7 * content_scores.base_score
		       + 0.3 * LEAST(100, content_scores.engagement_score + $5))),
		   calculated_at = now(),
		   expires_at = $6`,
		uuid.New().String(), ref.ContentType, ref.ContentID,
		nudgeInitialBaseScore, delta, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("エンゲージメントスコアの加算に失敗しました: %w", err)
	}

	return nil
}

// DeleteExpired はexpires_atがnowより前の行を削除し、削除件数を返す。
func (r *PostgresContentScoreRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM content_scores WHERE expires_at < $1`,
		now,
	)
	if err != nil {
		return 0, fmt.Errorf("期限切れスコアの削除に失敗しました: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗しました: %w", err)
	}

	return deleted, nil
}
