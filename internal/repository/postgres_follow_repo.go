package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresFollowRepo はPostgreSQLを使用したフォロー関係リポジトリ。
// フォロー・アンフォローのCRUDはソーシャルグラフドメインの責務であり、
// フィードエンジンはフォロー先の解決のみを行う。
type PostgresFollowRepo struct {
	db *sql.DB
}

// NewPostgresFollowRepo はPostgresFollowRepoを生成する。
func NewPostgresFollowRepo(db *sql.DB) *PostgresFollowRepo {
	return &PostgresFollowRepo{db: db}
}

// ListFolloweeIDs は指定ユーザーがフォローしている相手のID一覧を返す。
func (r *PostgresFollowRepo) ListFolloweeIDs(ctx context.Context, followerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT followee_id FROM follows WHERE follower_id = $1`,
		followerID,
	)
	if err != nil {
		return nil, fmt.Errorf("フォロー先の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("フォロー先の読み取りに失敗しました: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("フォロー先の走査に失敗しました: %w", err)
	}

	return ids, nil
}
