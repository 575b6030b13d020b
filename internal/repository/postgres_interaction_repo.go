package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/campusfeed/internal/model"
)

// PostgresInteractionRepo はPostgreSQLを使用したインタラクションリポジトリ。
type PostgresInteractionRepo struct {
	db *sql.DB
}

// NewPostgresInteractionRepo はPostgresInteractionRepoを生成する。
func NewPostgresInteractionRepo(db *sql.DB) *PostgresInteractionRepo {
	return &PostgresInteractionRepo{db: db}
}

// Create はインタラクションを追記する。更新・削除は提供しない。
func (r *PostgresInteractionRepo) Create(ctx context.Context, interaction *model.UserInteraction) error {
	if interaction.ID == "" {
		interaction.ID = uuid.New().String()
	}
	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now()
	}

	var feedContext interface{}
	if interaction.FeedContext != nil {
		feedContext = string(*interaction.FeedContext)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_interactions
		   (id, user_id, content_type, content_id, action, view_time, feed_context, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		interaction.ID, interaction.UserID, interaction.ContentType,
		interaction.ContentID, interaction.Action, interaction.ViewTime,
		feedContext, interaction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("インタラクションの記録に失敗しました: %w", err)
	}

	return nil
}

// ListActionsByUserAndRefs は指定ユーザーの、指定コンテンツ参照群に対する
// アクション一覧を返す。参照ごとに重複を除いたアクション集合を返す。
func (r *PostgresInteractionRepo) ListActionsByUserAndRefs(ctx context.Context, userID string, refs []model.ContentRef) (map[model.ContentRef][]model.InteractionAction, error) {
	if len(refs) == 0 {
		return map[model.ContentRef][]model.InteractionAction{}, nil
	}

	types := make([]string, len(refs))
	ids := make([]string, len(refs))
	for i, ref := range refs {
		types[i] = string(ref.ContentType)
		ids[i] = ref.ContentID
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT content_type, content_id, action
		 FROM user_interactions
		 WHERE user_id = $1
		   AND (content_type, content_id) IN (
		     SELECT unnest($2::text[]), unnest($3::uuid[])
		   )`,
		userID, pq.Array(types), pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("インタラクション履歴の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	actions := make(map[model.ContentRef][]model.InteractionAction)
	for rows.Next() {
		var ref model.ContentRef
		var action model.InteractionAction
		if err := rows.Scan(&ref.ContentType, &ref.ContentID, &action); err != nil {
			return nil, fmt.Errorf("インタラクション履歴の読み取りに失敗しました: %w", err)
		}
		actions[ref] = append(actions[ref], action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("インタラクション履歴の走査に失敗しました: %w", err)
	}

	return actions, nil
}
