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

// PostgresFeedConfigRepo はPostgreSQLを使用したフィード設定リポジトリ。
type PostgresFeedConfigRepo struct {
	db *sql.DB
}

// NewPostgresFeedConfigRepo はPostgresFeedConfigRepoを生成する。
func NewPostgresFeedConfigRepo(db *sql.DB) *PostgresFeedConfigRepo {
	return &PostgresFeedConfigRepo{db: db}
}

// FindByUserID は指定ユーザーの設定を取得する。見つからない場合はnilを返す。
func (r *PostgresFeedConfigRepo) FindByUserID(ctx context.Context, userID string) (*model.FeedConfiguration, error) {
	config := &model.FeedConfiguration{}
	var preferredPostTypes, blockedUserIDs pq.StringArray

	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, show_university_posts, show_public_posts, show_project_updates,
		        preferred_post_types, blocked_user_ids,
		        recency_weight, relevance_weight, engagement_weight, university_weight,
		        created_at, updated_at
		 FROM feed_configurations
		 WHERE user_id = $1`,
		userID,
	).Scan(
		&config.ID, &config.UserID,
		&config.ShowUniversityPosts, &config.ShowPublicPosts, &config.ShowProjectUpdates,
		&preferredPostTypes, &blockedUserIDs,
		&config.RecencyWeight, &config.RelevanceWeight,
		&config.EngagementWeight, &config.UniversityWeight,
		&config.CreatedAt, &config.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("フィード設定の取得に失敗しました: %w", err)
	}

	config.PreferredPostTypes = []string(preferredPostTypes)
	config.BlockedUserIDs = []string(blockedUserIDs)

	return config, nil
}

// Create は設定を新規作成する。IDを採番して返す。
func (r *PostgresFeedConfigRepo) Create(ctx context.Context, config *model.FeedConfiguration) error {
	if config.ID == "" {
		config.ID = uuid.New().String()
	}
	now := time.Now()
	config.CreatedAt = now
	config.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO feed_configurations
		   (id, user_id, show_university_posts, show_public_posts, show_project_updates,
		    preferred_post_types, blocked_user_ids,
		    recency_weight, relevance_weight, engagement_weight, university_weight,
		    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		config.ID, config.UserID,
		config.ShowUniversityPosts, config.ShowPublicPosts, config.ShowProjectUpdates,
		pq.Array(config.PreferredPostTypes), pq.Array(config.BlockedUserIDs),
		config.RecencyWeight, config.RelevanceWeight,
		config.EngagementWeight, config.UniversityWeight,
		config.CreatedAt, config.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("フィード設定の作成に失敗しました: %w", err)
	}

	return nil
}

// Update は設定を上書き更新する。
func (r *PostgresFeedConfigRepo) Update(ctx context.Context, config *model.FeedConfiguration) error {
	config.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx,
		`UPDATE feed_configurations SET
		   show_university_posts = $2,
		   show_public_posts = $3,
		   show_project_updates = $4,
		   preferred_post_types = $5,
		   blocked_user_ids = $6,
		   recency_weight = $7,
		   relevance_weight = $8,
		   engagement_weight = $9,
		   university_weight = $10,
		   updated_at = $11
		 WHERE user_id = $1`,
		config.UserID,
		config.ShowUniversityPosts, config.ShowPublicPosts, config.ShowProjectUpdates,
		pq.Array(config.PreferredPostTypes), pq.Array(config.BlockedUserIDs),
		config.RecencyWeight, config.RelevanceWeight,
		config.EngagementWeight, config.UniversityWeight,
		config.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("フィード設定の更新に失敗しました: %w", err)
	}

	return nil
}
