package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/campusfeed/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用した投稿の読み取り専用リポジトリ。
// 投稿のCRUDは投稿ドメインの責務であり、ここではフィード生成に
// 必要な候補取得と一括解決のみを提供する。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// postColumns は投稿ビューのSELECT対象列。
const postColumns = `id, author_id, university_id, content, post_type, visibility,
	likes_count, comments_count, created_at`

// scanPosts は行セットを投稿スライスに変換する。
func scanPosts(rows *sql.Rows) ([]*model.Post, error) {
	var posts []*model.Post
	for rows.Next() {
		p := &model.Post{}
		var universityID sql.NullString
		if err := rows.Scan(
			&p.ID, &p.AuthorID, &universityID, &p.Content, &p.PostType,
			&p.Visibility, &p.LikesCount, &p.CommentsCount, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("投稿の読み取りに失敗しました: %w", err)
		}
		if universityID.Valid {
			p.UniversityID = universityID.String
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿の走査に失敗しました: %w", err)
	}
	return posts, nil
}

// nullUUID は空文字列をNULLにマップするUUIDパラメータ変換。
func nullUUID(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// ListUniversityCandidates は指定大学の投稿（visibility: university/public）を
// 新しい順に最大limit件返す。
func (r *PostgresPostRepo) ListUniversityCandidates(ctx context.Context, universityID string, since time.Time, excludeAuthorIDs []string, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts
		 WHERE university_id = $1
		   AND visibility IN ('university', 'public')
		   AND created_at >= $2
		   AND NOT (author_id = ANY($3::uuid[]))
		 ORDER BY created_at DESC
		 LIMIT $4`,
		universityID, since, pq.Array(excludeAuthorIDs), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("大学投稿の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ListPublicCandidates はパブリック投稿を新しい順に最大limit件返す。
// excludeUniversityIDが空でない場合、その大学の投稿は除外する。
func (r *PostgresPostRepo) ListPublicCandidates(ctx context.Context, since time.Time, excludeUniversityID string, excludeAuthorIDs []string, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts
		 WHERE visibility = 'public'
		   AND created_at >= $1
		   AND ($2::uuid IS NULL OR university_id IS DISTINCT FROM $2::uuid)
		   AND NOT (author_id = ANY($3::uuid[]))
		 ORDER BY created_at DESC
		 LIMIT $4`,
		since, nullUUID(excludeUniversityID), pq.Array(excludeAuthorIDs), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("パブリック投稿の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ListByAuthorCandidates は指定著者群の投稿を新しい順に最大limit件返す。
// viewerUniversityIDに基づき、public投稿と同一大学のuniversity投稿のみを対象とする。
func (r *PostgresPostRepo) ListByAuthorCandidates(ctx context.Context, authorIDs []string, viewerUniversityID string, since time.Time, limit int) ([]*model.Post, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts
		 WHERE author_id = ANY($1::uuid[])
		   AND created_at >= $2
		   AND (visibility = 'public'
		        OR (visibility = 'university' AND $3::uuid IS NOT NULL AND university_id = $3::uuid))
		 ORDER BY created_at DESC
		 LIMIT $4`,
		pq.Array(authorIDs), since, nullUUID(viewerUniversityID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("フォロー先投稿の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// FindByIDs は指定ID群の投稿を一括取得する。存在しないIDは結果から落ちる。
func (r *PostgresPostRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts
		 WHERE id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("投稿の一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}

// ListRecentForScoring はスコア再計算の対象投稿をバッチ取得する。
func (r *PostgresPostRepo) ListRecentForScoring(ctx context.Context, since time.Time, offset, limit int) ([]*model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+postColumns+`
		 FROM posts
		 WHERE created_at >= $1
		   AND visibility IN ('public', 'university')
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		since, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("スコア対象投稿の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows)
}
