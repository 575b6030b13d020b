package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/campusfeed/internal/model"
)

// PostgresProjectRepo はPostgreSQLを使用したプロジェクトの読み取り専用リポジトリ。
type PostgresProjectRepo struct {
	db *sql.DB
}

// NewPostgresProjectRepo はPostgresProjectRepoを生成する。
func NewPostgresProjectRepo(db *sql.DB) *PostgresProjectRepo {
	return &PostgresProjectRepo{db: db}
}

// projectColumns はプロジェクトビューのSELECT対象列。
const projectColumns = `id, owner_id, university_id, title, description, visibility,
	needs, team_member_count, created_at`

// scanProjects は行セットをプロジェクトスライスに変換する。
func scanProjects(rows *sql.Rows) ([]*model.Project, error) {
	var projects []*model.Project
	for rows.Next() {
		p := &model.Project{}
		var universityID sql.NullString
		var needs pq.StringArray
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &universityID, &p.Title, &p.Description,
			&p.Visibility, &needs, &p.TeamMemberCount, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("プロジェクトの読み取りに失敗しました: %w", err)
		}
		if universityID.Valid {
			p.UniversityID = universityID.String
		}
		p.Needs = []string(needs)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("プロジェクトの走査に失敗しました: %w", err)
	}
	return projects, nil
}

// ListUniversityCandidates は指定大学のプロジェクト（visibility: university/public）を
// 新しい順に最大limit件返す。
func (r *PostgresProjectRepo) ListUniversityCandidates(ctx context.Context, universityID string, since time.Time, excludeOwnerIDs []string, limit int) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE university_id = $1
		   AND visibility IN ('university', 'public')
		   AND created_at >= $2
		   AND NOT (owner_id = ANY($3::uuid[]))
		 ORDER BY created_at DESC
		 LIMIT $4`,
		universityID, since, pq.Array(excludeOwnerIDs), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("大学プロジェクトの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// ListPublicCandidates はパブリックプロジェクトを新しい順に最大limit件返す。
func (r *PostgresProjectRepo) ListPublicCandidates(ctx context.Context, since time.Time, excludeUniversityID string, excludeOwnerIDs []string, limit int) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE visibility = 'public'
		   AND created_at >= $1
		   AND ($2::uuid IS NULL OR university_id IS DISTINCT FROM $2::uuid)
		   AND NOT (owner_id = ANY($3::uuid[]))
		 ORDER BY created_at DESC
		 LIMIT $4`,
		since, nullUUID(excludeUniversityID), pq.Array(excludeOwnerIDs), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("パブリックプロジェクトの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// ListByOwnerCandidates は指定所有者群のプロジェクトを新しい順に最大limit件返す。
func (r *PostgresProjectRepo) ListByOwnerCandidates(ctx context.Context, ownerIDs []string, viewerUniversityID string, since time.Time, limit int) ([]*model.Project, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE owner_id = ANY($1::uuid[])
		   AND created_at >= $2
		   AND (visibility = 'public'
		        OR (visibility = 'university' AND $3::uuid IS NOT NULL AND university_id = $3::uuid))
		 ORDER BY created_at DESC
		 LIMIT $4`,
		pq.Array(ownerIDs), since, nullUUID(viewerUniversityID), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("フォロー先プロジェクトの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// FindByIDs は指定ID群のプロジェクトを一括取得する。存在しないIDは結果から落ちる。
func (r *PostgresProjectRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE id = ANY($1::uuid[])`,
		pq.Array(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("プロジェクトの一括取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}

// ListRecentForScoring はスコア再計算の対象プロジェクトをバッチ取得する。
func (r *PostgresProjectRepo) ListRecentForScoring(ctx context.Context, since time.Time, offset, limit int) ([]*model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+projectColumns+`
		 FROM projects
		 WHERE created_at >= $1
		   AND visibility IN ('public', 'university')
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		since, offset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("スコア対象プロジェクトの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanProjects(rows)
}
