// Package model はドメインモデルを定義する。
package model

import "time"

// ContentType はフィードに載るコンテンツの種別を表す。
// コンテンツ本体（投稿・プロジェクト）は別ドメインに属するため、
// フィードエンジンからは (content_type, content_id) のペアでのみ参照する。
type ContentType string

const (
	// ContentTypePost は投稿コンテンツ。
	ContentTypePost ContentType = "post"
	// ContentTypeProject はプロジェクトコンテンツ。
	ContentTypeProject ContentType = "project"
	// ContentTypeUniversityAnnouncement は大学からのお知らせコンテンツ。
	ContentTypeUniversityAnnouncement ContentType = "university_announcement"
)

// ValidContentType はコンテンツ種別が定義済みの値かどうかを返す。
func ValidContentType(ct ContentType) bool {
	switch ct {
	case ContentTypePost, ContentTypeProject, ContentTypeUniversityAnnouncement:
		return true
	}
	return false
}

// Visibility はコンテンツの公開範囲を表す。
type Visibility string

const (
	// VisibilityPublic は全ユーザーに公開。
	VisibilityPublic Visibility = "public"
	// VisibilityUniversity は同一大学のユーザーにのみ公開。
	VisibilityUniversity Visibility = "university"
	// VisibilityPrivate は作成者本人にのみ公開。
	VisibilityPrivate Visibility = "private"
)

// ContentRef はコンテンツへの軽量な参照。
// タイムラインキャッシュにはこの参照とスコアのみを保存し、
// コンテンツ本体は表示時にまとめて解決する。
type ContentRef struct {
	ContentType ContentType
	ContentID   string
}

// Post は投稿の読み取り専用ビュー。
// 投稿のCRUDは別ドメインの責務であり、フィードエンジンは
// スコアリングに必要な属性のみを参照する。
type Post struct {
	ID            string
	AuthorID      string
	UniversityID  string // 著者の所属大学。未所属の場合は空文字列。
	Content       string // 本文HTML。表示前にサニタイズする。
	PostType      string // startup, research など
	Visibility    Visibility
	LikesCount    int
	CommentsCount int
	CreatedAt     time.Time
}

// Project はプロジェクトの読み取り専用ビュー。
type Project struct {
	ID              string
	OwnerID         string
	UniversityID    string
	Title           string
	Description     string
	Visibility      Visibility
	Needs           []string // 募集中の項目（funding, developer, designer など）
	TeamMemberCount int
	CreatedAt       time.Time
}
