// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// フィードエンジンが参照するのは大学所属の解決のみで、
// 登録・認証フローは外部の責務とする。
type User struct {
	ID           string
	Email        string
	Name         string
	UniversityID string // 所属大学。未所属の場合は空文字列。
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasUniversity はユーザーが大学に所属しているかどうかを返す。
// 未所属ユーザーのuniversityフィードは常に空になる。
func (u *User) HasUniversity() bool {
	return u.UniversityID != ""
}

// Session はユーザーのログインセッションを表す。
// セッションの発行は外部の認証基盤が行い、本サービスは検証のみを行う。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
