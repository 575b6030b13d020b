// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, feed, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidFeedType    = "INVALID_FEED_TYPE"
	ErrCodeInvalidAction      = "INVALID_ACTION"
	ErrCodeInvalidContentType = "INVALID_CONTENT_TYPE"
	ErrCodeInvalidPage        = "INVALID_PAGE"
	ErrCodeInvalidPageSize    = "INVALID_PAGE_SIZE"
	ErrCodeInvalidWeights     = "INVALID_WEIGHTS"
	ErrCodeContentNotFound    = "CONTENT_NOT_FOUND"
	ErrCodeMissingContentID   = "MISSING_CONTENT_ID"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewInvalidFeedTypeError は無効なフィード種別エラーを生成する。
func NewInvalidFeedTypeError(feedType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFeedType,
		Message:  fmt.Sprintf("無効なフィード種別です: %s", feedType),
		Category: "validation",
		Action:   "フィード種別には home、university、public のいずれかを指定してください。",
	}
}

// NewInvalidActionError は無効なインタラクション種別エラーを生成する。
func NewInvalidActionError(action string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAction,
		Message:  fmt.Sprintf("無効なアクションです: %s", action),
		Category: "validation",
		Action:   "アクションには view、click、like、share、comment のいずれかを指定してください。",
	}
}

// NewInvalidContentTypeError は無効なコンテンツ種別エラーを生成する。
func NewInvalidContentTypeError(contentType string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidContentType,
		Message:  fmt.Sprintf("無効なコンテンツ種別です: %s", contentType),
		Category: "validation",
		Action:   "コンテンツ種別には post または project を指定してください。",
	}
}

// NewInvalidPageError は無効なページ番号エラーを生成する。
func NewInvalidPageError(page int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPage,
		Message:  fmt.Sprintf("無効なページ番号です: %d", page),
		Category: "validation",
		Action:   "ページ番号には1以上の整数を指定してください。",
	}
}

// NewInvalidPageSizeError は無効なページサイズエラーを生成する。
func NewInvalidPageSizeError(pageSize int) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPageSize,
		Message:  fmt.Sprintf("無効なページサイズです: %d", pageSize),
		Category: "validation",
		Action:   "ページサイズには1から50までの整数を指定してください。",
	}
}

// NewInvalidWeightsError はアルゴリズム重みの検証エラーを生成する。
func NewInvalidWeightsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidWeights,
		Message:  "アルゴリズム重みの合計はおよそ1.0である必要があります。",
		Category: "validation",
		Action:   "各重みを0以上1以下とし、4つの重みの合計が0.9から1.1の範囲に収まるよう調整してください。",
	}
}

// NewContentNotFoundError はコンテンツ未検出エラーを生成する。
func NewContentNotFoundError(contentType ContentType, contentID string) *APIError {
	return &APIError{
		Code:     ErrCodeContentNotFound,
		Message:  fmt.Sprintf("指定されたコンテンツが見つかりません: %s %s", contentType, contentID),
		Category: "feed",
		Action:   "コンテンツ種別とIDを確認してください。",
	}
}

// NewMissingContentIDError はコンテンツID未指定エラーを生成する。
func NewMissingContentIDError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingContentID,
		Message:  "content_idは必須です。",
		Category: "validation",
		Action:   "対象コンテンツのIDを指定してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
