// Package handler はHTTP APIのハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/campusfeed/internal/middleware"
	"github.com/hitoshi/campusfeed/internal/model"
	"github.com/hitoshi/campusfeed/internal/timeline"
)

// TimelineServiceInterface はタイムラインハンドラーが必要とするサービスインターフェース。
type TimelineServiceInterface interface {
	// GetTimeline は指定フィード種別のタイムラインページを返す。
	GetTimeline(ctx context.Context, userID string, feedType model.FeedType, page, pageSize int) (*timeline.TimelinePage, error)
}

// TimelineHandler はタイムライン取得のHTTPハンドラー。
type TimelineHandler struct {
	service TimelineServiceInterface
}

// NewTimelineHandler はTimelineHandlerを生成する。
func NewTimelineHandler(service TimelineServiceInterface) *TimelineHandler {
	return &TimelineHandler{service: service}
}

// --- レスポンス型 ---

// postResponse は投稿本体のレスポンス。
type postResponse struct {
	ID            string    `json:"id"`
	AuthorID      string    `json:"author_id"`
	UniversityID  string    `json:"university_id,omitempty"`
	Content       string    `json:"content"` // サニタイズ済みHTML
	PostType      string    `json:"post_type"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// projectResponse はプロジェクト本体のレスポンス。
type projectResponse struct {
	ID              string    `json:"id"`
	OwnerID         string    `json:"owner_id"`
	UniversityID    string    `json:"university_id,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Needs           []string  `json:"needs"`
	TeamMemberCount int       `json:"team_member_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// timelineItemResponse はタイムライン項目のレスポンス。
// postとprojectはcontent_typeに応じていずれか一方のみ含まれる。
type timelineItemResponse struct {
	ContentType string           `json:"content_type"`
	ContentID   string           `json:"content_id"`
	Score       float64          `json:"score"`
	Post        *postResponse    `json:"post,omitempty"`
	Project     *projectResponse `json:"project,omitempty"`
	Viewed      bool             `json:"viewed"`
	Clicked     bool             `json:"clicked"`
	Liked       bool             `json:"liked"`
}

// timelinePageResponse はページネーション封筒付きのタイムラインレスポンス。
type timelinePageResponse struct {
	Results     []timelineItemResponse `json:"results"`
	Count       int                    `json:"count"`
	Page        int                    `json:"page"`
	PageSize    int                    `json:"page_size"`
	HasNext     bool                   `json:"has_next"`
	HasPrevious bool                   `json:"has_previous"`
}

// GetTimeline はタイムラインページを取得する。
// GET /api/timeline/:feedType?page=1&page_size=15
func (h *TimelineHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	feedType := model.FeedType(chi.URLParam(r, "feedType"))

	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		page, err = strconv.Atoi(v)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidPageError(0))
			return
		}
	}

	pageSize := 0
	if v := r.URL.Query().Get("page_size"); v != "" {
		pageSize, err = strconv.Atoi(v)
		if err != nil {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidPageSizeError(0))
			return
		}
	}

	result, err := h.service.GetTimeline(r.Context(), userID, feedType, page, pageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTimelinePageResponse(result))
}

// toTimelinePageResponse はサービス層のページ封筒をレスポンス型に変換する。
func toTimelinePageResponse(page *timeline.TimelinePage) timelinePageResponse {
	results := make([]timelineItemResponse, 0, len(page.Results))
	for _, item := range page.Results {
		results = append(results, toTimelineItemResponse(item))
	}
	return timelinePageResponse{
		Results:     results,
		Count:       page.Count,
		Page:        page.Page,
		PageSize:    page.PageSize,
		HasNext:     page.HasNext,
		HasPrevious: page.HasPrevious,
	}
}

func toTimelineItemResponse(item *model.TimelineItem) timelineItemResponse {
	resp := timelineItemResponse{
		ContentType: string(item.ContentType),
		ContentID:   item.ContentID,
		Score:       item.Score,
		Viewed:      item.Viewed,
		Clicked:     item.Clicked,
		Liked:       item.Liked,
	}
	if item.Post != nil {
		resp.Post = &postResponse{
			ID:            item.Post.ID,
			AuthorID:      item.Post.AuthorID,
			UniversityID:  item.Post.UniversityID,
			Content:       item.Post.Content,
			PostType:      item.Post.PostType,
			LikesCount:    item.Post.LikesCount,
			CommentsCount: item.Post.CommentsCount,
			CreatedAt:     item.Post.CreatedAt,
		}
	}
	if item.Project != nil {
		needs := item.Project.Needs
		if needs == nil {
			needs = []string{}
		}
		resp.Project = &projectResponse{
			ID:              item.Project.ID,
			OwnerID:         item.Project.OwnerID,
			UniversityID:    item.Project.UniversityID,
			Title:           item.Project.Title,
			Description:     item.Project.Description,
			Needs:           needs,
			TeamMemberCount: item.Project.TeamMemberCount,
			CreatedAt:       item.Project.CreatedAt,
		}
	}
	return resp
}

// --- 共通エラーヘルパー ---

// writeUnauthorized は認証エラーの統一レスポンスを書き込む。
func writeUnauthorized(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     "UNAUTHORIZED",
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidFeedType,
		model.ErrCodeInvalidAction,
		model.ErrCodeInvalidContentType,
		model.ErrCodeInvalidPage,
		model.ErrCodeInvalidPageSize,
		model.ErrCodeInvalidWeights,
		model.ErrCodeMissingContentID:
		return http.StatusBadRequest
	case model.ErrCodeContentNotFound:
		return http.StatusNotFound
	case model.ErrCodeUserNotFound:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
