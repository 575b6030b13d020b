package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/campusfeed/internal/feedconfig"
	"github.com/hitoshi/campusfeed/internal/middleware"
	"github.com/hitoshi/campusfeed/internal/model"
)

// ConfigServiceInterface はフィード設定ハンドラーが必要とするサービスインターフェース。
type ConfigServiceInterface interface {
	// GetOrCreate は設定を返す。存在しない場合はデフォルト値で作成する。
	GetOrCreate(ctx context.Context, userID string) (*model.FeedConfiguration, error)
	// Update は設定を部分更新する。
	Update(ctx context.Context, userID string, input feedconfig.UpdateInput) (*model.FeedConfiguration, error)
}

// ConfigHandler はフィード設定のHTTPハンドラー。
type ConfigHandler struct {
	service ConfigServiceInterface
}

// NewConfigHandler はConfigHandlerを生成する。
func NewConfigHandler(service ConfigServiceInterface) *ConfigHandler {
	return &ConfigHandler{service: service}
}

// feedConfigResponse はフィード設定のレスポンス。
type feedConfigResponse struct {
	ID                  string    `json:"id"`
	ShowUniversityPosts bool      `json:"show_university_posts"`
	ShowPublicPosts     bool      `json:"show_public_posts"`
	ShowProjectUpdates  bool      `json:"show_project_updates"`
	PreferredPostTypes  []string  `json:"preferred_post_types"`
	BlockedUserIDs      []string  `json:"blocked_user_ids"`
	RecencyWeight       float64   `json:"recency_weight"`
	RelevanceWeight     float64   `json:"relevance_weight"`
	EngagementWeight    float64   `json:"engagement_weight"`
	UniversityWeight    float64   `json:"university_weight"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// configUpdateRequest は設定更新リクエストのボディ。nilのフィールドは変更しない。
type configUpdateRequest struct {
	ShowUniversityPosts *bool     `json:"show_university_posts,omitempty"`
	ShowPublicPosts     *bool     `json:"show_public_posts,omitempty"`
	ShowProjectUpdates  *bool     `json:"show_project_updates,omitempty"`
	PreferredPostTypes  *[]string `json:"preferred_post_types,omitempty"`
	BlockedUserIDs      *[]string `json:"blocked_user_ids,omitempty"`
	RecencyWeight       *float64  `json:"recency_weight,omitempty"`
	RelevanceWeight     *float64  `json:"relevance_weight,omitempty"`
	EngagementWeight    *float64  `json:"engagement_weight,omitempty"`
	UniversityWeight    *float64  `json:"university_weight,omitempty"`
}

// GetConfig はフィード設定を取得する。未作成の場合はデフォルト値で作成して返す。
// GET /api/timeline/config
func (h *ConfigHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	config, err := h.service.GetOrCreate(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toFeedConfigResponse(config))
}

// UpdateConfig はフィード設定を部分更新する。
// PUT /api/timeline/config
func (h *ConfigHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req configUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	config, err := h.service.Update(r.Context(), userID, feedconfig.UpdateInput{
		ShowUniversityPosts: req.ShowUniversityPosts,
		ShowPublicPosts:     req.ShowPublicPosts,
		ShowProjectUpdates:  req.ShowProjectUpdates,
		PreferredPostTypes:  req.PreferredPostTypes,
		BlockedUserIDs:      req.BlockedUserIDs,
		RecencyWeight:       req.RecencyWeight,
		RelevanceWeight:     req.RelevanceWeight,
		EngagementWeight:    req.EngagementWeight,
		UniversityWeight:    req.UniversityWeight,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toFeedConfigResponse(config))
}

// toFeedConfigResponse は設定をレスポンス型に変換する。
// スライスはJSONでnullにならないよう空スライスに正規化する。
func toFeedConfigResponse(config *model.FeedConfiguration) feedConfigResponse {
	preferred := config.PreferredPostTypes
	if preferred == nil {
		preferred = []string{}
	}
	blocked := config.BlockedUserIDs
	if blocked == nil {
		blocked = []string{}
	}
	return feedConfigResponse{
		ID:                  config.ID,
		ShowUniversityPosts: config.ShowUniversityPosts,
		ShowPublicPosts:     config.ShowPublicPosts,
		ShowProjectUpdates:  config.ShowProjectUpdates,
		PreferredPostTypes:  preferred,
		BlockedUserIDs:      blocked,
		RecencyWeight:       config.RecencyWeight,
		RelevanceWeight:     config.RelevanceWeight,
		EngagementWeight:    config.EngagementWeight,
		UniversityWeight:    config.UniversityWeight,
		UpdatedAt:           config.UpdatedAt,
	}
}
