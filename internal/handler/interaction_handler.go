package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/campusfeed/internal/interaction"
	"github.com/hitoshi/campusfeed/internal/middleware"
	"github.com/hitoshi/campusfeed/internal/model"
)

// InteractionServiceInterface はインタラクションハンドラーが必要とするサービスインターフェース。
type InteractionServiceInterface interface {
	// Track はインタラクションを検証・記録する。
	Track(ctx context.Context, userID string, input interaction.TrackInput) (*model.UserInteraction, error)
}

// InteractionHandler はインタラクション記録のHTTPハンドラー。
type InteractionHandler struct {
	service InteractionServiceInterface
}

// NewInteractionHandler はInteractionHandlerを生成する。
func NewInteractionHandler(service InteractionServiceInterface) *InteractionHandler {
	return &InteractionHandler{service: service}
}

// trackRequest はインタラクション記録リクエストのボディ。
type trackRequest struct {
	ContentType string   `json:"content_type"`
	ContentID   string   `json:"content_id"`
	Action      string   `json:"action"`
	ViewTime    *float64 `json:"view_time,omitempty"`
	FeedContext *string  `json:"feed_context,omitempty"`
}

// interactionResponse は記録されたインタラクションのレスポンス。
type interactionResponse struct {
	ID          string    `json:"id"`
	ContentType string    `json:"content_type"`
	ContentID   string    `json:"content_id"`
	Action      string    `json:"action"`
	ViewTime    *float64  `json:"view_time,omitempty"`
	FeedContext *string   `json:"feed_context,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Track はインタラクションを記録する。
// POST /api/timeline/interactions
func (h *InteractionHandler) Track(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorized(w)
		return
	}

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	input := interaction.TrackInput{
		ContentType: model.ContentType(req.ContentType),
		ContentID:   req.ContentID,
		Action:      model.InteractionAction(req.Action),
		ViewTime:    req.ViewTime,
	}
	if req.FeedContext != nil {
		fc := model.FeedContext(*req.FeedContext)
		input.FeedContext = &fc
	}

	recorded, err := h.service.Track(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := interactionResponse{
		ID:          recorded.ID,
		ContentType: string(recorded.ContentType),
		ContentID:   recorded.ContentID,
		Action:      string(recorded.Action),
		ViewTime:    recorded.ViewTime,
		CreatedAt:   recorded.CreatedAt,
	}
	if recorded.FeedContext != nil {
		fc := string(*recorded.FeedContext)
		resp.FeedContext = &fc
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}
