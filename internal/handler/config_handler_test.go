package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/campusfeed/internal/feedconfig"
	"github.com/hitoshi/campusfeed/internal/middleware"
	"github.com/hitoshi/campusfeed/internal/model"
)

type mockConfigService struct {
	getOrCreateFn func(ctx context.Context, userID string) (*model.FeedConfiguration, error)
	updateFn      func(ctx context.Context, userID string, input feedconfig.UpdateInput) (*model.FeedConfiguration, error)
}

func (m *mockConfigService) GetOrCreate(ctx context.Context, userID string) (*model.FeedConfiguration, error) {
	return m.getOrCreateFn(ctx, userID)
}

func (m *mockConfigService) Update(ctx context.Context, userID string, input feedconfig.UpdateInput) (*model.FeedConfiguration, error) {
	return m.updateFn(ctx, userID, input)
}

func newConfigRequest(method, userID, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, "/api/timeline/config", nil)
	} else {
		req = httptest.NewRequest(method, "/api/timeline/config", strings.NewReader(body))
	}
	if userID != "" {
		req = req.WithContext(middleware.ContextWithUserID(req.Context(), userID))
	}
	return req
}

// TestGetConfig_ReturnsConfiguration は設定取得のレスポンスを検証する。
// nilのスライスは空配列として返す。
func TestGetConfig_ReturnsConfiguration(t *testing.T) {
	svc := &mockConfigService{
		getOrCreateFn: func(ctx context.Context, userID string) (*model.FeedConfiguration, error) {
			if userID != "user-1" {
				t.Errorf("userID = %s", userID)
			}
			config := model.DefaultFeedConfiguration(userID)
			config.ID = "config-1"
			return config, nil
		},
	}
	h := NewConfigHandler(svc)

	rec := httptest.NewRecorder()
	h.GetConfig(rec, newConfigRequest(http.MethodGet, "user-1", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp feedConfigResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "config-1" || resp.RecencyWeight != 0.4 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.PreferredPostTypes == nil || resp.BlockedUserIDs == nil {
		t.Error("slices should serialize as empty arrays, not null")
	}
}

// TestUpdateConfig_PassesPartialInput は指定フィールドのみが
// サービス入力に渡ることを検証する。
func TestUpdateConfig_PassesPartialInput(t *testing.T) {
	svc := &mockConfigService{
		updateFn: func(ctx context.Context, userID string, input feedconfig.UpdateInput) (*model.FeedConfiguration, error) {
			if input.RecencyWeight == nil || *input.RecencyWeight != 0.5 {
				t.Errorf("recency_weight = %v, want 0.5", input.RecencyWeight)
			}
			if input.ShowPublicPosts == nil || *input.ShowPublicPosts {
				t.Errorf("show_public_posts = %v, want false", input.ShowPublicPosts)
			}
			if input.ShowUniversityPosts != nil {
				t.Error("unspecified fields should be nil")
			}
			if input.BlockedUserIDs == nil || len(*input.BlockedUserIDs) != 1 {
				t.Errorf("blocked_user_ids = %v", input.BlockedUserIDs)
			}
			config := model.DefaultFeedConfiguration(userID)
			config.RecencyWeight = 0.5
			config.ShowPublicPosts = false
			config.BlockedUserIDs = *input.BlockedUserIDs
			return config, nil
		},
	}
	h := NewConfigHandler(svc)

	rec := httptest.NewRecorder()
	h.UpdateConfig(rec, newConfigRequest(http.MethodPut, "user-1", `{
		"recency_weight": 0.5,
		"show_public_posts": false,
		"blocked_user_ids": ["user-9"]
	}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp feedConfigResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RecencyWeight != 0.5 || resp.ShowPublicPosts {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.BlockedUserIDs) != 1 || resp.BlockedUserIDs[0] != "user-9" {
		t.Errorf("blocked_user_ids = %v", resp.BlockedUserIDs)
	}
}

// TestUpdateConfig_InvalidWeights は重み検証エラーが400で返ることを検証する。
func TestUpdateConfig_InvalidWeights(t *testing.T) {
	svc := &mockConfigService{
		updateFn: func(ctx context.Context, userID string, input feedconfig.UpdateInput) (*model.FeedConfiguration, error) {
			return nil, model.NewInvalidWeightsError()
		},
	}
	h := NewConfigHandler(svc)

	rec := httptest.NewRecorder()
	h.UpdateConfig(rec, newConfigRequest(http.MethodPut, "user-1", `{"recency_weight": 0.9}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if body := decodeErrorBody(t, rec); body.Code != model.ErrCodeInvalidWeights {
		t.Errorf("code = %s, want INVALID_WEIGHTS", body.Code)
	}
}

// TestUpdateConfig_InvalidJSON は不正なボディを400で拒否する。
func TestUpdateConfig_InvalidJSON(t *testing.T) {
	h := NewConfigHandler(&mockConfigService{})

	rec := httptest.NewRecorder()
	h.UpdateConfig(rec, newConfigRequest(http.MethodPut, "user-1", "{broken"))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestConfig_Unauthorized は認証コンテキストのないリクエストを拒否する。
func TestConfig_Unauthorized(t *testing.T) {
	h := NewConfigHandler(&mockConfigService{})

	rec := httptest.NewRecorder()
	h.GetConfig(rec, newConfigRequest(http.MethodGet, "", ""))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("GET status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.UpdateConfig(rec, newConfigRequest(http.MethodPut, "", "{}"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("PUT status = %d, want 401", rec.Code)
	}
}
