package public

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/egor-mailer/linktrack/internal/models"
	"github.com/egor-mailer/linktrack/internal/provider"
	"github.com/egor-mailer/linktrack/internal/repository"
	"github.com/egor-mailer/linktrack/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Token{}, &models.Click{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	tokenRepo := repository.NewTokenRepository(db)
	clickRepo := repository.NewClickRepository(db)
	container := &provider.Container{
		TokenRepo: tokenRepo,
		ClickRepo: clickRepo,
		TokenService: service.NewTokenService(tokenRepo, service.TokenServiceOptions{
			BaseURL:      "http://localhost:8080",
			TokenTTLDays: 30,
		}),
		ClickService: service.NewClickService(tokenRepo, clickRepo, service.ClickServiceOptions{}),
		StatsService: service.NewStatsService(tokenRepo, clickRepo, service.StatsServiceOptions{}),
	}

	return newRouterWithContainer(container), db
}

func newRouterWithContainer(container *provider.Container) *gin.Engine {
	handler := New(container)
	r := gin.New()
	r.GET("/", handler.Index)
	r.GET("/health", handler.Health)
	r.POST("/generate-token", handler.GenerateToken)
	r.GET("/track/:token", handler.TrackClick)
	r.GET("/stats/:token", handler.GetTokenStats)
	r.POST("/tokens/:token/deactivate", handler.DeactivateToken)
	return r
}

// failingTokenRepo 所有操作都失败，模拟存储不可用
type failingTokenRepo struct{}

func (failingTokenRepo) Append(ctx context.Context, token *models.Token) error {
	return errors.New("storage down")
}

func (failingTokenRepo) Find(ctx context.Context, token string) (*models.Token, error) {
	return nil, errors.New("storage down")
}

func (failingTokenRepo) UpdateStatus(ctx context.Context, token, status string) (bool, error) {
	return false, errors.New("storage down")
}

func (failingTokenRepo) MarkExpiredInactive(ctx context.Context, now time.Time) (int64, error) {
	return 0, errors.New("storage down")
}

func (failingTokenRepo) Ping(ctx context.Context) error {
	return errors.New("storage down")
}

type failingClickRepo struct{}

func (failingClickRepo) Append(ctx context.Context, click *models.Click) error {
	return errors.New("storage down")
}

func (failingClickRepo) ListByToken(ctx context.Context, token string) ([]models.Click, error) {
	return nil, errors.New("storage down")
}

func newFailingRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokenRepo := failingTokenRepo{}
	clickRepo := failingClickRepo{}
	container := &provider.Container{
		TokenRepo: tokenRepo,
		ClickRepo: clickRepo,
		TokenService: service.NewTokenService(tokenRepo, service.TokenServiceOptions{
			BaseURL:      "http://localhost:8080",
			TokenTTLDays: 30,
		}),
		ClickService: service.NewClickService(tokenRepo, clickRepo, service.ClickServiceOptions{}),
		StatsService: service.NewStatsService(tokenRepo, clickRepo, service.StatsServiceOptions{}),
	}
	return newRouterWithContainer(container)
}

func generateToken(t *testing.T, r *gin.Engine, body string) GenerateTokenResponse {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate-token", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("generate status want 201 got %d body=%s", w.Code, w.Body.String())
	}
	var resp GenerateTokenResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal generate response failed: %v", err)
	}
	return resp
}

func TestGenerateTokenEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	resp := generateToken(t, r, `{"target_url":"https://example.com/promo","email":"alice@example.com","campaign":"spring"}`)
	if resp.Token == "" {
		t.Fatalf("token should not be empty")
	}
	if resp.TrackerURL != "http://localhost:8080/track/"+resp.Token {
		t.Fatalf("tracker url mismatch: %s", resp.TrackerURL)
	}
	if resp.TargetURL != "https://example.com/promo" {
		t.Fatalf("target url want https://example.com/promo got %s", resp.TargetURL)
	}
	if resp.Campaign != "spring" {
		t.Fatalf("campaign want spring got %s", resp.Campaign)
	}
}

func TestGenerateTokenBadRequest(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing target", `{"email":"a@example.com"}`},
		{"invalid target", `{"target_url":"not-a-url"}`},
		{"malformed json", `{"target_url":`},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/generate-token", bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: status want 400 got %d", tc.name, w.Code)
		}
	}
}

func TestTrackClickRedirects(t *testing.T) {
	r, db := newTestRouter(t)
	resp := generateToken(t, r, `{"target_url":"https://example.com/landing"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/track/"+resp.Token, nil)
	req.Header.Set("User-Agent", "test-agent")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("track status want 302 got %d body=%s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "https://example.com/landing" {
		t.Fatalf("location want https://example.com/landing got %s", loc)
	}

	var count int64
	if err := db.Model(&models.Click{}).Where("token = ?", resp.Token).Count(&count).Error; err != nil {
		t.Fatalf("count clicks failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("click count want 1 got %d", count)
	}
}

func TestTrackClickPixelMode(t *testing.T) {
	r, db := newTestRouter(t)

	// 无目标地址的令牌按追踪像素处理：确认 JSON 而非 302
	pixel := models.Token{
		Token:     "pixel-mode-token",
		TargetURL: "",
		Campaign:  "open-tracking",
		Status:    "Active",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := db.Create(&pixel).Error; err != nil {
		t.Fatalf("create pixel token failed: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/track/"+pixel.Token, nil)
	req.Header.Set("User-Agent", "pixel-agent")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("pixel track status want 200 got %d body=%s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "" {
		t.Fatalf("pixel track should not redirect, got Location %s", loc)
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal pixel response failed: %v", err)
	}
	if body.Message != "Click tracked successfully" {
		t.Fatalf("message want 'Click tracked successfully' got %q", body.Message)
	}

	var count int64
	if err := db.Model(&models.Click{}).Where("token = ?", pixel.Token).Count(&count).Error; err != nil {
		t.Fatalf("count clicks failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("pixel click count want 1 got %d", count)
	}
}

func TestTrackClickUnknownToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/track/nonexistent-token", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status want 404 got %d", w.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal error body failed: %v", err)
	}
	if body.Error != "invalid or expired token" {
		t.Fatalf("error message want 'invalid or expired token' got %q", body.Error)
	}
}

func TestStatsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	resp := generateToken(t, r, `{"target_url":"https://example.com/sale","campaign":"sale"}`)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/track/"+resp.Token, nil)
		req.Header.Set("User-Agent", "test-agent")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusFound {
			t.Fatalf("track status want 302 got %d", w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats/"+resp.Token, nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("stats status want 200 got %d body=%s", w.Code, w.Body.String())
	}

	var stats service.TokenStats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("unmarshal stats failed: %v", err)
	}
	if stats.Token != resp.Token {
		t.Fatalf("stats token want %s got %s", resp.Token, stats.Token)
	}
	if stats.TotalClicks != 2 {
		t.Fatalf("total clicks want 2 got %d", stats.TotalClicks)
	}
	if stats.ClicksByUserAgent["test-agent"] != 2 {
		t.Fatalf("user agent count want 2 got %d", stats.ClicksByUserAgent["test-agent"])
	}
}

func TestStatsUnknownToken(t *testing.T) {
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats/nonexistent-token", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status want 404 got %d", w.Code)
	}
}

func TestDeactivateEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	resp := generateToken(t, r, `{"target_url":"https://example.com/stop"}`)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tokens/"+resp.Token+"/deactivate", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("deactivate status want 200 got %d body=%s", w.Code, w.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal deactivate response failed: %v", err)
	}
	if body["status"] != "Inactive" {
		t.Fatalf("status want Inactive got %s", body["status"])
	}

	// 停用后的点击对外按 404 处理
	w2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/track/"+resp.Token, nil)
	r.ServeHTTP(w2, req2)
	if w2.Code != http.StatusNotFound {
		t.Fatalf("track after deactivate want 404 got %d", w2.Code)
	}
}

func TestStorageFailureReturns503(t *testing.T) {
	r := newFailingRouter(t)

	endpoints := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/generate-token", `{"target_url":"https://example.com/x"}`},
		{http.MethodGet, "/track/some-token", ""},
		{http.MethodGet, "/stats/some-token", ""},
		{http.MethodPost, "/tokens/some-token/deactivate", ""},
	}
	for _, ep := range endpoints {
		w := httptest.NewRecorder()
		var req *http.Request
		if ep.body != "" {
			req = httptest.NewRequest(ep.method, ep.path, bytes.NewBufferString(ep.body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req = httptest.NewRequest(ep.method, ep.path, nil)
		}
		r.ServeHTTP(w, req)
		if w.Code != http.StatusServiceUnavailable {
			t.Fatalf("%s %s: status want 503 got %d body=%s", ep.method, ep.path, w.Code, w.Body.String())
		}
	}
}
