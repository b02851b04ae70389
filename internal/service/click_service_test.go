package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/egor-mailer/linktrack/internal/models"
	"github.com/egor-mailer/linktrack/internal/repository"
)

// stubClickRepo 可编程的点击仓库桩
type stubClickRepo struct {
	appendErr error
	appended  []models.Click
}

func (s *stubClickRepo) Append(ctx context.Context, click *models.Click) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = append(s.appended, *click)
	return nil
}

func (s *stubClickRepo) ListByToken(ctx context.Context, token string) ([]models.Click, error) {
	var out []models.Click
	for _, click := range s.appended {
		if click.Token == token {
			out = append(out, click)
		}
	}
	return out, nil
}

func TestRecordClickAppendsEveryVisit(t *testing.T) {
	db := newTrackerDB(t)
	tokenSvc := newTestTokenService(t, db, TokenServiceOptions{TokenTTLDays: 30})
	clickSvc := NewClickService(repository.NewTokenRepository(db), repository.NewClickRepository(db), ClickServiceOptions{})

	result, err := tokenSvc.CreateToken(context.Background(), CreateTokenInput{
		TargetURL: "https://example.com/landing",
	})
	if err != nil {
		t.Fatalf("create token failed: %v", err)
	}

	// 同一访问者的重复点击也全部落库，不做去重
	for i := 0; i < 3; i++ {
		target, err := clickSvc.RecordClick(context.Background(), result.Record.Token, "203.0.113.10", "Mozilla/5.0")
		if err != nil {
			t.Fatalf("record click %d failed: %v", i+1, err)
		}
		if target != "https://example.com/landing" {
			t.Fatalf("target url want https://example.com/landing got %s", target)
		}
	}

	clicks, err := repository.NewClickRepository(db).ListByToken(context.Background(), result.Record.Token)
	if err != nil {
		t.Fatalf("list clicks failed: %v", err)
	}
	if len(clicks) != 3 {
		t.Fatalf("click count want 3 got %d", len(clicks))
	}
}

func TestRecordClickUnknownToken(t *testing.T) {
	db := newTrackerDB(t)
	clickSvc := NewClickService(repository.NewTokenRepository(db), repository.NewClickRepository(db), ClickServiceOptions{})

	_, err := clickSvc.RecordClick(context.Background(), "token-that-never-existed", "203.0.113.10", "Mozilla/5.0")
	if !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("want ErrTokenNotFound got %v", err)
	}
}

func TestRecordClickInactiveToken(t *testing.T) {
	db := newTrackerDB(t)
	tokenSvc := newTestTokenService(t, db, TokenServiceOptions{TokenTTLDays: 30})
	clickSvc := NewClickService(repository.NewTokenRepository(db), repository.NewClickRepository(db), ClickServiceOptions{})

	result, err := tokenSvc.CreateToken(context.Background(), CreateTokenInput{
		TargetURL: "https://example.com/unsubscribed",
	})
	if err != nil {
		t.Fatalf("create token failed: %v", err)
	}
	if err := tokenSvc.Deactivate(context.Background(), result.Record.Token); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	_, err = clickSvc.RecordClick(context.Background(), result.Record.Token, "203.0.113.10", "Mozilla/5.0")
	if !errors.Is(err, ErrTokenInactive) {
		t.Fatalf("want ErrTokenInactive got %v", err)
	}
}

func TestRecordClickExpiredToken(t *testing.T) {
	db := newTrackerDB(t)
	// TTL 为 0 天：签发即过期
	tokenSvc := newTestTokenService(t, db, TokenServiceOptions{TokenTTLDays: 0})
	clickSvc := NewClickService(repository.NewTokenRepository(db), repository.NewClickRepository(db), ClickServiceOptions{})

	result, err := tokenSvc.CreateToken(context.Background(), CreateTokenInput{
		TargetURL: "https://example.com/too-late",
	})
	if err != nil {
		t.Fatalf("create token failed: %v", err)
	}

	_, err = clickSvc.RecordClick(context.Background(), result.Record.Token, "203.0.113.10", "Mozilla/5.0")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("want ErrTokenExpired got %v", err)
	}

	clicks, err := repository.NewClickRepository(db).ListByToken(context.Background(), result.Record.Token)
	if err != nil {
		t.Fatalf("list clicks failed: %v", err)
	}
	if len(clicks) != 0 {
		t.Fatalf("expired token should not record clicks, got %d", len(clicks))
	}
}

func TestRecordClickStorageFailureNotMasked(t *testing.T) {
	tokenRepo := &stubTokenRepo{findRecord: &models.Token{
		Token:     "stub-token",
		TargetURL: "https://example.com/target",
		Status:    "Active",
		ExpiresAt: time.Now().Add(time.Hour),
	}}
	clickRepo := &stubClickRepo{appendErr: errors.New("disk full")}
	clickSvc := NewClickService(tokenRepo, clickRepo, ClickServiceOptions{})

	target, err := clickSvc.RecordClick(context.Background(), "stub-token", "203.0.113.10", "Mozilla/5.0")
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("want ErrStorageUnavailable got %v", err)
	}
	if target != "" {
		t.Fatalf("failed click must not return a redirect target, got %s", target)
	}
}

func TestTruncateUserAgent(t *testing.T) {
	if got := truncateUserAgent(""); got != "Unknown" {
		t.Fatalf("empty ua want Unknown got %s", got)
	}
	if got := truncateUserAgent("   "); got != "Unknown" {
		t.Fatalf("blank ua want Unknown got %s", got)
	}
	if got := truncateUserAgent("Mozilla/5.0"); got != "Mozilla/5.0" {
		t.Fatalf("short ua should pass through, got %s", got)
	}

	long := strings.Repeat("x", 250)
	got := truncateUserAgent(long)
	if len(got) != 100 {
		t.Fatalf("long ua length want 100 got %d", len(got))
	}
	if got != long[:100] {
		t.Fatalf("long ua should keep leading bytes")
	}

	// 多字节 UA 截断不能切断 rune
	wide := strings.Repeat("界", 40)
	got = truncateUserAgent(wide)
	if len(got) > 100 {
		t.Fatalf("wide ua length want <=100 got %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated ua should stay valid utf-8: %q", got)
	}
	if got != strings.Repeat("界", 33) {
		t.Fatalf("wide ua should cut at the last whole rune, got %d bytes", len(got))
	}
}
