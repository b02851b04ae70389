package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/egor-mailer/linktrack/internal/cache"
	"github.com/egor-mailer/linktrack/internal/constants"
	"github.com/egor-mailer/linktrack/internal/logger"
	"github.com/egor-mailer/linktrack/internal/models"
	"github.com/egor-mailer/linktrack/internal/repository"
)

const (
	// maxGenerateAttempts 令牌碰撞时的最大重试次数
	maxGenerateAttempts = 3
	// minTokenLengthBytes 低于该字节数无法保证 128 位熵
	minTokenLengthBytes = 16
)

// TokenService 令牌生成与生命周期服务
type TokenService struct {
	repo           repository.TokenRepository
	baseURL        string
	tokenLength    int
	tokenTTL       time.Duration
	storageTimeout time.Duration
}

// TokenServiceOptions 令牌服务配置
type TokenServiceOptions struct {
	BaseURL          string
	TokenLengthBytes int
	TokenTTLDays     int
	StorageTimeout   time.Duration
}

// NewTokenService 创建令牌服务
func NewTokenService(repo repository.TokenRepository, opts TokenServiceOptions) *TokenService {
	length := opts.TokenLengthBytes
	if length < minTokenLengthBytes {
		length = constants.DefaultTokenLengthBytes
	}
	ttlDays := opts.TokenTTLDays
	if ttlDays < 0 {
		ttlDays = constants.DefaultTokenTTLDays
	}
	return &TokenService{
		repo:           repo,
		baseURL:        strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		tokenLength:    length,
		tokenTTL:       time.Duration(ttlDays) * 24 * time.Hour,
		storageTimeout: normalizeStorageTimeout(opts.StorageTimeout),
	}
}

// CreateTokenInput 创建令牌输入
type CreateTokenInput struct {
	TargetURL string
	Email     string
	Campaign  string
}

// CreateTokenResult 创建令牌结果
type CreateTokenResult struct {
	Record     *models.Token
	TrackerURL string
}

// CreateToken 生成唯一令牌并追加 Active 记录
// 碰撞时有限重试，重试耗尽返回 ErrTokenGeneration。
func (s *TokenService) CreateToken(ctx context.Context, input CreateTokenInput) (*CreateTokenResult, error) {
	targetURL := strings.TrimSpace(input.TargetURL)
	if targetURL == "" {
		return nil, ErrTargetURLRequired
	}
	if err := validateTargetURL(targetURL); err != nil {
		return nil, err
	}

	campaign := strings.TrimSpace(input.Campaign)
	if campaign == "" {
		campaign = constants.DefaultCampaign
	}
	email := strings.TrimSpace(input.Email)

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		token, err := randomToken(s.tokenLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
		}

		existing, err := s.findToken(ctx, token)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			logger.Warnw("token_generate_collision", "attempt", attempt+1)
			continue
		}

		now := time.Now()
		record := &models.Token{
			Token:     token,
			TargetURL: targetURL,
			Email:     email,
			Campaign:  campaign,
			Status:    constants.TokenStatusActive,
			ExpiresAt: now.Add(s.tokenTTL),
			CreatedAt: now,
		}
		if err := s.appendToken(ctx, record); err != nil {
			return nil, err
		}

		logger.Infow("token_created", "campaign", campaign, "target_url", targetURL)
		return &CreateTokenResult{
			Record:     record,
			TrackerURL: s.TrackerURL(token),
		}, nil
	}

	return nil, ErrTokenGeneration
}

// TrackerURL 拼装追踪链接
func (s *TokenService) TrackerURL(token string) string {
	return s.baseURL + "/track/" + token
}

// Deactivate 显式停用令牌
func (s *TokenService) Deactivate(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrTokenNotFound
	}
	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	found, err := s.repo.UpdateStatus(storeCtx, token, constants.TokenStatusInactive)
	if err != nil {
		return wrapStorageError(err)
	}
	if !found {
		return ErrTokenNotFound
	}
	// 停用后立即失效查找缓存，避免 /track 命中过期的 Active 快照
	if err := cache.Del(ctx, cache.TokenKey(token)); err != nil {
		logger.Debugw("token_cache_del_failed", "token", token, "error", err)
	}
	logger.Infow("token_deactivated", "token", token)
	return nil
}

// SweepExpired 把已过期的活跃令牌批量翻转为 Inactive
func (s *TokenService) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	swept, err := s.repo.MarkExpiredInactive(storeCtx, now)
	if err != nil {
		return 0, wrapStorageError(err)
	}
	if swept > 0 {
		logger.Infow("token_expire_sweep", "swept", swept)
	}
	return swept, nil
}

// PingStore 探测存储连通性，供健康检查使用
func (s *TokenService) PingStore(ctx context.Context) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	if err := s.repo.Ping(storeCtx); err != nil {
		return wrapStorageError(err)
	}
	return nil
}

func (s *TokenService) findToken(ctx context.Context, token string) (*models.Token, error) {
	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	record, err := s.repo.Find(storeCtx, token)
	if err != nil {
		return nil, wrapStorageError(err)
	}
	return record, nil
}

func (s *TokenService) appendToken(ctx context.Context, record *models.Token) error {
	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	if err := s.repo.Append(storeCtx, record); err != nil {
		return wrapStorageError(err)
	}
	return nil
}

// validateTargetURL 要求语法合法的绝对 http(s) 地址
func validateTargetURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTargetURLInvalid, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return ErrTargetURLInvalid
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return ErrTargetURLInvalid
	}
	return nil
}

// randomToken 生成 URL 安全的随机令牌
func randomToken(lengthBytes int) (string, error) {
	buf := make([]byte, lengthBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func normalizeStorageTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return 5 * time.Second
	}
	return timeout
}
