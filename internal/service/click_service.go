package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/egor-mailer/linktrack/internal/cache"
	"github.com/egor-mailer/linktrack/internal/constants"
	"github.com/egor-mailer/linktrack/internal/logger"
	"github.com/egor-mailer/linktrack/internal/models"
	"github.com/egor-mailer/linktrack/internal/repository"
)

// ClickService 点击记录服务
type ClickService struct {
	tokens         repository.TokenRepository
	clicks         repository.ClickRepository
	storageTimeout time.Duration
	cacheTTL       time.Duration
}

// ClickServiceOptions 点击服务配置
type ClickServiceOptions struct {
	StorageTimeout time.Duration
	CacheTTL       time.Duration
}

// NewClickService 创建点击记录服务
func NewClickService(tokens repository.TokenRepository, clicks repository.ClickRepository, opts ClickServiceOptions) *ClickService {
	return &ClickService{
		tokens:         tokens,
		clicks:         clicks,
		storageTimeout: normalizeStorageTimeout(opts.StorageTimeout),
		cacheTTL:       opts.CacheTTL,
	}
}

// RecordClick 校验令牌并追加一条点击记录，返回跳转目标地址。
// 目标地址为空表示像素模式，由接口层返回确认响应而非 302。
// 每次访问都会新增记录，故意不做去重。
func (s *ClickService) RecordClick(ctx context.Context, token, clientIP, userAgent string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrTokenNotFound
	}

	record, err := s.resolveToken(ctx, token)
	if err != nil {
		return "", err
	}
	if record == nil {
		logger.Warnw("click_token_unknown", "token", token)
		return "", ErrTokenNotFound
	}
	if record.Status != constants.TokenStatusActive {
		logger.Warnw("click_token_inactive", "token", token)
		return "", ErrTokenInactive
	}
	now := time.Now()
	if !record.ExpiresAt.After(now) {
		logger.Warnw("click_token_expired", "token", token, "expires_at", record.ExpiresAt)
		return "", ErrTokenExpired
	}

	click := &models.Click{
		Token:     token,
		ClientIP:  strings.TrimSpace(clientIP),
		UserAgent: truncateUserAgent(userAgent),
		CreatedAt: now,
	}
	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	if err := s.clicks.Append(storeCtx, click); err != nil {
		// 存储失败必须作为请求失败暴露，不能伪装成跳转成功
		return "", wrapStorageError(err)
	}

	logger.Infow("click_tracked", "token", token, "client_ip", click.ClientIP)
	return record.TargetURL, nil
}

// resolveToken 查找令牌记录，启用 Redis 时走短 TTL 读穿缓存
func (s *ClickService) resolveToken(ctx context.Context, token string) (*models.Token, error) {
	if cache.Enabled() && s.cacheTTL > 0 {
		var cached models.Token
		if hit, err := cache.GetJSON(ctx, cache.TokenKey(token), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	storeCtx, cancel := context.WithTimeout(ctx, s.storageTimeout)
	defer cancel()
	record, err := s.tokens.Find(storeCtx, token)
	if err != nil {
		return nil, wrapStorageError(err)
	}
	if record != nil && cache.Enabled() && s.cacheTTL > 0 {
		if err := cache.SetJSON(ctx, cache.TokenKey(token), record, s.cacheTTL); err != nil {
			logger.Debugw("token_cache_set_failed", "token", token, "error", err)
		}
	}
	return record, nil
}

// truncateUserAgent 入库前截断超长 UA，截断点对齐到 rune 边界
func truncateUserAgent(userAgent string) string {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return "Unknown"
	}
	if len(userAgent) <= constants.MaxUserAgentStoredLength {
		return userAgent
	}
	cut := constants.MaxUserAgentStoredLength
	for cut > 0 && !utf8.RuneStart(userAgent[cut]) {
		cut--
	}
	return userAgent[:cut]
}
