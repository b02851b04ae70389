package service

import (
	"context"
	"strings"
	"time"

	"github.com/egor-mailer/linktrack/internal/logger"
	"github.com/egor-mailer/linktrack/internal/models"
	"github.com/egor-mailer/linktrack/internal/repository"
)

// StatsService 点击统计服务
type StatsService struct {
	tokens         repository.TokenRepository
	clicks         repository.ClickRepository
	reportLocation *time.Location
	storageTimeout time.Duration
}

// StatsServiceOptions 统计服务配置
type StatsServiceOptions struct {
	ReportTimezone string
	StorageTimeout time.Duration
}

// NewStatsService 创建统计服务
func NewStatsService(tokens repository.TokenRepository, clicks repository.ClickRepository, opts StatsServiceOptions) *StatsService {
	location := time.UTC
	if tz := strings.TrimSpace(opts.ReportTimezone); tz != "" {
		if loaded, err := time.LoadLocation(tz); err == nil {
			location = loaded
		} else {
			logger.Warnw("stats_timezone_invalid", "timezone", tz, "fallback", "UTC")
		}
	}
	return &StatsService{
		tokens:         tokens,
		clicks:         clicks,
		reportLocation: location,
		storageTimeout: normalizeStorageTimeout(opts.StorageTimeout),
	}
}

// TokenStats 单个令牌的聚合统计
type TokenStats struct {
	Token             string         `json:"token"`
	TotalClicks       int            `json:"total_clicks"`
	UniqueIPs         int            `json:"unique_ips"`
	ClicksByDate      map[string]int `json:"clicks_by_date"`
	ClicksByUserAgent map[string]int `json:"clicks_by_user_agent"`
	FirstClick        *time.Time     `json:"first_click,omitempty"`
	LastClick         *time.Time     `json:"last_click,omitempty"`
}

// GetStats 全量扫描令牌的点击记录并聚合
// 仅有点击记录而无令牌记录不算存在；零点击返回空聚合而非错误。
func (s *StatsService) GetStats(ctx context.Context, token string) (*TokenStats, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenNotFound
	}

	findCtx, cancelFind := context.WithTimeout(ctx, s.storageTimeout)
	defer cancelFind()
	record, err := s.tokens.Find(findCtx, token)
	if err != nil {
		return nil, wrapStorageError(err)
	}
	if record == nil {
		return nil, ErrTokenNotFound
	}

	listCtx, cancelList := context.WithTimeout(ctx, s.storageTimeout)
	defer cancelList()
	clicks, err := s.clicks.ListByToken(listCtx, token)
	if err != nil {
		return nil, wrapStorageError(err)
	}

	stats := aggregateClicks(clicks, s.reportLocation)
	stats.Token = token
	return stats, nil
}

// aggregateClicks 对点击记录序列做纯函数折叠聚合
func aggregateClicks(clicks []models.Click, location *time.Location) *TokenStats {
	if location == nil {
		location = time.UTC
	}
	stats := &TokenStats{
		ClicksByDate:      make(map[string]int),
		ClicksByUserAgent: make(map[string]int),
	}

	uniqueIPs := make(map[string]struct{})
	for i := range clicks {
		click := clicks[i]
		stats.TotalClicks++
		if click.ClientIP != "" {
			uniqueIPs[click.ClientIP] = struct{}{}
		}
		date := click.CreatedAt.In(location).Format("2006-01-02")
		stats.ClicksByDate[date]++
		stats.ClicksByUserAgent[click.UserAgent]++

		if stats.FirstClick == nil || click.CreatedAt.Before(*stats.FirstClick) {
			first := click.CreatedAt
			stats.FirstClick = &first
		}
		if stats.LastClick == nil || click.CreatedAt.After(*stats.LastClick) {
			last := click.CreatedAt
			stats.LastClick = &last
		}
	}
	stats.UniqueIPs = len(uniqueIPs)
	return stats
}
