package repository

import (
	"context"
	"errors"
	"time"

	"github.com/egor-mailer/linktrack/internal/constants"
	"github.com/egor-mailer/linktrack/internal/models"

	"gorm.io/gorm"
)

// TokenRepository 令牌数据访问接口
// 说明：追加/查找是三个核心组件使用的存储契约，状态翻转只服务于
// 过期扫描与显式停用。
type TokenRepository interface {
	Append(ctx context.Context, token *models.Token) error
	Find(ctx context.Context, token string) (*models.Token, error)
	UpdateStatus(ctx context.Context, token, status string) (bool, error)
	MarkExpiredInactive(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// GormTokenRepository GORM 实现
type GormTokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository 创建令牌仓库
func NewTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

// Append 追加一条令牌记录
func (r *GormTokenRepository) Append(ctx context.Context, token *models.Token) error {
	if token == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(token).Error
}

// Find 按令牌值精确查找，未找到返回 nil
func (r *GormTokenRepository) Find(ctx context.Context, token string) (*models.Token, error) {
	var record models.Token
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateStatus 翻转令牌状态，返回是否命中记录
func (r *GormTokenRepository) UpdateStatus(ctx context.Context, token, status string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Token{}).
		Where("token = ?", token).
		Update("status", status)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Ping 探测底层存储连通性
func (r *GormTokenRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// MarkExpiredInactive 把所有已过期的活跃令牌翻转为 Inactive，返回翻转数量
func (r *GormTokenRepository) MarkExpiredInactive(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Token{}).
		Where("status = ?", constants.TokenStatusActive).
		Where("expires_at <= ?", now).
		Update("status", constants.TokenStatusInactive)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
