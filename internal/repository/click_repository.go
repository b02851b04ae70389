package repository

import (
	"context"

	"github.com/egor-mailer/linktrack/internal/models"

	"gorm.io/gorm"
)

// ClickRepository 点击记录数据访问接口
type ClickRepository interface {
	Append(ctx context.Context, click *models.Click) error
	ListByToken(ctx context.Context, token string) ([]models.Click, error)
}

// GormClickRepository GORM 实现
type GormClickRepository struct {
	db *gorm.DB
}

// NewClickRepository 创建点击记录仓库
func NewClickRepository(db *gorm.DB) *GormClickRepository {
	return &GormClickRepository{db: db}
}

// Append 追加一条点击记录
func (r *GormClickRepository) Append(ctx context.Context, click *models.Click) error {
	if click == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(click).Error
}

// ListByToken 全量扫描某令牌的点击记录，按时间升序
func (r *GormClickRepository) ListByToken(ctx context.Context, token string) ([]models.Click, error) {
	var clicks []models.Click
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		Order("id asc").
		Find(&clicks).Error
	if err != nil {
		return nil, err
	}
	return clicks, nil
}
