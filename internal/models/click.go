package models

import "time"

// Click 点击记录
// 说明：只追加，不更新不删除；允许存在令牌已不存在的孤儿记录。
type Click struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                       // 主键
	Token     string    `gorm:"type:varchar(128);index;not null" json:"token"`              // 令牌值（弱外键）
	ClientIP  string    `gorm:"type:varchar(64)" json:"client_ip"`                          // 客户端IP
	UserAgent string    `gorm:"type:varchar(1024)" json:"user_agent"`                       // 客户端UA
	CreatedAt time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 点击时间
}

// TableName 指定表名
func (Click) TableName() string {
	return "clicks"
}
