package models

import "time"

// Token 追踪令牌记录
// 说明：令牌创建后只追加，唯一允许的变更是把状态翻转为 Inactive。
type Token struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                       // 主键
	Token     string    `gorm:"type:varchar(128);uniqueIndex;not null" json:"token"`        // 令牌值
	TargetURL string    `gorm:"type:varchar(2048)" json:"target_url"`                       // 跳转目标地址（可为空，空表示像素模式）
	Email     string    `gorm:"type:varchar(255)" json:"email"`                             // 归属邮箱（可选）
	Campaign  string    `gorm:"type:varchar(255);index" json:"campaign"`                    // 活动名称
	Status    string    `gorm:"type:varchar(16);index;not null" json:"status"`              // 状态（Active/Inactive）
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`                                    // 过期时间（创建时间 + TTL）
	CreatedAt time.Time `gorm:"index;not null;default:CURRENT_TIMESTAMP" json:"created_at"` // 创建时间
}

// TableName 指定表名
func (Token) TableName() string {
	return "tokens"
}
