package constants

// 令牌状态常量
const (
	TokenStatusActive   = "Active"
	TokenStatusInactive = "Inactive"
)

// 队列名称常量
const (
	QueueDefault = "default"
)

// 异步任务类型常量
const (
	TaskTokenExpireSweep = "token:expire_sweep"
)

// 追踪配置默认值
const (
	DefaultTokenLengthBytes = 32
	DefaultTokenTTLDays     = 90
	DefaultCampaign         = "default"

	// MaxUserAgentStoredLength 点击记录中 UA 字段的最大存储长度
	MaxUserAgentStoredLength = 100
)
