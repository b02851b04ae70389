package public

import "github.com/egor-mailer/linktrack/internal/provider"

// Handler 追踪接口处理器入口
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
