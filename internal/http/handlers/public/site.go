package public

import (
	"time"

	"github.com/egor-mailer/linktrack/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Index API 首页说明
func (h *Handler) Index(c *gin.Context) {
	response.Success(c, gin.H{
		"name":    "Egor Mailer - Email Link Tracker",
		"version": "1.0.0",
		"endpoints": gin.H{
			"generate": "/generate-token",
			"track":    "/track/<token>",
			"stats":    "/stats/<token>",
			"health":   "/health",
		},
	})
}

// Health 健康检查，探测存储连通性
func (h *Handler) Health(c *gin.Context) {
	if err := h.TokenService.PingStore(c.Request.Context()); err != nil {
		response.Error(c, response.CodeServiceUnavailable, "unhealthy")
		return
	}
	response.Success(c, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
