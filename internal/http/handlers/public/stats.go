package public

import (
	"github.com/egor-mailer/linktrack/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetTokenStats 查询令牌的聚合统计
func (h *Handler) GetTokenStats(c *gin.Context) {
	token := c.Param("token")

	stats, err := h.StatsService.GetStats(c.Request.Context(), token)
	if err != nil {
		respondWithMappedError(c, err, statsErrorRules, "stats query failed")
		return
	}
	response.Success(c, stats)
}
