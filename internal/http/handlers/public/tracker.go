package public

import (
	"net/http"

	"github.com/egor-mailer/linktrack/internal/http/response"
	"github.com/egor-mailer/linktrack/internal/service"

	"github.com/gin-gonic/gin"
)

// GenerateTokenRequest 创建令牌请求体
type GenerateTokenRequest struct {
	TargetURL string `json:"target_url"`
	Email     string `json:"email"`
	Campaign  string `json:"campaign"`
}

// GenerateTokenResponse 创建令牌响应体
type GenerateTokenResponse struct {
	Token      string `json:"token"`
	TrackerURL string `json:"tracker_url"`
	TargetURL  string `json:"target_url"`
	Campaign   string `json:"campaign"`
}

// GenerateToken 创建追踪令牌
func (h *Handler) GenerateToken(c *gin.Context) {
	var req GenerateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.TokenService.CreateToken(c.Request.Context(), service.CreateTokenInput{
		TargetURL: req.TargetURL,
		Email:     req.Email,
		Campaign:  req.Campaign,
	})
	if err != nil {
		respondWithMappedError(c, err, generateTokenErrorRules, "token generation failed")
		return
	}

	response.Created(c, GenerateTokenResponse{
		Token:      result.Record.Token,
		TrackerURL: result.TrackerURL,
		TargetURL:  result.Record.TargetURL,
		Campaign:   result.Record.Campaign,
	})
}

// TrackClick 记录点击并跳转到目标地址
// 目标地址为空时按追踪像素处理，返回确认 JSON 而非 302。
func (h *Handler) TrackClick(c *gin.Context) {
	token := c.Param("token")
	userAgent := c.GetHeader("User-Agent")

	targetURL, err := h.ClickService.RecordClick(c.Request.Context(), token, c.ClientIP(), userAgent)
	if err != nil {
		respondWithMappedError(c, err, trackClickErrorRules, "click tracking failed")
		return
	}

	if targetURL == "" {
		response.Success(c, gin.H{"message": "Click tracked successfully"})
		return
	}
	c.Redirect(http.StatusFound, targetURL)
}

// DeactivateToken 显式停用令牌
func (h *Handler) DeactivateToken(c *gin.Context) {
	token := c.Param("token")
	if err := h.TokenService.Deactivate(c.Request.Context(), token); err != nil {
		respondWithMappedError(c, err, deactivateErrorRules, "token deactivation failed")
		return
	}
	response.Success(c, gin.H{"token": token, "status": "Inactive"})
}
