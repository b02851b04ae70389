package public

import (
	"errors"

	"github.com/egor-mailer/linktrack/internal/http/response"
	"github.com/egor-mailer/linktrack/internal/logger"
	"github.com/egor-mailer/linktrack/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

// storageErrorRule 所有端点共用的存储不可用规则
var storageErrorRule = mappedHandlerError{
	target: service.ErrStorageUnavailable,
	code:   response.CodeServiceUnavailable,
	msg:    "storage unavailable",
}

var generateTokenErrorRules = []mappedHandlerError{
	{target: service.ErrTargetURLRequired, code: response.CodeBadRequest, msg: "target_url is required"},
	{target: service.ErrTargetURLInvalid, code: response.CodeBadRequest, msg: "target_url is not a valid absolute URL"},
	storageErrorRule,
	{target: service.ErrTokenGeneration, code: response.CodeInternal, msg: "token generation failed"},
}

// 未知、过期、停用对外统一 404，不向访问者泄露令牌生命周期细节
var trackClickErrorRules = []mappedHandlerError{
	{target: service.ErrTokenNotFound, code: response.CodeNotFound, msg: "invalid or expired token"},
	{target: service.ErrTokenExpired, code: response.CodeNotFound, msg: "invalid or expired token"},
	{target: service.ErrTokenInactive, code: response.CodeNotFound, msg: "invalid or expired token"},
	storageErrorRule,
}

var statsErrorRules = []mappedHandlerError{
	{target: service.ErrTokenNotFound, code: response.CodeNotFound, msg: "token not found"},
	storageErrorRule,
}

var deactivateErrorRules = []mappedHandlerError{
	{target: service.ErrTokenNotFound, code: response.CodeNotFound, msg: "token not found"},
	storageErrorRule,
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			response.Error(c, rule.code, rule.msg)
			return
		}
	}
	logger.Errorw("handler_unexpected_error", "path", c.Request.URL.Path, "error", err)
	response.Error(c, response.CodeInternal, fallbackMsg)
}
