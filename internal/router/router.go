package router

import (
	"fmt"
	"strings"

	"github.com/egor-mailer/linktrack/internal/cache"
	"github.com/egor-mailer/linktrack/internal/config"
	publichandlers "github.com/egor-mailer/linktrack/internal/http/handlers/public"
	"github.com/egor-mailer/linktrack/internal/logger"
	"github.com/egor-mailer/linktrack/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	handler := publichandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "lt"
	}
	generateRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:generate", redisPrefix),
		WindowSeconds: cfg.Security.GenerateRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.GenerateRateLimit.MaxRequests,
		Message:       "too many token generation requests",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// 追踪接口
	r.GET("/", handler.Index)
	r.GET("/health", handler.Health)
	r.POST("/generate-token", RateLimitMiddleware(cache.Client(), generateRule, KeyByIP), handler.GenerateToken)
	r.GET("/track/:token", handler.TrackClick)
	r.GET("/stats/:token", handler.GetTokenStats)
	r.POST("/tokens/:token/deactivate", handler.DeactivateToken)

	return r
}
