package main

import (
	"time"

	"github.com/egor-mailer/linktrack/internal/config"
	"github.com/egor-mailer/linktrack/internal/constants"
	"github.com/egor-mailer/linktrack/internal/logger"
	"github.com/egor-mailer/linktrack/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now()
	expiresAt := now.AddDate(0, 0, constants.DefaultTokenTTLDays)
	expiredAt := now.AddDate(0, 0, -1)

	// 添加演示令牌
	tokens := []models.Token{
		{
			Token:     "demo-welcome-token",
			TargetURL: "https://example.com/welcome",
			Email:     "alice@example.com",
			Campaign:  "welcome-series",
			Status:    constants.TokenStatusActive,
			ExpiresAt: expiresAt,
		},
		{
			Token:     "demo-winter-sale-token",
			TargetURL: "https://example.com/winter-sale",
			Email:     "bob@example.com",
			Campaign:  "winter-sale",
			Status:    constants.TokenStatusActive,
			ExpiresAt: expiresAt,
		},
		{
			Token:     "demo-expired-token",
			TargetURL: "https://example.com/black-friday",
			Email:     "carol@example.com",
			Campaign:  "black-friday",
			Status:    constants.TokenStatusActive,
			ExpiresAt: expiredAt,
		},
		{
			Token:     "demo-inactive-token",
			TargetURL: "https://example.com/unsubscribe-test",
			Email:     "dave@example.com",
			Campaign:  constants.DefaultCampaign,
			Status:    constants.TokenStatusInactive,
			ExpiresAt: expiresAt,
		},
	}

	for _, token := range tokens {
		var existing models.Token
		if err := models.DB.Where("token = ?", token.Token).First(&existing).Error; err != nil {
			if err := models.DB.Create(&token).Error; err != nil {
				stdLog.Printf("Failed to create token %s: %v", token.Token, err)
			} else {
				stdLog.Printf("Created token: %s", token.Token)
			}
		} else {
			stdLog.Printf("Token already exists: %s", token.Token)
		}
	}

	// 为 winter-sale 令牌添加演示点击
	clicks := []models.Click{
		{Token: "demo-winter-sale-token", ClientIP: "203.0.113.10", UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"},
		{Token: "demo-winter-sale-token", ClientIP: "203.0.113.10", UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"},
		{Token: "demo-winter-sale-token", ClientIP: "198.51.100.7", UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"},
	}

	var clickCount int64
	if err := models.DB.Model(&models.Click{}).Where("token = ?", "demo-winter-sale-token").Count(&clickCount).Error; err != nil {
		stdLog.Printf("Failed to count demo clicks: %v", err)
	} else if clickCount > 0 {
		stdLog.Printf("Demo clicks already exist: %d", clickCount)
	} else {
		for _, click := range clicks {
			if err := models.DB.Create(&click).Error; err != nil {
				stdLog.Printf("Failed to create click for %s: %v", click.Token, err)
			}
		}
		stdLog.Printf("Created %d demo clicks", len(clicks))
	}

	stdLog.Printf("Seed finished: %d tokens, %d clicks", len(tokens), len(clicks))
}
