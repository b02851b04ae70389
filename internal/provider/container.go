package provider

import (
	"time"

	"github.com/egor-mailer/linktrack/internal/cache"
	"github.com/egor-mailer/linktrack/internal/config"
	"github.com/egor-mailer/linktrack/internal/logger"
	"github.com/egor-mailer/linktrack/internal/models"
	"github.com/egor-mailer/linktrack/internal/queue"
	"github.com/egor-mailer/linktrack/internal/repository"
	"github.com/egor-mailer/linktrack/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	TokenRepo repository.TokenRepository
	ClickRepo repository.ClickRepository

	// Services
	TokenService *service.TokenService
	ClickService *service.ClickService
	StatsService *service.StatsService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.TokenRepo = repository.NewTokenRepository(db)
	c.ClickRepo = repository.NewClickRepository(db)
}

func (c *Container) initServices() {
	cfg := c.Config
	storageTimeout := time.Duration(cfg.Storage.TimeoutSeconds) * time.Second

	c.TokenService = service.NewTokenService(c.TokenRepo, service.TokenServiceOptions{
		BaseURL:          cfg.Tracker.BaseURL,
		TokenLengthBytes: cfg.Tracker.TokenLengthBytes,
		TokenTTLDays:     cfg.Tracker.TokenTTLDays,
		StorageTimeout:   storageTimeout,
	})
	c.ClickService = service.NewClickService(c.TokenRepo, c.ClickRepo, service.ClickServiceOptions{
		StorageTimeout: storageTimeout,
		CacheTTL:       time.Duration(cfg.Tracker.CacheTTLSeconds) * time.Second,
	})
	c.StatsService = service.NewStatsService(c.TokenRepo, c.ClickRepo, service.StatsServiceOptions{
		ReportTimezone: cfg.Tracker.ReportTimezone,
		StorageTimeout: storageTimeout,
	})
}
