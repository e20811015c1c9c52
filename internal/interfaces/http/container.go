package http

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	creditApp "evalia/internal/application/credit"
	"evalia/internal/application/credit/usecases"
	creditdomain "evalia/internal/domain/credit"
	"evalia/internal/domain/shared/events"
	"evalia/internal/infrastructure/cache"
	"evalia/internal/infrastructure/config"
	"evalia/internal/infrastructure/email"
	"evalia/internal/infrastructure/notification"
	"evalia/internal/infrastructure/repository"
	"evalia/internal/interfaces/http/handlers"
	adminHandlers "evalia/internal/interfaces/http/handlers/admin"
	"evalia/internal/interfaces/http/middleware"
	shareddb "evalia/internal/shared/db"
	"evalia/internal/shared/logger"
)

// Container wires the credit engine together: repositories, the event
// pipeline, use cases, and HTTP handlers. It owns the gin engine and
// provides Shutdown for graceful termination.
type Container struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
	log    logger.Interface
	redis  *redis.Client

	// Repositories
	controls      creditdomain.UsageControlRepository
	ledger        creditdomain.LedgerEntryRepository
	statsRepo     creditdomain.StatsRepository
	balanceReader creditdomain.BalanceReader
	txMgr         *shareddb.TransactionManager

	// Event pipeline
	dispatcher   *events.InMemoryEventDispatcher
	alertHandler *notification.CreditAlertHandler

	// Application service
	service *creditApp.Service

	// Handlers and middlewares
	creditHandler *handlers.CreditHandler
	adminHandler  *adminHandlers.CreditAdminHandler
	rateLimiter   *middleware.RateLimiter
}

// NewContainer creates a new Container with all dependencies wired together
func NewContainer(db *gorm.DB, cfg *config.Config, log logger.Interface) *Container {
	c := &Container{
		engine: gin.New(),
		db:     db,
		cfg:    cfg,
		log:    log,
	}

	c.initInfrastructure()
	c.initEventPipeline()
	c.initService()
	c.initHandlers()

	return c
}

// initInfrastructure initializes Redis, the repositories, and the
// transaction manager.
func (c *Container) initInfrastructure() {
	c.redis = initRedis(c.cfg, c.log)

	c.controls = repository.NewUsageControlRepository(c.db, c.log)
	c.ledger = repository.NewLedgerEntryRepository(c.db, c.log)
	c.statsRepo = repository.NewCreditStatsRepository(c.db, c.log)
	c.balanceReader = repository.NewBalanceReader(c.cfg.Credit, c.controls, c.ledger, c.log)
	c.txMgr = shareddb.NewTransactionManager(c.db)

	c.rateLimiter = middleware.NewRateLimiter(c.redis, 100, 1*time.Minute)
}

// initEventPipeline starts the in-process dispatcher and subscribes the
// alert handler that mails the administrator on low-balance and
// exhausted events.
func (c *Container) initEventPipeline() {
	c.dispatcher = events.NewInMemoryEventDispatcher(100)
	if err := c.dispatcher.Start(); err != nil {
		c.log.Fatalw("failed to start event dispatcher", "error", err)
	}

	mailer := email.NewSMTPAlertMailer(email.SMTPConfig{
		Host:        c.cfg.Email.SMTPHost,
		Port:        c.cfg.Email.SMTPPort,
		Username:    c.cfg.Email.SMTPUser,
		Password:    c.cfg.Email.SMTPPassword,
		FromAddress: c.cfg.Email.FromAddress,
		FromName:    c.cfg.Email.FromName,
	})
	deduplicator := cache.NewRedisAlertDeduplicator(c.redis)
	cooldown := time.Duration(c.cfg.Credit.AlertCooldownMinutes) * time.Minute

	c.alertHandler = notification.NewCreditAlertHandler(
		mailer, deduplicator, c.cfg.Email.AdminAddress, cooldown, c.log)

	for _, eventType := range []string{creditdomain.EventTypeLowBalance, creditdomain.EventTypeExhausted} {
		if err := c.dispatcher.Subscribe(eventType, c.alertHandler); err != nil {
			c.log.Fatalw("failed to subscribe credit alert handler",
				"event_type", eventType,
				"error", err)
		}
	}
}

// initService builds the use cases and the application facade.
func (c *Container) initService() {
	lowThreshold := c.cfg.Credit.LowThreshold
	alerts := creditApp.NewAlertPublisher(c.dispatcher, lowThreshold, c.log)

	grantUC := usecases.NewGrantCreditsUseCase(c.controls, c.ledger, c.txMgr, lowThreshold, c.log)
	consumeUC := usecases.NewConsumeCreditUseCase(c.controls, c.ledger, c.txMgr, alerts, c.log)
	removeUC := usecases.NewRemoveCreditsUseCase(c.controls, c.ledger, c.txMgr, lowThreshold, c.log)
	bulkRemoveUC := usecases.NewBulkRemoveCreditsUseCase(removeUC, c.log)
	availabilityUC := usecases.NewCheckAvailabilityUseCase(c.balanceReader, lowThreshold, c.log)
	historyUC := usecases.NewGetLedgerHistoryUseCase(c.ledger, c.log)
	statsUC := usecases.NewGetCreditStatsUseCase(c.statsRepo, lowThreshold, c.log)
	recomputeUC := usecases.NewRecomputeBalanceUseCase(c.controls, c.ledger, c.txMgr, lowThreshold, c.log)
	deleteLedgerUC := usecases.NewDeleteSubjectLedgerUseCase(c.controls, c.ledger, c.txMgr, c.log)

	c.service = creditApp.NewService(
		grantUC, consumeUC, removeUC, bulkRemoveUC,
		availabilityUC, historyUC, statsUC, recomputeUC, deleteLedgerUC)
}

// initHandlers creates the HTTP handlers.
func (c *Container) initHandlers() {
	c.creditHandler = handlers.NewCreditHandler(c.service, c.log)
	c.adminHandler = adminHandlers.NewCreditAdminHandler(c.service, c.log)
}

// initRedis creates and tests the Redis client connection.
func initRedis(cfg *config.Config, log logger.Interface) *redis.Client {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalw("failed to connect to Redis", "error", err)
	}
	log.Infow("Redis connection established successfully")

	return redisClient
}

// Service exposes the application facade for non-HTTP callers
func (c *Container) Service() *creditApp.Service {
	return c.service
}

// Shutdown stops the event pipeline and closes the Redis connection
func (c *Container) Shutdown(ctx context.Context) error {
	if err := c.dispatcher.Stop(); err != nil {
		c.log.Errorw("failed to stop event dispatcher", "error", err)
	}

	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.log.Errorw("failed to close Redis connection", "error", err)
			return err
		}
	}
	return nil
}
