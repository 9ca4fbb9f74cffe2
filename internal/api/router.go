package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/api/handlers"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/api/middleware"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/config"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/queue"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/repository"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/internal/service"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/pkg/database"
	"github.com/ronak-kumar-sing/skillsync-platform-sub003/pkg/distributed"
)

// SetupRouter API 라우터 설정. 반환된 CleanupService는 호출자가
// 종료 시 Stop해야 한다.
func SetupRouter(cfg *config.Config, db *database.DB, redisClient *redis.Client) (*gin.Engine, *service.CleanupService) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 전역 미들웨어
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Store 초기화
	store := queue.NewRedisStore(redisClient, cfg.StoreTimeout)
	eventLog := queue.NewRedisEventLog(redisClient, cfg.StoreTimeout)
	sweepLock := distributed.NewSweepLock(redisClient, "matchqueue:sweep:lock", 30*time.Second)

	// Repository 초기화
	profileRepo := repository.NewProfileRepository(db)

	// Service 초기화
	scorer := service.NewCompatibilityScorer()
	queueService := service.NewQueueService(store, cfg.QueueTTL, cfg.QueueTTLCeiling)
	matchmaker := service.NewMatchmakerService(
		store,
		eventLog,
		profileRepo,
		scorer,
		cfg.AcceptanceThreshold,
		cfg.MaxMatchRetries,
	)
	statsService := service.NewStatsService(store, eventLog)

	// Cleanup Service 초기화 및 시작
	cleanupService := service.NewCleanupService(store, profileRepo, sweepLock, cfg.CleanupInterval)
	cleanupService.Start()

	// Handler 초기화
	matchingHandler := handlers.NewMatchingHandler(queueService, matchmaker, statsService, cleanupService)

	// Health check
	router.GET("/health", handlers.HealthCheck)

	// API v1
	v1 := router.Group("/api/v1")
	{
		q := v1.Group("/queue")
		{
			q.POST("", matchingHandler.Enqueue)
			q.DELETE("/:userId", matchingHandler.Dequeue)
			q.POST("/find", matchingHandler.FindMatch)
			q.GET("/stats", matchingHandler.GetStats)
			q.POST("/cleanup", matchingHandler.ForceCleanup)
			q.GET("/health", matchingHandler.GetHealthStatus)
		}
	}

	return router, cleanupService
}
