package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shopping-optimizer/internal/api/handlers/health"
	shoppingHandler "shopping-optimizer/internal/api/handlers/shopping"
	"shopping-optimizer/internal/api/middleware"
	"shopping-optimizer/internal/core/cache"
	"shopping-optimizer/internal/core/queue"
	"shopping-optimizer/internal/core/recipestore"
	"shopping-optimizer/internal/core/shopping/pipeline"
	"shopping-optimizer/internal/infrastructure/config"
	"shopping-optimizer/internal/pkg/common"
)

const (
	// 超時設置
	timeoutDuration = 60 * time.Second
	// 請求體大小限制 (2MB)，純文字食譜 payload 用不到更多
	maxBodySize = 2 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, cacheStore cache.Store) (*gin.Engine, *queue.Manager, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(requestid.New())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(maxBodySize))

	// 限流與去重
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Deduplication(cfg))

	common.LogInfo("Initializing services",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.Int("queue_workers", cfg.Queue.Workers),
		zap.Bool("recipe_store_enabled", cfg.RecipeStore.Enabled),
		zap.Duration("timeout", timeoutDuration),
	)

	// 初始化最佳化服務與隊列
	optimizerService := pipeline.NewService(cfg.Shopping)
	queueManager := queue.NewManager(cfg, optimizerService)

	// 食譜儲存服務客戶端（選配）
	var recipeClient *recipestore.Client
	if cfg.RecipeStore.Enabled {
		recipeClient = recipestore.NewClient(cfg)
	}

	// 全局中間件：設置超時並注入共享依賴
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("queue_manager", queueManager)
		if cacheStore != nil {
			c.Set("cache_store", cacheStore)
		}

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  common.ErrCodeRequestTimeout,
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		handler := shoppingHandler.NewHandler(cfg, queueManager, cacheStore, recipeClient)

		shoppingGroup := api.Group("/shopping")
		{
			// 完整三階段最佳化
			shoppingGroup.POST("/optimize", handler.HandleOptimize)

			// 只做食材彙整
			shoppingGroup.POST("/consolidate", handler.HandleConsolidate)

			// 以食譜 ID 取回內容後最佳化
			shoppingGroup.POST("/optimize/by-ids", handler.HandleOptimizeByIDs)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Bool("cache_store_initialized", cacheStore != nil),
		zap.Bool("recipe_store_initialized", recipeClient != nil),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, queueManager, nil
}
