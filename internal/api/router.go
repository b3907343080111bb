package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"smoothy-backend/internal/api/handlers/health"
	ingredientHandler "smoothy-backend/internal/api/handlers/ingredient"
	"smoothy-backend/internal/api/middleware"
	"smoothy-backend/internal/core/ai/cache"
	aiservice "smoothy-backend/internal/core/ai/service"
	"smoothy-backend/internal/core/flavor"
	ingredientService "smoothy-backend/internal/core/ingredient"
	"smoothy-backend/internal/core/nutrition"
	"smoothy-backend/internal/infrastructure/config"
	"smoothy-backend/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// 超時設置：補全流程串接 USDA 與 OpenAI，留足餘裕
	timeoutDuration = 120 * time.Second
	// 請求體大小限制 (1MB)，本服務不收圖片
	maxBodySize = 1 << 20
)

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, gdb *gorm.DB, cacheManager *cache.CacheManager) (*gin.Engine, error) {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 基礎中間件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(requestid.New(requestid.WithGenerator(common.GenerateUUID)))

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(maxBodySize))

	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	router.Use(middleware.Deduplication(cfg))

	// 初始化服務
	aiSvc, err := aiservice.NewService(cfg, cacheManager)
	if err != nil || aiSvc == nil {
		common.LogError("Failed to initialize AI service", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize AI service: %w", err)
	}

	resolver := nutrition.NewResolver(aiSvc)
	usdaClient := nutrition.NewClient(cfg)
	normalizer := nutrition.NewNormalizer()
	flavorSvc := flavor.NewService(aiSvc)

	repo := ingredientService.NewRepository(gdb)
	ingredientSvc := ingredientService.NewService(repo, resolver, usdaClient, normalizer, flavorSvc)

	common.LogInfo("Enrichment pipeline initialized",
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("model", cfg.OpenAI.Model),
		zap.Bool("usda_configured", cfg.USDA.APIKey != ""),
		zap.Duration("timeout", timeoutDuration),
	)

	// 全局中間件：請求超時
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeoutDuration)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetHeader("X-Request-ID")),
				zap.Duration("timeout", timeoutDuration),
			)
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"error": "Request timeout",
				"code":  "REQUEST_TIMEOUT",
				"details": gin.H{
					"timeout": timeoutDuration.String(),
				},
			})
			c.Abort()
			return
		}
	})

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, gdb)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// API 路由組
	api := router.Group("/api/v1")
	{
		handler := ingredientHandler.NewHandler(ingredientSvc)

		ingredients := api.Group("/ingredients")
		{
			ingredients.POST("", handler.Add)
			ingredients.GET("", handler.List)
			ingredients.GET("/seasonal", handler.ListSeasonal)
			ingredients.GET("/:id", handler.Get)
			ingredients.POST("/:id/nutrition", handler.Refetch)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
		zap.Duration("timeout", timeoutDuration),
		zap.Int64("max_body_size", maxBodySize),
	)

	return router, nil
}
