package health

import (
	"net/http"
	"runtime"
	"time"

	"smoothy-backend/internal/infrastructure/config"
	"smoothy-backend/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status       string                 `json:"status"`
	Timestamp    time.Time              `json:"timestamp"`
	Version      string                 `json:"version"`
	Runtime      map[string]interface{} `json:"runtime"`
	Dependencies map[string]string      `json:"dependencies"`
}

// Handler 健康檢查處理器
type Handler struct {
	config *config.Config
	db     *gorm.DB
}

// NewHandler 創建健康檢查處理器
func NewHandler(cfg *config.Config, db *gorm.DB) *Handler {
	return &Handler{config: cfg, db: db}
}

// HealthCheck 健康檢查：回報版本、運行時與外部依賴狀態。
// USDA/OpenAI 只檢查金鑰是否設定，不實際打外部 API。
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	deps := map[string]string{
		"database": h.databaseStatus(),
		"usda":     configuredStatus(h.config.USDA.APIKey),
		"openai":   configuredStatus(h.config.OpenAI.APIKey),
	}

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Dependencies: deps,
	}

	common.LogInfo("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：資料庫無法連線視為未就緒
func (h *Handler) ReadinessCheck(c *gin.Context) {
	if h.databaseStatus() != "ok" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
			"reason": "database unavailable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}

func (h *Handler) databaseStatus() string {
	if h.db == nil {
		return "not_configured"
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return "error"
	}
	if err := sqlDB.Ping(); err != nil {
		return "error"
	}
	return "ok"
}

func configuredStatus(apiKey string) string {
	if apiKey == "" {
		return "not_configured"
	}
	return "configured"
}
