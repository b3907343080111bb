package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"smoothy-backend/internal/core/ai/cache"
	openai "smoothy-backend/internal/core/service"
	"smoothy-backend/internal/infrastructure/config"
	"smoothy-backend/internal/pkg/common"
)

// Response AI 回應結構
type Response struct {
	Content string
}

// Service AI 服務：統一入口，負責快取與請求頻率控制
type Service struct {
	config       *config.Config
	openAI       *openai.OpenAIService
	cacheManager *cache.CacheManager
	mu           sync.Mutex
	tokens       int
	lastRefill   time.Time
}

// NewService 創建 AI 服務
func NewService(cfg *config.Config, cacheManager *cache.CacheManager) (*Service, error) {
	return &Service{
		config:       cfg,
		openAI:       openai.NewOpenAIService(cfg),
		cacheManager: cacheManager,
		tokens:       cfg.RateLimit.Requests,
		lastRefill:   time.Now(),
	}, nil
}

// ProcessRequest 統一對外方法
func (s *Service) ProcessRequest(ctx context.Context, prompt string) (*Response, error) {
	if err := s.checkRequestRate(); err != nil {
		return nil, err
	}

	// 統一 prompt 空白，確保快取 key 一致
	cacheKey := strings.Join(strings.Fields(strings.TrimSpace(prompt)), " ")

	// 檢查緩存
	if s.config.Cache.Enabled && s.cacheManager != nil {
		if val, err := s.cacheManager.Get(ctx, cacheKey); err == nil && val != "" {
			return &Response{Content: val}, nil
		}
	}

	start := time.Now()
	content, err := s.openAI.GenerateResponse(ctx, prompt)
	common.LogAICall(prompt, time.Since(start), err, "")
	if err != nil {
		return nil, err
	}

	if s.config.Cache.Enabled && s.cacheManager != nil {
		_ = s.cacheManager.Set(ctx, cacheKey, content)
	}

	return &Response{Content: content}, nil
}

// checkRequestRate 檢查請求頻率。
// 以令牌桶計數每個時間窗內的呼叫次數：一次補全流程會連續發出
// 翻譯與風味兩通請求，兩者之間不能被強制隔開一整個時間窗。
func (s *Service) checkRequestRate() error {
	if !s.config.RateLimit.Enabled {
		return nil
	}

	capacity := s.config.RateLimit.Requests
	window := s.config.RateLimit.Window
	if capacity <= 0 || window <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rate := float64(capacity) / window.Seconds()
	refill := int(now.Sub(s.lastRefill).Seconds() * rate)
	if refill > 0 {
		s.tokens += refill
		if s.tokens > capacity {
			s.tokens = capacity
		}
		s.lastRefill = now
	}

	if s.tokens <= 0 {
		return errors.New("request rate limit exceeded")
	}
	s.tokens--
	return nil
}
