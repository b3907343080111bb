package service

import (
	"context"
	"fmt"
	"net/http"

	"smoothy-backend/internal/infrastructure/config"
	"smoothy-backend/internal/pkg/common"

	"github.com/go-resty/resty/v2"
)

// OpenAIService OpenAI 服務
type OpenAIService struct {
	config *config.Config
	client *resty.Client
}

// NewOpenAIService 創建 OpenAI 服務
func NewOpenAIService(cfg *config.Config) *OpenAIService {
	client := resty.New().
		SetBaseURL(cfg.OpenAI.BaseURL).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.OpenAI.APIKey)).
		SetHeader("Content-Type", "application/json")

	return &OpenAIService{
		config: cfg,
		client: client,
	}
}

// GenerateResponse 送出單輪對話並取回純文字回應。
// 每次呼叫套用固定 deadline（預設 60 秒），不重試。
func (s *OpenAIService) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.OpenAI.Timeout)
	defer cancel()

	// 構建請求
	req := map[string]interface{}{
		"model": s.config.OpenAI.Model,
		"messages": []common.ChatMessage{
			{Role: "user", Content: prompt},
		},
		"temperature": s.config.OpenAI.Temperature,
		"max_tokens":  s.config.OpenAI.MaxTokens,
	}

	// 發送請求
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		return "", fmt.Errorf("failed to send request to OpenAI: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("OpenAI API returned error: %s", resp.String())
	}

	// 解析回應
	var result common.AIResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}

	return result.Choices[0].Message.Content, nil
}
