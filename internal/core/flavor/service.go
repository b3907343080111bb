package flavor

import (
	"context"
	"fmt"
	"strings"

	aiservice "smoothy-backend/internal/core/ai/service"
	"smoothy-backend/internal/core/nutrition"
	"smoothy-backend/internal/pkg/common"

	"go.uber.org/zap"
)

// Profile 風味分析結果
type Profile struct {
	FlavorProfile  string   `json:"flavor_profile"`   // 例如 "sweet, tropical"
	TasteNotes     string   `json:"taste_notes"`      // 詳細味覺描述
	BestMixPairing []string `json:"best_mix_pairing"` // 建議搭配的食材
	AvoidPairing   []string `json:"avoid_pairing"`    // 應避免搭配的食材
}

// aiClient AI 文字生成介面
type aiClient interface {
	ProcessRequest(ctx context.Context, prompt string) (*aiservice.Response, error)
}

// Service 風味補全服務：以標準化後的營養摘要生成風味與搭配建議。
// 失敗一律回報 ErrEnrichmentUnavailable，呼叫端視為可恢復。
type Service struct {
	ai aiClient
}

// NewService 創建風味補全服務
func NewService(ai aiClient) *Service {
	return &Service{ai: ai}
}

// Enrich 生成風味分析。
// prompt 只嵌入標準化後的巨量營養素摘要，絕不附上完整 USDA 原文，
// 以控制 token 用量。
func (s *Service) Enrich(ctx context.Context, ingredientName string, result *nutrition.Result) (*Profile, error) {
	prompt := buildFlavorPrompt(ingredientName, result)

	resp, err := s.ai.ProcessRequest(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEnrichmentUnavailable, err)
	}

	content := common.ExtractJSONBlock(resp.Content)

	var profile Profile
	if err := common.ParseJSON(content, &profile); err != nil {
		common.LogWarn("風味分析回應無法解析",
			zap.Error(err),
			zap.String("ingredient", ingredientName),
		)
		return nil, fmt.Errorf("%w: failed to parse flavor response: %v", common.ErrEnrichmentUnavailable, err)
	}

	if strings.TrimSpace(profile.FlavorProfile) == "" {
		return nil, fmt.Errorf("%w: flavor response missing flavor_profile", common.ErrEnrichmentUnavailable)
	}

	common.LogInfo("風味分析完成",
		zap.String("ingredient", ingredientName),
		zap.Int("best_pairings", len(profile.BestMixPairing)),
		zap.Int("avoid_pairings", len(profile.AvoidPairing)),
	)

	return &profile, nil
}

// buildFlavorPrompt 構建風味分析提示
func buildFlavorPrompt(ingredientName string, result *nutrition.Result) string {
	calorie, protein, fiber := result.MacroSummary()

	return fmt.Sprintf(
		"You are a flavor-analysis expert for a build-your-own smoothy service.\n\n"+
			"Ingredient: %s\n"+
			"Nutrition (per 100g): Calories: %.2f, Protein: %.2fg, Fiber: %.2fg\n\n"+
			"Please provide a JSON object with the following structure (return JSON only, no markdown):\n"+
			"{\n"+
			"  \"flavor_profile\": \"<short description, e.g. sweet, tropical>\",\n"+
			"  \"taste_notes\": \"<detailed taste description>\",\n"+
			"  \"best_mix_pairing\": [\"<ingredient1>\", \"<ingredient2>\"],\n"+
			"  \"avoid_pairing\": [\"<ingredient1>\", \"<ingredient2>\"]\n"+
			"}",
		ingredientName, calorie, protein, fiber,
	)
}
