package service

import (
	"context"
	"fmt"
	"strings"
)

// Translate 將食材名稱翻譯成英文，供 USDA 查詢使用。
// 只取單行結果；回應為空視為失敗，由呼叫端決定後援。
func (s *Service) Translate(ctx context.Context, name string) (string, error) {
	prompt := fmt.Sprintf(
		"Translate the following food/ingredient name to English. "+
			"Return ONLY the English name, nothing else. "+
			"If it's already in English, return it as is.\n\n"+
			"Name: %s\n\n"+
			"English name:",
		name,
	)

	resp, err := s.ProcessRequest(ctx, prompt)
	if err != nil {
		return "", err
	}

	translated := strings.TrimSpace(resp.Content)
	if idx := strings.IndexByte(translated, '\n'); idx != -1 {
		translated = strings.TrimSpace(translated[:idx])
	}
	if translated == "" {
		return "", fmt.Errorf("empty translation result")
	}
	return translated, nil
}
