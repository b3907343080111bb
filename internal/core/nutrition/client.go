package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"smoothy-backend/internal/infrastructure/config"
	"smoothy-backend/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Client USDA FoodData Central 查詢客戶端。
// API 文件：https://fdc.nal.usda.gov/api-guide.html
// 只做讀取，每次呼叫套用固定 deadline，不重試。
type Client struct {
	config *config.Config
	client *resty.Client
}

// NewClient 創建 USDA 查詢客戶端
func NewClient(cfg *config.Config) *Client {
	client := resty.New().
		SetBaseURL(cfg.USDA.BaseURL)

	return &Client{
		config: cfg,
		client: client,
	}
}

// searchResponse /foods/search 回應
type searchResponse struct {
	Foods []struct {
		FdcID int64 `json:"fdcId"`
	} `json:"foods"`
}

// Search 以標準詞查詢候選食材，回傳第一筆 fdcId。
// 查無結果回傳 found=false（不是錯誤）；服務不可用或未設定金鑰
// 回傳 ErrLookupUnavailable。
func (c *Client) Search(ctx context.Context, term string) (fdcID int64, found bool, err error) {
	if strings.TrimSpace(c.config.USDA.APIKey) == "" {
		return 0, false, fmt.Errorf("%w: USDA API key is not configured", common.ErrLookupUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.USDA.Timeout)
	defer cancel()

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"query":    term,
			"api_key":  c.config.USDA.APIKey,
			"pageSize": strconv.Itoa(c.config.USDA.PageSize),
		}).
		Get("/foods/search")

	if err != nil {
		return 0, false, fmt.Errorf("%w: failed to search USDA API: %v", common.ErrLookupUnavailable, err)
	}

	if resp.StatusCode() == http.StatusForbidden {
		common.LogError("USDA API 拒絕存取，請檢查 USDA_API_KEY",
			zap.Int("status", resp.StatusCode()),
		)
		return 0, false, fmt.Errorf("%w: USDA API access denied (403)", common.ErrLookupUnavailable)
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, false, fmt.Errorf("%w: USDA API returned status %d", common.ErrLookupUnavailable, resp.StatusCode())
	}

	var result searchResponse
	if err := common.ParseJSONBytes(resp.Body(), &result); err != nil {
		return 0, false, fmt.Errorf("%w: failed to parse USDA search response: %v", common.ErrLookupUnavailable, err)
	}

	if len(result.Foods) == 0 {
		common.LogInfo("USDA 查無結果",
			zap.String("term", term),
		)
		return 0, false, nil
	}

	common.LogInfo("USDA 查詢成功",
		zap.String("term", term),
		zap.Int64("fdc_id", result.Foods[0].FdcID),
	)
	return result.Foods[0].FdcID, true, nil
}

// FetchDetail 取得完整營養紀錄。
// 回傳未解析的原始 JSON，由 Normalizer 做結構化處理，
// 原文也會原封不動存入食材紀錄供日後稽核。
func (c *Client) FetchDetail(ctx context.Context, fdcID int64) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.USDA.Timeout)
	defer cancel()

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("api_key", c.config.USDA.APIKey).
		Get(fmt.Sprintf("/food/%d", fdcID))

	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch USDA food details: %v", common.ErrLookupUnavailable, err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("%w: USDA API returned status %d for fdcId %d", common.ErrLookupUnavailable, resp.StatusCode(), fdcID)
	}

	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("%w: USDA API returned empty response for fdcId %d", common.ErrLookupUnavailable, fdcID)
	}

	common.LogInfo("USDA 詳細資料取得成功",
		zap.Int64("fdc_id", fdcID),
		zap.Int("payload_size", len(resp.Body())),
	)

	raw := make(json.RawMessage, len(resp.Body()))
	copy(raw, resp.Body())
	return raw, nil
}
