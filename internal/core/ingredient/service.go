package ingredient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"smoothy-backend/internal/core/flavor"
	"smoothy-backend/internal/core/nutrition"
	"smoothy-backend/internal/pkg/common"

	"go.uber.org/zap"
)

// nameResolver 將任意語言的食材名稱轉成英文查詢詞
type nameResolver interface {
	Resolve(ctx context.Context, rawName string) string
}

// lookupClient 營養資料庫查詢介面
type lookupClient interface {
	Search(ctx context.Context, term string) (fdcID int64, found bool, err error)
	FetchDetail(ctx context.Context, fdcID int64) (json.RawMessage, error)
}

// flavorClient 風味補全介面
type flavorClient interface {
	Enrich(ctx context.Context, ingredientName string, result *nutrition.Result) (*flavor.Profile, error)
}

// AddRequest 新增食材請求。
// FetchNutrition 未指定時預設為 true。
type AddRequest struct {
	Name           string   `json:"name" binding:"required"`
	Description    string   `json:"description"`
	ImageURL       string   `json:"image_url"`
	PricePerUnit   float64  `json:"price_per_unit"`
	Category       Category `json:"category"`
	Active         *bool    `json:"active"`
	Seasonal       *bool    `json:"seasonal"`
	FetchNutrition *bool    `json:"fetch_nutrition"`
}

// Service 食材服務：管理人工欄位，並協調營養/風味補全流程。
// 新增食材時補全採盡力而為，任何外部失敗都不影響建檔；
// 重新補全則採嚴格模式，失敗直接回報且不動既有紀錄。
type Service struct {
	repo       Repository
	resolver   nameResolver
	lookup     lookupClient
	normalizer *nutrition.Normalizer
	flavor     flavorClient
}

// NewService 創建食材服務
func NewService(repo Repository, resolver nameResolver, lookup lookupClient, normalizer *nutrition.Normalizer, flavorSvc flavorClient) *Service {
	return &Service{
		repo:       repo,
		resolver:   resolver,
		lookup:     lookup,
		normalizer: normalizer,
		flavor:     flavorSvc,
	}
}

// enrichment 一次補全流程的產出
type enrichment struct {
	nutrition *nutrition.Result
	flavor    *flavor.Profile
	raw       json.RawMessage
}

// AddIngredient 新增食材並嘗試補全營養與風味資料。
// 名稱重複回傳 ErrDuplicateIngredient；補全過程的任何失敗
// 只會記錄警告，食材仍以人工欄位建檔。
func (s *Service) AddIngredient(ctx context.Context, req *AddRequest) (*Ingredient, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: ingredient name is required", common.ErrInvalidRequest)
	}

	exists, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", common.ErrDuplicateIngredient, name)
	}

	record := &Ingredient{
		Name:         name,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		PricePerUnit: req.PricePerUnit,
		Category:     req.Category,
		Active:       true,
		Seasonal:     false,
	}
	if record.Category == "" {
		record.Category = CategoryFruit
	}
	if req.Active != nil {
		record.Active = *req.Active
	}
	if req.Seasonal != nil {
		record.Seasonal = *req.Seasonal
	}

	fetchNutrition := true
	if req.FetchNutrition != nil {
		fetchNutrition = *req.FetchNutrition
	}

	if fetchNutrition {
		enriched, err := s.fetchEnrichment(ctx, name)
		if err != nil {
			common.LogWarn("營養補全失敗，食材仍以人工欄位建檔",
				zap.String("name", name),
				zap.Error(err),
			)
		}
		if enriched != nil {
			if applyErr := s.applyEnrichment(record, enriched); applyErr != nil {
				common.LogWarn("補全資料寫入失敗",
					zap.String("name", name),
					zap.Error(applyErr),
				)
			}
		}
	}

	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}

	common.LogInfo("食材建檔完成",
		zap.Uint("id", record.ID),
		zap.String("name", record.Name),
		zap.Bool("enriched", record.HasEnrichment()),
	)
	return record, nil
}

// RefetchNutrition 對既有食材重新執行補全流程。
// 查無食材回傳 ErrIngredientNotFound；補全任一必要步驟失敗
// 回傳 ErrEnrichmentFailed，且不更動既有紀錄。
// 風味分析失敗仍視為可恢復，只影響風味欄位。
func (s *Service) RefetchNutrition(ctx context.Context, id uint) (*Ingredient, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: id=%d", common.ErrIngredientNotFound, id)
	}

	enriched, err := s.fetchEnrichment(ctx, record.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEnrichmentFailed, err)
	}
	if enriched == nil || enriched.nutrition == nil {
		return nil, fmt.Errorf("%w: no nutrition data found for %q", common.ErrEnrichmentFailed, record.Name)
	}

	if err := s.applyEnrichment(record, enriched); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrEnrichmentFailed, err)
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return nil, err
	}

	common.LogInfo("食材營養資料重新補全完成",
		zap.Uint("id", record.ID),
		zap.String("name", record.Name),
	)
	return record, nil
}

// GetIngredient 取得單一食材
func (s *Service) GetIngredient(ctx context.Context, id uint) (*Ingredient, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf("%w: id=%d", common.ErrIngredientNotFound, id)
	}
	return record, nil
}

// ListIngredients 取得全部食材
func (s *Service) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	return s.repo.List(ctx)
}

// ListSeasonal 取得季節性食材
func (s *Service) ListSeasonal(ctx context.Context) ([]Ingredient, error) {
	return s.repo.ListSeasonal(ctx)
}

// fetchEnrichment 執行完整補全流程：解析名稱 → 查詢 → 取得原文 →
// 標準化 → 風味分析。
// 查無食材回傳 (nil, nil)；熱量缺席視為資料不可用，只保留原文。
// 風味失敗一律吸收，不向上傳遞。
func (s *Service) fetchEnrichment(ctx context.Context, rawName string) (*enrichment, error) {
	term := s.resolver.Resolve(ctx, rawName)

	fdcID, found, err := s.lookup.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	if !found {
		common.LogInfo("營養資料庫查無此食材",
			zap.String("name", rawName),
			zap.String("term", term),
		)
		return nil, nil
	}

	raw, err := s.lookup.FetchDetail(ctx, fdcID)
	if err != nil {
		return nil, err
	}

	result, err := s.normalizer.Parse(raw)
	if err != nil {
		// 原文已取得，保留供稽核，但營養欄位不寫入
		return &enrichment{raw: raw}, err
	}
	if !result.HasCalorie() {
		common.LogWarn("標準化結果缺少熱量，視為無可用營養資料",
			zap.String("name", rawName),
		)
		return &enrichment{raw: raw}, nil
	}

	enriched := &enrichment{nutrition: result, raw: raw}

	profile, err := s.flavor.Enrich(ctx, rawName, result)
	if err != nil {
		common.LogWarn("風味分析失敗，僅寫入營養資料",
			zap.String("name", rawName),
			zap.Error(err),
		)
	} else {
		enriched.flavor = profile
	}

	return enriched, nil
}

// applyEnrichment 將補全產出寫入食材紀錄
func (s *Service) applyEnrichment(record *Ingredient, enriched *enrichment) error {
	if enriched.raw != nil {
		record.RawSourceData = string(enriched.raw)
	}
	if enriched.nutrition != nil {
		if err := record.ApplyNutrition(enriched.nutrition); err != nil {
			return err
		}
	}
	if enriched.flavor != nil {
		if err := record.ApplyFlavor(enriched.flavor); err != nil {
			return err
		}
	}
	return nil
}
