package ingredient

import (
	"encoding/json"
	"time"

	"smoothy-backend/internal/core/flavor"
	"smoothy-backend/internal/core/nutrition"
)

// Category 食材分類
type Category string

const (
	CategoryFruit     Category = "FRUIT"     // 水果
	CategoryVegetable Category = "VEGETABLE" // 蔬菜
	CategoryAddon     Category = "ADDON"     // 配料，如優格、蜂蜜、牛奶
)

// Ingredient 食材實體。
// 身分、名稱與價格永遠存在；營養與風味欄位（EnrichmentBlock）可能整組缺席。
// RawSourceData 保存未經修改的 USDA 原始紀錄，只供稽核/重播，存入後不再解析。
type Ingredient struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"uniqueIndex;not null" json:"name"`
	Description  string    `json:"description"`
	ImageURL     string    `json:"image_url"`
	PricePerUnit float64   `gorm:"not null" json:"price_per_unit"`
	Category     Category  `gorm:"not null;default:FRUIT" json:"category"`
	Active       bool      `gorm:"not null;default:true" json:"active"`
	Seasonal     bool      `gorm:"not null;default:false" json:"seasonal"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// 營養資料（每 100g）；nil 表示未補全
	Calorie *float64 `json:"calorie,omitempty"`
	Protein *float64 `json:"protein,omitempty"`
	Fiber   *float64 `json:"fiber,omitempty"`

	// 維生素與礦物質，序列化為 JSON 字串存放
	Vitamins string `json:"vitamins,omitempty"`
	Minerals string `json:"minerals,omitempty"`

	// 風味與搭配資料（獨立選配，可能在營養補全成功時仍缺席）
	FlavorProfile  string `json:"flavor_profile,omitempty"`
	TasteNotes     string `gorm:"type:text" json:"taste_notes,omitempty"`
	BestMixPairing string `json:"best_mix_pairing,omitempty"` // JSON 陣列
	AvoidPairing   string `json:"avoid_pairing,omitempty"`    // JSON 陣列

	// 原始 USDA 紀錄；只要 detail fetch 成功就會寫入
	RawSourceData string `gorm:"type:text" json:"-"`
}

// TableName 指定資料表名稱
func (Ingredient) TableName() string {
	return "ingredients"
}

// HasEnrichment 判斷是否已有營養補全資料
func (i *Ingredient) HasEnrichment() bool {
	return i.Calorie != nil
}

// ApplyNutrition 寫入標準化後的營養資料。
// 呼叫端保證 result 含熱量；缺漏的蛋白質/纖維依政策存為 0
// （「無資料」在持久層以 0 呈現，解析層的缺席語意不受影響）。
func (i *Ingredient) ApplyNutrition(result *nutrition.Result) error {
	calorie := *result.Calorie
	i.Calorie = &calorie

	protein := 0.0
	if result.Protein != nil {
		protein = *result.Protein
	}
	i.Protein = &protein

	fiber := 0.0
	if result.Fiber != nil {
		fiber = *result.Fiber
	}
	i.Fiber = &fiber

	vitamins, err := json.Marshal(result.Vitamins)
	if err != nil {
		return err
	}
	i.Vitamins = string(vitamins)

	minerals, err := json.Marshal(result.Minerals)
	if err != nil {
		return err
	}
	i.Minerals = string(minerals)

	return nil
}

// ApplyFlavor 寫入風味分析資料
func (i *Ingredient) ApplyFlavor(profile *flavor.Profile) error {
	i.FlavorProfile = profile.FlavorProfile
	i.TasteNotes = profile.TasteNotes

	best, err := json.Marshal(profile.BestMixPairing)
	if err != nil {
		return err
	}
	i.BestMixPairing = string(best)

	avoid, err := json.Marshal(profile.AvoidPairing)
	if err != nil {
		return err
	}
	i.AvoidPairing = string(avoid)

	return nil
}
