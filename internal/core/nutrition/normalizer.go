package nutrition

import (
	"encoding/json"
	"fmt"
	"strings"

	"smoothy-backend/internal/pkg/common"

	"go.uber.org/zap"
)

// nutrientKind 營養素分類
type nutrientKind int

const (
	kindCalorie nutrientKind = iota
	kindProtein
	kindFiber
	kindVitamin
	kindMineral
)

// idMapping USDA 營養素 ID 對照（來源：FDC 文件）
type idMapping struct {
	id   int64
	kind nutrientKind
	key  string
}

// 第一層：以 USDA 營養素 ID 對照，最可靠。
// 依序比對，同一 key 先寫入者優先（例如 1106 維生素A RAE 優先於 1104 IU，
// 只要 RAE 先出現在紀錄中）。
var idTable = []idMapping{
	// 熱量與巨量營養素
	{1008, kindCalorie, ""}, // Energy (kcal)
	{1003, kindProtein, ""}, // Protein
	{1079, kindFiber, ""},   // Fiber, total dietary

	// 維生素
	{1162, kindVitamin, "vitaminC"},  // Vitamin C (Ascorbic acid)
	{1106, kindVitamin, "vitaminA"},  // Vitamin A, RAE
	{1104, kindVitamin, "vitaminA"},  // Vitamin A, IU
	{1109, kindVitamin, "vitaminE"},  // Vitamin E (alpha-tocopherol)
	{1110, kindVitamin, "vitaminK"},  // Vitamin K (phylloquinone)
	{1165, kindVitamin, "vitaminB1"}, // Thiamin
	{1166, kindVitamin, "vitaminB2"}, // Riboflavin
	{1167, kindVitamin, "vitaminB3"}, // Niacin
	{1175, kindVitamin, "vitaminB6"},
	{1177, kindVitamin, "folate"}, // Folate, total
	{1178, kindVitamin, "vitaminB12"},

	// 礦物質
	{1087, kindMineral, "calcium"},
	{1089, kindMineral, "iron"},
	{1092, kindMineral, "potassium"},
	{1093, kindMineral, "sodium"},
	{1095, kindMineral, "zinc"},
	{1098, kindMineral, "magnesium"},
	{1099, kindMineral, "phosphorus"},
	{1100, kindMineral, "copper"},
	{1101, kindMineral, "manganese"},
	{1103, kindMineral, "selenium"},
}

// nameMapping 名稱子字串對照
type nameMapping struct {
	contains []string
	exclude  string
	kind     nutrientKind
	key      string
}

// 第二層：ID 不認得時退回名稱子字串比對（不分大小寫）
var nameTable = []nameMapping{
	{[]string{"vitamin c", "ascorbic"}, "", kindVitamin, "vitaminC"},
	{[]string{"vitamin a"}, "beta", kindVitamin, "vitaminA"},
	{[]string{"vitamin e", "tocopherol"}, "", kindVitamin, "vitaminE"},
	{[]string{"vitamin k", "phylloquinone"}, "", kindVitamin, "vitaminK"},
	{[]string{"thiamin", "vitamin b1"}, "", kindVitamin, "vitaminB1"},
	{[]string{"riboflavin", "vitamin b2"}, "", kindVitamin, "vitaminB2"},
	{[]string{"niacin", "vitamin b3"}, "", kindVitamin, "vitaminB3"},
	{[]string{"vitamin b6", "pyridoxine"}, "", kindVitamin, "vitaminB6"},
	{[]string{"folate", "folic acid"}, "", kindVitamin, "folate"},
	{[]string{"vitamin b12", "cobalamin"}, "", kindVitamin, "vitaminB12"},
	{[]string{"calcium"}, "", kindMineral, "calcium"},
	{[]string{"iron"}, "", kindMineral, "iron"},
	{[]string{"potassium"}, "", kindMineral, "potassium"},
	{[]string{"sodium"}, "", kindMineral, "sodium"},
	{[]string{"zinc"}, "", kindMineral, "zinc"},
	{[]string{"magnesium"}, "", kindMineral, "magnesium"},
	{[]string{"phosphorus"}, "", kindMineral, "phosphorus"},
	{[]string{"copper"}, "", kindMineral, "copper"},
	{[]string{"manganese"}, "", kindMineral, "manganese"},
	{[]string{"selenium"}, "", kindMineral, "selenium"},
}

// rawNutrient USDA 紀錄中的單筆營養素
type rawNutrient struct {
	Nutrient *struct {
		ID       int64  `json:"id"`
		Name     string `json:"name"`
		UnitName string `json:"unitName"`
	} `json:"nutrient"`
	Amount *float64 `json:"amount"`
}

// rawDetail USDA 詳細紀錄中本解析器需要的欄位
type rawDetail struct {
	ServingSize     *float64      `json:"servingSize"`
	ServingSizeUnit string        `json:"servingSizeUnit"`
	FoodNutrients   []rawNutrient `json:"foodNutrients"`
}

// Normalizer 將 USDA 原始紀錄標準化為固定結構，不經過 AI 處理
type Normalizer struct{}

// NewNormalizer 創建標準化器
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Parse 解析 USDA 原始紀錄。
// 單筆營養素缺漏或格式不符只會跳過，不會報錯；
// 只有整份紀錄無法解讀時回傳 ErrMalformedSourceData。
func (n *Normalizer) Parse(raw json.RawMessage) (*Result, error) {
	var detail rawDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedSourceData, err)
	}

	result := &Result{
		Vitamins: make(map[string]float64),
		Minerals: make(map[string]float64),
	}

	if len(detail.FoodNutrients) == 0 {
		common.LogWarn("USDA 紀錄沒有 foodNutrients 欄位")
		return result, nil
	}

	// 決定份量基準：預設每 100g；若紀錄以其他份量申報且單位為質量單位，
	// 換算回每 100g（amount * 100 / servingSize）
	servingSize := 100.0
	servingUnit := "g"
	if detail.ServingSize != nil && *detail.ServingSize > 0 {
		servingSize = *detail.ServingSize
	}
	if detail.ServingSizeUnit != "" {
		servingUnit = strings.ToLower(detail.ServingSizeUnit)
	}
	rescale := servingSize != 100.0 && isMassUnit(servingUnit)

	// 第一輪：ID 對照優先，認不得的 ID 退回名稱對照
	for _, entry := range detail.FoodNutrients {
		if entry.Nutrient == nil || entry.Amount == nil {
			continue
		}

		amount := *entry.Amount
		if rescale {
			amount = amount * 100.0 / servingSize
		}

		if n.applyByID(result, entry.Nutrient.ID, amount) {
			continue
		}
		n.applyByName(result, strings.ToLower(entry.Nutrient.Name), amount)
	}

	// 第二輪：巨量營養素若仍缺，放寬為純名稱比對再掃一次
	if result.Calorie == nil || result.Protein == nil || result.Fiber == nil {
		for _, entry := range detail.FoodNutrients {
			if entry.Nutrient == nil || entry.Amount == nil {
				continue
			}

			amount := *entry.Amount
			if rescale {
				amount = amount * 100.0 / servingSize
			}
			name := strings.ToLower(entry.Nutrient.Name)

			if result.Calorie == nil && (strings.Contains(name, "energy") || strings.Contains(name, "calorie")) {
				result.Calorie = &amount
			}
			if result.Protein == nil && strings.Contains(name, "protein") {
				result.Protein = &amount
			}
			if result.Fiber == nil && strings.Contains(name, "fiber") {
				result.Fiber = &amount
			}
		}
	}

	// 缺漏的巨量營養素維持 nil，由呼叫端決定如何呈現；絕不補 0
	if result.Calorie == nil {
		common.LogWarn("USDA 紀錄缺少熱量資料")
	}

	common.LogInfo("USDA 資料標準化完成",
		zap.Bool("has_calorie", result.Calorie != nil),
		zap.Int("vitamins", len(result.Vitamins)),
		zap.Int("minerals", len(result.Minerals)),
	)

	return result, nil
}

// applyByID 以 ID 對照寫入；同一 key 先寫入者優先
func (n *Normalizer) applyByID(result *Result, id int64, amount float64) bool {
	for _, m := range idTable {
		if m.id != id {
			continue
		}
		n.apply(result, m.kind, m.key, amount)
		return true
	}
	return false
}

// applyByName 以名稱子字串對照寫入
func (n *Normalizer) applyByName(result *Result, lowerName string, amount float64) {
	for _, m := range nameTable {
		if m.exclude != "" && strings.Contains(lowerName, m.exclude) {
			continue
		}
		for _, sub := range m.contains {
			if strings.Contains(lowerName, sub) {
				n.apply(result, m.kind, m.key, amount)
				return
			}
		}
	}
}

// apply 寫入單一營養素；已存在的 key 不覆寫
func (n *Normalizer) apply(result *Result, kind nutrientKind, key string, amount float64) {
	switch kind {
	case kindCalorie:
		if result.Calorie == nil {
			result.Calorie = &amount
		}
	case kindProtein:
		if result.Protein == nil {
			result.Protein = &amount
		}
	case kindFiber:
		if result.Fiber == nil {
			result.Fiber = &amount
		}
	case kindVitamin:
		if _, ok := result.Vitamins[key]; !ok {
			result.Vitamins[key] = amount
		}
	case kindMineral:
		if _, ok := result.Minerals[key]; !ok {
			result.Minerals[key] = amount
		}
	}
}

// isMassUnit 判斷是否為質量單位（只有質量單位才做份量換算）
func isMassUnit(unit string) bool {
	switch unit {
	case "g", "grm", "gram", "grams":
		return true
	}
	return false
}
