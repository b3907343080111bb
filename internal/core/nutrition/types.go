package nutrition

// Result 標準化後的營養資料。
// 巨量營養素以每 100g 為基準；nil 表示來源資料缺漏（不可當作 0）。
type Result struct {
	Calorie  *float64
	Protein  *float64
	Fiber    *float64
	Vitamins map[string]float64
	Minerals map[string]float64
}

// HasCalorie 判斷是否取得基礎營養資料（以熱量為準）
func (r *Result) HasCalorie() bool {
	return r != nil && r.Calorie != nil
}

// MacroSummary 回傳可嵌入 AI prompt 的巨量營養素摘要值
func (r *Result) MacroSummary() (calorie, protein, fiber float64) {
	if r == nil {
		return 0, 0, 0
	}
	if r.Calorie != nil {
		calorie = *r.Calorie
	}
	if r.Protein != nil {
		protein = *r.Protein
	}
	if r.Fiber != nil {
		fiber = *r.Fiber
	}
	return calorie, protein, fiber
}
