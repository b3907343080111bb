package nutrition

import (
	"context"
	"strings"

	"smoothy-backend/internal/pkg/common"

	"go.uber.org/zap"
)

// Translator AI 翻譯後援介面
type Translator interface {
	Translate(ctx context.Context, name string) (string, error)
}

// dictEntry 靜態辭典條目：任一 match 子字串命中（或與 canonical 完全相等）即採用 canonical
type dictEntry struct {
	matches   []string
	canonical string
}

// 泰文食材名稱對照表。先以子字串比對，涵蓋常見拼寫變體。
var ingredientDictionary = []dictEntry{
	// 水果
	{[]string{"กล้วย"}, "banana"},
	{[]string{"สตรอเบอรี่", "สตรอเบอร์รี่"}, "strawberry"},
	{[]string{"เลม่อน"}, "lemon"},
	{[]string{"บลูเบอรี่", "บลูเบอร์รี่"}, "blueberry"},
	{[]string{"ส้ม"}, "orange"},
	{[]string{"แอปเปิล", "แอปเปิ้ล"}, "apple"},
	{[]string{"มะนาว"}, "lime"},
	{[]string{"องุ่น"}, "grape"},
	{[]string{"กีวี"}, "kiwi"},
	{[]string{"มะม่วง"}, "mango"},
	{[]string{"สับปะรด"}, "pineapple"},
	{[]string{"แตงโม"}, "watermelon"},
	{[]string{"ลิ้นจี่"}, "lychee"},
	{[]string{"ลำไย"}, "longan"},
	{[]string{"ทุเรียน"}, "durian"},
	{[]string{"มังคุด"}, "mangosteen"},
	{[]string{"เงาะ"}, "rambutan"},

	// 蔬菜
	{[]string{"ผักโขม"}, "spinach"},
	{[]string{"ผักแคล", "ผักคะน้า"}, "kale"},
	{[]string{"แครอท", "แครอต"}, "carrot"},
	{[]string{"บีทรูท"}, "beetroot"},
	{[]string{"แตงกวา"}, "cucumber"},
	{[]string{"บร็อคโคลี่", "บร็อคโคลี", "บล็อคโคลี่", "บล็อคโคลี"}, "broccoli"},
	{[]string{"กะหล่ำ"}, "cabbage"},
	{[]string{"ผักกาด"}, "lettuce"},
	{[]string{"มะเขือ"}, "eggplant"},
	{[]string{"พริก"}, "pepper"},
	{[]string{"ขิง"}, "ginger"},
	{[]string{"กระเทียม"}, "garlic"},
	{[]string{"หอม"}, "onion"},

	// 配料
	{[]string{"น้ำผึ้ง"}, "honey"},
	{[]string{"โยเกิร์ต"}, "yogurt"},
	{[]string{"นม"}, "milk"},
	{[]string{"อโวคาโด", "อโวคาโด้"}, "avocado"},
	{[]string{"เมล็ดเจีย"}, "chia seeds"},
	{[]string{"อัลมอนด์", "อัลม่อนด์"}, "almond"},
	{[]string{"เวย์", "whey"}, "whey protein"},
}

// Resolver 名稱解析器：將任意食材名稱轉成可供 USDA 查詢的英文標準詞。
// Resolve 永遠回傳可用的查詢詞，不會失敗。
type Resolver struct {
	translator Translator
}

// NewResolver 創建名稱解析器；translator 可為 nil（無 AI 後援）
func NewResolver(translator Translator) *Resolver {
	return &Resolver{translator: translator}
}

// Resolve 解析標準查詢詞。
// 順序：靜態辭典 → ASCII 原樣通過 → AI 翻譯 → 退回原名。
func (r *Resolver) Resolve(ctx context.Context, rawName string) string {
	lowerName := strings.ToLower(strings.TrimSpace(rawName))
	if lowerName == "" {
		return rawName
	}

	for _, entry := range ingredientDictionary {
		if lowerName == entry.canonical {
			return entry.canonical
		}
		for _, match := range entry.matches {
			if strings.Contains(lowerName, match) {
				return entry.canonical
			}
		}
	}

	// 已是英文（純 ASCII 字母/數字/空白）就原樣使用
	if isPlainASCII(lowerName) {
		return strings.TrimSpace(rawName)
	}

	// 辭典查不到且非英文，交給 AI 翻譯
	if r.translator != nil {
		common.LogInfo("辭典查無對照，改用 AI 翻譯",
			zap.String("name", rawName),
		)
		translated, err := r.translator.Translate(ctx, rawName)
		if err != nil {
			common.LogWarn("AI 翻譯失敗，沿用原名稱",
				zap.String("name", rawName),
				zap.Error(err),
			)
		} else if translated != "" {
			common.LogInfo("AI 翻譯完成",
				zap.String("name", rawName),
				zap.String("translated", translated),
			)
			return translated
		}
	}

	// 後援全數失敗：回傳原名，讓下游查詢自然落空
	return rawName
}

// isPlainASCII 檢查是否只含 ASCII 字母、數字與空白
func isPlainASCII(s string) bool {
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == ' ' || c == '\t':
		default:
			return false
		}
	}
	return true
}
