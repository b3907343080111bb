package ingredient

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"smoothy-backend/internal/core/ingredient"
	"smoothy-backend/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler 食材 API 處理器
type Handler struct {
	service *ingredient.Service
}

// NewHandler 創建食材 API 處理器
func NewHandler(service *ingredient.Service) *Handler {
	return &Handler{service: service}
}

// View 食材響應。
// 持久層以 JSON 字串存放的欄位在這裡還原成結構化資料。
type View struct {
	ID           uint                `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	ImageURL     string              `json:"image_url,omitempty"`
	PricePerUnit float64             `json:"price_per_unit"`
	Category     ingredient.Category `json:"category"`
	Active       bool                `json:"active"`
	Seasonal     bool                `json:"seasonal"`
	Calorie      *float64            `json:"calorie,omitempty"`
	Protein      *float64            `json:"protein,omitempty"`
	Fiber        *float64            `json:"fiber,omitempty"`
	Vitamins     map[string]float64  `json:"vitamins,omitempty"`
	Minerals     map[string]float64  `json:"minerals,omitempty"`

	FlavorProfile  string   `json:"flavor_profile,omitempty"`
	TasteNotes     string   `json:"taste_notes,omitempty"`
	BestMixPairing []string `json:"best_mix_pairing,omitempty"`
	AvoidPairing   []string `json:"avoid_pairing,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// toView 將食材實體轉為響應結構
func toView(record *ingredient.Ingredient) View {
	view := View{
		ID:           record.ID,
		Name:         record.Name,
		Description:  record.Description,
		ImageURL:     record.ImageURL,
		PricePerUnit: record.PricePerUnit,
		Category:     record.Category,
		Active:       record.Active,
		Seasonal:     record.Seasonal,
		Calorie:      record.Calorie,
		Protein:      record.Protein,
		Fiber:        record.Fiber,

		FlavorProfile: record.FlavorProfile,
		TasteNotes:    record.TasteNotes,

		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}

	// 存放格式不符就略過該欄位，不讓讀取路徑失敗
	if record.Vitamins != "" {
		_ = json.Unmarshal([]byte(record.Vitamins), &view.Vitamins)
	}
	if record.Minerals != "" {
		_ = json.Unmarshal([]byte(record.Minerals), &view.Minerals)
	}
	if record.BestMixPairing != "" {
		_ = json.Unmarshal([]byte(record.BestMixPairing), &view.BestMixPairing)
	}
	if record.AvoidPairing != "" {
		_ = json.Unmarshal([]byte(record.AvoidPairing), &view.AvoidPairing)
	}

	return view
}

// Add 新增食材
// POST /api/v1/ingredients
func (h *Handler) Add(c *gin.Context) {
	var req ingredient.AddRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogWarn("新增食材請求格式錯誤", zap.Error(err))
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Invalid request format",
		})
		return
	}

	record, err := h.service.AddIngredient(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toView(record))
}

// Refetch 重新補全食材營養資料
// POST /api/v1/ingredients/:id/nutrition
func (h *Handler) Refetch(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	record, err := h.service.RefetchNutrition(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toView(record))
}

// Get 取得單一食材
// GET /api/v1/ingredients/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	record, err := h.service.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toView(record))
}

// List 取得全部食材
// GET /api/v1/ingredients
func (h *Handler) List(c *gin.Context) {
	records, err := h.service.ListIngredients(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toViews(records))
}

// ListSeasonal 取得季節性食材
// GET /api/v1/ingredients/seasonal
func (h *Handler) ListSeasonal(c *gin.Context) {
	records, err := h.service.ListSeasonal(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toViews(records))
}

func toViews(records []ingredient.Ingredient) []View {
	views := make([]View, len(records))
	for i := range records {
		views[i] = toView(&records[i])
	}
	return views
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, common.ErrorResponse{
			Code:    common.ErrCodeInvalidRequest,
			Message: "Invalid ingredient id",
		})
		return 0, false
	}
	return uint(id), true
}

// respondError 依錯誤鏈中的 CustomError 決定 HTTP 狀態碼
func respondError(c *gin.Context, err error) {
	var customErr *common.CustomError
	if errors.As(err, &customErr) {
		if customErr.Status >= 500 {
			common.LogError("食材請求處理失敗",
				zap.String("code", customErr.Code),
				zap.Error(err),
			)
		}
		c.JSON(customErr.Status, common.ErrorResponse{
			Code:    customErr.Code,
			Message: customErr.Message,
			Details: err.Error(),
		})
		return
	}

	common.LogError("食材請求處理失敗", zap.Error(err))
	c.JSON(http.StatusInternalServerError, common.ErrorResponse{
		Code:    common.ErrCodeInternalError,
		Message: "Internal server error",
	})
}
