package ingredient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"
)

// Repository 食材持久層介面。
// 查無資料時回傳 (nil, nil)，由服務層決定對應的業務錯誤。
type Repository interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
	FindByID(ctx context.Context, id uint) (*Ingredient, error)
	FindByName(ctx context.Context, name string) (*Ingredient, error)
	Save(ctx context.Context, record *Ingredient) error
	List(ctx context.Context) ([]Ingredient, error)
	ListSeasonal(ctx context.Context) ([]Ingredient, error)
}

// gormRepository GORM 實作
type gormRepository struct {
	db *gorm.DB
}

// NewRepository 創建食材資料存取層
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// ExistsByName 名稱比對不分大小寫
func (r *gormRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Ingredient{}).
		Where("LOWER(name) = LOWER(?)", name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check ingredient name: %w", err)
	}
	return count > 0, nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uint) (*Ingredient, error) {
	var record Ingredient
	err := r.db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredient %d: %w", id, err)
	}
	return &record, nil
}

func (r *gormRepository) FindByName(ctx context.Context, name string) (*Ingredient, error) {
	var record Ingredient
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = LOWER(?)", name).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find ingredient %q: %w", name, err)
	}
	return &record, nil
}

func (r *gormRepository) Save(ctx context.Context, record *Ingredient) error {
	if err := r.db.WithContext(ctx).Save(record).Error; err != nil {
		return fmt.Errorf("failed to save ingredient: %w", err)
	}
	return nil
}

func (r *gormRepository) List(ctx context.Context) ([]Ingredient, error) {
	var records []Ingredient
	if err := r.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	return records, nil
}

func (r *gormRepository) ListSeasonal(ctx context.Context) ([]Ingredient, error) {
	var records []Ingredient
	err := r.db.WithContext(ctx).
		Where("seasonal = ?", true).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list seasonal ingredients: %w", err)
	}
	return records, nil
}

// memoryRepository 記憶體實作，供測試與無資料庫的本機開發使用
type memoryRepository struct {
	mu      sync.RWMutex
	records map[uint]*Ingredient
	nextID  uint
}

// NewMemoryRepository 創建記憶體食材存取層
func NewMemoryRepository() Repository {
	return &memoryRepository{
		records: make(map[uint]*Ingredient),
		nextID:  1,
	}
}

func (r *memoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, record := range r.records {
		if strings.EqualFold(record.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id uint) (*Ingredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	clone := *record
	return &clone, nil
}

func (r *memoryRepository) FindByName(ctx context.Context, name string) (*Ingredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, record := range r.records {
		if strings.EqualFold(record.Name, name) {
			clone := *record
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *memoryRepository) Save(ctx context.Context, record *Ingredient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if record.ID == 0 {
		record.ID = r.nextID
		r.nextID++
	}
	clone := *record
	r.records[record.ID] = &clone
	return nil
}

func (r *memoryRepository) List(ctx context.Context) ([]Ingredient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	records := make([]Ingredient, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, *record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, nil
}

func (r *memoryRepository) ListSeasonal(ctx context.Context) ([]Ingredient, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]Ingredient, 0)
	for _, record := range all {
		if record.Seasonal {
			records = append(records, record)
		}
	}
	return records, nil
}
