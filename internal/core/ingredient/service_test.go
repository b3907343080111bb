package ingredient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"smoothy-backend/internal/core/flavor"
	"smoothy-backend/internal/core/nutrition"
	"smoothy-backend/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	calls int
}

func (f *fakeResolver) Resolve(ctx context.Context, rawName string) string {
	f.calls++
	return "resolved:" + rawName
}

type fakeLookup struct {
	searchCalls int
	fdcID       int64
	found       bool
	searchErr   error

	detailCalls int
	detail      json.RawMessage
	detailErr   error
}

func (f *fakeLookup) Search(ctx context.Context, term string) (int64, bool, error) {
	f.searchCalls++
	return f.fdcID, f.found, f.searchErr
}

func (f *fakeLookup) FetchDetail(ctx context.Context, fdcID int64) (json.RawMessage, error) {
	f.detailCalls++
	return f.detail, f.detailErr
}

type fakeFlavor struct {
	calls   int
	profile *flavor.Profile
	err     error
}

func (f *fakeFlavor) Enrich(ctx context.Context, name string, result *nutrition.Result) (*flavor.Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.profile, nil
}

const bananaDetail = `{"fdcId":1102653,"foodNutrients":[` +
	`{"nutrient":{"id":1008,"name":"Energy","unitName":"kcal"},"amount":89},` +
	`{"nutrient":{"id":1003,"name":"Protein","unitName":"g"},"amount":1.1},` +
	`{"nutrient":{"id":1079,"name":"Fiber, total dietary","unitName":"g"},"amount":2.6}]}`

func newTestService(lookup *fakeLookup, flavorSvc *fakeFlavor) (*Service, Repository, *fakeResolver) {
	repo := NewMemoryRepository()
	resolver := &fakeResolver{}
	svc := NewService(repo, resolver, lookup, nutrition.NewNormalizer(), flavorSvc)
	return svc, repo, resolver
}

func TestAddIngredientFullEnrichment(t *testing.T) {
	lookup := &fakeLookup{fdcID: 1102653, found: true, detail: json.RawMessage(bananaDetail)}
	flavorSvc := &fakeFlavor{profile: &flavor.Profile{
		FlavorProfile:  "sweet, tropical",
		TasteNotes:     "creamy",
		BestMixPairing: []string{"strawberry"},
		AvoidPairing:   []string{"garlic"},
	}}
	svc, _, resolver := newTestService(lookup, flavorSvc)

	record, err := svc.AddIngredient(context.Background(), &AddRequest{
		Name:         "Banana",
		PricePerUnit: 1.5,
	})
	require.NoError(t, err)

	assert.NotZero(t, record.ID)
	assert.Equal(t, "Banana", record.Name)
	assert.Equal(t, CategoryFruit, record.Category)
	assert.True(t, record.Active)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, 1, lookup.searchCalls)
	assert.Equal(t, 1, flavorSvc.calls)

	require.NotNil(t, record.Calorie)
	assert.InDelta(t, 89, *record.Calorie, 0.001)
	assert.Equal(t, "sweet, tropical", record.FlavorProfile)
	assert.JSONEq(t, `["strawberry"]`, record.BestMixPairing)
	assert.JSONEq(t, bananaDetail, record.RawSourceData)
}

func TestAddIngredientDuplicateName(t *testing.T) {
	lookup := &fakeLookup{found: false}
	svc, repo, _ := newTestService(lookup, &fakeFlavor{})

	require.NoError(t, repo.Save(context.Background(), &Ingredient{Name: "Banana"}))

	// 名稱比對不分大小寫
	_, err := svc.AddIngredient(context.Background(), &AddRequest{Name: "banana"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDuplicateIngredient))
}

func TestAddIngredientSkipsFetchWhenDisabled(t *testing.T) {
	lookup := &fakeLookup{fdcID: 1, found: true, detail: json.RawMessage(bananaDetail)}
	flavorSvc := &fakeFlavor{}
	svc, _, resolver := newTestService(lookup, flavorSvc)

	off := false
	record, err := svc.AddIngredient(context.Background(), &AddRequest{
		Name:           "Banana",
		FetchNutrition: &off,
	})
	require.NoError(t, err)

	assert.Nil(t, record.Calorie)
	assert.Empty(t, record.RawSourceData)
	assert.Zero(t, resolver.calls)
	assert.Zero(t, lookup.searchCalls)
	assert.Zero(t, flavorSvc.calls)
}

func TestAddIngredientFoodNotFound(t *testing.T) {
	lookup := &fakeLookup{found: false}
	flavorSvc := &fakeFlavor{}
	svc, _, _ := newTestService(lookup, flavorSvc)

	// 查無資料不阻斷建檔
	record, err := svc.AddIngredient(context.Background(), &AddRequest{Name: "Obscure berry"})
	require.NoError(t, err)

	assert.NotZero(t, record.ID)
	assert.Nil(t, record.Calorie)
	assert.Empty(t, record.RawSourceData)
	assert.Zero(t, lookup.detailCalls)
	assert.Zero(t, flavorSvc.calls)
}

func TestAddIngredientLookupUnavailable(t *testing.T) {
	lookup := &fakeLookup{searchErr: fmt.Errorf("%w: down", common.ErrLookupUnavailable)}
	svc, _, _ := newTestService(lookup, &fakeFlavor{})

	// 外部服務掛掉也不阻斷建檔
	record, err := svc.AddIngredient(context.Background(), &AddRequest{Name: "Banana"})
	require.NoError(t, err)
	assert.Nil(t, record.Calorie)
}

func TestAddIngredientFlavorFailureKeepsNutrition(t *testing.T) {
	lookup := &fakeLookup{fdcID: 1, found: true, detail: json.RawMessage(bananaDetail)}
	flavorSvc := &fakeFlavor{err: fmt.Errorf("%w: timeout", common.ErrEnrichmentUnavailable)}
	svc, _, _ := newTestService(lookup, flavorSvc)

	record, err := svc.AddIngredient(context.Background(), &AddRequest{Name: "Banana"})
	require.NoError(t, err)

	// 風味失敗可恢復：營養資料照寫，風味欄位留空
	require.NotNil(t, record.Calorie)
	assert.Empty(t, record.FlavorProfile)
	assert.Empty(t, record.BestMixPairing)
}

func TestAddIngredientCalorieAbsentTreatedAsUnavailable(t *testing.T) {
	noCalorie := `{"foodNutrients":[{"nutrient":{"id":1087,"name":"Calcium, Ca","unitName":"mg"},"amount":100}]}`
	lookup := &fakeLookup{fdcID: 1, found: true, detail: json.RawMessage(noCalorie)}
	flavorSvc := &fakeFlavor{}
	svc, _, _ := newTestService(lookup, flavorSvc)

	record, err := svc.AddIngredient(context.Background(), &AddRequest{Name: "Mystery"})
	require.NoError(t, err)

	// 熱量缺席視為無可用資料：營養欄位不寫，但原文保留
	assert.Nil(t, record.Calorie)
	assert.JSONEq(t, noCalorie, record.RawSourceData)
	assert.Zero(t, flavorSvc.calls)
}

func TestAddIngredientMissingProteinStoredAsZero(t *testing.T) {
	onlyCalorie := `{"foodNutrients":[{"nutrient":{"id":1008,"name":"Energy","unitName":"kcal"},"amount":64}]}`
	lookup := &fakeLookup{fdcID: 1, found: true, detail: json.RawMessage(onlyCalorie)}
	svc, _, _ := newTestService(lookup, &fakeFlavor{})

	record, err := svc.AddIngredient(context.Background(), &AddRequest{Name: "Honey"})
	require.NoError(t, err)

	require.NotNil(t, record.Calorie)
	assert.InDelta(t, 64, *record.Calorie, 0.001)
	require.NotNil(t, record.Protein)
	assert.Zero(t, *record.Protein)
	require.NotNil(t, record.Fiber)
	assert.Zero(t, *record.Fiber)
}

func TestAddIngredientEmptyName(t *testing.T) {
	svc, _, _ := newTestService(&fakeLookup{}, &fakeFlavor{})

	_, err := svc.AddIngredient(context.Background(), &AddRequest{Name: "   "})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrInvalidRequest))
}

func TestRefetchNutritionSuccess(t *testing.T) {
	lookup := &fakeLookup{fdcID: 1102653, found: true, detail: json.RawMessage(bananaDetail)}
	svc, repo, _ := newTestService(lookup, &fakeFlavor{profile: &flavor.Profile{FlavorProfile: "sweet"}})

	seed := &Ingredient{Name: "Banana"}
	require.NoError(t, repo.Save(context.Background(), seed))

	record, err := svc.RefetchNutrition(context.Background(), seed.ID)
	require.NoError(t, err)

	require.NotNil(t, record.Calorie)
	assert.InDelta(t, 89, *record.Calorie, 0.001)
	assert.Equal(t, "sweet", record.FlavorProfile)

	stored, err := repo.FindByID(context.Background(), seed.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Calorie)
}

func TestRefetchNutritionIngredientNotFound(t *testing.T) {
	svc, _, _ := newTestService(&fakeLookup{}, &fakeFlavor{})

	_, err := svc.RefetchNutrition(context.Background(), 999)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrIngredientNotFound))
}

func TestRefetchNutritionFoodNotFoundIsStrict(t *testing.T) {
	lookup := &fakeLookup{found: false}
	svc, repo, _ := newTestService(lookup, &fakeFlavor{})

	seed := &Ingredient{Name: "Obscure berry"}
	require.NoError(t, repo.Save(context.Background(), seed))

	_, err := svc.RefetchNutrition(context.Background(), seed.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEnrichmentFailed))

	// 失敗時既有紀錄不得更動
	stored, findErr := repo.FindByID(context.Background(), seed.ID)
	require.NoError(t, findErr)
	assert.Nil(t, stored.Calorie)
	assert.Empty(t, stored.RawSourceData)
}

func TestRefetchNutritionCalorieAbsentIsStrict(t *testing.T) {
	noCalorie := `{"foodNutrients":[{"nutrient":{"id":1087,"name":"Calcium, Ca","unitName":"mg"},"amount":100}]}`
	lookup := &fakeLookup{fdcID: 1, found: true, detail: json.RawMessage(noCalorie)}
	flavorSvc := &fakeFlavor{}
	svc, repo, _ := newTestService(lookup, flavorSvc)

	seed := &Ingredient{Name: "Mystery"}
	require.NoError(t, repo.Save(context.Background(), seed))

	// 查得到紀錄但解析不出熱量：重新補全必須失敗
	_, err := svc.RefetchNutrition(context.Background(), seed.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEnrichmentFailed))
	assert.Zero(t, flavorSvc.calls)

	// 既有紀錄不得更動，原文也不寫入
	stored, findErr := repo.FindByID(context.Background(), seed.ID)
	require.NoError(t, findErr)
	assert.Nil(t, stored.Calorie)
	assert.Empty(t, stored.RawSourceData)
}

func TestRefetchNutritionLookupErrorIsStrict(t *testing.T) {
	lookup := &fakeLookup{searchErr: fmt.Errorf("%w: down", common.ErrLookupUnavailable)}
	svc, repo, _ := newTestService(lookup, &fakeFlavor{})

	seed := &Ingredient{Name: "Banana"}
	require.NoError(t, repo.Save(context.Background(), seed))

	_, err := svc.RefetchNutrition(context.Background(), seed.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEnrichmentFailed))
}

func TestRefetchNutritionFlavorFailureStillSucceeds(t *testing.T) {
	lookup := &fakeLookup{fdcID: 1, found: true, detail: json.RawMessage(bananaDetail)}
	flavorSvc := &fakeFlavor{err: fmt.Errorf("%w: timeout", common.ErrEnrichmentUnavailable)}
	svc, repo, _ := newTestService(lookup, flavorSvc)

	seed := &Ingredient{Name: "Banana"}
	require.NoError(t, repo.Save(context.Background(), seed))

	record, err := svc.RefetchNutrition(context.Background(), seed.ID)
	require.NoError(t, err)
	require.NotNil(t, record.Calorie)
	assert.Empty(t, record.FlavorProfile)
}
