package flavor

import (
	"context"
	"errors"
	"testing"

	aiservice "smoothy-backend/internal/core/ai/service"
	"smoothy-backend/internal/core/nutrition"
	"smoothy-backend/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAI struct {
	content    string
	err        error
	lastPrompt string
}

func (f *fakeAI) ProcessRequest(ctx context.Context, prompt string) (*aiservice.Response, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return nil, f.err
	}
	return &aiservice.Response{Content: f.content}, nil
}

func sampleNutrition() *nutrition.Result {
	calorie, protein, fiber := 89.0, 1.1, 2.6
	return &nutrition.Result{
		Calorie: &calorie,
		Protein: &protein,
		Fiber:   &fiber,
		Vitamins: map[string]float64{
			"vitaminC": 8.7,
		},
	}
}

func TestEnrichSuccess(t *testing.T) {
	ai := &fakeAI{content: `{
		"flavor_profile": "sweet, tropical",
		"taste_notes": "creamy and mildly sweet",
		"best_mix_pairing": ["strawberry", "milk"],
		"avoid_pairing": ["garlic"]
	}`}
	svc := NewService(ai)

	profile, err := svc.Enrich(context.Background(), "banana", sampleNutrition())
	require.NoError(t, err)

	assert.Equal(t, "sweet, tropical", profile.FlavorProfile)
	assert.Equal(t, []string{"strawberry", "milk"}, profile.BestMixPairing)
	assert.Equal(t, []string{"garlic"}, profile.AvoidPairing)
}

func TestEnrichStripsMarkdownFence(t *testing.T) {
	ai := &fakeAI{content: "```json\n{\"flavor_profile\": \"tart\", \"taste_notes\": \"sharp citrus\", \"best_mix_pairing\": [], \"avoid_pairing\": []}\n```"}
	svc := NewService(ai)

	profile, err := svc.Enrich(context.Background(), "lemon", sampleNutrition())
	require.NoError(t, err)
	assert.Equal(t, "tart", profile.FlavorProfile)
}

func TestEnrichPromptOmitsRawPayload(t *testing.T) {
	ai := &fakeAI{content: `{"flavor_profile": "sweet"}`}
	svc := NewService(ai)

	_, err := svc.Enrich(context.Background(), "banana", sampleNutrition())
	require.NoError(t, err)

	// prompt 只帶巨量營養素摘要，不能內嵌 USDA 原文
	assert.Contains(t, ai.lastPrompt, "banana")
	assert.Contains(t, ai.lastPrompt, "89.00")
	assert.NotContains(t, ai.lastPrompt, "foodNutrients")
	assert.NotContains(t, ai.lastPrompt, "vitaminC")
}

func TestEnrichServiceDown(t *testing.T) {
	ai := &fakeAI{err: errors.New("connection refused")}
	svc := NewService(ai)

	_, err := svc.Enrich(context.Background(), "banana", sampleNutrition())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEnrichmentUnavailable))
}

func TestEnrichUnparsableResponse(t *testing.T) {
	ai := &fakeAI{content: "I'm sorry, I can't help with that."}
	svc := NewService(ai)

	_, err := svc.Enrich(context.Background(), "banana", sampleNutrition())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEnrichmentUnavailable))
}

func TestEnrichMissingFlavorProfile(t *testing.T) {
	ai := &fakeAI{content: `{"taste_notes": "something"}`}
	svc := NewService(ai)

	_, err := svc.Enrich(context.Background(), "banana", sampleNutrition())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEnrichmentUnavailable))
}
