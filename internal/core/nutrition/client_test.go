package nutrition

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smoothy-backend/internal/infrastructure/config"
	"smoothy-backend/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUSDAConfig(baseURL, apiKey string) *config.Config {
	return &config.Config{
		USDA: config.USDAConfig{
			APIKey:   apiKey,
			BaseURL:  baseURL,
			PageSize: 1,
			Timeout:  5 * time.Second,
		},
	}
}

func TestSearchMissingAPIKey(t *testing.T) {
	client := NewClient(testUSDAConfig("http://localhost:1", ""))

	_, _, err := client.Search(context.Background(), "banana")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLookupUnavailable))
}

func TestSearchFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/foods/search", r.URL.Path)
		assert.Equal(t, "banana", r.URL.Query().Get("query"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "1", r.URL.Query().Get("pageSize"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"foods":[{"fdcId":1102653},{"fdcId":1102654}]}`))
	}))
	defer server.Close()

	client := NewClient(testUSDAConfig(server.URL, "test-key"))

	fdcID, found, err := client.Search(context.Background(), "banana")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(1102653), fdcID)
}

func TestSearchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"foods":[]}`))
	}))
	defer server.Close()

	client := NewClient(testUSDAConfig(server.URL, "test-key"))

	// 查無結果不是錯誤
	_, found, err := client.Search(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSearchAccessDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(testUSDAConfig(server.URL, "bad-key"))

	_, _, err := client.Search(context.Background(), "banana")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLookupUnavailable))
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(testUSDAConfig(server.URL, "test-key"))

	_, _, err := client.Search(context.Background(), "banana")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLookupUnavailable))
}

func TestFetchDetail(t *testing.T) {
	payload := `{"fdcId":1102653,"foodNutrients":[{"nutrient":{"id":1008,"name":"Energy","unitName":"kcal"},"amount":89}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/food/1102653", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer server.Close()

	client := NewClient(testUSDAConfig(server.URL, "test-key"))

	raw, err := client.FetchDetail(context.Background(), 1102653)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(raw))
}

func TestFetchDetailUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testUSDAConfig(server.URL, "test-key"))

	_, err := client.FetchDetail(context.Background(), 42)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrLookupUnavailable))
}
