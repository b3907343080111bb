package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"smoothy-backend/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOpenAIStub(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + content + `"}}]}`))
	}))
}

func testAIConfig(baseURL string, requests int) *config.Config {
	return &config.Config{
		OpenAI: config.OpenAIConfig{
			APIKey:    "test-key",
			Model:     "gpt-4-turbo-preview",
			BaseURL:   baseURL,
			MaxTokens: 2000,
			Timeout:   5 * time.Second,
		},
		Cache: config.CacheConfig{Enabled: false},
		RateLimit: config.RateLimitConfig{
			Enabled:  true,
			Requests: requests,
			Window:   time.Minute,
		},
	}
}

func TestProcessRequestSequentialPipelineCalls(t *testing.T) {
	server := newOpenAIStub(t, "ok")
	defer server.Close()

	// 預設額度下，同一次補全流程的翻譯與風味兩通連續呼叫都要放行
	svc, err := NewService(testAIConfig(server.URL, 100), nil)
	require.NoError(t, err)

	first, err := svc.ProcessRequest(context.Background(), "translate prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", first.Content)

	second, err := svc.ProcessRequest(context.Background(), "flavor prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", second.Content)
}

func TestProcessRequestRateLimitExhausted(t *testing.T) {
	server := newOpenAIStub(t, "ok")
	defer server.Close()

	svc, err := NewService(testAIConfig(server.URL, 1), nil)
	require.NoError(t, err)

	_, err = svc.ProcessRequest(context.Background(), "first")
	require.NoError(t, err)

	_, err = svc.ProcessRequest(context.Background(), "second")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestProcessRequestRateLimitDisabled(t *testing.T) {
	server := newOpenAIStub(t, "ok")
	defer server.Close()

	cfg := testAIConfig(server.URL, 1)
	cfg.RateLimit.Enabled = false
	svc, err := NewService(cfg, nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.ProcessRequest(context.Background(), "prompt")
		require.NoError(t, err)
	}
}

func TestTranslateTakesFirstLine(t *testing.T) {
	server := newOpenAIStub(t, `Banana\nSome extra commentary`)
	defer server.Close()

	svc, err := NewService(testAIConfig(server.URL, 100), nil)
	require.NoError(t, err)

	translated, err := svc.Translate(context.Background(), "กล้วย")
	require.NoError(t, err)
	assert.Equal(t, "Banana", translated)
}
