package nutrition

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeTranslator struct {
	result string
	err    error
	calls  int
}

func (f *fakeTranslator) Translate(ctx context.Context, name string) (string, error) {
	f.calls++
	return f.result, f.err
}

func TestResolveDictionary(t *testing.T) {
	resolver := NewResolver(nil)

	assert.Equal(t, "banana", resolver.Resolve(context.Background(), "กล้วย"))
	assert.Equal(t, "strawberry", resolver.Resolve(context.Background(), "สตรอเบอร์รี่"))
	assert.Equal(t, "honey", resolver.Resolve(context.Background(), "น้ำผึ้ง"))
}

func TestResolveDictionarySubstring(t *testing.T) {
	resolver := NewResolver(nil)

	// 含有辭典詞的複合名稱也要命中
	assert.Equal(t, "banana", resolver.Resolve(context.Background(), "กล้วยหอม"))
}

func TestResolveEnglishPassthrough(t *testing.T) {
	translator := &fakeTranslator{result: "should not be used"}
	resolver := NewResolver(translator)

	assert.Equal(t, "Papaya", resolver.Resolve(context.Background(), "Papaya"))
	assert.Equal(t, "chia seeds", resolver.Resolve(context.Background(), "  chia seeds "))
	assert.Zero(t, translator.calls)
}

func TestResolveIdempotent(t *testing.T) {
	resolver := NewResolver(nil)

	// 已是標準詞的輸入原樣回傳
	first := resolver.Resolve(context.Background(), "banana")
	assert.Equal(t, "banana", first)
	assert.Equal(t, first, resolver.Resolve(context.Background(), first))
}

func TestResolveTranslatorFallback(t *testing.T) {
	translator := &fakeTranslator{result: "dragon fruit"}
	resolver := NewResolver(translator)

	assert.Equal(t, "dragon fruit", resolver.Resolve(context.Background(), "แก้วมังกร"))
	assert.Equal(t, 1, translator.calls)
}

func TestResolveTranslatorFailure(t *testing.T) {
	translator := &fakeTranslator{err: errors.New("service down")}
	resolver := NewResolver(translator)

	// 翻譯失敗不阻斷流程，回傳原名稱
	assert.Equal(t, "แก้วมังกร", resolver.Resolve(context.Background(), "แก้วมังกร"))
}

func TestResolveEmptyName(t *testing.T) {
	resolver := NewResolver(nil)
	assert.Equal(t, "", resolver.Resolve(context.Background(), ""))
}
