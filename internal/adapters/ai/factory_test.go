package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mentor/internal/adapters/config"
)

func testAIConfig() config.AIConfig {
	return config.AIConfig{
		GeminiKey:       "gm-key",
		OpenAIKey:       "oa-key",
		DefaultProvider: "gemini",
		GeminiModel:     "gemini-2.0-flash",
		OpenAIModel:     "gpt-4o-mini",
		RequestTimeout:  30 * time.Second,
		RatePerSecond:   1,
		RateBurst:       5,
	}
}

func TestBuildRegistry_RegistersConfiguredProviders(t *testing.T) {
	registry, err := BuildRegistry(testAIConfig(), nil)
	require.NoError(t, err)

	assert.Len(t, registry.List(), 2)

	gemini, err := registry.Get(ProviderNameGemini)
	require.NoError(t, err)
	assert.Equal(t, ProviderNameGemini, gemini.Name())

	openai, err := registry.Get(ProviderNameOpenAI)
	require.NoError(t, err)
	assert.Equal(t, ProviderNameOpenAI, openai.Name())
}

func TestBuildRegistry_SkipsProvidersWithoutKeys(t *testing.T) {
	cfg := testAIConfig()
	cfg.OpenAIKey = ""

	registry, err := BuildRegistry(cfg, nil)
	require.NoError(t, err)

	assert.Len(t, registry.List(), 1)
	_, err = registry.Get(ProviderNameOpenAI)
	assert.Error(t, err)
}

func TestBuildRegistry_FailsWithNoKeys(t *testing.T) {
	cfg := testAIConfig()
	cfg.GeminiKey = ""
	cfg.OpenAIKey = ""

	_, err := BuildRegistry(cfg, nil)
	assert.Error(t, err)
}

func TestDefaultProvider_PrefersConfigured(t *testing.T) {
	cfg := testAIConfig()
	cfg.DefaultProvider = "openai"

	registry, err := BuildRegistry(cfg, nil)
	require.NoError(t, err)

	p, err := DefaultProvider(registry, cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderNameOpenAI, p.Name())
}

func TestDefaultProvider_FallsBackWhenPreferredMissing(t *testing.T) {
	cfg := testAIConfig()
	cfg.GeminiKey = ""
	cfg.DefaultProvider = "gemini"

	registry, err := BuildRegistry(cfg, nil)
	require.NoError(t, err)

	p, err := DefaultProvider(registry, cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderNameOpenAI, p.Name())
}

func TestRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewProviderRegistry()

	p := NewGeminiProvider("key", "gemini-2.0-flash", time.Second, nil)
	require.NoError(t, registry.Register(p))
	assert.Error(t, registry.Register(p))
}
