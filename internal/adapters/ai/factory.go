package ai

import (
	"mentor/internal/adapters/config"
	"mentor/pkg/errors"
)

// BuildRegistry initializes a ProviderRegistry with all providers enabled by configuration.
// redisClient is optional: when provided, distributed rate limiting is used so
// several bot instances share one API budget; when nil, limiting is local.
func BuildRegistry(cfg config.AIConfig, redisClient interface{}) (*ProviderRegistry, error) {
	registry := NewProviderRegistry()

	limiterFactory := NewRateLimiterFactory(redisClient)
	limitCfg := RateLimitConfig{
		Enabled:      cfg.RatePerSecond > 0,
		ReqPerMinute: cfg.RatePerSecond * 60,
		Burst:        cfg.RateBurst,
	}

	if cfg.GeminiKey != "" {
		limiter := limiterFactory.Create(ProviderNameGemini, limitCfg)
		if err := registry.Register(NewGeminiProvider(cfg.GeminiKey, cfg.GeminiModel, cfg.RequestTimeout, limiter)); err != nil {
			return nil, err
		}
	}

	if cfg.OpenAIKey != "" {
		limiter := limiterFactory.Create(ProviderNameOpenAI, limitCfg)
		if err := registry.Register(NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel, cfg.RequestTimeout, limiter)); err != nil {
			return nil, err
		}
	}

	if len(registry.List()) == 0 {
		return nil, errors.Wrap(errors.ErrUnavailable, "no AI provider configured")
	}

	return registry, nil
}

// DefaultProvider resolves the configured default provider, falling back
// to any registered one when the preferred backend has no key.
func DefaultProvider(registry *ProviderRegistry, cfg config.AIConfig) (ChatProvider, error) {
	name := ProviderName(cfg.DefaultProvider)
	if name.IsValid() {
		if p, err := registry.Get(name); err == nil {
			return p, nil
		}
	}

	providers := registry.List()
	if len(providers) == 0 {
		return nil, errors.Wrap(errors.ErrUnavailable, "no AI provider configured")
	}

	return providers[0], nil
}
