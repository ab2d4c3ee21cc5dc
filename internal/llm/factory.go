package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewProvider builds the configured provider wrapped as
// caller → retry → logging → base.
func NewProvider(ctx context.Context, cfg Config, log *zap.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var base Provider
	var err error
	switch cfg.Provider {
	case "anthropic":
		base, err = newAnthropic(cfg.Anthropic)
	case "openai":
		base, err = newOpenAI("openai", cfg.OpenAI)
	case "openrouter":
		or := cfg.OpenRouter
		if or.BaseURL == "" {
			or.BaseURL = openRouterBaseURL
		}
		base, err = newOpenAI("openrouter", or)
	case "gemini":
		base, err = newGemini(ctx, cfg.Gemini)
	case "mock":
		m := NewMockProvider()
		if len(cfg.MockContent) > 0 {
			m.SetDefault(MockResponse{Content: cfg.MockContent})
		}
		base = m
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithLogging(base, log), cfg.Retry), nil
}
