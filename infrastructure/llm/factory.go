package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"decisionmap/application/ports"
	"decisionmap/infrastructure/config"
)

// NewFromConfig builds the configured provider wrapped in the circuit
// breaker and schema validation. A provider without credentials degrades to
// Disabled so every stage falls back.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.StructuredLLM, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var provider ports.StructuredLLM
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			logger.Warn("OPENAI_API_KEY is not set, model calls are disabled")
			provider = Disabled{}
			break
		}
		provider = NewOpenAIClient(OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.LLMTimeout,
		}, logger)
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			logger.Warn("GEMINI_API_KEY is not set, model calls are disabled")
			provider = Disabled{}
			break
		}
		gemini, err := NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			return nil, err
		}
		provider = gemini
	case config.ProviderMock:
		provider = NewMock()
	case config.ProviderDisabled:
		provider = Disabled{}
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}

	if _, off := provider.(Disabled); off {
		return provider, nil
	}

	breaker := NewBreaker(provider, BreakerConfig{
		ConsecutiveFailures: uint32(cfg.BreakerFailures),
		OpenTimeout:         cfg.BreakerOpenDelay,
		HalfOpenRequests:    1,
	}, logger)

	logger.Info("Model provider configured", zap.String("provider", provider.Name()))
	return NewValidating(breaker), nil
}
