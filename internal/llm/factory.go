package llm

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/shazaelmorsh/network-intelligent-platform/internal/config"
	"github.com/shazaelmorsh/network-intelligent-platform/internal/logs"
)

// New builds the chat model selected by CHAT_MODEL_PROVIDER and wraps it
// in a ChatClient.
func New(ctx context.Context, cfg *config.Config) (*ChatClient, error) {
	m, err := newChatModel(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewChatClient(m), nil
}

func newChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	switch cfg.Provider {
	case config.ProviderArk:
		return newArkChatModel(ctx, cfg)
	case config.ProviderOpenAI:
		return newOpenAIChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown chat model provider %q", cfg.Provider)
	}
}

func newOpenAIChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	temperature := cfg.OpenAITemperature
	cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL:     cfg.OpenAIBaseURL,
		APIKey:      cfg.OpenAIAPIKey,
		Model:       cfg.OpenAIModel,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("create openai chat model: %w", err)
	}
	logs.Infof("using openai chat model %s", cfg.OpenAIModel)
	return cm, nil
}

func newArkChatModel(ctx context.Context, cfg *config.Config) (model.BaseChatModel, error) {
	cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		BaseURL: cfg.ArkBaseURL,
		APIKey:  cfg.ArkAPIKey,
		Model:   cfg.ArkModel,
	})
	if err != nil {
		return nil, fmt.Errorf("create ark chat model: %w", err)
	}
	logs.Infof("using ark chat model %s", cfg.ArkModel)
	return cm, nil
}
