package generator

import (
	"context"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

type OpenAI struct {
	client      *openai.Client
	maxTokens   int
	temperature float64
	logger      *zap.Logger
}

func NewOpenAI(cfg OpenAIConfig, logger *zap.Logger) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{
		client:      openai.NewClientWithConfig(clientCfg),
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

func (g *OpenAI) Generate(ctx context.Context, prompt, model string) (string, error) {
	resp, err := g.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			MaxTokens:   g.maxTokens,
			Temperature: float32(g.temperature),
		},
	)
	if err != nil {
		g.logger.Error("Failed to get OpenAI response", zap.String("model", model), zap.Error(err))
		return "", &ProviderError{Provider: ProviderOpenAI, Model: model, Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: ProviderOpenAI, Model: model, Err: ErrEmptyResponse}
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", &ProviderError{Provider: ProviderOpenAI, Model: model, Err: ErrEmptyResponse}
	}

	g.logger.Debug("OpenAI response received",
		zap.String("model", model),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return text, nil
}
