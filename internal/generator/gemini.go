package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float64
}

type Gemini struct {
	client *genai.Client
	config *genai.GenerateContentConfig
	logger *zap.Logger
}

func NewGemini(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (*Gemini, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(cfg.Temperature)),
	}
	if cfg.MaxTokens > 0 {
		genCfg.MaxOutputTokens = int32(cfg.MaxTokens)
	}

	return &Gemini{client: client, config: genCfg, logger: logger}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt, model string) (string, error) {
	content := genai.NewContentFromText(prompt, genai.RoleUser)

	resp, err := g.client.Models.GenerateContent(ctx, model, []*genai.Content{content}, g.config)
	if err != nil {
		g.logger.Error("Failed to get Gemini response", zap.String("model", model), zap.Error(err))
		return "", &ProviderError{Provider: ProviderGemini, Model: model, Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &ProviderError{Provider: ProviderGemini, Model: model, Err: ErrEmptyResponse}
	}

	var result strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			result.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(result.String())
	if text == "" {
		return "", &ProviderError{Provider: ProviderGemini, Model: model, Err: ErrEmptyResponse}
	}
	return text, nil
}
