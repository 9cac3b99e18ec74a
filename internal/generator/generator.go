// Package generator adapts text-generation providers to a single call shape. The
// analysis core only ever sees Generator; provider request and response types stay in
// this package.
package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProviderNotConfigured is returned when a model routes to a provider without
	// credentials.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrEmptyResponse is returned when a provider answers without any text.
	ErrEmptyResponse = errors.New("empty response")
)

// Generator produces text for a prompt with the named model.
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// Func adapts an ordinary function to Generator.
type Func func(ctx context.Context, prompt, model string) (string, error)

func (f Func) Generate(ctx context.Context, prompt, model string) (string, error) {
	return f(ctx, prompt, model)
}

// ProviderError wraps any failure reported by, or on the way to, a provider.
type ProviderError struct {
	Provider string
	Model    string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

var openAIPrefixes = []string{"gpt", "chatgpt", "o1", "o3", "o4"}

// IsOpenAIModel reports whether model is served by OpenAI. Everything else goes to
// Gemini.
func IsOpenAIModel(model string) bool {
	model = strings.ToLower(model)
	for _, p := range openAIPrefixes {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

// Router dispatches on the model name. A nil provider yields ErrProviderNotConfigured
// for models that route to it.
type Router struct {
	openai       Generator
	gemini       Generator
	defaultModel string
}

func NewRouter(openai, gemini Generator, defaultModel string) *Router {
	return &Router{openai: openai, gemini: gemini, defaultModel: defaultModel}
}

func (r *Router) DefaultModel() string { return r.defaultModel }

func (r *Router) Generate(ctx context.Context, prompt, model string) (string, error) {
	if model == "" {
		model = r.defaultModel
	}
	provider, g := ProviderGemini, r.gemini
	if IsOpenAIModel(model) {
		provider, g = ProviderOpenAI, r.openai
	}
	if g == nil {
		return "", &ProviderError{Provider: provider, Model: model, Err: ErrProviderNotConfigured}
	}
	return g.Generate(ctx, prompt, model)
}
