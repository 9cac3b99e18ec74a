// Package pipeline wires the deterministic core (classifier, extractor, strategies,
// scorer, selector) to a Generator. It owns the only concurrency and timeouts in the
// analysis path.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gadeShivani/iso20022-rag/internal/extractor"
	"github.com/gadeShivani/iso20022-rag/internal/generator"
	"github.com/gadeShivani/iso20022-rag/internal/hybrid"
	"github.com/gadeShivani/iso20022-rag/internal/knowledge"
	"github.com/gadeShivani/iso20022-rag/internal/models"
	"github.com/gadeShivani/iso20022-rag/internal/scoring"
	"github.com/gadeShivani/iso20022-rag/internal/strategy"
)

type Analyzer struct {
	kb        *knowledge.Base
	generator generator.Generator
	scorer    *scoring.Scorer
	evaluator *scoring.Evaluator
	selector  *hybrid.Selector
	logger    *zap.Logger
	timeout   time.Duration
}

type Option func(*Analyzer)

// WithTimeout bounds every generation call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

func New(kb *knowledge.Base, gen generator.Generator, opts ...Option) *Analyzer {
	scorer := scoring.NewScorer(kb)
	a := &Analyzer{
		kb:        kb,
		generator: gen,
		scorer:    scorer,
		evaluator: scoring.NewEvaluator(kb),
		selector:  hybrid.NewSelector(kb, scorer),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Parse classifies and extracts one document.
func (a *Analyzer) Parse(xmlText string) (*models.ParsedMessage, error) {
	msg, err := extractor.ExtractXML(xmlText)
	if err != nil {
		a.logger.Warn("Failed to parse message", zap.Error(err))
		return nil, err
	}
	a.logger.Debug("Message parsed",
		zap.String("message_type", msg.Type().String()),
		zap.String("message_id", msg.MessageID()),
		zap.Int("entries", msg.NumEntries()))
	return msg, nil
}

// Prompts builds the request of every strategy without generating anything.
func (a *Analyzer) Prompts(msg *models.ParsedMessage, query string) ([]models.GenerationRequest, error) {
	return strategy.BuildAll(a.kb, msg, query)
}

// Summarize runs one strategy end to end.
func (a *Analyzer) Summarize(ctx context.Context, msg *models.ParsedMessage, s models.Strategy, model, query string) (string, error) {
	r, err := strategy.New(s, a.kb)
	if err != nil {
		return "", err
	}
	req, err := r.BuildQuery(msg, query)
	if err != nil {
		return "", err
	}
	out := a.generate(ctx, req, model)
	return out.Text, out.Err
}

// Generate runs the three strategies concurrently. A failed call is recorded in its
// output and never cancels the others.
func (a *Analyzer) Generate(ctx context.Context, msg *models.ParsedMessage, model, query string) ([]models.StrategyOutput, error) {
	requests, err := a.Prompts(msg, query)
	if err != nil {
		return nil, err
	}

	outputs := make([]models.StrategyOutput, len(requests))
	var eg errgroup.Group
	for i, req := range requests {
		eg.Go(func() error {
			outputs[i] = a.generate(ctx, req, model)
			return nil
		})
	}
	_ = eg.Wait()
	return outputs, nil
}

// Hybrid generates with every strategy and selects the best response.
func (a *Analyzer) Hybrid(ctx context.Context, msg *models.ParsedMessage, model, query string) (*hybrid.Selection, []models.StrategyOutput, error) {
	outputs, err := a.Generate(ctx, msg, model, query)
	if err != nil {
		return nil, nil, err
	}
	sel, err := a.selector.Select(msg.Type(), outputs, query)
	if err != nil {
		a.logger.Error("No strategy produced a response",
			zap.String("message_type", msg.Type().String()),
			zap.Error(err))
		return nil, outputs, err
	}
	a.logger.Info("Hybrid selection complete",
		zap.String("message_type", msg.Type().String()),
		zap.String("winner", sel.Winner.String()),
		zap.String("intent", sel.Intent),
		zap.Int("failures", len(sel.Failures)))
	return sel, outputs, nil
}

// Response is one strategy's answer with its scores.
type Response struct {
	Strategy   models.Strategy    `json:"strategy"`
	Text       string             `json:"text,omitempty"`
	Error      string             `json:"error,omitempty"`
	Confidence float64            `json:"confidence"`
	Evaluation scoring.Evaluation `json:"evaluation"`
}

// Report is the full analysis of one document.
type Report struct {
	RequestID string                `json:"request_id"`
	Model     string                `json:"model"`
	Query     string                `json:"query,omitempty"`
	Message   *models.ParsedMessage `json:"message"`
	Summary   string                `json:"summary"`
	Selection *hybrid.Selection     `json:"selection"`
	Responses []Response            `json:"responses"`
}

// Analyze parses xmlText, runs the hybrid selection, and scores every response.
func (a *Analyzer) Analyze(ctx context.Context, xmlText, model, query string) (*Report, error) {
	requestID := uuid.New().String()
	logger := a.logger.With(zap.String("request_id", requestID))
	logger.Info("Analyzing message", zap.String("model", model), zap.Bool("has_query", query != ""))

	msg, err := a.Parse(xmlText)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}

	sel, outputs, err := a.Hybrid(ctx, msg, model, query)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RequestID: requestID,
		Model:     model,
		Query:     query,
		Message:   msg,
		Summary:   sel.Response,
		Selection: sel,
		Responses: make([]Response, len(outputs)),
	}
	for i, o := range outputs {
		r := Response{Strategy: o.Strategy, Text: o.Text}
		if o.Failed() {
			r.Error = o.Err.Error()
		} else {
			r.Confidence = a.scorer.Score(o.Text, msg.Type())
		}
		r.Evaluation = a.evaluator.Evaluate(o.Text, msg.Type())
		report.Responses[i] = r
	}

	logger.Info("Analysis complete", zap.String("winner", sel.Winner.String()))
	return report, nil
}

// Evaluate exposes the response evaluator.
func (a *Analyzer) Evaluate(text string, t models.MessageType) scoring.Evaluation {
	return a.evaluator.Evaluate(text, t)
}

// Score exposes the confidence scorer.
func (a *Analyzer) Score(text string, t models.MessageType) scoring.Breakdown {
	return a.scorer.Explain(text, t)
}

func (a *Analyzer) generate(ctx context.Context, req models.GenerationRequest, model string) models.StrategyOutput {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := a.generator.Generate(ctx, req.Prompt, model)
	if err != nil {
		a.logger.Warn("Generation failed",
			zap.String("strategy", req.Strategy.String()),
			zap.String("model", model),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return models.StrategyOutput{Strategy: req.Strategy, Err: err}
	}
	a.logger.Debug("Generation succeeded",
		zap.String("strategy", req.Strategy.String()),
		zap.String("model", model),
		zap.Duration("elapsed", time.Since(start)))
	return models.StrategyOutput{Strategy: req.Strategy, Text: text}
}
