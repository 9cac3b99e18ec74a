// Package hybrid combines the three strategy responses into one answer. Weights start
// from the message type, are shifted by the intent of the user's question, penalised
// for responses whose confidence falls below the strategy threshold, and the highest
// confidence-weighted response wins.
package hybrid

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gadeShivani/iso20022-rag/internal/knowledge"
	"github.com/gadeShivani/iso20022-rag/internal/models"
)

var queryWord = regexp.MustCompile(`[\p{L}\p{N}]+`)

// ConfidenceScorer rates a response for a message type; *scoring.Scorer implements it.
type ConfidenceScorer interface {
	Score(text string, t models.MessageType) float64
}

// Selection is the winning response plus every intermediate weight, for diagnostics.
type Selection struct {
	Winner           models.Strategy            `json:"winner"`
	Response         string                     `json:"response"`
	MessageType      models.MessageType         `json:"message_type"`
	Intent           string                     `json:"intent,omitempty"`
	BaseWeights      models.WeightSet           `json:"base_weights"`
	AdjustedWeights  models.WeightSet           `json:"adjusted_weights"`
	ThresholdWeights models.WeightSet           `json:"threshold_weights"`
	FinalWeights     models.WeightSet           `json:"final_weights"`
	Confidences      models.WeightSet           `json:"confidences"`
	WeightedScores   models.WeightSet           `json:"weighted_scores"`
	Failures         map[models.Strategy]string `json:"failures,omitempty"`
}

// Selector is stateless apart from the read-only knowledge base and is safe for
// concurrent use.
type Selector struct {
	kb     *knowledge.Base
	scorer ConfidenceScorer
}

func NewSelector(kb *knowledge.Base, scorer ConfidenceScorer) *Selector {
	return &Selector{kb: kb, scorer: scorer}
}

// DetectIntent returns the first intent, in table order, with a keyword that equals or
// prefixes a word of the query.
func DetectIntent(intents []knowledge.Intent, query string) (knowledge.Intent, bool) {
	words := queryWord.FindAllString(strings.ToLower(query), -1)
	if len(words) == 0 {
		return knowledge.Intent{}, false
	}
	for _, intent := range intents {
		for _, kw := range intent.Keywords {
			for _, w := range words {
				if strings.HasPrefix(w, kw) {
					return intent, true
				}
			}
		}
	}
	return knowledge.Intent{}, false
}

// AdjustWeights applies the query intent to the type's base weights and normalises.
// It returns the intent name, or "" when the query matched none.
func (s *Selector) AdjustWeights(t models.MessageType, query string) (models.WeightSet, string) {
	base := s.kb.BaseWeights(t)
	weights := base
	name := ""
	if intent, ok := DetectIntent(s.kb.Intents, query); ok {
		name = intent.Name
		for _, st := range models.Strategies() {
			weights.Set(st, weights.Get(st)*intent.Multipliers.Get(st))
		}
	}
	if norm, ok := weights.Normalize(); ok {
		return norm, name
	}
	norm, _ := base.Normalize()
	return norm, name
}

// Select scores each output and picks the winner. Failed outputs score 0 and are never
// selected; exact ties go to the earlier strategy. Outputs may arrive in any order; a
// strategy without an output counts as failed.
func (s *Selector) Select(t models.MessageType, outputs []models.StrategyOutput, query string) (*Selection, error) {
	byStrategy := make(map[models.Strategy]*models.StrategyOutput, len(outputs))
	for i := range outputs {
		o := &outputs[i]
		if !o.Strategy.Valid() {
			return nil, fmt.Errorf("output for invalid strategy %d", int(o.Strategy))
		}
		if byStrategy[o.Strategy] != nil {
			return nil, fmt.Errorf("duplicate output for %s strategy", o.Strategy)
		}
		byStrategy[o.Strategy] = o
	}

	sel := &Selection{MessageType: t, BaseWeights: s.kb.BaseWeights(t)}
	sel.AdjustedWeights, sel.Intent = s.AdjustWeights(t, query)

	var errs []error
	failed := func(st models.Strategy) bool {
		return byStrategy[st] == nil || byStrategy[st].Failed()
	}
	for _, st := range models.Strategies() {
		switch o := byStrategy[st]; {
		case o == nil:
			recordFailure(sel, st, fmt.Errorf("%s strategy: no output", st))
		case o.Failed():
			recordFailure(sel, st, o.Err)
			errs = append(errs, fmt.Errorf("%s strategy: %w", st, o.Err))
		default:
			sel.Confidences.Set(st, s.scorer.Score(o.Text, t))
		}
	}

	sel.ThresholdWeights = sel.AdjustedWeights
	for _, st := range models.Strategies() {
		threshold := s.kb.Thresholds.Get(st)
		if c := sel.Confidences.Get(st); threshold > 0 && c < threshold {
			sel.ThresholdWeights.Set(st, sel.ThresholdWeights.Get(st)*c/threshold)
		}
	}
	if final, ok := sel.ThresholdWeights.Normalize(); ok {
		sel.FinalWeights = final
	} else {
		sel.FinalWeights = sel.AdjustedWeights
	}

	best := -1
	for _, st := range models.Strategies() {
		sel.WeightedScores.Set(st, sel.Confidences.Get(st)*sel.FinalWeights.Get(st))
		if failed(st) {
			continue
		}
		if best < 0 || sel.WeightedScores.Get(st) > sel.WeightedScores.Get(models.Strategy(best)) {
			best = int(st)
		}
	}
	if best < 0 {
		return nil, errors.Join(append([]error{models.ErrAllStrategiesFailed}, errs...)...)
	}

	sel.Winner = models.Strategy(best)
	sel.Response = byStrategy[sel.Winner].Text
	return sel, nil
}

func recordFailure(sel *Selection, st models.Strategy, err error) {
	if sel.Failures == nil {
		sel.Failures = make(map[models.Strategy]string)
	}
	sel.Failures[st] = err.Error()
}
