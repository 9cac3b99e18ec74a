package models

import (
	"encoding/json"
	"fmt"
)

// WeightSet holds one weight per strategy, indexed by Strategy.
type WeightSet [numStrategies]float64

func NewWeightSet(simple, context, reranker float64) WeightSet {
	return WeightSet{simple, context, reranker}
}

func (w WeightSet) Get(s Strategy) float64 { return w[s] }

func (w *WeightSet) Set(s Strategy, v float64) { w[s] = v }

func (w WeightSet) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}
	return total
}

// Normalize scales the weights to sum to 1. It reports false, and returns the set
// unchanged, when the total is not positive.
func (w WeightSet) Normalize() (WeightSet, bool) {
	total := w.Sum()
	if total <= 0 {
		return w, false
	}
	var out WeightSet
	for i, v := range w {
		out[i] = v / total
	}
	return out, true
}

func (w WeightSet) MarshalJSON() ([]byte, error) {
	m := make(map[string]float64, len(w))
	for _, s := range Strategies() {
		m[s.String()] = w[s]
	}
	return json.Marshal(m)
}

func (w *WeightSet) UnmarshalJSON(data []byte) error {
	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out WeightSet
	for name, v := range m {
		s, err := ParseStrategy(name)
		if err != nil {
			return fmt.Errorf("weight set: %w", err)
		}
		out[s] = v
	}
	*w = out
	return nil
}

// GenerationRequest is what a strategy responder produces: the prompt to hand to a
// generator plus the static context it was built from.
type GenerationRequest struct {
	Strategy    Strategy    `json:"strategy"`
	MessageType MessageType `json:"message_type"`
	Prompt      string      `json:"prompt"`
	Context     []string    `json:"context,omitempty"`
}

// StrategyOutput is one generated response, or the error the generator returned.
type StrategyOutput struct {
	Strategy Strategy `json:"strategy"`
	Text     string   `json:"text"`
	Err      error    `json:"-"`
}

func (o StrategyOutput) Failed() bool { return o.Err != nil }
