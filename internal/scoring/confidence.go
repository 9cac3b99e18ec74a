// Package scoring rates generated responses: Scorer computes the bounded confidence
// the hybrid selector weighs, Evaluator reports the finer-grained quality metrics shown
// alongside an analysis.
package scoring

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/gadeShivani/iso20022-rag/internal/knowledge"
	"github.com/gadeShivani/iso20022-rag/internal/models"
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Scorer is safe for concurrent use.
type Scorer struct {
	kb       *knowledge.Base
	currency *regexp.Regexp
}

func NewScorer(kb *knowledge.Base) *Scorer {
	return &Scorer{kb: kb, currency: wordAlternation(kb.Scoring.Currencies)}
}

// Breakdown is the two halves of a confidence score.
type Breakdown struct {
	Generic      float64 `json:"generic"`
	TypeSpecific float64 `json:"type_specific"`
	Score        float64 `json:"score"`
}

// Score returns the confidence in [0,1] that text is a usable response for a message
// of type t.
func (s *Scorer) Score(text string, t models.MessageType) float64 {
	return s.Explain(text, t).Score
}

func (s *Scorer) Explain(text string, t models.MessageType) Breakdown {
	if strings.TrimSpace(text) == "" {
		return Breakdown{}
	}
	sig := s.signals(text)

	generic := fraction(
		sig.digits,
		sig.currency,
		sig.parties,
		len(strings.Fields(text)) > s.kb.Scoring.MinWords,
		sig.terminal,
	)

	var typeSpecific float64
	if k, ok := s.kb.For(t); ok && len(k.Checks) > 0 {
		passed := make([]bool, len(k.Checks))
		for i, c := range k.Checks {
			passed[i] = sig.check(c)
		}
		typeSpecific = fraction(passed...)
	}

	score := s.kb.Scoring.GenericWeight*generic + s.kb.Scoring.TypeWeight*typeSpecific
	return Breakdown{
		Generic:      generic,
		TypeSpecific: typeSpecific,
		Score:        clamp01(score),
	}
}

type signals struct {
	lower    string
	upper    map[string]bool
	digits   bool
	currency bool
	parties  bool
	terminal bool
}

func (s *Scorer) signals(text string) signals {
	sig := signals{
		lower:    strings.ToLower(text),
		upper:    make(map[string]bool),
		digits:   strings.IndexFunc(text, unicode.IsDigit) >= 0,
		currency: s.currency != nil && s.currency.MatchString(text),
	}
	for _, w := range wordPattern.FindAllString(text, -1) {
		sig.upper[strings.ToUpper(w)] = true
	}
	for _, term := range s.kb.Scoring.PartyTerms {
		if strings.Contains(sig.lower, term) {
			sig.parties = true
			break
		}
	}
	trimmed := strings.TrimSpace(text)
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		sig.terminal = true
	}
	return sig
}

func (sig signals) check(c knowledge.Check) bool {
	switch c.Kind {
	case knowledge.CheckKeyword:
		for _, term := range c.Terms {
			if strings.Contains(sig.lower, term) {
				return true
			}
		}
	case knowledge.CheckCode:
		for _, code := range c.Terms {
			if sig.upper[code] {
				return true
			}
		}
	case knowledge.CheckSignal:
		switch c.Signal {
		case knowledge.SignalDigits:
			return sig.digits
		case knowledge.SignalCurrency:
			return sig.currency
		case knowledge.SignalParties:
			return sig.parties
		}
	}
	return false
}

func fraction(checks ...bool) float64 {
	if len(checks) == 0 {
		return 0
	}
	n := 0
	for _, ok := range checks {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(checks))
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}

// wordAlternation matches any of words as a whole word, or nothing when words is empty.
func wordAlternation(words []string) *regexp.Regexp {
	if len(words) == 0 {
		return nil
	}
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
