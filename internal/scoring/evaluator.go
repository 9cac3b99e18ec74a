package scoring

import (
	"math"
	"regexp"
	"strings"

	"github.com/gadeShivani/iso20022-rag/internal/knowledge"
	"github.com/gadeShivani/iso20022-rag/internal/models"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Improvement thresholds: a score below the threshold yields the matching hint.
const (
	minTechnicalDensity  = 0.3
	minBusinessDensity   = 0.3
	minComplianceDensity = 0.2
	minNumericAccuracy   = 0.5
	minCurrencyAccuracy  = 0.5
	minReadability       = 0.6
)

var (
	sentenceBreak    = regexp.MustCompile(`[.!?]\s+`)
	datePattern      = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4}|\d{2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4}`)
	referencePattern = regexp.MustCompile(`(?:REF|Reference|ID):\s*[A-Z0-9-]+`)
	plainAmount      = regexp.MustCompile(`\d+(?:,\d{3})*(?:\.\d{2})?`)
	currencySymbol   = regexp.MustCompile(`[€$£¥]`)
)

type Scores struct {
	TechnicalDensity  float64 `json:"technical_density"`
	BusinessDensity   float64 `json:"business_density"`
	ComplianceDensity float64 `json:"compliance_density"`
	NumericAccuracy   float64 `json:"numeric_accuracy"`
	CurrencyAccuracy  float64 `json:"currency_accuracy"`
	Readability       float64 `json:"readability"`
}

type Metrics struct {
	SentenceCount     int                `json:"sentence_count"`
	AvgSentenceLength float64            `json:"avg_sentence_length"`
	MessageType       models.MessageType `json:"message_type"`
}

// Evaluation is a quality report for one response.
type Evaluation struct {
	Status           Status   `json:"status"`
	Scores           Scores   `json:"scores"`
	Metrics          Metrics  `json:"metrics"`
	ImprovementAreas []string `json:"improvement_areas"`
}

// Evaluator is safe for concurrent use.
type Evaluator struct {
	kb           *knowledge.Base
	currencyCode *regexp.Regexp
	codedAmount  *regexp.Regexp
}

func NewEvaluator(kb *knowledge.Base) *Evaluator {
	e := &Evaluator{kb: kb}
	if len(kb.Scoring.Currencies) > 0 {
		quoted := make([]string, len(kb.Scoring.Currencies))
		for i, c := range kb.Scoring.Currencies {
			quoted[i] = regexp.QuoteMeta(c)
		}
		alt := strings.Join(quoted, "|")
		e.currencyCode = regexp.MustCompile(`(?:` + alt + `)`)
		e.codedAmount = regexp.MustCompile(`(?:` + alt + `)\s*[\d,.]+`)
	}
	return e
}

func (e *Evaluator) Evaluate(text string, t models.MessageType) Evaluation {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return Evaluation{
			Status:           StatusError,
			Metrics:          Metrics{MessageType: t},
			ImprovementAreas: []string{"Empty or invalid response"},
		}
	}

	var terms knowledge.TermLists
	if k, ok := e.kb.For(t); ok {
		terms = k.Evaluation
	}

	words := 0
	for _, s := range sentences {
		words += len(strings.Fields(s))
	}
	avg := float64(words) / float64(len(sentences))

	scores := Scores{
		TechnicalDensity:  termDensity(text, terms.Technical),
		BusinessDensity:   termDensity(text, terms.Business),
		ComplianceDensity: termDensity(text, terms.Compliance),
		NumericAccuracy:   e.numericAccuracy(text),
		CurrencyAccuracy:  e.currencyAccuracy(text),
		Readability:       min(1, 2/(1+avg/20)),
	}

	var areas []string
	hint := func(below bool, msg string) {
		if below {
			areas = append(areas, msg)
		}
	}
	hint(scores.TechnicalDensity < minTechnicalDensity, "Increase technical detail")
	hint(scores.BusinessDensity < minBusinessDensity, "Add more business context")
	hint(scores.ComplianceDensity < minComplianceDensity, "Include compliance aspects")
	hint(scores.NumericAccuracy < minNumericAccuracy, "Improve numeric accuracy")
	hint(scores.CurrencyAccuracy < minCurrencyAccuracy, "Enhance currency handling")
	hint(scores.Readability < minReadability, "Improve readability")
	if len(areas) == 0 {
		areas = []string{"None"}
	}

	return Evaluation{
		Status: StatusSuccess,
		Scores: Scores{
			TechnicalDensity:  round(scores.TechnicalDensity, 2),
			BusinessDensity:   round(scores.BusinessDensity, 2),
			ComplianceDensity: round(scores.ComplianceDensity, 2),
			NumericAccuracy:   round(scores.NumericAccuracy, 2),
			CurrencyAccuracy:  round(scores.CurrencyAccuracy, 2),
			Readability:       round(scores.Readability, 2),
		},
		Metrics: Metrics{
			SentenceCount:     len(sentences),
			AvgSentenceLength: round(avg, 1),
			MessageType:       t,
		},
		ImprovementAreas: areas,
	}
}

func (e *Evaluator) numericAccuracy(text string) float64 {
	hasAmount := plainAmount.MatchString(text) ||
		(e.codedAmount != nil && e.codedAmount.MatchString(text))
	return fraction(hasAmount, datePattern.MatchString(text), referencePattern.MatchString(text))
}

func (e *Evaluator) currencyAccuracy(text string) float64 {
	hasCode := e.currencyCode != nil && e.currencyCode.MatchString(text)
	return fraction(hasCode, plainAmount.MatchString(text), currencySymbol.MatchString(text))
}

// termDensity is the fraction of terms that occur in text, case-insensitively.
func termDensity(text string, terms []string) float64 {
	if text == "" || len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	n := 0
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			n++
		}
	}
	return float64(n) / float64(len(terms))
}

func splitSentences(text string) []string {
	var out []string
	start := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start : loc[0]+1]); s != "" {
			out = append(out, s)
		}
		start = loc[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
