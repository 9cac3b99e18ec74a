// Package knowledge holds the per-message-type tables (templates, key facts, relevance
// chunks, scoring checks, weights) that drive the strategies and the hybrid selector.
// The tables are data, loaded once at start-up and validated against the closed set of
// message types so that a missing entry is caught at load time.
package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gadeShivani/iso20022-rag/internal/extractor"
	"github.com/gadeShivani/iso20022-rag/internal/models"
)

//go:embed knowledge.yaml
var embedded []byte

// Index is the placeholder for the 1-based position of a repeated sub-record.
const Index = "index"

type Chunk struct {
	Template  string
	Relevance float64
	Kind      string
}

// EntryChunk is rendered once per sub-record; relevance drops by Decrement for each
// successive entry.
type EntryChunk struct {
	Chunk
	Decrement float64
}

type CheckKind string

const (
	CheckKeyword CheckKind = "keyword"
	CheckCode    CheckKind = "code"
	CheckSignal  CheckKind = "signal"
)

const (
	SignalDigits   = "digits"
	SignalCurrency = "currency"
	SignalParties  = "parties"
)

type Check struct {
	Kind   CheckKind
	Terms  []string
	Signal string
}

type TermLists struct {
	Technical  []string
	Business   []string
	Compliance []string
}

// TypeKnowledge is everything known about one message type.
type TypeKnowledge struct {
	Type            models.MessageType
	Description     string
	KeyFields       []string
	SummaryTemplate string
	KeyPoints       []string
	Compliance      []string
	Chunks          []Chunk
	EntryChunk      *EntryChunk
	Weights         models.WeightSet
	Checks          []Check
	Evaluation      TermLists
}

type Intent struct {
	Name        string
	Keywords    []string
	Multipliers models.WeightSet
}

type Scoring struct {
	Currencies    []string
	PartyTerms    []string
	MinWords      int
	GenericWeight float64
	TypeWeight    float64
}

// Base is the validated, read-only knowledge base.
type Base struct {
	DefaultWeights models.WeightSet
	Thresholds     models.WeightSet
	Scoring        Scoring
	Intents        []Intent
	CommonChunks   []Chunk
	Fallback       TypeKnowledge

	types map[models.MessageType]*TypeKnowledge
}

// For returns the tables for t.
func (b *Base) For(t models.MessageType) (*TypeKnowledge, bool) {
	k, ok := b.types[t]
	return k, ok
}

// BaseWeights returns the type's base weights, or the defaults when it has none.
func (b *Base) BaseWeights(t models.MessageType) models.WeightSet {
	if k, ok := b.types[t]; ok {
		return k.Weights
	}
	return b.DefaultWeights
}

var loadDefault = sync.OnceValues(func() (*Base, error) {
	return Parse(embedded)
})

// Default returns the embedded knowledge base, parsed once per process.
func Default() (*Base, error) {
	return loadDefault()
}

func MustDefault() *Base {
	b, err := Default()
	if err != nil {
		panic(err)
	}
	return b
}

// Load reads an operator-supplied knowledge file. An empty path selects the embedded one.
func Load(path string) (*Base, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge file: %w", err)
	}
	return Parse(data)
}

type rawWeights map[string]float64

type rawChunk struct {
	Template  string  `yaml:"template"`
	Relevance float64 `yaml:"relevance"`
	Kind      string  `yaml:"kind"`
	Decrement float64 `yaml:"decrement"`
}

type rawCheck struct {
	Kind   string   `yaml:"kind"`
	Terms  []string `yaml:"terms"`
	Signal string   `yaml:"signal"`
}

type rawType struct {
	Description     string     `yaml:"description"`
	KeyFields       []string   `yaml:"key_fields"`
	SummaryTemplate string     `yaml:"summary_template"`
	KeyPoints       []string   `yaml:"key_points"`
	Compliance      []string   `yaml:"compliance"`
	Chunks          []rawChunk `yaml:"chunks"`
	EntryChunk      *rawChunk  `yaml:"entry_chunk"`
	Weights         rawWeights `yaml:"weights"`
	Checks          []rawCheck `yaml:"checks"`
	Evaluation      struct {
		Technical  []string `yaml:"technical"`
		Business   []string `yaml:"business"`
		Compliance []string `yaml:"compliance"`
	} `yaml:"evaluation"`
}

type rawBase struct {
	Defaults struct {
		Weights    rawWeights `yaml:"weights"`
		Thresholds rawWeights `yaml:"thresholds"`
	} `yaml:"defaults"`
	Scoring struct {
		Currencies    []string `yaml:"currencies"`
		PartyTerms    []string `yaml:"party_terms"`
		MinWords      int      `yaml:"min_words"`
		GenericWeight float64  `yaml:"generic_weight"`
		TypeWeight    float64  `yaml:"type_weight"`
	} `yaml:"scoring"`
	Intents []struct {
		Name        string     `yaml:"name"`
		Keywords    []string   `yaml:"keywords"`
		Multipliers rawWeights `yaml:"multipliers"`
	} `yaml:"intents"`
	CommonChunks []rawChunk         `yaml:"common_chunks"`
	Fallback     rawType            `yaml:"fallback"`
	MessageTypes map[string]rawType `yaml:"message_types"`
}

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Parse decodes and validates a knowledge document.
func Parse(data []byte) (*Base, error) {
	var raw rawBase
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode knowledge: %w", err)
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	b := &Base{types: make(map[models.MessageType]*TypeKnowledge)}

	var err error
	if b.DefaultWeights, err = toWeights(raw.Defaults.Weights, false); err != nil {
		fail("defaults.weights: %v", err)
	}
	if b.Thresholds, err = toWeights(raw.Defaults.Thresholds, true); err != nil {
		fail("defaults.thresholds: %v", err)
	}

	b.Scoring = Scoring{
		Currencies:    upper(raw.Scoring.Currencies),
		PartyTerms:    lower(raw.Scoring.PartyTerms),
		MinWords:      raw.Scoring.MinWords,
		GenericWeight: raw.Scoring.GenericWeight,
		TypeWeight:    raw.Scoring.TypeWeight,
	}
	for _, c := range b.Scoring.Currencies {
		if !currencyCode.MatchString(c) {
			fail("scoring.currencies: %q is not a three-letter currency code", c)
		}
	}
	if b.Scoring.MinWords < 0 {
		fail("scoring.min_words must not be negative")
	}
	if b.Scoring.GenericWeight < 0 || b.Scoring.TypeWeight < 0 ||
		math.Abs(b.Scoring.GenericWeight+b.Scoring.TypeWeight-1) > 1e-9 {
		fail("scoring: generic_weight and type_weight must be non-negative and sum to 1")
	}

	b.Intents, err = toIntents(raw)
	if err != nil {
		errs = append(errs, err)
	}

	for i, c := range raw.CommonChunks {
		chunk, err := toChunk(c)
		if err != nil {
			fail("common_chunks[%d]: %v", i, err)
			continue
		}
		b.CommonChunks = append(b.CommonChunks, chunk.Chunk)
	}

	b.Fallback = TypeKnowledge{
		Description: raw.Fallback.Description,
		KeyPoints:   raw.Fallback.KeyPoints,
		Compliance:  raw.Fallback.Compliance,
		Weights:     b.DefaultWeights,
	}

	for code, rt := range raw.MessageTypes {
		t, err := models.ParseMessageType(code)
		if err != nil {
			fail("message_types: %v", err)
			continue
		}
		k, err := toTypeKnowledge(t, rt)
		if err != nil {
			fail("message_types.%s: %v", code, err)
			continue
		}
		b.types[t] = k
	}
	for _, t := range models.MessageTypes() {
		if _, ok := b.types[t]; !ok {
			fail("message_types: no entry for %s", t)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid knowledge base: %w", err)
	}
	return b, nil
}

func toTypeKnowledge(t models.MessageType, rt rawType) (*TypeKnowledge, error) {
	if rt.Description == "" {
		return nil, errors.New("description is required")
	}
	if rt.SummaryTemplate == "" {
		return nil, errors.New("summary_template is required")
	}

	// Simple summaries must render from mandatory fields only.
	requiredFields := make(map[string]bool)
	for _, f := range extractor.RequiredFields(t) {
		requiredFields[f] = true
	}
	for _, p := range Placeholders(rt.SummaryTemplate) {
		if !requiredFields[p] {
			return nil, fmt.Errorf("summary_template references %q, which is not a required field", p)
		}
	}

	k := &TypeKnowledge{
		Type:            t,
		Description:     rt.Description,
		KeyFields:       rt.KeyFields,
		SummaryTemplate: rt.SummaryTemplate,
		KeyPoints:       rt.KeyPoints,
		Compliance:      rt.Compliance,
		Evaluation: TermLists{
			Technical:  rt.Evaluation.Technical,
			Business:   rt.Evaluation.Business,
			Compliance: rt.Evaluation.Compliance,
		},
	}

	if len(rt.Chunks) == 0 {
		return nil, errors.New("at least one chunk is required")
	}
	for i, c := range rt.Chunks {
		chunk, err := toChunk(c)
		if err != nil {
			return nil, fmt.Errorf("chunks[%d]: %w", i, err)
		}
		k.Chunks = append(k.Chunks, chunk.Chunk)
	}

	if rt.EntryChunk != nil {
		schema, _ := extractor.SchemaFor(t)
		if schema.EntryPath == "" {
			return nil, errors.New("entry_chunk set for a type without repeated entries")
		}
		chunk, err := toChunk(*rt.EntryChunk)
		if err != nil {
			return nil, fmt.Errorf("entry_chunk: %w", err)
		}
		if chunk.Decrement < 0 {
			return nil, errors.New("entry_chunk: decrement must not be negative")
		}
		k.EntryChunk = &chunk
	}

	var err error
	if k.Weights, err = toWeights(rt.Weights, false); err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}

	for i, c := range rt.Checks {
		check := Check{Kind: CheckKind(c.Kind), Terms: c.Terms, Signal: c.Signal}
		switch check.Kind {
		case CheckKeyword:
			check.Terms = lower(c.Terms)
		case CheckCode:
			check.Terms = upper(c.Terms)
		case CheckSignal:
			switch c.Signal {
			case SignalDigits, SignalCurrency, SignalParties:
			default:
				return nil, fmt.Errorf("checks[%d]: unknown signal %q", i, c.Signal)
			}
		default:
			return nil, fmt.Errorf("checks[%d]: unknown kind %q", i, c.Kind)
		}
		if check.Kind != CheckSignal && len(check.Terms) == 0 {
			return nil, fmt.Errorf("checks[%d]: terms are required", i)
		}
		k.Checks = append(k.Checks, check)
	}
	return k, nil
}

func toChunk(c rawChunk) (EntryChunk, error) {
	if c.Template == "" {
		return EntryChunk{}, errors.New("template is required")
	}
	if c.Relevance < 0 || c.Relevance > 1 {
		return EntryChunk{}, fmt.Errorf("relevance %v outside [0,1]", c.Relevance)
	}
	return EntryChunk{
		Chunk:     Chunk{Template: c.Template, Relevance: c.Relevance, Kind: c.Kind},
		Decrement: c.Decrement,
	}, nil
}

// toWeights requires one value in [0,1] per strategy. Weight sets must also be
// normalisable; thresholds may be zero.
func toWeights(raw rawWeights, thresholds bool) (models.WeightSet, error) {
	var w models.WeightSet
	if len(raw) != len(models.Strategies()) {
		return w, fmt.Errorf("expected %d entries, got %d", len(models.Strategies()), len(raw))
	}
	for name, v := range raw {
		s, err := models.ParseStrategy(name)
		if err != nil {
			return w, err
		}
		if v < 0 || v > 1 {
			return w, fmt.Errorf("%s: %v outside [0,1]", name, v)
		}
		w.Set(s, v)
	}
	if !thresholds && w.Sum() <= 0 {
		return w, errors.New("weights must not all be zero")
	}
	return w, nil
}

func toIntents(raw rawBase) ([]Intent, error) {
	var (
		intents []Intent
		errs    []error
	)
	owner := make(map[string]string)
	for i, ri := range raw.Intents {
		if ri.Name == "" || len(ri.Keywords) == 0 {
			errs = append(errs, fmt.Errorf("intents[%d]: name and keywords are required", i))
			continue
		}
		var m models.WeightSet
		if len(ri.Multipliers) != len(models.Strategies()) {
			errs = append(errs, fmt.Errorf("intents.%s: expected a multiplier per strategy", ri.Name))
			continue
		}
		for name, v := range ri.Multipliers {
			s, err := models.ParseStrategy(name)
			if err != nil || v < 0 {
				errs = append(errs, fmt.Errorf("intents.%s: bad multiplier %s=%v", ri.Name, name, v))
				continue
			}
			m.Set(s, v)
		}

		keywords := lower(ri.Keywords)
		for _, kw := range keywords {
			// Categories must not overlap: no keyword may shadow another category's.
			for other, otherIntent := range owner {
				if otherIntent != ri.Name && (strings.HasPrefix(kw, other) || strings.HasPrefix(other, kw)) {
					errs = append(errs, fmt.Errorf("intents.%s: keyword %q overlaps %q of %s", ri.Name, kw, other, otherIntent))
				}
			}
		}
		for _, kw := range keywords {
			owner[kw] = ri.Name
		}
		for _, prev := range intents {
			if prev.Name == ri.Name {
				errs = append(errs, fmt.Errorf("intents.%s: duplicate intent", ri.Name))
			}
		}
		intents = append(intents, Intent{Name: ri.Name, Keywords: keywords, Multipliers: m})
	}
	return intents, errors.Join(errs...)
}

func lower(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}

func upper(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return out
}
