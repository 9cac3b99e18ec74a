package knowledge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadeShivani/iso20022-rag/internal/models"
)

// TestDefault_CoversEveryMessageType tests that the embedded tables are exhaustive.
func TestDefault_CoversEveryMessageType(t *testing.T) {
	kb, err := Default()
	require.NoError(t, err)

	for _, mt := range models.MessageTypes() {
		k, ok := kb.For(mt)
		require.True(t, ok, mt.String())
		assert.NotEmpty(t, k.Description)
		assert.NotEmpty(t, k.SummaryTemplate)
		assert.NotEmpty(t, k.Chunks)
		assert.NotEmpty(t, k.Checks)
		assert.InDelta(t, 1.0, k.Weights.Sum(), 1e-9, mt.String())
	}
	_, ok := kb.For(models.UnknownMessageType)
	assert.False(t, ok)
}

func TestDefault_Values(t *testing.T) {
	kb := MustDefault()

	assert.Equal(t, models.NewWeightSet(0.3, 0.4, 0.3), kb.DefaultWeights)
	assert.Equal(t, models.NewWeightSet(0.7, 0.8, 0.75), kb.Thresholds)
	assert.Equal(t, models.NewWeightSet(0.25, 0.45, 0.30), kb.BaseWeights(models.CreditTransfer))
	assert.Equal(t, models.NewWeightSet(0.40, 0.35, 0.25), kb.BaseWeights(models.StatusReport))
	assert.Equal(t, kb.DefaultWeights, kb.BaseWeights(models.UnknownMessageType))

	require.Len(t, kb.Intents, 3)
	assert.Equal(t, "compliance", kb.Intents[0].Name)
	assert.Equal(t, models.NewWeightSet(0.7, 1.3, 1.0), kb.Intents[0].Multipliers)
	assert.Equal(t, "detail", kb.Intents[1].Name)
	assert.Equal(t, "summary", kb.Intents[2].Name)

	statement, _ := kb.For(models.Statement)
	require.NotNil(t, statement.EntryChunk)
	assert.InDelta(t, 0.1, statement.EntryChunk.Decrement, 1e-9)

	transfer, _ := kb.For(models.CreditTransfer)
	assert.Nil(t, transfer.EntryChunk)
	assert.Equal(t, []string{"USD", "EUR", "GBP", "JPY", "CHF"}, kb.Scoring.Currencies)
}

func TestDefault_IsShared(t *testing.T) {
	a, err := Default()
	require.NoError(t, err)
	b, err := Default()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestLoad(t *testing.T) {
	kb, err := Load("")
	require.NoError(t, err)
	assert.Same(t, MustDefault(), kb)

	path := filepath.Join(t.TempDir(), "kb.yaml")
	require.NoError(t, os.WriteFile(path, embedded, 0o600))
	fromFile, err := Load(path)
	require.NoError(t, err)
	assert.NotSame(t, kb, fromFile)
	assert.Equal(t, kb.Thresholds, fromFile.Thresholds)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_RejectsInvalidTables(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(string) string
		wantErr string
	}{
		{
			name: "missing message type",
			mutate: func(s string) string {
				return strings.Replace(s, "  pain.001:\n", "  pain.999:\n", 1)
			},
			wantErr: "pain.999",
		},
		{
			name: "template uses optional field",
			mutate: func(s string) string {
				return strings.Replace(s, "from {debtor_name} to {creditor_name}.", "from {debtor_name} for {purpose}.", 1)
			},
			wantErr: `"purpose"`,
		},
		{
			name: "weight out of range",
			mutate: func(s string) string {
				return strings.Replace(s, "{simple: 0.40, context: 0.35, reranker: 0.25}", "{simple: 1.40, context: 0.35, reranker: 0.25}", 1)
			},
			wantErr: "outside [0,1]",
		},
		{
			name: "overlapping intents",
			mutate: func(s string) string {
				return strings.Replace(s, "[quick, summary, brief, short]", "[quick, summary, brief, regulations]", 1)
			},
			wantErr: "overlaps",
		},
		{
			name: "unknown check kind",
			mutate: func(s string) string {
				return strings.Replace(s, "{kind: keyword, terms: [status]}", "{kind: fuzzy, terms: [status]}", 1)
			},
			wantErr: "unknown kind",
		},
		{
			name: "entry chunk on flat type",
			mutate: func(s string) string {
				return strings.Replace(s, "    weights: {simple: 0.25",
					"    entry_chunk: {template: \"x\", relevance: 0.5}\n    weights: {simple: 0.25", 1)
			},
			wantErr: "entry_chunk",
		},
		{
			name: "currency code with symbols",
			mutate: func(s string) string {
				return strings.Replace(s, "[USD, EUR, GBP, JPY, CHF]", `[USD, EUR, "US$", "C++"]`, 1)
			},
			wantErr: `"C++" is not a three-letter currency code`,
		},
		{
			name:    "not yaml",
			mutate:  func(string) string { return "defaults: [" },
			wantErr: "decode knowledge",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := tt.mutate(string(embedded))
			require.NotEqual(t, string(embedded), doc, "mutation did not apply")

			kb, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.Nil(t, kb)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRender(t *testing.T) {
	fields := map[string]string{"amount": "10.00", "currency": "EUR"}

	assert.Equal(t, "10.00 EUR to N/A", Render("{amount} {currency} to {creditor_name}", MapLookup(fields)))

	out, missing, ok := RenderStrict("{amount} {currency}", MapLookup(fields))
	assert.True(t, ok)
	assert.Empty(t, missing)
	assert.Equal(t, "10.00 EUR", out)

	_, missing, ok = RenderStrict("{amount} {creditor_name} {debtor_name}", MapLookup(fields))
	assert.False(t, ok)
	assert.Equal(t, "creditor_name", missing)
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"amount", "currency"}, Placeholders("{amount} {currency} ({amount})"))
	assert.Nil(t, Placeholders("no fields here"))
}

func TestBullets(t *testing.T) {
	assert.Equal(t, "• a\n• b", Bullets([]string{"a", "b"}))
	assert.Equal(t, "", Bullets(nil))
}
