package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gadeShivani/iso20022-rag/internal/hybrid"
	"github.com/gadeShivani/iso20022-rag/internal/models"
	"github.com/gadeShivani/iso20022-rag/internal/pipeline"
	"github.com/gadeShivani/iso20022-rag/internal/session"
)

type fakeAnalyzer struct {
	calls []string
	err   error
}

func (f *fakeAnalyzer) Analyze(_ context.Context, xmlText, model, query string) (*pipeline.Report, error) {
	f.calls = append(f.calls, xmlText+"|"+model+"|"+query)
	if f.err != nil {
		return nil, f.err
	}
	return testReport(query), nil
}

func testReport(query string) *pipeline.Report {
	msg := models.NewParsedMessage(models.CreditTransfer, models.Fields{
		models.FieldMessageID: "MSG-001",
		models.FieldCreatedAt: "2025-07-16T10:30:00Z",
	}, nil)
	return &pipeline.Report{
		Model:   "gpt-4",
		Query:   query,
		Message: msg,
		Summary: "Payment of 100.00 EUR (settled).",
		Selection: &hybrid.Selection{
			Winner:         models.Context,
			Response:       "Payment of 100.00 EUR (settled).",
			MessageType:    models.CreditTransfer,
			Confidences:    models.NewWeightSet(0.8, 0.9, 0),
			FinalWeights:   models.NewWeightSet(0.4, 0.3, 0.3),
			WeightedScores: models.NewWeightSet(0.32, 0.27, 0),
			Failures:       map[models.Strategy]string{models.Reranker: "quota exceeded"},
		},
	}
}

func newTestBot(a Analyzer) (*Bot, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return &Bot{store: store, analyzer: a, model: "gpt-4", logger: zap.NewNop()}, store
}

func TestProcess_StoresDocumentAndFormatsReport(t *testing.T) {
	ctx := context.Background()
	a := &fakeAnalyzer{}
	b, store := newTestBot(a)

	reply, err := b.process(ctx, 42, "pacs.xml", "<Document/>", "")
	require.NoError(t, err)
	assert.Contains(t, reply, `Payment of 100\.00 EUR \(settled\)\.`)
	assert.Equal(t, []string{"<Document/>|gpt-4|"}, a.calls)

	doc, err := store.GetDocument(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "pacs.xml", doc.Name)
	assert.Equal(t, models.CreditTransfer, doc.MessageType)
}

func TestProcess_RejectsInvalidInputWithoutStoring(t *testing.T) {
	ctx := context.Background()
	b, store := newTestBot(&fakeAnalyzer{err: &models.MalformedXMLError{Err: errors.New("EOF")}})

	_, err := b.process(ctx, 42, "bad.xml", "<Document>", "")
	require.Error(t, err)
	_, err = store.GetDocument(ctx, 42)
	assert.True(t, errors.Is(err, session.ErrNoDocument))
}

func TestProcess_KeepsDocumentWhenGenerationFails(t *testing.T) {
	ctx := context.Background()
	b, store := newTestBot(&fakeAnalyzer{err: models.ErrAllStrategiesFailed})

	_, err := b.process(ctx, 42, "ok.xml", "<Document/>", "")
	assert.True(t, errors.Is(err, models.ErrAllStrategiesFailed))
	_, err = store.GetDocument(ctx, 42)
	assert.NoError(t, err, "the user can retry with /ask")
}

func TestAsk(t *testing.T) {
	ctx := context.Background()
	a := &fakeAnalyzer{}
	b, _ := newTestBot(a)

	_, err := b.ask(ctx, 42, "who paid?")
	assert.True(t, errors.Is(err, session.ErrNoDocument))

	_, err = b.process(ctx, 42, "pacs.xml", "<Document/>", "")
	require.NoError(t, err)
	reply, err := b.ask(ctx, 42, "who paid?")
	require.NoError(t, err)
	assert.Contains(t, reply, "*Question:* _who paid?_")
	assert.Equal(t, "<Document/>|gpt-4|who paid?", a.calls[len(a.calls)-1])
}

func TestFormatReport_Table(t *testing.T) {
	reply := formatReport(testReport(""))

	assert.True(t, strings.HasPrefix(reply, `*pacs\.008* FIToFICustomerCreditTransfer`))
	assert.Contains(t, reply, `*Message ID:* MSG\-001`)
	assert.Contains(t, reply, "*Winner:* context  *Intent:* none")
	assert.Contains(t, reply, "context * ")
	assert.Contains(t, reply, "reranker  quota exceeded")
	assert.True(t, strings.HasSuffix(reply, "```"))
	assert.NotContains(t, reply, "*Question:*")
}

func TestEscapeMarkdown(t *testing.T) {
	assert.Equal(t, `1\.5 \+ \(a\_b\) \\ \!`, escapeMarkdown(`1.5 + (a_b) \ !`))
	assert.Equal(t, "plain text", escapeMarkdown("plain text"))
}

func TestUserError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{session.ErrNoDocument, "Send one first"},
		{&models.MalformedXMLError{Err: errors.New("EOF")}, "well-formed XML"},
		{&models.UnrecognizedSchemaError{}, "/types"},
		{&models.MissingRequiredFieldError{Type: models.Statement, Field: "iban"}, `"iban"`},
		{errors.Join(models.ErrAllStrategiesFailed, errors.New("timeout")), "try again later"},
		{errors.New("boom"), "something went wrong"},
	}
	for _, tt := range tests {
		assert.Contains(t, userError(tt.err), tt.want, tt.err.Error())
	}
}

func TestInputDetection(t *testing.T) {
	assert.True(t, looksLikeXML("  <?xml version=\"1.0\"?><Document/>"))
	assert.False(t, looksLikeXML("hello"))

	assert.True(t, isXMLDocument("camt053.XML", ""))
	assert.True(t, isXMLDocument("upload", "text/xml"))
	assert.False(t, isXMLDocument("notes.txt", "text/plain"))
}

func TestFormatTypes(t *testing.T) {
	out := formatTypes()
	for _, mt := range models.MessageTypes() {
		assert.Contains(t, out, "`"+mt.String()+"`")
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Equal(t, "hé…", truncate("héllo", 2))
}
