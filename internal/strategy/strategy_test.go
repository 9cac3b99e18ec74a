package strategy

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gadeShivani/iso20022-rag/internal/extractor"
	"github.com/gadeShivani/iso20022-rag/internal/knowledge"
	"github.com/gadeShivani/iso20022-rag/internal/models"
	"github.com/gadeShivani/iso20022-rag/internal/samples"
)

func parseSample(t *testing.T, name string) *models.ParsedMessage {
	t.Helper()
	msg, err := extractor.ExtractXML(samples.MustGet(name))
	require.NoError(t, err)
	return msg
}

func TestRenderSummary_BasicTransfer(t *testing.T) {
	msg := parseSample(t, samples.BasicTransfer)

	summary, err := RenderSummary(knowledge.MustDefault(), msg)
	require.NoError(t, err)
	assert.Equal(t, "Payment of 12345.67 USD was made on 2025-07-16T10:30:00Z from John Doe to Jane Smith.", summary)
}

func TestRenderSummary_EveryType(t *testing.T) {
	kb := knowledge.MustDefault()
	want := map[string]string{
		samples.StatusReport:      "Status report for message MSG123456789: RJCT at 2025-07-16T11:00:00Z.",
		samples.Statement:         "Statement STMT-2025-07-16-001 with balance 250000.00 EUR at ",
		samples.PaymentInitiation: "Payment initiation from Acme Corporation to Northwind Supplies Ltd for 8750.00 GBP on 2025-07-16T08:45:00Z.",
	}
	for name, prefix := range want {
		summary, err := RenderSummary(kb, parseSample(t, name))
		require.NoError(t, err, name)
		assert.True(t, strings.HasPrefix(summary, prefix), "%s: %s", name, summary)
		assert.NotContains(t, summary, "{")
	}
}

func TestSimple_UnknownType(t *testing.T) {
	msg := models.NewParsedMessage(models.UnknownMessageType, models.Fields{"message_id": "X"}, nil)

	_, err := NewSimple(knowledge.MustDefault()).BuildQuery(msg, "")
	assert.True(t, errors.Is(err, models.ErrUnknownMessageType))
}

func TestSimple_HandBuiltRecordMissingField(t *testing.T) {
	msg := models.NewParsedMessage(models.CreditTransfer, models.Fields{
		"message_id": "X", "created_at": "2025-01-01", "amount": "1", "currency": "EUR",
	}, nil)

	_, err := NewSimple(knowledge.MustDefault()).BuildQuery(msg, "")
	var missing *models.MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "debtor_name", missing.Field)
}

func TestSimple_Prompts(t *testing.T) {
	msg := parseSample(t, samples.BasicTransfer)
	simple := NewSimple(knowledge.MustDefault())

	req, err := simple.BuildQuery(msg, "")
	require.NoError(t, err)
	assert.Equal(t, models.Simple, req.Strategy)
	assert.Equal(t, models.CreditTransfer, req.MessageType)
	assert.Contains(t, req.Prompt, "Summary: Payment of 12345.67 USD")
	assert.Contains(t, req.Prompt, "debtor_bank: BOFAUS3N")
	assert.Less(t, strings.Index(req.Prompt, "amount: "), strings.Index(req.Prompt, "currency: "),
		"record dump is in key order")

	withQuery, err := simple.BuildQuery(msg, "Who pays the charges?")
	require.NoError(t, err)
	assert.Contains(t, withQuery.Prompt, "to answer: Who pays the charges?")
	assert.Contains(t, withQuery.Prompt, "Key Fields: MsgId, CreDtTm, TtlIntrBkSttlmAmt, Dbtr, Cdtr")
	assert.NotContains(t, withQuery.Prompt, "Summary:")
}

func TestContextEnriched_Bullets(t *testing.T) {
	msg := parseSample(t, samples.BasicTransfer)

	req, err := NewContextEnriched(knowledge.MustDefault()).BuildQuery(msg, "")
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "Summarize this Customer credit transfer message:")
	assert.Contains(t, req.Prompt, "• Transfer amount: 12345.67 USD")
	assert.Contains(t, req.Prompt, "• From: John Doe (Bank: BOFAUS3N)")
	assert.Contains(t, req.Prompt, "• Verify sender and receiver details")
	assert.Contains(t, req.Prompt, "2-3 sentences")
	assert.Contains(t, req.Prompt, "business-friendly language")
	assert.Len(t, req.Context, 7)
}

func TestContextEnriched_QueryAndMissingValues(t *testing.T) {
	msg := models.NewParsedMessage(models.StatusReport, models.Fields{
		"message_id": "S1", "created_at": "2025-01-01", "group_status": "ACCP",
	}, nil)

	req, err := NewContextEnriched(knowledge.MustDefault()).BuildQuery(msg, "was it accepted?")
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "Question about this Payment status report message: was it accepted?")
	assert.Contains(t, req.Prompt, "• Original message: N/A")
	assert.Contains(t, req.Prompt, "2-3 sentences")
	assert.Contains(t, req.Prompt, "business-friendly")
}

func TestContextEnriched_FallbackForUnknownType(t *testing.T) {
	msg := models.NewParsedMessage(models.UnknownMessageType, models.Fields{
		"message_id": "Z9", "created_at": "2025-02-02",
	}, nil)

	req, err := NewContextEnriched(knowledge.MustDefault()).BuildQuery(msg, "")
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "Unknown message type")
	assert.Contains(t, req.Prompt, "• Message ID: Z9")
	assert.Contains(t, req.Prompt, "• Standard message validation")
}

func TestRankChunks_Statement(t *testing.T) {
	msg := parseSample(t, samples.Statement)

	chunks := RankChunks(knowledge.MustDefault(), msg)
	require.Len(t, chunks, 7)

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
		if i > 0 {
			assert.GreaterOrEqual(t, chunks[i-1].Relevance, c.Relevance)
		}
		assert.GreaterOrEqual(t, c.Relevance, 0.0)
		assert.LessOrEqual(t, c.Relevance, 1.0)
	}
	assert.Equal(t, []string{
		"Balance: 250000.00 EUR",
		"Account: DE89370400440532013000",
		"Statement ID: STMT-2025-07-16-001",
		"Created at: 2025-07-16T18:00:00Z",
		"Transaction 1: 12000.00 EUR (CRDT)",
		"Message ID: CAMT053-20250716",
		"Transaction 2: 3500.50 EUR (DBIT)",
	}, contents)
	assert.InDelta(t, 0.5, chunks[6].Relevance, 1e-9)
}

func TestRankChunks_EntryRelevanceClampedAtZero(t *testing.T) {
	entries := make([]models.Fields, 9)
	for i := range entries {
		entries[i] = models.Fields{"amount": "1.00", "currency": "EUR", "credit_debit": "CRDT"}
	}
	msg := models.NewParsedMessage(models.Statement, models.Fields{
		"message_id": "M", "created_at": "D", "statement_id": "S", "account_id": "A",
		"balance_amount": "1", "balance_currency": "EUR",
	}, entries)

	chunks := RankChunks(knowledge.MustDefault(), msg)
	last := chunks[len(chunks)-1]
	assert.Equal(t, "Transaction 9: 1.00 EUR (CRDT)", last.Content)
	assert.Zero(t, last.Relevance)
}

func TestReranker_TopThree(t *testing.T) {
	msg := parseSample(t, samples.BasicTransfer)
	reranker := NewReranker(knowledge.MustDefault())

	req, err := reranker.BuildQuery(msg, "")
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "Primary: Payment transaction: 12345.67 USD")
	assert.Contains(t, req.Prompt, "Secondary: Parties involved: John Doe → Jane Smith")
	assert.Contains(t, req.Prompt, "Additional: Banks: BOFAUS3N → CHASUS33")
	assert.Contains(t, req.Prompt, "Message Type: pacs.008")
	assert.NotContains(t, req.Prompt, "Message ID:")
	assert.Len(t, req.Context, TopChunks)

	withQuery, err := reranker.BuildQuery(msg, "which banks?")
	require.NoError(t, err)
	assert.Contains(t, withQuery.Prompt, "to answer: which banks?")
	assert.Contains(t, withQuery.Prompt, "Most relevant information:")
}

func TestBuildAll(t *testing.T) {
	kb := knowledge.MustDefault()
	msg := parseSample(t, samples.PaymentInitiation)

	requests, err := BuildAll(kb, msg, "")
	require.NoError(t, err)
	require.Len(t, requests, 3)
	for i, s := range models.Strategies() {
		assert.Equal(t, s, requests[i].Strategy)
		assert.NotEmpty(t, requests[i].Prompt)
	}

	again, err := BuildAll(kb, msg, "")
	require.NoError(t, err)
	assert.Equal(t, requests, again, "responders are deterministic")
}

func TestNew(t *testing.T) {
	kb := knowledge.MustDefault()
	for _, s := range models.Strategies() {
		r, err := New(s, kb)
		require.NoError(t, err)
		assert.Equal(t, s, r.Strategy())
	}
	_, err := New(models.Strategy(42), kb)
	assert.Error(t, err)
}
