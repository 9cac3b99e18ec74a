package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageType(t *testing.T) {
	tests := []struct {
		in   string
		want MessageType
	}{
		{"pacs.008", CreditTransfer},
		{"PACS.002", StatusReport},
		{" camt.053.001.08 ", Statement},
		{"pain.001.001.09", PaymentInitiation},
	}
	for _, tt := range tests {
		got, err := ParseMessageType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "pacs.0081", "camt.054"} {
		_, err := ParseMessageType(bad)
		assert.True(t, errors.Is(err, ErrUnknownMessageType), bad)
	}
}

func TestMessageType_Metadata(t *testing.T) {
	assert.False(t, UnknownMessageType.Valid())
	assert.Equal(t, "unknown", UnknownMessageType.String())
	assert.Len(t, MessageTypes(), 4)

	for _, mt := range MessageTypes() {
		assert.True(t, mt.Valid())
		assert.Contains(t, mt.Namespace(), mt.String())
		assert.NotEmpty(t, mt.SignatureElement())
		assert.NotEmpty(t, mt.MessageName())
	}

	_, err := UnknownMessageType.MarshalText()
	assert.Error(t, err)
}

func TestStrategy(t *testing.T) {
	assert.Equal(t, []Strategy{Simple, Context, Reranker}, Strategies())
	for _, s := range Strategies() {
		parsed, err := ParseStrategy(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}
	assert.Equal(t, "strategy(7)", Strategy(7).String())
	_, err := ParseStrategy("hybrid")
	assert.Error(t, err)
}

func TestWeightSet(t *testing.T) {
	w := NewWeightSet(2, 1, 1)
	n, ok := w.Normalize()
	require.True(t, ok)
	assert.InDelta(t, 1.0, n.Sum(), 1e-9)
	assert.InDelta(t, 0.5, n.Get(Simple), 1e-9)

	zero, ok := WeightSet{}.Normalize()
	assert.False(t, ok)
	assert.Equal(t, WeightSet{}, zero)

	w.Set(Reranker, 3)
	data, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"simple":2,"context":1,"reranker":3}`, string(data))

	var back WeightSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, w, back)
	assert.Error(t, json.Unmarshal([]byte(`{"hybrid":1}`), &back))
}

func TestParsedMessage_IsImmutable(t *testing.T) {
	fields := Fields{FieldMessageID: "M1", "amount": "10.00"}
	entries := []Fields{{"amount": "1.00"}}
	msg := NewParsedMessage(Statement, fields, entries)

	fields["amount"] = "changed"
	entries[0]["amount"] = "changed"
	msg.Fields()["amount"] = "changed"
	msg.Entries()[0]["amount"] = "changed"

	assert.Equal(t, "10.00", msg.Value("amount"))
	assert.Equal(t, "1.00", msg.Entries()[0]["amount"])
	assert.Equal(t, "camt.053", msg.Value(FieldMessageType))
	assert.Equal(t, "M1", msg.MessageID())
	assert.Empty(t, msg.CreatedAt())
	assert.Equal(t, 1, msg.NumEntries())

	_, ok := msg.Get("purpose")
	assert.False(t, ok)
}

func TestParsedMessage_JSON(t *testing.T) {
	msg := NewParsedMessage(CreditTransfer, Fields{FieldMessageID: "M1"}, nil)
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message_type":"pacs.008","fields":{"message_id":"M1","message_type":"pacs.008"}}`, string(data))
}

func TestErrors(t *testing.T) {
	malformed := &MalformedXMLError{Err: errors.New("unexpected EOF")}
	assert.True(t, errors.Is(malformed, ErrMalformedXML))
	assert.Contains(t, malformed.Error(), "unexpected EOF")

	ambiguous := &UnrecognizedSchemaError{Root: "Document", Candidates: []MessageType{CreditTransfer, Statement}}
	assert.True(t, errors.Is(ambiguous, ErrUnrecognizedSchema))
	assert.Contains(t, ambiguous.Error(), "pacs.008, camt.053")

	missing := &MissingRequiredFieldError{Type: Statement, Field: "amount", Entry: 2}
	assert.True(t, errors.Is(missing, ErrMissingRequiredField))
	assert.Equal(t, `camt.053: missing required field "amount" in entry 2`, missing.Error())
}
