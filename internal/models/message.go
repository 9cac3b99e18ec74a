package models

import (
	"encoding/json"
	"sort"
)

// Well-known record keys present on every ParsedMessage.
const (
	FieldMessageType = "message_type"
	FieldMessageID   = "message_id"
	FieldCreatedAt   = "created_at"
)

// Fields is a flat record of named scalar values.
type Fields map[string]string

func (f Fields) Get(name string) (string, bool) {
	v, ok := f[name]
	return v, ok
}

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (f Fields) clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// ParsedMessage is the structured record extracted from one XML document. It is
// immutable: the constructor and every accessor copy.
type ParsedMessage struct {
	msgType MessageType
	fields  Fields
	entries []Fields
}

func NewParsedMessage(t MessageType, fields Fields, entries []Fields) *ParsedMessage {
	m := &ParsedMessage{
		msgType: t,
		fields:  fields.clone(),
	}
	m.fields[FieldMessageType] = t.String()
	if len(entries) > 0 {
		m.entries = make([]Fields, len(entries))
		for i, e := range entries {
			m.entries[i] = e.clone()
		}
	}
	return m
}

func (m *ParsedMessage) Type() MessageType { return m.msgType }

func (m *ParsedMessage) MessageID() string { return m.fields[FieldMessageID] }

func (m *ParsedMessage) CreatedAt() string { return m.fields[FieldCreatedAt] }

func (m *ParsedMessage) Get(name string) (string, bool) {
	return m.fields.Get(name)
}

// Value returns the field value, or "" when the field is absent.
func (m *ParsedMessage) Value(name string) string {
	return m.fields[name]
}

func (m *ParsedMessage) Fields() Fields {
	return m.fields.clone()
}

func (m *ParsedMessage) Entries() []Fields {
	out := make([]Fields, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.clone()
	}
	return out
}

func (m *ParsedMessage) NumEntries() int { return len(m.entries) }

func (m *ParsedMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MessageType MessageType `json:"message_type"`
		Fields      Fields      `json:"fields"`
		Entries     []Fields    `json:"entries,omitempty"`
	}{m.msgType, m.fields, m.entries})
}
