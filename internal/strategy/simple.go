package strategy

import (
	"fmt"
	"strings"

	"github.com/gadeShivani/iso20022-rag/internal/knowledge"
	"github.com/gadeShivani/iso20022-rag/internal/models"
)

// Simple fills the type's fixed summary template from the record.
type Simple struct {
	kb *knowledge.Base
}

func NewSimple(kb *knowledge.Base) *Simple {
	return &Simple{kb: kb}
}

func (s *Simple) Strategy() models.Strategy { return models.Simple }

func (s *Simple) BuildQuery(msg *models.ParsedMessage, query string) (models.GenerationRequest, error) {
	k, ok := s.kb.For(msg.Type())
	if !ok {
		return models.GenerationRequest{}, &models.UnknownMessageTypeError{Type: msg.Type().String()}
	}

	var b strings.Builder
	contextLines := []string{k.Description}
	if query != "" {
		fmt.Fprintf(&b, "Analyze this ISO 20022 financial message to answer: %s\n\n", query)
		fmt.Fprintf(&b, "Message Type: %s\n", k.Description)
		fmt.Fprintf(&b, "Key Fields: %s\n", strings.Join(k.KeyFields, ", "))
		fmt.Fprintf(&b, "Message Data:\n%s\n\n", dumpRecord(msg))
		b.WriteString("Provide a clear, business-friendly response focusing on the specific query.")
	} else {
		summary, err := RenderSummary(s.kb, msg)
		if err != nil {
			return models.GenerationRequest{}, err
		}
		contextLines = append(contextLines, summary)
		b.WriteString("Generate a summary for this ISO 20022 financial message:\n\n")
		fmt.Fprintf(&b, "Message Type: %s\n", k.Description)
		fmt.Fprintf(&b, "Summary: %s\n", summary)
		fmt.Fprintf(&b, "Message Data:\n%s\n\n", dumpRecord(msg))
		b.WriteString("Provide a clear, business-friendly summary.")
	}

	return models.GenerationRequest{
		Strategy:    models.Simple,
		MessageType: msg.Type(),
		Prompt:      b.String(),
		Context:     contextLines,
	}, nil
}

// RenderSummary substitutes the record into the type's summary template. Every
// placeholder must resolve.
func RenderSummary(kb *knowledge.Base, msg *models.ParsedMessage) (string, error) {
	k, ok := kb.For(msg.Type())
	if !ok {
		return "", &models.UnknownMessageTypeError{Type: msg.Type().String()}
	}
	out, missing, ok := knowledge.RenderStrict(k.SummaryTemplate, lookupFor(msg))
	if !ok {
		return "", &models.MissingRequiredFieldError{Type: msg.Type(), Field: missing}
	}
	return out, nil
}
