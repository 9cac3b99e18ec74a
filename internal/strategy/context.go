package strategy

import (
	"fmt"
	"strings"

	"github.com/gadeShivani/iso20022-rag/internal/knowledge"
	"github.com/gadeShivani/iso20022-rag/internal/models"
)

// ContextEnriched lists the type's key facts and compliance checks as bullets. Types
// without an entry get the generic fallback context.
type ContextEnriched struct {
	kb *knowledge.Base
}

func NewContextEnriched(kb *knowledge.Base) *ContextEnriched {
	return &ContextEnriched{kb: kb}
}

func (c *ContextEnriched) Strategy() models.Strategy { return models.Context }

func (c *ContextEnriched) BuildQuery(msg *models.ParsedMessage, query string) (models.GenerationRequest, error) {
	k, ok := c.kb.For(msg.Type())
	if !ok {
		k = &c.kb.Fallback
	}

	keyPoints := renderAll(k.KeyPoints, lookupFor(msg))
	compliance := append([]string(nil), k.Compliance...)

	var b strings.Builder
	if query != "" {
		fmt.Fprintf(&b, "Question about this %s message: %s\n\n", k.Description, query)
		fmt.Fprintf(&b, "Key Information:\n%s\n\n", knowledge.Bullets(keyPoints))
		fmt.Fprintf(&b, "Compliance Checks:\n%s\n\n", knowledge.Bullets(compliance))
		b.WriteString("Please provide a clear, concise response focusing on the question.\n")
		b.WriteString("Keep the language business-friendly and avoid technical jargon.\n")
		b.WriteString("Limit the response to 2-3 sentences unless more detail is specifically requested.")
	} else {
		fmt.Fprintf(&b, "Summarize this %s message:\n\n", k.Description)
		fmt.Fprintf(&b, "Key Information:\n%s\n\n", knowledge.Bullets(keyPoints))
		fmt.Fprintf(&b, "Compliance Checks:\n%s\n\n", knowledge.Bullets(compliance))
		b.WriteString("Please provide a clear, concise summary in 2-3 sentences.\n")
		b.WriteString("Focus on the key business information and impact.\n")
		b.WriteString("Use business-friendly language and avoid technical details unless crucial.")
	}

	return models.GenerationRequest{
		Strategy:    models.Context,
		MessageType: msg.Type(),
		Prompt:      b.String(),
		Context:     append(keyPoints, compliance...),
	}, nil
}
