// Package strategy turns an extracted record into generation requests. Each responder
// is a pure function of the record and the knowledge base; none of them call a model.
package strategy

import (
	"fmt"
	"strings"

	"github.com/gadeShivani/iso20022-rag/internal/knowledge"
	"github.com/gadeShivani/iso20022-rag/internal/models"
)

// Responder builds the prompt for one strategy.
type Responder interface {
	Strategy() models.Strategy
	BuildQuery(msg *models.ParsedMessage, query string) (models.GenerationRequest, error)
}

// New returns the responder for s.
func New(s models.Strategy, kb *knowledge.Base) (Responder, error) {
	switch s {
	case models.Simple:
		return NewSimple(kb), nil
	case models.Context:
		return NewContextEnriched(kb), nil
	case models.Reranker:
		return NewReranker(kb), nil
	default:
		return nil, fmt.Errorf("no responder for %s", s)
	}
}

// All returns one responder per strategy, in priority order.
func All(kb *knowledge.Base) []Responder {
	return []Responder{NewSimple(kb), NewContextEnriched(kb), NewReranker(kb)}
}

// BuildAll runs every responder over msg. The first failure aborts.
func BuildAll(kb *knowledge.Base, msg *models.ParsedMessage, query string) ([]models.GenerationRequest, error) {
	responders := All(kb)
	requests := make([]models.GenerationRequest, 0, len(responders))
	for _, r := range responders {
		req, err := r.BuildQuery(msg, query)
		if err != nil {
			return nil, fmt.Errorf("%s strategy: %w", r.Strategy(), err)
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// dumpRecord renders the record as "name: value" lines in key order, followed by one
// line per repeated entry.
func dumpRecord(msg *models.ParsedMessage) string {
	fields := msg.Fields()
	var b strings.Builder
	for _, k := range fields.Keys() {
		fmt.Fprintf(&b, "%s: %s\n", k, fields[k])
	}
	for i, entry := range msg.Entries() {
		keys := entry.Keys()
		pairs := make([]string, len(keys))
		for j, k := range keys {
			pairs[j] = k + "=" + entry[k]
		}
		fmt.Fprintf(&b, "entry %d: %s\n", i+1, strings.Join(pairs, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func lookupFor(msg *models.ParsedMessage) knowledge.Lookup {
	return msg.Get
}

func renderAll(templates []string, lookup knowledge.Lookup) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = knowledge.Render(t, lookup)
	}
	return out
}
