package strategy

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gadeShivani/iso20022-rag/internal/knowledge"
	"github.com/gadeShivani/iso20022-rag/internal/models"
)

// TopChunks is how many ranked chunks reach the prompt.
const TopChunks = 3

var chunkLabels = [TopChunks]string{"Primary", "Secondary", "Additional"}

// Chunk is one candidate piece of context with its relevance in [0,1].
type Chunk struct {
	Content   string  `json:"content"`
	Relevance float64 `json:"relevance"`
	Kind      string  `json:"kind"`
}

// Reranker ranks labelled context chunks and keeps the most relevant ones.
type Reranker struct {
	kb *knowledge.Base
}

func NewReranker(kb *knowledge.Base) *Reranker {
	return &Reranker{kb: kb}
}

func (r *Reranker) Strategy() models.Strategy { return models.Reranker }

func (r *Reranker) BuildQuery(msg *models.ParsedMessage, query string) (models.GenerationRequest, error) {
	ranked := RankChunks(r.kb, msg)
	if len(ranked) > TopChunks {
		ranked = ranked[:TopChunks]
	}

	var ctx strings.Builder
	contents := make([]string, len(ranked))
	for i, c := range ranked {
		contents[i] = c.Content
		fmt.Fprintf(&ctx, "%s: %s\n", chunkLabels[i], c.Content)
	}

	var b strings.Builder
	if query != "" {
		fmt.Fprintf(&b, "Analyze this ISO 20022 financial message to answer: %s\n\n", query)
		fmt.Fprintf(&b, "Most relevant information:\n%s\n", ctx.String())
		fmt.Fprintf(&b, "Message Type: %s\n\n", msg.Type())
		b.WriteString("Provide a clear, business-friendly response focusing on the specific query.")
	} else {
		b.WriteString("Generate a summary using the most relevant information:\n\n")
		fmt.Fprintf(&b, "%s\n", ctx.String())
		fmt.Fprintf(&b, "Message Type: %s\n\n", msg.Type())
		b.WriteString("Create a concise business summary focusing on the key details.\n")
		b.WriteString("Keep the response clear and direct.")
	}

	return models.GenerationRequest{
		Strategy:    models.Reranker,
		MessageType: msg.Type(),
		Prompt:      b.String(),
		Context:     contents,
	}, nil
}

// RankChunks builds every candidate chunk for msg and sorts them by descending
// relevance. Equal relevance keeps insertion order: common chunks, then type chunks,
// then one chunk per entry.
func RankChunks(kb *knowledge.Base, msg *models.ParsedMessage) []Chunk {
	lookup := lookupFor(msg)

	var chunks []Chunk
	add := func(c knowledge.Chunk, lookup knowledge.Lookup, relevance float64) {
		chunks = append(chunks, Chunk{
			Content:   knowledge.Render(c.Template, lookup),
			Relevance: relevance,
			Kind:      c.Kind,
		})
	}

	for _, c := range kb.CommonChunks {
		add(c, lookup, c.Relevance)
	}
	if k, ok := kb.For(msg.Type()); ok {
		for _, c := range k.Chunks {
			add(c, lookup, c.Relevance)
		}
		if ec := k.EntryChunk; ec != nil {
			for i, entry := range msg.Entries() {
				index := strconv.Itoa(i + 1)
				entryLookup := func(name string) (string, bool) {
					if name == knowledge.Index {
						return index, true
					}
					return entry.Get(name)
				}
				add(ec.Chunk, entryLookup, max(0, ec.Relevance-ec.Decrement*float64(i)))
			}
		}
	}

	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Relevance > chunks[j].Relevance
	})
	return chunks
}
