package bot

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/gadeShivani/iso20022-rag/internal/models"
	"github.com/gadeShivani/iso20022-rag/internal/pipeline"
	"github.com/gadeShivani/iso20022-rag/internal/session"
)

// Telegram rejects messages over 4096 characters; the summary is cut well below that
// so the table always fits.
const maxSummaryRunes = 3000

var markdownV2 = strings.NewReplacer(
	`\`, `\\`, "_", `\_`, "*", `\*`, "[", `\[`, "]", `\]`, "(", `\(`, ")", `\)`,
	"~", `\~`, "`", "\\`", ">", `\>`, "#", `\#`, "+", `\+`, "-", `\-`, "=", `\=`,
	"|", `\|`, "{", `\{`, "}", `\}`, ".", `\.`, "!", `\!`,
)

var preformatted = strings.NewReplacer(`\`, `\\`, "`", "\\`")

// escapeMarkdown escapes text for MarkdownV2 outside code blocks.
func escapeMarkdown(text string) string {
	return markdownV2.Replace(text)
}

func looksLikeXML(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "<")
}

func isXMLDocument(fileName, mimeType string) bool {
	if strings.EqualFold(path.Ext(fileName), ".xml") {
		return true
	}
	return mimeType == "application/xml" || mimeType == "text/xml"
}

func isInputError(err error) bool {
	return errors.Is(err, models.ErrMalformedXML) ||
		errors.Is(err, models.ErrUnrecognizedSchema) ||
		errors.Is(err, models.ErrMissingRequiredField)
}

// userError turns a pipeline error into something a chat user can act on.
func userError(err error) string {
	var missing *models.MissingRequiredFieldError
	switch {
	case errors.Is(err, session.ErrNoDocument):
		return "I don't have a message for this chat yet. Send one first, then use /ask."
	case errors.Is(err, models.ErrMalformedXML):
		return "That doesn't look like well-formed XML."
	case errors.Is(err, models.ErrUnrecognizedSchema):
		return "I couldn't recognise that message. Use /types to see what I support."
	case errors.As(err, &missing):
		return fmt.Sprintf("The message is missing the required field %q.", missing.Field)
	case errors.Is(err, models.ErrAllStrategiesFailed):
		return "The language model did not answer. Please try again later."
	default:
		return "Sorry, something went wrong while analysing your message."
	}
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

// formatReport renders the winning summary followed by a per-strategy table.
func formatReport(report *pipeline.Report) string {
	sel := report.Selection
	var sb strings.Builder

	fmt.Fprintf(&sb, "*%s* %s\n", escapeMarkdown(sel.MessageType.String()), escapeMarkdown(sel.MessageType.MessageName()))
	if id := report.Message.MessageID(); id != "" {
		fmt.Fprintf(&sb, "*Message ID:* %s\n", escapeMarkdown(id))
	}
	if report.Query != "" {
		fmt.Fprintf(&sb, "*Question:* _%s_\n", escapeMarkdown(report.Query))
	}
	fmt.Fprintf(&sb, "\n%s\n\n", escapeMarkdown(truncate(sel.Response, maxSummaryRunes)))

	intent := sel.Intent
	if intent == "" {
		intent = "none"
	}
	fmt.Fprintf(&sb, "*Winner:* %s  *Intent:* %s\n", escapeMarkdown(sel.Winner.String()), escapeMarkdown(intent))

	sb.WriteString("```\n")
	sb.WriteString(preformatted.Replace(strategyTable(report)))
	sb.WriteString("```")
	return sb.String()
}

func strategyTable(report *pipeline.Report) string {
	sel := report.Selection
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-9s %6s %6s %6s\n", "strategy", "conf", "weight", "score")
	for _, s := range models.Strategies() {
		marker := " "
		if s == sel.Winner {
			marker = "*"
		}
		if reason, failed := sel.Failures[s]; failed {
			fmt.Fprintf(&sb, "%-8s%s %s\n", s, marker, truncate(reason, 24))
			continue
		}
		fmt.Fprintf(&sb, "%-8s%s %6.2f %6.2f %6.3f\n", s, marker,
			sel.Confidences.Get(s), sel.FinalWeights.Get(s), sel.WeightedScores.Get(s))
	}
	return sb.String()
}

func formatTypes() string {
	var sb strings.Builder
	sb.WriteString("*Supported message types:*\n")
	for _, t := range models.MessageTypes() {
		fmt.Fprintf(&sb, "• `%s` %s\n", t.String(), escapeMarkdown(t.MessageName()))
	}
	return sb.String()
}
