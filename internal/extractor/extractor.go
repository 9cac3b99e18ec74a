// Package extractor turns a classified ISO 20022 document into a flat field record.
package extractor

import (
	"github.com/gadeShivani/iso20022-rag/internal/classifier"
	"github.com/gadeShivani/iso20022-rag/internal/models"
)

// Extract pulls the schema-specific fields of t out of root. Absent optional fields are
// left out of the record; an absent or blank required field is an error.
func Extract(root *classifier.Element, t models.MessageType) (*models.ParsedMessage, error) {
	schema, ok := schemas[t]
	if !ok {
		return nil, &models.UnknownMessageTypeError{Type: t.String()}
	}

	fields := make(models.Fields)
	if err := apply(root, headerRules, fields, t, 0); err != nil {
		return nil, err
	}
	if err := apply(root, schema.Rules, fields, t, 0); err != nil {
		return nil, err
	}

	var entries []models.Fields
	if schema.EntryPath != "" {
		for i, el := range root.FindAll(schema.EntryPath) {
			entry := make(models.Fields)
			if err := apply(el, schema.EntryRules, entry, t, i+1); err != nil {
				return nil, err
			}
			entries = append(entries, entry)
		}
	}

	return models.NewParsedMessage(t, fields, entries), nil
}

// ExtractXML parses, classifies and extracts in one call.
func ExtractXML(xmlText string) (*models.ParsedMessage, error) {
	root, t, err := classifier.ParseDocument(xmlText)
	if err != nil {
		return nil, err
	}
	return Extract(root, t)
}

func apply(scope *classifier.Element, rules []Rule, into models.Fields, t models.MessageType, entry int) error {
	for _, r := range rules {
		value, found := lookup(scope, r)
		if !found {
			if r.Required {
				return &models.MissingRequiredFieldError{Type: t, Field: r.Field, Entry: entry}
			}
			continue
		}
		into[r.Field] = value
	}
	return nil
}

func lookup(scope *classifier.Element, r Rule) (string, bool) {
	for _, p := range r.Paths {
		el := scope.Find(p)
		if el == nil {
			continue
		}
		var value string
		if r.Attr != "" {
			value, _ = el.Attr(r.Attr)
		} else {
			value = el.Value()
		}
		if value != "" {
			return value, true
		}
	}
	return "", false
}
