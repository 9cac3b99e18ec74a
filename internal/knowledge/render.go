package knowledge

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// NotAvailable is substituted for absent fields in lenient rendering.
const NotAvailable = "N/A"

// Lookup resolves a placeholder name to a value.
type Lookup func(name string) (string, bool)

// Placeholders lists the distinct {name} placeholders of tmpl in order of appearance.
func Placeholders(tmpl string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderPattern.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Render substitutes every placeholder, using NotAvailable for unknown names.
func Render(tmpl string, lookup Lookup) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		if v, ok := lookup(m[1 : len(m)-1]); ok {
			return v
		}
		return NotAvailable
	})
}

// RenderStrict substitutes every placeholder and reports the first one lookup cannot
// resolve.
func RenderStrict(tmpl string, lookup Lookup) (string, string, bool) {
	missing := ""
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := lookup(name)
		if !ok && missing == "" {
			missing = name
		}
		return v
	})
	if missing != "" {
		return "", missing, false
	}
	return out, "", true
}

// MapLookup adapts a plain map, typically a record's fields.
func MapLookup(fields map[string]string) Lookup {
	return func(name string) (string, bool) {
		v, ok := fields[name]
		return v, ok
	}
}

// Bullets renders items as a "• " list, one per line.
func Bullets(items []string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("• ")
		b.WriteString(item)
	}
	return b.String()
}
