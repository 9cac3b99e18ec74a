// Package samples ships example ISO 20022 documents for the CLI and tests.
package samples

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"
)

//go:embed data/*.xml
var files embed.FS

const (
	BasicTransfer         = "basic_transfer"
	InternationalTransfer = "international_transfer"
	HighValueTransfer     = "high_value_transfer"
	StatusReport          = "status_report"
	Statement             = "statement"
	PaymentInitiation     = "payment_initiation"
)

// Names lists the available samples in sorted order.
func Names() []string {
	entries, err := files.ReadDir("data")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".xml"))
	}
	sort.Strings(names)
	return names
}

func Get(name string) (string, error) {
	data, err := files.ReadFile(path.Join("data", name+".xml"))
	if err != nil {
		return "", fmt.Errorf("sample %q not found", name)
	}
	return string(data), nil
}

// MustGet is Get for callers that reference one of the constants above.
func MustGet(name string) string {
	s, err := Get(name)
	if err != nil {
		panic(err)
	}
	return s
}
