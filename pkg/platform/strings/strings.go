// Package strings provides string normalization helpers shared by the
// process packages.
package strings

import (
	"strings"
	"unicode"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order is preserved and a nil
// result is returned when nothing survives.
//
//	DedupeAndTrim([]string{" node-1 ", "node-2", "node-1", ""})
//	// []string{"node-1", "node-2"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(values))
	var result []string
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}

// FieldKey turns a human label into a machine field name: lowercased, with
// every run of whitespace replaced by a single underscore. Other characters
// are kept as-is.
//
//	FieldKey("Passport  Number") // "passport_number"
func FieldKey(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	inSpace := false
	for _, r := range label {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
