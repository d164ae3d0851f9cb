package core

import (
	"sort"
	"strings"
)

// ApplyRedactions rewrites text with every finding's span replaced by its
// redacted value, producing a copy safe for display. Findings are applied
// in offset order; a finding overlapping an already-redacted span, or one
// without a known span length, is skipped rather than corrupting the
// output.
func ApplyRedactions(text string, findings []Finding) string {
	if len(findings) == 0 {
		return text
	}

	ordered := make([]Finding, len(findings))
	copy(ordered, findings)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Offset < ordered[j].Offset
	})

	var builder strings.Builder
	last := 0

	for _, f := range ordered {
		if f.Length <= 0 || f.Offset < last || f.Offset+f.Length > len(text) {
			continue
		}
		builder.WriteString(text[last:f.Offset])
		builder.WriteString(f.RedactedValue)
		last = f.Offset + f.Length
	}

	if last < len(text) {
		builder.WriteString(text[last:])
	}

	return builder.String()
}
