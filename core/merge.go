package core

import "sort"

// bucketWindow groups findings of the same category within this many
// characters as one real-world entity.
const bucketWindow = 5

type bucketKey struct {
	category Category
	bucket   int
}

// MergeFindings deduplicates the union of pattern and contextual findings
// into one ordered list. Findings are ranked by confidence (stable, so a
// tie keeps input order), bucketed by (category, offset window), and the
// highest-confidence finding wins each bucket. A precise pattern match
// therefore beats a coarser contextual hit on the same span. The result is
// sorted ascending by offset and the operation is idempotent.
func MergeFindings(findings []Finding) []Finding {
	if len(findings) == 0 {
		return nil
	}

	ranked := make([]Finding, len(findings))
	copy(ranked, findings)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	seen := make(map[bucketKey]bool, len(ranked))
	merged := ranked[:0]
	for _, f := range ranked {
		key := bucketKey{category: f.Category, bucket: f.Offset / bucketWindow}
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, f)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Offset != merged[j].Offset {
			return merged[i].Offset < merged[j].Offset
		}
		return merged[i].Category < merged[j].Category
	})

	return merged
}
