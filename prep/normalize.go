// Package prep validates and normalizes documents before analysis.
package prep

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phiguard/phiguard/config"
)

// Validation error codes returned to API clients.
const (
	CodeDocumentTooShort = "DOCUMENT_TOO_SHORT"
	CodeDocumentTooLarge = "DOCUMENT_TOO_LARGE"
	CodePDFEmpty         = "PDF_EMPTY"
	CodePDFInvalid       = "PDF_INVALID"
	CodePDFNoText        = "PDF_NO_TEXT"
)

// ValidationError describes why a document was rejected.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	spaceRunRe  = regexp.MustCompile(`[ \t]+`)
	blankRunsRe = regexp.MustCompile(`\n{3,}`)
)

// Normalizer enforces document size limits and cleans up whitespace so
// detector offsets are stable across input sources.
type Normalizer struct {
	minLength int
	maxLength int
}

// NewNormalizer builds a normalizer from the configured limits.
func NewNormalizer(cfg config.LimitsConfig) *Normalizer {
	return &Normalizer{
		minLength: cfg.MinDocumentChars,
		maxLength: cfg.MaxDocumentChars,
	}
}

// Normalize validates the document and returns a cleaned copy. Line
// endings become LF, runs of spaces and tabs collapse to one space, and
// runs of blank lines collapse to one.
func (n *Normalizer) Normalize(text string) (string, error) {
	trimmed := strings.TrimSpace(text)

	if len(trimmed) < n.minLength {
		return "", &ValidationError{
			Code:    CodeDocumentTooShort,
			Message: fmt.Sprintf("document must be at least %d characters", n.minLength),
		}
	}
	if len(trimmed) > n.maxLength {
		return "", &ValidationError{
			Code:    CodeDocumentTooLarge,
			Message: fmt.Sprintf("document exceeds the %d character limit", n.maxLength),
		}
	}

	normalized := strings.ReplaceAll(trimmed, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := strings.Split(normalized, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(spaceRunRe.ReplaceAllString(line, " "), " ")
	}
	normalized = strings.Join(lines, "\n")
	normalized = blankRunsRe.ReplaceAllString(normalized, "\n\n")

	return normalized, nil
}
