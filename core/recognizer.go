package core

// Entity is one span reported by an entity recognizer.
type Entity struct {
	// Text is the entity surface form as it appears in the document.
	Text string

	// Label is the entity class: "PERSON", "GPE", or "DATE".
	Label string

	// Start is the character offset of the entity in the document.
	Start int
}

// Entity labels the contextual detector understands.
const (
	LabelPerson = "PERSON"
	LabelGPE    = "GPE"
	LabelDate   = "DATE"
)

// EntityRecognizer is the injected named-entity recognition capability.
// Implementations are selected at startup; a missing capability is
// represented by NoopRecognizer, not by nil checks scattered through the
// pipeline.
type EntityRecognizer interface {
	// Entities returns all recognized entity spans in text.
	Entities(text string) ([]Entity, error)

	// Name identifies the implementation for logs and diagnostics.
	Name() string
}

// NoopRecognizer is the null recognizer used when entity recognition is
// disabled or unavailable. It always returns an empty entity list.
type NoopRecognizer struct{}

// Entities implements EntityRecognizer.
func (NoopRecognizer) Entities(string) ([]Entity, error) { return nil, nil }

// Name implements EntityRecognizer.
func (NoopRecognizer) Name() string { return "none" }
