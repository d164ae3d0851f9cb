package core

import (
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"
)

// Date shapes the prose model does not tag. Month-name dates, numeric
// dates, and explicit age mentions are recovered here so DATE entities
// reach the contextual detector.
var (
	numericDateRe = regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`)
	monthDateRe   = regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},?\s+\d{4}\b`)
	ageMentionRe  = regexp.MustCompile(`(?i)\b(\d{1,3})\s*(?:years?\s+old|y/o|yo\b)`)
)

// ProseRecognizer implements EntityRecognizer on top of the prose NLP
// library. Prose tags PERSON and GPE entities; DATE spans are supplemented
// with fixed date patterns since the bundled model does not emit them.
type ProseRecognizer struct{}

// NewProseRecognizer returns the prose-backed recognizer.
func NewProseRecognizer() *ProseRecognizer {
	return &ProseRecognizer{}
}

// Name implements EntityRecognizer.
func (r *ProseRecognizer) Name() string { return "prose" }

// Entities implements EntityRecognizer.
func (r *ProseRecognizer) Entities(text string) ([]Entity, error) {
	if text == "" {
		return nil, nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}

	var entities []Entity

	// Prose reports surface forms without offsets; recover positions by
	// searching forward from the previous hit so repeated names map to
	// distinct spans.
	searchFrom := 0
	for _, ent := range doc.Entities() {
		if ent.Label != LabelPerson && ent.Label != LabelGPE {
			continue
		}
		idx := strings.Index(text[searchFrom:], ent.Text)
		if idx < 0 {
			// Try from the top in case entity order does not follow
			// document order.
			idx = strings.Index(text, ent.Text)
			if idx < 0 {
				continue
			}
			entities = append(entities, Entity{Text: ent.Text, Label: ent.Label, Start: idx})
			continue
		}
		start := searchFrom + idx
		entities = append(entities, Entity{Text: ent.Text, Label: ent.Label, Start: start})
		searchFrom = start + len(ent.Text)
	}

	entities = append(entities, dateEntities(text)...)

	return entities, nil
}

// dateEntities finds DATE spans via fixed patterns. Age mentions report
// just the number so downstream context classification sees a purely
// numeric entity.
func dateEntities(text string) []Entity {
	var entities []Entity

	for _, loc := range numericDateRe.FindAllStringIndex(text, -1) {
		entities = append(entities, Entity{Text: text[loc[0]:loc[1]], Label: LabelDate, Start: loc[0]})
	}
	for _, loc := range monthDateRe.FindAllStringIndex(text, -1) {
		entities = append(entities, Entity{Text: text[loc[0]:loc[1]], Label: LabelDate, Start: loc[0]})
	}
	for _, sub := range ageMentionRe.FindAllStringSubmatchIndex(text, -1) {
		if sub[2] >= 0 && sub[3] >= 0 {
			entities = append(entities, Entity{Text: text[sub[2]:sub[3]], Label: LabelDate, Start: sub[2]})
		}
	}

	return entities
}
