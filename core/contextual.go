package core

import (
	"regexp"
	"strings"
)

// Contextual detection confidences. Pattern hits are more precise than
// entity recognition, so these sit below 1.0 and lose same-category
// overlaps during merging.
const (
	nameConfidence      = 0.9
	locationConfidence  = 0.7
	ageConfidence       = 0.8
	dobConfidence       = 0.6
	conditionConfidence = 0.85
)

// ageContextWindow is how far around a DATE entity to look for age
// indicators, in characters.
const ageContextWindow = 10

// ageIndicators mark a date entity as an age mention rather than a
// birthdate.
var ageIndicators = []string{"years old", "year old", "age", "aged", "y/o", "yo"}

// conditionPatterns is the fixed health-condition lexicon: common condition
// keywords plus diagnosis phrase templates. The scan runs regardless of
// recognizer availability.
var conditionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(diabetes|diabetic)\b`),
	regexp.MustCompile(`(?i)\b(cancer|carcinoma|tumor|malignancy)\b`),
	regexp.MustCompile(`(?i)\b(hypertension|high blood pressure)\b`),
	regexp.MustCompile(`(?i)\b(heart disease|cardiac|cardiovascular)\b`),
	regexp.MustCompile(`(?i)\b(asthma|copd|respiratory)\b`),
	regexp.MustCompile(`(?i)\b(depression|anxiety|mental health)\b`),
	regexp.MustCompile(`(?i)\b(hiv|aids)\b`),
	regexp.MustCompile(`(?i)\b(hepatitis)\b`),
	regexp.MustCompile(`(?i)\b(stroke|cerebrovascular)\b`),
	regexp.MustCompile(`(?i)\b(arthritis|rheumatoid)\b`),
	regexp.MustCompile(`(?i)\bdiagnosed with\s+(\w+)\b`),
	regexp.MustCompile(`(?i)\bsuffering from\s+(\w+)\b`),
	regexp.MustCompile(`(?i)\bcondition:\s*(\w+)\b`),
	regexp.MustCompile(`(?i)\bdiagnosis:\s*(\w+)\b`),
}

// ContextualDetector finds PII that needs semantic context rather than a
// fixed shape: person names, locations, ages and birthdates from entity
// recognition, plus health conditions from the lexicon. When the
// recognizer is unavailable the detector degrades to the lexicon scan
// alone instead of failing the pipeline.
type ContextualDetector struct {
	recognizer EntityRecognizer
}

// NewContextualDetector builds a detector around the given recognizer. A
// nil recognizer degrades to NoopRecognizer.
func NewContextualDetector(recognizer EntityRecognizer) *ContextualDetector {
	if recognizer == nil {
		recognizer = NoopRecognizer{}
	}
	return &ContextualDetector{recognizer: recognizer}
}

// RecognizerName reports which recognizer backs this detector, for
// diagnostics and audit logging.
func (d *ContextualDetector) RecognizerName() string {
	return d.recognizer.Name()
}

// Degraded reports whether entity recognition is unavailable and only the
// health-condition lexicon is active.
func (d *ContextualDetector) Degraded() bool {
	return d.recognizer.Name() == "none"
}

// Detect scans text for contextual PII. Recognizer errors degrade to the
// lexicon scan; they never propagate. Empty input yields an empty result.
func (d *ContextualDetector) Detect(text string) []Finding {
	if text == "" {
		return nil
	}

	var findings []Finding

	entities, err := d.recognizer.Entities(text)
	if err == nil {
		for _, ent := range entities {
			if f, ok := d.classifyEntity(text, ent); ok {
				findings = append(findings, f)
			}
		}
	}

	findings = append(findings, detectHealthConditions(text)...)

	return findings
}

// classifyEntity maps one recognized entity to a finding.
func (d *ContextualDetector) classifyEntity(text string, ent Entity) (Finding, bool) {
	switch ent.Label {
	case LabelPerson:
		return Finding{
			Category:      CategoryName,
			RedactedValue: redactName(ent.Text),
			Offset:        ent.Start,
			Confidence:    nameConfidence,
			Method:        MethodContextual,
			Length:        len(ent.Text),
		}, true

	case LabelGPE:
		return Finding{
			Category:      CategoryAddress,
			RedactedValue: "Location: ***",
			Offset:        ent.Start,
			Confidence:    locationConfidence,
			Method:        MethodContextual,
			Length:        len(ent.Text),
		}, true

	case LabelDate:
		if isAgeMention(ent.Text, dateContext(text, ent)) {
			return Finding{
				Category:      CategoryAge,
				RedactedValue: "** years old",
				Offset:        ent.Start,
				Confidence:    ageConfidence,
				Method:        MethodContextual,
				Length:        len(ent.Text),
			}, true
		}
		return Finding{
			Category:      CategoryDOB,
			RedactedValue: "**/**/****",
			Offset:        ent.Start,
			Confidence:    dobConfidence,
			Method:        MethodContextual,
			Length:        len(ent.Text),
		}, true
	}

	return Finding{}, false
}

// dateContext returns the text surrounding a date entity, ageContextWindow
// characters to each side.
func dateContext(text string, ent Entity) string {
	start := ent.Start - ageContextWindow
	if start < 0 {
		start = 0
	}
	end := ent.Start + len(ent.Text) + ageContextWindow
	if end > len(text) {
		end = len(text)
	}
	return text[start:end]
}

// isAgeMention decides whether a date entity is an age: purely numeric
// entity text, or an age indicator in the surrounding context.
func isAgeMention(entityText, context string) bool {
	trimmed := strings.TrimSpace(entityText)
	if trimmed != "" && isAllDigits(trimmed) {
		return true
	}

	lower := strings.ToLower(context)
	for _, indicator := range ageIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

func isAllDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// detectHealthConditions runs the fixed lexicon over the text. Values are
// never preserved, only the literal placeholder.
func detectHealthConditions(text string) []Finding {
	var findings []Finding

	for _, re := range conditionPatterns {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			findings = append(findings, Finding{
				Category:      CategoryHealthCondition,
				RedactedValue: "[HEALTH CONDITION]",
				Offset:        loc[0],
				Confidence:    conditionConfidence,
				Method:        MethodContextual,
				Length:        loc[1] - loc[0],
			})
		}
	}

	return findings
}

// redactName keeps the first character of each name token: "J*** D***".
func redactName(name string) string {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "***"
	}

	redacted := make([]string, 0, len(parts))
	for _, part := range parts {
		if len(part) > 1 {
			redacted = append(redacted, string([]rune(part)[0])+"***")
		} else {
			redacted = append(redacted, "***")
		}
	}
	return strings.Join(redacted, " ")
}
