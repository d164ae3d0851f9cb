package core

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phiguard/phiguard/config"
)

// PatternInfo stores one detection pattern and how to redact its matches.
type PatternInfo struct {
	Name       string
	Regex      *regexp.Regexp
	Category   Category
	Confidence float64

	// Redact maps the matched text to its redacted display value.
	Redact func(match string) string
}

// builtinPatterns is the fixed detection table for structured identifiers.
// Kept as an ordered slice so output is deterministic across runs.
var builtinPatterns = []PatternInfo{
	{
		Name:       "email",
		Regex:      regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		Category:   CategoryEmail,
		Confidence: 1.0,
		Redact:     redactEmail,
	},
	{
		Name:       "phone",
		Regex:      regexp.MustCompile(`\b(\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		Category:   CategoryPhone,
		Confidence: 1.0,
		Redact:     redactPhone,
	},
	{
		Name:       "ssn",
		Regex:      regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		Category:   CategorySSN,
		Confidence: 1.0,
		Redact:     func(string) string { return "***-**-****" },
	},
	{
		Name:       "medical_record_number",
		Regex:      regexp.MustCompile(`\b[Mm][Rr][Nn][:\s]*\d{6,10}\b`),
		Category:   CategoryMRN,
		Confidence: 1.0,
		Redact:     func(string) string { return "MRN: ******" },
	},
	{
		Name:       "insurance_id",
		Regex:      regexp.MustCompile(`\b[A-Z]{2,3}\d{8,12}\b`),
		Category:   CategoryInsuranceID,
		Confidence: 1.0,
		Redact:     redactInsuranceID,
	},
}

// zipPattern is handled separately: a bare 5-digit (or 5+4) number only
// counts as an address fragment when its preceding context suggests one.
var zipPattern = regexp.MustCompile(`\b\d{5}(-\d{4})?\b`)

// zipContextTokens mark a preceding window as address-like.
var zipContextTokens = []string{"zip", "state", ","}

const (
	zipContextWindow = 20
	zipConfidence    = 0.8
)

// PatternDetector finds structured identifiers via fixed regex patterns. It
// has no external dependencies and never fails on well-formed input.
type PatternDetector struct {
	patterns []PatternInfo
}

// NewPatternDetector builds a detector from the built-in table plus any
// custom rules from configuration. Invalid custom patterns are a startup
// error, not a scan-time one.
func NewPatternDetector(cfg *config.DetectorConfig) (*PatternDetector, error) {
	patterns := make([]PatternInfo, len(builtinPatterns))
	copy(patterns, builtinPatterns)

	if cfg != nil {
		for _, rule := range cfg.CustomPatterns {
			re, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("invalid custom pattern %q: %w", rule.Name, err)
			}
			confidence := rule.Confidence
			if confidence <= 0 || confidence > 1 {
				confidence = 1.0
			}
			category := Category(rule.Category)
			if category == "" {
				category = CategoryAddress
			}
			name := rule.Name
			patterns = append(patterns, PatternInfo{
				Name:       name,
				Regex:      re,
				Category:   category,
				Confidence: confidence,
				Redact:     func(string) string { return "[" + strings.ToUpper(name) + "]" },
			})
		}
	}

	return &PatternDetector{patterns: patterns}, nil
}

// Detect scans text and returns pattern findings. Overlaps across
// categories are all retained; same-category overlap resolution belongs to
// the merger. Empty input yields an empty result.
func (d *PatternDetector) Detect(text string) []Finding {
	if text == "" {
		return nil
	}

	var findings []Finding

	for _, info := range d.patterns {
		for _, loc := range info.Regex.FindAllStringIndex(text, -1) {
			match := text[loc[0]:loc[1]]
			findings = append(findings, Finding{
				Category:      info.Category,
				RedactedValue: info.Redact(match),
				Offset:        loc[0],
				Confidence:    info.Confidence,
				Method:        MethodPattern,
				Length:        loc[1] - loc[0],
			})
		}
	}

	findings = append(findings, d.detectZIPCodes(text)...)

	return findings
}

// detectZIPCodes flags 5-digit numbers as address fragments only when the
// preceding window contains an address indicator. Bare numbers (quantities,
// counts) are ignored.
func (d *PatternDetector) detectZIPCodes(text string) []Finding {
	var findings []Finding

	for _, loc := range zipPattern.FindAllStringIndex(text, -1) {
		start := loc[0]
		contextStart := start - zipContextWindow
		if contextStart < 0 {
			contextStart = 0
		}
		context := strings.ToLower(text[contextStart:start])

		addressLike := false
		for _, token := range zipContextTokens {
			if strings.Contains(context, token) {
				addressLike = true
				break
			}
		}
		if !addressLike {
			continue
		}

		findings = append(findings, Finding{
			Category:      CategoryAddress,
			RedactedValue: "ZIP: *****",
			Offset:        start,
			Confidence:    zipConfidence,
			Method:        MethodPattern,
			Length:        loc[1] - loc[0],
		})
	}

	return findings
}

// redactEmail keeps only the final domain label: "***@***.com".
func redactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) == 2 {
		domainParts := strings.Split(parts[1], ".")
		if len(domainParts) >= 2 {
			return "***@***." + domainParts[len(domainParts)-1]
		}
	}
	return "***@***.***"
}

var nonDigits = regexp.MustCompile(`\D`)

// redactPhone keeps the last four digits: "***-***-1234".
func redactPhone(phone string) string {
	digits := nonDigits.ReplaceAllString(phone, "")
	if len(digits) >= 4 {
		return "***-***-" + digits[len(digits)-4:]
	}
	return "***-***-****"
}

// redactInsuranceID keeps the leading plan prefix: "AB**********".
func redactInsuranceID(id string) string {
	if len(id) >= 2 {
		return id[:2] + strings.Repeat("*", len(id)-2)
	}
	return "***"
}
