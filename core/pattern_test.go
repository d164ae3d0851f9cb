package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phiguard/phiguard/config"
)

func newTestPatternDetector(t *testing.T) *PatternDetector {
	t.Helper()
	d, err := NewPatternDetector(nil)
	require.NoError(t, err)
	return d
}

func findByCategory(findings []Finding, category Category) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

func TestPatternDetectorEmail(t *testing.T) {
	d := newTestPatternDetector(t)
	text := "Contact john.doe@example.com for details"

	findings := findByCategory(d.Detect(text), CategoryEmail)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, "***@***.com", f.RedactedValue)
	assert.Equal(t, strings.Index(text, "john"), f.Offset)
	assert.Equal(t, len("john.doe@example.com"), f.Length)
	assert.Equal(t, 1.0, f.Confidence)
	assert.Equal(t, MethodPattern, f.Method)
}

func TestPatternDetectorPhoneFormats(t *testing.T) {
	d := newTestPatternDetector(t)

	for _, text := range []string{
		"Call 555-123-4567 today",
		"Call (555) 123-4567 today",
		"Call 555.123.4567 today",
		"Call +1 555 123 4567 today",
	} {
		findings := findByCategory(d.Detect(text), CategoryPhone)
		require.NotEmpty(t, findings, "no phone finding in %q", text)
		assert.Equal(t, "***-***-4567", findings[0].RedactedValue, text)
	}
}

func TestPatternDetectorSSN(t *testing.T) {
	d := newTestPatternDetector(t)

	findings := findByCategory(d.Detect("SSN 123-45-6789 on file"), CategorySSN)
	require.Len(t, findings, 1)
	assert.Equal(t, "***-**-****", findings[0].RedactedValue)
}

func TestPatternDetectorMRN(t *testing.T) {
	d := newTestPatternDetector(t)

	for _, text := range []string{
		"MRN: 12345678",
		"mrn 12345678",
		"MRN:98765432",
	} {
		findings := findByCategory(d.Detect(text), CategoryMRN)
		require.Len(t, findings, 1, text)
		assert.Equal(t, "MRN: ******", findings[0].RedactedValue)
	}
}

func TestPatternDetectorInsuranceID(t *testing.T) {
	d := newTestPatternDetector(t)

	findings := findByCategory(d.Detect("Member BC123456789 enrolled"), CategoryInsuranceID)
	require.Len(t, findings, 1)
	assert.Equal(t, "BC*********", findings[0].RedactedValue)
}

// A bare 5-digit number is only an address fragment when something in the
// preceding 20 characters suggests one.
func TestPatternDetectorZIPRequiresContext(t *testing.T) {
	d := newTestPatternDetector(t)

	assert.Empty(t, findByCategory(d.Detect("The order contains 90210 units"), CategoryAddress))

	withContext := d.Detect("Springfield, IL 62704 is the address")
	zips := findByCategory(withContext, CategoryAddress)
	require.Len(t, zips, 1)
	assert.Equal(t, "ZIP: *****", zips[0].RedactedValue)
	assert.Equal(t, 0.8, zips[0].Confidence)

	zipKeyword := findByCategory(d.Detect("zip 62704"), CategoryAddress)
	assert.Len(t, zipKeyword, 1)
}

func TestPatternDetectorEmptyInput(t *testing.T) {
	d := newTestPatternDetector(t)
	assert.Empty(t, d.Detect(""))
}

func TestPatternDetectorMultipleMatches(t *testing.T) {
	d := newTestPatternDetector(t)
	text := "a@b.com then c@d.org"

	findings := findByCategory(d.Detect(text), CategoryEmail)
	require.Len(t, findings, 2)
	assert.Equal(t, "***@***.com", findings[0].RedactedValue)
	assert.Equal(t, "***@***.org", findings[1].RedactedValue)
}

func TestPatternDetectorCustomPattern(t *testing.T) {
	cfg := &config.DetectorConfig{
		CustomPatterns: []config.PatternRule{
			{Name: "case_number", Pattern: `\bCASE-\d{6}\b`, Category: "medical_record_number", Confidence: 0.95},
		},
	}
	d, err := NewPatternDetector(cfg)
	require.NoError(t, err)

	findings := findByCategory(d.Detect("Ref CASE-123456"), CategoryMRN)
	require.Len(t, findings, 1)
	assert.Equal(t, "[CASE_NUMBER]", findings[0].RedactedValue)
	assert.Equal(t, 0.95, findings[0].Confidence)
}

func TestPatternDetectorInvalidCustomPattern(t *testing.T) {
	cfg := &config.DetectorConfig{
		CustomPatterns: []config.PatternRule{
			{Name: "broken", Pattern: `[unclosed`},
		},
	}
	_, err := NewPatternDetector(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
