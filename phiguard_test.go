package phiguard

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phiguard/phiguard/config"
	"github.com/phiguard/phiguard/core"
	"github.com/phiguard/phiguard/llm"
	"github.com/phiguard/phiguard/prep"
)

// stubAnalyzer returns a canned analysis, or an error, without any network.
type stubAnalyzer struct {
	analysis *core.RiskAnalysis
	err      error
	calls    int
}

func (s *stubAnalyzer) Name() string { return "stub" }

func (s *stubAnalyzer) AnalyzeCompliance(ctx context.Context, text string, findings []core.Finding) (*core.RiskAnalysis, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.analysis, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Analyzer.Backend = "none"
	cfg.Detectors.Recognizer = "none"
	cfg.Audit.Path = filepath.Join(t.TempDir(), "audit.log")
	return cfg
}

const sampleDocument = `Patient intake summary.
Contact: john.doe@example.com or 555-123-4567.
MRN: 12345678. Diagnosed with diabetes.
SSN 123-45-6789 on file.`

func TestPipelineEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	analyzer := &stubAnalyzer{analysis: &core.RiskAnalysis{
		Risks: []core.RiskFinding{
			{Kind: core.RiskMissingConsent, Description: "No consent language", Severity: core.SeverityHigh},
		},
		Suggestions: []string{"Add a consent section"},
	}}

	p, err := NewWithAnalyzer(cfg, analyzer)
	require.NoError(t, err)

	report, err := p.Analyze(context.Background(), sampleDocument)
	require.NoError(t, err)

	assert.Equal(t, 1, analyzer.calls)
	assert.NotEmpty(t, report.RequestID)
	assert.Equal(t, "stub", report.Analyzer)
	assert.Equal(t, Disclaimer, report.Disclaimer)

	categories := make(map[core.Category]bool)
	for _, f := range report.Findings {
		categories[f.Category] = true
	}
	assert.True(t, categories[core.CategoryEmail])
	assert.True(t, categories[core.CategoryPhone])
	assert.True(t, categories[core.CategoryMRN])
	assert.True(t, categories[core.CategorySSN])
	assert.True(t, categories[core.CategoryHealthCondition])

	require.Len(t, report.Risks, 1)
	assert.Equal(t, []string{"Add a consent section"}, report.Suggestions)

	// High consent risk plus unprotected sensitive categories plus the
	// condition-with-identifier combination must land well below base.
	assert.Less(t, report.ComplianceScore, 60)
	assert.NotEmpty(t, report.Deductions)

	// The redacted copy must not leak the raw values.
	assert.NotContains(t, report.RedactedText, "john.doe@example.com")
	assert.NotContains(t, report.RedactedText, "123-45-6789")
	assert.Contains(t, report.RedactedText, "***@***.com")
	assert.Contains(t, report.RedactedText, "***-**-****")
}

// An analyzer failure degrades to the fallback analysis instead of failing
// the request.
func TestPipelineAnalyzerFailureFallsBack(t *testing.T) {
	cfg := testConfig(t)
	analyzer := &stubAnalyzer{err: errors.New("model unavailable")}

	p, err := NewWithAnalyzer(cfg, analyzer)
	require.NoError(t, err)

	report, err := p.Analyze(context.Background(), sampleDocument)
	require.NoError(t, err)

	assert.Empty(t, report.Risks)
	require.Len(t, report.Suggestions, 1)
	assert.Contains(t, report.Suggestions[0], "Unable to complete compliance analysis")
	assert.NotEmpty(t, report.Findings)
}

func TestPipelineNilAnalyzer(t *testing.T) {
	p, err := NewWithAnalyzer(testConfig(t), nil)
	require.NoError(t, err)

	report, err := p.Analyze(context.Background(), sampleDocument)
	require.NoError(t, err)

	assert.Equal(t, "none", report.Analyzer)
	assert.Empty(t, report.Risks)
	assert.Equal(t, llm.FallbackAnalysis().Suggestions, report.Suggestions)
}

func TestPipelineDegradedFlag(t *testing.T) {
	p, err := NewWithAnalyzer(testConfig(t), nil)
	require.NoError(t, err)

	report, err := p.Analyze(context.Background(), sampleDocument)
	require.NoError(t, err)

	// Recognizer "none" means contextual detection ran lexicon-only.
	assert.True(t, report.Degraded)
}

func TestPipelineRejectsInvalidDocuments(t *testing.T) {
	p, err := NewWithAnalyzer(testConfig(t), nil)
	require.NoError(t, err)

	_, err = p.Analyze(context.Background(), "tiny")

	var validationErr *prep.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, prep.CodeDocumentTooShort, validationErr.Code)
}

// A clean document with no analyzer yields a perfect score.
func TestPipelineCleanDocument(t *testing.T) {
	p, err := NewWithAnalyzer(testConfig(t), &stubAnalyzer{analysis: &core.RiskAnalysis{
		Risks:       []core.RiskFinding{},
		Suggestions: []string{},
	}})
	require.NoError(t, err)

	report, err := p.Analyze(context.Background(), "General wellness newsletter about staying hydrated and walking daily.")
	require.NoError(t, err)

	assert.Equal(t, 100, report.ComplianceScore)
	assert.Equal(t, core.RiskLevelLow, report.RiskLevel)
	assert.Empty(t, report.Findings)
	assert.Empty(t, report.Deductions)
}

// An unrecognized recognizer name must be rejected and named in the error.
func TestNewWithAnalyzerRejectsUnknownRecognizer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Detectors.Recognizer = "spacy"

	_, err := NewWithAnalyzer(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"spacy"`)
}

// Disabling the regex detector leaves only contextual findings.
func TestPipelinePatternsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Detectors.EnablePatterns = false

	p, err := NewWithAnalyzer(cfg, nil)
	require.NoError(t, err)

	report, err := p.Analyze(context.Background(), sampleDocument)
	require.NoError(t, err)

	categories := make(map[core.Category]bool)
	for _, f := range report.Findings {
		categories[f.Category] = true
	}
	assert.False(t, categories[core.CategoryEmail])
	assert.False(t, categories[core.CategorySSN])
	// The health-condition lexicon still runs.
	assert.True(t, categories[core.CategoryHealthCondition])
	assert.Contains(t, report.RedactedText, "john.doe@example.com")
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analyzer.Backend = "oracle"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}
