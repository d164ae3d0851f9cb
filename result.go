package phiguard

import (
	"time"

	"github.com/phiguard/phiguard/core"
)

// Disclaimer accompanies every report.
const Disclaimer = "DISCLAIMER: This tool is for educational and internal compliance awareness purposes only. It does not constitute legal advice, medical advice, or professional compliance consultation. Results are based on automated analysis and may not capture all risks. Always consult qualified legal and compliance professionals for official guidance. Use only synthetic or public data - never upload real protected health information (PHI)."

// Report is the full analysis result for one document.
type Report struct {
	RequestID       string             `json:"request_id"`
	Timestamp       time.Time          `json:"timestamp"`
	ComplianceScore int                `json:"compliance_score"`
	RiskLevel       core.RiskLevel     `json:"risk_level"`
	Findings        []core.Finding     `json:"findings"`
	Risks           []core.RiskFinding `json:"risks"`
	Suggestions     []string           `json:"suggestions"`
	Deductions      []core.Deduction   `json:"deductions"`
	RedactedText    string             `json:"redacted_text"`
	Analyzer        string             `json:"analyzer"`
	Degraded        bool               `json:"degraded"`
	DurationMS      int64              `json:"duration_ms"`
	Disclaimer      string             `json:"disclaimer"`
}

// assembleReport packages the pipeline outputs into the response record.
func assembleReport(requestID, redacted string, findings []core.Finding, analysis *core.RiskAnalysis, scoring core.ScoringResult, analyzerName string, degraded bool, started time.Time) *Report {
	report := &Report{
		RequestID:       requestID,
		Timestamp:       time.Now().UTC(),
		ComplianceScore: scoring.Score,
		RiskLevel:       scoring.RiskLevel,
		Findings:        findings,
		Risks:           []core.RiskFinding{},
		Suggestions:     []string{},
		Deductions:      scoring.Deductions,
		RedactedText:    redacted,
		Analyzer:        analyzerName,
		Degraded:        degraded,
		DurationMS:      time.Since(started).Milliseconds(),
		Disclaimer:      Disclaimer,
	}

	if findings == nil {
		report.Findings = []core.Finding{}
	}
	if analysis != nil {
		if analysis.Risks != nil {
			report.Risks = analysis.Risks
		}
		if analysis.Suggestions != nil {
			report.Suggestions = analysis.Suggestions
		}
	}

	return report
}
