package core

import (
	"fmt"
	"strings"

	"github.com/phiguard/phiguard/config"
)

// safeguardKinds are the risk kinds whose presence means the document lacks
// safeguards. Unsafe data sharing alone does not affect the safeguard flag.
var safeguardKinds = map[RiskKind]bool{
	RiskMissingConsent:         true,
	RiskMissingPrivacyNotice:   true,
	RiskMissingConfidentiality: true,
}

// ScoringEngine folds detection findings and the external risk analysis
// into one bounded score with an auditable deduction ledger. It performs
// pure computation: identical inputs produce byte-identical results, and it
// never fails: unclassifiable severities weigh as medium rather than
// erroring.
type ScoringEngine struct {
	cfg config.ScoringConfig
}

// NewScoringEngine builds an engine with the given scoring constants.
func NewScoringEngine(cfg config.ScoringConfig) *ScoringEngine {
	return &ScoringEngine{cfg: cfg}
}

// Score computes the compliance score, risk level, and deduction ledger.
// Risk-based deductions are applied first, then data-based ones; the
// ledger preserves application order. A nil analysis counts as zero risk
// findings (the fallback path when the external analyzer is unavailable).
func (e *ScoringEngine) Score(findings []Finding, analysis *RiskAnalysis) ScoringResult {
	score := e.cfg.BaseScore
	deductions := []Deduction{}

	var risks []RiskFinding
	if analysis != nil {
		risks = analysis.Risks
	}

	for _, risk := range risks {
		points := e.severityPoints(risk.Severity)
		score -= points
		deductions = append(deductions, Deduction{
			Reason:         fmt.Sprintf("%s severity compliance risk: %s", capitalize(string(risk.Severity)), risk.Kind),
			Points:         points,
			RelatedFinding: risk.Description,
		})
	}

	if len(findings) > 0 && !hasSafeguards(risks) {
		for _, category := range uniqueCategories(findings) {
			score -= e.cfg.SensitiveTypeDeduction
			deductions = append(deductions, Deduction{
				Reason:         fmt.Sprintf("Sensitive data type (%s) without adequate safeguards", category),
				Points:         e.cfg.SensitiveTypeDeduction,
				RelatedFinding: string(category),
			})
		}
	}

	if hasConditionWithIdentifier(findings) {
		score -= e.cfg.CombinationDeduction
		deductions = append(deductions, Deduction{
			Reason:         "Health condition combined with personal identifiers",
			Points:         e.cfg.CombinationDeduction,
			RelatedFinding: "health_condition + identifiers",
		})
	}

	if score < 0 {
		score = 0
	}
	if score > e.cfg.BaseScore {
		score = e.cfg.BaseScore
	}

	return ScoringResult{
		Score:      score,
		RiskLevel:  e.riskLevel(score),
		Deductions: deductions,
	}
}

// severityPoints maps a severity to its deduction. Unknown severities from
// the external collaborator weigh as medium, the worst-case-safe default.
func (e *ScoringEngine) severityPoints(severity Severity) int {
	switch Severity(strings.ToLower(string(severity))) {
	case SeverityHigh:
		return e.cfg.HighSeverityDeduction
	case SeverityLow:
		return e.cfg.LowSeverityDeduction
	default:
		return e.cfg.MediumSeverityDeduction
	}
}

// riskLevel maps a score onto the fixed thresholds.
func (e *ScoringEngine) riskLevel(score int) RiskLevel {
	switch {
	case score >= e.cfg.LowRiskThreshold:
		return RiskLevelLow
	case score >= e.cfg.MediumRiskThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}

// hasSafeguards reports whether the document has consent, privacy notice,
// and confidentiality coverage: true iff none of the safeguard-gap kinds
// appear among the risks.
func hasSafeguards(risks []RiskFinding) bool {
	for _, risk := range risks {
		if safeguardKinds[risk.Kind] {
			return false
		}
	}
	return true
}

// uniqueCategories collapses findings to their distinct categories in
// first-appearance order, which is deterministic because findings arrive
// offset-sorted from the merger.
func uniqueCategories(findings []Finding) []Category {
	seen := make(map[Category]bool, len(findings))
	var categories []Category
	for _, f := range findings {
		if !seen[f.Category] {
			seen[f.Category] = true
			categories = append(categories, f.Category)
		}
	}
	return categories
}

// hasConditionWithIdentifier reports whether a health condition co-occurs
// with at least one identifier-class category.
func hasConditionWithIdentifier(findings []Finding) bool {
	hasCondition := false
	hasIdentifier := false
	for _, f := range findings {
		if f.Category == CategoryHealthCondition {
			hasCondition = true
		} else if f.Category.IsIdentifier() {
			hasIdentifier = true
		}
	}
	return hasCondition && hasIdentifier
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
