package core

import "time"

// Category classifies a piece of detected sensitive data.
type Category string

const (
	// CategoryEmail represents email addresses
	CategoryEmail Category = "email"

	// CategoryPhone represents phone numbers
	CategoryPhone Category = "phone"

	// CategoryName represents person names
	CategoryName Category = "name"

	// CategoryAddress represents address fragments (ZIP codes, locations)
	CategoryAddress Category = "address"

	// CategorySSN represents US Social Security Numbers
	CategorySSN Category = "ssn"

	// CategoryMRN represents medical record numbers
	CategoryMRN Category = "medical_record_number"

	// CategoryInsuranceID represents insurance member identifiers
	CategoryInsuranceID Category = "insurance_id"

	// CategoryHealthCondition represents diagnoses and condition mentions
	CategoryHealthCondition Category = "health_condition"

	// CategoryAge represents age mentions
	CategoryAge Category = "age"

	// CategoryDOB represents dates of birth
	CategoryDOB Category = "date_of_birth"
)

// Method identifies which detector produced a finding.
type Method string

const (
	// MethodPattern marks findings from fixed regex patterns
	MethodPattern Method = "pattern"

	// MethodContextual marks findings from entity recognition or the
	// health-condition lexicon
	MethodContextual Method = "contextual"
)

// identifierCategories are the categories capable of identifying a specific
// person. Health conditions combined with any of these trigger the
// combination penalty in scoring.
var identifierCategories = map[Category]bool{
	CategoryName:        true,
	CategoryEmail:       true,
	CategoryPhone:       true,
	CategorySSN:         true,
	CategoryMRN:         true,
	CategoryInsuranceID: true,
	CategoryAddress:     true,
	CategoryDOB:         true,
}

// IsIdentifier reports whether the category can identify a specific person.
func (c Category) IsIdentifier() bool {
	return identifierCategories[c]
}

// Finding is one detected instance of sensitive data. The original value is
// never stored; RedactedValue preserves just enough structure for review.
type Finding struct {
	Category      Category `json:"category"`
	RedactedValue string   `json:"redacted_value"`
	Offset        int      `json:"offset"`
	Confidence    float64  `json:"confidence"`
	Method        Method   `json:"method"`

	// Length is the span of the original match in the source text. Used by
	// ApplyRedactions to rewrite the document; not part of the wire format.
	Length int `json:"-"`
}

// RiskKind classifies a compliance gap reported by the risk analyzer.
type RiskKind string

const (
	RiskMissingConsent         RiskKind = "missing_consent"
	RiskUnsafeSharing          RiskKind = "unsafe_data_sharing"
	RiskMissingPrivacyNotice   RiskKind = "missing_privacy_notice"
	RiskMissingConfidentiality RiskKind = "missing_confidentiality_statement"
)

// Severity is the weight class of a compliance risk.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// RiskFinding is one compliance gap identified by the external risk
// analyzer.
type RiskFinding struct {
	Kind        RiskKind `json:"type"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Location    string   `json:"location,omitempty"`
}

// RiskAnalysis is the full result of the external compliance analysis:
// identified risks plus actionable improvement suggestions.
type RiskAnalysis struct {
	Risks       []RiskFinding `json:"risks"`
	Suggestions []string      `json:"suggestions"`
	Timestamp   time.Time     `json:"timestamp"`
}

// RiskLevel is the overall classification derived from the score.
type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "Low"
	RiskLevelMedium RiskLevel = "Medium"
	RiskLevelHigh   RiskLevel = "High"
)

// Deduction is one line item in the scoring ledger. Created only by the
// scoring engine and never mutated afterwards.
type Deduction struct {
	Reason         string `json:"reason"`
	Points         int    `json:"points"`
	RelatedFinding string `json:"related_finding,omitempty"`
}

// ScoringResult holds the final score, its risk level, and the ordered
// deduction ledger. Risk-based deductions precede data-based ones.
type ScoringResult struct {
	Score      int         `json:"score"`
	RiskLevel  RiskLevel   `json:"risk_level"`
	Deductions []Deduction `json:"deductions"`
}
