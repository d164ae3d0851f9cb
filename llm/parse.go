package llm

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/phiguard/phiguard/core"
)

// rawRisk is the uncontrolled shape the model returns before mapping onto
// the closed enums.
type rawRisk struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Location    string `json:"location"`
}

type rawAnalysis struct {
	Risks       []rawRisk `json:"risks"`
	Suggestions []string  `json:"suggestions"`
}

// kindMapping maps free-text risk kind substrings onto the closed enum,
// checked in order. Unknown kinds fall through to missing_consent; see
// UnknownKindDefault.
var kindMapping = []struct {
	substr string
	kind   core.RiskKind
}{
	{"consent", core.RiskMissingConsent},
	{"sharing", core.RiskUnsafeSharing},
	{"unsafe", core.RiskUnsafeSharing},
	{"privacy", core.RiskMissingPrivacyNotice},
	{"confidentiality", core.RiskMissingConfidentiality},
}

// UnknownKindDefault is the kind assigned to risk types that match no
// mapping entry. Inherited behavior: defaulting unknowns to the most
// severe-sounding safeguard gap is questionable, but changing it silently
// would shift scores, so it is kept and logged instead.
const UnknownKindDefault = core.RiskMissingConsent

// ParseResponse extracts the JSON analysis object from raw model output and
// maps it onto the closed risk enums. The model may wrap the JSON in prose;
// everything outside the outermost braces is discarded. An error here means
// the caller should fall back to an empty analysis.
func ParseResponse(raw, requestID string) (*core.RiskAnalysis, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON object found in analyzer response")
	}

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("invalid JSON in analyzer response: %w", err)
	}

	analysis := &core.RiskAnalysis{
		Risks:       make([]core.RiskFinding, 0, len(parsed.Risks)),
		Suggestions: parsed.Suggestions,
		Timestamp:   time.Now(),
	}
	if analysis.Suggestions == nil {
		analysis.Suggestions = []string{}
	}

	for _, r := range parsed.Risks {
		description := r.Description
		if description == "" {
			description = "No description provided"
		}
		analysis.Risks = append(analysis.Risks, core.RiskFinding{
			Kind:        mapKind(r.Type, requestID),
			Description: description,
			Severity:    MapSeverity(r.Severity),
			Location:    r.Location,
		})
	}

	return analysis, nil
}

// MapKind maps a free-text risk type onto the closed enum via substring
// matching. Unknown kinds default to UnknownKindDefault and are audited.
func MapKind(kind string) core.RiskKind {
	return mapKind(kind, "")
}

func mapKind(kind, requestID string) core.RiskKind {
	lower := strings.ToLower(kind)
	for _, m := range kindMapping {
		if strings.Contains(lower, m.substr) {
			return m.kind
		}
	}

	core.LogDegraded(requestID, core.EventUnknownRiskKind, map[string]string{
		"kind":    kind,
		"default": string(UnknownKindDefault),
	})
	return UnknownKindDefault
}

// MapSeverity normalizes a free-text severity, case-insensitively.
// Unrecognized values default to medium.
func MapSeverity(severity string) core.Severity {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "high":
		return core.SeverityHigh
	case "low":
		return core.SeverityLow
	default:
		return core.SeverityMedium
	}
}
