// Package llm wraps the external risk-analysis collaborator: a language
// model service that reviews a document for compliance gaps and returns
// risks plus improvement suggestions. Two transports are supported behind
// one Analyzer interface, Amazon Bedrock and an MCP tool server, selected
// at startup. Failures never propagate past the pipeline: callers
// substitute FallbackAnalysis and keep going.
package llm

import (
	"context"
	"time"

	"github.com/phiguard/phiguard/core"
)

// Analyzer analyzes a document for compliance risks. Implementations block
// on network I/O and must honor the context deadline.
type Analyzer interface {
	// AnalyzeCompliance reviews text, informed by which sensitive data
	// categories were detected, and returns the identified risks and
	// suggestions.
	AnalyzeCompliance(ctx context.Context, text string, findings []core.Finding) (*core.RiskAnalysis, error)

	// Name identifies the backend for logs and diagnostics.
	Name() string
}

// fallbackSuggestion is returned in place of real analysis when the
// collaborator is unavailable or its response cannot be parsed.
const fallbackSuggestion = "Unable to complete compliance analysis due to technical error"

// FallbackAnalysis is the substitute result used when the external
// analyzer fails: zero risks plus one explanatory suggestion. The scoring
// engine treats it as zero risk findings.
func FallbackAnalysis() *core.RiskAnalysis {
	return &core.RiskAnalysis{
		Risks:       []core.RiskFinding{},
		Suggestions: []string{fallbackSuggestion},
		Timestamp:   time.Now(),
	}
}
