package llm

import (
	"fmt"
	"strings"

	"github.com/phiguard/phiguard/core"
)

// promptTemplate frames the compliance review. The model is constrained to
// privacy and compliance concerns only; medical and legal interpretation
// is explicitly forbidden.
const promptTemplate = `You are a healthcare compliance analyzer. Review the following document and identify:

1. Missing consent statements
2. Unsafe data sharing language
3. Missing privacy notices
4. Missing confidentiality statements

Document contains the following sensitive data types: %s

Document text:
%s

Provide your analysis in JSON format with the following structure:
{
  "risks": [
    {"type": "missing_consent|unsafe_data_sharing|missing_privacy_notice|missing_confidentiality_statement", "description": "detailed description", "severity": "high|medium|low"}
  ],
  "suggestions": ["actionable suggestion 1", "actionable suggestion 2"]
}

IMPORTANT:
- Do not provide medical advice, diagnosis, or treatment recommendations.
- Focus only on compliance and privacy risks.
- Be specific in your descriptions.
- Provide actionable suggestions for improvement.
`

// BuildPrompt constructs the analysis prompt, listing the distinct
// detected categories so the model knows what the document carries.
func BuildPrompt(text string, findings []core.Finding) string {
	seen := make(map[core.Category]bool, len(findings))
	var categories []string
	for _, f := range findings {
		if !seen[f.Category] {
			seen[f.Category] = true
			categories = append(categories, string(f.Category))
		}
	}

	detected := "none"
	if len(categories) > 0 {
		detected = strings.Join(categories, ", ")
	}

	return fmt.Sprintf(promptTemplate, detected, text)
}
