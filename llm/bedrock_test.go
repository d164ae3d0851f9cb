package llm

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phiguard/phiguard/config"
	"github.com/phiguard/phiguard/core"
)

type stubBedrock struct {
	responses []string
	errs      []error
	calls     int
	lastInput *bedrockruntime.ConverseInput
}

func (s *stubBedrock) Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	idx := s.calls
	s.calls++
	s.lastInput = params

	if idx < len(s.errs) && s.errs[idx] != nil {
		return nil, s.errs[idx]
	}

	text := ""
	if idx < len(s.responses) {
		text = s.responses[idx]
	}
	return &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: text},
				},
			},
		},
	}, nil
}

func newTestBedrockAnalyzer(stub *stubBedrock) *BedrockAnalyzer {
	logger := log.New(io.Discard, "", 0)
	return &BedrockAnalyzer{
		client: stub,
		cfg: config.BedrockConfig{
			ModelID:     "amazon.nova-lite-v1:0",
			MaxTokens:   2000,
			Temperature: 0.3,
		},
		retry:         RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond},
		requestLog:    NewRequestLogger(logger, "bedrock", "minimal"),
		errorReporter: NewErrorReporter(logger),
	}
}

func TestBedrockAnalyzerParsesResponse(t *testing.T) {
	stub := &stubBedrock{responses: []string{
		`{"risks":[{"type":"missing_consent","description":"No consent","severity":"high"}],"suggestions":["Add consent"]}`,
	}}
	a := newTestBedrockAnalyzer(stub)

	analysis, err := a.AnalyzeCompliance(context.Background(), "document text", nil)
	require.NoError(t, err)

	require.Len(t, analysis.Risks, 1)
	assert.Equal(t, core.RiskMissingConsent, analysis.Risks[0].Kind)
	assert.Equal(t, 1, stub.calls)

	// The prompt carries the document.
	require.NotNil(t, stub.lastInput)
	block, ok := stub.lastInput.Messages[0].Content[0].(*types.ContentBlockMemberText)
	require.True(t, ok)
	assert.Contains(t, block.Value, "document text")
}

func TestBedrockAnalyzerRetriesThrottling(t *testing.T) {
	stub := &stubBedrock{
		errs: []error{errors.New("ThrottlingException: too many requests"), nil},
		responses: []string{
			"",
			`{"risks":[],"suggestions":[]}`,
		},
	}
	a := newTestBedrockAnalyzer(stub)

	_, err := a.AnalyzeCompliance(context.Background(), "doc", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)
}

func TestBedrockAnalyzerGivesUpOnAccessDenied(t *testing.T) {
	stub := &stubBedrock{errs: []error{errors.New("AccessDeniedException: access denied")}}
	a := newTestBedrockAnalyzer(stub)

	_, err := a.AnalyzeCompliance(context.Background(), "doc", nil)
	require.Error(t, err)
	assert.Equal(t, 1, stub.calls)
}

func TestBedrockAnalyzerParseFailure(t *testing.T) {
	stub := &stubBedrock{responses: []string{"I refuse to answer in JSON."}}
	a := newTestBedrockAnalyzer(stub)

	_, err := a.AnalyzeCompliance(context.Background(), "doc", nil)
	require.Error(t, err)

	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, ErrorCategoryParse, analysisErr.Category)
}

func TestExtractConverseTextEmpty(t *testing.T) {
	out := &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{}},
	}
	_, err := extractConverseText(out)
	assert.Error(t, err)
}
