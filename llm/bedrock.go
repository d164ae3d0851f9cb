package llm

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/google/uuid"

	"github.com/phiguard/phiguard/config"
	"github.com/phiguard/phiguard/core"
)

// bedrockAPI is the slice of the Bedrock runtime client we use. Tests
// substitute a stub.
type bedrockAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// BedrockAnalyzer calls a foundation model through the Bedrock Converse API
// to assess compliance risks in a document.
type BedrockAnalyzer struct {
	client        bedrockAPI
	cfg           config.BedrockConfig
	retry         RetryPolicy
	timeout       time.Duration
	requestLog    *RequestLogger
	errorReporter *ErrorReporter
}

// NewBedrockAnalyzer builds an analyzer from the shared AWS credential
// chain. Region comes from config, falling back to the environment.
func NewBedrockAnalyzer(ctx context.Context, bedrockCfg config.BedrockConfig, analyzerCfg config.AnalyzerConfig) (*BedrockAnalyzer, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if bedrockCfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(bedrockCfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger := log.New(os.Stdout, "[phiguard] ", log.LstdFlags)

	return &BedrockAnalyzer{
		client: bedrockruntime.NewFromConfig(awsCfg),
		cfg:    bedrockCfg,
		retry: RetryPolicy{
			MaxAttempts:    analyzerCfg.MaxAttempts,
			InitialBackoff: analyzerCfg.InitialBackoff(),
			MaxBackoff:     analyzerCfg.MaxBackoff(),
		},
		timeout:       analyzerCfg.Timeout(),
		requestLog:    NewRequestLogger(logger, "bedrock", "standard"),
		errorReporter: NewErrorReporter(logger),
	}, nil
}

// Name identifies the backend in audit records.
func (a *BedrockAnalyzer) Name() string { return "bedrock" }

// AnalyzeCompliance sends the document to the configured model and parses
// the structured risk assessment out of the response.
func (a *BedrockAnalyzer) AnalyzeCompliance(ctx context.Context, text string, findings []core.Finding) (*core.RiskAnalysis, error) {
	requestID := uuid.New().String()
	startTime := time.Now()

	a.requestLog.Sent(requestID, a.cfg.ModelID, len(text), len(findings))

	prompt := BuildPrompt(text, findings)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(a.cfg.ModelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: prompt},
				},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(int32(a.cfg.MaxTokens)),
			Temperature: aws.Float32(float32(a.cfg.Temperature)),
		},
	}

	if a.cfg.GuardrailID != "" {
		input.GuardrailConfig = &types.GuardrailConfiguration{
			GuardrailIdentifier: aws.String(a.cfg.GuardrailID),
			GuardrailVersion:    aws.String(a.cfg.GuardrailVersion),
		}
	}

	var output *bedrockruntime.ConverseOutput
	callErr := a.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		output, err = a.client.Converse(ctx, input)
		if err != nil {
			return newAnalysisError(Categorize(err), err, requestID)
		}
		return nil
	})
	if callErr != nil {
		a.errorReporter.Report(callErr)
		return nil, callErr
	}

	responseText, err := extractConverseText(output)
	if err != nil {
		modelErr := newAnalysisError(ErrorCategoryModel, err, requestID)
		a.errorReporter.Report(modelErr)
		return nil, modelErr
	}

	analysis, err := ParseResponse(responseText, requestID)
	if err != nil {
		parseErr := newAnalysisError(ErrorCategoryParse, err, requestID)
		a.errorReporter.Report(parseErr)
		return nil, parseErr
	}

	a.requestLog.Received(requestID, analysis, time.Since(startTime))

	return analysis, nil
}

// extractConverseText concatenates the text blocks of a Converse response.
func extractConverseText(output *bedrockruntime.ConverseOutput) (string, error) {
	msg, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return "", fmt.Errorf("unexpected Converse output type %T", output.Output)
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("model response contained no text content")
	}
	return sb.String(), nil
}
