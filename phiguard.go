// Package phiguard analyzes healthcare documents for privacy and
// compliance risks. It combines regex pattern detection with contextual
// entity recognition, merges the two detection streams, asks an external
// model for a compliance risk assessment, and scores the document
// deterministically from the combined evidence.
package phiguard

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phiguard/phiguard/config"
	"github.com/phiguard/phiguard/core"
	"github.com/phiguard/phiguard/llm"
	"github.com/phiguard/phiguard/prep"
)

// Pipeline runs the full document analysis: normalize, detect, merge,
// assess, score, assemble. Safe for concurrent use.
type Pipeline struct {
	cfg        *config.Config
	normalizer *prep.Normalizer
	patterns   *core.PatternDetector
	contextual *core.ContextualDetector
	scorer     *core.ScoringEngine
	analyzer   llm.Analyzer
}

// New builds a pipeline from configuration. The analyzer backend is
// selected by cfg.Analyzer.Backend; "none" runs detection and scoring
// with the fallback analysis.
func New(ctx context.Context, cfg *config.Config) (*Pipeline, error) {
	var analyzer llm.Analyzer
	var err error

	switch cfg.Analyzer.Backend {
	case "bedrock":
		analyzer, err = llm.NewBedrockAnalyzer(ctx, cfg.Bedrock, cfg.Analyzer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Bedrock analyzer: %w", err)
		}
	case "mcp":
		analyzer, err = llm.NewMCPAnalyzer(cfg.MCP, cfg.Analyzer)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MCP analyzer: %w", err)
		}
	case "none":
		analyzer = nil
	default:
		return nil, fmt.Errorf("unknown analyzer backend: %q", cfg.Analyzer.Backend)
	}

	return NewWithAnalyzer(cfg, analyzer)
}

// NewWithAnalyzer builds a pipeline around an injected analyzer. A nil
// analyzer means every report carries the fallback analysis.
func NewWithAnalyzer(cfg *config.Config, analyzer llm.Analyzer) (*Pipeline, error) {
	if err := core.ConfigureAudit(cfg.Audit); err != nil {
		return nil, fmt.Errorf("failed to configure audit log: %w", err)
	}

	var patterns *core.PatternDetector
	if cfg.Detectors.EnablePatterns {
		var err error
		patterns, err = core.NewPatternDetector(&cfg.Detectors)
		if err != nil {
			return nil, fmt.Errorf("failed to build pattern detector: %w", err)
		}
	}

	var recognizer core.EntityRecognizer
	switch cfg.Detectors.Recognizer {
	case "prose":
		recognizer = core.NewProseRecognizer()
	case "none", "":
		recognizer = core.NoopRecognizer{}
	default:
		return nil, fmt.Errorf("unknown entity recognizer: %q", cfg.Detectors.Recognizer)
	}

	return &Pipeline{
		cfg:        cfg,
		normalizer: prep.NewNormalizer(cfg.Limits),
		patterns:   patterns,
		contextual: core.NewContextualDetector(recognizer),
		scorer:     core.NewScoringEngine(cfg.Scoring),
		analyzer:   analyzer,
	}, nil
}

// AnalyzerName reports the active analyzer backend, or "none".
func (p *Pipeline) AnalyzerName() string {
	if p.analyzer == nil {
		return "none"
	}
	return p.analyzer.Name()
}

// Analyze runs the full pipeline on a plain text document.
func (p *Pipeline) Analyze(ctx context.Context, text string) (*Report, error) {
	requestID := uuid.New().String()
	started := time.Now()

	normalized, err := p.normalizer.Normalize(text)
	if err != nil {
		core.LogDegraded(requestID, core.EventValidationRejected, map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}

	findings := p.detect(normalized)
	degraded := p.contextual.Degraded()
	if degraded {
		core.LogDegraded(requestID, core.EventRecognizerDegraded, map[string]string{
			"recognizer": p.contextual.RecognizerName(),
		})
	}

	analysis := p.assess(ctx, requestID, normalized, findings)
	scoring := p.scorer.Score(findings, analysis)
	redacted := core.ApplyRedactions(normalized, findings)

	core.LogAnalysis(requestID, normalized, len(findings), len(analysis.Risks),
		scoring.Score, scoring.RiskLevel, time.Since(started))

	return assembleReport(requestID, redacted, findings, analysis, scoring,
		p.AnalyzerName(), degraded, started), nil
}

// AnalyzePDF extracts text from a PDF and analyzes it.
func (p *Pipeline) AnalyzePDF(ctx context.Context, data []byte) (*Report, error) {
	text, err := prep.ExtractPDF(data)
	if err != nil {
		return nil, err
	}
	return p.Analyze(ctx, text)
}

// detect runs the enabled detectors concurrently and merges their findings.
func (p *Pipeline) detect(text string) []core.Finding {
	var patternFindings, contextualFindings []core.Finding

	var wg sync.WaitGroup
	if p.patterns != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			patternFindings = p.patterns.Detect(text)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		contextualFindings = p.contextual.Detect(text)
	}()
	wg.Wait()

	combined := make([]core.Finding, 0, len(patternFindings)+len(contextualFindings))
	combined = append(combined, patternFindings...)
	combined = append(combined, contextualFindings...)

	return core.MergeFindings(combined)
}

// assess runs the external risk analysis, falling back to an empty
// analysis when no analyzer is configured or the call fails.
func (p *Pipeline) assess(ctx context.Context, requestID, text string, findings []core.Finding) *core.RiskAnalysis {
	if p.analyzer == nil {
		return llm.FallbackAnalysis()
	}

	analysis, err := p.analyzer.AnalyzeCompliance(ctx, text, findings)
	if err != nil {
		core.LogDegraded(requestID, core.EventAnalyzerFallback, map[string]string{
			"analyzer": p.analyzer.Name(),
			"error":    truncate(err.Error(), 200),
		})
		return llm.FallbackAnalysis()
	}
	return analysis
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "... [" + strconv.Itoa(len(s)-max) + " more]"
}
