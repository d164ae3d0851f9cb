// Package config holds the immutable process-wide configuration for the
// analyzer. Configuration is resolved once at startup from built-in
// defaults, an optional YAML file, and environment variables, then passed
// by reference into each component's constructor.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ScoringConfig holds the scoring constants. Defaults reproduce the
// documented scoring rules; they are configurable so deployments can tune
// weights without a rebuild.
type ScoringConfig struct {
	BaseScore int `yaml:"base_score"`

	// Deductions per compliance risk, by severity.
	HighSeverityDeduction   int `yaml:"high_severity_deduction"`
	MediumSeverityDeduction int `yaml:"medium_severity_deduction"`
	LowSeverityDeduction    int `yaml:"low_severity_deduction"`

	// Deduction per unique sensitive data category when no safeguards are
	// present, and the one-time health-condition + identifier penalty.
	SensitiveTypeDeduction int `yaml:"sensitive_type_deduction"`
	CombinationDeduction   int `yaml:"combination_deduction"`

	// Risk level thresholds: score >= LowRiskThreshold is Low,
	// score >= MediumRiskThreshold is Medium, everything below is High.
	LowRiskThreshold    int `yaml:"low_risk_threshold"`
	MediumRiskThreshold int `yaml:"medium_risk_threshold"`
}

// PatternRule adds a custom regex pattern to the built-in detector table.
type PatternRule struct {
	Name       string  `yaml:"name"`
	Pattern    string  `yaml:"pattern"`
	Category   string  `yaml:"category"`
	Confidence float64 `yaml:"confidence"`
}

// DetectorConfig controls the two detectors.
type DetectorConfig struct {
	// EnablePatterns toggles the regex detector.
	EnablePatterns bool `yaml:"enable_patterns"`

	// Recognizer selects the entity recognizer: "prose" or "none".
	// "none" degrades contextual detection to the health-condition lexicon.
	Recognizer string `yaml:"recognizer"`

	// CustomPatterns extend the built-in pattern table.
	CustomPatterns []PatternRule `yaml:"custom_patterns,omitempty"`
}

// BedrockConfig holds the Amazon Bedrock analyzer settings.
type BedrockConfig struct {
	ModelID          string  `yaml:"model_id"`
	Region           string  `yaml:"region"`
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	GuardrailID      string  `yaml:"guardrail_id,omitempty"`
	GuardrailVersion string  `yaml:"guardrail_version,omitempty"`
}

// MCPConfig holds the MCP analyzer settings.
type MCPConfig struct {
	// ServerPath is the MCP server executable. Empty falls back to the
	// MCP_SERVER_PATH environment variable.
	ServerPath string `yaml:"server_path"`
	ToolName   string `yaml:"tool_name"`
	Model      string `yaml:"model"`
}

// AnalyzerConfig selects and tunes the external risk analyzer.
type AnalyzerConfig struct {
	// Backend is "bedrock", "mcp", or "none". "none" runs the pipeline with
	// the fallback analysis (empty risk list plus an explanatory
	// suggestion).
	Backend string `yaml:"backend"`

	// Retry policy for transient failures.
	MaxAttempts      int `yaml:"max_attempts"`
	InitialBackoffMS int `yaml:"initial_backoff_ms"`
	MaxBackoffMS     int `yaml:"max_backoff_ms"`
	TimeoutSeconds   int `yaml:"timeout_seconds"`
}

// InitialBackoff returns the first retry wait as a duration.
func (a AnalyzerConfig) InitialBackoff() time.Duration {
	return time.Duration(a.InitialBackoffMS) * time.Millisecond
}

// MaxBackoff returns the retry wait cap as a duration.
func (a AnalyzerConfig) MaxBackoff() time.Duration {
	return time.Duration(a.MaxBackoffMS) * time.Millisecond
}

// Timeout returns the per-call deadline as a duration.
func (a AnalyzerConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// LimitsConfig bounds accepted document sizes.
type LimitsConfig struct {
	MinDocumentChars int `yaml:"min_document_chars"`
	MaxDocumentChars int `yaml:"max_document_chars"`
}

// RateLimitConfig controls per-client request limiting in the API layer.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

// AuditConfig controls the JSONL audit log.
type AuditConfig struct {
	Path          string `yaml:"path"`
	Level         string `yaml:"level"` // minimal, standard, verbose
	RotateBytes   int64  `yaml:"rotate_bytes"`
	RetentionDays int    `yaml:"retention_days"`
	Console       bool   `yaml:"console"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Config is the root configuration object.
type Config struct {
	Limits    LimitsConfig    `yaml:"limits"`
	Detectors DetectorConfig  `yaml:"detectors"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Bedrock   BedrockConfig   `yaml:"bedrock"`
	MCP       MCPConfig       `yaml:"mcp"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Audit     AuditConfig     `yaml:"audit"`
	Server    ServerConfig    `yaml:"server"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Limits: LimitsConfig{
			MinDocumentChars: 10,
			MaxDocumentChars: 50000,
		},
		Detectors: DetectorConfig{
			EnablePatterns: true,
			Recognizer:     "prose",
		},
		Analyzer: AnalyzerConfig{
			Backend:          "bedrock",
			MaxAttempts:      3,
			InitialBackoffMS: 500,
			MaxBackoffMS:     10000,
			TimeoutSeconds:   30,
		},
		Bedrock: BedrockConfig{
			ModelID:     "amazon.nova-lite-v1:0",
			Region:      "us-east-1",
			MaxTokens:   2000,
			Temperature: 0.3,
		},
		MCP: MCPConfig{
			ToolName: "compliance.analyze",
			Model:    "default",
		},
		Scoring: ScoringConfig{
			BaseScore:               100,
			HighSeverityDeduction:   15,
			MediumSeverityDeduction: 10,
			LowSeverityDeduction:    5,
			SensitiveTypeDeduction:  8,
			CombinationDeduction:    20,
			LowRiskThreshold:        80,
			MediumRiskThreshold:     50,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
		},
		Audit: AuditConfig{
			Path:          "audit.log",
			Level:         "standard",
			RotateBytes:   100 * 1024 * 1024,
			RetentionDays: 90,
			Console:       false,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load resolves configuration: defaults, then the YAML file at path (missing
// file falls back to defaults), then environment variables. A .env file in
// the working directory is honored if present.
func Load(path string) (*Config, error) {
	// Best effort; absence of a .env file is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the loaded configuration.
func (c *Config) applyEnv() {
	if v := os.Getenv("BEDROCK_MODEL_ID"); v != "" {
		c.Bedrock.ModelID = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		c.Bedrock.Region = v
	}
	if v := os.Getenv("BEDROCK_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Bedrock.MaxTokens = n
		}
	}
	if v := os.Getenv("BEDROCK_GUARDRAIL_ID"); v != "" {
		c.Bedrock.GuardrailID = v
	}
	if v := os.Getenv("BEDROCK_GUARDRAIL_VERSION"); v != "" {
		c.Bedrock.GuardrailVersion = v
	}
	if v := os.Getenv("PHIGUARD_ANALYZER"); v != "" {
		c.Analyzer.Backend = v
	}
	if v := os.Getenv("PHIGUARD_RECOGNIZER"); v != "" {
		c.Detectors.Recognizer = v
	}
	if v := os.Getenv("PHIGUARD_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("MAX_DOCUMENT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Limits.MaxDocumentChars = n
		}
	}
	if v := os.Getenv("MIN_DOCUMENT_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Limits.MinDocumentChars = n
		}
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.Limits.MinDocumentChars < 1 {
		return fmt.Errorf("limits: min_document_chars must be positive, got %d", c.Limits.MinDocumentChars)
	}
	if c.Limits.MaxDocumentChars <= c.Limits.MinDocumentChars {
		return fmt.Errorf("limits: max_document_chars (%d) must exceed min_document_chars (%d)",
			c.Limits.MaxDocumentChars, c.Limits.MinDocumentChars)
	}
	switch c.Detectors.Recognizer {
	case "prose", "none":
	default:
		return fmt.Errorf("detectors: unknown recognizer %q (want prose or none)", c.Detectors.Recognizer)
	}
	switch c.Analyzer.Backend {
	case "bedrock", "mcp", "none":
	default:
		return fmt.Errorf("analyzer: unknown backend %q (want bedrock, mcp, or none)", c.Analyzer.Backend)
	}
	if c.Analyzer.MaxAttempts < 1 {
		return fmt.Errorf("analyzer: max_attempts must be at least 1, got %d", c.Analyzer.MaxAttempts)
	}
	if c.Scoring.LowRiskThreshold <= c.Scoring.MediumRiskThreshold {
		return fmt.Errorf("scoring: low_risk_threshold (%d) must exceed medium_risk_threshold (%d)",
			c.Scoring.LowRiskThreshold, c.Scoring.MediumRiskThreshold)
	}
	for _, r := range c.Detectors.CustomPatterns {
		if r.Name == "" || r.Pattern == "" {
			return fmt.Errorf("detectors: custom pattern entries need both name and pattern")
		}
	}
	return nil
}
