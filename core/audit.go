package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/phiguard/phiguard/config"
)

// AuditLevel defines the verbosity of audit logging.
type AuditLevel string

const (
	// AuditLevelMinimal logs only event metadata, never document content
	AuditLevelMinimal AuditLevel = "minimal"

	// AuditLevelStandard logs events with truncated document excerpts
	AuditLevelStandard AuditLevel = "standard"

	// AuditLevelVerbose logs full detail including excerpts
	AuditLevelVerbose AuditLevel = "verbose"
)

// AuditSeverity classifies audit events.
type AuditSeverity string

const (
	// AuditInfo for normal pipeline operations
	AuditInfo AuditSeverity = "info"

	// AuditWarning for degraded paths (recognizer missing, analyzer fallback)
	AuditWarning AuditSeverity = "warning"

	// AuditError for component errors recovered locally
	AuditError AuditSeverity = "error"
)

// Audit event types emitted by the pipeline.
const (
	EventAnalysis           = "analysis"
	EventRecognizerDegraded = "recognizer_degraded"
	EventAnalyzerFallback   = "risk_analysis_fallback"
	EventUnknownRiskKind    = "unknown_risk_kind"
	EventValidationRejected = "validation_rejected"
)

// AuditEvent is one JSONL entry in the analysis audit trail.
type AuditEvent struct {
	RequestID string        `json:"request_id"`
	Timestamp string        `json:"timestamp"`
	EventType string        `json:"event_type"`
	Severity  AuditSeverity `json:"severity"`

	// Analysis summary fields, set on EventAnalysis entries.
	Excerpt      string `json:"excerpt,omitempty"`
	FindingCount int    `json:"finding_count,omitempty"`
	RiskCount    int    `json:"risk_count,omitempty"`
	Score        int    `json:"score,omitempty"`
	RiskLevel    string `json:"risk_level,omitempty"`
	DurationMS   int64  `json:"duration_ms,omitempty"`

	Metadata map[string]string `json:"metadata,omitempty"`
}

// AuditLogger writes analysis audit events as JSONL with size-based
// rotation and age-based retention cleanup.
type AuditLogger struct {
	mu            sync.Mutex
	path          string
	level         AuditLevel
	writer        io.Writer
	rotateBytes   int64
	currentSize   int64
	retentionDays int
	console       bool
	initialized   bool
}

var (
	defaultAudit *AuditLogger
	auditOnce    sync.Once
)

// Audit returns the process-wide audit logger.
func Audit() *AuditLogger {
	auditOnce.Do(func() {
		defaultAudit = &AuditLogger{
			path:          "audit.log",
			level:         AuditLevelStandard,
			rotateBytes:   100 * 1024 * 1024,
			retentionDays: 90,
		}
	})
	return defaultAudit
}

// ConfigureAudit applies audit settings from configuration. Call once at
// startup before any events are logged.
func ConfigureAudit(cfg config.AuditConfig) error {
	logger := Audit()

	logger.mu.Lock()
	defer logger.mu.Unlock()

	logger.path = cfg.Path
	logger.level = AuditLevel(cfg.Level)
	logger.rotateBytes = cfg.RotateBytes
	logger.retentionDays = cfg.RetentionDays
	logger.console = cfg.Console
	logger.initialized = false

	return logger.initialize()
}

func (l *AuditLogger) initialize() error {
	dir := filepath.Dir(l.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create audit log directory: %w", err)
		}
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to stat audit log: %w", err)
	}
	l.currentSize = info.Size()

	if l.console {
		l.writer = io.MultiWriter(f, os.Stdout)
	} else {
		l.writer = f
	}

	l.initialized = true
	return nil
}

func (l *AuditLogger) maybeRotate() error {
	if l.currentSize < l.rotateBytes {
		return nil
	}

	if closer, ok := l.writer.(io.Closer); ok {
		closer.Close()
	}

	rotated := fmt.Sprintf("%s.%s", l.path, time.Now().Format("20060102-150405"))
	if err := os.Rename(l.path, rotated); err != nil {
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}

	l.cleanupOld()
	return l.initialize()
}

// cleanupOld removes rotated files older than the retention period.
func (l *AuditLogger) cleanupOld() {
	cutoff := time.Now().AddDate(0, 0, -l.retentionDays)

	files, err := filepath.Glob(l.path + ".*")
	if err != nil {
		return
	}
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(file)
		}
	}
}

// Log writes one audit event, applying level filtering and excerpt
// truncation policy.
func (l *AuditLogger) Log(event AuditEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		if err := l.initialize(); err != nil {
			return err
		}
	}

	if err := l.maybeRotate(); err != nil {
		return err
	}

	if event.Timestamp == "" {
		event.Timestamp = time.Now().Format(time.RFC3339Nano)
	}
	if event.Severity == "" {
		event.Severity = AuditInfo
	}

	// Info-level noise is dropped entirely in minimal mode; analysis
	// summaries always land.
	if l.level == AuditLevelMinimal && event.Severity == AuditInfo && event.EventType != EventAnalysis {
		return nil
	}

	switch l.level {
	case AuditLevelMinimal:
		event.Excerpt = ""
	case AuditLevelStandard:
		if len(event.Excerpt) > 100 {
			event.Excerpt = event.Excerpt[:100] + "... [truncated]"
		}
	}

	entry, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	n, err := fmt.Fprintln(l.writer, string(entry))
	if err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	l.currentSize += int64(n)

	return nil
}

// LogAnalysis records a completed analysis.
func LogAnalysis(requestID, excerpt string, findingCount, riskCount, score int, riskLevel RiskLevel, duration time.Duration) {
	_ = Audit().Log(AuditEvent{
		RequestID:    requestID,
		EventType:    EventAnalysis,
		Severity:     AuditInfo,
		Excerpt:      excerpt,
		FindingCount: findingCount,
		RiskCount:    riskCount,
		Score:        score,
		RiskLevel:    string(riskLevel),
		DurationMS:   duration.Milliseconds(),
	})
}

// LogDegraded records a degraded-path event such as a missing recognizer or
// an analyzer fallback.
func LogDegraded(requestID, eventType string, metadata map[string]string) {
	_ = Audit().Log(AuditEvent{
		RequestID: requestID,
		EventType: eventType,
		Severity:  AuditWarning,
		Metadata:  metadata,
	})
}
