package llm

import (
	"encoding/json"
	"log"
	"time"

	"github.com/phiguard/phiguard/core"
)

// callRecord is one JSON line describing half of an analyzer round trip.
// Records carry counts and identifiers only; document text, prompts, and
// credentials never reach the log.
type callRecord struct {
	Timestamp   string `json:"timestamp"`
	RequestID   string `json:"request_id"`
	Backend     string `json:"backend"`
	Event       string `json:"event"`
	Model       string `json:"model,omitempty"`
	InputChars  int    `json:"input_chars,omitempty"`
	Findings    int    `json:"findings,omitempty"`
	Risks       int    `json:"risks,omitempty"`
	Suggestions int    `json:"suggestions,omitempty"`
	DurationMS  int64  `json:"duration_ms,omitempty"`
}

// RequestLogger writes a call ledger for one analyzer backend.
type RequestLogger struct {
	logger     *log.Logger
	backend    string
	auditLevel string
}

// NewRequestLogger creates a request logger for the named backend at the
// given audit level (minimal, standard, or verbose).
func NewRequestLogger(logger *log.Logger, backend, auditLevel string) *RequestLogger {
	return &RequestLogger{
		logger:     logger,
		backend:    backend,
		auditLevel: auditLevel,
	}
}

// Sent records an outbound analysis call. Skipped at minimal level, where
// only the completion line matters.
func (l *RequestLogger) Sent(requestID, model string, inputChars, findings int) {
	if l.auditLevel == "minimal" {
		return
	}

	l.write(callRecord{
		RequestID:  requestID,
		Event:      "request",
		Model:      model,
		InputChars: inputChars,
		Findings:   findings,
	})
}

// Received records a completed analysis call. At minimal level only the
// request ID and duration are written.
func (l *RequestLogger) Received(requestID string, analysis *core.RiskAnalysis, elapsed time.Duration) {
	if l.auditLevel == "minimal" {
		l.logger.Printf("Request %s completed in %v", requestID, elapsed)
		return
	}

	l.write(callRecord{
		RequestID:   requestID,
		Event:       "response",
		Risks:       len(analysis.Risks),
		Suggestions: len(analysis.Suggestions),
		DurationMS:  elapsed.Milliseconds(),
	})
}

func (l *RequestLogger) write(record callRecord) {
	record.Timestamp = time.Now().UTC().Format(time.RFC3339)
	record.Backend = l.backend

	jsonData, err := json.Marshal(record)
	if err != nil {
		l.logger.Printf("Error marshaling call record: %v", err)
		return
	}

	l.logger.Println(string(jsonData))
}
