package core

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phiguard/phiguard/config"
)

func configureTestAudit(t *testing.T, level string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.log")
	require.NoError(t, ConfigureAudit(config.AuditConfig{
		Path:          path,
		Level:         level,
		RotateBytes:   1 << 20,
		RetentionDays: 1,
	}))
	return path
}

func readAuditEvents(t *testing.T, path string) []AuditEvent {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []AuditEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev AuditEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	return events
}

func TestAuditLogAnalysisEvent(t *testing.T) {
	path := configureTestAudit(t, "standard")

	LogAnalysis("req-1", "patient summary text", 4, 2, 61, RiskLevelMedium, 120*time.Millisecond)

	events := readAuditEvents(t, path)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, EventAnalysis, ev.EventType)
	assert.Equal(t, "req-1", ev.RequestID)
	assert.Equal(t, 4, ev.FindingCount)
	assert.Equal(t, 2, ev.RiskCount)
	assert.Equal(t, 61, ev.Score)
	assert.Equal(t, "Medium", ev.RiskLevel)
	assert.NotEmpty(t, ev.Timestamp)
}

// Standard level caps document excerpts at 100 characters.
func TestAuditExcerptTruncation(t *testing.T) {
	path := configureTestAudit(t, "standard")

	long := strings.Repeat("x", 500)
	LogAnalysis("req-2", long, 0, 0, 100, RiskLevelLow, time.Millisecond)

	events := readAuditEvents(t, path)
	require.Len(t, events, 1)
	assert.LessOrEqual(t, len(events[0].Excerpt), 120)
	assert.Contains(t, events[0].Excerpt, "[truncated]")
}

// Minimal level drops excerpts entirely and filters info-level noise, but
// analysis summaries always land.
func TestAuditMinimalLevel(t *testing.T) {
	path := configureTestAudit(t, "minimal")

	LogAnalysis("req-3", "sensitive content", 1, 0, 92, RiskLevelLow, time.Millisecond)
	require.NoError(t, Audit().Log(AuditEvent{
		RequestID: "req-3",
		EventType: "detail",
		Severity:  AuditInfo,
	}))

	events := readAuditEvents(t, path)
	require.Len(t, events, 1)
	assert.Equal(t, EventAnalysis, events[0].EventType)
	assert.Empty(t, events[0].Excerpt)
}

func TestAuditDegradedEvent(t *testing.T) {
	path := configureTestAudit(t, "standard")

	LogDegraded("req-4", EventRecognizerDegraded, map[string]string{"recognizer": "none"})

	events := readAuditEvents(t, path)
	require.Len(t, events, 1)
	assert.Equal(t, EventRecognizerDegraded, events[0].EventType)
	assert.Equal(t, AuditWarning, events[0].Severity)
	assert.Equal(t, "none", events[0].Metadata["recognizer"])
}
