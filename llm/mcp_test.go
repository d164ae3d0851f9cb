package llm

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phiguard/phiguard/config"
	"github.com/phiguard/phiguard/core"
)

type stubMCP struct {
	result *mcp.CallToolResult
	err    error
	calls  int
	last   mcp.CallToolRequest
}

func (s *stubMCP) CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.calls++
	s.last = request
	return s.result, s.err
}

func newTestMCPAnalyzer(stub *stubMCP) *MCPAnalyzer {
	logger := log.New(io.Discard, "", 0)
	return &MCPAnalyzer{
		client:        stub,
		cfg:           config.MCPConfig{ToolName: "compliance.analyze", Model: "default"},
		retry:         RetryPolicy{MaxAttempts: 2, InitialBackoff: time.Millisecond},
		requestLog:    NewRequestLogger(logger, "mcp", "minimal"),
		errorReporter: NewErrorReporter(logger),
	}
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: text}},
	}
}

func TestMCPAnalyzerParsesResponse(t *testing.T) {
	stub := &stubMCP{result: textResult(
		`{"risks":[{"type":"missing_privacy_notice","description":"No notice","severity":"medium"}],"suggestions":[]}`,
	)}
	a := newTestMCPAnalyzer(stub)

	analysis, err := a.AnalyzeCompliance(context.Background(), "document text", []core.Finding{
		{Category: core.CategoryEmail, Offset: 3},
	})
	require.NoError(t, err)

	require.Len(t, analysis.Risks, 1)
	assert.Equal(t, core.RiskMissingPrivacyNotice, analysis.Risks[0].Kind)

	assert.Equal(t, "compliance.analyze", stub.last.Params.Name)
	prompt, _ := stub.last.Params.Arguments["input"].(string)
	assert.Contains(t, prompt, "document text")
	assert.Contains(t, prompt, "email")
}

func TestMCPAnalyzerToolError(t *testing.T) {
	stub := &stubMCP{result: &mcp.CallToolResult{IsError: true}}
	a := newTestMCPAnalyzer(stub)

	_, err := a.AnalyzeCompliance(context.Background(), "doc", nil)
	require.Error(t, err)

	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, ErrorCategoryModel, analysisErr.Category)
}

func TestMCPAnalyzerTransportErrorRetries(t *testing.T) {
	stub := &stubMCP{err: errors.New("connection reset")}
	a := newTestMCPAnalyzer(stub)

	_, err := a.AnalyzeCompliance(context.Background(), "doc", nil)
	require.Error(t, err)
	assert.Equal(t, 2, stub.calls)
}

func TestMCPAnalyzerEmptyContent(t *testing.T) {
	stub := &stubMCP{result: &mcp.CallToolResult{}}
	a := newTestMCPAnalyzer(stub)

	_, err := a.AnalyzeCompliance(context.Background(), "doc", nil)
	require.Error(t, err)
}

func TestResolveMCPServerPathExplicitWins(t *testing.T) {
	t.Setenv("MCP_SERVER_PATH", "/from/env")

	path, err := ResolveMCPServerPath("/from/config")
	require.NoError(t, err)
	assert.Equal(t, "/from/config", path)

	path, err = ResolveMCPServerPath("")
	require.NoError(t, err)
	assert.Equal(t, "/from/env", path)
}
