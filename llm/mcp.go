package llm

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/phiguard/phiguard/config"
	"github.com/phiguard/phiguard/core"
)

// mcpCaller is the slice of the MCP client we use. Tests substitute a stub.
type mcpCaller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// MCPAnalyzer runs the compliance assessment through a local MCP server
// over stdio. Useful for self-hosted models and offline development.
type MCPAnalyzer struct {
	client        mcpCaller
	cfg           config.MCPConfig
	retry         RetryPolicy
	timeout       time.Duration
	requestLog    *RequestLogger
	errorReporter *ErrorReporter
}

// ResolveMCPServerPath finds the MCP server executable. Explicit config
// wins, then MCP_SERVER_PATH, then common install locations.
func ResolveMCPServerPath(configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}

	if path := os.Getenv("MCP_SERVER_PATH"); path != "" {
		return path, nil
	}

	commonPaths := []string{
		"./mcp-server",
		filepath.Join(os.Getenv("HOME"), ".local/bin/mcp-server"),
		"/usr/local/bin/mcp-server",
	}
	for _, path := range commonPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no MCP server found; set mcp.server_path or the MCP_SERVER_PATH environment variable")
}

// NewMCPAnalyzer launches the configured MCP server and wraps it as an
// Analyzer.
func NewMCPAnalyzer(mcpCfg config.MCPConfig, analyzerCfg config.AnalyzerConfig) (*MCPAnalyzer, error) {
	serverPath, err := ResolveMCPServerPath(mcpCfg.ServerPath)
	if err != nil {
		return nil, err
	}

	mcpClient, err := client.NewStdioMCPClient(serverPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP stdio client: %w", err)
	}

	logger := log.New(os.Stdout, "[phiguard] ", log.LstdFlags)

	return &MCPAnalyzer{
		client: mcpClient,
		cfg:    mcpCfg,
		retry: RetryPolicy{
			MaxAttempts:    analyzerCfg.MaxAttempts,
			InitialBackoff: analyzerCfg.InitialBackoff(),
			MaxBackoff:     analyzerCfg.MaxBackoff(),
		},
		timeout:       analyzerCfg.Timeout(),
		requestLog:    NewRequestLogger(logger, "mcp", "standard"),
		errorReporter: NewErrorReporter(logger),
	}, nil
}

// Name identifies the backend in audit records.
func (a *MCPAnalyzer) Name() string { return "mcp" }

// AnalyzeCompliance sends the prompt to the MCP server's completion tool
// and parses the structured risk assessment out of the response.
func (a *MCPAnalyzer) AnalyzeCompliance(ctx context.Context, text string, findings []core.Finding) (*core.RiskAnalysis, error) {
	requestID := uuid.New().String()
	startTime := time.Now()

	a.requestLog.Sent(requestID, a.cfg.Model, len(text), len(findings))

	prompt := BuildPrompt(text, findings)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	request := mcp.CallToolRequest{}
	request.Params.Name = a.cfg.ToolName
	request.Params.Arguments = map[string]interface{}{
		"input":      prompt,
		"model":      a.cfg.Model,
		"request_id": requestID,
	}

	var result *mcp.CallToolResult
	callErr := a.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = a.client.CallTool(ctx, request)
		if err != nil {
			return newAnalysisError(Categorize(err), err, requestID)
		}
		if result.IsError {
			return newAnalysisError(ErrorCategoryModel,
				fmt.Errorf("MCP tool returned an error"), requestID)
		}
		return nil
	})
	if callErr != nil {
		a.errorReporter.Report(callErr)
		return nil, callErr
	}

	responseText := ""
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			responseText += textContent.Text
		}
	}
	if responseText == "" {
		emptyErr := newAnalysisError(ErrorCategoryModel,
			fmt.Errorf("MCP tool response contained no text content"), requestID)
		a.errorReporter.Report(emptyErr)
		return nil, emptyErr
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
