// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/hypolog/core"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the hypolog MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(engine *core.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"Hypolog Experiment Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{engine: engine}

	// --- 1. Tool: parse_hypothesis ---
	s.AddTool(mcp.NewTool("parse_hypothesis",
		mcp.WithDescription("Extract the intervention, outcome and category from a free-text hypothesis."),
		mcp.WithString("text", mcp.Description("The hypothesis question, e.g. 'Does meditation help reduce my stress?'."), mcp.Required()),
	), h.handleParseHypothesis)

	// --- 2. Tool: list_hypotheses ---
	s.AddTool(mcp.NewTool("list_hypotheses",
		mcp.WithDescription("List stored hypotheses with their phase and verdict."),
		mcp.WithBoolean("include_archived", mcp.Description("Include archived hypotheses. Defaults to false.")),
	), h.handleListHypotheses)

	// --- 3. Tool: active_variables ---
	s.AddTool(mcp.NewTool("active_variables",
		mcp.WithDescription("List the variables to log today, merged across active hypotheses, with entry counts and the latest value."),
	), h.handleActiveVariables)

	// --- 4. Tool: baseline_status ---
	s.AddTool(mcp.NewTool("baseline_status",
		mcp.WithDescription("Report the baseline phase of a hypothesis and the days remaining."),
		mcp.WithString("hypothesis_id", mcp.Description("Hypothesis identifier or unique prefix."), mcp.Required()),
		mcp.WithBoolean("complete", mcp.Description("Mark the baseline as complete before reporting.")),
	), h.handleBaselineStatus)

	// --- 5. Tool: log_value ---
	s.AddTool(mcp.NewTool("log_value",
		mcp.WithDescription("Log a value for a variable. Same-named variables across hypotheses all receive the value."),
		mcp.WithString("variable", mcp.Description("Variable name, merge key or identifier."), mcp.Required()),
		mcp.WithNumber("value", mcp.Description("The value: 1-10 for scale, 0 or 1 for binary, any number for numeric."), mcp.Required()),
		mcp.WithString("timestamp", mcp.Description("ISO-8601 date or timestamp. Defaults to today.")),
		mcp.WithString("note", mcp.Description("Optional free-text note.")),
	), h.handleLogValue)

	// --- 6. Tool: conclude_hypothesis ---
	s.AddTool(mcp.NewTool("conclude_hypothesis",
		mcp.WithDescription("Correlate the logged intervention and outcome values and record a verdict."),
		mcp.WithString("hypothesis_id", mcp.Description("Hypothesis identifier or unique prefix."), mcp.Required()),
		mcp.WithBoolean("archive", mcp.Description("Archive the hypothesis after concluding.")),
	), h.handleConcludeHypothesis)

	return s
}

// StartMCPServer starts the hypolog MCP server on stdio.
func StartMCPServer(_ context.Context, engine *core.Engine) error {
	s := NewMCPServer(engine)
	return server.ServeStdio(s)
}
