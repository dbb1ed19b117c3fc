// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/gitreport/internal/contract"
	"github.com/huangsam/gitreport/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the gitreport MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"gitreport",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: analyze_repository ---
	s.AddTool(mcp.NewTool("analyze_repository",
		mcp.WithDescription("Summarize the git history of a repository: commit activity, contributors, languages changed and language composition."),
		mcp.WithString("repo_path", mcp.Description("Path to the Git repository (defaults to the server's configured path).")),
		mcp.WithString("ref", mcp.Description("Reference to analyze, such as a branch, tag or commit. Defaults to HEAD.")),
		mcp.WithString("granularity", mcp.Description("Activity bucket width. Defaults to 'day'."),
			mcp.Enum(string(schema.DayGranularity), string(schema.WeekGranularity), string(schema.MonthGranularity))),
		mcp.WithString("since", mcp.Description("Only count commits after this time (RFC3339 or e.g. '6 months ago').")),
		mcp.WithString("until", mcp.Description("Only count commits before this time (RFC3339 or e.g. '1 week ago').")),
		mcp.WithNumber("max_commits", mcp.Description("Stop after this many commits.")),
		mcp.WithNumber("limit", mcp.Description("Number of contributors returned.")),
	), h.handleAnalyzeRepository)

	// --- 2. Tool: classify_paths ---
	s.AddTool(mcp.NewTool("classify_paths",
		mcp.WithDescription("Classify file paths into programming languages the same way reports do."),
		mcp.WithString("paths", mcp.Description("Comma or newline separated file paths."), mcp.Required()),
	), h.handleClassifyPaths)

	return s
}

// StartMCPServer starts the gitreport MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
