// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/symnet/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the symnet MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"Symnet Symptom Network Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: build_symptom_network ---
	s.AddTool(mcp.NewTool("build_symptom_network",
		mcp.WithDescription("Build the temporal symptom network of one subject from EMA data. Returns nodes with layout and centrality, directed edges and the coefficient matrix."),
		mcp.WithString("subject", mcp.Description("Identifier of the subject to analyze."), mcp.Required()),
		mcp.WithString("data_path", mcp.Description("Path to a CSV or Parquet EMA file (defaults to the configured --data).")),
		mcp.WithNumber("threshold", mcp.Description("Minimum absolute coefficient kept as an edge. Defaults to the configured threshold.")),
		mcp.WithString("symptoms", mcp.Description("Comma-separated symptoms to track. Overrides symptom_set.")),
		mcp.WithString("symptom_set", mcp.Description("Named symptom set from the catalog, or 'columns' for every numeric column.")),
		mcp.WithBoolean("exclude_self", mcp.Description("Drop each symptom's own lag from its predictors.")),
	), h.handleBuildSymptomNetwork)

	// --- 2. Tool: get_coefficient_matrix ---
	s.AddTool(mcp.NewTool("get_coefficient_matrix",
		mcp.WithDescription("Estimate the full lag-1 coefficient matrix of one subject, including outcomes that could not be estimated."),
		mcp.WithString("subject", mcp.Description("Identifier of the subject to analyze."), mcp.Required()),
		mcp.WithString("data_path", mcp.Description("Path to a CSV or Parquet EMA file.")),
		mcp.WithString("symptoms", mcp.Description("Comma-separated symptoms to track.")),
		mcp.WithString("symptom_set", mcp.Description("Named symptom set from the catalog.")),
		mcp.WithBoolean("exclude_self", mcp.Description("Drop each symptom's own lag from its predictors.")),
	), h.handleGetCoefficientMatrix)

	// --- 3. Tool: list_subjects ---
	s.AddTool(mcp.NewTool("list_subjects",
		mcp.WithDescription("List the subjects in an EMA file with observation counts and time spans."),
		mcp.WithString("data_path", mcp.Description("Path to a CSV or Parquet EMA file.")),
		mcp.WithNumber("min_observations", mcp.Description("Subjects with fewer observations are flagged as sparse.")),
	), h.handleListSubjects)

	return s
}

// StartMCPServer starts the symnet MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager, version string) error {
	s := NewMCPServer(baseCfg, mgr, version)
	return server.ServeStdio(s)
}
