package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/huangsam/symnet/core"
	"github.com/huangsam/symnet/internal/contract"
	"github.com/huangsam/symnet/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// subjectConfig applies the shared per-call overrides to a copy of the base config.
func (h *toolHandler) subjectConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	cfg.Output = schema.JSONOut
	cfg.Subject = request.GetString("subject", "")
	if p := request.GetString("data_path", ""); p != "" {
		cfg.DataPath = p
	}
	cfg.Threshold = request.GetFloat("threshold", cfg.Threshold)
	cfg.ExcludeSelf = request.GetBool("exclude_self", cfg.ExcludeSelf)

	if cfg.Subject == "" {
		return nil, fmt.Errorf("--subject is required")
	}
	if cfg.DataPath == "" {
		return nil, fmt.Errorf("--data is required")
	}
	if err := contract.RevalidateSymptoms(cfg, request.GetString("symptoms", ""), request.GetString("symptom_set", "")); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (h *toolHandler) handleBuildSymptomNetwork(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.subjectConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid network parameters: %v", err)), nil
	}

	result, err := core.GetSubjectNetwork(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("network build failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetCoefficientMatrix(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.subjectConfig(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid matrix parameters: %v", err)), nil
	}

	result, err := core.GetSubjectNetwork(ctx, cfg, h.mgr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("estimation failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result.Matrix, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleListSubjects(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("data_path", ""); p != "" {
		cfg.DataPath = p
	}
	if m := request.GetInt("min_observations", 0); m > 0 {
		cfg.MinObservations = m
	}
	if cfg.DataPath == "" {
		return mcp.NewToolResultError("invalid subjects parameters: --data is required"), nil
	}

	subjects, err := core.GetSubjects(ctx, cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing subjects failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(subjects, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
