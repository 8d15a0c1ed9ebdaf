package mcp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/symnet/internal/contract"
	mcp_internal "github.com/huangsam/symnet/internal/mcp"
	"github.com/huangsam/symnet/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeEMA writes two subjects where sleep follows mood by one step.
func writeEMA(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("PatientID,Timestamp,mood,sleep\n")
	for s, subject := range []string{"S1", "S2"} {
		prev := 0.0
		for i := range 40 {
			mood := float64((i*7+s*3)%11) - 5
			fmt.Fprintf(&b, "%s,2024-03-%02d %02d:00:00,%g,%g\n", subject, 1+i/24, i%24, mood, 0.8*prev)
			prev = mood
		}
	}
	path := filepath.Join(t.TempDir(), "ema.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func baseConfig() *contract.Config {
	return &contract.Config{
		Threshold:       0.3,
		Dedup:           schema.DedupNone,
		MinObservations: contract.DefaultMinObservations,
		Workers:         1,
		LayoutSeed:      contract.DefaultLayoutSeed,
		Precision:       contract.DefaultPrecision,
	}
}

func call(t *testing.T, name string, args map[string]any, cfg *contract.Config) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(cfg, nil, "test")
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	t.Run("build_symptom_network missing subject", func(t *testing.T) {
		res := call(t, "build_symptom_network", map[string]any{"data_path": "ema.csv"}, baseConfig())
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, text(res), "--subject is required")
	})

	t.Run("get_coefficient_matrix missing data", func(t *testing.T) {
		res := call(t, "get_coefficient_matrix", map[string]any{"subject": "S1"}, baseConfig())
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "--data is required")
	})

	t.Run("unknown symptom set", func(t *testing.T) {
		res := call(t, "build_symptom_network", map[string]any{
			"subject": "S1", "data_path": "ema.csv", "symptom_set": "nope",
		}, baseConfig())
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "unknown symptom set")
	})

	t.Run("list_subjects missing data", func(t *testing.T) {
		res := call(t, "list_subjects", map[string]any{}, baseConfig())
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "--data is required")
	})

	t.Run("negative threshold", func(t *testing.T) {
		res := call(t, "build_symptom_network", map[string]any{
			"subject": "S1", "data_path": writeEMA(t), "threshold": -1.0,
		}, baseConfig())
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "network build failed")
	})
}

func TestMCPServerHandlers_Results(t *testing.T) {
	cfg := baseConfig()
	cfg.DataPath = writeEMA(t)

	t.Run("build_symptom_network", func(t *testing.T) {
		res := call(t, "build_symptom_network", map[string]any{"subject": "S2", "threshold": 0.5}, cfg)
		require.False(t, res.IsError, text(res))

		var result schema.NetworkResult
		require.NoError(t, json.Unmarshal([]byte(text(res)), &result))
		assert.Equal(t, "S2", result.Subject)
		assert.Equal(t, 0.5, result.Threshold)
		assert.Len(t, result.Nodes, 2)
	})

	t.Run("get_coefficient_matrix", func(t *testing.T) {
		res := call(t, "get_coefficient_matrix", map[string]any{"subject": "S1", "symptoms": "sleep,mood"}, cfg)
		require.False(t, res.IsError, text(res))

		var matrix schema.CoefficientTable
		require.NoError(t, json.Unmarshal([]byte(text(res)), &matrix))
		assert.Equal(t, []string{"sleep", "mood"}, matrix.Symptoms)
		assert.Len(t, matrix.Rows, 2)
	})

	t.Run("list_subjects", func(t *testing.T) {
		res := call(t, "list_subjects", map[string]any{"min_observations": 50.0}, cfg)
		require.False(t, res.IsError, text(res))

		var subjects []schema.SubjectInfo
		require.NoError(t, json.Unmarshal([]byte(text(res)), &subjects))
		require.Len(t, subjects, 2)
		assert.Equal(t, 40, subjects[0].Observations)
		assert.True(t, subjects[0].Sparse)
	})

	// The base config is never mutated by a call
	assert.Equal(t, 0.3, cfg.Threshold)
	assert.Empty(t, cfg.Subject)
}
