package cmd

import (
	"github.com/huangsam/symnet/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the symnet MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents build symptom networks,
inspect coefficient matrices and list subjects through standard tools.

The data file may be given per tool call, so --data is optional here.
Logs go to stderr because stdout carries the protocol.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		input.DataOptional = true
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager, version)
	},
}
