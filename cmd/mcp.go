package cmd

import (
	"github.com/huangsam/gitreport/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp [repo-path]",
	Short: "Start the gitreport MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents build repository reports
and classify paths via standard tools.

The repository path, cache and run history flags act as defaults for every tool call.`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
