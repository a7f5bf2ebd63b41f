package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/thaafei/domainx/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the DomainX MCP server",
	Long: `Launch an MCP server over stdio that lets AI agents list domains, rank them
and manage category weights via standard tools.

Logs go to stderr so that stdout stays reserved for the protocol.`,
	Args:    cobra.NoArgs,
	PreRunE: sharedSetup,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := watchRules(ctx); err != nil {
			return err
		}
		return mcp.StartMCPServer(ctx, cfg, storeManager, ruleProvider)
	},
}
