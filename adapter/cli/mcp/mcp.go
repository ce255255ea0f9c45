package mcp

import "github.com/spf13/cobra"

// Cmd groups the MCP subcommands.
var Cmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose negotiation to MCP clients",
	Long: `Runs rendezvous as a Model Context Protocol server so assistants can
negotiate and finalize meeting slots with the same rules as the CLI.`,
}

func init() {
	Cmd.AddCommand(serveCmd)
}
