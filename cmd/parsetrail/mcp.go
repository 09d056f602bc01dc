package main

import (
	"context"
	"log"
	"os"

	"github.com/aretw0/parsetrail/internal/cli"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve parse sessions to MCP clients",
	Long: `Lets an MCP client request traces and walk them with the parse_sentence,
replay_step and navigate tools. The parsetrail://sessions resource lists what is stored.

With --transport stdio (the default) the client launches parsetrail as a subprocess.
With --transport sse it listens on --port for remote clients.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Logs must never reach Stdout: it carries the JSON-RPC stream.
		log.SetOutput(os.Stderr)

		app, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.HandleExecutionError(cli.RunMCP(sigCtx, app, transport, port))
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	f := mcpCmd.Flags()
	f.String("transport", cli.TransportStdio, "MCP transport: stdio or sse")
	f.Int("port", 8080, "SSE listen port")
}
