package main

import (
	"github.com/spf13/cobra"

	"codegraph/internal/apperrors"
	"codegraph/internal/mcpserver"
)

var serveMCP bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the graph over the MCP tool-server protocol",
	Long: `serve starts the line-delimited JSON-RPC 2.0 tool server described in
spec §6, reading requests from stdin and writing responses to stdout. This
is the entrypoint an MCP-compatible client launches as a subprocess.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMCP, "mcp", true, "Serve the MCP tool-server protocol (the only supported mode)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	repoRoot := mustGetRepoRoot()

	st, _, err := openProjectStore(repoRoot, logger)
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to open project", err)
	}
	defer st.Close()

	srv := mcpserver.New(repoRoot, st, logger)
	return srv.Start()
}
