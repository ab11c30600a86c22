package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codegraph/internal/appconfig"
	"codegraph/internal/apperrors"
)

var rootCmd = &cobra.Command{
	Use:   "code-graph",
	Short: "code-graph - persistent symbol graph and MCP tool server",
	Long: `code-graph builds and maintains a persistent symbol graph for a
repository (functions, classes, imports, and the edges between them) and
serves it to LLM tooling over an MCP-compatible tool server.`,
	PersistentPreRunE: requireProject,
}

func init() {
	rootCmd.SilenceUsage = true
}

// requireProject is the PersistentPreRunE shared by every subcommand except
// init: per spec §6, a command run against an uninitialised project exits 1.
// initCmd overrides this with its own no-op PersistentPreRunE.
func requireProject(cmd *cobra.Command, args []string) error {
	repoRoot, err := getRepoRoot()
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to resolve repository root", err)
	}
	if !appconfig.Exists(repoRoot) {
		return apperrors.New(apperrors.NotInitialised,
			fmt.Sprintf("project not initialised at %s (run 'code-graph init' first)", repoRoot))
	}
	return nil
}
