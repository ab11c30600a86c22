package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"codegraph/internal/appconfig"
	"codegraph/internal/apperrors"
	"codegraph/internal/graph"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a .code-graph/ project",
	Long:  "Creates a .code-graph/ directory with default configuration in the current repository root",
	// Skips requireProject: init is exactly the command that creates it.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Reinitialize, removing the existing .code-graph directory")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	repoRoot := mustGetRepoRoot()

	dir := filepath.Join(repoRoot, appconfig.ConfigDir)
	if _, err := os.Stat(dir); err == nil {
		if !initForce {
			fmt.Println("code-graph already initialized.")
			fmt.Printf("Configuration at: %s\n", appconfig.Path(repoRoot))
			fmt.Println("\nRun 'code-graph init --force' to reinitialize.")
			return nil
		}
		if err := os.RemoveAll(dir); err != nil {
			return apperrors.Wrap(apperrors.IOFailure, "failed to remove existing .code-graph directory", err)
		}
		logger.Info("removed existing .code-graph directory", nil)
	}

	if err := appconfig.Save(repoRoot, graph.DefaultProjectConfig()); err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to write config", err)
	}
	if err := appconfig.WriteGitignore(repoRoot); err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to write .gitignore", err)
	}

	logger.Info("code-graph initialized", map[string]interface{}{"configPath": appconfig.Path(repoRoot)})

	fmt.Println("code-graph initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", appconfig.Path(repoRoot))
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'code-graph sync' to build the initial graph")
	fmt.Println("  2. Run 'code-graph status' to see graph stats")

	return nil
}
