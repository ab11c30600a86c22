package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codegraph/internal/apperrors"
	"codegraph/internal/resolver"
	"codegraph/internal/scanner"
)

var (
	syncQuiet       bool
	syncFull        bool
	syncSkipResolve bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Full sync: reconcile the graph against every file in the project",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().BoolVarP(&syncQuiet, "quiet", "q", false, "Suppress progress output")
	syncCmd.Flags().BoolVar(&syncFull, "full", false, "Full sync (the default; accepted for CLI compatibility)")
	syncCmd.Flags().BoolVar(&syncSkipResolve, "skip-resolve", false, "Skip the resolver pass after scanning")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	repoRoot := mustGetRepoRoot()

	st, cfg, err := openProjectStore(repoRoot, logger)
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to open project", err)
	}
	defer st.Close()

	sc := scanner.New(repoRoot, st, logger)
	result, err := sc.FullSync(cfg)
	if err != nil {
		return apperrors.Wrap(apperrors.ParseFailure, "full sync failed", err)
	}

	if !syncQuiet {
		fmt.Printf("Scanned: %d processed, %d deleted, %d errors\n",
			result.Processed, result.Deleted, result.Errors)
	}

	if syncSkipResolve {
		return nil
	}

	res := resolver.New(st, logger)
	rr, err := res.Resolve()
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "resolution pass failed", err)
	}
	if !syncQuiet {
		fmt.Printf("Resolved: %d resolved, %d ambiguous, %d unresolved\n",
			rr.Resolved, rr.Ambiguous, rr.Unresolved)
	}

	return nil
}
