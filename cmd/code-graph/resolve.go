package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"codegraph/internal/apperrors"
	"codegraph/internal/resolver"
)

var resolveQuiet bool

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Re-run the cross-file reference resolver over the current graph",
	RunE:  runResolve,
}

func init() {
	resolveCmd.Flags().BoolVarP(&resolveQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	repoRoot := mustGetRepoRoot()

	st, _, err := openProjectStore(repoRoot, logger)
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to open project", err)
	}
	defer st.Close()

	res := resolver.New(st, logger)
	rr, err := res.Resolve()
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "resolution pass failed", err)
	}

	if !resolveQuiet {
		fmt.Printf("Resolved: %d resolved, %d ambiguous, %d unresolved\n",
			rr.Resolved, rr.Ambiguous, rr.Unresolved)
	}
	return nil
}
