package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"codegraph/internal/apperrors"
	"codegraph/internal/resolver"
	"codegraph/internal/scanner"
)

var (
	updateFile  string
	updateFiles string
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Reconcile one or more files against the graph",
	Long: `update reconciles a specific set of files against the graph, without
re-enumerating the whole project. A path missing from disk is deleted from
the store.`,
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVar(&updateFile, "file", "", "Single file path to reconcile")
	updateCmd.Flags().StringVar(&updateFiles, "files", "", "Newline-separated list of file paths to reconcile")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	paths, err := collectUpdatePaths()
	if err != nil {
		return err
	}

	logger := newLogger()
	repoRoot := mustGetRepoRoot()

	st, _, err := openProjectStore(repoRoot, logger)
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to open project", err)
	}
	defer st.Close()

	sc := scanner.New(repoRoot, st, logger)
	result, err := sc.Update(paths)
	if err != nil {
		return apperrors.Wrap(apperrors.ParseFailure, "update failed", err)
	}
	fmt.Printf("Updated: %d processed, %d deleted, %d errors\n",
		result.Processed, result.Deleted, result.Errors)

	res := resolver.New(st, logger)
	if _, err := res.Resolve(); err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "resolution pass failed", err)
	}
	return nil
}

func collectUpdatePaths() ([]string, error) {
	if updateFile == "" && updateFiles == "" {
		return nil, apperrors.New(apperrors.BadArguments, "update requires --file or --files")
	}

	var paths []string
	if updateFile != "" {
		paths = append(paths, updateFile)
	}
	if updateFiles != "" {
		sc := bufio.NewScanner(strings.NewReader(updateFiles))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line != "" {
				paths = append(paths, line)
			}
		}
	}
	if len(paths) == 0 {
		return nil, apperrors.New(apperrors.BadArguments, "no file paths given")
	}
	return paths, nil
}
