package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"codegraph/internal/apperrors"
	"codegraph/internal/resolver"
	"codegraph/internal/scanner"
	"codegraph/internal/watcher"
)

var watchQuiet bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the project for file changes and keep the graph in sync",
	Long: `watch runs an external-collaborator file watcher (spec §5): changed
files are debounced 500ms per path, then reconciled into the graph via the
same Update path 'code-graph update' uses, followed by a resolve pass.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchQuiet, "quiet", "q", false, "Suppress per-change output")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	repoRoot := mustGetRepoRoot()

	st, _, err := openProjectStore(repoRoot, logger)
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to open project", err)
	}
	defer st.Close()

	sc := scanner.New(repoRoot, st, logger)
	res := resolver.New(st, logger)

	handler := func(path string) {
		result, err := sc.Update([]string{path})
		if err != nil {
			logger.Error("watch reconcile failed", map[string]interface{}{"path": path, "error": err.Error()})
			return
		}
		if _, err := res.Resolve(); err != nil {
			logger.Error("watch resolve failed", map[string]interface{}{"path": path, "error": err.Error()})
			return
		}
		if !watchQuiet {
			fmt.Printf("changed: %s (processed=%d deleted=%d errors=%d)\n",
				path, result.Processed, result.Deleted, result.Errors)
		}
	}

	w := watcher.New(repoRoot, watcher.DefaultConfig(), logger, handler)
	if err := w.Start(); err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to start watcher", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	fmt.Println("Watching for changes (Ctrl+C to stop)...")
	<-sigCh

	return w.Stop()
}
