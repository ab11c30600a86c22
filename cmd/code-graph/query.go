package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"codegraph/internal/apperrors"
	"codegraph/internal/graph"
	"codegraph/internal/store"
)

var (
	queryJSON bool
	queryYAML bool
)

var queryCmd = &cobra.Command{
	Use:   "query <stats|file|search|refs|callers|callees|type> [args]",
	Short: "Query the graph directly from the CLI",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "Output as JSON")
	queryCmd.Flags().BoolVar(&queryYAML, "yaml", false, "Output as YAML")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	repoRoot := mustGetRepoRoot()

	st, _, err := openProjectStore(repoRoot, logger)
	if err != nil {
		return apperrors.Wrap(apperrors.IOFailure, "failed to open project", err)
	}
	defer st.Close()

	sub := args[0]
	rest := args[1:]

	var result interface{}
	switch sub {
	case "stats":
		result, err = queryStats(st)
	case "file":
		result, err = queryFile(st, rest)
	case "search":
		result, err = querySearch(st, rest)
	case "refs":
		result, err = queryRefs(st, rest)
	case "callers":
		result, err = queryCallers(st, rest)
	case "callees":
		result, err = queryCallees(st, rest)
	case "type":
		result, err = queryType(st, rest)
	default:
		return apperrors.New(apperrors.BadArguments, fmt.Sprintf("unknown query subcommand %q", sub))
	}
	if err != nil {
		return err
	}

	return printQueryResult(result)
}

func queryStats(st *store.Store) (interface{}, error) {
	stats, err := st.Stats()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to read stats", err)
	}
	res, err := st.ResolutionStats()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to read resolution stats", err)
	}
	return map[string]interface{}{"stats": stats, "resolution": res}, nil
}

func queryFile(st *store.Store, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, apperrors.New(apperrors.BadArguments, "query file requires a file path")
	}
	fc, err := st.FileContext(args[0])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to read file context", err)
	}
	return fc, nil
}

func querySearch(st *store.Store, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, apperrors.New(apperrors.BadArguments, "query search requires a name substring")
	}
	nodes, err := st.SearchByName(args[0], 100)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "search failed", err)
	}
	return nodes, nil
}

func queryRefs(st *store.Store, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, apperrors.New(apperrors.BadArguments, "query refs requires a symbol name")
	}
	def, err := findExactOrSuggestForQuery(st, args[0])
	if err != nil {
		return nil, err
	}
	edges, err := st.ResolvedUsersOf(def.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to read references", err)
	}
	return map[string]interface{}{"definition": def, "references": edges}, nil
}

func queryCallers(st *store.Store, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, apperrors.New(apperrors.BadArguments, "query callers requires a function name")
	}
	def, err := findExactOrSuggestForQuery(st, args[0])
	if err != nil {
		return nil, err
	}
	callers, err := st.ResolvedCallersOf(def.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to read callers", err)
	}
	return map[string]interface{}{"function": def, "callers": callers}, nil
}

func queryCallees(st *store.Store, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, apperrors.New(apperrors.BadArguments, "query callees requires a function name")
	}
	def, err := findExactOrSuggestForQuery(st, args[0])
	if err != nil {
		return nil, err
	}
	callees, err := st.ResolvedCalleesOf(def.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to read callees", err)
	}
	return map[string]interface{}{"function": def, "callees": callees}, nil
}

func queryType(st *store.Store, args []string) (interface{}, error) {
	if len(args) < 1 {
		return nil, apperrors.New(apperrors.BadArguments, "query type requires a node type")
	}
	nodes, err := st.GetByType(graph.NodeType(args[0]))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "failed to query by type", err)
	}
	return nodes, nil
}

// findExactOrSuggestForQuery mirrors the MCP tool server's exact-match-first
// symbol lookup (internal/mcpserver), reimplemented here since the CLI's
// query command is a separate entrypoint with no server to delegate to.
func findExactOrSuggestForQuery(st *store.Store, name string) (*graph.Node, error) {
	nodes, err := st.SearchByName(name, 200)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.IOFailure, "symbol search failed", err)
	}
	for _, n := range nodes {
		if n.Name == name || queryShortName(n.Name) == name {
			return n, nil
		}
	}
	if len(nodes) > 0 {
		return nodes[0], nil
	}

	suggestions, _ := st.SearchByName(name, 5)
	names := make([]string, 0, len(suggestions))
	for _, n := range suggestions {
		names = append(names, n.Name)
	}
	return nil, apperrors.New(apperrors.SymbolNotFound, fmt.Sprintf("no symbol matching %q", name)).
		WithDetails(map[string]interface{}{"suggestions": names})
}

func queryShortName(name string) string {
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return name
	}
	return name[idx+1:]
}

func printQueryResult(result interface{}) error {
	switch {
	case queryYAML:
		data, err := yaml.Marshal(result)
		if err != nil {
			return apperrors.Wrap(apperrors.IOFailure, "failed to encode yaml", err)
		}
		fmt.Print(string(data))
	default:
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return apperrors.Wrap(apperrors.IOFailure, "failed to encode json", err)
		}
		fmt.Println(string(data))
	}
	return nil
}
