package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
	"github.com/mvp-joe/propscan/internal/config"
	"github.com/mvp-joe/propscan/internal/graph"
	"github.com/mvp-joe/propscan/internal/storage"
)

var (
	graphDirection string
	graphDepth     int
	graphExport    string
	graphCycles    bool
	graphFormat    string
	graphDB        string
	graphRoot      string
	graphTo        string
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph [class]",
	Short: "Query the class ancestry graph",
	Long: `Build the ancestry graph from the record store and query it. The store is
scanned first when it is empty.

With a class name, prints the classes related to it in the chosen direction:
  ancestors     superclasses and mixins, transitively up to --depth
  descendants   classes inheriting from or mixing in the class
  models        the class's model references
  model_users   classes referencing the class as their model

Without a class name, prints the whole graph.

Examples:
  propscan graph Payments::Charge
  propscan graph Payments::Charge --direction descendants --depth 2
  propscan graph Payments::Charge --to ActiveRecord::Base
  propscan graph --cycles
  propscan graph --export .propscan`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringVarP(&graphDirection, "direction", "d", "ancestors", "ancestors, descendants, models or model_users")
	graphCmd.Flags().IntVar(&graphDepth, "depth", 0, "traversal depth (0 for unlimited)")
	graphCmd.Flags().StringVar(&graphExport, "export", "", "write the graph as "+graph.GraphFileName+" into this directory")
	graphCmd.Flags().BoolVar(&graphCycles, "cycles", false, "print ancestry cycles")
	graphCmd.Flags().StringVarP(&graphFormat, "format", "f", "", "output format: json or yaml (default from config)")
	graphCmd.Flags().StringVar(&graphDB, "db", "", "record store path (default from config)")
	graphCmd.Flags().StringVar(&graphRoot, "root", ".", "project directory")
	graphCmd.Flags().StringVar(&graphTo, "to", "", "print the shortest ancestor chain from class to this class")
}

// GraphQueryResponse is printed for a class query.
type GraphQueryResponse struct {
	Class     string         `json:"class" yaml:"class"`
	Direction string         `json:"direction" yaml:"direction"`
	Results   []graph.Result `json:"results" yaml:"results"`
}

func runGraph(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot([]string{graphRoot})
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	format := cfg.Output.Format
	if graphFormat != "" {
		format = graphFormat
	}

	ctx, cancel := signalContext()
	defer cancel()

	ancestry, err := loadAncestry(ctx, root, cfg, graphDB)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if graphExport != "" {
		store, err := graph.NewStorage(graphExport)
		if err != nil {
			return fmt.Errorf("failed to create graph storage: %w", err)
		}
		if err := store.Save(ancestry.Export()); err != nil {
			return fmt.Errorf("failed to export graph: %w", err)
		}
		log.Printf("Exported ancestry graph to %s", graphExport)
	}

	if graphCycles {
		cycles, err := ancestry.Cycles()
		if err != nil {
			return fmt.Errorf("failed to find cycles: %w", err)
		}
		if cycles == nil {
			cycles = [][]string{}
		}
		return writeOutput(out, format, cycles)
	}

	if len(args) == 0 {
		if graphExport != "" {
			return nil
		}
		return writeOutput(out, format, ancestry.Export())
	}

	if graphTo != "" {
		from := dsl.ParseQualifiedName(args[0]).String()
		path, err := ancestry.Path(from, dsl.ParseQualifiedName(graphTo).String())
		if err != nil {
			return err
		}
		return writeOutput(out, format, path)
	}

	resp, err := queryAncestry(ancestry, args[0], graphDirection, graphDepth)
	if err != nil {
		return err
	}
	return writeOutput(out, format, resp)
}

// loadAncestry builds the graph from the record store under root.
func loadAncestry(ctx context.Context, root string, cfg *config.Config, override string) (*graph.Ancestry, error) {
	db, err := openStore(root, cfg, override)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	if err := ensureScanned(ctx, db, root, cfg, NewCLIProgressReporter(true)); err != nil {
		return nil, err
	}
	return ancestryFromStore(db)
}

func ancestryFromStore(db *sql.DB) (*graph.Ancestry, error) {
	classes, err := storage.NewRecordReader(db).AllClasses()
	if err != nil {
		return nil, fmt.Errorf("failed to load classes: %w", err)
	}

	ancestry, err := graph.Build(classes)
	if err != nil {
		return nil, fmt.Errorf("failed to build ancestry graph: %w", err)
	}
	return ancestry, nil
}

// queryAncestry runs one directional query for class.
func queryAncestry(ancestry *graph.Ancestry, class, direction string, depth int) (*GraphQueryResponse, error) {
	name := dsl.ParseQualifiedName(class).String()

	var (
		results []graph.Result
		err     error
	)
	switch direction {
	case "ancestors":
		results, err = ancestry.Ancestors(name, depth)
	case "descendants":
		results, err = ancestry.Descendants(name, depth)
	case "models":
		results, err = directResults(ancestry.Models(name))
	case "model_users":
		results, err = directResults(ancestry.ModelUsers(name))
	default:
		return nil, fmt.Errorf("unknown direction %q (expected ancestors, descendants, models or model_users)", direction)
	}
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []graph.Result{}
	}

	return &GraphQueryResponse{
		Class:     name,
		Direction: direction,
		Results:   results,
	}, nil
}

func directResults(nodes []*graph.Node, err error) ([]graph.Result, error) {
	if err != nil {
		return nil, err
	}
	results := make([]graph.Result, 0, len(nodes))
	for _, node := range nodes {
		results = append(results, graph.Result{Node: node, Depth: 1})
	}
	return results, nil
}
