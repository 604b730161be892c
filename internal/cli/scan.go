package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/propscan/internal/autogen/dsl"
	"github.com/mvp-joe/propscan/internal/config"
	"github.com/mvp-joe/propscan/internal/scanner"
)

var (
	scanFormat string
	scanSave   bool
	scanDB     string
	scanQuiet  bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Extract prop declarations from Ruby files",
	Long: `Discover Ruby files under dir (default: current directory), analyze each one
and print its file record: the classes it defines with their properties,
ancestors, model reference and problem locations.

Records are written to stdout as JSON or YAML, sorted by file path. Progress
and warnings go to stderr. With --save or --db the records also replace the
contents of the SQLite record store.

Examples:
  propscan scan
  propscan scan app/models --format yaml
  propscan scan --save --quiet`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "", "output format: json or yaml (default from config)")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "persist records to the record store")
	scanCmd.Flags().StringVar(&scanDB, "db", "", "record store path (implies --save)")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "suppress progress output")
}

// scanRequest describes one invocation of the scan command.
type scanRequest struct {
	Root     string
	Config   *config.Config
	Save     bool
	DBPath   string
	Progress scanner.ProgressReporter
}

func runScan(cmd *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	format := cfg.Output.Format
	if scanFormat != "" {
		format = scanFormat
	}

	log.SetOutput(logOutput(scanQuiet))

	ctx, cancel := signalContext()
	defer cancel()

	result, err := scanProject(ctx, scanRequest{
		Root:     root,
		Config:   cfg,
		Save:     scanSave || scanDB != "",
		DBPath:   scanDB,
		Progress: NewCLIProgressReporter(scanQuiet),
	})
	if err != nil {
		return err
	}

	logFailures(result.Failures)

	if err := writeOutput(cmd.OutOrStdout(), format, recordsOrEmpty(result.Records)); err != nil {
		return err
	}

	if len(result.Failures) > 0 {
		return fmt.Errorf("%d of %d files failed to scan", len(result.Failures), len(result.Failures)+len(result.Records))
	}
	return nil
}

// scanProject discovers and analyzes the files under req.Root. When req.Save
// is set the results replace the record store contents.
func scanProject(ctx context.Context, req scanRequest) (*scanner.Result, error) {
	discovery, err := newDiscovery(req.Root, req.Config)
	if err != nil {
		return nil, err
	}

	sc, err := newScanner(req.Config, req.Progress)
	if err != nil {
		return nil, fmt.Errorf("failed to create scanner: %w", err)
	}
	defer sc.Close()

	if !req.Save {
		return sc.ScanDir(ctx, discovery)
	}

	db, err := openStore(req.Root, req.Config, req.DBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	result, runID, err := scanIntoStore(ctx, db, sc, discovery, req.Config.ScopeMode())
	if err != nil {
		return nil, err
	}
	log.Printf("Saved %d file records (run %s)", len(result.Records), runID)
	return result, nil
}

// recordsOrEmpty keeps JSON output an array when nothing was found.
func recordsOrEmpty(records []dsl.FileRecord) []dsl.FileRecord {
	if records == nil {
		return []dsl.FileRecord{}
	}
	return records
}
