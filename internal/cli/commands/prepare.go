package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/droidscope/logdex/internal/models"
)

// PrepareOptions holds command-line options for the prepare command.
type PrepareOptions struct {
	GlobalOptions
	TraceID string
	AsJSON  bool
}

// NewPrepareCommand creates the prepare command.
func NewPrepareCommand() *cobra.Command {
	opts := &PrepareOptions{}

	cmd := &cobra.Command{
		Use:   "prepare <bugreport>",
		Short: "Build (or reuse) the index for a bugreport",
		Long: `Build the logcat index for a bugreport zip or plain-text export.

If an index built from the same file (same size and mtime) already
exists, it is reused without re-scanning the source.

Example:
  logdex prepare bugreport-2026-08-24.zip
  logdex prepare --json extracted-logcat.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrepare(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Cache root (default ~/.logdex)")
	cmd.Flags().StringVar(&opts.TraceID, "trace-id", "", "Trace id to tag the build logs with")
	cmd.Flags().BoolVar(&opts.AsJSON, "json", false, "Print the summary as JSON")

	return cmd
}

func runPrepare(path string, opts *PrepareOptions) error {
	logger := newLogger()

	svc, _, err := newService(opts.GlobalOptions, logger)
	if err != nil {
		return err
	}

	if opts.TraceID == "" {
		opts.TraceID = uuid.NewString()
	}

	summary, err := svc.Prepare(path, opts.TraceID)
	if err != nil {
		return err
	}

	if opts.AsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Printf("Report:     %s\n", summary.ReportID)
	fmt.Printf("Index:      %s\n", summary.DBPath)
	fmt.Printf("Rows:       %d\n", summary.TotalRows)
	fmt.Printf("Time range: %s .. %s\n", summary.MinTs, summary.MaxTs)
	fmt.Printf("Levels:     ")
	for _, lvl := range []string{"V", "D", "I", "W", "E", "F"} {
		if n := summary.Levels[models.Level(lvl)]; n > 0 {
			fmt.Printf("%s=%d ", lvl, n)
		}
	}
	fmt.Println()
	return nil
}
