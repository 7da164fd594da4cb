package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/droidscope/logdex/internal/models"
)

// QueryOptions holds command-line options for the query command.
type QueryOptions struct {
	GlobalOptions
	Levels   []string
	Tag      string
	PID      int
	Terms    []string
	Excludes []string
	StartTs  string
	EndTs    string
	Offset   int64
	Limit    int64
	AsJSON   bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query <report-id>",
		Short: "Run a filtered, paginated query against a prepared index",
		Long: `Query an index previously built with "logdex prepare".

Rows come back ordered by timestamp (then insertion order), so repeated
calls with increasing --offset walk the log deterministically.

Example:
  logdex query 1a2b3c4d5e6f7a8b --level E --level F
  logdex query 1a2b3c4d5e6f7a8b --tag ActivityManager --term ANR
  logdex query 1a2b3c4d5e6f7a8b --exclude chatty --limit 500 --offset 500`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(args[0], cmd.Flags().Changed("pid"), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to YAML config file")
	cmd.Flags().StringVar(&opts.CacheDir, "cache-dir", "", "Cache root (default ~/.logdex)")
	cmd.Flags().StringArrayVarP(&opts.Levels, "level", "l", nil, "Level filter, repeatable (V, D, I, W, E, F)")
	cmd.Flags().StringVarP(&opts.Tag, "tag", "t", "", "Exact tag filter")
	cmd.Flags().IntVar(&opts.PID, "pid", 0, "Exact pid filter")
	cmd.Flags().StringArrayVar(&opts.Terms, "term", nil, "Full-text include term, repeatable (terms OR together)")
	cmd.Flags().StringArrayVar(&opts.Excludes, "exclude", nil, "Full-text exclude term, repeatable")
	cmd.Flags().StringVar(&opts.StartTs, "start", "", `Range start, "MM-DD HH:MM:SS.mmm"`)
	cmd.Flags().StringVar(&opts.EndTs, "end", "", `Range end, "MM-DD HH:MM:SS.mmm"`)
	cmd.Flags().Int64Var(&opts.Offset, "offset", 0, "Pagination offset")
	cmd.Flags().Int64Var(&opts.Limit, "limit", 0, "Page size (default 200, max 500)")
	cmd.Flags().BoolVar(&opts.AsJSON, "json", false, "Print the page as JSON")

	return cmd
}

func runQuery(reportID string, pidSet bool, opts *QueryOptions) error {
	logger := newLogger()

	svc, _, err := newService(opts.GlobalOptions, logger)
	if err != nil {
		return err
	}

	filter := models.FilterSpec{
		Levels:       opts.Levels,
		Tag:          opts.Tag,
		TextTerms:    opts.Terms,
		TextExcludes: opts.Excludes,
		StartTs:      opts.StartTs,
		EndTs:        opts.EndTs,
	}
	if pidSet {
		filter.PID = &opts.PID
	}

	page, err := svc.Query(reportID, filter, opts.Offset, opts.Limit)
	if err != nil {
		return err
	}

	if opts.AsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	for _, row := range page.Rows {
		fmt.Println(row.RawLine)
	}
	if page.HasMore {
		fmt.Fprintf(os.Stderr, "-- more rows available, next offset %d --\n", page.NextOffset)
	}
	return nil
}
