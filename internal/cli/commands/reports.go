package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewReportsCommand creates the reports command group.
func NewReportsCommand() *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Manage cached report indexes",
	}
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to YAML config file")
	cmd.PersistentFlags().StringVar(&opts.CacheDir, "cache-dir", "", "Cache root (default ~/.logdex)")

	cmd.AddCommand(newReportsListCommand(opts))
	cmd.AddCommand(newReportsRemoveCommand(opts))

	return cmd
}

func newReportsListCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached report indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := newService(*opts, newLogger())
			if err != nil {
				return err
			}

			reports, err := svc.List()
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Println("No cached reports.")
				return nil
			}

			for _, m := range reports {
				fmt.Printf("%s  %8d rows  %s\n", m.ReportID, m.TotalRows, m.SourcePath)
			}
			return nil
		},
	}
}

func newReportsRemoveCommand(opts *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <report-id>",
		Short: "Remove a cached report index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := newService(*opts, newLogger())
			if err != nil {
				return err
			}

			if err := svc.Delete(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed %s\n", args[0])
			return nil
		},
	}
}
