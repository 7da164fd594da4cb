// Package cli provides the command-line interface for logdex.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/droidscope/logdex/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "logdex",
		Short: "Index and query the logcat inside Android bugreports",
		Long: `logdex extracts the logcat stream out of an Android bugreport bundle
(zip or plain text), builds a persistent full-text index for it, and
answers filtered, paginated queries against that index.

Indexes are cached per source path under ~/.logdex and invalidated
automatically when the source file's size or mtime changes.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewPrepareCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewReportsCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
