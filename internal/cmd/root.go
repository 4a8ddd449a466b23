package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for seqscan
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seqscan",
		Short: "Fast file sequence scanner for media production pipelines",
		Long: `Seqscan detects numbered file sequences inside directory trees: sets of
files that differ only by an embedded frame number (render_0001.exr ...
render_0100.exr), reporting each sequence's range, padding, and missing
frames.

Detection handles padded and unpadded numbering, filenames with multiple
digit groups, and interleaved unrelated files. Directories are processed
in parallel across a worker pool.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	// Add subcommands
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewFilesCommand())
	cmd.AddCommand(NewLookupCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
