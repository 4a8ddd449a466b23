package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/seqscan/internal/logger"
	"github.com/harrison/seqscan/internal/scanner"
)

// NewFilesCommand creates the files command
func NewFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files <path>...",
		Short: "List files by extension without sequence detection",
		Long: `List files under the given paths, optionally filtered by extension.
Extensions are matched without the leading dot and support glob wildcards.

Examples:
  # All EXR files in a tree
  seqscan files -r -e exr /renders

  # jpg, jpeg and jp2 in one pass
  seqscan files -e "jp*" /photos

  # Multiple extensions
  seqscan files -e mp4 -e mov -e avi /footage`,
		Args: cobra.MinimumNArgs(1),
		RunE: runFiles,
	}

	cmd.Flags().BoolP("recursive", "r", false, "Scan subdirectories recursively")
	cmd.Flags().StringArrayP("ext", "e", nil, "File extension to match (repeatable; supports glob patterns)")
	cmd.Flags().Bool("json", false, "Print the listing as JSON on stdout")

	return cmd
}

// runFiles implements the files command logic
func runFiles(cmd *cobra.Command, args []string) error {
	recursive, _ := cmd.Flags().GetBool("recursive")
	exts, _ := cmd.Flags().GetStringArray("ext")
	jsonOut, _ := cmd.Flags().GetBool("json")

	log := logger.NewConsoleLogger(os.Stderr, "info")
	files, err := scanner.ScanFiles(args, recursive, exts, log)
	if err != nil {
		return err
	}

	if jsonOut {
		out := struct {
			Files []string `json:"files"`
			Total int      `json:"total"`
		}{Files: files, Total: len(files)}
		if out.Files == nil {
			out.Files = []string{}
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	}

	for _, f := range files {
		fmt.Fprintln(os.Stdout, f)
	}
	fmt.Fprintf(os.Stderr, "\nTotal: %d files\n", len(files))
	return nil
}
