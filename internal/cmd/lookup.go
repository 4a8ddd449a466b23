package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/seqscan/internal/scanner"
)

// NewLookupCommand creates the lookup command
func NewLookupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup <file>",
		Short: "Find the sequence a single file belongs to",
		Long: `Find the sequence containing one file by scanning only its parent
directory. The file must have at least one digit group in its name and at
least one partner file in the same sequence.

Examples:
  # Identify a frame's sequence
  seqscan lookup /renders/shot_0042.exr

  # Resolve the path of another frame in the same sequence
  seqscan lookup /renders/shot_0042.exr --frame 100

  # Print every path in the sequence's range
  seqscan lookup /renders/shot_0042.exr --expand`,
		Args: cobra.ExactArgs(1),
		RunE: runLookup,
	}

	cmd.Flags().Int64("frame", 0, "Resolve the path for this frame number")
	cmd.Flags().Bool("expand", false, "Print every path from start to end")

	return cmd
}

// runLookup implements the lookup command logic
func runLookup(cmd *cobra.Command, args []string) error {
	sq, ok := scanner.FromFile(args[0])
	if !ok {
		return fmt.Errorf("no sequence found for %s", args[0])
	}

	if sq.IsComplete() {
		fmt.Fprintf(os.Stdout, "%s [%d-%d] (%d files)\n", sq.Pattern, sq.Start, sq.End, sq.Len())
	} else {
		fmt.Fprintf(os.Stdout, "%s [%d-%d] (%d files, %d missed)\n", sq.Pattern, sq.Start, sq.End, sq.Len(), len(sq.Missed))
	}

	if cmd.Flags().Changed("frame") {
		frame, _ := cmd.Flags().GetInt64("frame")
		path, ok := sq.GetFile(frame)
		if !ok {
			return fmt.Errorf("frame %d is not in the sequence", frame)
		}
		fmt.Fprintln(os.Stdout, path)
	}

	if expand, _ := cmd.Flags().GetBool("expand"); expand {
		paths, err := sq.Expand()
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintln(os.Stdout, p)
		}
	}
	return nil
}
