package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/seqscan/internal/config"
	"github.com/harrison/seqscan/internal/index"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List scan runs recorded in the index database",
		Long: `List scan runs previously recorded with "seqscan scan --index", newest
first, or show the sequences of one recorded run.

Examples:
  # Recent runs
  seqscan history --index .seqscan/index.db

  # Sequences of one run
  seqscan history --index .seqscan/index.db --show 2f9c...`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}

	cmd.Flags().String("index", "", "Scan index database path (default from config)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list")
	cmd.Flags().String("show", "", "Show the sequences recorded for this run ID")

	return cmd
}

// runHistory implements the history command logic
func runHistory(cmd *cobra.Command, _ []string) error {
	indexPath, _ := cmd.Flags().GetString("index")
	if indexPath == "" {
		cfg, err := config.LoadConfigFromDir(".")
		if err != nil {
			return err
		}
		indexPath = cfg.IndexPath
	}
	if indexPath == "" {
		return fmt.Errorf("no index database configured: pass --index or set index_path in .seqscan/config.yaml")
	}
	if _, err := os.Stat(indexPath); err != nil {
		return fmt.Errorf("index database %s: %w", indexPath, err)
	}

	store, err := index.NewStore(indexPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if id, _ := cmd.Flags().GetString("show"); id != "" {
		return showRun(ctx, store, id)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.ListScans(ctx, limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "No recorded scans.")
		return nil
	}

	for _, rec := range records {
		flags := ""
		if rec.Recursive {
			flags = " -r"
		}
		if rec.Mask != "" {
			flags += fmt.Sprintf(" -m %q", rec.Mask)
		}
		fmt.Fprintf(os.Stdout, "%s  %s  %d seqs, %d errors, %.1fms  scan%s %s\n",
			rec.ID, rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			rec.SequenceCount, rec.ErrorCount, rec.ElapsedMS,
			flags, strings.Join(rec.Roots, " "))
	}
	return nil
}

func showRun(ctx context.Context, store *index.Store, id string) error {
	seqs, err := store.Sequences(ctx, id)
	if err != nil {
		return err
	}
	if len(seqs) == 0 {
		fmt.Fprintf(os.Stdout, "No sequences recorded for run %s.\n", id)
		return nil
	}
	for _, sq := range seqs {
		if sq.IsComplete() {
			fmt.Fprintf(os.Stdout, "  %s [%d-%d] (%d files)\n", sq.Pattern, sq.Start, sq.End, sq.Len())
		} else {
			fmt.Fprintf(os.Stdout, "  %s [%d-%d] (%d files, %d missed)\n", sq.Pattern, sq.Start, sq.End, sq.Len(), len(sq.Missed))
		}
	}
	return nil
}
