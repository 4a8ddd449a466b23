package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/seqscan/internal/config"
	"github.com/harrison/seqscan/internal/index"
	"github.com/harrison/seqscan/internal/logger"
	"github.com/harrison/seqscan/internal/report"
	"github.com/harrison/seqscan/internal/scanner"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <path>...",
		Short: "Scan directories for numbered file sequences",
		Long: `Scan one or more directory trees for numbered file sequences and report
each sequence's pattern, frame range, padding, and missing frames.

Configuration is loaded from .seqscan/config.yaml if present.
CLI flags override configuration file settings.

Examples:
  # Scan a render directory
  seqscan scan /renders

  # Recursive scan of multiple roots
  seqscan scan -r /renders /comp

  # Only consider EXR files
  seqscan scan -m "*.exr" /renders

  # JSON output on stdout
  seqscan scan --json /renders

  # Write a report file and record the run in the scan index
  seqscan scan -o report.json --index .seqscan/index.db /renders`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScan,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .seqscan/config.yaml)")
	cmd.Flags().BoolP("recursive", "r", false, "Scan subdirectories recursively")
	cmd.Flags().StringP("mask", "m", "", "Filename mask: exact name or glob pattern (*, ?, [...])")
	cmd.Flags().IntP("min", "n", 0, "Minimum sequence length (default from config, 2)")
	cmd.Flags().Int("workers", 0, "Worker pool size (0 = hardware concurrency; default from config)")
	cmd.Flags().Bool("json", false, "Print the report as JSON on stdout")
	cmd.Flags().StringP("out", "o", "", "Write the JSON report to a file")
	cmd.Flags().String("index", "", "Record the run in the scan index database at this path")

	return cmd
}

// runScan implements the scan command logic
func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadScanConfig(cmd)
	if err != nil {
		return err
	}

	log := logger.NewConsoleLogger(os.Stderr, cfg.LogLevel)

	sc := scanner.New(args...).
		Recursive(cfg.Recursive).
		Mask(cfg.Mask).
		MinLen(cfg.MinLen).
		Workers(cfg.Workers).
		Logger(log)

	// Live progress only makes sense on a terminal, and with a single root:
	// concurrent roots would fight over one bar.
	var pb *logger.ProgressBar
	if len(args) == 1 && isatty.IsTerminal(os.Stderr.Fd()) {
		pb = logger.NewProgressBar(0, 40, true)
		pb.SetPrefix("scanning ")
		sc.OnProgress(func(done, total, found int) {
			pb.SetTotal(total)
			pb.Update(done)
			pb.SetMessage(fmt.Sprintf("%d seqs found", found))
			fmt.Fprintf(os.Stderr, "\r%s", pb.Render())
		})
	}

	res, err := sc.Scan()
	if pb != nil {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	for _, e := range res.Errors {
		fmt.Fprintf(os.Stderr, "Error: %s\n", e)
	}

	rep := report.New(res)

	jsonOut, _ := cmd.Flags().GetBool("json")
	if jsonOut {
		data, err := rep.JSON()
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
	} else {
		rep.WriteText(os.Stdout)
	}

	if out, _ := cmd.Flags().GetString("out"); out != "" {
		if err := rep.WriteFile(out); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		log.Infof("report written to %s", out)
	}

	if cfg.IndexPath != "" {
		id, err := recordScan(cmd.Context(), cfg, args, res, rep)
		if err != nil {
			return fmt.Errorf("record scan: %w", err)
		}
		log.Infof("scan recorded as %s", id)
	}

	if n := len(res.Errors); n > 0 {
		return fmt.Errorf("scan completed with %d error(s)", n)
	}
	return nil
}

// loadScanConfig loads the YAML configuration and merges scan flags over it.
func loadScanConfig(cmd *cobra.Command) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err = config.LoadConfig(path)
	} else {
		cfg, err = config.LoadConfigFromDir(".")
	}
	if err != nil {
		return nil, err
	}

	var workers, minLen *int
	var mask, indexPath *string
	var recursive *bool
	if cmd.Flags().Changed("workers") {
		v, _ := cmd.Flags().GetInt("workers")
		workers = &v
	}
	if cmd.Flags().Changed("min") {
		v, _ := cmd.Flags().GetInt("min")
		minLen = &v
	}
	if cmd.Flags().Changed("mask") {
		v, _ := cmd.Flags().GetString("mask")
		mask = &v
	}
	if cmd.Flags().Changed("recursive") {
		v, _ := cmd.Flags().GetBool("recursive")
		recursive = &v
	}
	if cmd.Flags().Changed("index") {
		v, _ := cmd.Flags().GetString("index")
		indexPath = &v
	}
	cfg.MergeWithFlags(workers, minLen, mask, recursive, indexPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// recordScan saves the run and its sequences in the index database.
func recordScan(ctx context.Context, cfg *config.Config, roots []string, res scanner.Result, rep report.Report) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store, err := index.NewStore(cfg.IndexPath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	rec := index.ScanRecord{
		Roots:      roots,
		Recursive:  cfg.Recursive,
		Mask:       cfg.Mask,
		MinLen:     cfg.MinLen,
		ElapsedMS:  rep.ElapsedMS,
		ErrorCount: len(res.Errors),
	}
	return store.SaveScan(ctx, rec, rep.Sequences)
}
