// Package report renders scan results for presentation and writes report
// files atomically, guarded by a file lock so concurrent seqscan runs
// cannot interleave writes to the same report path.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"

	"github.com/harrison/seqscan/internal/scanner"
	"github.com/harrison/seqscan/internal/seq"
)

// Report is the presentation projection of a scan result. Sequences are
// sorted by pattern for deterministic output.
type Report struct {
	Sequences      []seq.Seq `json:"sequences"`
	TotalSequences int       `json:"total_sequences"`
	TotalFiles     int       `json:"total_files"`
	ElapsedMS      float64   `json:"elapsed_ms"`
	Errors         []string  `json:"errors"`
}

// New builds a Report from a scan result, sorting sequences by pattern.
func New(res scanner.Result) Report {
	seqs := make([]seq.Seq, len(res.Seqs))
	copy(seqs, res.Seqs)
	sort.Slice(seqs, func(i, j int) bool { return seqs[i].Pattern < seqs[j].Pattern })

	totalFiles := 0
	for _, s := range seqs {
		totalFiles += s.Len()
	}

	errors := res.Errors
	if errors == nil {
		errors = []string{}
	}

	return Report{
		Sequences:      seqs,
		TotalSequences: len(seqs),
		TotalFiles:     totalFiles,
		ElapsedMS:      float64(res.Elapsed) / float64(time.Millisecond),
		Errors:         errors,
	}
}

// JSON renders the report as indented JSON.
func (r Report) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteText renders the human-readable report.
func (r Report) WriteText(w io.Writer) {
	if len(r.Sequences) == 0 {
		fmt.Fprintln(w, "No sequences found.")
		return
	}

	fmt.Fprintln(w, "Sequences:")
	for _, s := range r.Sequences {
		if s.IsComplete() {
			fmt.Fprintf(w, "  %s [%d-%d] (%d files)\n", s.Pattern, s.Start, s.End, s.Len())
		} else {
			fmt.Fprintf(w, "  %s [%d-%d] (%d files, %d missed)\n", s.Pattern, s.Start, s.End, s.Len(), len(s.Missed))
		}
	}
	fmt.Fprintf(w, "\nSummary: %d sequences, %d files\n", r.TotalSequences, r.TotalFiles)
}

// WriteFile writes the report as JSON to path, holding an exclusive lock on
// path + ".lock" for the duration of an atomic temp-file-and-rename write.
func (r Report) WriteFile(path string) error {
	data, err := r.JSON()
	if err != nil {
		return err
	}

	// The lock file lives next to the report, so the directory must exist
	// before the lock can be created.
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", path, err)
	}
	defer lock.Unlock()

	return atomicWrite(path, data)
}

// atomicWrite writes data via a temp file in the target directory followed
// by a rename, so readers never observe a partial report.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	// Rename within the same directory is atomic on the same filesystem.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	tmp = nil
	return nil
}
