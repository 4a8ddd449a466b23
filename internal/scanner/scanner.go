// Package scanner orchestrates two-phase parallel sequence scans: directory
// discovery first, then per-directory parse-and-group work spread across a
// bounded worker pool. Each directory is an independent unit; cross-worker
// state is limited to atomic progress counters and the final merge.
package scanner

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harrison/seqscan/internal/seq"
)

// defaultWorkers is the pool size fallback when hardware concurrency is
// not detectable.
const defaultWorkers = 8

// Logger is the subset of logging behavior the scanner needs. A nil logger
// disables logging.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// ProgressFunc receives progress updates from workers: directories done,
// total directories, and the monotonically increasing count of sequences
// found so far. Calls arrive from multiple goroutines.
type ProgressFunc func(done, total, found int)

// Result is the flat outcome of one scan invocation. Sequence order is
// unspecified; callers needing determinism sort post-hoc (for example by
// pattern string).
type Result struct {
	Seqs    []seq.Seq
	Elapsed time.Duration
	Errors  []string
}

// Scanner holds scan configuration, built up fluently:
//
//	res, err := scanner.New("/renders").
//		Recursive(true).
//		Mask("*.exr").
//		MinLen(2).
//		Scan()
type Scanner struct {
	roots     []string
	recursive bool
	mask      string
	minLen    int
	workers   int
	log       Logger
	progress  ProgressFunc
}

// New creates a Scanner for the given root paths with default settings
// (non-recursive, no mask, minimum sequence length 2, auto worker count).
func New(roots ...string) *Scanner {
	return &Scanner{roots: roots, minLen: 2}
}

// Recursive enables or disables descending into subdirectories.
func (s *Scanner) Recursive(recursive bool) *Scanner {
	s.recursive = recursive
	return s
}

// Mask sets the filename filter: an exact filename or a glob pattern.
// Empty means no filtering.
func (s *Scanner) Mask(mask string) *Scanner {
	s.mask = mask
	return s
}

// MinLen sets the minimum number of frames for a sequence to be reported.
func (s *Scanner) MinLen(minLen int) *Scanner {
	s.minLen = minLen
	return s
}

// Workers sets the worker pool size. Zero or negative selects the hardware
// concurrency, falling back to defaultWorkers.
func (s *Scanner) Workers(workers int) *Scanner {
	s.workers = workers
	return s
}

// Logger sets the logger for scan diagnostics.
func (s *Scanner) Logger(log Logger) *Scanner {
	s.log = log
	return s
}

// OnProgress sets the progress callback.
func (s *Scanner) OnProgress(fn ProgressFunc) *Scanner {
	s.progress = fn
	return s
}

// Scan runs the two-phase scan over every root in parallel and merges the
// per-root sequences and error strings. Per-directory and per-root read
// failures land in Result.Errors and never abort the scan; a non-nil error
// is returned only for configuration failures (an invalid mask), in which
// case no sequences are reported.
func (s *Scanner) Scan() (Result, error) {
	start := time.Now()

	if err := validateMask(s.mask); err != nil {
		return Result{}, err
	}

	type rootResult struct {
		seqs []seq.Seq
		errs []string
	}
	results := make([]rootResult, len(s.roots))

	var wg sync.WaitGroup
	for i, root := range s.roots {
		wg.Add(1)
		go func(i int, root string) {
			defer wg.Done()
			seqs, errs := s.scanRoot(root)
			results[i] = rootResult{seqs: seqs, errs: errs}
		}(i, root)
	}
	wg.Wait()

	res := Result{}
	for _, r := range results {
		res.Seqs = append(res.Seqs, r.seqs...)
		res.Errors = append(res.Errors, r.errs...)
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// ScanDirs enumerates the directories under root: immediate children only
// when recursive is false, the full tree otherwise. Inaccessible entries
// are logged and skipped, never fatal. The result is sorted, deduplicated,
// and always includes root itself. The error return covers only an
// unreadable root.
func ScanDirs(root string, recursive bool, log Logger) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}

	dirs := []string{root}
	if recursive {
		walkErr := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				if log != nil {
					log.Warnf("skipping inaccessible path: %v", err)
				}
				return nil
			}
			if d.IsDir() && p != root {
				dirs = append(dirs, p)
			}
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	} else {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.Join(root, e.Name()))
			}
		}
	}

	sort.Strings(dirs)
	dirs = dedupeStrings(dirs)
	return dirs, nil
}

// scanRoot runs both phases for one root. A failed phase 1 turns into a
// single error string for the root; phase 2 failures are per-directory.
func (s *Scanner) scanRoot(root string) ([]seq.Seq, []string) {
	if s.log != nil {
		s.log.Infof("phase 1: discovering directories in %s", root)
	}
	dirs, err := ScanDirs(root, s.recursive, s.log)
	if err != nil {
		return nil, []string{fmt.Sprintf("%s: %v", root, err)}
	}
	if s.log != nil {
		s.log.Infof("phase 2: processing %d directories", len(dirs))
	}
	return s.processDirs(dirs)
}

type dirResult struct {
	seqs []seq.Seq
	err  string
}

// processDirs is the phase 2 fan-out/fan-in: a fixed-size pool maps over
// the directory list, each worker parsing and grouping one directory's
// files. Grouping never crosses directories since the directory is part of
// every signature.
func (s *Scanner) processDirs(dirs []string) ([]seq.Seq, []string) {
	workers := s.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers <= 0 {
		workers = defaultWorkers
	}

	semaphore := make(chan struct{}, workers)
	results := make(chan dirResult, len(dirs))

	var wg sync.WaitGroup
	var done, found atomic.Int64

	for _, dir := range dirs {
		semaphore <- struct{}{}
		wg.Add(1)
		go func(dir string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			seqs, errStr := s.processDir(dir)
			if len(seqs) > 0 {
				found.Add(int64(len(seqs)))
			}
			d := done.Add(1)
			if s.progress != nil {
				s.progress(int(d), len(dirs), int(found.Load()))
			}
			results <- dirResult{seqs: seqs, err: errStr}
		}(dir)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []seq.Seq
	var errs []string
	for r := range results {
		all = append(all, r.seqs...)
		if r.err != "" {
			errs = append(errs, r.err)
		}
	}
	return all, errs
}

// processDir lists one directory's direct file entries, applies the mask,
// parses, groups, and filters by minimum length. A read failure yields an
// error string and zero sequences for this unit only.
func (s *Scanner) processDir(dir string) ([]seq.Seq, string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if s.log != nil {
			s.log.Warnf("error scanning %s: %v", dir, err)
		}
		return nil, fmt.Sprintf("%s: %v", dir, err)
	}

	files := make([]seq.File, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !matchMask(e.Name(), s.mask) {
			continue
		}
		files = append(files, seq.Parse(filepath.Join(dir, e.Name())))
	}
	if len(files) == 0 {
		return nil, ""
	}
	if s.log != nil {
		s.log.Debugf("processing %s (%d files)", dir, len(files))
	}

	seqs := seq.Group(files)
	filtered := seqs[:0]
	for _, sq := range seqs {
		if sq.Len() >= s.minLen {
			filtered = append(filtered, sq)
		}
	}
	return filtered, ""
}

// FromFile finds the sequence containing the given file by reading only
// its parent directory (non-recursive, no mask) and grouping restricted to
// the sub-group that contains the target. It reports false when the file
// has no digit groups or no group partner.
func FromFile(p string) (seq.Seq, bool) {
	dir := filepath.Dir(p)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return seq.Seq{}, false
	}

	target := seq.Parse(filepath.Join(dir, filepath.Base(p)))
	files := make([]seq.File, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, seq.Parse(filepath.Join(dir, e.Name())))
		}
	}
	return seq.Lookup(target, files)
}

// ScanFiles lists files under the roots (in parallel), filtered by
// extension. Extensions are matched without the leading dot and case
// insensitively; entries containing pattern characters are treated as globs
// ("jp*" matches jpg, jpeg, jp2). An empty extension list matches every
// file. Invalid glob extensions are a configuration failure.
func ScanFiles(roots []string, recursive bool, exts []string, log Logger) ([]string, error) {
	for _, e := range exts {
		if err := validateMask(e); err != nil {
			return nil, err
		}
	}

	results := make([][]string, len(roots))
	var wg sync.WaitGroup
	for i, root := range roots {
		wg.Add(1)
		go func(i int, root string) {
			defer wg.Done()
			results[i] = scanFilesRoot(root, recursive, exts, log)
		}(i, root)
	}
	wg.Wait()

	var all []string
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

func scanFilesRoot(root string, recursive bool, exts []string, log Logger) []string {
	var files []string
	walkErr := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if log != nil {
				log.Warnf("skipping inaccessible path: %v", err)
			}
			return nil
		}
		if d.IsDir() {
			if !recursive && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		if matchExt(p, exts) {
			files = append(files, p)
		}
		return nil
	})
	if walkErr != nil && log != nil {
		log.Warnf("error scanning %s: %v", root, walkErr)
	}
	return files
}

// matchExt reports whether the path's extension matches any entry in exts.
func matchExt(p string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(p), "."))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if strings.ContainsAny(e, patternChars) {
			if ok, _ := path.Match(strings.ToLower(e), ext); ok {
				return true
			}
		} else if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// patternChars are the path.Match metacharacters. A mask containing any of
// them is a glob; anything else is an exact filename.
const patternChars = "*?["

// matchMask applies the optional filename mask: exact match when the mask
// has no pattern characters, glob match otherwise. The mask is validated
// before any worker runs, so a match error here cannot occur.
func matchMask(name, mask string) bool {
	if mask == "" {
		return true
	}
	if strings.ContainsAny(mask, patternChars) {
		ok, _ := path.Match(mask, name)
		return ok
	}
	return name == mask
}

// validateMask rejects malformed glob patterns up front; an invalid mask is
// fatal to the whole invocation rather than producing per-unit errors.
func validateMask(mask string) error {
	if mask == "" || !strings.ContainsAny(mask, patternChars) {
		return nil
	}
	if _, err := path.Match(mask, "probe"); err != nil {
		return fmt.Errorf("invalid mask %q: %w", mask, err)
	}
	return nil
}

func dedupeStrings(sorted []string) []string {
	out := sorted[:0]
	for i, s := range sorted {
		if i == 0 || s != sorted[i-1] {
			out = append(out, s)
		}
	}
	return out
}
