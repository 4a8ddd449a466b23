package seq

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// maxMissedGap is the largest gap between two consecutive observed frames
// that is still enumerated into Missed. Larger gaps are skipped entirely so
// pathological frame numbers (1 followed by 9999999) cannot exhaust memory.
const maxMissedGap = 100_000

// maxExpand bounds the total range size Expand is willing to materialize.
const maxExpand = 1_000_000

// Seq is a detected sequence of numbered files. It is built once from a
// finalized sub-group and never mutated afterwards.
type Seq struct {
	// Pattern is the path template with the frame field replaced by a
	// placeholder: '@' for unpadded sequences, a run of '#' for padded
	// ones. Directory separators are normalized to '/' for display.
	Pattern string `json:"pattern"`
	// Start and End are the minimum and maximum observed frame numbers.
	Start int64 `json:"start"`
	End   int64 `json:"end"`
	// Padding is the fixed digit width of the frame field, or 0 when member
	// widths vary (unpadded growth such as 9 -> 10).
	Padding int `json:"padding"`
	// Indices are the frame numbers actually observed, sorted, deduplicated.
	Indices []int64 `json:"indices"`
	// Missed are the frame numbers strictly between Start and End that were
	// not observed, bounded by maxMissedGap per gap.
	Missed []int64 `json:"missed"`
}

// Len returns the number of observed frames.
func (s Seq) Len() int {
	return len(s.Indices)
}

// IsComplete reports whether the sequence has no missing frames.
func (s Seq) IsComplete() bool {
	return len(s.Missed) == 0
}

// RangeCount returns the total span of the sequence including gaps.
func (s Seq) RangeCount() int64 {
	return s.End - s.Start + 1
}

// FormatFrame renders the pattern with the given frame number substituted
// for the placeholder, zero-padded when the sequence has fixed padding.
func (s Seq) FormatFrame(frame int64) string {
	if s.Padding >= 2 {
		placeholder := strings.Repeat("#", s.Padding)
		return strings.ReplaceAll(s.Pattern, placeholder, fmt.Sprintf("%0*d", s.Padding, frame))
	}
	return strings.ReplaceAll(s.Pattern, "@", strconv.FormatInt(frame, 10))
}

// GetFile returns the path for the given frame number, or false when the
// frame was not observed. Lookup is a binary search over Indices.
func (s Seq) GetFile(frame int64) (string, bool) {
	i := sort.Search(len(s.Indices), func(i int) bool { return s.Indices[i] >= frame })
	if i < len(s.Indices) && s.Indices[i] == frame {
		return s.FormatFrame(frame), true
	}
	return "", false
}

// FirstFile returns the path of the first observed frame.
func (s Seq) FirstFile() string {
	return s.FormatFrame(s.Start)
}

// LastFile returns the path of the last observed frame.
func (s Seq) LastFile() string {
	return s.FormatFrame(s.End)
}

// Expand returns a path for every integer frame from Start to End, missing
// frames included. It fails when the range exceeds maxExpand rather than
// partially succeeding.
func (s Seq) Expand() ([]string, error) {
	count := s.RangeCount()
	if count > maxExpand {
		return nil, fmt.Errorf("range too large: %d frames (max %d)", count, maxExpand)
	}
	paths := make([]string, 0, count)
	for frame := s.Start; frame <= s.End; frame++ {
		paths = append(paths, s.FormatFrame(frame))
	}
	return paths, nil
}

// ExpandExisting returns paths for the observed frames only.
func (s Seq) ExpandExisting() []string {
	paths := make([]string, 0, len(s.Indices))
	for _, frame := range s.Indices {
		paths = append(paths, s.FormatFrame(frame))
	}
	return paths
}

func (s Seq) String() string {
	if len(s.Missed) == 0 {
		return fmt.Sprintf("Seq(%q, range: %d-%d)", s.Pattern, s.Start, s.End)
	}
	return fmt.Sprintf("Seq(%q, range: %d-%d, missed: %d)", s.Pattern, s.Start, s.End, len(s.Missed))
}

// Group partitions parsed files into sequences. It consumes its input:
// files that do not survive into a sequence (no digit groups, singleton
// buckets, unparseable frame slices) are simply discarded.
//
// The algorithm buckets files by signature, selects the frame-bearing digit
// group per bucket, sub-groups by the remaining anchor values, and builds
// one Seq per sub-group with at least two surviving members. Output order
// is unspecified; callers needing determinism sort post-hoc.
func Group(files []File) []Seq {
	buckets := make(map[uint64][]File, len(files)/10+16)
	for _, f := range files {
		if !f.HasNums() {
			continue
		}
		sig := f.Signature()
		buckets[sig] = append(buckets[sig], f)
	}

	var seqs []Seq
	for _, bucket := range buckets {
		if len(bucket) < 2 {
			continue
		}
		frameIdx := findFrameGroup(bucket)
		for _, sub := range subGroupByAnchors(bucket, frameIdx) {
			if len(sub) < 2 {
				continue
			}
			if s, ok := fromFiles(sub, frameIdx); ok {
				seqs = append(seqs, s)
			}
		}
	}
	return seqs
}

// Lookup runs grouping restricted to the sub-group containing target: the
// files sharing target's signature and anchor key. It returns false when
// the target has no digit groups, no group partner, or an unparseable
// frame slice.
func Lookup(target File, files []File) (Seq, bool) {
	if !target.HasNums() {
		return Seq{}, false
	}
	sig := target.Signature()
	var bucket []File
	for _, f := range files {
		if f.HasNums() && f.Signature() == sig {
			bucket = append(bucket, f)
		}
	}
	if len(bucket) < 2 {
		return Seq{}, false
	}

	frameIdx := findFrameGroup(bucket)
	if _, ok := parseFrame(target, frameIdx); !ok {
		return Seq{}, false
	}
	key := makeAnchorKey(target, frameIdx)
	var sub []File
	for _, f := range bucket {
		if makeAnchorKey(f, frameIdx) == key {
			sub = append(sub, f)
		}
	}
	if len(sub) < 2 {
		return Seq{}, false
	}
	return fromFiles(sub, frameIdx)
}

// findFrameGroup picks which digit-group position carries the frame number:
// the position with the most distinct parsed values across the bucket.
// Ties prefer the rightmost position, encoding the convention that frame
// numbers trail other identifying digits in a filename.
//
// This is a policy, kept as a pure function over the bucket so alternate
// heuristics can be swapped without touching the grouping loop.
func findFrameGroup(files []File) int {
	maxGroups := 0
	for _, f := range files {
		if len(f.NumGroups) > maxGroups {
			maxGroups = len(f.NumGroups)
		}
	}
	if maxGroups == 0 {
		return 0
	}

	bestIdx := maxGroups - 1
	bestCount := 0
	distinct := make(map[int64]struct{}, len(files))
	for idx := 0; idx < maxGroups; idx++ {
		clear(distinct)
		for _, f := range files {
			if v, ok := parseFrame(f, idx); ok {
				distinct[v] = struct{}{}
			}
		}
		if len(distinct) >= bestCount {
			bestCount = len(distinct)
			bestIdx = idx
		}
	}
	return bestIdx
}

// parseFrame parses the digit group at idx using the file's own bounds.
// Malformed bounds or unparseable slices report false instead of aborting
// the surrounding bucket.
func parseFrame(f File, idx int) (int64, bool) {
	if idx >= len(f.NumGroups) {
		return 0, false
	}
	g := f.NumGroups[idx]
	end := g.Start + g.Len
	if g.Start < 0 || end > len(f.Name) {
		return 0, false
	}
	v, err := strconv.ParseInt(f.Name[g.Start:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// subGroupByAnchors partitions a bucket by anchor key, moving files into
// their sub-groups (no duplication).
func subGroupByAnchors(files []File, frameIdx int) map[string][]File {
	groups := make(map[string][]File)
	for _, f := range files {
		key := makeAnchorKey(f, frameIdx)
		groups[key] = append(groups[key], f)
	}
	return groups
}

// makeAnchorKey concatenates the literal text of every digit group except
// the frame group, using each member's own bounds. Per-member bounds matter
// because unpadded growth shifts digit positions (9 -> 10).
func makeAnchorKey(f File, frameIdx int) string {
	var parts []string
	for idx, g := range f.NumGroups {
		if idx == frameIdx {
			continue
		}
		end := g.Start + g.Len
		if end <= len(f.Name) {
			parts = append(parts, f.Name[g.Start:end])
		}
	}
	return strings.Join(parts, "_")
}

// fromFiles builds a Seq from a finalized sub-group. Members whose frame
// slice does not parse are dropped individually; the whole sub-group is
// rejected when fewer than two distinct frames survive.
func fromFiles(files []File, frameIdx int) (Seq, bool) {
	frames := make([]int64, 0, len(files))
	for _, f := range files {
		if v, ok := parseFrame(f, frameIdx); ok {
			frames = append(frames, v)
		}
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })
	frames = dedupe(frames)
	if len(frames) < 2 {
		return Seq{}, false
	}

	missed := make([]int64, 0)
	for i := 0; i+1 < len(frames); i++ {
		gap := frames[i+1] - frames[i]
		if gap > 1 && gap <= maxMissedGap {
			for v := frames[i] + 1; v < frames[i+1]; v++ {
				missed = append(missed, v)
			}
		}
	}

	padding := detectPadding(files, frameIdx)
	return Seq{
		Pattern: genPattern(files[0], frameIdx, padding),
		Start:   frames[0],
		End:     frames[len(frames)-1],
		Padding: padding,
		Indices: frames,
		Missed:  missed,
	}, true
}

func dedupe(sorted []int64) []int64 {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// detectPadding returns the fixed frame-field width, or 0 when member
// widths differ.
func detectPadding(files []File, frameIdx int) int {
	padding := -1
	for _, f := range files {
		if frameIdx >= len(f.NumGroups) {
			continue
		}
		w := f.NumGroups[frameIdx].Len
		if padding < 0 {
			padding = w
		} else if padding != w {
			return 0
		}
	}
	if padding < 0 {
		return 0
	}
	return padding
}

// genPattern renders one representative's name with the frame group
// replaced by a placeholder and anchor groups kept literal, then prepends
// drive and directory (separators normalized to '/') and appends the
// extension. Groups with inconsistent bounds are skipped rather than
// substituted.
func genPattern(f File, frameIdx, padding int) string {
	var b strings.Builder
	b.Grow(len(f.Name) + 10)
	pos := 0
	for idx, g := range f.NumGroups {
		end := g.Start + g.Len
		if g.Start > len(f.Name) || end > len(f.Name) || pos > g.Start {
			continue
		}
		b.WriteString(f.Name[pos:g.Start])
		if idx == frameIdx {
			if padding <= 1 {
				b.WriteByte('@')
			} else {
				b.WriteString(strings.Repeat("#", padding))
			}
		} else {
			b.WriteString(f.Name[g.Start:end])
		}
		pos = end
	}
	if pos <= len(f.Name) {
		b.WriteString(f.Name[pos:])
	}
	return f.Drive + strings.ReplaceAll(f.Dir, `\`, "/") + b.String() + f.Ext
}
