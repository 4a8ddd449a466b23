package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644))
	}
}

func writeFrames(t *testing.T, dir, format string, frames ...int) {
	t.Helper()
	names := make([]string, 0, len(frames))
	for _, f := range frames {
		names = append(names, fmt.Sprintf(format, f))
	}
	writeFiles(t, dir, names...)
}

func TestScanDirsFlat(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "a"), "f.txt")
	writeFiles(t, filepath.Join(root, "b", "nested"), "f.txt")

	dirs, err := ScanDirs(root, false, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "b"),
	}, dirs)
}

func TestScanDirsRecursive(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "a"), "f.txt")
	writeFiles(t, filepath.Join(root, "b", "nested"), "f.txt")

	dirs, err := ScanDirs(root, true, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		root,
		filepath.Join(root, "a"),
		filepath.Join(root, "b"),
		filepath.Join(root, "b", "nested"),
	}, dirs)
}

func TestScanDirsMissingRoot(t *testing.T) {
	_, err := ScanDirs(filepath.Join(t.TempDir(), "nope"), false, nil)
	assert.Error(t, err)
}

func TestScanDirsAlwaysIncludesRoot(t *testing.T) {
	root := t.TempDir()
	dirs, err := ScanDirs(root, true, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{root}, dirs)
}

func TestScanBasic(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, root, "render_%03d.exr", 1, 2, 3, 5)
	writeFiles(t, root, "readme.txt")

	res, err := New(root).Scan()
	require.NoError(t, err)
	require.Len(t, res.Seqs, 1)

	s := res.Seqs[0]
	assert.Equal(t, int64(1), s.Start)
	assert.Equal(t, int64(5), s.End)
	assert.Equal(t, []int64{4}, s.Missed)
	assert.Equal(t, 3, s.Padding)
	assert.Empty(t, res.Errors)
	assert.Greater(t, res.Elapsed.Nanoseconds(), int64(0))
}

// TestScanUnpaddedGrowth verifies width changes (9 -> 10, 11 -> 100) stay
// in one sequence
func TestScanUnpaddedGrowth(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"img_1.exr", "img_2.exr", "img_9.exr",
		"img_10.exr", "img_11.exr", "img_100.exr",
		"readme.txt",
	)

	res, err := New(root).Scan()
	require.NoError(t, err)
	require.Len(t, res.Seqs, 1)
	assert.Equal(t, 6, res.Seqs[0].Len())
	assert.Equal(t, int64(1), res.Seqs[0].Start)
	assert.Equal(t, int64(100), res.Seqs[0].End)
	assert.Equal(t, 0, res.Seqs[0].Padding)
}

// TestScanPerDirectoryIsolation verifies identical names in different
// directories never merge
func TestScanPerDirectoryIsolation(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, filepath.Join(root, "a"), "render_%03d.exr", 1, 2)
	writeFrames(t, filepath.Join(root, "b"), "render_%03d.exr", 1, 2)

	res, err := New(root).Recursive(true).Scan()
	require.NoError(t, err)
	assert.Len(t, res.Seqs, 2)
}

func TestScanNonRecursiveScansChildren(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, filepath.Join(root, "child"), "a_%02d.exr", 1, 2)
	writeFrames(t, filepath.Join(root, "child", "deep"), "b_%02d.exr", 1, 2)

	res, err := New(root).Scan()
	require.NoError(t, err)
	require.Len(t, res.Seqs, 1)
	assert.Contains(t, res.Seqs[0].Pattern, "a_")
}

func TestScanMultipleRoots(t *testing.T) {
	root1 := t.TempDir()
	root2 := t.TempDir()
	writeFrames(t, root1, "a_%02d.exr", 1, 2)
	writeFrames(t, root2, "b_%02d.exr", 1, 2)

	res, err := New(root1, root2).Scan()
	require.NoError(t, err)
	assert.Len(t, res.Seqs, 2)
	assert.Empty(t, res.Errors)
}

// TestScanMissingRootIsPerRootError verifies one bad root does not abort
// the others
func TestScanMissingRootIsPerRootError(t *testing.T) {
	good := t.TempDir()
	writeFrames(t, good, "a_%02d.exr", 1, 2)
	bad := filepath.Join(t.TempDir(), "nope")

	res, err := New(good, bad).Scan()
	require.NoError(t, err)
	assert.Len(t, res.Seqs, 1)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], bad)
}

func TestScanMaskExact(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, root, "render_%03d.exr", 1, 2)
	writeFrames(t, root, "other_%03d.exr", 1, 2)

	res, err := New(root).Mask("render_001.exr").Scan()
	require.NoError(t, err)
	// Exact masks admit one file, below the minimum group size.
	assert.Empty(t, res.Seqs)
}

func TestScanMaskGlob(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, root, "render_%03d.exr", 1, 2)
	writeFrames(t, root, "render_%03d.png", 1, 2)

	res, err := New(root).Mask("*.exr").Scan()
	require.NoError(t, err)
	require.Len(t, res.Seqs, 1)
	assert.Contains(t, res.Seqs[0].Pattern, ".exr")
}

func TestScanMaskBracketGlob(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, root, "render_%03d.exr", 1, 2, 3)
	writeFrames(t, root, "other_%03d.exr", 1, 2, 3)

	res, err := New(root).Mask("render_00[0-9].exr").Scan()
	require.NoError(t, err)
	require.Len(t, res.Seqs, 1)
	assert.Contains(t, res.Seqs[0].Pattern, "render_")
}

// TestScanInvalidMask verifies a malformed glob fails the invocation
// instead of producing per-directory errors
func TestScanInvalidMask(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, root, "render_%03d.exr", 1, 2)

	res, err := New(root).Mask("[").Scan()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid mask")
	assert.Empty(t, res.Seqs)
}

func TestScanMinLen(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, root, "short_%02d.exr", 1, 2)
	writeFrames(t, root, "long_%02d.exr", 1, 2, 3, 4)

	res, err := New(root).MinLen(3).Scan()
	require.NoError(t, err)
	require.Len(t, res.Seqs, 1)
	assert.Contains(t, res.Seqs[0].Pattern, "long_")
}

func TestScanProgress(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, filepath.Join(root, "a"), "x_%02d.exr", 1, 2)
	writeFrames(t, filepath.Join(root, "b"), "y_%02d.exr", 1, 2)

	var mu sync.Mutex
	var dones []int
	total := 0
	res, err := New(root).Workers(2).OnProgress(func(done, tot, found int) {
		mu.Lock()
		defer mu.Unlock()
		dones = append(dones, done)
		total = tot
	}).Scan()
	require.NoError(t, err)
	assert.Len(t, res.Seqs, 2)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, dones, 3, "one update per directory")
	assert.Equal(t, 3, total)
	sort.Ints(dones)
	assert.Equal(t, []int{1, 2, 3}, dones)
}

func TestScanWorkerCounts(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 6; i++ {
		writeFrames(t, filepath.Join(root, fmt.Sprintf("d%d", i)), "f_%02d.exr", 1, 2, 3)
	}

	for _, workers := range []int{1, 4, 32} {
		res, err := New(root).Workers(workers).Scan()
		require.NoError(t, err)
		assert.Len(t, res.Seqs, 6, "workers=%d", workers)
	}
}

func TestScanEmptyDir(t *testing.T) {
	res, err := New(t.TempDir()).Scan()
	require.NoError(t, err)
	assert.Empty(t, res.Seqs)
	assert.Empty(t, res.Errors)
}

func TestFromFile(t *testing.T) {
	root := t.TempDir()
	writeFrames(t, root, "render_%03d.exr", 1, 2, 3)
	writeFiles(t, root, "readme.txt")

	s, ok := FromFile(filepath.Join(root, "render_002.exr"))
	require.True(t, ok)
	assert.Equal(t, 3, s.Len())
	assert.Contains(t, s.Pattern, "render_###.exr")
}

func TestFromFileNoPartner(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "lonely_001.exr", "readme.txt")

	_, ok := FromFile(filepath.Join(root, "lonely_001.exr"))
	assert.False(t, ok)
}

func TestFromFileNoDigits(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "readme.txt", "render_001.exr", "render_002.exr")

	_, ok := FromFile(filepath.Join(root, "readme.txt"))
	assert.False(t, ok)
}

func TestScanFiles(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.exr", "b.png", "c.EXR", "noext")

	files, err := ScanFiles([]string{root}, false, []string{"exr"}, nil)
	require.NoError(t, err)
	sort.Strings(files)
	assert.Equal(t, []string{
		filepath.Join(root, "a.exr"),
		filepath.Join(root, "c.EXR"),
	}, files)
}

func TestScanFilesGlobExt(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg", "b.jpeg", "c.jp2", "d.png")

	files, err := ScanFiles([]string{root}, false, []string{"jp*"}, nil)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestScanFilesNoFilter(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.exr", "noext")
	writeFiles(t, filepath.Join(root, "sub"), "b.png")

	files, err := ScanFiles([]string{root}, false, nil, nil)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = ScanFiles([]string{root}, true, nil, nil)
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestScanFilesInvalidGlob(t *testing.T) {
	_, err := ScanFiles([]string{t.TempDir()}, false, []string{"["}, nil)
	assert.Error(t, err)
}

func TestMatchMask(t *testing.T) {
	assert.True(t, matchMask("anything.exr", ""))
	assert.True(t, matchMask("render_001.exr", "render_001.exr"))
	assert.False(t, matchMask("render_002.exr", "render_001.exr"))
	assert.True(t, matchMask("render_001.exr", "*.exr"))
	assert.True(t, matchMask("render_001.exr", "render_00?.exr"))
	assert.False(t, matchMask("render_001.png", "*.exr"))
	assert.True(t, matchMask("render_001.exr", "render_00[0-9].exr"))
	assert.False(t, matchMask("render_00a.exr", "render_00[0-9].exr"))
}

func TestValidateMask(t *testing.T) {
	assert.NoError(t, validateMask(""))
	assert.NoError(t, validateMask("render_001.exr"))
	assert.NoError(t, validateMask("*.exr"))
	assert.NoError(t, validateMask("render_00[0-9].exr"))
	assert.Error(t, validateMask("["))
	assert.Error(t, validateMask("render_00[.exr"))
}
