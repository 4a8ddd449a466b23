// Package seq implements the sequence detection engine: parsing file paths
// into stable components plus digit-group metadata, and grouping parsed
// files into numbered sequences with range and gap information.
package seq

import (
	"fmt"
	"hash/fnv"
	"runtime"
	"strings"
)

// foldCase controls case normalization of the grouping fields. On Windows
// the filesystem is case-insensitive, so drive, directory, extension and
// mask are lowercased before hashing. Name keeps its original case for
// display either way.
var foldCase = runtime.GOOS == "windows"

// NumGroup marks one maximal run of ASCII digits inside a file's base name,
// as a (start offset, length) pair in bytes.
type NumGroup struct {
	Start int
	Len   int
}

// File is a file path decomposed for sequence grouping.
//
// The invariant Drive+Dir+Name+Ext == FullPath holds byte-for-byte for any
// input, including repeated or mixed separators, up to the case fold
// applied on case-insensitive filesystems. NumGroups are ordered left to
// right and never overlap. Mask is Name with every digit run replaced by a
// single '@'.
type File struct {
	// FullPath is the original path string, kept for output and debugging.
	FullPath string
	// Drive is everything before the first path separator ("c:" on Windows
	// paths, empty for Unix paths).
	Drive string
	// Dir is everything between drive and the final separator, including
	// that separator, with original separator characters preserved.
	Dir string
	// Name is the filename without extension.
	Name string
	// Ext is the extension from the last dot onward, or empty. A filename
	// whose only dot is the leading character has no extension.
	Ext string
	// NumGroups are the digit runs found in Name.
	NumGroups []NumGroup
	// Mask is Name with each digit run replaced by '@'. Files with the same
	// mask are candidates for the same sequence regardless of padding.
	Mask string
}

// Parse decomposes a path string into a File. It is a total function: any
// input yields a valid File, worst case with empty digit groups and the
// whole string as Name.
func Parse(path string) File {
	f := File{FullPath: path}

	rest := path
	if i := strings.IndexAny(path, `\/`); i >= 0 {
		f.Drive = path[:i]
		rest = path[i:]
		if j := strings.LastIndexAny(rest, `\/`); j >= 0 {
			f.Dir = rest[:j+1]
			rest = rest[j+1:]
		}
	}

	f.Name, f.Ext = splitExt(rest)
	f.NumGroups = extractNumGroups(f.Name)
	f.Mask = makeMask(f.Name, f.NumGroups)

	if foldCase {
		f.Drive = strings.ToLower(f.Drive)
		f.Dir = strings.ToLower(f.Dir)
		f.Ext = strings.ToLower(f.Ext)
		f.Mask = strings.ToLower(f.Mask)
	}
	return f
}

// HasNums reports whether the name contains at least one digit group,
// making the file a potential sequence member.
func (f File) HasNums() bool {
	return len(f.NumGroups) > 0
}

// Signature returns the 64-bit grouping key over drive, directory, mask and
// extension. Two files with equal signatures are candidates for the same
// sequence family. The hash is an internal key, never persisted.
func (f File) Signature() uint64 {
	h := fnv.New64a()
	for _, s := range []string{f.Drive, f.Dir, f.Mask, f.Ext} {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func (f File) String() string {
	return fmt.Sprintf("File(%q, mask=%q)", f.FullPath, f.Mask)
}

// splitExt splits a filename at the last dot. A dot at offset 0 does not
// start an extension (".hidden" is all name).
func splitExt(filename string) (name, ext string) {
	if i := strings.LastIndexByte(filename, '.'); i > 0 {
		return filename[:i], filename[i:]
	}
	return filename, ""
}

// extractNumGroups finds every maximal run of ASCII digits in name.
func extractNumGroups(name string) []NumGroup {
	var groups []NumGroup
	start := -1
	for i := 0; i < len(name); i++ {
		if name[i] >= '0' && name[i] <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			groups = append(groups, NumGroup{Start: start, Len: i - start})
			start = -1
		}
	}
	if start >= 0 {
		groups = append(groups, NumGroup{Start: start, Len: len(name) - start})
	}
	return groups
}

// makeMask replaces every digit run in name with a single '@'.
func makeMask(name string, groups []NumGroup) string {
	if len(groups) == 0 {
		return name
	}
	var b strings.Builder
	b.Grow(len(name))
	pos := 0
	for _, g := range groups {
		b.WriteString(name[pos:g.Start])
		b.WriteByte('@')
		pos = g.Start + g.Len
	}
	b.WriteString(name[pos:])
	return b.String()
}
