// Package complete implements the filesystem path autocomplete engine:
// prefix matching over directory listings, directories-first ordering,
// longest-common-prefix collapsing, and a circular selection cursor.
package complete

import (
	"github.com/pathline/pathline/internal/pathname"
)

// Kind classifies a path entry.
type Kind int

const (
	// File is any entry whose path does not end with the separator.
	File Kind = iota
	// Directory is an entry whose path ends with the separator.
	Directory
)

func (k Kind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

// Entry is an immutable description of one filesystem node, derived purely
// from its path string. Whether it is a directory is decided by the trailing
// separator at construction time, not by asking the filesystem: the engine
// appends the separator when it already knows a candidate is a directory.
// Entries are discarded and rebuilt on every refresh.
type Entry struct {
	// FullPath is the normalized path, with exactly one trailing separator
	// iff the entry is a directory.
	FullPath string
	// Kind is Directory iff FullPath ends with the separator.
	Kind Kind
	// Name is the final path segment.
	Name string
	// Dir is the parent directory portion of FullPath.
	Dir string
}

// NewEntry builds an Entry from path segments, normalizing separators per
// the pathname rules. Dot segments are preserved, never resolved.
func NewEntry(parts ...string) Entry {
	full := pathname.Join(parts...)

	kind := File
	if pathname.IsDirReference(full) {
		kind = Directory
	}

	return Entry{
		FullPath: full,
		Kind:     kind,
		Name:     pathname.Base(full),
		Dir:      pathname.Dir(full),
	}
}

// IsDirectory reports whether the entry denotes a directory.
func (e Entry) IsDirectory() bool {
	return e.Kind == Directory
}

// ContainingDir returns the deepest directory the entry is inside: the entry
// itself when it is a directory reference, otherwise its parent.
func (e Entry) ContainingDir() string {
	if e.IsDirectory() {
		return e.FullPath
	}
	return e.Dir
}
