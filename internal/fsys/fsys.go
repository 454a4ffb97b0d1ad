// Package fsys defines the narrow filesystem surface the completion engine
// depends on, plus the OS-backed implementation used in production. Listing
// failures are deliberately soft: a directory that vanished or became
// unreadable mid-session yields an empty listing, never an error, so the
// interaction keeps going.
package fsys

import (
	"os"
	"sort"
)

// FileSystem is the filesystem contract required by the completion engine
// and renderer.
type FileSystem interface {
	// Exists reports whether path refers to an existing file or directory.
	Exists(path string) bool

	// IsDirectory reports whether path refers to an existing directory.
	IsDirectory(path string) bool

	// IsFile reports whether path refers to an existing regular file.
	IsFile(path string) bool

	// ListDirectory returns the names of the entries in the directory at
	// path. It returns an empty slice when the directory does not exist or
	// cannot be read.
	ListDirectory(path string) []string

	// FileSize returns the size of the file at path in bytes. The second
	// return value is false when the path does not refer to a readable
	// regular file.
	FileSize(path string) (int64, bool)
}

// OS implements FileSystem against the local filesystem.
type OS struct{}

var _ FileSystem = OS{}

func (OS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OS) IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (OS) IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (OS) ListDirectory(path string) []string {
	entries, err := os.ReadDir(path)
	if err != nil {
		return []string{}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func (OS) FileSize(path string) (int64, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return 0, false
	}
	return info.Size(), true
}

// Fake is an in-memory FileSystem for tests. Directories map to their child
// names; files map to a size. Paths are the literal strings the engine
// produces, so fixtures should use the same trailing-separator-free form the
// engine queries with.
type Fake struct {
	// Dirs maps directory paths to child entry names.
	Dirs map[string][]string
	// Files maps file paths to their sizes.
	Files map[string]int64
}

var _ FileSystem = (*Fake)(nil)

func (f *Fake) Exists(path string) bool {
	return f.IsDirectory(path) || f.IsFile(path)
}

func (f *Fake) IsDirectory(path string) bool {
	if _, ok := f.Dirs[path]; ok {
		return true
	}
	// Accept the directory-reference spelling too.
	if len(path) > 1 {
		if _, ok := f.Dirs[trimTrailingSlash(path)]; ok {
			return true
		}
	}
	return false
}

func (f *Fake) IsFile(path string) bool {
	_, ok := f.Files[path]
	return ok
}

func (f *Fake) ListDirectory(path string) []string {
	names, ok := f.Dirs[path]
	if !ok {
		names, ok = f.Dirs[trimTrailingSlash(path)]
	}
	if !ok {
		return []string{}
	}

	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)
	return out
}

func (f *Fake) FileSize(path string) (int64, bool) {
	size, ok := f.Files[path]
	return size, ok
}

func trimTrailingSlash(path string) string {
	for len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}
	return path
}
