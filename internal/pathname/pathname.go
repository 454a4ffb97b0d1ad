// Package pathname implements the literal path-string arithmetic used by the
// completion engine. Unlike path/filepath, these functions never interpret
// "." or ".." as special segments and never consult the filesystem: a path is
// just a separator-delimited string, and a trailing separator is meaningful
// (it marks a directory reference). All functions are total over well-formed
// input; empty segments are silently dropped.
package pathname

import "strings"

// Separator is the path separator used throughout pathline. Paths are treated
// as slash-delimited strings regardless of platform, matching shell input.
const Separator = "/"

// Join concatenates parts with exactly one separator between them. A leading
// separator survives iff the first non-empty part had one, a trailing
// separator iff the last non-empty part had one. Runs of separators inside a
// part are collapsed. Dot segments pass through untouched.
func Join(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}

	leading := strings.HasPrefix(kept[0], Separator)
	trailing := strings.HasSuffix(kept[len(kept)-1], Separator)

	var segments []string
	for _, p := range kept {
		for _, seg := range strings.Split(p, Separator) {
			if seg != "" {
				segments = append(segments, seg)
			}
		}
	}

	joined := strings.Join(segments, Separator)
	if leading {
		joined = Separator + joined
	}
	// A part consisting only of separators contributes no segments; guard
	// against doubling up when the result is the root itself.
	if trailing && !strings.HasSuffix(joined, Separator) {
		joined += Separator
	}
	return joined
}

// Resolve joins base and parts, except that a part starting with the
// separator is absolute and replaces everything accumulated before it.
func Resolve(base string, parts ...string) string {
	resolved := []string{base}
	for _, p := range parts {
		if strings.HasPrefix(p, Separator) {
			resolved = resolved[:0]
		}
		resolved = append(resolved, p)
	}
	return Join(resolved...)
}

// Base returns the final segment of p. A trailing separator (directory
// reference) is stripped first, so Base("/a/b/") == "b". The root and the
// empty string have no basename.
func Base(p string) string {
	trimmed := strings.TrimRight(p, Separator)
	if trimmed == "" {
		return ""
	}
	if idx := strings.LastIndex(trimmed, Separator); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// Dir returns everything before the final segment of p. When p is a directory
// reference (trailing separator) the result carries a trailing separator too,
// so Dir("/a/b/") == "/a/" while Dir("/a/b") == "/a". A single-segment
// relative path has an empty dirname.
func Dir(p string) string {
	isDirRef := strings.HasSuffix(p, Separator)
	trimmed := strings.TrimRight(p, Separator)
	if trimmed == "" {
		// p was the root (or empty): its containing directory is itself.
		return p
	}

	var dir string
	idx := strings.LastIndex(trimmed, Separator)
	switch {
	case idx < 0:
		dir = ""
	case idx == 0:
		dir = Separator
	default:
		dir = trimmed[:idx]
	}

	if isDirRef && dir != "" && !strings.HasSuffix(dir, Separator) {
		dir += Separator
	}
	return dir
}

// IsDirReference reports whether p denotes a directory by the trailing
// separator convention.
func IsDirReference(p string) bool {
	return strings.HasSuffix(p, Separator)
}
