package complete

import (
	"errors"
	"slices"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/pathline/pathline/internal/fsys"
	"github.com/pathline/pathline/internal/pathname"
)

// ErrInvalidWorkingDirectory is returned by NewEngine when the configured
// working directory does not exist or is not a directory.
var ErrInvalidWorkingDirectory = errors.New("working directory does not exist or is not a directory")

// Engine owns the autocomplete state for one prompt session: the working
// directory, the raw input text, the resolved target, the candidate set, the
// common-prefix candidate, and a circular selection cursor.
//
// The candidate set is a read-mostly cache: any input mutation marks it stale
// and resets the selection, and Refresh recomputes it on demand. Refresh is
// idempotent while the state stays fresh.
type Engine struct {
	fs  fsys.FileSystem
	log *zap.Logger

	workingDir Entry
	dirOnly    bool

	input  string
	target Entry

	candidates []Entry
	stale      bool

	common Entry
	// useful records that common is a real completion rather than the
	// target echoed back. The reference implementation distinguished the
	// two by object identity; here it is an explicit flag.
	useful bool

	selected int
}

// NewEngine validates cwd and builds an engine rooted there. The initial
// input is empty and the candidate set is resolved eagerly.
func NewEngine(fs fsys.FileSystem, cwd string, dirOnly bool, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !fs.IsDirectory(cwd) {
		return nil, ErrInvalidWorkingDirectory
	}

	if !pathname.IsDirReference(cwd) {
		cwd += pathname.Separator
	}

	e := &Engine{
		fs:         fs,
		log:        log,
		workingDir: NewEntry(cwd),
		dirOnly:    dirOnly,
		stale:      true,
		selected:   -1,
	}
	e.target = e.resolveTarget("")
	e.Refresh()
	return e, nil
}

// WorkingDir returns the validated working directory entry.
func (e *Engine) WorkingDir() Entry {
	return e.workingDir
}

// Input returns the literal text the user has typed.
func (e *Engine) Input() string {
	return e.input
}

// Target returns the entry the current input resolves to.
func (e *Engine) Target() Entry {
	return e.target
}

// Candidates returns the current candidate entries. Call Refresh first when
// fresh results are needed.
func (e *Engine) Candidates() []Entry {
	return e.candidates
}

// SetInput replaces the input text. Setting the same text again is a no-op
// and keeps the candidate cache fresh; otherwise the target is recomputed,
// the cache is invalidated, and the selection resets.
func (e *Engine) SetInput(text string) bool {
	if text == e.input {
		return false
	}

	e.input = text
	e.target = e.resolveTarget(text)
	e.stale = true
	e.candidates = nil
	e.selected = -1
	return true
}

// SetInputEntry replaces the input with the given entry, formatted against
// the directory prefix already present in the input so cycling through
// candidates preserves whatever partial path the user typed.
func (e *Engine) SetInputEntry(entry Entry) bool {
	return e.SetInput(e.FormatEntry(entry))
}

// FormatEntry renders entry as input text: the input's containing directory
// prefix plus the entry name, with a trailing separator when the entry is a
// directory.
func (e *Engine) FormatEntry(entry Entry) string {
	prefix := e.inputDirPrefix()
	text := pathname.Join(prefix, entry.Name)
	if entry.IsDirectory() && !pathname.IsDirReference(text) {
		text += pathname.Separator
	}
	return text
}

// inputDirPrefix is the directory portion of the typed input: the input
// itself when it already denotes a directory, otherwise its dirname.
func (e *Engine) inputDirPrefix() string {
	if e.input == "" || pathname.IsDirReference(e.input) {
		return e.input
	}
	return pathname.Dir(e.input)
}

// resolveTarget resolves text against the working directory without
// collapsing dot segments.
func (e *Engine) resolveTarget(text string) Entry {
	return NewEntry(pathname.Resolve(e.workingDir.FullPath, text))
}

// Refresh recomputes the candidate set if it is stale. Candidates are the
// entries of the target's containing directory whose names start with the
// target's name (every entry when the target is itself a directory),
// directories sorted before files and each group ordered by name. A missing
// or unreadable directory yields an empty set.
func (e *Engine) Refresh() {
	if !e.stale {
		return
	}
	e.stale = false

	dir := e.target.ContainingDir()
	prefix := ""
	if !e.target.IsDirectory() {
		prefix = e.target.Name
	}

	names := lo.Filter(e.fs.ListDirectory(dir), func(name string, _ int) bool {
		return strings.HasPrefix(name, prefix)
	})

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		full := pathname.Join(dir, name)
		if e.fs.IsDirectory(full) {
			full += pathname.Separator
		} else if e.dirOnly {
			continue
		}
		entries = append(entries, NewEntry(full))
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		if a.IsDirectory() != b.IsDirectory() {
			if a.IsDirectory() {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})

	e.candidates = entries
	e.common, e.useful = e.commonPrefix()

	e.log.Debug("candidates refreshed",
		zap.String("dir", dir),
		zap.String("prefix", prefix),
		zap.Int("count", len(entries)),
		zap.Bool("useful_prefix", e.useful))
}

// commonPrefix computes the longest shared prefix of all candidate names.
// With no candidates there is nothing to complete and the target is echoed
// back, marked not useful. With one candidate, that candidate is the
// completion. Otherwise the shared prefix of the lexicographic minimum and
// maximum names bounds the prefix of the whole set; a zero-length prefix, or
// one that only restates the target's own name, is not useful.
func (e *Engine) commonPrefix() (Entry, bool) {
	switch len(e.candidates) {
	case 0:
		return e.target, false
	case 1:
		return e.candidates[0], true
	}

	names := lo.Map(e.candidates, func(c Entry, _ int) string { return c.Name })
	minName := slices.Min(names)
	maxName := slices.Max(names)

	n := 0
	for n < len(minName) && n < len(maxName) && minName[n] == maxName[n] {
		n++
	}
	shared := minName[:n]

	if shared == "" || shared == e.target.Name {
		return e.target, false
	}
	return NewEntry(e.target.ContainingDir(), shared), true
}

// CommonPrefix returns the common-prefix entry computed by the last Refresh.
func (e *Engine) CommonPrefix() Entry {
	return e.common
}

// HasUsefulPrefix reports whether the common prefix is a real completion,
// as opposed to the resolved target echoed back.
func (e *Engine) HasUsefulPrefix() bool {
	return e.useful
}

// Advance moves the circular selection cursor one step and returns the newly
// selected entry. With no candidates it reports false and leaves the cursor
// alone; the guard must run before the modulo, which is undefined for an
// empty set. From the unset cursor, forward lands on the first candidate and
// backward on the last.
func (e *Engine) Advance(forward bool) (Entry, bool) {
	n := len(e.candidates)
	if n == 0 {
		return Entry{}, false
	}

	switch {
	case e.selected < 0 && forward:
		e.selected = 0
	case e.selected < 0:
		e.selected = n - 1
	case forward:
		e.selected = (e.selected + 1) % n
	default:
		e.selected = (e.selected - 1 + n) % n
	}
	return e.candidates[e.selected], true
}

// HasSelection reports whether the cursor rests on a candidate.
func (e *Engine) HasSelection() bool {
	return e.selected >= 0 && e.selected < len(e.candidates)
}

// Selected returns the entry under the cursor.
func (e *Engine) Selected() (Entry, bool) {
	if !e.HasSelection() {
		return Entry{}, false
	}
	return e.candidates[e.selected], true
}

// SelectedIndex returns the cursor position, -1 when nothing is selected.
func (e *Engine) SelectedIndex() int {
	if !e.HasSelection() {
		return -1
	}
	return e.selected
}

// ResetSelection clears the cursor without invalidating the candidate set.
func (e *Engine) ResetSelection() {
	e.selected = -1
}
