package prompt

import (
	"slices"
	"unicode"
)

// Buffer holds the line being edited: rune storage plus a cursor. All
// positions are rune indices, clamped to [0, Len].
type Buffer struct {
	runes []rune
	pos   int
}

// NewBuffer returns an empty buffer with the cursor at zero.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Text returns the buffer content as a string.
func (b *Buffer) Text() string {
	return string(b.runes)
}

// Len returns the content length in runes.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// Pos returns the cursor position.
func (b *Buffer) Pos() int {
	return b.pos
}

// SetText replaces the content and moves the cursor to the end.
func (b *Buffer) SetText(text string) {
	b.runes = []rune(text)
	b.pos = len(b.runes)
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.runes = b.runes[:0]
	b.pos = 0
}

// SetPos moves the cursor, clamping to the valid range.
func (b *Buffer) SetPos(pos int) {
	b.pos = min(max(pos, 0), len(b.runes))
}

// CursorStart moves the cursor to the beginning of the line.
func (b *Buffer) CursorStart() { b.pos = 0 }

// CursorEnd moves the cursor past the last rune.
func (b *Buffer) CursorEnd() { b.pos = len(b.runes) }

// InsertRunes inserts runes at the cursor and advances past them.
func (b *Buffer) InsertRunes(rs []rune) {
	if len(rs) == 0 {
		return
	}
	b.runes = slices.Insert(b.runes, b.pos, rs...)
	b.pos += len(rs)
}

// DeleteCharBackward removes the rune before the cursor.
func (b *Buffer) DeleteCharBackward() bool {
	if b.pos == 0 {
		return false
	}
	b.runes = slices.Delete(b.runes, b.pos-1, b.pos)
	b.pos--
	return true
}

// DeleteCharForward removes the rune under the cursor.
func (b *Buffer) DeleteCharForward() bool {
	if b.pos >= len(b.runes) {
		return false
	}
	b.runes = slices.Delete(b.runes, b.pos, b.pos+1)
	return true
}

// DeleteBeforeCursor removes everything left of the cursor.
func (b *Buffer) DeleteBeforeCursor() {
	b.runes = slices.Delete(b.runes, 0, b.pos)
	b.pos = 0
}

// DeleteAfterCursor removes everything right of the cursor.
func (b *Buffer) DeleteAfterCursor() {
	b.runes = b.runes[:b.pos]
}

// DeleteWordBackward removes the word left of the cursor, including any
// whitespace between it and the cursor.
func (b *Buffer) DeleteWordBackward() {
	start := b.pos
	b.WordBackward()
	b.runes = slices.Delete(b.runes, b.pos, start)
}

// WordBackward moves the cursor to the start of the previous word. A word is
// a run of non-space runes; path separators count as word characters so a
// whole path segment is one motion.
func (b *Buffer) WordBackward() {
	i := b.pos - 1
	for i >= 0 && unicode.IsSpace(b.runes[i]) {
		i--
	}
	for i >= 0 && !unicode.IsSpace(b.runes[i]) {
		i--
	}
	b.pos = i + 1
}

// WordForward moves the cursor past the end of the next word.
func (b *Buffer) WordForward() {
	i := b.pos
	for i < len(b.runes) && unicode.IsSpace(b.runes[i]) {
		i++
	}
	for i < len(b.runes) && !unicode.IsSpace(b.runes[i]) {
		i++
	}
	b.pos = i
}
