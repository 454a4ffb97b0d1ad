package prompt

import (
	"github.com/sahilm/fuzzy"
)

// RecallState drives Ctrl+R recall over previously accepted paths. The query
// is matched fuzzily against the recent list; repeated Ctrl+R steps through
// the matches, most relevant first.
type RecallState struct {
	active bool

	query      string
	source     []string
	matches    []string
	matchIndex int

	originalInput string
}

// NewRecallState returns an inactive recall state.
func NewRecallState() *RecallState {
	return &RecallState{}
}

// IsActive reports whether recall mode is engaged.
func (s *RecallState) IsActive() bool {
	return s.active
}

// Query returns the current search query.
func (s *RecallState) Query() string {
	return s.query
}

// OriginalInput returns the line content from before recall started.
func (s *RecallState) OriginalInput() string {
	return s.originalInput
}

// CurrentMatch returns the selected match, or "" when there is none.
func (s *RecallState) CurrentMatch() string {
	if s.matchIndex < 0 || s.matchIndex >= len(s.matches) {
		return ""
	}
	return s.matches[s.matchIndex]
}

// MatchCount returns how many recent paths match the query.
func (s *RecallState) MatchCount() int {
	return len(s.matches)
}

// Start engages recall mode over the given recent paths, saving the current
// line for restoration on cancel.
func (s *RecallState) Start(recent []string, currentInput string) {
	s.active = true
	s.query = ""
	s.source = recent
	s.matches = recent
	s.matchIndex = 0
	s.originalInput = currentInput
}

// SetQuery replaces the query and recomputes matches. An empty query matches
// the whole recent list in its original (most recent first) order.
func (s *RecallState) SetQuery(query string) {
	s.query = query
	s.matchIndex = 0

	if query == "" {
		s.matches = s.source
		return
	}

	ranked := fuzzy.Find(query, s.source)
	s.matches = make([]string, 0, len(ranked))
	for _, m := range ranked {
		s.matches = append(s.matches, m.Str)
	}
}

// AppendToQuery adds one rune to the query.
func (s *RecallState) AppendToQuery(r rune) {
	s.SetQuery(s.query + string(r))
}

// TrimQuery removes the last rune from the query.
func (s *RecallState) TrimQuery() {
	if s.query == "" {
		return
	}
	runes := []rune(s.query)
	s.SetQuery(string(runes[:len(runes)-1]))
}

// Next steps to the following match, wrapping at the end.
func (s *RecallState) Next() {
	if len(s.matches) == 0 {
		return
	}
	s.matchIndex = (s.matchIndex + 1) % len(s.matches)
}

// Stop leaves recall mode. The caller decides whether to keep the current
// match or restore the original input.
func (s *RecallState) Stop() {
	s.active = false
	s.query = ""
	s.source = nil
	s.matches = nil
	s.matchIndex = 0
}
