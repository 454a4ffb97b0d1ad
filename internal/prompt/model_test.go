package prompt

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pathline/pathline/internal/fsys"
)

// promptWorkspace has two sibling directories sharing the prefix "al" plus
// one file, which exercises both prefix collapsing and list cycling.
func promptWorkspace() *fsys.Fake {
	return &fsys.Fake{
		Dirs: map[string][]string{
			"/w":       {"notes.txt", "alpha", "album"},
			"/w/alpha": {},
			"/w/album": {},
			"/empty":   {},
		},
		Files: map[string]int64{"/w/notes.txt": 12},
	}
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	if opts.FS == nil {
		opts.FS = promptWorkspace()
	}
	if opts.CWD == "" {
		opts.CWD = "/w"
	}
	m, err := NewModel(opts)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

func press(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func key(kt tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: kt}
}

// settle runs the command returned by a submit and feeds the resulting
// validation message back through Update, mimicking the program loop.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command from submit")
	}
	queue := []tea.Msg{cmd()}
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		switch v := msg.(type) {
		case tea.BatchMsg:
			for _, c := range v {
				if c != nil {
					queue = append(queue, c())
				}
			}
		case validationMsg:
			next, _ := m.Update(v)
			m = next.(Model)
		}
	}
	return m
}

func TestTabAppliesUsefulCommonPrefix(t *testing.T) {
	m := newTestModel(t, Options{})
	m = typeText(t, m, "a")

	m, _ = press(t, m, key(tea.KeyTab))

	if got := m.buffer.Text(); got != "al" {
		t.Fatalf("buffer = %q, want %q", got, "al")
	}
	if m.selecting {
		t.Fatal("prefix application should not open the list")
	}
	if got := m.engine.Input(); got != "al" {
		t.Fatalf("engine input = %q, want %q", got, "al")
	}
}

func TestTabOpensListThenCycles(t *testing.T) {
	m := newTestModel(t, Options{})
	m = typeText(t, m, "al")

	// No prefix longer than what was typed, so the first press opens the
	// list without moving the cursor.
	m, _ = press(t, m, key(tea.KeyTab))
	if !m.selecting {
		t.Fatal("expected the list to open")
	}
	if m.engine.HasSelection() {
		t.Fatal("opening the list must not select anything")
	}
	if got := m.buffer.Text(); got != "al" {
		t.Fatalf("buffer = %q, want unchanged %q", got, "al")
	}

	m, _ = press(t, m, key(tea.KeyTab))
	if got := m.buffer.Text(); got != "alpha/" {
		t.Fatalf("after first cycle buffer = %q, want %q", got, "alpha/")
	}
	// Cycling is transient: the engine input still holds the typed text.
	if got := m.engine.Input(); got != "al" {
		t.Fatalf("engine input = %q, want %q", got, "al")
	}

	m, _ = press(t, m, key(tea.KeyTab))
	if got := m.buffer.Text(); got != "album/" {
		t.Fatalf("after second cycle buffer = %q, want %q", got, "album/")
	}

	// Wraps around.
	m, _ = press(t, m, key(tea.KeyTab))
	if got := m.buffer.Text(); got != "alpha/" {
		t.Fatalf("after wrap buffer = %q, want %q", got, "alpha/")
	}

	// Shift+tab steps back.
	m, _ = press(t, m, key(tea.KeyShiftTab))
	if got := m.buffer.Text(); got != "album/" {
		t.Fatalf("after shift+tab buffer = %q, want %q", got, "album/")
	}
}

func TestShiftTabAfterOpeningSelectsLastCandidate(t *testing.T) {
	m := newTestModel(t, Options{})
	m = typeText(t, m, "al")

	m, _ = press(t, m, key(tea.KeyTab))
	if !m.selecting || m.engine.HasSelection() {
		t.Fatal("first tab should open the list without a selection")
	}

	// The first backward cycle starts from the end of the list.
	m, _ = press(t, m, key(tea.KeyShiftTab))
	if got := m.buffer.Text(); got != "album/" {
		t.Fatalf("after shift+tab buffer = %q, want %q", got, "album/")
	}
	if n := len(m.engine.Candidates()); m.engine.SelectedIndex() != n-1 {
		t.Fatalf("selection index = %d, want %d", m.engine.SelectedIndex(), n-1)
	}
}

func TestEnterCommitsActiveSelection(t *testing.T) {
	m := newTestModel(t, Options{})
	m = typeText(t, m, "al")
	m, _ = press(t, m, key(tea.KeyTab))
	m, _ = press(t, m, key(tea.KeyTab))

	m, cmd := press(t, m, key(tea.KeyEnter))
	if cmd != nil {
		t.Fatal("committing a selection must not start validation")
	}
	if m.selecting {
		t.Fatal("commit should close the list")
	}
	if got := m.engine.Input(); got != "alpha/" {
		t.Fatalf("engine input = %q, want %q", got, "alpha/")
	}
	if got := m.buffer.Text(); got != "alpha/" {
		t.Fatalf("buffer = %q, want %q", got, "alpha/")
	}
}

func TestEscapeRestoresTypedInput(t *testing.T) {
	m := newTestModel(t, Options{})
	m = typeText(t, m, "al")
	m, _ = press(t, m, key(tea.KeyTab))
	m, _ = press(t, m, key(tea.KeyTab))

	m, _ = press(t, m, key(tea.KeyEscape))
	if m.selecting {
		t.Fatal("escape should close the list")
	}
	if got := m.buffer.Text(); got != "al" {
		t.Fatalf("buffer = %q, want restored %q", got, "al")
	}
}

func TestInterruptWithSelectionOnlyClearsIt(t *testing.T) {
	m := newTestModel(t, Options{})
	m = typeText(t, m, "al")
	m, _ = press(t, m, key(tea.KeyTab))
	m, _ = press(t, m, key(tea.KeyTab))

	m, cmd := press(t, m, key(tea.KeyCtrlC))
	if cmd != nil || m.done {
		t.Fatal("interrupt with an active selection must not terminate")
	}
	if m.engine.HasSelection() || m.selecting {
		t.Fatal("interrupt should clear the selection")
	}
	if got := m.buffer.Text(); got != "al" {
		t.Fatalf("buffer = %q, want restored %q", got, "al")
	}
}

func TestTypingWhileSelectingClosesList(t *testing.T) {
	m := newTestModel(t, Options{})
	m = typeText(t, m, "al")
	m, _ = press(t, m, key(tea.KeyTab))
	m, _ = press(t, m, key(tea.KeyTab))

	m = typeText(t, m, "x")
	if m.selecting {
		t.Fatal("typing should close the list")
	}
	// The transient text was on the line, so editing continues from it.
	if got := m.buffer.Text(); got != "alpha/x" {
		t.Fatalf("buffer = %q, want %q", got, "alpha/x")
	}
	if got := m.engine.Input(); got != "alpha/x" {
		t.Fatalf("engine input = %q, want %q", got, "alpha/x")
	}
}

func TestSubmitAcceptsInSingleMode(t *testing.T) {
	m := newTestModel(t, Options{})
	m = typeText(t, m, "alpha")

	m, cmd := press(t, m, key(tea.KeyEnter))
	if !m.validating {
		t.Fatal("submit should enter the validation pipeline")
	}
	m = settle(t, m, cmd)

	if !m.done {
		t.Fatal("accepted single-mode submission should finish the session")
	}
	res := m.Result()
	if res.Canceled {
		t.Fatal("accepted submission must not be canceled")
	}
	if len(res.Answers) != 1 || res.Answers[0] != "/w/alpha" {
		t.Fatalf("answers = %v, want [/w/alpha]", res.Answers)
	}
}

func TestSubmitRejectRestoresLineAndShowsMessage(t *testing.T) {
	fs := promptWorkspace()
	m := newTestModel(t, Options{
		FS: fs,
		Validate: func(value string, _ []string) ValidationResult {
			if !fs.Exists(value) {
				return Reject("%s does not exist", value)
			}
			return Accept
		},
	})
	m = typeText(t, m, "/missing")

	m, cmd := press(t, m, key(tea.KeyEnter))
	m = settle(t, m, cmd)

	if m.done {
		t.Fatal("rejected submission must not finish the session")
	}
	if m.validating {
		t.Fatal("pipeline should have settled")
	}
	if want := "/missing does not exist"; m.errMsg != want {
		t.Fatalf("errMsg = %q, want %q", m.errMsg, want)
	}
	if got := m.buffer.Text(); got != "/missing" {
		t.Fatalf("buffer = %q, want restored %q", got, "/missing")
	}

	// The next edit clears the message.
	m = typeText(t, m, "x")
	if m.errMsg != "" {
		t.Fatalf("errMsg = %q, want cleared", m.errMsg)
	}
}

func TestSubmitIgnoredWhileValidating(t *testing.T) {
	m := newTestModel(t, Options{})
	m = typeText(t, m, "alpha")

	m, first := press(t, m, key(tea.KeyEnter))
	m, second := press(t, m, key(tea.KeyEnter))
	if second != nil {
		t.Fatal("overlapping submit must be dropped")
	}
	m = settle(t, m, first)
	if got := m.Result().Answers; len(got) != 1 {
		t.Fatalf("answers = %v, want exactly one", got)
	}
}

func TestMultiModeCollectsUntilInterrupt(t *testing.T) {
	m := newTestModel(t, Options{Multi: true})

	m = typeText(t, m, "alpha")
	m, cmd := press(t, m, key(tea.KeyEnter))
	m = settle(t, m, cmd)

	if m.done {
		t.Fatal("multi mode should keep prompting after an accept")
	}
	if got := m.buffer.Text(); got != "" {
		t.Fatalf("buffer = %q, want cleared", got)
	}

	m = typeText(t, m, "notes.txt")
	m, cmd = press(t, m, key(tea.KeyEnter))
	m = settle(t, m, cmd)

	// A partial line at cancel time is discarded.
	m = typeText(t, m, "alb")
	m, _ = press(t, m, key(tea.KeyCtrlC))

	if !m.done {
		t.Fatal("interrupt should finish the multi session")
	}
	res := m.Result()
	if res.Canceled {
		t.Fatal("multi-mode interrupt is a normal finish, not a cancel")
	}
	want := []string{"/w/alpha", "/w/notes.txt"}
	if len(res.Answers) != len(want) {
		t.Fatalf("answers = %v, want %v", res.Answers, want)
	}
	for i := range want {
		if res.Answers[i] != want[i] {
			t.Fatalf("answers = %v, want %v", res.Answers, want)
		}
	}
}

func TestSingleModeInterruptCancels(t *testing.T) {
	m := newTestModel(t, Options{})
	m = typeText(t, m, "alp")

	m, _ = press(t, m, key(tea.KeyCtrlC))
	if !m.done {
		t.Fatal("interrupt should finish the session")
	}
	if res := m.Result(); !res.Canceled || len(res.Answers) != 0 {
		t.Fatalf("result = %+v, want canceled with no answers", res)
	}
}

func TestCtrlDOnEmptyLineIsEOF(t *testing.T) {
	m := newTestModel(t, Options{})

	m, _ = press(t, m, key(tea.KeyCtrlD))
	if !m.done {
		t.Fatal("ctrl+d on an empty line should finish the session")
	}
	if !m.Result().Canceled {
		t.Fatal("single-mode EOF should cancel")
	}

	// With content it deletes forward instead.
	m = newTestModel(t, Options{})
	m = typeText(t, m, "ab")
	m.buffer.SetPos(0)
	m, _ = press(t, m, key(tea.KeyCtrlD))
	if m.done {
		t.Fatal("ctrl+d with content must not terminate")
	}
	if got := m.buffer.Text(); got != "b" {
		t.Fatalf("buffer = %q, want %q", got, "b")
	}
}

func TestFilterTransformsAcceptedValue(t *testing.T) {
	m := newTestModel(t, Options{
		Filter: func(value string) (string, error) {
			return strings.ToUpper(value), nil
		},
	})
	m = typeText(t, m, "alpha")
	m, cmd := press(t, m, key(tea.KeyEnter))
	m = settle(t, m, cmd)

	if got := m.Result().Answers; len(got) != 1 || got[0] != "/W/ALPHA" {
		t.Fatalf("answers = %v, want [/W/ALPHA]", got)
	}
}

func TestFilterErrorRejects(t *testing.T) {
	m := newTestModel(t, Options{
		Filter: func(string) (string, error) {
			return "", errors.New("unusable path")
		},
	})
	m = typeText(t, m, "alpha")
	m, cmd := press(t, m, key(tea.KeyEnter))
	m = settle(t, m, cmd)

	if m.done {
		t.Fatal("filter error must not finish the session")
	}
	if m.errMsg != "unusable path" {
		t.Fatalf("errMsg = %q, want %q", m.errMsg, "unusable path")
	}
}

func TestValidatorSeesFlowAndSessionAnswers(t *testing.T) {
	var seen []string
	m := newTestModel(t, Options{
		Multi:   true,
		Answers: []string{"/prior"},
		Validate: func(_ string, answers []string) ValidationResult {
			seen = append([]string{}, answers...)
			return Accept
		},
	})

	m = typeText(t, m, "alpha")
	m, cmd := press(t, m, key(tea.KeyEnter))
	m = settle(t, m, cmd)

	m = typeText(t, m, "album")
	m, cmd = press(t, m, key(tea.KeyEnter))
	_ = settle(t, m, cmd)

	want := []string{"/prior", "/w/alpha"}
	if len(seen) != len(want) {
		t.Fatalf("validator answers = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("validator answers = %v, want %v", seen, want)
		}
	}
}

func TestEmptyDirectoryTabShowsNoMatches(t *testing.T) {
	m := newTestModel(t, Options{CWD: "/empty"})

	m, _ = press(t, m, key(tea.KeyTab))
	if !m.selecting {
		t.Fatal("tab with no candidates should still open the (empty) list")
	}
	// Cycling over nothing is a no-op.
	m, _ = press(t, m, key(tea.KeyTab))
	if got := m.buffer.Text(); got != "" {
		t.Fatalf("buffer = %q, want empty", got)
	}
	if !strings.Contains(m.View(), "no matches") {
		t.Fatal("view should report the empty candidate set")
	}
}

func TestDirectoryOnlyModeSubmitsDirectories(t *testing.T) {
	m := newTestModel(t, Options{DirectoryOnly: true})

	m, _ = press(t, m, key(tea.KeyTab))
	names := make([]string, 0, len(m.engine.Candidates()))
	for _, c := range m.engine.Candidates() {
		names = append(names, c.Name)
	}
	want := []string{"alpha", "album"}
	if len(names) != len(want) {
		t.Fatalf("candidates = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("candidates = %v, want %v", names, want)
		}
	}
}

func TestRecallSelectsRecentPath(t *testing.T) {
	store := &fakeHistory{recent: []string{"/w/album", "/w/alpha"}}
	m := newTestModel(t, Options{History: store})

	m, _ = press(t, m, key(tea.KeyCtrlR))
	if !m.recall.IsActive() {
		t.Fatal("ctrl+r should engage recall")
	}

	m = typeText(t, m, "alp")
	if got := m.recall.CurrentMatch(); got != "/w/alpha" {
		t.Fatalf("match = %q, want %q", got, "/w/alpha")
	}

	m, _ = press(t, m, key(tea.KeyEnter))
	if m.recall.IsActive() {
		t.Fatal("enter should leave recall")
	}
	if got := m.buffer.Text(); got != "/w/alpha" {
		t.Fatalf("buffer = %q, want %q", got, "/w/alpha")
	}
	if got := m.engine.Input(); got != "/w/alpha" {
		t.Fatalf("engine input = %q, want %q", got, "/w/alpha")
	}
}

func TestRecallEscapeRestoresOriginal(t *testing.T) {
	store := &fakeHistory{recent: []string{"/w/alpha"}}
	m := newTestModel(t, Options{History: store})
	m = typeText(t, m, "dra")

	m, _ = press(t, m, key(tea.KeyCtrlR))
	m = typeText(t, m, "alp")
	m, _ = press(t, m, key(tea.KeyEscape))

	if m.recall.IsActive() {
		t.Fatal("escape should leave recall")
	}
	if got := m.buffer.Text(); got != "dra" {
		t.Fatalf("buffer = %q, want restored %q", got, "dra")
	}
}

func TestAcceptedAnswersAreRecorded(t *testing.T) {
	store := &fakeHistory{}
	m := newTestModel(t, Options{History: store})
	m = typeText(t, m, "alpha")
	m, cmd := press(t, m, key(tea.KeyEnter))
	_ = settle(t, m, cmd)

	if len(store.recorded) != 1 || store.recorded[0] != "/w/alpha" {
		t.Fatalf("recorded = %v, want [/w/alpha]", store.recorded)
	}
}

type fakeHistory struct {
	recent   []string
	recorded []string
}

func (f *fakeHistory) Record(path, _ string) error {
	f.recorded = append(f.recorded, path)
	return nil
}

func (f *fakeHistory) Recent(limit int) []string {
	if limit < len(f.recent) {
		return f.recent[:limit]
	}
	return f.recent
}
