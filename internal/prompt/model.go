package prompt

import (
	"slices"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/pathline/pathline/internal/complete"
)

// defaultErrorMessage is rendered when a validator rejects without a message.
const defaultErrorMessage = "invalid path"

// Model is the interaction state machine, expressed as a Bubble Tea model.
// The update loop is the single cooperative event queue: key presses,
// validation results, and paste content all arrive as messages, and each
// handler runs to completion before the next is dispatched.
type Model struct {
	engine   *complete.Engine
	buffer   *Buffer
	keymap   *KeyMap
	renderer *Renderer
	recall   *RecallState
	spin     spinner.Model
	log      *zap.Logger

	label   string
	multi   bool
	history HistoryStore

	validate ValidateFunc
	filter   FilterFunc

	// flowAnswers came from the surrounding flow; answers were accepted in
	// this session. Validators see both, the view renders only the latter.
	flowAnswers []string
	answers     []string

	// selecting means the candidate list is open and navigable. It is not
	// the same as having a concrete selection: the list opens with the
	// cursor unset until the user advances it.
	selecting bool

	// validating is the single-slot pipeline latch: while set, submit
	// events are dropped so overlapping submissions cannot race.
	validating bool

	errMsg string

	done   bool
	result Result
}

// validationMsg re-enters the update loop when a validation settles. Exactly
// one is produced per submission.
type validationMsg struct {
	ok       bool
	message  string
	value    string
	filtered string
}

// pasteMsg carries clipboard content.
type pasteMsg string

// paste reads the clipboard off the update loop.
func paste() tea.Msg {
	str, err := clipboard.ReadAll()
	if err != nil {
		return nil
	}
	return pasteMsg(str)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Result returns the final outcome. Only meaningful once the program quit.
func (m Model) Result() Result {
	return m.result
}

// Update implements tea.Model. Once the model is done no further events are
// processed.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.done {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.renderer.SetWidth(msg.Width)
		return m, nil

	case spinner.TickMsg:
		if !m.validating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case validationMsg:
		return m.handleValidation(msg)

	case pasteMsg:
		m.buffer.InsertRunes(sanitizeRunes([]rune(string(msg))))
		return m.onTextChanged()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleKey routes a key press. Unbound keys with printable runes take the
// default edit transition; anything else malformed is ignored.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action := m.keymap.Lookup(msg)

	if m.recall.IsActive() {
		return m.handleRecallKey(msg, action)
	}

	switch action {
	case ActionComplete:
		return m.handleComplete(true)

	case ActionCompleteBackward:
		return m.handleComplete(false)

	case ActionCursorDown:
		if m.selecting {
			return m.cycleSelection(true)
		}
		return m, nil

	case ActionCursorUp:
		if m.selecting {
			return m.cycleSelection(false)
		}
		return m, nil

	case ActionSubmit:
		return m.handleSubmit()

	case ActionInterrupt:
		return m.handleInterrupt()

	case ActionCancel:
		return m.handleCancel()

	case ActionClearScreen:
		return m, tea.ClearScreen

	case ActionPaste:
		return m, paste

	case ActionRecall:
		m.recall.Start(m.recentPaths(), m.buffer.Text())
		return m, nil

	case ActionCharacterForward:
		m.leaveSelection()
		m.buffer.SetPos(m.buffer.Pos() + 1)
		return m, nil

	case ActionCharacterBackward:
		m.leaveSelection()
		m.buffer.SetPos(m.buffer.Pos() - 1)
		return m, nil

	case ActionWordForward:
		m.leaveSelection()
		m.buffer.WordForward()
		return m, nil

	case ActionWordBackward:
		m.leaveSelection()
		m.buffer.WordBackward()
		return m, nil

	case ActionLineStart:
		m.leaveSelection()
		m.buffer.CursorStart()
		return m, nil

	case ActionLineEnd:
		m.leaveSelection()
		m.buffer.CursorEnd()
		return m, nil

	case ActionDeleteCharacterBackward:
		m.buffer.DeleteCharBackward()
		return m.onTextChanged()

	case ActionDeleteCharacterForward:
		// Ctrl+D on an empty line is EOF by shell convention.
		if m.buffer.Len() == 0 {
			return m.handleEOF()
		}
		m.buffer.DeleteCharForward()
		return m.onTextChanged()

	case ActionDeleteWordBackward:
		m.buffer.DeleteWordBackward()
		return m.onTextChanged()

	case ActionDeleteBeforeCursor:
		m.buffer.DeleteBeforeCursor()
		return m.onTextChanged()

	case ActionDeleteAfterCursor:
		m.buffer.DeleteAfterCursor()
		return m.onTextChanged()

	default:
		if len(msg.Runes) > 0 {
			m.buffer.InsertRunes(sanitizeRunes(msg.Runes))
			return m.onTextChanged()
		}
	}

	return m, nil
}

// onTextChanged is the edit transition: it closes the candidate list and
// forwards the raw line into the engine, which invalidates the candidate
// cache and selection unless the text is unchanged.
func (m Model) onTextChanged() (tea.Model, tea.Cmd) {
	m.selecting = false
	m.errMsg = ""
	m.engine.SetInput(m.buffer.Text())
	return m, nil
}

// leaveSelection closes the list without touching the buffer text.
func (m *Model) leaveSelection() {
	m.selecting = false
	m.engine.ResetSelection()
}

// handleComplete implements the completion key. The first press either
// applies a useful common prefix or opens the list without moving the
// cursor; further presses cycle, forward unless shifted.
func (m Model) handleComplete(forward bool) (tea.Model, tea.Cmd) {
	m.errMsg = ""

	if m.selecting {
		return m.cycleSelection(forward)
	}

	m.engine.SetInput(m.buffer.Text())
	m.engine.Refresh()

	if m.engine.HasUsefulPrefix() {
		m.engine.SetInputEntry(m.engine.CommonPrefix())
		m.buffer.SetText(m.engine.Input())
		return m, nil
	}

	m.selecting = true
	return m, nil
}

// cycleSelection advances the circular cursor and shows the candidate as
// transient line text. The engine input is only committed on Enter.
func (m Model) cycleSelection(forward bool) (tea.Model, tea.Cmd) {
	if entry, ok := m.engine.Advance(forward); ok {
		m.buffer.SetText(m.engine.FormatEntry(entry))
	}
	return m, nil
}

// handleSubmit implements Enter. While the list is open with an active
// selection, Enter is reserved for committing that selection; otherwise the
// input enters the validation pipeline, unless one is already in flight.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	if m.selecting && m.engine.HasSelection() {
		sel, _ := m.engine.Selected()
		m.engine.SetInputEntry(sel)
		m.buffer.SetText(m.engine.Input())
		m.selecting = false
		return m, nil
	}

	if m.validating {
		return m, nil
	}

	m.engine.SetInput(m.buffer.Text())
	value := m.engine.Target().FullPath

	m.validating = true
	m.log.Debug("validating submission", zap.String("value", value))

	validate := m.validate
	filter := m.filter
	answers := slices.Concat(m.flowAnswers, m.answers)

	return m, tea.Batch(m.spin.Tick, func() tea.Msg {
		if validate != nil {
			if res := validate(value, answers); !res.OK {
				return validationMsg{ok: false, message: res.Message, value: value}
			}
		}
		filtered := value
		if filter != nil {
			f, err := filter(value)
			if err != nil {
				return validationMsg{ok: false, message: err.Error(), value: value}
			}
			filtered = f
		}
		return validationMsg{ok: true, value: value, filtered: filtered}
	})
}

// handleValidation settles the pipeline. Failure restores the line to the
// engine's input (dropping any transient selection text) and renders the
// message inline; the user must resubmit, there is no automatic retry.
func (m Model) handleValidation(msg validationMsg) (tea.Model, tea.Cmd) {
	m.validating = false

	if !msg.ok {
		m.errMsg = msg.message
		if m.errMsg == "" {
			m.errMsg = defaultErrorMessage
		}
		m.buffer.SetText(m.engine.Input())
		m.log.Debug("validation failed",
			zap.String("value", msg.value),
			zap.String("message", m.errMsg))
		return m, nil
	}

	m.recordAnswer(msg.filtered)

	if m.multi {
		m.answers = append(m.answers, msg.filtered)
		m.buffer.Clear()
		m.engine.SetInput("")
		m.selecting = false
		m.errMsg = ""
		return m, nil
	}

	m.result = Result{Answers: []string{msg.filtered}}
	m.done = true
	return m, tea.Quit
}

// handleInterrupt implements the cancel signal. An active selection is
// cleared first; in multi mode the answers collected so far become the final
// answer and any partial line is discarded; in single mode the cancellation
// propagates to the caller.
func (m Model) handleInterrupt() (tea.Model, tea.Cmd) {
	if m.engine.HasSelection() {
		m.leaveSelection()
		m.buffer.SetText(m.engine.Input())
		return m, nil
	}

	if m.multi {
		m.result = Result{Answers: slices.Clone(m.answers)}
		m.done = true
		return m, tea.Quit
	}

	m.result = Result{Canceled: true}
	m.done = true
	return m, tea.Quit
}

// handleEOF treats Ctrl+D on an empty line like a terminating signal.
func (m Model) handleEOF() (tea.Model, tea.Cmd) {
	if m.multi {
		m.result = Result{Answers: slices.Clone(m.answers)}
	} else {
		m.result = Result{Canceled: true}
	}
	m.done = true
	return m, tea.Quit
}

// handleCancel implements Escape: close the list if open, else clear any
// inline error.
func (m Model) handleCancel() (tea.Model, tea.Cmd) {
	if m.selecting {
		m.leaveSelection()
		m.buffer.SetText(m.engine.Input())
		return m, nil
	}
	m.errMsg = ""
	return m, nil
}

// handleRecallKey processes keys while Ctrl+R recall is engaged.
func (m Model) handleRecallKey(msg tea.KeyMsg, action Action) (tea.Model, tea.Cmd) {
	switch action {
	case ActionRecall:
		m.recall.Next()
		return m, nil

	case ActionSubmit:
		if match := m.recall.CurrentMatch(); match != "" {
			m.buffer.SetText(match)
		}
		m.recall.Stop()
		return m.onTextChanged()

	case ActionCancel, ActionInterrupt:
		m.buffer.SetText(m.recall.OriginalInput())
		m.recall.Stop()
		return m.onTextChanged()

	case ActionDeleteCharacterBackward:
		m.recall.TrimQuery()
		return m, nil

	default:
		for _, r := range msg.Runes {
			m.recall.AppendToQuery(r)
		}
		return m, nil
	}
}

// recentPaths feeds recall: the persisted store when available, otherwise
// the answers accepted this session, newest first.
func (m Model) recentPaths() []string {
	if m.history != nil {
		if recent := m.history.Recent(recallLimit); len(recent) > 0 {
			return recent
		}
	}
	recent := slices.Clone(m.answers)
	slices.Reverse(recent)
	return recent
}

// recallLimit caps how many persisted answers recall searches.
const recallLimit = 50

func (m Model) recordAnswer(path string) {
	if m.history == nil {
		return
	}
	if err := m.history.Record(path, m.engine.WorkingDir().FullPath); err != nil {
		m.log.Warn("failed to record answer", zap.Error(err))
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		if m.multi && len(m.answers) > 0 {
			return m.renderer.RenderAnswers(m.answers) + "\n"
		}
		return ""
	}

	var sections []string

	if m.multi && len(m.answers) > 0 {
		sections = append(sections, m.renderer.RenderAnswers(m.answers))
	}

	input := m.renderer.RenderInputLine(m.label, m.buffer, !m.validating)
	if m.validating {
		input += " " + m.spin.View()
	}
	sections = append(sections, input)

	if m.recall.IsActive() {
		sections = append(sections, m.renderer.RenderRecall(m.recall))
	}
	if m.errMsg != "" {
		sections = append(sections, m.renderer.RenderError(m.errMsg))
	}
	if m.selecting {
		sections = append(sections, m.renderer.RenderCandidatePanel(m.engine))
	}

	return strings.Join(sections, "\n")
}

// sanitizeRunes replaces control whitespace with plain spaces so pasted
// multi-line content cannot fake key events.
func sanitizeRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		switch r {
		case '\t', '\n', '\r':
			out[i] = ' '
		default:
			out[i] = r
		}
	}
	return out
}
