package prompt

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/pathline/pathline/internal/complete"
	"github.com/pathline/pathline/internal/fsys"
	"github.com/pathline/pathline/internal/pathname"
)

// ValidationResult is the outcome of a validator. A false OK carries an
// optional message rendered inline under the input.
type ValidationResult struct {
	OK      bool
	Message string
}

// Accept is a ValidationResult that accepts the value.
var Accept = ValidationResult{OK: true}

// Reject returns a ValidationResult that rejects with a message.
func Reject(format string, args ...any) ValidationResult {
	return ValidationResult{Message: fmt.Sprintf(format, args...)}
}

// ValidateFunc checks a resolved absolute path before it is accepted.
// answers holds the values accepted earlier in the same multi session.
// It runs off the update loop, so it may block on I/O.
type ValidateFunc func(value string, answers []string) ValidationResult

// FilterFunc transforms an accepted value before it is recorded. An error
// rejects the value as if validation failed.
type FilterFunc func(value string) (string, error)

// WhenFunc decides whether the prompt runs at all, given the answers
// collected by the surrounding flow.
type WhenFunc func(answers []string) bool

// HistoryStore persists accepted paths across sessions.
type HistoryStore interface {
	Record(path, workingDir string) error
	Recent(limit int) []string
}

// Options configures a prompt session.
type Options struct {
	// CWD is the directory relative input is resolved against. It must
	// name an existing directory.
	CWD string

	// Label is printed before the input line.
	Label string

	// Multi collects answers until the user cancels instead of finishing
	// on the first accepted value.
	Multi bool

	// DirectoryOnly restricts completion candidates to directories.
	DirectoryOnly bool

	Validate ValidateFunc
	Filter   FilterFunc
	When     WhenFunc

	// Answers seeds the flow context consulted by When and passed to
	// Validate. It is not mutated.
	Answers []string

	// History, when set, feeds Ctrl+R recall and records accepted paths.
	History HistoryStore

	// FS defaults to the real filesystem.
	FS fsys.FileSystem

	Logger *zap.Logger

	KeyMap *KeyMap
	Render *RenderConfig

	// Input seeds the line buffer.
	Input string
}

// Result is the outcome of a prompt session.
type Result struct {
	// Answers holds the accepted values. In single mode it has at most one
	// element; in multi mode it holds everything accepted before cancel.
	Answers []string

	// Canceled is set when a single-mode session was interrupted before an
	// answer was accepted.
	Canceled bool
}

// NewModel builds the interaction model without starting a program. Exposed
// for tests and for embedding the prompt in a larger Bubble Tea app.
func NewModel(opts Options) (Model, error) {
	fs := opts.FS
	if fs == nil {
		fs = fsys.OS{}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	cwd := opts.CWD
	if cwd == "" {
		cwd = pathname.Separator
	}

	engine, err := complete.NewEngine(fs, cwd, opts.DirectoryOnly, log)
	if err != nil {
		return Model{}, err
	}

	keymap := opts.KeyMap
	if keymap == nil {
		keymap = DefaultKeyMap()
	}
	config := DefaultRenderConfig()
	if opts.Render != nil {
		config = *opts.Render
	}
	label := opts.Label
	if label == "" {
		label = "> "
	}

	buffer := NewBuffer()
	if opts.Input != "" {
		buffer.SetText(opts.Input)
		engine.SetInput(opts.Input)
	}

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))

	m := Model{
		engine:   engine,
		buffer:   buffer,
		keymap:   keymap,
		renderer: NewRenderer(config, fs),
		recall:   NewRecallState(),
		spin:     sp,
		log:      log,
		label:    label,
		multi:    opts.Multi,
		history:  opts.History,
		validate: opts.Validate,
		filter:   opts.Filter,
	}
	if len(opts.Answers) > 0 {
		m.flowAnswers = slices.Clone(opts.Answers)
	}
	return m, nil
}

// Run executes a prompt session on the terminal and blocks until it
// finishes. A When guard that declines produces an empty, non-canceled
// Result without touching the terminal.
func Run(ctx context.Context, opts Options) (Result, error) {
	if opts.When != nil && !opts.When(opts.Answers) {
		return Result{}, nil
	}

	model, err := NewModel(opts)
	if err != nil {
		return Result{}, err
	}

	program := tea.NewProgram(model, tea.WithContext(ctx))
	final, err := program.Run()
	if err != nil {
		return Result{}, fmt.Errorf("prompt session failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return Result{}, fmt.Errorf("unexpected final model %T", final)
	}
	return m.Result(), nil
}
