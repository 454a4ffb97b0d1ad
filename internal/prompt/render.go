package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/rivo/uniseg"

	"github.com/pathline/pathline/internal/complete"
	"github.com/pathline/pathline/internal/fsys"
)

// candidateWindow is how many candidates the panel shows at once, centered
// on the selection.
const candidateWindow = 5

// RenderConfig holds the lipgloss styles for the prompt.
type RenderConfig struct {
	LabelStyle     lipgloss.Style
	TextStyle      lipgloss.Style
	CursorStyle    lipgloss.Style
	PanelStyle     lipgloss.Style
	SelectedStyle  lipgloss.Style
	DirectoryStyle lipgloss.Style
	SizeStyle      lipgloss.Style
	ErrorStyle     lipgloss.Style
	AnswerStyle    lipgloss.Style
	RecallStyle    lipgloss.Style
}

// DefaultRenderConfig returns the default styling.
func DefaultRenderConfig() RenderConfig {
	return RenderConfig{
		LabelStyle:  lipgloss.NewStyle().Bold(true),
		TextStyle:   lipgloss.NewStyle(),
		CursorStyle: lipgloss.NewStyle().Reverse(true),
		PanelStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")),
		SelectedStyle:  lipgloss.NewStyle().Bold(true),
		DirectoryStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		SizeStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		ErrorStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		AnswerStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		RecallStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

// Renderer draws the prompt view: accepted answers, the input line with
// cursor, the candidate panel, and inline status lines.
type Renderer struct {
	config RenderConfig
	width  int
	fs     fsys.FileSystem
}

// NewRenderer creates a Renderer. fs is consulted for file sizes shown in
// the candidate panel.
func NewRenderer(config RenderConfig, fs fsys.FileSystem) *Renderer {
	return &Renderer{
		config: config,
		width:  80,
		fs:     fs,
	}
}

// SetWidth updates the terminal width.
func (r *Renderer) SetWidth(width int) {
	if width > 0 {
		r.width = width
	}
}

// RenderInputLine draws the label and the line buffer with a cursor block.
func (r *Renderer) RenderInputLine(label string, buf *Buffer, focused bool) string {
	var sb strings.Builder
	sb.WriteString(r.config.LabelStyle.Render(label))

	text := []rune(buf.Text())
	pos := min(max(buf.Pos(), 0), len(text))

	sb.WriteString(r.config.TextStyle.Render(string(text[:pos])))
	if pos < len(text) {
		if focused {
			sb.WriteString(r.config.CursorStyle.Render(string(text[pos])))
		} else {
			sb.WriteString(r.config.TextStyle.Render(string(text[pos])))
		}
		sb.WriteString(r.config.TextStyle.Render(string(text[pos+1:])))
	} else if focused {
		sb.WriteString(r.config.CursorStyle.Render(" "))
	}

	return sb.String()
}

// RenderCandidatePanel draws a bordered window of up to candidateWindow
// candidates centered on the selection. Directories carry their trailing
// separator; files are annotated with a humanized size.
func (r *Renderer) RenderCandidatePanel(eng *complete.Engine) string {
	candidates := eng.Candidates()
	if len(candidates) == 0 {
		return r.config.PanelStyle.Render(r.config.SizeStyle.Render("(no matches)"))
	}

	sel := eng.SelectedIndex()
	start := 0
	if sel >= 0 {
		start = sel - candidateWindow/2
	}
	start = min(max(start, 0), max(len(candidates)-candidateWindow, 0))
	end := min(start+candidateWindow, len(candidates))

	nameWidth := 0
	for _, c := range candidates[start:end] {
		if w := uniseg.StringWidth(c.Name); w > nameWidth {
			nameWidth = w
		}
	}

	var lines []string
	for i := start; i < end; i++ {
		c := candidates[i]
		lines = append(lines, r.renderCandidate(c, i == sel, nameWidth))
	}
	if start > 0 {
		lines = append([]string{r.config.SizeStyle.Render("  ↑")}, lines...)
	}
	if end < len(candidates) {
		lines = append(lines, r.config.SizeStyle.Render("  ↓"))
	}

	return r.config.PanelStyle.Render(strings.Join(lines, "\n"))
}

func (r *Renderer) renderCandidate(c complete.Entry, selected bool, nameWidth int) string {
	marker := "  "
	if selected {
		marker = "> "
	}

	name := c.Name + dirSuffix(c)
	pad := strings.Repeat(" ", max(nameWidth+1-uniseg.StringWidth(name), 1))

	var annotation string
	if c.IsDirectory() {
		name = r.config.DirectoryStyle.Render(name)
	} else if size, ok := r.fs.FileSize(c.FullPath); ok {
		annotation = r.config.SizeStyle.Render(humanize.Bytes(uint64(size)))
	}

	head := marker + name
	if selected {
		head = r.config.SelectedStyle.Render(head)
	}
	line := head + pad + annotation

	maxWidth := r.width - 4
	if maxWidth > 0 {
		line = truncate.StringWithTail(line, uint(maxWidth), "…")
	}
	return line
}

func dirSuffix(c complete.Entry) string {
	if c.IsDirectory() {
		return "/"
	}
	return ""
}

// RenderError draws an inline validation error.
func (r *Renderer) RenderError(msg string) string {
	return r.config.ErrorStyle.Render(">> " + msg)
}

// RenderAnswers draws the already-accepted answers in multi mode.
func (r *Renderer) RenderAnswers(answers []string) string {
	var lines []string
	for _, a := range answers {
		lines = append(lines, r.config.AnswerStyle.Render("✓ "+a))
	}
	return strings.Join(lines, "\n")
}

// RenderRecall draws the Ctrl+R recall line.
func (r *Renderer) RenderRecall(s *RecallState) string {
	match := s.CurrentMatch()
	if match == "" {
		match = "(no matches)"
	}
	return r.config.RecallStyle.Render(
		fmt.Sprintf("recall %q: %s (%d)", s.Query(), match, s.MatchCount()))
}
