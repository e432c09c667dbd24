package viewer

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/raphaelgruber/journal-viewer/internal/jobs"
	"github.com/raphaelgruber/journal-viewer/internal/models"
)

// Theme holds the color scheme for the terminal views.
type Theme struct {
	Status   lipgloss.Color
	Success  lipgloss.Color
	Error    lipgloss.Color
	Hint     lipgloss.Color
	Selected lipgloss.Color
}

// DefaultTheme provides default colors.
var DefaultTheme = Theme{
	Status:   lipgloss.Color("#5FAFD7"), // light blue
	Success:  lipgloss.Color("#00D787"), // green
	Error:    lipgloss.Color("#FF005F"), // red
	Hint:     lipgloss.Color("#6C6C6C"), // dim gray
	Selected: lipgloss.Color("#3A3A3A"), // dark gray
}

func (t Theme) StatusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) CompletedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) HintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) selectedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Background(t.Selected).Bold(true)
}

// inputMode is what typed text is going to.
type inputMode int

const (
	inputNone inputMode = iota
	inputFilter
	inputFind
	inputRun
)

type ui struct {
	bar    progress.Model
	theme  Theme
	width  int
	height int
	mode   inputMode
	input  string
	quit   bool
}

const maxCellWidth = 30

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleUI(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ui.width, m.ui.height = msg.Width, msg.Height
		return m, nil
	case progress.FrameMsg:
		var cmd tea.Cmd
		m.ui.bar, cmd = m.ui.bar.Update(msg)
		return m, cmd
	case AcquisitionRequiredMsg:
		m.notice = fmt.Sprintf("%s journals are not cached. Press A to acquire them and search.", humanize.Comma(int64(msg.Uncached)))
		return m, nil
	case RunFoundMsg:
		m.notice = fmt.Sprintf("Run %s is in %s", msg.Run, msg.Journal)
		return m, nil
	case tea.KeyPressMsg:
		if m.ui.mode != inputNone {
			return m, m.handleInput(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleInput(msg tea.KeyPressMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.ui.mode, m.ui.input = inputNone, ""
		return nil
	case "backspace":
		if r := []rune(m.ui.input); len(r) > 0 {
			m.ui.input = string(r[:len(r)-1])
		}
		if m.ui.mode == inputFilter {
			m.SetFilter(m.ui.input)
		}
		return nil
	case "enter":
		mode, text := m.ui.mode, m.ui.input
		m.ui.mode, m.ui.input = inputNone, ""
		switch mode {
		case inputFind:
			n := m.Find(text)
			m.notice = fmt.Sprintf("%d matches", n)
		case inputRun:
			return m.try(m.FindRun(text))
		}
		return nil
	}

	if msg.Text != "" {
		m.ui.input += msg.Text
		if m.ui.mode == inputFilter {
			m.SetFilter(m.ui.input)
		}
	}
	return nil
}

// try reports err in the view instead of returning it.
func (m *Model) try(cmd tea.Cmd, err error) tea.Cmd {
	if err != nil {
		m.report(err)
		return nil
	}
	return cmd
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	m.notice = ""
	switch msg.String() {
	case "ctrl+c", "q":
		m.ui.quit = true
		return tea.Quit
	case "tab":
		return m.cycleSource(1)
	case "shift+tab":
		return m.cycleSource(-1)
	case "]":
		return m.cycleJournal(1)
	case "[":
		return m.cycleJournal(-1)
	case "up", "k":
		m.moveRow(-1)
	case "down", "j":
		m.moveRow(1)
	case "/":
		m.ui.mode, m.ui.input = inputFilter, m.predicate.Text()
	case "f":
		m.ui.mode, m.ui.input = inputFind, ""
	case "#":
		m.ui.mode, m.ui.input = inputRun, ""
	case "n":
		m.FindNext()
	case "N":
		m.FindPrev()
	case "c":
		m.SetCaseSensitive(!m.predicate.CaseSensitive())
	case "g":
		m.SetGrouping(!m.grouped)
	case "u":
		return m.try(m.CheckUpdates())
	case "r":
		return m.try(m.ReturnToJournal())
	case "G":
		return m.try(m.Generate(models.ScanFull))
	case "U":
		return m.try(m.Generate(models.ScanUpdateAll))
	case "a":
		return m.try(m.Acquire())
	case "A":
		return m.try(m.AcquireForSearch())
	case "s":
		return m.Stop()
	}
	return nil
}

func (m *Model) cycleSource(step int) tea.Cmd {
	sources := m.registry.Sources()
	if len(sources) == 0 {
		return nil
	}
	at := -1
	if src, ok := m.registry.Selected(); ok {
		for i, s := range sources {
			if s.ID() == src.ID() {
				at = i
			}
		}
	}
	for range sources {
		at = (at + step + len(sources)) % len(sources)
		if sources[at].Available() {
			return m.try(m.SelectSource(sources[at].ID()))
		}
	}
	return nil
}

func (m *Model) cycleJournal(step int) tea.Cmd {
	src, err := m.selected()
	if err != nil {
		return nil
	}
	journals := src.Journals()
	if len(journals) == 0 {
		return nil
	}
	at := 0
	if cur, ok := src.CurrentJournal(); ok {
		for i, j := range journals {
			if j.Filename == cur.Filename {
				at = (i + step + len(journals)) % len(journals)
			}
		}
	}
	return m.try(m.SelectJournal(journals[at].Filename))
}

func (m *Model) moveRow(step int) {
	rows := m.Rows()
	if len(rows) == 0 {
		return
	}
	pos := -1
	for i, r := range rows {
		if r == m.row {
			pos = i
		}
	}
	pos += step
	if pos < 0 {
		pos = 0
	}
	if pos >= len(rows) {
		pos = len(rows) - 1
	}
	m.row = rows[pos]
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the browser.
func (m *Model) View() tea.View {
	return tea.NewView(m.Render())
}

// Render returns the browser as text.
func (m *Model) Render() string {
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	src, ok := m.registry.Selected()
	switch {
	case !ok:
		b.WriteString(m.ui.theme.HintStyle().Render("No source selected. Press tab to choose one."))
		b.WriteString("\n")
	case src.State() == models.StateError:
		info := src.ErrorInfo()
		b.WriteString(m.ui.theme.ErrorStyle().Render("✗ " + info.Title))
		b.WriteString("\n" + info.Message + "\n")
	case src.State().Busy():
		b.WriteString(m.renderJob())
	case src.State() == models.StateLoading:
		b.WriteString(m.ui.theme.HintStyle().Render("Loading..."))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderTable())
	}

	b.WriteString(m.footer())
	return b.String()
}

func (m *Model) header() string {
	src, ok := m.registry.Selected()
	if !ok {
		return m.ui.theme.StatusStyle().Render(fmt.Sprintf("[%s]", m.inst.Name()))
	}
	title := fmt.Sprintf("[%s] %s (%s)", m.inst.Name(), src.Name(), src.State())
	if m.searching {
		title += " / search results"
	} else if j, ok := src.CurrentJournal(); ok {
		title += " / " + j.Name
	}
	return m.ui.theme.StatusStyle().Render(title)
}

func (m *Model) renderJob() string {
	d := m.progress
	if d.ID == "" {
		return m.ui.theme.HintStyle().Render("Waiting for job...") + "\n"
	}
	return RenderJob(m.ui.theme, m.ui.bar, d) + "\n" + m.ui.theme.HintStyle().Render("Press s to stop") + "\n"
}

// RenderJob renders one line of job progress.
func RenderJob(theme Theme, bar progress.Model, d jobs.Descriptor) string {
	status := theme.StatusStyle().Render(fmt.Sprintf("[%s %s]", d.Kind, d.Phase))
	counts := fmt.Sprintf("%s/%s", humanize.Comma(int64(d.Completed)), humanize.Comma(int64(d.Expected)))
	line := fmt.Sprintf("%s %s %s", status, bar.ViewAs(d.Fraction()), counts)
	if d.LastItem != "" {
		line += " " + theme.HintStyle().Render(d.LastItem)
	}
	if d.Stopping {
		line += " " + theme.ErrorStyle().Render("stopping")
	}
	return line
}

func (m *Model) renderTable() string {
	f := m.frame
	rows := m.Rows()
	if f.ColumnCount() == 0 {
		return m.ui.theme.HintStyle().Render("No journal loaded.") + "\n"
	}

	widths := make([]int, f.ColumnCount())
	for c, col := range f.Columns {
		widths[c] = len(col.Title)
	}
	for _, r := range rows {
		for c := range f.Columns {
			widths[c] = max(widths[c], min(len(f.Cell(r, c)), maxCellWidth))
		}
	}

	var b strings.Builder
	header := make([]string, len(f.Columns))
	for c, col := range f.Columns {
		header[c] = pad(col.Title, widths[c])
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(strings.Join(header, "  ")))
	b.WriteString("\n")

	for _, r := range m.window(rows) {
		cells := make([]string, len(f.Columns))
		for c := range f.Columns {
			cells[c] = pad(f.Cell(r, c), widths[c])
		}
		line := strings.Join(cells, "  ")
		if r == m.row {
			line = m.ui.theme.selectedStyle().Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// window returns the slice of rows that fits the terminal, keeping the
// selected row on screen.
func (m *Model) window(rows []int) []int {
	height := m.ui.height - 5
	if height <= 0 || len(rows) <= height {
		return rows
	}
	start := 0
	for i, r := range rows {
		if r == m.row {
			start = max(0, i-height/2)
		}
	}
	end := min(len(rows), start+height)
	return rows[start:end]
}

func pad(s string, width int) string {
	r := []rune(s)
	if len(r) > width {
		if width <= 1 {
			return string(r[:width])
		}
		return string(r[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(r))
}

func (m *Model) footer() string {
	var parts []string
	if m.ui.mode != inputNone {
		label := map[inputMode]string{inputFilter: "filter", inputFind: "find", inputRun: "run"}[m.ui.mode]
		parts = append(parts, fmt.Sprintf("%s: %s█", label, m.ui.input))
	} else {
		if t := m.predicate.Text(); t != "" {
			parts = append(parts, fmt.Sprintf("filter %q", t))
		}
		if m.finder.Len() > 0 {
			parts = append(parts, fmt.Sprintf("match %d/%d", m.finder.Active()+1, m.finder.Len()))
		}
		if m.predicate.CaseSensitive() {
			parts = append(parts, "case")
		}
		if m.grouped {
			parts = append(parts, "grouped")
		}
		parts = append(parts, fmt.Sprintf("%s rows", humanize.Comma(int64(len(m.Rows())))))
	}

	out := m.ui.theme.HintStyle().Render(strings.Join(parts, " · ")) + "\n"
	if m.lastErr != nil {
		out += m.ui.theme.ErrorStyle().Render(m.lastErr.Title+": ") + m.lastErr.Message + "\n"
	}
	if m.notice != "" {
		out += m.notice + "\n"
	}
	return out
}
