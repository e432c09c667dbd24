package cli

import (
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/raphaelgruber/journal-viewer/internal/jobs"
	"github.com/raphaelgruber/journal-viewer/internal/viewer"
)

// progressModel is the bubbletea model for job progress.
type progressModel struct {
	ctrl     *jobs.Controller
	start    tea.Cmd
	job      jobs.Descriptor
	progress progress.Model
	theme    viewer.Theme
	done     bool
	quitting bool
	err      error
}

func newProgressModel(ctrl *jobs.Controller, start tea.Cmd) progressModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return progressModel{
		ctrl:     ctrl,
		start:    start,
		progress: prog,
		theme:    viewer.DefaultTheme,
	}
}

func (m progressModel) Init() tea.Cmd {
	return tea.Batch(m.start, m.progress.Init())
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// First press asks the job to stop, second exits.
			if m.job.Stopping || m.job.ID == "" {
				m.quitting = true
				return m, tea.Quit
			}
			m.job.Stopping = true
			return m, m.stop()
		}

	case jobs.ProgressMsg:
		m.job = msg.Job
		return m, nil

	case jobs.FinishedMsg:
		m.job = msg.Job
		m.err = msg.Err
		m.done = true
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	cmd, _ := m.ctrl.Update(msg)
	return m, cmd
}

func (m progressModel) stop() tea.Cmd {
	if m.job.Kind == jobs.KindGeneration {
		return m.ctrl.StopGeneration()
	}
	return m.ctrl.StopAcquisition()
}

func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}
	if m.job.ID == "" {
		return "Starting job...\n"
	}

	hint := m.theme.HintStyle().Render("Press Ctrl+C to stop")
	if m.job.Stopping {
		hint = m.theme.HintStyle().Render("Stopping, press Ctrl+C again to exit")
	}
	return fmt.Sprintf("%s\n%s\n", viewer.RenderJob(m.theme, m.progress, m.job), hint)
}

func (m progressModel) finalView() string {
	if m.quitting {
		return m.theme.HintStyle().Render("\nExited before the job finished.\n")
	}
	if m.err != nil {
		info := viewer.Describe(m.err)
		return m.theme.ErrorStyle().Render(fmt.Sprintf("\n✗ %s: %s\n", info.Title, info.Message))
	}
	return m.theme.CompletedStyle().Render("✓ Completed") + "\n"
}

// RunJobProgress runs the interactive progress UI for a started job.
// Returns nil on success, the job's error on failure.
func RunJobProgress(ctrl *jobs.Controller, start tea.Cmd) error {
	p := tea.NewProgram(newProgressModel(ctrl, start))

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}

	m, ok := finalModel.(progressModel)
	if !ok {
		return nil
	}
	if m.quitting {
		return fmt.Errorf("%s interrupted", m.job.Kind)
	}
	if m.err != nil {
		return explain(m.err)
	}
	return nil
}
