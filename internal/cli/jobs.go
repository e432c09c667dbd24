package cli

import (
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/raphaelgruber/journal-viewer/internal/eventloop"
	"github.com/raphaelgruber/journal-viewer/internal/jobs"
	"github.com/raphaelgruber/journal-viewer/internal/models"
)

var generateUpdate bool

var generateCmd = &cobra.Command{
	Use:   "generate <source>",
	Short: "Generate the journal index of a local source",
	Long: `Scan a generated source's run-data files and build its journal index.
A full scan replaces the existing index; --update merges newly found files.

Shows a progress bar on a terminal. Press Ctrl+C once to stop the scan,
twice to exit immediately.

Examples:
  jv generate local
  jv generate "Local Run Data" --update --instrument MARI`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var acquireCmd = &cobra.Command{
	Use:   "acquire <source>",
	Short: "Cache every journal of a network source on the backend",
	Long: `Fetch all journals of a network source that the backend has not
cached yet. Searching a network source requires a complete cache.

Examples:
  jv acquire "ISIS Journal Archive"
  jv acquire "ISIS Journal Archive" --instrument LET`,
	Args: cobra.ExactArgs(1),
	RunE: runAcquire,
}

func init() {
	generateCmd.Flags().BoolVarP(&generateUpdate, "update", "u", false, "merge new files into the existing index")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	src, err := lookupSource(args[0])
	if err != nil {
		return err
	}
	style := models.ScanFull
	if generateUpdate {
		style = models.ScanUpdateAll
	}

	ctrl := newController()
	start, err := ctrl.StartGeneration(src.ID(), instrument, style)
	if err != nil {
		return explain(err)
	}
	return runJob(ctrl, start)
}

func runAcquire(cmd *cobra.Command, args []string) error {
	src, err := lookupSource(args[0])
	if err != nil {
		return err
	}

	ctrl := newController()
	start, err := ctrl.StartAcquisition(src.ID(), instrument, nil)
	if err != nil {
		return explain(err)
	}
	return runJob(ctrl, start)
}

// runJob drives a started job to completion, with a progress bar on a
// terminal and plain progress lines otherwise.
func runJob(ctrl *jobs.Controller, start tea.Cmd) error {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return RunJobProgress(ctrl, start)
	}

	m := &jobModel{ctrl: ctrl}
	_, err := eventloop.RunWithOptions(context.Background(), m, eventloop.Options{
		Observe: progressPrinter(os.Stdout),
	}, start)
	if err != nil {
		return err
	}
	if m.finished == nil {
		return fmt.Errorf("job did not finish")
	}
	if m.finished.Err != nil {
		return explain(m.finished.Err)
	}
	printJobSummary(os.Stdout, m.finished.Job)
	return nil
}

// jobModel runs a controller until its job finishes.
type jobModel struct {
	ctrl     *jobs.Controller
	finished *jobs.FinishedMsg
}

func (m *jobModel) Init() tea.Cmd { return nil }

func (m *jobModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if fin, ok := msg.(jobs.FinishedMsg); ok {
		m.finished = &fin
		return m, tea.Quit
	}
	cmd, _ := m.ctrl.Update(msg)
	return m, cmd
}

func (m *jobModel) View() tea.View { return tea.NewView("") }

// progressPrinter returns an observer that prints one line per job update.
func progressPrinter(out io.Writer) func(tea.Msg) {
	last := ""
	return func(msg tea.Msg) {
		p, ok := msg.(jobs.ProgressMsg)
		if !ok {
			return
		}
		line := fmt.Sprintf("[%s %s] %s/%s", p.Job.Kind, p.Job.Phase,
			humanize.Comma(int64(p.Job.Completed)), humanize.Comma(int64(p.Job.Expected)))
		if p.Job.LastItem != "" {
			line += " " + p.Job.LastItem
		}
		if line != last {
			fmt.Fprintln(out, line)
			last = line
		}
	}
}

// printJobSummary writes the result of a finished job.
func printJobSummary(out io.Writer, d jobs.Descriptor) {
	fmt.Fprintf(out, "✓ %s of %s completed in %s\n", d.Kind, d.SourceName, d.Elapsed().Round(time.Millisecond))
	if d.Kind == jobs.KindGeneration {
		fmt.Fprintf(out, "  Files scanned: %s\n", humanize.Comma(int64(d.Completed)))
		if d.DataDirectory != "" {
			fmt.Fprintf(out, "  Directory:     %s\n", d.DataDirectory)
		}
		for _, section := range slices.Sorted(maps.Keys(d.Sections)) {
			fmt.Fprintf(out, "  %-14s %s files\n", section+":", humanize.Comma(int64(d.Sections[section])))
		}
		return
	}
	fmt.Fprintf(out, "  Journals acquired: %s\n", humanize.Comma(int64(d.Completed)))
}
