package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/raphaelgruber/journal-viewer/internal/viewer"
)

var (
	runsFilter        string
	runsCaseSensitive bool
	runsGroup         bool
	runsFind          string
	runsUpdates       bool
	runsJumpTo        string
	runsHide          []string
)

var runsCmd = &cobra.Command{
	Use:   "runs <source> [journal]",
	Short: "Print the run data of a journal",
	Long: `Print the run data of a journal. Without a journal argument the source's
first journal is shown. The journal may be given by filename or name.

Examples:
  jv runs "ISIS Journal Archive"
  jv runs "ISIS Journal Archive" journal_23_1.xml --filter vanadium
  jv runs local "RB1820123" --group
  jv runs local --find 00:10 --case-sensitive
  jv runs local --updates --run 45121
  jv runs local --hide proton_charge,user_name`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVarP(&runsFilter, "filter", "f", "", "only show rows with a cell containing this text")
	runsCmd.Flags().BoolVarP(&runsCaseSensitive, "case-sensitive", "c", false, "match filter and find text case-sensitively")
	runsCmd.Flags().BoolVarP(&runsGroup, "group", "g", false, "group runs sharing a title")
	runsCmd.Flags().StringVar(&runsFind, "find", "", "list every visible cell containing this text")
	runsCmd.Flags().BoolVarP(&runsUpdates, "updates", "u", false, "append runs added since the journal was indexed")
	runsCmd.Flags().StringVarP(&runsJumpTo, "run", "r", "", "select the row holding this run number")
	runsCmd.Flags().StringSliceVar(&runsHide, "hide", nil, "column keys to hide")
}

func runRuns(cmd *cobra.Command, args []string) error {
	s := newSession(context.Background())
	journal := ""
	if len(args) > 1 {
		journal = args[1]
	}
	if err := s.open(args[0], journal); err != nil {
		return err
	}
	if runsUpdates {
		if err := s.run(s.m.CheckUpdates()); err != nil {
			return err
		}
		if loaded := lastLoaded(s); loaded.Appended > 0 {
			fmt.Printf("%s new runs.\n", humanize.Comma(int64(loaded.Appended)))
		}
	}

	for _, key := range runsHide {
		s.m.SetColumnVisible(key, false)
	}
	s.m.SetGrouping(runsGroup)
	s.m.SetCaseSensitive(runsCaseSensitive)
	s.m.SetFilter(runsFilter)

	if runsJumpTo != "" {
		if _, err := s.m.JumpToRun(runsJumpTo); err != nil {
			return explain(err)
		}
	}

	return printView(s.m, runsFind)
}

// printView prints the displayed table of m, then every cell containing find
// when it is set.
func printView(m *viewer.Model, find string) error {
	frame, rows := m.Frame(), m.Rows()
	if frame.Len() == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	if find != "" {
		m.Find(find)
	}
	fmt.Printf("Runs (%s of %s):\n\n", humanize.Comma(int64(len(rows))), humanize.Comma(int64(frame.Len())))
	printFrame(os.Stdout, frame, rows, m.SelectedRow())

	if find != "" {
		fmt.Println()
		printMatches(os.Stdout, frame, m.Finder().SelectAll())
	}
	return nil
}

func lastLoaded(s *session) viewer.LoadedMsg {
	var loaded viewer.LoadedMsg
	for _, msg := range s.msgs {
		if l, ok := msg.(viewer.LoadedMsg); ok {
			loaded = l
		}
	}
	return loaded
}
