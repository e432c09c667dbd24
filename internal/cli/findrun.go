package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphaelgruber/journal-viewer/internal/viewer"
)

var findRunCmd = &cobra.Command{
	Use:   "find-run <source> <run>",
	Short: "Find the journal holding a run and print its row",
	Long: `Ask the backend which journal holds a run number, open that journal and
print it with the run's row selected.

Examples:
  jv find-run "ISIS Journal Archive" 45121
  jv find-run local 1002 --instrument MARI`,
	Args: cobra.ExactArgs(2),
	RunE: runFindRun,
}

func runFindRun(cmd *cobra.Command, args []string) error {
	s := newSession(context.Background())
	if err := s.run(s.m.SelectSource(args[0])); err != nil {
		return err
	}
	if err := s.run(s.m.FindRun(args[1])); err != nil {
		return err
	}

	for _, msg := range s.msgs {
		if found, ok := msg.(viewer.RunFoundMsg); ok {
			fmt.Printf("Run %s is in %s.\n\n", found.Run, found.Journal)
		}
	}

	printFrame(os.Stdout, s.m.Frame(), around(s.m.Rows(), s.m.SelectedRow(), findRunContext), s.m.SelectedRow())
	return nil
}

// findRunContext is how many rows are printed on each side of the found run.
const findRunContext = 5

// around returns up to n rows either side of selected.
func around(rows []int, selected, n int) []int {
	for i, r := range rows {
		if r != selected {
			continue
		}
		lo, hi := max(i-n, 0), min(i+n+1, len(rows))
		return rows[lo:hi]
	}
	return rows
}
