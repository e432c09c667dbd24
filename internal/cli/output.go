package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/raphaelgruber/journal-viewer/internal/filter"
	"github.com/raphaelgruber/journal-viewer/internal/metrics"
	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/raphaelgruber/journal-viewer/internal/rundata"
)

// printFrame writes the given rows of f as a table. The selected row is
// marked with an arrow.
func printFrame(out io.Writer, f rundata.Frame, rows []int, selected int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	titles := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		titles[i] = strings.ToUpper(c.Title)
	}
	fmt.Fprintln(w, "  \t"+strings.Join(titles, "\t"))

	for _, r := range rows {
		mark := " "
		if r == selected {
			mark = ">"
		}
		cells := make([]string, f.ColumnCount())
		for c := range cells {
			cells[c] = dash(f.Cell(r, c))
		}
		fmt.Fprintf(w, "%s\t%s\n", mark, strings.Join(cells, "\t"))
	}
	w.Flush()
}

// printMatches lists find matches as row/column pairs.
func printMatches(out io.Writer, f rundata.Frame, matches []filter.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(out, "No matches.")
		return
	}
	fmt.Fprintf(out, "Matches (%d):\n", len(matches))
	for i, match := range matches {
		fmt.Fprintf(out, "  %d. run %s, %s: %s\n", i+1,
			f.Records[match.Row].RunNumber(), f.Columns[match.Column].Title, f.Cell(match.Row, match.Column))
	}
}

// printJournals writes a journal index.
func printJournals(out io.Writer, journals []models.Journal, current string) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  \tNAME\tFILENAME\tDESCRIPTION")
	for _, j := range journals {
		mark := " "
		if j.Filename == current {
			mark = ">"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", mark, j.Name, j.Filename, dash(j.Description))
	}
	w.Flush()
}

// printMetrics displays per-endpoint request statistics.
func printMetrics(out io.Writer, snap metrics.Snapshot) {
	fmt.Fprintf(out, "\nBackend Requests (%.1f seconds)\n", snap.UptimeSeconds)
	fmt.Fprintf(out, "═══════════════════════════════════════\n")
	if len(snap.Endpoints) == 0 {
		fmt.Fprintln(out, "No requests.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ENDPOINT\tCALLS\tERRORS\tTOTAL\tAVG\tMIN\tMAX")
	for _, e := range snap.Endpoints {
		fmt.Fprintf(w, "%s\t%s\t%d\t%dms\t%.1fms\t%dms\t%dms\n",
			e.Endpoint, humanize.Comma(e.Count), e.Errors, e.TotalTimeMs, e.AvgTimeMs, e.MinTimeMs, e.MaxTimeMs)
	}
	w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
