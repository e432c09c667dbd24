package rundata

import (
	"log/slog"
	"time"

	"github.com/raphaelgruber/journal-viewer/internal/models"
)

// RunSeparator joins the run numbers of a grouped record.
const RunSeparator = ";"

type group struct {
	record   models.Record
	duration time.Duration
	runs     string
	merged   bool
}

// Group merges records sharing a title. Each group keeps the fields of its
// first record, with the summed duration and the semicolon-joined run
// numbers of every member. Groups appear in first-seen title order.
// Unparseable durations count as zero.
func Group(records []models.Record) []models.Record {
	groups := make([]*group, 0, len(records))
	index := make(map[string]int, len(records))

	for _, rec := range records {
		title := rec.Text(models.FieldTitle)
		d := parseOrZero(rec)

		if i, ok := index[title]; ok {
			g := groups[i]
			g.duration += d
			g.runs += RunSeparator + rec.RunNumber()
			g.merged = true
			continue
		}

		index[title] = len(groups)
		groups = append(groups, &group{record: rec, duration: d, runs: rec.RunNumber()})
	}

	out := make([]models.Record, len(groups))
	for i, g := range groups {
		if !g.merged {
			out[i] = g.record
			continue
		}
		rec := g.record.Clone()
		rec[models.FieldDuration] = FormatDuration(g.duration)
		rec[models.FieldRunNumber] = g.runs
		out[i] = rec
	}
	return out
}

// GroupFrame returns f with its records grouped by title.
func GroupFrame(f Frame) Frame {
	return Frame{Columns: f.Columns, Records: Group(f.Records)}
}

func parseOrZero(rec models.Record) time.Duration {
	text := rec.Text(models.FieldDuration)
	d, err := ParseDuration(text)
	if err != nil {
		slog.Debug("treating unparseable duration as zero", "run", rec.RunNumber(), "duration", text)
		return 0
	}
	return d
}
