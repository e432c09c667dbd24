// Package rundata holds the run-data table of the selected journal and the
// views derived from it.
package rundata

import (
	"errors"

	"github.com/raphaelgruber/journal-viewer/internal/models"
)

// ErrNotLoaded is returned when appending to a store that was never filled.
var ErrNotLoaded = errors.New("run data appended before initial load")

// Frame is an immutable snapshot of tabular run data.
type Frame struct {
	Columns []models.Column
	Records []models.Record
}

// Len returns the number of rows.
func (f Frame) Len() int { return len(f.Records) }

// ColumnCount returns the number of columns.
func (f Frame) ColumnCount() int { return len(f.Columns) }

// Cell returns the displayed text of one cell.
func (f Frame) Cell(row, col int) string {
	return f.Records[row].Text(f.Columns[col].Key)
}

// WithColumns returns a frame over the same rows showing only cols.
func (f Frame) WithColumns(cols []models.Column) Frame {
	return Frame{Columns: cols, Records: f.Records}
}

// Store owns the live run-data table. Row order is always the order the
// backend delivered; the store never sorts.
type Store struct {
	columns []models.Column
	records []models.Record
	loaded  bool
}

// NewStore returns an empty, unloaded store.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a new table.
func (s *Store) Replace(records []models.Record, columns []models.Column) {
	s.records = records
	s.columns = columns
	s.loaded = true
}

// Append adds rows after the existing ones.
func (s *Store) Append(records []models.Record) error {
	if !s.loaded {
		return ErrNotLoaded
	}
	s.records = append(s.records, records...)
	return nil
}

// Reset returns the store to its unloaded state.
func (s *Store) Reset() {
	s.records = nil
	s.columns = nil
	s.loaded = false
}

// Lookup returns the position of the first record whose field key displays
// as value.
func (s *Store) Lookup(key, value string) (int, bool) {
	for i, rec := range s.records {
		if rec.Text(key) == value {
			return i, true
		}
	}
	return -1, false
}

// Loaded reports whether Replace has been called since the last Reset.
func (s *Store) Loaded() bool { return s.loaded }

// Len returns the number of rows.
func (s *Store) Len() int { return len(s.records) }

// Columns returns the current column set.
func (s *Store) Columns() []models.Column { return s.columns }

// Frame returns a snapshot of the current table.
func (s *Store) Frame() Frame {
	return Frame{Columns: s.columns, Records: s.records[:len(s.records):len(s.records)]}
}
