// Package filter implements the textual row filter and the find index over
// a run-data table.
package filter

import "strings"

// Table is the tabular data the filter and finder read. Only the columns it
// exposes are searched, so callers pass a table restricted to visible columns.
type Table interface {
	Len() int
	ColumnCount() int
	Cell(row, col int) string
}

type matcher struct {
	text          string
	caseSensitive bool
}

func newMatcher(text string, caseSensitive bool) matcher {
	if !caseSensitive {
		text = strings.ToLower(text)
	}
	return matcher{text: text, caseSensitive: caseSensitive}
}

func (m matcher) match(cell string) bool {
	if !m.caseSensitive {
		cell = strings.ToLower(cell)
	}
	return strings.Contains(cell, m.text)
}

// Predicate is a substring filter over every column of a table. A row is
// visible when any of its cells contains the filter text. The visible rows
// are cached until the text, the case sensitivity or the table changes.
type Predicate struct {
	text          string
	caseSensitive bool

	rows  []int
	valid bool
}

// Text returns the filter text.
func (p *Predicate) Text() string { return p.text }

// CaseSensitive reports whether matching is case sensitive.
func (p *Predicate) CaseSensitive() bool { return p.caseSensitive }

// SetText changes the filter text.
func (p *Predicate) SetText(text string) {
	if text != p.text {
		p.text = text
		p.valid = false
	}
}

// SetCaseSensitive changes case sensitivity.
func (p *Predicate) SetCaseSensitive(on bool) {
	if on != p.caseSensitive {
		p.caseSensitive = on
		p.valid = false
	}
}

// Invalidate drops the cached rows. Call it whenever the table changes.
func (p *Predicate) Invalidate() {
	p.valid = false
}

// Visible reports whether one row passes the filter.
func (p *Predicate) Visible(t Table, row int) bool {
	if p.text == "" {
		return true
	}
	m := newMatcher(p.text, p.caseSensitive)
	return p.visible(t, row, m)
}

func (p *Predicate) visible(t Table, row int, m matcher) bool {
	for col := 0; col < t.ColumnCount(); col++ {
		if m.match(t.Cell(row, col)) {
			return true
		}
	}
	return false
}

// Rows returns the indexes of the visible rows in table order.
func (p *Predicate) Rows(t Table) []int {
	if p.valid {
		return p.rows
	}

	rows := make([]int, 0, t.Len())
	m := newMatcher(p.text, p.caseSensitive)
	for row := 0; row < t.Len(); row++ {
		if p.text == "" || p.visible(t, row, m) {
			rows = append(rows, row)
		}
	}
	p.rows = rows
	p.valid = true
	return rows
}
