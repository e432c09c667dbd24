package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type grid [][]string

func (g grid) Len() int                 { return len(g) }
func (g grid) ColumnCount() int         { return len(g[0]) }
func (g grid) Cell(row, col int) string { return g[row][col] }

var runs = grid{
	{"45120", "Vanadium calibration", "00:10:00"},
	{"45121", "Sample A 300K", "01:00:00"},
	{"45122", "sample B 10K", "00:30:00"},
	{"45123", "Empty can", "00:12:00"},
}

func TestEmptyFilterShowsAll(t *testing.T) {
	var p Predicate
	assert.Equal(t, []int{0, 1, 2, 3}, p.Rows(runs))
}

func TestFilterMatchesAnyColumn(t *testing.T) {
	var p Predicate
	p.SetText("12")
	assert.Equal(t, []int{0, 1, 2, 3}, p.Rows(runs), "every run number contains 12")

	p.SetText("00:1")
	assert.Equal(t, []int{0, 3}, p.Rows(runs))
}

func TestFilterCaseSensitivity(t *testing.T) {
	var p Predicate
	p.SetText("sample")
	assert.Equal(t, []int{1, 2}, p.Rows(runs))

	p.SetCaseSensitive(true)
	assert.Equal(t, []int{2}, p.Rows(runs))
	assert.True(t, p.Visible(runs, 2))
	assert.False(t, p.Visible(runs, 1))
}

func TestFilterWideningNeverHidesRows(t *testing.T) {
	var p Predicate
	for _, pair := range [][2]string{{"4512", "451"}, {"Sample A", "Sample"}, {"12", ""}} {
		p.SetText(pair[0])
		narrow := p.Rows(runs)
		p.SetText(pair[1])
		wide := p.Rows(runs)
		for _, row := range narrow {
			assert.Contains(t, wide, row, "widening %q to %q", pair[0], pair[1])
		}
	}
	assert.Len(t, p.Rows(runs), runs.Len())
}

func TestFilterCacheInvalidation(t *testing.T) {
	table := grid{{"a"}, {"b"}}
	var p Predicate
	p.SetText("a")
	assert.Equal(t, []int{0}, p.Rows(table))

	table = append(table, []string{"ab"})
	assert.Equal(t, []int{0}, p.Rows(table), "cached until invalidated")

	p.Invalidate()
	assert.Equal(t, []int{0, 2}, p.Rows(table))
}

func TestFindColumnMajorOrder(t *testing.T) {
	var f Finder
	n := f.Find(runs, []int{0, 1, 2, 3}, "1", false)

	matches := f.SelectAll()
	assert.Equal(t, 8, n)
	assert.Equal(t, []Match{
		{Row: 0, Column: 0}, {Row: 1, Column: 0}, {Row: 2, Column: 0}, {Row: 3, Column: 0},
		{Row: 2, Column: 1},
		{Row: 0, Column: 2}, {Row: 1, Column: 2}, {Row: 3, Column: 2},
	}, matches)
}

func TestFindOnlySearchesVisibleRows(t *testing.T) {
	var f Finder
	f.Find(runs, []int{1, 3}, "451", false)
	assert.Equal(t, []Match{{Row: 1, Column: 0}, {Row: 3, Column: 0}}, f.SelectAll())
}

func TestFindNavigationWraps(t *testing.T) {
	var f Finder
	n := f.Find(runs, []int{0, 1, 2, 3}, "4512", false)
	assert.Equal(t, 4, n)

	first, ok := f.Current()
	assert.True(t, ok)
	assert.Equal(t, Match{Row: 0, Column: 0}, first)

	var m Match
	for i := 0; i < n; i++ {
		m, _ = f.Next()
	}
	assert.Equal(t, first, m, "findDown N times returns to the first match")

	last, _ := f.Prev()
	assert.Equal(t, Match{Row: 3, Column: 0}, last, "findUp from the first match lands on the last")
}

func TestSelectAllKeepsActive(t *testing.T) {
	var f Finder
	f.Find(runs, []int{0, 1, 2, 3}, "4512", false)
	f.Next()
	f.Next()
	all := f.SelectAll()
	assert.Len(t, all, 4)
	assert.Equal(t, 2, f.Active())
}

func TestNavigationDoesNotRecompute(t *testing.T) {
	table := grid{{"x1"}, {"x2"}}
	var f Finder
	f.Find(table, []int{0, 1}, "x", true)
	table[1][0] = "y"
	f.Next()
	assert.Equal(t, 2, f.Len())

	f.Refresh(table, []int{0, 1})
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, 0, f.Active())
}

func TestFindNoMatches(t *testing.T) {
	var f Finder
	assert.Zero(t, f.Find(runs, []int{0, 1, 2, 3}, "zzz", false))
	_, ok := f.Next()
	assert.False(t, ok)
	_, ok = f.Prev()
	assert.False(t, ok)

	f.Find(runs, []int{0}, "", false)
	assert.Zero(t, f.Len())
}
