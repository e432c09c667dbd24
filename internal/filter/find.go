package filter

// Match is one cell containing the find text. Row indexes the table.
type Match struct {
	Row    int
	Column int
}

// Finder records every cell matching a find text and navigates them
// circularly. The match list is only rebuilt by Find or Refresh.
type Finder struct {
	text          string
	caseSensitive bool
	matches       []Match
	active        int
}

// Find collects the matches of text over the given visible rows, column by
// column, and makes the first match active. It returns the match count.
func (f *Finder) Find(t Table, rows []int, text string, caseSensitive bool) int {
	f.text = text
	f.caseSensitive = caseSensitive
	f.collect(t, rows)
	return len(f.matches)
}

// Refresh repeats the last find over a changed set of visible rows.
func (f *Finder) Refresh(t Table, rows []int) {
	if f.text == "" {
		return
	}
	f.collect(t, rows)
}

func (f *Finder) collect(t Table, rows []int) {
	f.matches = f.matches[:0]
	f.active = 0
	if f.text == "" {
		return
	}
	m := newMatcher(f.text, f.caseSensitive)
	for col := 0; col < t.ColumnCount(); col++ {
		for _, row := range rows {
			if m.match(t.Cell(row, col)) {
				f.matches = append(f.matches, Match{Row: row, Column: col})
			}
		}
	}
}

// Clear forgets the find text and its matches.
func (f *Finder) Clear() {
	f.text = ""
	f.matches = nil
	f.active = 0
}

// Text returns the last find text.
func (f *Finder) Text() string { return f.text }

// Len returns the number of matches.
func (f *Finder) Len() int { return len(f.matches) }

// Active returns the position of the active match in the match list.
func (f *Finder) Active() int { return f.active }

// Current returns the active match.
func (f *Finder) Current() (Match, bool) {
	if len(f.matches) == 0 {
		return Match{}, false
	}
	return f.matches[f.active], true
}

// Next moves to the following match, wrapping to the first.
func (f *Finder) Next() (Match, bool) {
	if len(f.matches) == 0 {
		return Match{}, false
	}
	f.active = (f.active + 1) % len(f.matches)
	return f.matches[f.active], true
}

// Prev moves to the preceding match, wrapping to the last.
func (f *Finder) Prev() (Match, bool) {
	if len(f.matches) == 0 {
		return Match{}, false
	}
	f.active = (f.active - 1 + len(f.matches)) % len(f.matches)
	return f.matches[f.active], true
}

// SelectAll returns every match. The active match is unchanged.
func (f *Finder) SelectAll() []Match {
	return append([]Match(nil), f.matches...)
}
