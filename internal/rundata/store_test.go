package rundata

import (
	"testing"

	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testColumns = []models.Column{
	{Title: "Run Number", Key: models.FieldRunNumber},
	{Title: "Title", Key: models.FieldTitle},
	{Title: "Duration", Key: models.FieldDuration},
}

func runs(numbers ...string) []models.Record {
	out := make([]models.Record, len(numbers))
	for i, n := range numbers {
		out[i] = models.Record{models.FieldRunNumber: n, models.FieldTitle: "run " + n}
	}
	return out
}

func runNumbers(f Frame) []string {
	out := make([]string, f.Len())
	for i, rec := range f.Records {
		out[i] = rec.RunNumber()
	}
	return out
}

func TestAppendBeforeReplaceFails(t *testing.T) {
	s := NewStore()
	err := s.Append(runs("1"))
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.Zero(t, s.Len())
}

func TestAppendPreservesCallOrder(t *testing.T) {
	s := NewStore()
	s.Replace(runs("30", "10"), testColumns)

	require.NoError(t, s.Append(runs("5", "50")))
	require.NoError(t, s.Append(nil))
	require.NoError(t, s.Append(runs("20")))

	assert.Equal(t, []string{"30", "10", "5", "50", "20"}, runNumbers(s.Frame()))
}

func TestReplaceDiscardsPreviousRows(t *testing.T) {
	s := NewStore()
	s.Replace(runs("1", "2"), testColumns)
	s.Replace(runs("9"), testColumns[:1])

	assert.Equal(t, []string{"9"}, runNumbers(s.Frame()))
	assert.Len(t, s.Columns(), 1)
}

func TestFrameIsSnapshot(t *testing.T) {
	s := NewStore()
	s.Replace(runs("1"), testColumns)
	before := s.Frame()

	require.NoError(t, s.Append(runs("2")))

	assert.Equal(t, 1, before.Len())
	assert.Equal(t, 2, s.Frame().Len())
}

func TestLookup(t *testing.T) {
	s := NewStore()
	s.Replace(runs("7", "8", "8"), testColumns)

	i, ok := s.Lookup(models.FieldRunNumber, "8")
	assert.True(t, ok)
	assert.Equal(t, 1, i)

	_, ok = s.Lookup(models.FieldRunNumber, "99")
	assert.False(t, ok)
}

func TestResetUnloads(t *testing.T) {
	s := NewStore()
	s.Replace(runs("1"), testColumns)
	s.Reset()
	assert.False(t, s.Loaded())
	assert.ErrorIs(t, s.Append(runs("2")), ErrNotLoaded)
}

func TestFrameCell(t *testing.T) {
	f := Frame{Columns: testColumns, Records: []models.Record{
		{models.FieldRunNumber: 45123.0, models.FieldTitle: "Vanadium", models.FieldDuration: "01:00:00"},
	}}
	assert.Equal(t, "45123", f.Cell(0, 0))
	assert.Equal(t, "Vanadium", f.Cell(0, 1))
	assert.Equal(t, "01:00:00", f.Cell(0, 2))
	assert.Equal(t, 2, f.WithColumns(testColumns[1:]).ColumnCount())
}
