package source

import (
	"testing"

	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generated(t *testing.T, name string) *JournalSource {
	t.Helper()
	src, err := New(Definition{
		Name:         name,
		Indexing:     models.IndexingGenerated,
		Available:    true,
		UserDefined:  true,
		RunDataRoot:  "/archive/{instrument}/data",
		Organisation: models.OrganisationRBNumber,
	})
	require.NoError(t, err)
	return src
}

var cycles = []models.Journal{
	{Name: "Cycle 23/2", Filename: "journal_23_2.xml"},
	{Name: "Cycle 23/1", Filename: "journal_23_1.xml"},
}

func TestNewValidatesDefinition(t *testing.T) {
	tests := []struct {
		name string
		def  Definition
	}{
		{"no name", Definition{Indexing: models.IndexingNetwork, JournalRootURL: "u", IndexFile: "i"}},
		{"network without index", Definition{Name: "n", Indexing: models.IndexingNetwork, JournalRootURL: "u"}},
		{"generated without root", Definition{Name: "g", Indexing: models.IndexingGenerated}},
		{"bad selector", Definition{Name: "g", Indexing: models.IndexingGenerated, RunDataRoot: "/d", RootSelector: "(["}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.def)
			assert.ErrorIs(t, err, ErrInvalidDefinition)
		})
	}
}

func TestNewDefaultsRootSelector(t *testing.T) {
	src := generated(t, "local")
	assert.Equal(t, `^RB\d+$`, src.RootSelector())
	assert.Equal(t, models.StateLoading, src.State())
}

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from, to models.SourceState
		ok       bool
	}{
		{models.StateLoading, models.StateOK, true},
		{models.StateLoading, models.StateError, true},
		{models.StateOK, models.StateGenerating, true},
		{models.StateError, models.StateGenerating, true},
		{models.StateError, models.StateAcquiring, true},
		{models.StateError, models.StateOK, false},
		{models.StateGenerating, models.StateOK, true},
		{models.StateGenerating, models.StateError, true},
		{models.StateGenerating, models.StateLoading, true},
		{models.StateGenerating, models.StateAcquiring, false},
		{models.StateGenerating, models.StateGenerating, false},
		{models.StateAcquiring, models.StateGenerating, false},
		{models.StateAcquiring, models.StateOK, true},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			src := generated(t, "s")
			src.state = tt.from
			err := src.SetState(tt.to)
			if tt.ok {
				require.NoError(t, err)
				assert.Equal(t, tt.to, src.State())
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.from, src.State())
		})
	}
}

func TestFailRecordsErrorInfo(t *testing.T) {
	src := generated(t, "s")
	info := models.ErrorInfo{Title: "File Not Found", Message: "generate first"}
	require.NoError(t, src.Fail(info))
	assert.Equal(t, models.StateError, src.State())
	assert.Equal(t, info, src.ErrorInfo())

	require.NoError(t, src.SetState(models.StateLoading))
	assert.Empty(t, src.ErrorInfo().Title, "leaving Error clears the info")
}

func TestJournalHandles(t *testing.T) {
	src := generated(t, "s")
	_, ok := src.CurrentJournal()
	assert.False(t, ok)

	src.SetJournals(cycles)
	j, err := src.SelectJournal("journal_23_1.xml")
	require.NoError(t, err)
	assert.Equal(t, "Cycle 23/1", j.Name)

	_, err = src.SelectJournal("missing.xml")
	assert.ErrorIs(t, err, ErrUnknownJournal)

	// re-fetching an index that still contains the journal keeps it current
	src.SetJournals([]models.Journal{{Name: "Cycle 24/1", Filename: "journal_24_1.xml"}, cycles[1]})
	cur, ok := src.CurrentJournal()
	require.True(t, ok)
	assert.Equal(t, "journal_23_1.xml", cur.Filename)

	// an index without it unsets the handle
	src.SetJournals(cycles[:1])
	_, ok = src.CurrentJournal()
	assert.False(t, ok)
}

func TestSearchOverlay(t *testing.T) {
	src := generated(t, "s")
	src.SetJournals(cycles)
	_, err := src.SelectJournalByName("Cycle 23/2")
	require.NoError(t, err)

	src.EnterSearch()
	assert.True(t, src.InSearch())
	_, ok := src.CurrentJournal()
	assert.False(t, ok)

	back, ok := src.ReturnFromSearch()
	require.True(t, ok)
	assert.Equal(t, "Cycle 23/2", back.Name)
	assert.False(t, src.InSearch())
	_, ok = src.PreviousJournal()
	assert.False(t, ok)
}

func TestDescriptor(t *testing.T) {
	mari := models.NewInstrument("MARI", "", models.InstrumentNeutron, false)

	archive := Builtins()[0]
	d := archive.Descriptor(mari)
	assert.Equal(t, "Network", d.Type)
	assert.Equal(t, "http://data.isis.rl.ac.uk/journals/ndxMARI", d.JournalRootURL)
	assert.Equal(t, "journal_main.xml", d.IndexFile)
	assert.Empty(t, d.RunDataRoot)

	local := generated(t, "local")
	d = local.Descriptor(mari)
	assert.Equal(t, "/archive/MARI/data", d.RunDataRoot)
	assert.Equal(t, "RBNumber", d.DataOrganisation)
	assert.Equal(t, "MARI", d.Instrument)
}

func TestFindInstrument(t *testing.T) {
	insts := append(Instruments(), models.NewInstrument("MYINST", "MINE", models.InstrumentMuon, true))

	inst, ok := FindInstrument(insts, "mari")
	require.True(t, ok)
	assert.Equal(t, models.InstrumentNeutron, inst.Type())

	inst, ok = FindInstrument(insts, "mine")
	require.True(t, ok)
	assert.Equal(t, "MYINST", inst.Name())
	assert.Equal(t, "MINE", inst.PathName())

	_, ok = FindInstrument(insts, "NOPE")
	assert.False(t, ok)
}
