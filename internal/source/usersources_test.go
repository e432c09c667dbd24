package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const settingsYAML = `
sources:
  - name: Local MARI
    type: Generated
    run_data_root: /data/{instrument}
    organisation: Directory
  - name: Mirror
    type: Network
    available: false
    journal_root_url: http://mirror.example/{instrument}
    index_file: journal_main.xml
instruments:
  - name: TESTBENCH
    alternative_name: TB
    type: Muon
    columns:
      - {title: Run, key: run_number}
      - {title: Title, key: title}
`

func TestParseUserSettings(t *testing.T) {
	sources, instruments, err := ParseUserSettings([]byte(settingsYAML))
	require.NoError(t, err)
	require.Len(t, sources, 2)

	local := sources[0]
	assert.Equal(t, "Local MARI", local.Name())
	assert.Equal(t, models.IndexingGenerated, local.Indexing())
	assert.Equal(t, models.OrganisationDirectory, local.Organisation())
	assert.True(t, local.UserDefined())
	assert.True(t, local.Available())

	assert.False(t, sources[1].Available())

	require.Len(t, instruments, 1)
	tb := instruments[0]
	assert.True(t, tb.UserDefined())
	assert.Equal(t, models.InstrumentMuon, tb.Type())
	assert.Equal(t, []models.Column{{Title: "Run", Key: "run_number"}, {Title: "Title", Key: "title"}}, tb.Columns())
}

func TestParseUserSettingsFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown type", "sources:\n  - {name: a, type: Local, run_data_root: /d}\n"},
		{"unknown organisation", "sources:\n  - {name: a, type: Generated, run_data_root: /d, organisation: ByYear}\n"},
		{"missing organisation", "sources:\n  - {name: a, type: Generated, run_data_root: /d}\n"},
		{"unknown instrument type", "instruments:\n  - {name: X, type: Photon}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseUserSettings([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadUserSettingsMissingFile(t *testing.T) {
	sources, instruments, err := LoadUserSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, sources)
	assert.Empty(t, instruments)
}

func TestLoadUserSettingsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(settingsYAML), 0o644))

	sources, _, err := LoadUserSettings(path)
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestSaveUserSourcesKeepsInstruments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(settingsYAML), 0o644))
	loaded, _, err := LoadUserSettings(path)
	require.NoError(t, err)

	r, err := NewRegistry(nil, append(Builtins(), loaded...)...)
	require.NoError(t, err)
	added, err := New(Definition{
		Name: "Cycle mirror", Indexing: models.IndexingGenerated, Available: true, UserDefined: true,
		RunDataRoot: "/mirror/{instrument}", Organisation: models.OrganisationRBNumber, RootSelector: `^RB\d+$`,
	})
	require.NoError(t, err)
	require.NoError(t, r.Add(added))
	mirror, _ := r.ByName("Mirror")
	require.NoError(t, r.Remove(mirror.ID()))
	local, _ := r.ByName("Local MARI")
	require.NoError(t, r.Rename(local.ID(), "Local"))

	require.NoError(t, SaveUserSources(path, r.Sources()))

	sources, instruments, err := LoadUserSettings(path)
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "Local", sources[0].Name())
	assert.Equal(t, models.OrganisationDirectory, sources[0].Organisation())
	assert.Equal(t, "Cycle mirror", sources[1].Name())
	assert.Equal(t, `^RB\d+$`, sources[1].RootSelector())
	require.Len(t, instruments, 1, "instruments section survives")
	assert.Equal(t, "TESTBENCH", instruments[0].Name())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), Builtins()[0].Name(), "built-in sources are not written")
	assert.NotContains(t, string(data), "root_selector", "default selectors are not written")
}

func TestSaveUserSourcesCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jv", "sources.yaml")
	src, err := New(Definition{
		Name: "Offline", Indexing: models.IndexingNetwork, UserDefined: true,
		JournalRootURL: "http://mirror.example/{instrument}", IndexFile: "journal_main.xml",
	})
	require.NoError(t, err)

	require.NoError(t, SaveUserSources(path, []*JournalSource{src}))
	sources, _, err := LoadUserSettings(path)
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.False(t, sources[0].Available())
	assert.Equal(t, "journal_main.xml", sources[0].Definition().IndexFile)
}
