package source

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/journal-viewer/internal/models"
	"gopkg.in/yaml.v3"
)

// UserSettings is the file form of user-defined sources and instruments.
type UserSettings struct {
	Sources     []SourceEntry     `yaml:"sources"`
	Instruments []InstrumentEntry `yaml:"instruments"`
}

// SourceEntry is one user-defined source.
type SourceEntry struct {
	Name           string `yaml:"name"`
	Type           string `yaml:"type"`
	Available      *bool  `yaml:"available,omitempty"`
	JournalRootURL string `yaml:"journal_root_url,omitempty"`
	IndexFile      string `yaml:"index_file,omitempty"`
	RunDataRoot    string `yaml:"run_data_root,omitempty"`
	Organisation   string `yaml:"organisation,omitempty"`
	RootSelector   string `yaml:"root_selector,omitempty"`
	InstrumentPath string `yaml:"instrument_path,omitempty"`
}

// InstrumentEntry is one user-defined instrument.
type InstrumentEntry struct {
	Name            string        `yaml:"name"`
	AlternativeName string        `yaml:"alternative_name,omitempty"`
	Type            string        `yaml:"type"`
	Columns         []ColumnEntry `yaml:"columns,omitempty"`
}

// ColumnEntry is one run-data column override.
type ColumnEntry struct {
	Title string `yaml:"title"`
	Key   string `yaml:"key"`
}

// LoadUserSettings reads user-defined sources and instruments from path.
// A missing file yields no entries. Unrecognised enumeration values are
// errors; nothing falls back to a default.
func LoadUserSettings(path string) ([]*JournalSource, []models.Instrument, error) {
	if path == "" {
		return nil, nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("read user settings %s: %w", path, err)
	}
	return ParseUserSettings(data)
}

// ParseUserSettings decodes user settings YAML.
func ParseUserSettings(data []byte) ([]*JournalSource, []models.Instrument, error) {
	var settings UserSettings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, nil, fmt.Errorf("parse user settings: %w", err)
	}

	sources := make([]*JournalSource, 0, len(settings.Sources))
	for i, entry := range settings.Sources {
		src, err := entry.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("user source %d (%q): %w", i, entry.Name, err)
		}
		sources = append(sources, src)
	}

	instruments := make([]models.Instrument, 0, len(settings.Instruments))
	for i, entry := range settings.Instruments {
		inst, err := entry.build()
		if err != nil {
			return nil, nil, fmt.Errorf("user instrument %d (%q): %w", i, entry.Name, err)
		}
		instruments = append(instruments, inst)
	}
	return sources, instruments, nil
}

// Build validates the entry and creates a user-defined source from it.
func (e SourceEntry) Build() (*JournalSource, error) {
	indexing, err := models.ParseIndexingType(e.Type)
	if err != nil {
		return nil, fmt.Errorf("type: %w", err)
	}

	def := Definition{
		Name:           e.Name,
		Indexing:       indexing,
		Available:      e.Available == nil || *e.Available,
		UserDefined:    true,
		JournalRootURL: e.JournalRootURL,
		IndexFile:      e.IndexFile,
		RunDataRoot:    e.RunDataRoot,
		RootSelector:   e.RootSelector,
		InstrumentPath: e.InstrumentPath,
	}
	if indexing == models.IndexingGenerated {
		def.Organisation, err = models.ParseDataOrganisation(e.Organisation)
		if err != nil {
			return nil, fmt.Errorf("organisation: %w", err)
		}
	}
	return New(def)
}

func (e InstrumentEntry) build() (models.Instrument, error) {
	if e.Name == "" {
		return models.Instrument{}, fmt.Errorf("%w: instrument name is required", ErrInvalidDefinition)
	}
	kind, err := models.ParseInstrumentType(e.Type)
	if err != nil {
		return models.Instrument{}, fmt.Errorf("type: %w", err)
	}
	inst := models.NewInstrument(e.Name, e.AlternativeName, kind, true)
	if len(e.Columns) > 0 {
		cols := make([]models.Column, len(e.Columns))
		for i, c := range e.Columns {
			cols[i] = models.Column{Title: c.Title, Key: c.Key}
		}
		inst = inst.WithColumns(cols)
	}
	return inst, nil
}

// SaveUserSources writes the user-defined sources among sources to path,
// replacing the sources section and keeping any instruments already there.
func SaveUserSources(path string, sources []*JournalSource) error {
	if path == "" {
		return errors.New("no user settings file configured")
	}

	var settings UserSettings
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("parse user settings: %w", err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("read user settings %s: %w", path, err)
	}

	settings.Sources = settings.Sources[:0]
	for _, src := range sources {
		if src.UserDefined() {
			settings.Sources = append(settings.Sources, EntryFor(src.Definition()))
		}
	}

	out, err := yaml.Marshal(&settings)
	if err != nil {
		return fmt.Errorf("encode user settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write user settings: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write user settings: %w", err)
	}
	return nil
}

// EntryFor converts a definition to its file form.
func EntryFor(def Definition) SourceEntry {
	e := SourceEntry{
		Name:           def.Name,
		Type:           def.Indexing.String(),
		JournalRootURL: def.JournalRootURL,
		IndexFile:      def.IndexFile,
		RunDataRoot:    def.RunDataRoot,
		InstrumentPath: def.InstrumentPath,
	}
	if !def.Available {
		e.Available = new(bool)
	}
	if def.Indexing == models.IndexingGenerated {
		e.Organisation = def.Organisation.String()
		if def.RootSelector != def.Organisation.DefaultRootSelector() {
			e.RootSelector = def.RootSelector
		}
	}
	return e
}
