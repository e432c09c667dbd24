package source

import (
	"strings"

	"github.com/raphaelgruber/journal-viewer/internal/models"
)

// ISISArchive is the name of the built-in ISIS journal archive source.
const ISISArchive = "ISIS Journal Archive"

// Builtins returns freshly constructed built-in sources.
func Builtins() []*JournalSource {
	src, err := New(Definition{
		Name:           ISISArchive,
		Indexing:       models.IndexingNetwork,
		Available:      true,
		JournalRootURL: "http://data.isis.rl.ac.uk/journals/{instrument}",
		IndexFile:      "journal_main.xml",
		InstrumentPath: "ndx{name}",
	})
	if err != nil {
		panic(err)
	}
	return []*JournalSource{src}
}

// Instruments returns the built-in instruments.
func Instruments() []models.Instrument {
	neutron := []string{"ALF", "ENGINX", "GEM", "HRPD", "IMAT", "INTER", "IRIS", "LARMOR", "LET", "LOQ",
		"MAPS", "MARI", "MERLIN", "OFFSPEC", "OSIRIS", "PEARL", "POLARIS", "POLREF", "SANDALS",
		"SANS2D", "SURF", "SXD", "TOSCA", "VESUVIO", "WISH", "ZOOM"}
	muon := []string{"ARGUS", "CHRONUS", "EMU", "HIFI", "MUSR"}

	out := make([]models.Instrument, 0, len(neutron)+len(muon))
	for _, name := range neutron {
		out = append(out, models.NewInstrument(name, "", models.InstrumentNeutron, false))
	}
	for _, name := range muon {
		out = append(out, models.NewInstrument(name, "", models.InstrumentMuon, false))
	}
	return out
}

// FindInstrument looks up an instrument by name or alternative name,
// ignoring case.
func FindInstrument(instruments []models.Instrument, name string) (models.Instrument, bool) {
	for _, inst := range instruments {
		if strings.EqualFold(inst.Name(), name) || (inst.AlternativeName() != "" && strings.EqualFold(inst.AlternativeName(), name)) {
			return inst, true
		}
	}
	return models.Instrument{}, false
}
