// Package models defines the data structures shared by the journal viewer core.
package models

import (
	"errors"
	"fmt"
)

// ErrUnknownValue is returned by every Parse function for strings that do not
// name a member of the enumeration. Parsing never falls back to a default.
var ErrUnknownValue = errors.New("unknown value")

// IndexingType describes where a source's journal index comes from.
type IndexingType int

const (
	// IndexingNetwork sources serve a prebuilt index from a remote archive.
	IndexingNetwork IndexingType = iota
	// IndexingGenerated sources are indexed by scanning a filesystem.
	IndexingGenerated
)

func (t IndexingType) String() string {
	switch t {
	case IndexingNetwork:
		return "Network"
	case IndexingGenerated:
		return "Generated"
	default:
		return fmt.Sprintf("IndexingType(%d)", int(t))
	}
}

// ParseIndexingType converts a persisted or wire name to an IndexingType.
func ParseIndexingType(s string) (IndexingType, error) {
	switch s {
	case "Network":
		return IndexingNetwork, nil
	case "Generated":
		return IndexingGenerated, nil
	default:
		return 0, fmt.Errorf("indexing type %q: %w", s, ErrUnknownValue)
	}
}

// DataOrganisation describes how run data is laid out under a generated
// source's run-data root.
type DataOrganisation int

const (
	// OrganisationDirectory groups data files by cycle directory.
	OrganisationDirectory DataOrganisation = iota
	// OrganisationRBNumber groups data files by experiment RB number.
	OrganisationRBNumber
)

func (o DataOrganisation) String() string {
	switch o {
	case OrganisationDirectory:
		return "Directory"
	case OrganisationRBNumber:
		return "RBNumber"
	default:
		return fmt.Sprintf("DataOrganisation(%d)", int(o))
	}
}

// ParseDataOrganisation converts a persisted or wire name to a DataOrganisation.
func ParseDataOrganisation(s string) (DataOrganisation, error) {
	switch s {
	case "Directory":
		return OrganisationDirectory, nil
	case "RBNumber":
		return OrganisationRBNumber, nil
	default:
		return 0, fmt.Errorf("data organisation %q: %w", s, ErrUnknownValue)
	}
}

// DefaultRootSelector returns the regular expression used to pick top-level
// directories under the run-data root when generating an index.
func (o DataOrganisation) DefaultRootSelector() string {
	switch o {
	case OrganisationRBNumber:
		return `^RB\d+$`
	default:
		return `^cycle_\d+_\d+$`
	}
}

// SourceState is the lifecycle state of a journal source.
type SourceState int

const (
	StateLoading SourceState = iota
	StateOK
	StateError
	StateGenerating
	StateAcquiring
)

func (s SourceState) String() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StateOK:
		return "OK"
	case StateError:
		return "Error"
	case StateGenerating:
		return "Generating"
	case StateAcquiring:
		return "Acquiring"
	default:
		return fmt.Sprintf("SourceState(%d)", int(s))
	}
}

// ParseSourceState converts a name to a SourceState.
func ParseSourceState(s string) (SourceState, error) {
	for _, st := range []SourceState{StateLoading, StateOK, StateError, StateGenerating, StateAcquiring} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("source state %q: %w", s, ErrUnknownValue)
}

// Busy reports whether a backend job owns the source.
func (s SourceState) Busy() bool {
	return s == StateGenerating || s == StateAcquiring
}

// InstrumentType is the measurement technique of an instrument.
type InstrumentType int

const (
	InstrumentNeutron InstrumentType = iota
	InstrumentMuon
)

func (t InstrumentType) String() string {
	switch t {
	case InstrumentNeutron:
		return "Neutron"
	case InstrumentMuon:
		return "Muon"
	default:
		return fmt.Sprintf("InstrumentType(%d)", int(t))
	}
}

// ParseInstrumentType converts a name to an InstrumentType.
func ParseInstrumentType(s string) (InstrumentType, error) {
	switch s {
	case "Neutron":
		return InstrumentNeutron, nil
	case "Muon":
		return InstrumentMuon, nil
	default:
		return 0, fmt.Errorf("instrument type %q: %w", s, ErrUnknownValue)
	}
}

// ScanStyle selects how a generation scan treats an existing index.
type ScanStyle int

const (
	// ScanFull replaces existing index entries wholesale.
	ScanFull ScanStyle = iota
	// ScanUpdateAll merges newly found files into the existing index.
	ScanUpdateAll
)

func (s ScanStyle) String() string {
	switch s {
	case ScanFull:
		return "Full"
	case ScanUpdateAll:
		return "UpdateAll"
	default:
		return fmt.Sprintf("ScanStyle(%d)", int(s))
	}
}

// ParseScanStyle converts a name to a ScanStyle.
func ParseScanStyle(s string) (ScanStyle, error) {
	switch s {
	case "Full":
		return ScanFull, nil
	case "UpdateAll":
		return ScanUpdateAll, nil
	default:
		return 0, fmt.Errorf("scan style %q: %w", s, ErrUnknownValue)
	}
}
