// Package source models journal sources, their lifecycle state, and the
// registry that owns them.
package source

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/raphaelgruber/journal-viewer/internal/models"
)

// Sentinel errors for source operations.
var (
	ErrInvalidTransition = errors.New("invalid source state transition")
	ErrUnknownJournal    = errors.New("journal not in source index")
	ErrInvalidDefinition = errors.New("invalid source definition")
)

// noJournal marks an unset journal handle.
const noJournal = -1

// Definition describes a source before it is registered.
type Definition struct {
	Name        string
	Indexing    models.IndexingType
	Available   bool
	UserDefined bool

	// Network sources
	JournalRootURL string
	IndexFile      string

	// Generated sources
	RunDataRoot    string
	Organisation   models.DataOrganisation
	RootSelector   string // defaults to the organisation's selector
	InstrumentPath string // template with {name}; defaults to the instrument's path name
}

// JournalSource is a configured origin of journals.
type JournalSource struct {
	id  string
	def Definition

	state   models.SourceState
	errInfo models.ErrorInfo

	journals []models.Journal
	current  int
	previous int
}

// New validates def and creates a source in the Loading state.
func New(def Definition) (*JournalSource, error) {
	if strings.TrimSpace(def.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	switch def.Indexing {
	case models.IndexingNetwork:
		if def.JournalRootURL == "" || def.IndexFile == "" {
			return nil, fmt.Errorf("%w: network source %q needs a journal root URL and index file", ErrInvalidDefinition, def.Name)
		}
	case models.IndexingGenerated:
		if def.RunDataRoot == "" {
			return nil, fmt.Errorf("%w: generated source %q needs a run-data root", ErrInvalidDefinition, def.Name)
		}
		if def.RootSelector == "" {
			def.RootSelector = def.Organisation.DefaultRootSelector()
		}
		if _, err := regexp.Compile(def.RootSelector); err != nil {
			return nil, fmt.Errorf("%w: source %q root selector: %v", ErrInvalidDefinition, def.Name, err)
		}
	default:
		return nil, fmt.Errorf("%w: indexing type %v", ErrInvalidDefinition, def.Indexing)
	}

	return &JournalSource{
		id:       uuid.New().String()[:8],
		def:      def,
		state:    models.StateLoading,
		current:  noJournal,
		previous: noJournal,
	}, nil
}

func (s *JournalSource) ID() string                            { return s.id }
func (s *JournalSource) Name() string                          { return s.def.Name }
func (s *JournalSource) Indexing() models.IndexingType         { return s.def.Indexing }
func (s *JournalSource) Available() bool                       { return s.def.Available }
func (s *JournalSource) UserDefined() bool                     { return s.def.UserDefined }
func (s *JournalSource) Organisation() models.DataOrganisation { return s.def.Organisation }
func (s *JournalSource) RootSelector() string                  { return s.def.RootSelector }
func (s *JournalSource) State() models.SourceState             { return s.state }

// Definition returns a copy of the source's definition.
func (s *JournalSource) Definition() Definition { return s.def }

// ErrorInfo returns the title and message of the last failure.
func (s *JournalSource) ErrorInfo() models.ErrorInfo { return s.errInfo }

// =============================================================================
// STATE MACHINE
// =============================================================================

var transitions = map[models.SourceState][]models.SourceState{
	models.StateLoading:    {models.StateLoading, models.StateOK, models.StateError, models.StateGenerating, models.StateAcquiring},
	models.StateOK:         {models.StateLoading, models.StateOK, models.StateError, models.StateGenerating, models.StateAcquiring},
	models.StateError:      {models.StateLoading, models.StateError, models.StateGenerating, models.StateAcquiring},
	models.StateGenerating: {models.StateLoading, models.StateOK, models.StateError},
	models.StateAcquiring:  {models.StateLoading, models.StateOK, models.StateError},
}

// CanTransition reports whether the source may move to state to.
func (s *JournalSource) CanTransition(to models.SourceState) bool {
	for _, allowed := range transitions[s.state] {
		if allowed == to {
			return true
		}
	}
	return false
}

// SetState moves the source to state to. Moving to Error through SetState
// keeps the previous error info; use Fail to record a new one.
func (s *JournalSource) SetState(to models.SourceState) error {
	if !s.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s (source %q)", ErrInvalidTransition, s.state, to, s.def.Name)
	}
	s.state = to
	if to != models.StateError {
		s.errInfo = models.ErrorInfo{}
	}
	return nil
}

// Fail moves the source to Error and records why.
func (s *JournalSource) Fail(info models.ErrorInfo) error {
	if err := s.SetState(models.StateError); err != nil {
		return err
	}
	s.errInfo = info
	return nil
}

// =============================================================================
// JOURNALS
// =============================================================================

// Journals returns a copy of the journal index.
func (s *JournalSource) Journals() []models.Journal {
	return append([]models.Journal(nil), s.journals...)
}

// SetJournals replaces the journal index. Current and previous journals are
// kept when a journal with the same filename survives, otherwise unset.
func (s *JournalSource) SetJournals(journals []models.Journal) {
	current, hasCurrent := s.CurrentJournal()
	previous, hasPrevious := s.PreviousJournal()

	s.journals = append([]models.Journal(nil), journals...)
	s.current = noJournal
	s.previous = noJournal
	if hasCurrent {
		s.current = s.indexOf(current.Filename)
	}
	if hasPrevious {
		s.previous = s.indexOf(previous.Filename)
	}
}

func (s *JournalSource) indexOf(filename string) int {
	for i, j := range s.journals {
		if j.Filename == filename {
			return i
		}
	}
	return noJournal
}

// SelectJournal makes the journal with filename current.
func (s *JournalSource) SelectJournal(filename string) (models.Journal, error) {
	i := s.indexOf(filename)
	if i == noJournal {
		return models.Journal{}, fmt.Errorf("%w: %s", ErrUnknownJournal, filename)
	}
	s.current = i
	return s.journals[i], nil
}

// SelectJournalByName makes the journal with display name current.
func (s *JournalSource) SelectJournalByName(name string) (models.Journal, error) {
	for i, j := range s.journals {
		if j.Name == name {
			s.current = i
			return j, nil
		}
	}
	return models.Journal{}, fmt.Errorf("%w: %s", ErrUnknownJournal, name)
}

// CurrentJournal returns the selected journal, if any.
func (s *JournalSource) CurrentJournal() (models.Journal, bool) {
	if s.current == noJournal {
		return models.Journal{}, false
	}
	return s.journals[s.current], true
}

// PreviousJournal returns the journal shown before a search overlay, if any.
func (s *JournalSource) PreviousJournal() (models.Journal, bool) {
	if s.previous == noJournal {
		return models.Journal{}, false
	}
	return s.journals[s.previous], true
}

// EnterSearch remembers the current journal and unsets it while search
// results are displayed.
func (s *JournalSource) EnterSearch() {
	if s.current != noJournal {
		s.previous = s.current
	}
	s.current = noJournal
}

// ReturnFromSearch restores the journal displayed before the search.
func (s *JournalSource) ReturnFromSearch() (models.Journal, bool) {
	if s.previous == noJournal {
		return models.Journal{}, false
	}
	s.current = s.previous
	s.previous = noJournal
	return s.journals[s.current], true
}

// InSearch reports whether search results replaced the journal view.
func (s *JournalSource) InSearch() bool {
	return s.current == noJournal && s.previous != noJournal
}

// =============================================================================
// BACKEND DESCRIPTOR
// =============================================================================

// InstrumentDir returns the directory name of inst under this source's roots.
func (s *JournalSource) InstrumentDir(inst models.Instrument) string {
	if s.def.InstrumentPath == "" {
		return inst.PathName()
	}
	return strings.ReplaceAll(s.def.InstrumentPath, "{name}", inst.PathName())
}

func (s *JournalSource) expand(template string, inst models.Instrument) string {
	return strings.ReplaceAll(template, "{instrument}", s.InstrumentDir(inst))
}

// Descriptor returns the wire form of the source for inst.
func (s *JournalSource) Descriptor(inst models.Instrument) models.SourceDescriptor {
	d := models.SourceDescriptor{
		Name:       s.def.Name,
		Type:       s.def.Indexing.String(),
		Instrument: inst.Name(),
	}
	switch s.def.Indexing {
	case models.IndexingNetwork:
		d.JournalRootURL = s.expand(s.def.JournalRootURL, inst)
		d.IndexFile = s.def.IndexFile
	case models.IndexingGenerated:
		d.RunDataRoot = s.expand(s.def.RunDataRoot, inst)
		d.DataOrganisation = s.def.Organisation.String()
	}
	return d
}
