package source

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/raphaelgruber/journal-viewer/internal/models"
)

// Sentinel errors for registry operations.
var (
	ErrUnknownSource = errors.New("unknown source")
	ErrDuplicateName = errors.New("source name already in use")
	ErrImmutable     = errors.New("built-in sources cannot be changed")
	ErrUnavailable   = errors.New("source unavailable")
	ErrBusy          = errors.New("source has a job in progress")
)

// JobSlots exposes which sources currently own the generation and
// acquisition slots. The job controller implements it.
type JobSlots interface {
	GeneratingSource() (id string, ok bool)
	AcquiringSource() (id string, ok bool)
}

// Registry owns every configured source and tracks the one selected for
// display. It is not safe for concurrent use; all access happens on the
// event loop.
type Registry struct {
	sources  []*JournalSource
	selected string
	slots    JobSlots
	logger   *slog.Logger
}

// NewRegistry creates a registry holding sources in order.
func NewRegistry(logger *slog.Logger, sources ...*JournalSource) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger}
	for _, src := range sources {
		if err := r.add(src); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// AttachJobs lets the registry consult the job slots.
func (r *Registry) AttachJobs(slots JobSlots) {
	r.slots = slots
}

func (r *Registry) add(src *JournalSource) error {
	if _, ok := r.ByName(src.Name()); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, src.Name())
	}
	r.sources = append(r.sources, src)
	return nil
}

// Add registers a user-defined source.
func (r *Registry) Add(src *JournalSource) error {
	if !src.UserDefined() {
		return fmt.Errorf("%w: %s", ErrImmutable, src.Name())
	}
	if err := r.add(src); err != nil {
		return err
	}
	r.logger.Info("source added", "source", src.Name(), "type", src.Indexing())
	return nil
}

// Remove deletes a user-defined source that owns no job.
func (r *Registry) Remove(id string) error {
	i := r.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}
	src := r.sources[i]
	if !src.UserDefined() {
		return fmt.Errorf("%w: %s", ErrImmutable, src.Name())
	}
	if r.busy(id) {
		return fmt.Errorf("%w: %s", ErrBusy, src.Name())
	}

	r.sources = append(r.sources[:i], r.sources[i+1:]...)
	if r.selected == id {
		r.selected = ""
	}
	r.logger.Info("source removed", "source", src.Name())
	return nil
}

// Rename changes the name of a user-defined source.
func (r *Registry) Rename(id, name string) error {
	src, ok := r.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}
	if !src.UserDefined() {
		return fmt.Errorf("%w: %s", ErrImmutable, src.Name())
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDefinition)
	}
	if other, ok := r.ByName(name); ok && other.ID() != id {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	src.def.Name = name
	return nil
}

func (r *Registry) index(id string) int {
	for i, src := range r.sources {
		if src.ID() == id {
			return i
		}
	}
	return -1
}

func (r *Registry) busy(id string) bool {
	if r.slots == nil {
		return false
	}
	if gen, ok := r.slots.GeneratingSource(); ok && gen == id {
		return true
	}
	if acq, ok := r.slots.AcquiringSource(); ok && acq == id {
		return true
	}
	return false
}

// Get returns the source with id.
func (r *Registry) Get(id string) (*JournalSource, bool) {
	if i := r.index(id); i >= 0 {
		return r.sources[i], true
	}
	return nil, false
}

// ByName returns the source with the given name.
func (r *Registry) ByName(name string) (*JournalSource, bool) {
	for _, src := range r.sources {
		if src.Name() == name {
			return src, true
		}
	}
	return nil, false
}

// Lookup finds a source by ID or, failing that, by case-insensitive name.
func (r *Registry) Lookup(ref string) (*JournalSource, bool) {
	if src, ok := r.Get(ref); ok {
		return src, true
	}
	for _, src := range r.sources {
		if strings.EqualFold(src.Name(), ref) {
			return src, true
		}
	}
	return nil, false
}

// Sources returns the registered sources in order.
func (r *Registry) Sources() []*JournalSource {
	return append([]*JournalSource(nil), r.sources...)
}

// Select makes a source the displayed one. Idle sources move to Loading and
// the caller is expected to fetch the index; a source owned by a job keeps
// its state so the job's progress stays visible.
func (r *Registry) Select(id string) (*JournalSource, error) {
	src, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, id)
	}
	if !src.Available() {
		return nil, fmt.Errorf("%w: %s", ErrUnavailable, src.Name())
	}

	r.selected = id
	if src.State().Busy() {
		r.logger.Debug("selected busy source", "source", src.Name(), "state", src.State())
		return src, nil
	}
	if err := src.SetState(models.StateLoading); err != nil {
		return nil, err
	}
	return src, nil
}

// Selected returns the displayed source.
func (r *Registry) Selected() (*JournalSource, bool) {
	if r.selected == "" {
		return nil, false
	}
	return r.Get(r.selected)
}

// IsSelected reports whether id is the displayed source.
func (r *Registry) IsSelected(id string) bool {
	return id != "" && r.selected == id
}
