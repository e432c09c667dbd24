package source

import (
	"testing"

	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSlots struct {
	generating string
	acquiring  string
}

func (f fakeSlots) GeneratingSource() (string, bool) { return f.generating, f.generating != "" }
func (f fakeSlots) AcquiringSource() (string, bool)  { return f.acquiring, f.acquiring != "" }

func newRegistry(t *testing.T) (*Registry, *JournalSource, *JournalSource) {
	t.Helper()
	archive := Builtins()[0]
	local := generated(t, "local")
	r, err := NewRegistry(nil, archive)
	require.NoError(t, err)
	require.NoError(t, r.Add(local))
	return r, archive, local
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r, _, _ := newRegistry(t)
	err := r.Add(generated(t, "local"))
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Len(t, r.Sources(), 2)
}

func TestRegistryBuiltinsAreImmutable(t *testing.T) {
	r, archive, _ := newRegistry(t)
	assert.ErrorIs(t, r.Remove(archive.ID()), ErrImmutable)
	assert.ErrorIs(t, r.Rename(archive.ID(), "other"), ErrImmutable)
	assert.ErrorIs(t, r.Add(Builtins()[0]), ErrImmutable)
}

func TestRegistryRename(t *testing.T) {
	r, archive, local := newRegistry(t)
	require.NoError(t, r.Rename(local.ID(), "scratch"))
	assert.Equal(t, "scratch", local.Name())

	assert.ErrorIs(t, r.Rename(local.ID(), archive.Name()), ErrDuplicateName)
	assert.ErrorIs(t, r.Rename(local.ID(), " "), ErrInvalidDefinition)
	assert.ErrorIs(t, r.Rename("nope", "x"), ErrUnknownSource)
}

func TestRegistryRemove(t *testing.T) {
	r, _, local := newRegistry(t)
	_, err := r.Select(local.ID())
	require.NoError(t, err)

	require.NoError(t, r.Remove(local.ID()))
	_, ok := r.Get(local.ID())
	assert.False(t, ok)
	_, ok = r.Selected()
	assert.False(t, ok, "removing the selected source clears the selection")
	assert.ErrorIs(t, r.Remove(local.ID()), ErrUnknownSource)
}

func TestRegistryRemoveBusySource(t *testing.T) {
	r, _, local := newRegistry(t)
	r.AttachJobs(fakeSlots{generating: local.ID()})
	assert.ErrorIs(t, r.Remove(local.ID()), ErrBusy)
}

func TestRegistrySelect(t *testing.T) {
	r, archive, local := newRegistry(t)
	require.NoError(t, local.Fail(models.ErrorInfo{Title: "x"}))

	src, err := r.Select(local.ID())
	require.NoError(t, err)
	assert.Equal(t, models.StateLoading, src.State())
	assert.True(t, r.IsSelected(local.ID()))
	assert.False(t, r.IsSelected(archive.ID()))

	_, err = r.Select("nope")
	assert.ErrorIs(t, err, ErrUnknownSource)
}

func TestRegistrySelectBusyKeepsState(t *testing.T) {
	r, _, local := newRegistry(t)
	require.NoError(t, local.SetState(models.StateGenerating))

	src, err := r.Select(local.ID())
	require.NoError(t, err)
	assert.Equal(t, models.StateGenerating, src.State())
}

func TestRegistrySelectUnavailable(t *testing.T) {
	off, err := New(Definition{Name: "off", Indexing: models.IndexingGenerated, RunDataRoot: "/d", UserDefined: true})
	require.NoError(t, err)
	r, err := NewRegistry(nil, off)
	require.NoError(t, err)

	_, err = r.Select(off.ID())
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestRegistryLookup(t *testing.T) {
	r, archive, local := newRegistry(t)
	src, ok := r.Lookup(local.ID())
	require.True(t, ok)
	assert.Same(t, local, src)

	src, ok = r.Lookup("isis journal archive")
	require.True(t, ok)
	assert.Same(t, archive, src)
}
