// Package viewer wires the journal viewer together: source selection, journal
// loading, search, run lookup, derived views and the job controller, all
// driven as one tea.Model.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"

	"github.com/raphaelgruber/journal-viewer/internal/client"
	"github.com/raphaelgruber/journal-viewer/internal/filter"
	"github.com/raphaelgruber/journal-viewer/internal/jobs"
	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/raphaelgruber/journal-viewer/internal/rundata"
	"github.com/raphaelgruber/journal-viewer/internal/source"
)

// ErrNoSource is returned by operations that need a displayed source.
var ErrNoSource = errors.New("no source selected")

// ErrNoJournal is returned by operations that need a loaded journal.
var ErrNoJournal = errors.New("no journal loaded")

// ErrRunNotFound is returned when a run is not in the displayed table.
var ErrRunNotFound = errors.New("run not found")

// ErrNoSearchFields is returned for a search without field constraints.
var ErrNoSearchFields = errors.New("search needs at least one field")

// ErrNoPendingSearch is returned by AcquireForSearch when no search waits.
var ErrNoPendingSearch = errors.New("no search waiting for acquisition")

// Backend is everything the viewer asks of the journal backend.
type Backend interface {
	jobs.Backend

	GetJournalIndex(ctx context.Context, src models.SourceDescriptor) ([]models.Journal, error)
	GetJournal(ctx context.Context, src models.SourceDescriptor, filename string) ([]models.Record, error)
	GetJournalUpdates(ctx context.Context, src models.SourceDescriptor, filename string) ([]models.Record, error)
	Search(ctx context.Context, src models.SourceDescriptor, fields map[string]string, caseSensitive bool) ([]models.Record, error)
	FindJournal(ctx context.Context, src models.SourceDescriptor, runNumber string) (*client.FoundJournal, error)
}

// SearchRequest is a cross-journal field search.
type SearchRequest struct {
	Fields        map[string]string
	CaseSensitive bool
}

// =============================================================================
// MESSAGES
// =============================================================================

// LoadedMsg reports that the displayed table was replaced or extended.
type LoadedMsg struct {
	SourceID string
	Journal  string // empty for search results
	Rows     int
	Appended int
}

// FailedMsg reports a failed operation on the displayed source.
type FailedMsg struct {
	SourceID string
	Err      error
	Info     models.ErrorInfo
}

// AcquisitionRequiredMsg reports that a search needs journals the backend
// has not cached yet. Call AcquireForSearch to fetch them and search again.
type AcquisitionRequiredMsg struct {
	SourceID string
	Uncached int
}

// RunFoundMsg reports the journal and row holding a run.
type RunFoundMsg struct {
	SourceID string
	Journal  string
	Run      string
	Row      int
}

type indexMsg struct {
	seq      uint64
	sourceID string
	journals []models.Journal
	err      error
}

type journalMsg struct {
	seq      uint64
	sourceID string
	filename string
	records  []models.Record
	err      error
}

type updatesMsg struct {
	seq      uint64
	update   uint64
	sourceID string
	filename string
	records  []models.Record
	err      error
}

type uncachedMsg struct {
	seq      uint64
	sourceID string
	count    int
	err      error
}

type searchMsg struct {
	seq      uint64
	sourceID string
	records  []models.Record
	err      error
}

type foundMsg struct {
	seq      uint64
	sourceID string
	run      string
	found    *client.FoundJournal
	err      error
}

type resumeSearchMsg struct {
	sourceID string
	req      SearchRequest
}

type updateTickMsg struct{ gen uint64 }

// =============================================================================
// MODEL
// =============================================================================

// Model is the viewer state. All methods run on the event loop.
type Model struct {
	backend  Backend
	registry *source.Registry
	jobs     *jobs.Controller
	logger   *slog.Logger
	timeout  time.Duration

	inst models.Instrument

	store     *rundata.Store
	grouped   bool
	hidden    map[string]bool
	frame     rundata.Frame
	predicate filter.Predicate
	finder    filter.Finder
	row       int

	// seq stamps data requests; only the latest reply is applied.
	seq uint64
	// updateSeq stamps update checks, which leave seq alone.
	updateSeq     uint64
	loadedJournal string

	pendingRun    string
	pendingSearch *SearchRequest
	searching     bool

	initialSource string

	updateInterval time.Duration
	updateGen      uint64
	ticker         jobs.Ticker

	lastErr  *models.ErrorInfo
	notice   string
	progress jobs.Descriptor
	ui       ui
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Model) { m.logger = logger }
}

// WithRequestTimeout bounds each backend call.
func WithRequestTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithUpdateInterval turns on periodic update checks of the open journal.
func WithUpdateInterval(d time.Duration) Option {
	return func(m *Model) { m.updateInterval = d }
}

// WithInitialSource selects a source by ID or name when the loop starts.
func WithInitialSource(ref string) Option {
	return func(m *Model) { m.initialSource = ref }
}

// WithTicker replaces tea.Tick for the update interval.
func WithTicker(t jobs.Ticker) Option {
	return func(m *Model) { m.ticker = t }
}

// New creates a viewer over registry. The controller must share the registry.
func New(backend Backend, registry *source.Registry, ctrl *jobs.Controller, inst models.Instrument, opts ...Option) *Model {
	m := &Model{
		backend:  backend,
		registry: registry,
		jobs:     ctrl,
		logger:   slog.Default(),
		timeout:  jobs.DefaultRequestTimeout,
		inst:     inst,
		store:    rundata.NewStore(),
		hidden:   make(map[string]bool),
		ticker:   tea.Tick,
		row:      -1,
		ui: ui{
			bar:   progress.New(progress.WithDefaultBlend(), progress.WithWidth(40)),
			theme: DefaultTheme,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init opens the initial source and starts the update timer when either is
// configured.
func (m *Model) Init() tea.Cmd {
	if m.initialSource == "" {
		return m.scheduleUpdate()
	}
	open, err := m.SelectSource(m.initialSource)
	if err != nil {
		m.report(err)
	}
	return tea.Batch(open, m.scheduleUpdate())
}

// Update handles backend replies, job messages and key presses.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if cmd, ok := m.jobs.Update(msg); ok {
		return m, cmd
	}

	switch msg := msg.(type) {
	case indexMsg:
		return m, m.onIndex(msg)
	case journalMsg:
		return m, m.onJournal(msg)
	case updatesMsg:
		return m, m.onUpdates(msg)
	case uncachedMsg:
		return m, m.onUncached(msg)
	case searchMsg:
		return m, m.onSearch(msg)
	case foundMsg:
		return m, m.onFound(msg)
	case resumeSearchMsg:
		if !m.registry.IsSelected(msg.sourceID) {
			return m, nil
		}
		return m, m.runSearch(msg.sourceID, msg.req)
	case updateTickMsg:
		return m, m.onUpdateTick(msg)
	case jobs.ProgressMsg:
		m.progress = msg.Job
		return m, nil
	case jobs.FinishedMsg:
		return m, m.onJobFinished(msg)
	}
	return m.handleUI(msg)
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Registry returns the source registry.
func (m *Model) Registry() *source.Registry { return m.registry }

// Jobs returns the job controller.
func (m *Model) Jobs() *jobs.Controller { return m.jobs }

// Instrument returns the active instrument.
func (m *Model) Instrument() models.Instrument { return m.inst }

// Frame returns the displayed table: the store, grouped when grouping is on,
// restricted to the visible columns.
func (m *Model) Frame() rundata.Frame { return m.frame }

// Rows returns the indexes of frame rows passing the filter.
func (m *Model) Rows() []int { return m.predicate.Rows(m.frame) }

// SelectedRow returns the selected frame row, or -1.
func (m *Model) SelectedRow() int { return m.row }

// Grouped reports whether grouping is on.
func (m *Model) Grouped() bool { return m.grouped }

// Searching reports whether search results replace the journal view.
func (m *Model) Searching() bool { return m.searching }

// Finder returns the find state.
func (m *Model) Finder() *filter.Finder { return &m.finder }

// Filter returns the filter predicate.
func (m *Model) Filter() *filter.Predicate { return &m.predicate }

// LastError returns the last error shown to the user.
func (m *Model) LastError() (models.ErrorInfo, bool) {
	if m.lastErr == nil {
		return models.ErrorInfo{}, false
	}
	return *m.lastErr, true
}

func (m *Model) selected() (*source.JournalSource, error) {
	src, ok := m.registry.Selected()
	if !ok {
		return nil, ErrNoSource
	}
	return src, nil
}

func (m *Model) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

func (m *Model) next() uint64 {
	m.seq++
	return m.seq
}

// current reports whether a reply still matches the latest request for the
// displayed source.
func (m *Model) current(seq uint64, sourceID string) bool {
	if seq != m.seq || !m.registry.IsSelected(sourceID) {
		m.logger.Debug("discarding stale reply", "seq", seq, "latest", m.seq, "source_id", sourceID)
		return false
	}
	return true
}

// fail records err against the displayed source.
func (m *Model) fail(src *source.JournalSource, err error) tea.Cmd {
	info := Describe(err)
	if src != nil && !src.State().Busy() {
		if ferr := src.Fail(info); ferr != nil {
			m.logger.Warn("failed to mark source failed", "source", src.Name(), "error", ferr)
		}
	}
	m.lastErr = &info
	m.logger.Warn("operation failed", "source", sourceName(src), "title", info.Title, "error", err)

	id := ""
	if src != nil {
		id = src.ID()
	}
	return emit(FailedMsg{SourceID: id, Err: err, Info: info})
}

// report shows err without touching source state. Used for rejected user
// actions such as job conflicts.
func (m *Model) report(err error) {
	info := Describe(err)
	m.lastErr = &info
}

func sourceName(src *source.JournalSource) string {
	if src == nil {
		return ""
	}
	return src.Name()
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// =============================================================================
// DERIVED VIEWS
// =============================================================================

func (m *Model) visibleColumns(cols []models.Column) []models.Column {
	if len(m.hidden) == 0 {
		return cols
	}
	out := make([]models.Column, 0, len(cols))
	for _, c := range cols {
		if !m.hidden[c.Key] {
			out = append(out, c)
		}
	}
	return out
}

// rebuild recomputes the displayed frame after the store, grouping or
// columns change. The filter cache is dropped and an active find is redone.
func (m *Model) rebuild() {
	f := m.store.Frame()
	if m.grouped {
		f = rundata.GroupFrame(f)
	}
	m.frame = f.WithColumns(m.visibleColumns(f.Columns))
	m.predicate.Invalidate()
	m.finder.Refresh(m.frame, m.Rows())
	if m.row >= m.frame.Len() {
		m.row = -1
	}
}

func (m *Model) clearTable() {
	m.store.Reset()
	m.finder.Clear()
	m.row = -1
	m.searching = false
	m.loadedJournal = ""
	m.rebuild()
}

// SetGrouping turns title grouping on or off.
func (m *Model) SetGrouping(on bool) {
	if m.grouped == on {
		return
	}
	m.grouped = on
	m.row = -1
	m.rebuild()
}

// SetColumnVisible shows or hides the column with key.
func (m *Model) SetColumnVisible(key string, visible bool) {
	if visible {
		delete(m.hidden, key)
	} else {
		m.hidden[key] = true
	}
	m.rebuild()
}

// ColumnVisible reports whether the column with key is shown.
func (m *Model) ColumnVisible(key string) bool { return !m.hidden[key] }

// SetFilter changes the filter text. An active find is redone over the new
// visible rows.
func (m *Model) SetFilter(text string) {
	m.predicate.SetText(text)
	m.finder.Refresh(m.frame, m.Rows())
}

// SetCaseSensitive changes the case sensitivity of the filter and of an
// active find.
func (m *Model) SetCaseSensitive(on bool) {
	m.predicate.SetCaseSensitive(on)
	if text := m.finder.Text(); text != "" {
		m.finder.Find(m.frame, m.Rows(), text, on)
	}
}

// Find collects every visible cell containing text and selects the first.
func (m *Model) Find(text string) int {
	n := m.finder.Find(m.frame, m.Rows(), text, m.predicate.CaseSensitive())
	if match, ok := m.finder.Current(); ok {
		m.row = match.Row
	}
	return n
}

// FindNext moves to the next match, wrapping at the end.
func (m *Model) FindNext() (filter.Match, bool) {
	match, ok := m.finder.Next()
	if ok {
		m.row = match.Row
	}
	return match, ok
}

// FindPrev moves to the previous match, wrapping at the start.
func (m *Model) FindPrev() (filter.Match, bool) {
	match, ok := m.finder.Prev()
	if ok {
		m.row = match.Row
	}
	return match, ok
}

// SetInstrument switches instrument and reloads the displayed source.
func (m *Model) SetInstrument(inst models.Instrument) tea.Cmd {
	m.inst = inst
	src, err := m.selected()
	if err != nil {
		return nil
	}
	cmd, err := m.SelectSource(src.ID())
	if err != nil {
		m.report(err)
		return nil
	}
	return cmd
}

// =============================================================================
// SOURCES AND JOURNALS
// =============================================================================

// SelectSource displays the source identified by ref (ID or name) and
// fetches its index. A source owned by a job is shown as-is.
func (m *Model) SelectSource(ref string) (tea.Cmd, error) {
	src, ok := m.registry.Lookup(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownSource, ref)
	}
	if _, err := m.registry.Select(src.ID()); err != nil {
		return nil, err
	}

	m.next()
	m.lastErr = nil
	m.pendingRun = ""
	m.pendingSearch = nil
	m.clearTable()

	if src.State().Busy() {
		if job, ok := m.jobs.Job(src.ID()); ok {
			m.progress = job
		}
		return nil, nil
	}
	if err := src.SetState(models.StateLoading); err != nil {
		return nil, err
	}
	return m.fetchIndex(src), nil
}

func (m *Model) fetchIndex(src *source.JournalSource) tea.Cmd {
	seq, id, desc := m.next(), src.ID(), src.Descriptor(m.inst)
	return func() tea.Msg {
		ctx, cancel := m.context()
		defer cancel()
		journals, err := m.backend.GetJournalIndex(ctx, desc)
		return indexMsg{seq: seq, sourceID: id, journals: journals, err: err}
	}
}

func (m *Model) onIndex(msg indexMsg) tea.Cmd {
	if !m.current(msg.seq, msg.sourceID) {
		return nil
	}
	src, ok := m.registry.Get(msg.sourceID)
	if !ok {
		return nil
	}
	if msg.err != nil {
		return m.fail(src, msg.err)
	}

	src.SetJournals(msg.journals)
	if err := src.SetState(models.StateOK); err != nil {
		return m.fail(src, err)
	}
	m.logger.Debug("journal index loaded", "source", src.Name(), "journals", len(msg.journals))

	journal, ok := src.CurrentJournal()
	if !ok {
		journals := src.Journals()
		if len(journals) == 0 {
			m.clearTable()
			return emit(LoadedMsg{SourceID: src.ID()})
		}
		journal, _ = src.SelectJournal(journals[0].Filename)
	}
	return m.fetchJournal(src, journal.Filename)
}

// SelectJournal loads the journal with filename, or display name, from the
// displayed source.
func (m *Model) SelectJournal(ref string) (tea.Cmd, error) {
	src, err := m.selected()
	if err != nil {
		return nil, err
	}
	journal, err := src.SelectJournal(ref)
	if err != nil {
		if journal, err = src.SelectJournalByName(ref); err != nil {
			return nil, err
		}
	}
	m.pendingRun = ""
	return m.fetchJournal(src, journal.Filename), nil
}

func (m *Model) fetchJournal(src *source.JournalSource, filename string) tea.Cmd {
	seq, id, desc := m.next(), src.ID(), src.Descriptor(m.inst)
	return func() tea.Msg {
		ctx, cancel := m.context()
		defer cancel()
		records, err := m.backend.GetJournal(ctx, desc, filename)
		return journalMsg{seq: seq, sourceID: id, filename: filename, records: records, err: err}
	}
}

func (m *Model) onJournal(msg journalMsg) tea.Cmd {
	if !m.current(msg.seq, msg.sourceID) {
		return nil
	}
	src, ok := m.registry.Get(msg.sourceID)
	if !ok {
		return nil
	}
	if msg.err != nil {
		return m.fail(src, msg.err)
	}

	m.store.Replace(msg.records, m.inst.Columns())
	m.searching = false
	m.loadedJournal = msg.filename
	m.row = -1
	m.rebuild()
	m.logger.Debug("journal loaded", "source", src.Name(), "journal", msg.filename, "rows", len(msg.records))

	cmds := []tea.Cmd{emit(LoadedMsg{SourceID: src.ID(), Journal: msg.filename, Rows: m.store.Len()})}
	if run := m.pendingRun; run != "" {
		m.pendingRun = ""
		cmds = append(cmds, m.selectRun(src, msg.filename, run))
	}
	return tea.Batch(cmds...)
}

// CheckUpdates fetches rows added to the open journal since it was loaded
// and appends them. It returns ErrNoJournal while another journal or a
// search is still loading, and never supersedes such a load.
func (m *Model) CheckUpdates() (tea.Cmd, error) {
	src, err := m.selected()
	if err != nil {
		return nil, err
	}
	journal, ok := src.CurrentJournal()
	if !ok || m.searching || m.loadedJournal == "" || journal.Filename != m.loadedJournal {
		return nil, ErrNoJournal
	}

	m.updateSeq++
	seq, update, id, desc := m.seq, m.updateSeq, src.ID(), src.Descriptor(m.inst)
	return func() tea.Msg {
		ctx, cancel := m.context()
		defer cancel()
		records, err := m.backend.GetJournalUpdates(ctx, desc, journal.Filename)
		return updatesMsg{seq: seq, update: update, sourceID: id, filename: journal.Filename, records: records, err: err}
	}, nil
}

func (m *Model) onUpdates(msg updatesMsg) tea.Cmd {
	if !m.current(msg.seq, msg.sourceID) {
		return nil
	}
	if msg.update != m.updateSeq || msg.filename != m.loadedJournal {
		m.logger.Debug("discarding stale update", "journal", msg.filename, "loaded", m.loadedJournal)
		return nil
	}
	src, ok := m.registry.Get(msg.sourceID)
	if !ok {
		return nil
	}
	if msg.err != nil {
		return m.fail(src, msg.err)
	}
	if err := m.store.Append(msg.records); err != nil {
		return m.fail(src, err)
	}
	m.rebuild()
	return emit(LoadedMsg{SourceID: src.ID(), Journal: msg.filename, Rows: m.store.Len(), Appended: len(msg.records)})
}

func (m *Model) scheduleUpdate() tea.Cmd {
	if m.updateInterval <= 0 {
		return nil
	}
	m.updateGen++
	gen := m.updateGen
	return m.ticker(m.updateInterval, func(time.Time) tea.Msg { return updateTickMsg{gen: gen} })
}

func (m *Model) onUpdateTick(msg updateTickMsg) tea.Cmd {
	if msg.gen != m.updateGen {
		return nil
	}
	next := m.scheduleUpdate()
	cmd, err := m.CheckUpdates()
	if err != nil {
		return next
	}
	return tea.Batch(cmd, next)
}

// =============================================================================
// SEARCH
// =============================================================================

// Search runs a field search across every journal of the displayed source.
// Network sources must have all journals cached by the backend first; when
// they do not, an AcquisitionRequiredMsg is emitted instead.
func (m *Model) Search(req SearchRequest) (tea.Cmd, error) {
	src, err := m.selected()
	if err != nil {
		return nil, err
	}
	if len(req.Fields) == 0 {
		return nil, ErrNoSearchFields
	}
	if src.Indexing() != models.IndexingNetwork {
		return m.runSearch(src.ID(), req), nil
	}

	m.pendingSearch = &req
	seq, id, desc := m.next(), src.ID(), src.Descriptor(m.inst)
	return func() tea.Msg {
		ctx, cancel := m.context()
		defer cancel()
		n, err := m.backend.GetUncachedJournalCount(ctx, desc)
		return uncachedMsg{seq: seq, sourceID: id, count: n, err: err}
	}, nil
}

func (m *Model) onUncached(msg uncachedMsg) tea.Cmd {
	if !m.current(msg.seq, msg.sourceID) {
		return nil
	}
	src, ok := m.registry.Get(msg.sourceID)
	if !ok || m.pendingSearch == nil {
		return nil
	}
	if msg.err != nil {
		return m.fail(src, msg.err)
	}
	if msg.count > 0 {
		m.notice = fmt.Sprintf("%d journals must be acquired before searching", msg.count)
		return emit(AcquisitionRequiredMsg{SourceID: src.ID(), Uncached: msg.count})
	}
	req := *m.pendingSearch
	m.pendingSearch = nil
	return m.runSearch(src.ID(), req)
}

// AcquireForSearch acquires every journal of the displayed source and runs
// the pending search once acquisition succeeds.
func (m *Model) AcquireForSearch() (tea.Cmd, error) {
	src, err := m.selected()
	if err != nil {
		return nil, err
	}
	if m.pendingSearch == nil {
		return nil, ErrNoPendingSearch
	}
	req := *m.pendingSearch
	m.pendingSearch = nil

	id := src.ID()
	cmd, err := m.jobs.StartAcquisition(id, m.inst, emit(resumeSearchMsg{sourceID: id, req: req}))
	if err != nil {
		m.report(err)
		return nil, err
	}
	m.next()
	return cmd, nil
}

func (m *Model) runSearch(sourceID string, req SearchRequest) tea.Cmd {
	src, ok := m.registry.Get(sourceID)
	if !ok {
		return nil
	}
	seq, desc := m.next(), src.Descriptor(m.inst)
	return func() tea.Msg {
		ctx, cancel := m.context()
		defer cancel()
		records, err := m.backend.Search(ctx, desc, req.Fields, req.CaseSensitive)
		return searchMsg{seq: seq, sourceID: sourceID, records: records, err: err}
	}
}

func (m *Model) onSearch(msg searchMsg) tea.Cmd {
	if !m.current(msg.seq, msg.sourceID) {
		return nil
	}
	src, ok := m.registry.Get(msg.sourceID)
	if !ok {
		return nil
	}
	if msg.err != nil {
		return m.fail(src, msg.err)
	}

	src.EnterSearch()
	m.store.Replace(msg.records, m.inst.Columns())
	m.searching = true
	m.loadedJournal = ""
	m.row = -1
	m.rebuild()
	m.logger.Debug("search results loaded", "source", src.Name(), "rows", len(msg.records))
	return emit(LoadedMsg{SourceID: src.ID(), Rows: m.store.Len()})
}

// ReturnToJournal leaves search results and reloads the journal shown before
// the search.
func (m *Model) ReturnToJournal() (tea.Cmd, error) {
	src, err := m.selected()
	if err != nil {
		return nil, err
	}
	journal, ok := src.ReturnFromSearch()
	if !ok {
		return nil, ErrNoJournal
	}
	return m.fetchJournal(src, journal.Filename), nil
}

// =============================================================================
// RUN LOOKUP
// =============================================================================

// FindRun asks the backend which journal holds run, opens that journal and
// selects the run's row.
func (m *Model) FindRun(run string) (tea.Cmd, error) {
	src, err := m.selected()
	if err != nil {
		return nil, err
	}
	run = strings.TrimSpace(run)
	if run == "" {
		return nil, fmt.Errorf("%w: empty run number", ErrRunNotFound)
	}

	seq, id, desc := m.next(), src.ID(), src.Descriptor(m.inst)
	return func() tea.Msg {
		ctx, cancel := m.context()
		defer cancel()
		found, err := m.backend.FindJournal(ctx, desc, run)
		return foundMsg{seq: seq, sourceID: id, run: run, found: found, err: err}
	}, nil
}

func (m *Model) onFound(msg foundMsg) tea.Cmd {
	if !m.current(msg.seq, msg.sourceID) {
		return nil
	}
	src, ok := m.registry.Get(msg.sourceID)
	if !ok {
		return nil
	}
	if msg.err != nil {
		return m.fail(src, msg.err)
	}

	journal, err := src.SelectJournalByName(msg.found.JournalName)
	if err != nil {
		m.report(err)
		return emit(FailedMsg{SourceID: src.ID(), Err: err, Info: Describe(err)})
	}
	m.pendingRun = msg.run
	return m.fetchJournal(src, journal.Filename)
}

func (m *Model) selectRun(src *source.JournalSource, journal, run string) tea.Cmd {
	row, err := m.JumpToRun(run)
	if err != nil {
		m.report(err)
		return emit(FailedMsg{SourceID: src.ID(), Err: err, Info: Describe(err)})
	}
	return emit(RunFoundMsg{SourceID: src.ID(), Journal: journal, Run: run, Row: row})
}

// JumpToRun selects the displayed row holding run. With grouping on, the
// group whose run list contains run is selected.
func (m *Model) JumpToRun(run string) (int, error) {
	if !m.store.Loaded() {
		return -1, ErrNoJournal
	}
	row := -1
	if !m.grouped {
		row, _ = m.store.Lookup(models.FieldRunNumber, run)
	} else {
		row = m.groupRow(run)
	}
	if row < 0 {
		return -1, fmt.Errorf("%w: %s", ErrRunNotFound, run)
	}
	m.row = row
	return row, nil
}

func (m *Model) groupRow(run string) int {
	for i, rec := range m.frame.Records {
		for _, r := range strings.Split(rec.RunNumber(), rundata.RunSeparator) {
			if r == run {
				return i
			}
		}
	}
	return -1
}

// =============================================================================
// JOBS
// =============================================================================

// Generate starts index generation for the displayed source.
func (m *Model) Generate(style models.ScanStyle) (tea.Cmd, error) {
	src, err := m.selected()
	if err != nil {
		return nil, err
	}
	cmd, err := m.jobs.StartGeneration(src.ID(), m.inst, style)
	if err != nil {
		m.report(err)
		return nil, err
	}
	m.next()
	m.clearTable()
	return cmd, nil
}

// Acquire starts acquisition for the displayed source.
func (m *Model) Acquire() (tea.Cmd, error) {
	src, err := m.selected()
	if err != nil {
		return nil, err
	}
	cmd, err := m.jobs.StartAcquisition(src.ID(), m.inst, nil)
	if err != nil {
		m.report(err)
		return nil, err
	}
	m.next()
	return cmd, nil
}

// Stop stops the job running for the displayed source.
func (m *Model) Stop() tea.Cmd {
	src, err := m.selected()
	if err != nil {
		return nil
	}
	if id, ok := m.jobs.GeneratingSource(); ok && id == src.ID() {
		return m.jobs.StopGeneration()
	}
	if id, ok := m.jobs.AcquiringSource(); ok && id == src.ID() {
		return m.jobs.StopAcquisition()
	}
	return nil
}

func (m *Model) onJobFinished(msg jobs.FinishedMsg) tea.Cmd {
	m.progress = jobs.Descriptor{}
	if !msg.Displayed {
		return nil
	}
	if msg.Err != nil {
		info := jobs.Describe(msg.Err)
		m.lastErr = &info
		return nil
	}
	if msg.Refresh {
		if src, ok := m.registry.Get(msg.Job.SourceID); ok {
			return m.fetchIndex(src)
		}
	}
	return nil
}
