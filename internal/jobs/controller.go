// Package jobs runs the backend's long-lived jobs: index generation for
// generated sources and bulk journal acquisition for network sources.
//
// The controller has no goroutines of its own. Every backend call is a
// tea.Cmd and every poll is a single-shot tick, so all state lives on the
// event loop that calls Update. A job is identified by a short ID; replies
// and ticks carrying an ID that no longer holds a slot are discarded.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/raphaelgruber/journal-viewer/internal/client"
	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/raphaelgruber/journal-viewer/internal/source"
)

// DefaultPollInterval is the delay between progress polls.
const DefaultPollInterval = time.Second

// DefaultRequestTimeout bounds a single backend call made by a job.
const DefaultRequestTimeout = 5 * time.Minute

// Backend is the subset of the journal backend a job needs.
type Backend interface {
	GenerateList(ctx context.Context, src models.SourceDescriptor, rootSelector string) (*client.FileList, error)
	GenerateScan(ctx context.Context, src models.SourceDescriptor, sortKey string, style models.ScanStyle) (*client.ScanProgress, error)
	GenerateScanUpdate(ctx context.Context) (*client.ScanProgress, error)
	GenerateScanStop(ctx context.Context) error
	GenerateFinalise(ctx context.Context, src models.SourceDescriptor, sortKey string, style models.ScanStyle) (bool, error)

	GetUncachedJournalCount(ctx context.Context, src models.SourceDescriptor) (int, error)
	AcquireAllJournals(ctx context.Context, src models.SourceDescriptor) (*client.AcquireProgress, error)
	AcquireAllJournalsUpdate(ctx context.Context, src models.SourceDescriptor) (*client.AcquireProgress, error)
	AcquireAllJournalsStop(ctx context.Context, src models.SourceDescriptor) error
}

// Ticker schedules fn after d. tea.Tick is the production ticker.
type Ticker func(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd

// Kind distinguishes the two job slots.
type Kind int

const (
	KindGeneration Kind = iota
	KindAcquisition
)

func (k Kind) String() string {
	if k == KindAcquisition {
		return "acquisition"
	}
	return "generation"
}

// Phase is the step a job is waiting on.
type Phase int

const (
	PhaseListing Phase = iota
	PhaseScanning
	PhaseFinalising
	PhaseCounting
	PhaseAcquiring
)

func (p Phase) String() string {
	switch p {
	case PhaseListing:
		return "listing"
	case PhaseScanning:
		return "scanning"
	case PhaseFinalising:
		return "finalising"
	case PhaseCounting:
		return "counting"
	case PhaseAcquiring:
		return "acquiring"
	default:
		return "unknown"
	}
}

// Descriptor describes a running job. Copies are handed out in messages;
// the controller owns the live one.
type Descriptor struct {
	ID         string
	Kind       Kind
	SourceID   string
	SourceName string
	Style      models.ScanStyle
	Phase      Phase
	Expected   int
	Completed  int
	LastItem   string
	Complete   bool
	Stopping   bool
	StartedAt  time.Time

	// DataDirectory and Sections come from generate/list: the directory the
	// backend scanned and how many files each section holds.
	DataDirectory string
	Sections      map[string]int

	target models.SourceDescriptor
	resume tea.Cmd
}

// Fraction returns completed/expected clamped to [0, 1].
func (d Descriptor) Fraction() float64 {
	if d.Expected <= 0 {
		return 0
	}
	f := float64(d.Completed) / float64(d.Expected)
	if f > 1 {
		return 1
	}
	return f
}

// Elapsed returns how long the job has been running.
func (d Descriptor) Elapsed() time.Duration {
	return time.Since(d.StartedAt)
}

func (d *Descriptor) observe(completed int, last string) {
	// Progress never moves backwards.
	if completed > d.Completed {
		d.Completed = completed
	}
	if last != "" {
		d.LastItem = last
	}
}

// =============================================================================
// OUTWARD MESSAGES
// =============================================================================

// ProgressMsg reports a change to a running job.
type ProgressMsg struct {
	Job Descriptor
}

// FinishedMsg reports that a job left its slot.
type FinishedMsg struct {
	Job Descriptor
	Err error // nil on success

	// Displayed is true when the job's source was the displayed source at
	// the time the job finished.
	Displayed bool

	// Refresh is true when the source was moved to Loading and its index
	// must be fetched again.
	Refresh bool
}

// =============================================================================
// INTERNAL MESSAGES
// =============================================================================

type genListMsg struct {
	jobID string
	list  *client.FileList
	err   error
}

type genScanMsg struct {
	jobID    string
	progress *client.ScanProgress
	err      error
}

type genTickMsg struct{ jobID string }

type genFinaliseMsg struct {
	jobID string
	ok    bool
	err   error
}

type genStopMsg struct {
	jobID string
	err   error
}

type acqCountMsg struct {
	jobID string
	count int
	err   error
}

type acqProgressMsg struct {
	jobID    string
	progress *client.AcquireProgress
	err      error
}

type acqTickMsg struct{ jobID string }

type acqStopMsg struct {
	jobID string
	err   error
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the generation slot and the acquisition slot. Each holds at
// most one job; the two are independent of each other.
type Controller struct {
	backend  Backend
	registry *source.Registry
	logger   *slog.Logger

	ticker   Ticker
	interval time.Duration
	timeout  time.Duration
	sortKey  string

	gen *Descriptor
	acq *Descriptor
}

// Option configures a Controller.
type Option func(*Controller)

// WithTicker replaces tea.Tick, mainly for tests.
func WithTicker(t Ticker) Option {
	return func(c *Controller) { c.ticker = t }
}

// WithPollInterval sets the delay between progress polls.
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithRequestTimeout bounds each backend call.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSortKey sets the field generated indexes are sorted by.
func WithSortKey(key string) Option {
	return func(c *Controller) {
		if key != "" {
			c.sortKey = key
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// New creates a controller and attaches it to the registry so busy sources
// are protected from removal.
func New(backend Backend, registry *source.Registry, opts ...Option) *Controller {
	c := &Controller{
		backend:  backend,
		registry: registry,
		logger:   slog.Default(),
		ticker:   tea.Tick,
		interval: DefaultPollInterval,
		timeout:  DefaultRequestTimeout,
		sortKey:  models.FieldRunNumber,
	}
	for _, opt := range opts {
		opt(c)
	}
	registry.AttachJobs(c)
	return c
}

// GeneratingSource returns the source holding the generation slot.
func (c *Controller) GeneratingSource() (string, bool) {
	if c.gen == nil {
		return "", false
	}
	return c.gen.SourceID, true
}

// AcquiringSource returns the source holding the acquisition slot.
func (c *Controller) AcquiringSource() (string, bool) {
	if c.acq == nil {
		return "", false
	}
	return c.acq.SourceID, true
}

// Generation returns a copy of the running generation job.
func (c *Controller) Generation() (Descriptor, bool) {
	if c.gen == nil {
		return Descriptor{}, false
	}
	return *c.gen, true
}

// Acquisition returns a copy of the running acquisition job.
func (c *Controller) Acquisition() (Descriptor, bool) {
	if c.acq == nil {
		return Descriptor{}, false
	}
	return *c.acq, true
}

// Job returns the job holding a slot for sourceID, if any.
func (c *Controller) Job(sourceID string) (Descriptor, bool) {
	if c.gen != nil && c.gen.SourceID == sourceID {
		return *c.gen, true
	}
	if c.acq != nil && c.acq.SourceID == sourceID {
		return *c.acq, true
	}
	return Descriptor{}, false
}

// Busy reports whether any job is running.
func (c *Controller) Busy() bool {
	return c.gen != nil || c.acq != nil
}

// Update advances the job a message belongs to. handled is false for
// messages the controller does not own.
func (c *Controller) Update(msg tea.Msg) (cmd tea.Cmd, handled bool) {
	switch msg := msg.(type) {
	case genListMsg:
		return c.onGenList(msg), true
	case genScanMsg:
		return c.onGenScan(msg), true
	case genTickMsg:
		return c.onGenTick(msg), true
	case genFinaliseMsg:
		return c.onGenFinalise(msg), true
	case genStopMsg:
		return c.onGenStop(msg), true
	case acqCountMsg:
		return c.onAcqCount(msg), true
	case acqProgressMsg:
		return c.onAcqProgress(msg), true
	case acqTickMsg:
		return c.onAcqTick(msg), true
	case acqStopMsg:
		return c.onAcqStop(msg), true
	}
	return nil, false
}

func (c *Controller) current(slot *Descriptor, jobID string, kind string) bool {
	if slot == nil || slot.ID != jobID {
		c.logger.Debug("discarding stale job reply", "kind", kind, "job_id", jobID)
		return false
	}
	return true
}

func (c *Controller) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.timeout)
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

func (c *Controller) progress(d *Descriptor) tea.Cmd {
	return emit(ProgressMsg{Job: *d})
}

// claim checks both slots for a new job of kind on src.
func (c *Controller) claim(kind Kind, src *source.JournalSource) error {
	own, other := c.gen, c.acq
	if kind == KindAcquisition {
		own, other = c.acq, c.gen
	}
	if own != nil {
		return &ConflictError{Kind: kind, Blocking: own.SourceName}
	}
	if other != nil && other.SourceID == src.ID() {
		return &ConflictError{Kind: other.Kind, Blocking: other.SourceName}
	}
	return nil
}

func newDescriptor(kind Kind, src *source.JournalSource, inst models.Instrument) *Descriptor {
	return &Descriptor{
		ID:         uuid.New().String()[:8],
		Kind:       kind,
		SourceID:   src.ID(),
		SourceName: src.Name(),
		StartedAt:  time.Now(),
		target:     src.Descriptor(inst),
	}
}

// finish clears the slot held by d and settles its source. On success the
// displayed source reloads unless resume takes over. A generated source in
// the background is left Loading so its index is fetched when next shown;
// an acquired one goes back to OK.
func (c *Controller) finish(d *Descriptor, err error) tea.Cmd {
	if d.Kind == KindGeneration {
		c.gen = nil
	} else {
		c.acq = nil
	}

	displayed := c.registry.IsSelected(d.SourceID)
	refresh := false
	var resume tea.Cmd

	src, ok := c.registry.Get(d.SourceID)
	switch {
	case !ok:
		c.logger.Warn("job source disappeared", "kind", d.Kind, "source_id", d.SourceID)
	case err != nil:
		if ferr := src.Fail(Describe(err)); ferr != nil {
			c.logger.Warn("failed to mark source failed", "source", d.SourceName, "error", ferr)
		}
	case displayed && d.resume != nil:
		if serr := src.SetState(models.StateOK); serr != nil {
			c.logger.Warn("failed to settle source", "source", d.SourceName, "error", serr)
		}
		resume = d.resume
	case displayed:
		if serr := src.SetState(models.StateLoading); serr != nil {
			c.logger.Warn("failed to settle source", "source", d.SourceName, "error", serr)
		}
		refresh = true
	case d.Kind == KindGeneration:
		if serr := src.SetState(models.StateLoading); serr != nil {
			c.logger.Warn("failed to settle source", "source", d.SourceName, "error", serr)
		}
	default:
		if serr := src.SetState(models.StateOK); serr != nil {
			c.logger.Warn("failed to settle source", "source", d.SourceName, "error", serr)
		}
	}

	if err != nil {
		c.logger.Warn("job failed",
			"kind", d.Kind,
			"job_id", d.ID,
			"source", d.SourceName,
			"displayed", displayed,
			"error", err)
	} else {
		c.logger.Info("job completed",
			"kind", d.Kind,
			"job_id", d.ID,
			"source", d.SourceName,
			"completed", d.Completed,
			"duration", d.Elapsed())
	}

	return tea.Batch(emit(FinishedMsg{Job: *d, Err: err, Displayed: displayed, Refresh: refresh}), resume)
}

// =============================================================================
// GENERATION
// =============================================================================

// StartGeneration claims the generation slot for sourceID and starts the
// list, scan, finalise sequence.
func (c *Controller) StartGeneration(sourceID string, inst models.Instrument, style models.ScanStyle) (tea.Cmd, error) {
	src, ok := c.registry.Get(sourceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownSource, sourceID)
	}
	if src.Indexing() != models.IndexingGenerated {
		return nil, fmt.Errorf("%w: %s", ErrNotGenerated, src.Name())
	}
	if err := c.claim(KindGeneration, src); err != nil {
		return nil, err
	}
	if err := src.SetState(models.StateGenerating); err != nil {
		return nil, err
	}

	d := newDescriptor(KindGeneration, src, inst)
	d.Style = style
	d.Phase = PhaseListing
	c.gen = d

	c.logger.Info("generation started", "job_id", d.ID, "source", d.SourceName, "style", style)
	return tea.Batch(c.progress(d), c.listCmd(d)), nil
}

// StopGeneration asks the backend to stop the scan. The job leaves its slot
// on the stop reply or the next poll, whichever comes first.
func (c *Controller) StopGeneration() tea.Cmd {
	d := c.gen
	if d == nil || d.Stopping || d.Phase == PhaseFinalising {
		return nil
	}
	d.Stopping = true
	c.logger.Info("stopping generation", "job_id", d.ID, "source", d.SourceName)

	jobID := d.ID
	return tea.Batch(c.progress(d), func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		return genStopMsg{jobID: jobID, err: c.backend.GenerateScanStop(ctx)}
	})
}

func (c *Controller) listCmd(d *Descriptor) tea.Cmd {
	jobID, target, selector := d.ID, d.target, c.rootSelector(d.SourceID)
	return func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		list, err := c.backend.GenerateList(ctx, target, selector)
		return genListMsg{jobID: jobID, list: list, err: err}
	}
}

func (c *Controller) rootSelector(sourceID string) string {
	if src, ok := c.registry.Get(sourceID); ok {
		return src.RootSelector()
	}
	return ""
}

func (c *Controller) scanCmd(d *Descriptor) tea.Cmd {
	jobID, target, sortKey, style := d.ID, d.target, c.sortKey, d.Style
	return func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		p, err := c.backend.GenerateScan(ctx, target, sortKey, style)
		return genScanMsg{jobID: jobID, progress: p, err: err}
	}
}

func (c *Controller) scanUpdateCmd(d *Descriptor) tea.Cmd {
	jobID := d.ID
	return func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		p, err := c.backend.GenerateScanUpdate(ctx)
		return genScanMsg{jobID: jobID, progress: p, err: err}
	}
}

func (c *Controller) finaliseCmd(d *Descriptor) tea.Cmd {
	jobID, target, sortKey, style := d.ID, d.target, c.sortKey, d.Style
	return func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		ok, err := c.backend.GenerateFinalise(ctx, target, sortKey, style)
		return genFinaliseMsg{jobID: jobID, ok: ok, err: err}
	}
}

func (c *Controller) onGenList(msg genListMsg) tea.Cmd {
	if !c.current(c.gen, msg.jobID, "generate/list") {
		return nil
	}
	d := c.gen
	switch {
	case d.Stopping:
		return c.finish(d, ErrCancelled)
	case msg.err != nil:
		return c.finish(d, msg.err)
	case msg.list == nil || msg.list.NumFiles == 0:
		return c.finish(d, ErrNoFilesFound)
	}

	d.Expected = msg.list.NumFiles
	d.DataDirectory = msg.list.DataDirectory
	d.Sections = make(map[string]int, len(msg.list.Files))
	for section, files := range msg.list.Files {
		d.Sections[section] = len(files)
	}
	d.Phase = PhaseScanning
	c.logger.Debug("generation listed files", "job_id", d.ID, "files", d.Expected, "sections", len(d.Sections))
	return tea.Batch(c.progress(d), c.scanCmd(d))
}

func (c *Controller) onGenScan(msg genScanMsg) tea.Cmd {
	if !c.current(c.gen, msg.jobID, "generate/scan") {
		return nil
	}
	d := c.gen
	switch {
	case d.Stopping:
		return c.finish(d, ErrCancelled)
	case msg.err != nil:
		return c.finish(d, msg.err)
	case msg.progress == nil:
		return c.finish(d, fmt.Errorf("%w: empty scan progress", client.ErrProtocol))
	}

	d.observe(msg.progress.NumCompleted, msg.progress.LastFilename)
	if msg.progress.Complete {
		d.Complete = true
		d.Phase = PhaseFinalising
		return tea.Batch(c.progress(d), c.finaliseCmd(d))
	}

	jobID := d.ID
	return tea.Batch(c.progress(d), c.ticker(c.interval, func(time.Time) tea.Msg {
		return genTickMsg{jobID: jobID}
	}))
}

func (c *Controller) onGenTick(msg genTickMsg) tea.Cmd {
	if !c.current(c.gen, msg.jobID, "generate tick") {
		return nil
	}
	if c.gen.Stopping {
		return c.finish(c.gen, ErrCancelled)
	}
	return c.scanUpdateCmd(c.gen)
}

func (c *Controller) onGenFinalise(msg genFinaliseMsg) tea.Cmd {
	if !c.current(c.gen, msg.jobID, "generate/finalise") {
		return nil
	}
	switch {
	case msg.err != nil:
		return c.finish(c.gen, msg.err)
	case !msg.ok:
		return c.finish(c.gen, ErrFinaliseFailed)
	}
	return c.finish(c.gen, nil)
}

func (c *Controller) onGenStop(msg genStopMsg) tea.Cmd {
	if !c.current(c.gen, msg.jobID, "generate/scan/stop") {
		return nil
	}
	if msg.err != nil {
		c.logger.Warn("generation stop request failed", "job_id", msg.jobID, "error", msg.err)
	}
	return c.finish(c.gen, ErrCancelled)
}

// =============================================================================
// ACQUISITION
// =============================================================================

// StartAcquisition claims the acquisition slot for sourceID. resume runs when
// the job succeeds while its source is still displayed; it is dropped
// otherwise.
func (c *Controller) StartAcquisition(sourceID string, inst models.Instrument, resume tea.Cmd) (tea.Cmd, error) {
	src, ok := c.registry.Get(sourceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", source.ErrUnknownSource, sourceID)
	}
	if err := c.claim(KindAcquisition, src); err != nil {
		return nil, err
	}
	if err := src.SetState(models.StateAcquiring); err != nil {
		return nil, err
	}

	d := newDescriptor(KindAcquisition, src, inst)
	d.Phase = PhaseCounting
	d.resume = resume
	c.acq = d

	c.logger.Info("acquisition started", "job_id", d.ID, "source", d.SourceName)

	jobID, target := d.ID, d.target
	return tea.Batch(c.progress(d), func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		n, err := c.backend.GetUncachedJournalCount(ctx, target)
		return acqCountMsg{jobID: jobID, count: n, err: err}
	}), nil
}

// StopAcquisition asks the backend to stop acquiring.
func (c *Controller) StopAcquisition() tea.Cmd {
	d := c.acq
	if d == nil || d.Stopping {
		return nil
	}
	d.Stopping = true
	c.logger.Info("stopping acquisition", "job_id", d.ID, "source", d.SourceName)

	jobID, target := d.ID, d.target
	return tea.Batch(c.progress(d), func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		return acqStopMsg{jobID: jobID, err: c.backend.AcquireAllJournalsStop(ctx, target)}
	})
}

func (c *Controller) acquireCmd(d *Descriptor, poll bool) tea.Cmd {
	jobID, target := d.ID, d.target
	return func() tea.Msg {
		ctx, cancel := c.context()
		defer cancel()
		var (
			p   *client.AcquireProgress
			err error
		)
		if poll {
			p, err = c.backend.AcquireAllJournalsUpdate(ctx, target)
		} else {
			p, err = c.backend.AcquireAllJournals(ctx, target)
		}
		return acqProgressMsg{jobID: jobID, progress: p, err: err}
	}
}

func (c *Controller) onAcqCount(msg acqCountMsg) tea.Cmd {
	if !c.current(c.acq, msg.jobID, "getUncachedJournalCount") {
		return nil
	}
	d := c.acq
	switch {
	case d.Stopping:
		return c.finish(d, ErrCancelled)
	case msg.err != nil:
		return c.finish(d, msg.err)
	case msg.count <= 0:
		c.logger.Debug("nothing to acquire", "job_id", d.ID, "source", d.SourceName)
		d.Complete = true
		return c.finish(d, nil)
	}

	d.Expected = msg.count
	d.Phase = PhaseAcquiring
	return tea.Batch(c.progress(d), c.acquireCmd(d, false))
}

func (c *Controller) onAcqProgress(msg acqProgressMsg) tea.Cmd {
	if !c.current(c.acq, msg.jobID, "acquireAllJournals") {
		return nil
	}
	d := c.acq
	switch {
	case d.Stopping:
		return c.finish(d, ErrCancelled)
	case msg.err != nil:
		return c.finish(d, msg.err)
	case msg.progress == nil:
		return c.finish(d, fmt.Errorf("%w: empty acquisition progress", client.ErrProtocol))
	}

	if msg.progress.NumJournals > d.Expected {
		d.Expected = msg.progress.NumJournals
	}
	d.observe(msg.progress.NumCompleted, msg.progress.LastJournal)
	if msg.progress.Complete {
		d.Complete = true
		return c.finish(d, nil)
	}

	jobID := d.ID
	return tea.Batch(c.progress(d), c.ticker(c.interval, func(time.Time) tea.Msg {
		return acqTickMsg{jobID: jobID}
	}))
}

func (c *Controller) onAcqTick(msg acqTickMsg) tea.Cmd {
	if !c.current(c.acq, msg.jobID, "acquire tick") {
		return nil
	}
	if c.acq.Stopping {
		return c.finish(c.acq, ErrCancelled)
	}
	return c.acquireCmd(c.acq, true)
}

func (c *Controller) onAcqStop(msg acqStopMsg) tea.Cmd {
	if !c.current(c.acq, msg.jobID, "acquireAllJournalsStop") {
		return nil
	}
	if msg.err != nil {
		c.logger.Warn("acquisition stop request failed", "job_id", msg.jobID, "error", msg.err)
	}
	return c.finish(c.acq, ErrCancelled)
}
