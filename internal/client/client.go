// Package client provides an HTTP client for the journal viewer backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/raphaelgruber/journal-viewer/internal/metrics"
	"github.com/raphaelgruber/journal-viewer/internal/models"
)

// DefaultURL is the loopback address the backend listens on.
const DefaultURL = "http://127.0.0.1:5000"

// Client issues requests to the backend process.
type Client struct {
	baseURL    string
	httpClient *http.Client
	collector  *metrics.Collector
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCollector records request metrics into collector.
func WithCollector(collector *metrics.Collector) Option {
	return func(c *Client) { c.collector = collector }
}

// WithLogger sets the client's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a backend client.
// If baseURL is empty, uses JV_BACKEND_URL env var or defaults to DefaultURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = os.Getenv("JV_BACKEND_URL")
	}
	if baseURL == "" {
		baseURL = DefaultURL
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one request and returns the raw reply body. Transport failures
// are checked first; replies carrying an error marker become ProtocolErrors.
func (c *Client) do(ctx context.Context, method, endpoint string, payload any) (body []byte, err error) {
	start := time.Now()
	defer func() {
		if c.collector != nil {
			c.collector.RecordRequest(endpoint, time.Since(start), err != nil)
		}
	}()

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s request: %w", endpoint, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", endpoint, err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	if marker, ok := detectMarker(body); ok {
		c.logger.Debug("backend error marker", "endpoint", endpoint, "marker", marker)
		return nil, &ProtocolError{Endpoint: endpoint, Marker: marker, Body: strings.TrimSpace(string(body))}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	return body, nil
}

// call sends a request and decodes a JSON reply into result.
func (c *Client) call(ctx context.Context, method, endpoint string, payload, result any) error {
	body, err := c.do(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return nil
}

// =============================================================================
// JOURNAL OPERATIONS
// =============================================================================

type sourceRequest struct {
	Source models.SourceDescriptor `json:"source"`
}

type journalRequest struct {
	Source   models.SourceDescriptor `json:"source"`
	Filename string                  `json:"filename"`
}

// GetJournalIndex returns the journals listed in a source's index.
func (c *Client) GetJournalIndex(ctx context.Context, src models.SourceDescriptor) ([]models.Journal, error) {
	var journals []models.Journal
	if err := c.call(ctx, http.MethodPost, "getJournalIndex", sourceRequest{Source: src}, &journals); err != nil {
		return nil, err
	}
	return journals, nil
}

// GetJournal returns all run records of a journal.
func (c *Client) GetJournal(ctx context.Context, src models.SourceDescriptor, filename string) ([]models.Record, error) {
	var records []models.Record
	if err := c.call(ctx, http.MethodPost, "getJournal", journalRequest{Source: src, Filename: filename}, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetJournalUpdates returns run records added to a journal since it was
// last fetched.
func (c *Client) GetJournalUpdates(ctx context.Context, src models.SourceDescriptor, filename string) ([]models.Record, error) {
	var records []models.Record
	if err := c.call(ctx, http.MethodPost, "getJournalUpdates", journalRequest{Source: src, Filename: filename}, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetUncachedJournalCount returns how many journals of a source the backend
// has not yet acquired.
func (c *Client) GetUncachedJournalCount(ctx context.Context, src models.SourceDescriptor) (int, error) {
	var count int
	if err := c.call(ctx, http.MethodPost, "getUncachedJournalCount", sourceRequest{Source: src}, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// =============================================================================
// SEARCH OPERATIONS
// =============================================================================

type searchRequest struct {
	Source        models.SourceDescriptor `json:"source"`
	Fields        map[string]string       `json:"fields"`
	CaseSensitive bool                    `json:"caseSensitive"`
}

// Search returns run records across all journals of a source whose fields
// match the given values.
func (c *Client) Search(ctx context.Context, src models.SourceDescriptor, fields map[string]string, caseSensitive bool) ([]models.Record, error) {
	var records []models.Record
	req := searchRequest{Source: src, Fields: fields, CaseSensitive: caseSensitive}
	if err := c.call(ctx, http.MethodPost, "search", req, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// FoundJournal identifies the journal containing a run.
type FoundJournal struct {
	JournalName string `json:"journal_display_name"`
	RunNumber   string `json:"run_number"`
}

// UnmarshalJSON accepts the run number as either a string or a number.
func (f *FoundJournal) UnmarshalJSON(data []byte) error {
	var raw struct {
		JournalName string `json:"journal_display_name"`
		RunNumber   any    `json:"run_number"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.JournalName = raw.JournalName
	f.RunNumber = models.Record{models.FieldRunNumber: raw.RunNumber}.RunNumber()
	return nil
}

type findJournalRequest struct {
	Source    models.SourceDescriptor `json:"source"`
	RunNumber string                  `json:"run_number"`
}

// FindJournal locates the journal containing a run number.
func (c *Client) FindJournal(ctx context.Context, src models.SourceDescriptor, runNumber string) (*FoundJournal, error) {
	var found FoundJournal
	if err := c.call(ctx, http.MethodPost, "findJournal", findJournalRequest{Source: src, RunNumber: runNumber}, &found); err != nil {
		return nil, err
	}
	return &found, nil
}

// =============================================================================
// ACQUISITION OPERATIONS
// =============================================================================

// AcquireProgress is the state of a running acquisition.
type AcquireProgress struct {
	NumJournals  int    `json:"num_journals"`
	NumCompleted int    `json:"num_completed"`
	LastJournal  string `json:"last_journal"`
	Complete     bool   `json:"complete"`
}

func (c *Client) acquire(ctx context.Context, endpoint string, src models.SourceDescriptor) (*AcquireProgress, error) {
	body, err := c.do(ctx, http.MethodPost, endpoint, sourceRequest{Source: src})
	if err != nil {
		return nil, err
	}
	if isNotRunning(body) {
		return nil, fmt.Errorf("%s: %w", endpoint, ErrNotRunning)
	}
	var progress AcquireProgress
	if err := json.Unmarshal(body, &progress); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", endpoint, err)
	}
	return &progress, nil
}

// AcquireAllJournals starts fetching every journal of a source.
func (c *Client) AcquireAllJournals(ctx context.Context, src models.SourceDescriptor) (*AcquireProgress, error) {
	return c.acquire(ctx, "acquireAllJournals", src)
}

// AcquireAllJournalsUpdate polls a running acquisition.
func (c *Client) AcquireAllJournalsUpdate(ctx context.Context, src models.SourceDescriptor) (*AcquireProgress, error) {
	return c.acquire(ctx, "acquireAllJournalsUpdate", src)
}

// AcquireAllJournalsStop asks the backend to stop an acquisition. Any reply
// other than NOT_RUNNING or an error marker is an acknowledgement.
func (c *Client) AcquireAllJournalsStop(ctx context.Context, src models.SourceDescriptor) error {
	body, err := c.do(ctx, http.MethodPost, "acquireAllJournalsStop", sourceRequest{Source: src})
	if err != nil {
		return err
	}
	if isNotRunning(body) {
		return fmt.Errorf("acquireAllJournalsStop: %w", ErrNotRunning)
	}
	return nil
}

// =============================================================================
// GENERATION OPERATIONS
// =============================================================================

// FileList is the result of enumerating candidate data files.
type FileList struct {
	NumFiles      int                 `json:"num_files"`
	DataDirectory string              `json:"data_directory"`
	Files         map[string][]string `json:"files"`
}

// ScanProgress is the state of a running generation scan.
type ScanProgress struct {
	NumCompleted int    `json:"num_completed"`
	LastFilename string `json:"last_filename"`
	Complete     bool   `json:"complete"`
}

type listRequest struct {
	Source       models.SourceDescriptor `json:"source"`
	RootSelector string                  `json:"regex"`
}

type scanRequest struct {
	Source    models.SourceDescriptor `json:"source"`
	SortKey   string                  `json:"sortKey"`
	ScanStyle string                  `json:"scanStyle"`
}

// GenerateList enumerates the data files under a source's run-data root.
func (c *Client) GenerateList(ctx context.Context, src models.SourceDescriptor, rootSelector string) (*FileList, error) {
	var list FileList
	if err := c.call(ctx, http.MethodPost, "generate/list", listRequest{Source: src, RootSelector: rootSelector}, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GenerateScan starts a background scan of the listed files.
func (c *Client) GenerateScan(ctx context.Context, src models.SourceDescriptor, sortKey string, style models.ScanStyle) (*ScanProgress, error) {
	var progress ScanProgress
	req := scanRequest{Source: src, SortKey: sortKey, ScanStyle: style.String()}
	if err := c.call(ctx, http.MethodPost, "generate/scan", req, &progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// GenerateScanUpdate polls the running scan.
func (c *Client) GenerateScanUpdate(ctx context.Context) (*ScanProgress, error) {
	body, err := c.do(ctx, http.MethodGet, "generate/scanUpdate", nil)
	if err != nil {
		return nil, err
	}
	if isNotRunning(body) {
		return nil, fmt.Errorf("generate/scanUpdate: %w", ErrNotRunning)
	}
	var progress ScanProgress
	if err := json.Unmarshal(body, &progress); err != nil {
		return nil, fmt.Errorf("decode generate/scanUpdate response: %w", err)
	}
	return &progress, nil
}

// GenerateScanStop asks the backend to stop the running scan.
func (c *Client) GenerateScanStop(ctx context.Context) error {
	body, err := c.do(ctx, http.MethodGet, "generate/scanStop", nil)
	if err != nil {
		return err
	}
	if isNotRunning(body) {
		return fmt.Errorf("generate/scanStop: %w", ErrNotRunning)
	}
	return nil
}

// GenerateFinalise writes the scanned files into the source's index.
// It reports success only when the backend answers SUCCESS.
func (c *Client) GenerateFinalise(ctx context.Context, src models.SourceDescriptor, sortKey string, style models.ScanStyle) (bool, error) {
	req := scanRequest{Source: src, SortKey: sortKey, ScanStyle: style.String()}
	body, err := c.do(ctx, http.MethodPost, "generate/finalise", req)
	if err != nil {
		return false, err
	}
	text, _ := bareText(body)
	return strings.EqualFold(text, "SUCCESS"), nil
}

// =============================================================================
// NEXUS OPERATIONS
// =============================================================================

type nexusRequest struct {
	Source     models.SourceDescriptor `json:"source"`
	RunNumbers []string                `json:"runNumbers"`
	Field      string                  `json:"field,omitempty"`
	Spectrum   *int                    `json:"spectrum,omitempty"`
}

// GetNexusFields returns the log fields available for the given runs.
// The reply is passed through undecoded.
func (c *Client) GetNexusFields(ctx context.Context, src models.SourceDescriptor, runNumbers []string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "getNexusFields", nexusRequest{Source: src, RunNumbers: runNumbers})
}

// GetNexusLogValueData returns the time series of one log field.
func (c *Client) GetNexusLogValueData(ctx context.Context, src models.SourceDescriptor, runNumbers []string, field string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "getNexusLogValueData", nexusRequest{Source: src, RunNumbers: runNumbers, Field: field})
}

// GetNexusSpectrumRange returns the spectrum count of the given runs.
func (c *Client) GetNexusSpectrumRange(ctx context.Context, src models.SourceDescriptor, runNumbers []string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "getNexusSpectrumRange", nexusRequest{Source: src, RunNumbers: runNumbers})
}

// GetNexusSpectrum returns one spectrum of the given runs.
func (c *Client) GetNexusSpectrum(ctx context.Context, src models.SourceDescriptor, runNumbers []string, spectrum int) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "getNexusSpectrum", nexusRequest{Source: src, RunNumbers: runNumbers, Spectrum: &spectrum})
}
