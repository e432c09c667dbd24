package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/raphaelgruber/journal-viewer/internal/metrics"
	"github.com/raphaelgruber/journal-viewer/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSource = models.SourceDescriptor{Name: "ISIS", Type: "Network", Instrument: "MARI"}

type payloads struct {
	mu   sync.Mutex
	seen map[string]map[string]any
}

func (p *payloads) get(path string) map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seen[path]
}

// newTestServer serves fixed replies keyed by endpoint path and records the
// decoded request payloads.
func newTestServer(t *testing.T, replies map[string]string) (*httptest.Server, *payloads) {
	t.Helper()
	seen := &payloads{seen: make(map[string]map[string]any)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]any
		if len(body) > 0 {
			_ = json.Unmarshal(body, &payload)
		}
		seen.mu.Lock()
		seen.seen[r.URL.Path] = payload
		seen.mu.Unlock()

		reply, ok := replies[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, reply)
	}))
	t.Cleanup(srv.Close)
	return srv, seen
}

func TestGetJournalIndex(t *testing.T) {
	srv, seen := newTestServer(t, map[string]string{
		"/getJournalIndex": `[{"display_name":"Cycle 23/1","filename":"journal_23_1.xml"},{"display_name":"Cycle 22/5","filename":"journal_22_5.xml"}]`,
	})
	c := New(srv.URL)

	journals, err := c.GetJournalIndex(context.Background(), testSource)
	require.NoError(t, err)
	require.Len(t, journals, 2)
	assert.Equal(t, "Cycle 23/1", journals[0].Name)
	assert.Equal(t, "journal_22_5.xml", journals[1].Filename)

	src := seen.get("/getJournalIndex")["source"].(map[string]any)
	assert.Equal(t, "ISIS", src["sourceID"])
	assert.Equal(t, "MARI", src["instrument"])
}

func TestGetJournalKeepsOrderAndNumbers(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/getJournal": `[{"run_number":"102","title":"B"},{"run_number":101,"title":"A"}]`,
	})
	records, err := New(srv.URL).GetJournal(context.Background(), testSource, "journal_23_1.xml")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "102", records[0].RunNumber())
	assert.Equal(t, "101", records[1].RunNumber())
}

func TestProtocolMarkers(t *testing.T) {
	tests := []struct {
		reply string
		want  Marker
	}{
		{`"Index File Not Found"`, MarkerFileNotFound},
		{`FileNotFoundError`, MarkerFileNotFound},
		{`"Invalid Request"`, MarkerInvalidRequest},
		{`NetworkError`, MarkerNetwork},
		{`"XML Parse Error"`, MarkerXMLParse},
		{`CollectionNotFoundError`, MarkerCollectionNotFound},
		{`"Journal Not Found"`, MarkerJournalNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			srv, _ := newTestServer(t, map[string]string{"/getJournalIndex": tt.reply})
			_, err := New(srv.URL).GetJournalIndex(context.Background(), testSource)
			require.Error(t, err)

			var protoErr *ProtocolError
			require.True(t, errors.As(err, &protoErr))
			assert.Equal(t, tt.want, protoErr.Marker)
			assert.ErrorIs(t, err, ErrProtocol)
			assert.NotErrorIs(t, err, ErrTransport)
		})
	}
}

func TestMarkerTextInsideRecordsIsData(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/getJournal": `[{"run_number":"1","title":"File Not Found calibration"}]`,
	})
	records, err := New(srv.URL).GetJournal(context.Background(), testSource, "j.xml")
	require.NoError(t, err)
	assert.Equal(t, "File Not Found calibration", records[0].Text(models.FieldTitle))
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	collector := metrics.NewCollector()
	_, err := New(url, WithCollector(collector)).GetJournalIndex(context.Background(), testSource)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Zero(t, transportErr.Status)

	snap := collector.Snapshot()
	require.Len(t, snap.Endpoints, 1)
	assert.Equal(t, int64(1), snap.Endpoints[0].Errors)
}

func TestUnexpectedStatusWithoutMarkerIsTransport(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{})
	_, err := New(srv.URL).GetJournalIndex(context.Background(), testSource)
	require.Error(t, err)

	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, http.StatusNotFound, transportErr.Status)
}

func TestGenerateFlow(t *testing.T) {
	srv, seen := newTestServer(t, map[string]string{
		"/generate/list":       `{"num_files":3,"data_directory":"/data/MARI","files":{"cycle_23_1":["a.nxs","b.nxs"],"cycle_23_2":["c.nxs"]}}`,
		"/generate/scan":       `{"num_completed":0,"last_filename":"","complete":false}`,
		"/generate/scanUpdate": `{"num_completed":2,"last_filename":"b.nxs","complete":false}`,
		"/generate/finalise":   `"SUCCESS"`,
	})
	c := New(srv.URL)
	ctx := context.Background()

	list, err := c.GenerateList(ctx, testSource, `^cycle_\d+_\d+$`)
	require.NoError(t, err)
	assert.Equal(t, 3, list.NumFiles)
	assert.Len(t, list.Files["cycle_23_1"], 2)
	assert.Equal(t, `^cycle_\d+_\d+$`, seen.get("/generate/list")["regex"])

	_, err = c.GenerateScan(ctx, testSource, "run_number", models.ScanUpdateAll)
	require.NoError(t, err)
	assert.Equal(t, "UpdateAll", seen.get("/generate/scan")["scanStyle"])

	progress, err := c.GenerateScanUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, progress.NumCompleted)
	assert.Equal(t, "b.nxs", progress.LastFilename)

	ok, err := c.GenerateFinalise(ctx, testSource, "run_number", models.ScanFull)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFinaliseWithoutSuccess(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"/generate/finalise": `"FAILED"`})
	ok, err := New(srv.URL).GenerateFinalise(context.Background(), testSource, "run_number", models.ScanFull)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNotRunning(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/generate/scanUpdate":      `"NOT_RUNNING"`,
		"/acquireAllJournalsUpdate": `NOT_RUNNING`,
	})
	c := New(srv.URL)

	_, err := c.GenerateScanUpdate(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)

	_, err = c.AcquireAllJournalsUpdate(context.Background(), testSource)
	assert.ErrorIs(t, err, ErrNotRunning)
}

func TestFindJournalNumericRun(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{
		"/findJournal": `{"journal_display_name":"Cycle 23/1","run_number":45123}`,
	})
	found, err := New(srv.URL).FindJournal(context.Background(), testSource, "45123")
	require.NoError(t, err)
	assert.Equal(t, "Cycle 23/1", found.JournalName)
	assert.Equal(t, "45123", found.RunNumber)
}

func TestSearchPayload(t *testing.T) {
	srv, seen := newTestServer(t, map[string]string{"/search": `[]`})
	_, err := New(srv.URL).Search(context.Background(), testSource, map[string]string{"title": "vanadium"}, true)
	require.NoError(t, err)
	assert.Equal(t, true, seen.get("/search")["caseSensitive"])
	assert.Equal(t, map[string]any{"title": "vanadium"}, seen.get("/search")["fields"])
}

func TestUncachedJournalCount(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"/getUncachedJournalCount": `4`})
	n, err := New(srv.URL).GetUncachedJournalCount(context.Background(), testSource)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestAcquireStopAcknowledgement(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		wantErr error
	}{
		{"quoted success", `"SUCCESS"`, nil},
		{"bare success", `SUCCESS`, nil},
		{"progress object", `{"num_journals":3,"num_completed":1,"complete":false}`, nil},
		{"not running", `"NOT_RUNNING"`, ErrNotRunning},
		{"marker", `"Network Error"`, ErrProtocol},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, seen := newTestServer(t, map[string]string{"/acquireAllJournalsStop": tt.reply})
			err := New(srv.URL).AcquireAllJournalsStop(context.Background(), testSource)
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.NotNil(t, seen.get("/acquireAllJournalsStop")["source"])
		})
	}
}

func TestNexusPassthrough(t *testing.T) {
	srv, seen := newTestServer(t, map[string]string{
		"/getNexusFields":        `["proton_charge","temperature"]`,
		"/getNexusLogValueData":  `{"temperature":[[0,4.2],[60,4.3]]}`,
		"/getNexusSpectrumRange": `128`,
		"/getNexusSpectrum":      `{"x":[1,2],"y":[5,6]}`,
	})
	c := New(srv.URL)
	ctx := context.Background()
	runs := []string{"45121", "45122"}

	fields, err := c.GetNexusFields(ctx, testSource, runs)
	require.NoError(t, err)
	assert.JSONEq(t, `["proton_charge","temperature"]`, string(fields))
	assert.Equal(t, []any{"45121", "45122"}, seen.get("/getNexusFields")["runNumbers"])

	values, err := c.GetNexusLogValueData(ctx, testSource, runs, "temperature")
	require.NoError(t, err)
	assert.JSONEq(t, `{"temperature":[[0,4.2],[60,4.3]]}`, string(values))
	assert.Equal(t, "temperature", seen.get("/getNexusLogValueData")["field"])

	rng, err := c.GetNexusSpectrumRange(ctx, testSource, runs)
	require.NoError(t, err)
	assert.JSONEq(t, `128`, string(rng))
	assert.NotContains(t, seen.get("/getNexusSpectrumRange"), "spectrum")

	spectrum, err := c.GetNexusSpectrum(ctx, testSource, runs, 0)
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":[1,2],"y":[5,6]}`, string(spectrum))
	assert.Equal(t, float64(0), seen.get("/getNexusSpectrum")["spectrum"], "spectrum zero is sent")
}

func TestNexusMarker(t *testing.T) {
	srv, _ := newTestServer(t, map[string]string{"/getNexusFields": `"File Not Found"`})
	_, err := New(srv.URL).GetNexusFields(context.Background(), testSource, []string{"1"})
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, MarkerFileNotFound, perr.Marker)
}
