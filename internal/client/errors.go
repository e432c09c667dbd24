package client

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/raphaelgruber/journal-viewer/internal/models"
)

// Sentinel errors for backend operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTransport indicates no usable reply was received from the backend.
	// It always takes priority over any payload inspection.
	ErrTransport = errors.New("backend transport failure")

	// ErrNotRunning indicates a poll or stop request found no job running on
	// the backend.
	ErrNotRunning = errors.New("backend job not running")

	// ErrProtocol matches every ProtocolError regardless of marker.
	ErrProtocol = errors.New("backend reported an error")
)

// TransportError reports a request that produced no usable reply.
type TransportError struct {
	Endpoint string
	Status   int // zero when no response arrived at all
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}

// Marker is one of the error markers the backend embeds in a reply.
type Marker int

const (
	MarkerInvalidRequest Marker = iota
	MarkerNetwork
	MarkerXMLParse
	MarkerCollectionNotFound
	MarkerJournalNotFound
	MarkerFileNotFound
)

type markerText struct {
	ident  string
	phrase string
}

// Order matters: the first marker found wins.
var markers = []struct {
	marker Marker
	text   markerText
}{
	{MarkerInvalidRequest, markerText{"InvalidRequestError", "Invalid Request"}},
	{MarkerNetwork, markerText{"NetworkError", "Network Error"}},
	{MarkerXMLParse, markerText{"XMLParseError", "XML Parse Error"}},
	{MarkerCollectionNotFound, markerText{"CollectionNotFoundError", "Collection Not Found"}},
	{MarkerJournalNotFound, markerText{"JournalNotFoundError", "Journal Not Found"}},
	{MarkerFileNotFound, markerText{"FileNotFoundError", "File Not Found"}},
}

func (m Marker) String() string {
	for _, entry := range markers {
		if entry.marker == m {
			return entry.text.ident
		}
	}
	return fmt.Sprintf("Marker(%d)", int(m))
}

// Title is the user-facing page title for the marker.
func (m Marker) Title() string {
	switch m {
	case MarkerInvalidRequest:
		return "Invalid Request"
	case MarkerNetwork:
		return "Network Error"
	case MarkerXMLParse:
		return "Journal Parse Error"
	case MarkerCollectionNotFound:
		return "Collection Not Found"
	case MarkerJournalNotFound:
		return "Journal Not Found"
	case MarkerFileNotFound:
		return "File Not Found"
	default:
		return "Backend Error"
	}
}

// Message is the user-facing explanation for the marker.
func (m Marker) Message() string {
	switch m {
	case MarkerInvalidRequest:
		return "The backend rejected the request as invalid."
	case MarkerNetwork:
		return "The backend could not retrieve the requested file from its remote location."
	case MarkerXMLParse:
		return "The journal data could not be parsed by the backend."
	case MarkerCollectionNotFound:
		return "The backend has no journal collection for this source."
	case MarkerJournalNotFound:
		return "The requested journal does not exist in this source."
	case MarkerFileNotFound:
		return "A file required by the request was not found. Generated sources must be generated before they can be browsed."
	default:
		return "The backend reported an error."
	}
}

// ProtocolError reports a reply carrying one of the backend error markers.
type ProtocolError struct {
	Endpoint string
	Marker   Marker
	Body     string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Endpoint, e.Marker, e.Body)
}

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// bareText returns the reply as plain text when it is not a JSON array or
// object. Replies that decode as structured data never carry markers, so a
// run title that happens to contain a marker phrase is not misread.
func bareText(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "", true
	}
	if trimmed[0] == '[' || trimmed[0] == '{' {
		return "", false
	}
	return strings.Trim(string(trimmed), `"`), true
}

// detectMarker finds an error marker in a bare-text reply.
func detectMarker(body []byte) (Marker, bool) {
	text, ok := bareText(body)
	if !ok {
		return 0, false
	}
	for _, entry := range markers {
		if strings.Contains(text, entry.text.ident) || strings.Contains(text, entry.text.phrase) {
			return entry.marker, true
		}
	}
	return 0, false
}

// isNotRunning reports whether a reply is the NOT_RUNNING marker.
func isNotRunning(body []byte) bool {
	text, ok := bareText(body)
	return ok && text == "NOT_RUNNING"
}

// Describe maps a backend error to the title and message shown to the user.
func Describe(err error) models.ErrorInfo {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return models.ErrorInfo{Title: protoErr.Marker.Title(), Message: protoErr.Marker.Message()}
	}
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return models.ErrorInfo{
			Title:   "Backend Unavailable",
			Message: "No valid response was received from the journal backend. Check that it is running.",
		}
	}
	if errors.Is(err, ErrNotRunning) {
		return models.ErrorInfo{Title: "Job Not Running", Message: "The backend is not running the requested job."}
	}
	return models.ErrorInfo{Title: "Error", Message: err.Error()}
}
